// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package main

import (
	"flag"
	"fmt"
	"io"
	"os"
	"os/user"
	"path/filepath"
	"strings"
	"time"

	"github.com/cockroachdb/errors"
	log "github.com/sirupsen/logrus"

	"github.com/devblok/vkboot/utility/kar"
)

var currentUserName = "unknown"

func init() {
	if u, err := user.Current(); err == nil && u.Username != "" {
		currentUserName = u.Username
	}
}

var (
	author   = flag.String("author", currentUserName, "Set the author of the package when compressing")
	version  = flag.Int64("version", 1, "Archive version number to create it with")
	extract  = flag.String("e", "", "Extract the archive given into -o")
	compress = flag.String("c", "", "Compress the given file/folder")
	list     = flag.String("l", "", "List the files of the archive given")
	dstFile  = flag.String("f", "out.kar", "Destination file")
	outDir   = flag.String("o", ".", "Destination directory when extracting")
	silent   = flag.Bool("s", false, "Silent")
)

func main() {
	flag.Parse()
	if *silent {
		log.SetLevel(log.WarnLevel)
	}

	var ops int
	for _, op := range []string{*extract, *compress, *list} {
		if op != "" {
			ops++
		}
	}

	var err error
	switch {
	case ops == 0:
		flag.PrintDefaults()
		return
	case ops > 1:
		err = errors.New("only one operation at a time")
	case *compress != "":
		err = compressFiles(*compress, *dstFile)
	case *extract != "":
		err = extractFiles(*extract, *outDir)
	case *list != "":
		err = listFiles(*list, os.Stdout)
	}
	if err != nil {
		log.WithError(err).Error("kar failed")
		os.Exit(-1)
	}
}

func compressFiles(src, dst string) error {
	if _, err := os.Stat(dst); err == nil {
		return errors.Newf("destination file %s exists, will not overwrite", dst)
	}

	var filesToCompress []string
	if err := filepath.Walk(src, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() {
			return nil
		}
		filesToCompress = append(filesToCompress, path)
		return nil
	}); err != nil {
		return errors.Wrapf(err, "walk %s", src)
	}

	karBuilder := kar.NewBuilder(kar.Header{
		Author:      *author,
		DateCreated: time.Now().Unix(),
		Version:     *version,
	})

	for _, ftc := range filesToCompress {
		name, err := filepath.Rel(src, ftc)
		if err != nil || name == "." {
			name = filepath.Base(ftc)
		}
		if err := addFile(karBuilder, filepath.ToSlash(name), ftc); err != nil {
			return err
		}
		log.WithField("file", name).Info("Added")
	}

	f, err := os.Create(dst)
	if err != nil {
		return err
	}
	written, err := karBuilder.WriteTo(f)
	if err != nil {
		f.Close()
		os.Remove(dst)
		return errors.Wrapf(err, "write %s", dst)
	}
	log.WithFields(log.Fields{
		"archive": dst,
		"files":   karBuilder.Len(),
		"bytes":   written,
	}).Info("Archive written")
	return f.Close()
}

func addFile(b *kar.Builder, name, path string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()
	return b.Add(name, f)
}

func extractFiles(archive, dir string) error {
	ar, err := kar.OpenFile(archive)
	if err != nil {
		return errors.Wrapf(err, "open %s", archive)
	}
	defer ar.Close()

	for _, name := range ar.Names() {
		path := filepath.Join(dir, filepath.FromSlash(name))
		if rel, err := filepath.Rel(dir, path); err != nil || strings.HasPrefix(rel, "..") {
			return errors.Newf("%s escapes %s", name, dir)
		}
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			return err
		}
		if err := extractFile(ar, name, path); err != nil {
			return err
		}
		log.WithField("file", path).Info("Extracted")
	}
	return nil
}

func extractFile(ar *kar.Archive, name, path string) error {
	r, err := ar.Open(name)
	if err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if _, err := io.CopyN(f, r, r.Size()); err != nil {
		f.Close()
		return errors.Wrapf(err, "extract %s", name)
	}
	return f.Close()
}

func listFiles(archive string, w io.Writer) error {
	ar, err := kar.OpenFile(archive)
	if err != nil {
		return errors.Wrapf(err, "open %s", archive)
	}
	defer ar.Close()

	header := ar.Header()
	fmt.Fprintf(w, "author: %s, version: %d, created: %s\n",
		header.Author, header.Version, time.Unix(header.DateCreated, 0).Format(time.RFC3339))
	for _, entry := range header.Index {
		fmt.Fprintf(w, "%10d %10d %s\n", entry.Size, entry.CompressedSize, entry.Name)
	}
	return nil
}
