// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package kar

import (
	"bytes"
	"io"

	"github.com/cockroachdb/errors"
	"github.com/pierrec/lz4"
	"golang.org/x/exp/mmap"
)

// Open opens the kar archived from r. It will also check
// if the file is actually a kar archive, will return an error
// when file incorrect.
func Open(r io.ReaderAt) (*Archive, error) {
	fileMagic := make([]byte, MagicLength)
	if num, _ := r.ReadAt(fileMagic, 0); num < MagicLength {
		return nil, ErrFileFormat
	} else if !bytes.Equal(fileMagic, magic[:]) {
		return nil, ErrFileFormat
	}

	headerSizeBytes := make([]byte, HeaderSizeNumberLength)
	if num, _ := r.ReadAt(headerSizeBytes, MagicLength); num < HeaderSizeNumberLength {
		return nil, ErrFileFormat
	}

	headerSize, err := binaryToint64(headerSizeBytes)
	if err != nil || headerSize <= 0 {
		return nil, ErrFileFormat
	}

	archiveSize, sized := readerSize(r)
	dataOffset := int64(MagicLength + HeaderSizeNumberLength)
	if sized && headerSize > archiveSize-dataOffset {
		return nil, errors.Wrapf(ErrFileFormat, "header size %d exceeds archive", headerSize)
	} else if !sized && headerSize > MaxHeaderSize {
		return nil, errors.Wrapf(ErrFileFormat, "header size %d exceeds %d", headerSize, MaxHeaderSize)
	}

	headerBytes := make([]byte, headerSize)
	if num, _ := r.ReadAt(headerBytes, dataOffset); int64(num) < headerSize {
		return nil, ErrFileFormat
	}

	var header Header
	if err := gobDecode(&header, headerBytes); err != nil {
		return nil, errors.Mark(errors.Wrap(err, "decode header"), ErrFileFormat)
	}

	dataOffset += headerSize
	dataSize := int64(-1)
	if sized {
		dataSize = archiveSize - dataOffset
	}
	if err := header.validate(dataSize); err != nil {
		return nil, err
	}

	return &Archive{
		reader:     r,
		header:     header,
		dataOffset: dataOffset,
	}, nil
}

// readerSize finds the length of r when it can tell,
// as bytes.Reader, io.SectionReader and mmap.ReaderAt do.
func readerSize(r io.ReaderAt) (int64, bool) {
	switch sr := r.(type) {
	case interface{ Size() int64 }:
		return sr.Size(), true
	case interface{ Len() int }:
		return int64(sr.Len()), true
	}
	return 0, false
}

// OpenFile memory maps the archive at path and opens it.
// The archive must be closed to release the mapping.
func OpenFile(path string) (*Archive, error) {
	m, err := mmap.Open(path)
	if err != nil {
		return nil, err
	}
	ar, err := Open(m)
	if err != nil {
		m.Close()
		return nil, err
	}
	ar.closer = m
	return ar, nil
}

// Archive provides concurrent io for a kar file, and can provide
// an io.Reader for each file separately to perform actions on.
type Archive struct {
	reader     io.ReaderAt
	closer     io.Closer
	header     Header
	dataOffset int64
}

// Header returns the decoded archive header
func (a *Archive) Header() Header {
	return a.header
}

// Names lists the files in the archive in the order they were added
func (a *Archive) Names() []string {
	names := make([]string, 0, len(a.header.Index))
	for _, e := range a.header.Index {
		names = append(names, e.Name)
	}
	return names
}

// ReadAll returns the entire contents of a file with a given name
func (a *Archive) ReadAll(name string) ([]byte, error) {
	r, err := a.Open(name)
	if err != nil {
		return nil, err
	}
	data, err := io.ReadAll(io.LimitReader(r, r.entry.Size))
	if err != nil {
		return nil, errors.Mark(errors.Wrapf(err, "read %s", name), ErrFileFormat)
	}
	if int64(len(data)) != r.entry.Size {
		return nil, errors.Wrapf(ErrFileFormat, "%s: got %d of %d bytes", name, len(data), r.entry.Size)
	}
	return data, nil
}

// Open returns a Reader for a file in the Archive
func (a *Archive) Open(name string) (*Reader, error) {
	entry, ok := a.header.Entry(name)
	if !ok {
		return nil, errors.Wrapf(ErrNotFound, "%s", name)
	}
	section := io.NewSectionReader(a.reader, a.dataOffset+entry.Offset, entry.CompressedSize)
	return &Reader{
		entry:  entry,
		reader: lz4.NewReader(section),
	}, nil
}

// Close releases the memory mapping when the archive was opened with OpenFile
func (a *Archive) Close() error {
	if a.closer == nil {
		return nil
	}
	return a.closer.Close()
}

// Reader is a reader for a single file in an Archive.
// Abstracts away the location that needs to be known.
type Reader struct {
	entry  IndexEntry
	reader io.Reader
}

// Size is the decompressed size of the file
func (r *Reader) Size() int64 {
	return r.entry.Size
}

// Read reads already decompressed data
func (r *Reader) Read(p []byte) (n int, err error) {
	return r.reader.Read(p)
}
