// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package kar_test

import (
	"bytes"
	"encoding/binary"
	"encoding/gob"
	"io"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/cockroachdb/errors"
	qt "github.com/frankban/quicktest"

	"github.com/devblok/vkboot/utility/kar"
)

var (
	testString1 = "idunvovkjnreovmegihjbrqlkmfrjnb"
	testString2 = "idunvovkjnreovmsdvwrvnervnreegihjbrqlkmfrjnb"
)

func buildArchive(c *qt.C, files map[string]string, order ...string) []byte {
	builder := kar.NewBuilder(kar.Header{
		Author:      "devblok",
		DateCreated: time.Now().Unix(),
		Version:     1,
	})
	for _, name := range order {
		c.Assert(builder.Add(name, strings.NewReader(files[name])), qt.IsNil)
	}
	c.Assert(builder.Len(), qt.Equals, len(order))

	buf := bytes.NewBuffer([]byte{})
	written, err := builder.WriteTo(buf)
	c.Assert(err, qt.IsNil)
	c.Assert(written, qt.Equals, int64(buf.Len()))
	return buf.Bytes()
}

func TestCreateAndRead(t *testing.T) {
	c := qt.New(t)
	raw := buildArchive(c, map[string]string{
		"test":  testString1,
		"test2": testString2,
	}, "test", "test2")

	ar, err := kar.Open(bytes.NewReader(raw))
	c.Assert(err, qt.IsNil)
	c.Assert(ar.Names(), qt.DeepEquals, []string{"test", "test2"})
	c.Assert(ar.Header().Author, qt.Equals, "devblok")

	f, err := ar.Open("test")
	c.Assert(err, qt.IsNil)
	c.Assert(f.Size(), qt.Equals, int64(len(testString1)))
	result := make([]byte, len(testString1))
	_, err = io.ReadFull(f, result)
	c.Assert(err, qt.IsNil)
	c.Assert(string(result), qt.Equals, testString1)

	all, err := ar.ReadAll("test2")
	c.Assert(err, qt.IsNil)
	c.Assert(string(all), qt.Equals, testString2)
}

func TestReadAllEmptyFile(t *testing.T) {
	c := qt.New(t)
	raw := buildArchive(c, map[string]string{"empty": ""}, "empty")

	ar, err := kar.Open(bytes.NewReader(raw))
	c.Assert(err, qt.IsNil)
	data, err := ar.ReadAll("empty")
	c.Assert(err, qt.IsNil)
	c.Assert(data, qt.HasLen, 0)
}

func TestOpenMissingFile(t *testing.T) {
	c := qt.New(t)
	raw := buildArchive(c, map[string]string{"test": testString1}, "test")

	ar, err := kar.Open(bytes.NewReader(raw))
	c.Assert(err, qt.IsNil)
	_, err = ar.ReadAll("nope")
	c.Assert(errors.Is(err, kar.ErrNotFound), qt.IsTrue)
}

// rawArchive lays out an archive around an arbitrary header
func rawArchive(c *qt.C, header kar.Header, data []byte) []byte {
	var encoded bytes.Buffer
	c.Assert(gob.NewEncoder(&encoded).Encode(header), qt.IsNil)

	raw := []byte("KAR\x00")
	raw = binary.LittleEndian.AppendUint64(raw, uint64(encoded.Len()))
	raw = append(raw, encoded.Bytes()...)
	return append(raw, data...)
}

// readerAtOnly hides the size of the wrapped reader
type readerAtOnly struct {
	r io.ReaderAt
}

func (r readerAtOnly) ReadAt(p []byte, off int64) (int, error) {
	return r.r.ReadAt(p, off)
}

func TestOpenNotAnArchive(t *testing.T) {
	c := qt.New(t)
	entries := func(e ...kar.IndexEntry) kar.Header {
		return kar.Header{Version: 1, Index: e}
	}
	for _, raw := range [][]byte{
		nil,
		[]byte("KA"),
		[]byte("TAR\x00aaaaaaaa"),
		[]byte("KAR\x00\x01"),
		append([]byte("KAR\x00"), 0xff, 0, 0, 0, 0, 0, 0, 0),
		append([]byte("KAR\x00"), 0, 0, 0, 0, 0, 0, 0, 0x40),
		append([]byte("KAR\x00"), 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0x7f),
		append([]byte("KAR\x00"), 0, 0, 0, 0, 0, 0, 0, 0x80),
		rawArchive(c, entries(kar.IndexEntry{Name: "a", Size: -1}), nil),
		rawArchive(c, entries(kar.IndexEntry{Name: "a", CompressedSize: -4}), nil),
		rawArchive(c, entries(kar.IndexEntry{Name: "a", Offset: -1}), nil),
		rawArchive(c, entries(kar.IndexEntry{Name: "a", Size: 3, CompressedSize: 16}), []byte("short")),
		rawArchive(c, entries(kar.IndexEntry{Name: "a", Offset: math.MaxInt64, CompressedSize: 1}), []byte("x")),
	} {
		_, err := kar.Open(bytes.NewReader(raw))
		c.Assert(errors.Is(err, kar.ErrFileFormat), qt.IsTrue, qt.Commentf("input %q", raw))
	}
}

func TestOpenUnsizedReaderBoundsHeader(t *testing.T) {
	c := qt.New(t)
	raw := append([]byte("KAR\x00"), 0, 0, 0, 0, 0, 0, 0, 0x40)
	_, err := kar.Open(readerAtOnly{bytes.NewReader(raw)})
	c.Assert(errors.Is(err, kar.ErrFileFormat), qt.IsTrue)

	ar, err := kar.Open(readerAtOnly{bytes.NewReader(buildArchive(c, map[string]string{"test": testString1}, "test"))})
	c.Assert(err, qt.IsNil)
	data, err := ar.ReadAll("test")
	c.Assert(err, qt.IsNil)
	c.Assert(string(data), qt.Equals, testString1)
}

func TestReadAllSizeMismatch(t *testing.T) {
	c := qt.New(t)
	raw := rawArchive(c, kar.Header{Index: []kar.IndexEntry{{Name: "huge", Size: 1 << 62}}}, nil)

	ar, err := kar.Open(bytes.NewReader(raw))
	c.Assert(err, qt.IsNil)
	data, err := ar.ReadAll("huge")
	c.Assert(data, qt.IsNil)
	c.Assert(errors.Is(err, kar.ErrFileFormat), qt.IsTrue)
}

func TestDuplicateName(t *testing.T) {
	c := qt.New(t)
	builder := kar.NewBuilder(kar.Header{Version: 1})
	c.Assert(builder.Add("a", strings.NewReader("1")), qt.IsNil)
	c.Assert(builder.Add("a", strings.NewReader("2")), qt.ErrorMatches, "a added twice")
}

func TestOpenFileMapped(t *testing.T) {
	c := qt.New(t)
	raw := buildArchive(c, map[string]string{
		"shader.vert.spv": testString1,
		"shader.frag.spv": testString2,
	}, "shader.vert.spv", "shader.frag.spv")

	path := filepath.Join(c.TempDir(), "shaders.kar")
	c.Assert(os.WriteFile(path, raw, 0644), qt.IsNil)

	ar, err := kar.OpenFile(path)
	c.Assert(err, qt.IsNil)
	defer ar.Close()

	data, err := ar.ReadAll("shader.frag.spv")
	c.Assert(err, qt.IsNil)
	c.Assert(string(data), qt.Equals, testString2)
}

func TestOpenFileMissing(t *testing.T) {
	c := qt.New(t)
	_, err := kar.OpenFile(filepath.Join(c.TempDir(), "missing.kar"))
	c.Assert(errors.Is(err, os.ErrNotExist), qt.IsTrue)
}
