// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

// Package kar is an api for an lz4 backed file format.
// It's purpose is to be well suited for streaming resources
// from it. It's designed to be memory mapped, so (unlike tar) it knows
// where all the files are located before they're read. The archive itself
// is not compressed, rather every file is individually compressed, so it
// can be read from it's place and decompressed on the fly.
//
// Layout: 4 byte magic, 8 byte little endian header size, gob encoded
// Header, then the compressed files. Index offsets are relative to the
// end of the header.
package kar

import (
	"bytes"
	"encoding/binary"
	"encoding/gob"
	"math"

	"github.com/cockroachdb/errors"
)

// package errors
var (
	ErrFileFormat = errors.New("corrupted or not a kar archive")
	ErrNotFound   = errors.New("file not found in archive")
)

// Sizes relevant to the header of file
const (
	MagicLength            = 4
	HeaderSizeNumberLength = 8

	// MaxHeaderSize bounds the header of archives read
	// from readers that do not report their size
	MaxHeaderSize = 64 << 20
)

var magic = [MagicLength]byte{'K', 'A', 'R', '\x00'}

// IndexEntry is info for one file in the file index.
type IndexEntry struct {
	Name           string
	Offset         int64
	Size           int64
	CompressedSize int64
}

// Header is the file header for kar files.
type Header struct {
	Author      string
	DateCreated int64
	Version     int64
	Index       []IndexEntry
}

// Entry finds the index entry of a file by name.
func (h *Header) Entry(name string) (IndexEntry, bool) {
	for _, e := range h.Index {
		if e.Name == name {
			return e, true
		}
	}
	return IndexEntry{}, false
}

// validate checks every entry lies within a data section of dataSize
// bytes, a negative dataSize skips the upper bound.
func (h *Header) validate(dataSize int64) error {
	for _, e := range h.Index {
		if e.Offset < 0 || e.Size < 0 || e.CompressedSize < 0 {
			return errors.Wrapf(ErrFileFormat, "%s: negative offset or size", e.Name)
		}
		if e.Offset > math.MaxInt64-e.CompressedSize {
			return errors.Wrapf(ErrFileFormat, "%s: offset overflows", e.Name)
		}
		if dataSize >= 0 && e.Offset+e.CompressedSize > dataSize {
			return errors.Wrapf(ErrFileFormat, "%s: ends past the archive", e.Name)
		}
	}
	return nil
}

func int64ToBinary(num int64) []byte {
	bts := make([]byte, HeaderSizeNumberLength)
	binary.LittleEndian.PutUint64(bts, uint64(num))
	return bts
}

func binaryToint64(bts []byte) (int64, error) {
	if len(bts) < HeaderSizeNumberLength {
		return 0, ErrFileFormat
	}
	return int64(binary.LittleEndian.Uint64(bts)), nil
}

func gobEncode(data interface{}) ([]byte, error) {
	var encoded bytes.Buffer
	enc := gob.NewEncoder(&encoded)
	if err := enc.Encode(data); err != nil {
		return nil, err
	}
	return encoded.Bytes(), nil
}

func gobDecode(obj interface{}, bts []byte) error {
	dec := gob.NewDecoder(bytes.NewBuffer(bts))
	return dec.Decode(obj)
}
