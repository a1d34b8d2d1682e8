// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package core_test

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/cockroachdb/errors"
	qt "github.com/frankban/quicktest"

	"github.com/devblok/vkboot/core"
	"github.com/devblok/vkboot/utility/kar"
)

// spirv is a SPIR-V header followed by one instruction word
var spirv = []byte{
	0x03, 0x02, 0x23, 0x07,
	0x00, 0x00, 0x01, 0x00,
	0x00, 0x00, 0x00, 0x00,
	0x05, 0x00, 0x00, 0x00,
	0x00, 0x00, 0x00, 0x00,
	0x11, 0x00, 0x02, 0x00,
}

func TestLoadShaderCodeMissingFile(t *testing.T) {
	c := qt.New(t)
	code, err := core.LoadShaderCode(core.DirectorySource{Dir: c.TempDir()}, "shader.vert.spv")
	c.Assert(code, qt.IsNil)
	c.Assert(errors.Is(err, core.ErrFileAccess), qt.IsTrue)
	c.Assert(errors.Is(err, os.ErrNotExist), qt.IsTrue)
	c.Assert(core.Kind(err), qt.Equals, core.ErrFileAccess)
}

func TestLoadShaderCodeDirectory(t *testing.T) {
	c := qt.New(t)
	dir := c.TempDir()
	c.Assert(os.WriteFile(filepath.Join(dir, "shader.frag.spv"), spirv, 0644), qt.IsNil)

	code, err := core.LoadShaderCode(core.DirectorySource{Dir: dir}, "shader.frag.spv")
	c.Assert(err, qt.IsNil)
	c.Assert(code, qt.DeepEquals, spirv)
	c.Assert(core.SliceUint32(code), qt.HasLen, len(spirv)/4)
}

func TestLoadShaderCodeInvalid(t *testing.T) {
	tests := []struct {
		name     string
		contents []byte
		err      string
	}{{
		name:     "empty",
		contents: []byte{},
		err:      `empty.spv: size 0: not a SPIR-V binary`,
	}, {
		name:     "truncated",
		contents: spirv[:6],
		err:      `truncated.spv: size 6: not a SPIR-V binary`,
	}, {
		name:     "text",
		contents: []byte("#version 450\n\x00\x00\x00"),
		err:      `text.spv: bad magic: not a SPIR-V binary`,
	}}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			c := qt.New(t)
			dir := c.TempDir()
			name := test.name + ".spv"
			c.Assert(os.WriteFile(filepath.Join(dir, name), test.contents, 0644), qt.IsNil)

			code, err := core.LoadShaderCode(core.DirectorySource{Dir: dir}, name)
			c.Assert(code, qt.IsNil)
			c.Assert(err, qt.ErrorMatches, test.err)
			c.Assert(errors.Is(err, core.ErrInvalidShader), qt.IsTrue)
			c.Assert(core.Kind(err), qt.Equals, core.ErrObjectCreation)
		})
	}
}

func TestArchiveSource(t *testing.T) {
	c := qt.New(t)
	builder := kar.NewBuilder(kar.Header{Author: "vkboot", Version: 1})
	c.Assert(builder.Add("shader.vert.spv", bytes.NewReader(spirv)), qt.IsNil)

	path := filepath.Join(c.TempDir(), "shaders.kar")
	f, err := os.Create(path)
	c.Assert(err, qt.IsNil)
	_, err = builder.WriteTo(f)
	c.Assert(err, qt.IsNil)
	c.Assert(f.Close(), qt.IsNil)

	src, err := core.OpenArchiveSource(path)
	c.Assert(err, qt.IsNil)
	defer src.Close()

	code, err := core.LoadShaderCode(src, "shader.vert.spv")
	c.Assert(err, qt.IsNil)
	c.Assert(code, qt.DeepEquals, spirv)

	code, err = core.LoadShaderCode(src, "shader.frag.spv")
	c.Assert(code, qt.IsNil)
	c.Assert(errors.Is(err, core.ErrFileAccess), qt.IsTrue)
	c.Assert(errors.Is(err, kar.ErrNotFound), qt.IsTrue)
}

func TestOpenArchiveSourceMissing(t *testing.T) {
	c := qt.New(t)
	_, err := core.OpenArchiveSource(filepath.Join(c.TempDir(), "missing.kar"))
	c.Assert(core.Kind(err), qt.Equals, core.ErrFileAccess)
}
