// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package core

import (
	"testing"

	qt "github.com/frankban/quicktest"
)

func TestSliceUint32(t *testing.T) {
	c := qt.New(t)
	c.Assert(SliceUint32(nil), qt.IsNil)
	c.Assert(SliceUint32([]byte{1, 2, 3}), qt.IsNil)
	c.Assert(SliceUint32([]byte{0x03, 0x02, 0x23, 0x07, 1, 0, 0, 0, 9}), qt.DeepEquals, []uint32{0x07230203, 1})
}

func TestSafeString(t *testing.T) {
	c := qt.New(t)
	c.Assert(safeString("VK_KHR_surface"), qt.Equals, "VK_KHR_surface\x00")
	c.Assert(safeString("VK_KHR_surface\x00"), qt.Equals, "VK_KHR_surface\x00")
	c.Assert(safeString(""), qt.Equals, "\x00")
	c.Assert(safeStrings([]string{"a", "b\x00"}), qt.DeepEquals, []string{"a\x00", "b\x00"})
}

func BenchmarkSliceUint32Small(b *testing.B) {
	data := make([]byte, 100)
	for idx := 0; idx < b.N; idx++ {
		SliceUint32(data)
	}
}

func BenchmarkSliceUint32Medium(b *testing.B) {
	data := make([]byte, 1000)
	for idx := 0; idx < b.N; idx++ {
		SliceUint32(data)
	}
}

func BenchmarkSliceUint32Big(b *testing.B) {
	data := make([]byte, 100000)
	for idx := 0; idx < b.N; idx++ {
		SliceUint32(data)
	}
}

func BenchmarkSafeStrings(b *testing.B) {
	names := []string{"VK_KHR_surface", "VK_KHR_xcb_surface", "VK_EXT_debug_report\x00"}
	for idx := 0; idx < b.N; idx++ {
		safeStrings(names)
	}
}
