// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package core

import (
	"testing"

	qt "github.com/frankban/quicktest"
	vk "github.com/vulkan-go/vulkan"
)

func TestReleaseStackReverseOrder(t *testing.T) {
	c := qt.New(t)
	var released, reported []string
	var r releaseStack
	for _, name := range []string{"surface", "device", "swapchain", "image view 0", "image view 1", "render pass"} {
		name := name
		r.push(name, func() {
			released = append(released, name)
		})
	}
	c.Assert(r.len(), qt.Equals, 6)

	r.releaseAll(func(name string) {
		reported = append(reported, name)
	})
	want := []string{"render pass", "image view 1", "image view 0", "swapchain", "device", "surface"}
	c.Assert(released, qt.DeepEquals, want)
	c.Assert(reported, qt.DeepEquals, want)
	c.Assert(r.len(), qt.Equals, 0)
}

func TestReleaseStackReleasesOnce(t *testing.T) {
	c := qt.New(t)
	var count int
	var r releaseStack
	r.push("device", func() { count++ })

	r.releaseAll(nil)
	r.releaseAll(nil)
	c.Assert(count, qt.Equals, 1)
}

// A partially initialised renderer releases only what it created.
func TestRendererDestroyPartial(t *testing.T) {
	c := qt.New(t)
	var released []string
	v := &VulkanRenderer{log: newTestLogger()}
	v.releases.push("surface", func() { released = append(released, "surface") })
	v.releases.push("swapchain", func() { released = append(released, "swapchain") })

	v.Destroy()
	v.Destroy()
	c.Assert(released, qt.DeepEquals, []string{"swapchain", "surface"})
}

func TestShaderDestroyOnce(t *testing.T) {
	c := qt.New(t)
	var destroyed int
	shader := &VulkanShader{
		name:       "shader.vert.spv",
		shaderType: VertexShaderType,
		destroy: func(vk.Device, vk.ShaderModule) {
			destroyed++
		},
	}

	var r releaseStack
	r.push("shader "+shader.Name(), shader.Destroy)
	r.releaseAll(nil)
	shader.Destroy()
	c.Assert(destroyed, qt.Equals, 1)
}
