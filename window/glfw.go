// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package window

import (
	"unsafe"

	"github.com/cockroachdb/errors"
	"github.com/go-gl/glfw/v3.3/glfw"
	vk "github.com/vulkan-go/vulkan"

	"github.com/devblok/vkboot/core"
)

type glfwWindow struct {
	window *glfw.Window
}

func openGLFW(cfg core.WindowConfiguration) (Window, error) {
	if err := glfw.Init(); err != nil {
		return nil, core.MarkEnvironment(errors.Wrap(err, "glfw.Init()"))
	}
	if !glfw.VulkanSupported() {
		glfw.Terminate()
		return nil, core.MarkEnvironment(errors.New("glfw: Vulkan is not supported"))
	}

	glfw.WindowHint(glfw.ClientAPI, glfw.NoAPI)
	glfw.WindowHint(glfw.Resizable, glfw.False)
	window, err := glfw.CreateWindow(int(cfg.Width), int(cfg.Height), cfg.Title, nil, nil)
	if err != nil {
		glfw.Terminate()
		return nil, core.MarkEnvironment(errors.Wrap(err, "glfw.CreateWindow()"))
	}
	window.SetKeyCallback(func(w *glfw.Window, key glfw.Key, _ int, action glfw.Action, _ glfw.ModifierKey) {
		if key == glfw.KeyEscape && action == glfw.Press {
			w.SetShouldClose(true)
		}
	})

	return &glfwWindow{window: window}, nil
}

func (g *glfwWindow) ProcAddr() unsafe.Pointer {
	return glfw.GetVulkanGetInstanceProcAddress()
}

func (g *glfwWindow) InstanceExtensions() []string {
	return g.window.GetRequiredInstanceExtensions()
}

func (g *glfwWindow) CreateSurface(instance vk.Instance) (vk.Surface, error) {
	surface, err := g.window.CreateWindowSurface(instance, nil)
	if err != nil {
		return vk.NullSurface, errors.Mark(errors.Wrap(err, "glfw.CreateWindowSurface()"), core.ErrObjectCreation)
	}
	return vk.SurfaceFromPointer(surface), nil
}

func (g *glfwWindow) FramebufferSize() (width, height uint32) {
	w, h := g.window.GetFramebufferSize()
	return uint32(w), uint32(h)
}

func (g *glfwWindow) ShouldClose() bool {
	return g.window.ShouldClose()
}

func (g *glfwWindow) PollEvents() {
	glfw.PollEvents()
}

func (g *glfwWindow) Destroy() {
	if g.window == nil {
		return
	}
	g.window.Destroy()
	g.window = nil
	glfw.Terminate()
}
