// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package window

import (
	"unsafe"

	"github.com/cockroachdb/errors"
	"github.com/veandco/go-sdl2/sdl"
	vk "github.com/vulkan-go/vulkan"

	"github.com/devblok/vkboot/core"
)

type sdlWindow struct {
	window      *sdl.Window
	shouldClose bool
}

func openSDL(cfg core.WindowConfiguration) (Window, error) {
	if err := sdl.Init(sdl.INIT_VIDEO | sdl.INIT_EVENTS); err != nil {
		return nil, core.MarkEnvironment(errors.Wrap(err, "sdl.Init()"))
	}
	if err := sdl.VulkanLoadLibrary(""); err != nil {
		sdl.Quit()
		return nil, core.MarkEnvironment(errors.Wrap(err, "sdl.VulkanLoadLibrary()"))
	}

	window, err := sdl.CreateWindow(cfg.Title,
		sdl.WINDOWPOS_UNDEFINED,
		sdl.WINDOWPOS_UNDEFINED,
		int32(cfg.Width),
		int32(cfg.Height),
		sdl.WINDOW_VULKAN)
	if err != nil {
		sdl.VulkanUnloadLibrary()
		sdl.Quit()
		return nil, core.MarkEnvironment(errors.Wrap(err, "sdl.CreateWindow()"))
	}

	return &sdlWindow{window: window}, nil
}

func (s *sdlWindow) ProcAddr() unsafe.Pointer {
	return sdl.VulkanGetVkGetInstanceProcAddr()
}

func (s *sdlWindow) InstanceExtensions() []string {
	return s.window.VulkanGetInstanceExtensions()
}

func (s *sdlWindow) CreateSurface(instance vk.Instance) (vk.Surface, error) {
	surface, err := s.window.VulkanCreateSurface(instance)
	if err != nil {
		return vk.NullSurface, errors.Mark(errors.Wrap(err, "sdl.VulkanCreateSurface()"), core.ErrObjectCreation)
	}
	return vk.SurfaceFromPointer(uintptr(surface)), nil
}

func (s *sdlWindow) FramebufferSize() (width, height uint32) {
	w, h := s.window.VulkanGetDrawableSize()
	return uint32(w), uint32(h)
}

func (s *sdlWindow) ShouldClose() bool {
	return s.shouldClose
}

func (s *sdlWindow) PollEvents() {
	for event := sdl.PollEvent(); event != nil; event = sdl.PollEvent() {
		switch et := event.(type) {
		case *sdl.KeyboardEvent:
			if et.Keysym.Sym == sdl.K_ESCAPE {
				s.shouldClose = true
			}
		case *sdl.QuitEvent:
			s.shouldClose = true
		}
	}
}

func (s *sdlWindow) Destroy() {
	if s.window == nil {
		return
	}
	s.window.Destroy()
	s.window = nil
	sdl.VulkanUnloadLibrary()
	sdl.Quit()
}
