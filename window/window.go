// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

// Package window opens the native window Vulkan presents to and runs
// the event loop until the window is closed.
package window

import (
	"context"
	"unsafe"

	"github.com/cockroachdb/errors"
	vk "github.com/vulkan-go/vulkan"

	"github.com/devblok/vkboot/core"
)

// Supported windowing backends
const (
	BackendGLFW = "glfw"
	BackendSDL  = "sdl"
)

// EventSource is the part of a window the event loop drives
type EventSource interface {
	// ShouldClose reports whether closing was requested
	ShouldClose() bool

	// PollEvents processes pending window events
	PollEvents()
}

// Window is a native window able to host a Vulkan surface.
// It owns the windowing library, Destroy releases both.
type Window interface {
	EventSource
	core.Destroyable

	// ProcAddr is vkGetInstanceProcAddr as loaded by the windowing library
	ProcAddr() unsafe.Pointer

	// InstanceExtensions are the instance extensions surfaces need
	InstanceExtensions() []string

	// CreateSurface creates a surface for the window, the caller owns it
	CreateSurface(instance vk.Instance) (vk.Surface, error)

	// FramebufferSize is the drawable size in pixels
	FramebufferSize() (width, height uint32)
}

// Open opens a window with the configured backend
func Open(cfg core.WindowConfiguration) (Window, error) {
	switch cfg.Backend {
	case BackendGLFW, "":
		return openGLFW(cfg)
	case BackendSDL:
		return openSDL(cfg)
	default:
		return nil, core.MarkEnvironment(errors.Newf("unknown window backend %q", cfg.Backend))
	}
}

// Loop polls src every tick of t until it should close or ctx is done.
// It returns ctx.Err() when interrupted, nil otherwise.
func Loop(ctx context.Context, src EventSource, t *core.Time) error {
	for !src.ShouldClose() {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-t.EventTicker().C:
			src.PollEvents()
		}
	}
	return nil
}
