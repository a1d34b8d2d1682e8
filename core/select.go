// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package core

import (
	"github.com/cockroachdb/errors"
	vk "github.com/vulkan-go/vulkan"
)

// undefinedExtent is reported as the current surface width when the window
// system lets the swapchain decide the extent.
const undefinedExtent = 0xFFFFFFFF

// QueueFamily is a queue family of a physical device.
type QueueFamily struct {
	Index uint32
	Flags vk.QueueFlags
	Count uint32
}

// Graphics reports whether the family accepts graphics work.
func (q QueueFamily) Graphics() bool {
	return q.Flags&vk.QueueFlags(vk.QueueGraphicsBit) != 0
}

// DeviceCandidate is a physical device considered for rendering. Present
// must answer for this very device and the target surface.
type DeviceCandidate struct {
	Name     string
	Families []QueueFamily
	Present  func(family uint32) (bool, error)
}

// SelectQueueFamily returns the index of the first family of c that supports
// both graphics and presenting to the surface.
func SelectQueueFamily(c DeviceCandidate) (uint32, error) {
	for _, family := range c.Families {
		if !family.Graphics() {
			continue
		}
		if c.Present == nil {
			continue
		}
		supported, err := c.Present(family.Index)
		if err != nil {
			return 0, errors.Wrapf(err, "present support of %q family %d", c.Name, family.Index)
		}
		if supported {
			return family.Index, nil
		}
	}
	return 0, errors.Wrapf(ErrNoSuitableDevice, "%q", c.Name)
}

// SelectDevice picks the first candidate with a graphics family that can
// present. It returns the candidate position and the family index.
func SelectDevice(candidates []DeviceCandidate) (int, uint32, error) {
	if len(candidates) == 0 {
		return 0, 0, ErrNoDevice
	}
	for idx, c := range candidates {
		family, err := SelectQueueFamily(c)
		if errors.Is(err, ErrNoSuitableDevice) {
			continue
		} else if err != nil {
			return 0, 0, err
		}
		return idx, family, nil
	}
	return 0, 0, ErrNoSuitableDevice
}

// SurfaceFormat is a pixel format and color space pair offered by a surface.
type SurfaceFormat struct {
	Format     vk.Format
	ColorSpace vk.ColorSpace
}

// PreferredSurfaceFormat is picked whenever the surface offers it.
var PreferredSurfaceFormat = SurfaceFormat{
	Format:     vk.FormatB8g8r8a8Srgb,
	ColorSpace: vk.ColorSpaceSrgbNonlinear,
}

// SelectSurfaceFormat returns PreferredSurfaceFormat if present in formats,
// the first format otherwise.
func SelectSurfaceFormat(formats []SurfaceFormat) (SurfaceFormat, error) {
	if len(formats) == 0 {
		return SurfaceFormat{}, ErrNoSurfaceFormats
	}
	for _, f := range formats {
		if f == PreferredSurfaceFormat {
			return f, nil
		}
	}
	return formats[0], nil
}

// SwapchainImageCount is one more than the minimum, capped by the maximum
// unless the surface does not limit it (max == 0).
func SwapchainImageCount(minImageCount, maxImageCount uint32) uint32 {
	count := minImageCount + 1
	if maxImageCount > 0 && count > maxImageCount {
		count = maxImageCount
	}
	return count
}

// SurfaceCapabilities holds the dereferenced fields of vk.SurfaceCapabilities
// the swapchain is built from.
type SurfaceCapabilities struct {
	MinImageCount           uint32
	MaxImageCount           uint32
	CurrentExtent           vk.Extent2D
	MinImageExtent          vk.Extent2D
	MaxImageExtent          vk.Extent2D
	CurrentTransform        vk.SurfaceTransformFlagBits
	SupportedCompositeAlpha vk.CompositeAlphaFlags
}

// SelectExtent uses the current surface extent, unless the window system left
// it undefined, then the framebuffer size clamped to the supported range.
func SelectExtent(caps SurfaceCapabilities, width, height uint32) vk.Extent2D {
	if caps.CurrentExtent.Width != undefinedExtent {
		return vk.Extent2D{
			Width:  caps.CurrentExtent.Width,
			Height: caps.CurrentExtent.Height,
		}
	}
	return vk.Extent2D{
		Width:  clamp(width, caps.MinImageExtent.Width, caps.MaxImageExtent.Width),
		Height: clamp(height, caps.MinImageExtent.Height, caps.MaxImageExtent.Height),
	}
}

func clamp(v, lo, hi uint32) uint32 {
	if v < lo {
		return lo
	}
	if hi > 0 && v > hi {
		return hi
	}
	return v
}

var compositeAlphaFlags = []vk.CompositeAlphaFlagBits{
	vk.CompositeAlphaOpaqueBit,
	vk.CompositeAlphaPreMultipliedBit,
	vk.CompositeAlphaPostMultipliedBit,
	vk.CompositeAlphaInheritBit,
}

// SelectCompositeAlpha returns the first supported mode, opaque first.
func SelectCompositeAlpha(supported vk.CompositeAlphaFlags) vk.CompositeAlphaFlagBits {
	for _, flag := range compositeAlphaFlags {
		if supported&vk.CompositeAlphaFlags(flag) != 0 {
			return flag
		}
	}
	return vk.CompositeAlphaOpaqueBit
}
