// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package core

import (
	vk "github.com/vulkan-go/vulkan"
)

// Destroyable is implemented by everything owning driver objects
type Destroyable interface {
	// Destroy releases owned objects, it is safe to call more than once
	Destroy()
}

// Instance describes a Vulkan instance and supporting methods.
// Once created it is ready to use.
type Instance interface {
	Destroyable

	// PhysicalDevicesInfo returns a struct for each Physical Device
	// along with info about those devices
	PhysicalDevicesInfo() []PhysicalDeviceInfo

	// AvailableDevices returns handles of Physical Devices
	// from the Vulkan API
	AvailableDevices() []vk.PhysicalDevice

	// QueueFamilies returns the queue families of a Physical Device
	QueueFamilies(vk.PhysicalDevice) []QueueFamily

	// Candidates describes AvailableDevices, in the same order,
	// for selection against a surface
	Candidates(vk.Surface) []DeviceCandidate

	// Instance returns the inner handle of the underlying API
	Instance() vk.Instance

	// Extensions returns enabled instance extensions
	Extensions() []string
}

// Renderer describes the rendering machinery.
// It's created only with internal values set,
// it needs to be initialised with Initialise() before use.
type Renderer interface {
	Destroyable

	// Initialise sets up the configured rendering pipeline
	Initialise() error
}

// Shader is a loaded shader module
type Shader interface {
	Destroyable

	Name() string
	Type() ShaderType
	StageInfo() (vk.PipelineShaderStageCreateInfo, error)
}

// ShaderType represents the type of shader thats loaded
type ShaderType int

// Identifies shader objects with their types
const (
	VertexShaderType ShaderType = iota
	FragmentShaderType
	UnknownShaderType
)

// PhysicalDeviceInfo describes available physical properties of a rendering device
type PhysicalDeviceInfo struct {
	ID            int
	VendorID      int
	DriverVersion int
	Name          string
	Invalid       bool
	Extensions    []string
	Layers        []string
	Memory        uint
	QueueFamilies []QueueFamily
}
