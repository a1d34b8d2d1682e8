// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package core

import (
	"unsafe"

	"github.com/cockroachdb/errors"
	log "github.com/sirupsen/logrus"
	vk "github.com/vulkan-go/vulkan"
)

const (
	validationLayer    = "VK_LAYER_KHRONOS_validation"
	debugReportExtName = "VK_EXT_debug_report"
)

// NewApplicationInfo describes a Vulkan 1.0 application
func NewApplicationInfo(name string) *vk.ApplicationInfo {
	return &vk.ApplicationInfo{
		SType:              vk.StructureTypeApplicationInfo,
		ApiVersion:         vk.MakeVersion(1, 0, 0),
		ApplicationVersion: vk.MakeVersion(1, 0, 0),
		EngineVersion:      vk.MakeVersion(1, 0, 0),
		PApplicationName:   safeString(name),
		PEngineName:        safeString("No Engine"),
	}
}

// NewVulkanInstance creates a Vulkan instance. procAddr is the loader entry
// point handed out by the windowing library, nil selects the system loader.
func NewVulkanInstance(appInfo *vk.ApplicationInfo, procAddr unsafe.Pointer, cfg InstanceConfiguration, logger log.FieldLogger) (*VulkanInstance, error) {
	if cfg.DebugMode {
		cfg.Layers = append(cfg.Layers, validationLayer)
		cfg.Extensions = append(cfg.Extensions, debugReportExtName)
	}

	if procAddr == nil {
		if err := vk.SetDefaultGetInstanceProcAddr(); err != nil {
			return nil, errors.Mark(errors.Wrap(err, "vk.SetDefaultGetInstanceProcAddr()"), ErrEnvironment)
		}
	} else {
		vk.SetGetInstanceProcAddr(procAddr)
	}

	if err := vk.Init(); err != nil {
		return nil, errors.Mark(errors.Wrap(err, "vk.Init()"), ErrEnvironment)
	}

	/* Create instance */
	instanceInfo := vk.InstanceCreateInfo{
		SType:                   vk.StructureTypeInstanceCreateInfo,
		PApplicationInfo:        appInfo,
		EnabledExtensionCount:   uint32(len(cfg.Extensions)),
		PpEnabledExtensionNames: safeStrings(cfg.Extensions),
		EnabledLayerCount:       uint32(len(cfg.Layers)),
		PpEnabledLayerNames:     safeStrings(cfg.Layers),
	}

	var instance vk.Instance
	if err := vkCreateError("vk.CreateInstance()", vk.CreateInstance(&instanceInfo, nil, &instance)); err != nil {
		return nil, err
	}
	vk.InitInstance(instance)

	v := &VulkanInstance{
		configuration: cfg,
		instance:      instance,
		log:           logger,
	}

	if cfg.DebugMode {
		if err := v.createDebugCallback(); err != nil {
			v.Destroy()
			return nil, err
		}
	}

	/* Enumerate devices */
	physicalDevices, err := enumerateDevices(instance)
	if err != nil {
		v.Destroy()
		return nil, err
	}
	v.availableDevices = physicalDevices

	logger.WithFields(log.Fields{
		"extensions": cfg.Extensions,
		"layers":     cfg.Layers,
		"devices":    len(physicalDevices),
	}).Info("Vulkan instance created")

	return v, nil
}

// VulkanInstance describes a Vulkan API Instance
type VulkanInstance struct {
	configuration InstanceConfiguration
	log           log.FieldLogger

	availableDevices []vk.PhysicalDevice
	instance         vk.Instance
	debugCallback    vk.DebugReportCallback
	debugEnabled     bool
}

func enumerateDevices(instance vk.Instance) ([]vk.PhysicalDevice, error) {
	var deviceCount uint32
	if err := vkQueryError("vk.EnumeratePhysicalDevices()", vk.EnumeratePhysicalDevices(instance, &deviceCount, nil)); err != nil {
		return nil, err
	}
	availableDevices := make([]vk.PhysicalDevice, deviceCount)
	if err := vkQueryError("vk.EnumeratePhysicalDevices()", vk.EnumeratePhysicalDevices(instance, &deviceCount, availableDevices)); err != nil {
		return nil, err
	}
	return availableDevices[:deviceCount], nil
}

func (v *VulkanInstance) createDebugCallback() error {
	dbgCreateInfo := vk.DebugReportCallbackCreateInfo{
		SType:       vk.StructureTypeDebugReportCallbackCreateInfo,
		Flags:       vk.DebugReportFlags(vk.DebugReportErrorBit | vk.DebugReportWarningBit),
		PfnCallback: v.debugReport,
	}
	if err := vkCreateError("vk.CreateDebugReportCallback()",
		vk.CreateDebugReportCallback(v.instance, &dbgCreateInfo, nil, &v.debugCallback)); err != nil {
		return err
	}
	v.debugEnabled = true
	return nil
}

func (v *VulkanInstance) debugReport(flags vk.DebugReportFlags, objectType vk.DebugReportObjectType,
	object uint64, location uint, messageCode int32, pLayerPrefix string,
	pMessage string, pUserData unsafe.Pointer) vk.Bool32 {

	entry := v.log.WithFields(log.Fields{
		"layer": pLayerPrefix,
		"code":  messageCode,
	})
	if flags&vk.DebugReportFlags(vk.DebugReportErrorBit) != 0 {
		entry.Error(pMessage)
	} else {
		entry.Warn(pMessage)
	}
	return vk.Bool32(vk.False)
}

// PhysicalDevicesInfo implements interface
func (v *VulkanInstance) PhysicalDevicesInfo() []PhysicalDeviceInfo {
	pdi := make([]PhysicalDeviceInfo, len(v.availableDevices))
	for i := 0; i < len(v.availableDevices); i++ {
		// Get extension info
		var numDeviceExtensions uint32
		if err := vk.Error(vk.EnumerateDeviceExtensionProperties(v.availableDevices[i], "", &numDeviceExtensions, nil)); err != nil {
			pdi[i].Invalid = true
		}
		deviceExt := make([]vk.ExtensionProperties, numDeviceExtensions)
		if err := vk.Error(vk.EnumerateDeviceExtensionProperties(v.availableDevices[i], "", &numDeviceExtensions, deviceExt)); err != nil {
			pdi[i].Invalid = true
		}
		for _, ext := range deviceExt {
			ext.Deref()
			pdi[i].Extensions = append(pdi[i].Extensions, vk.ToString(ext.ExtensionName[:]))
		}

		// Get layers info
		var numDeviceLayers uint32
		if err := vk.Error(vk.EnumerateDeviceLayerProperties(v.availableDevices[i], &numDeviceLayers, nil)); err != nil {
			pdi[i].Invalid = true
		}
		deviceLayers := make([]vk.LayerProperties, numDeviceLayers)
		if err := vk.Error(vk.EnumerateDeviceLayerProperties(v.availableDevices[i], &numDeviceLayers, deviceLayers)); err != nil {
			pdi[i].Invalid = true
		}
		for _, layer := range deviceLayers {
			layer.Deref()
			pdi[i].Layers = append(pdi[i].Layers, vk.ToString(layer.LayerName[:]))
		}

		// Get memory info
		var memoryProperties vk.PhysicalDeviceMemoryProperties
		vk.GetPhysicalDeviceMemoryProperties(v.availableDevices[i], &memoryProperties)
		memoryProperties.Deref()
		for iMem := (uint32)(0); iMem < memoryProperties.MemoryHeapCount; iMem++ {
			memoryProperties.MemoryHeaps[iMem].Deref()
			pdi[i].Memory = pdi[i].Memory + uint(memoryProperties.MemoryHeaps[iMem].Size)
		}

		pdi[i].ID, pdi[i].VendorID, pdi[i].DriverVersion, pdi[i].Name = deviceProperties(v.availableDevices[i])
		pdi[i].QueueFamilies = v.QueueFamilies(v.availableDevices[i])
	}
	return pdi
}

func deviceProperties(device vk.PhysicalDevice) (id, vendor, driver int, name string) {
	var properties vk.PhysicalDeviceProperties
	vk.GetPhysicalDeviceProperties(device, &properties)
	properties.Deref()
	return int(properties.DeviceID), int(properties.VendorID), int(properties.DriverVersion),
		vk.ToString(properties.DeviceName[:])
}

// DeviceName returns the name the driver reports for a Physical Device
func DeviceName(device vk.PhysicalDevice) string {
	_, _, _, name := deviceProperties(device)
	return name
}

// QueueFamilies implements interface
func (v *VulkanInstance) QueueFamilies(device vk.PhysicalDevice) []QueueFamily {
	var queueFamilyCount uint32
	vk.GetPhysicalDeviceQueueFamilyProperties(device, &queueFamilyCount, nil)
	properties := make([]vk.QueueFamilyProperties, queueFamilyCount)
	vk.GetPhysicalDeviceQueueFamilyProperties(device, &queueFamilyCount, properties)

	families := make([]QueueFamily, 0, queueFamilyCount)
	for idx := uint32(0); idx < queueFamilyCount; idx++ {
		properties[idx].Deref()
		families = append(families, QueueFamily{
			Index: idx,
			Flags: properties[idx].QueueFlags,
			Count: properties[idx].QueueCount,
		})
	}
	return families
}

// Candidates describes every available device for SelectDevice, with present
// support queried against surface on the very device being described.
func (v *VulkanInstance) Candidates(surface vk.Surface) []DeviceCandidate {
	candidates := make([]DeviceCandidate, 0, len(v.availableDevices))
	for _, device := range v.availableDevices {
		device := device
		candidates = append(candidates, DeviceCandidate{
			Name:     DeviceName(device),
			Families: v.QueueFamilies(device),
			Present: func(family uint32) (bool, error) {
				var supported vk.Bool32
				if err := vkQueryError("vk.GetPhysicalDeviceSurfaceSupport()",
					vk.GetPhysicalDeviceSurfaceSupport(device, family, surface, &supported)); err != nil {
					return false, err
				}
				return supported.B(), nil
			},
		})
	}
	return candidates
}

// Instance implements interface
func (v *VulkanInstance) Instance() vk.Instance {
	return v.instance
}

// Extensions implements interface
func (v *VulkanInstance) Extensions() []string {
	return v.configuration.Extensions
}

// AvailableDevices implements interface
func (v *VulkanInstance) AvailableDevices() []vk.PhysicalDevice {
	return v.availableDevices
}

// Destroy implements interface
func (v *VulkanInstance) Destroy() {
	if v == nil || v.instance == nil {
		return
	}
	v.availableDevices = nil
	if v.debugEnabled {
		vk.DestroyDebugReportCallback(v.instance, v.debugCallback, nil)
		v.debugEnabled = false
	}
	vk.DestroyInstance(v.instance, nil)
	v.instance = nil
	v.log.Info("Vulkan instance destroyed")
}
