// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package core

import (
	"strconv"

	"github.com/cockroachdb/errors"
	log "github.com/sirupsen/logrus"
	vk "github.com/vulkan-go/vulkan"
)

// NewVulkanRenderer creates a not yet initialised Vulkan API renderer.
// The renderer takes ownership of surface and destroys it along with
// everything it creates.
func NewVulkanRenderer(instance Instance, surface vk.Surface, shaders ShaderSource, cfg RendererConfiguration, logger log.FieldLogger) *VulkanRenderer {
	v := &VulkanRenderer{
		configuration: cfg,
		log:           logger,
		instance:      instance,
		surface:       surface,
		shaderSource:  shaders,
	}
	vkInstance := instance.Instance()
	v.releases.push("surface", func() {
		vk.DestroySurface(vkInstance, surface, nil)
	})
	return v
}

// VulkanRenderer is a Vulkan API renderer. It owns every object created
// while initialising and releases them in reverse creation order.
type VulkanRenderer struct {
	configuration RendererConfiguration
	log           log.FieldLogger
	releases      releaseStack

	instance     Instance
	surface      vk.Surface
	shaderSource ShaderSource
	shaders      []Shader

	physicalDevice     vk.PhysicalDevice
	deviceName         string
	graphicsQueueIndex uint32
	logicalDevice      vk.Device
	deviceQueue        vk.Queue

	surfaceCapabilities SurfaceCapabilities
	surfaceFormat       SurfaceFormat
	presentMode         vk.PresentMode
	extent              vk.Extent2D

	swapchain           vk.Swapchain
	swapchainImages     []vk.Image
	swapchainImageViews []vk.ImageView
	framebuffers        []vk.Framebuffer
	renderPass          vk.RenderPass

	pipelineLayout vk.PipelineLayout
	pipelineCache  vk.PipelineCache
	pipeline       vk.Pipeline
}

// Initialise implements interface
func (v *VulkanRenderer) Initialise() error {
	stages := []struct {
		name string
		run  func() error
	}{
		{"select physical device", v.selectPhysicalDevice},
		{"create logical device", v.createLogicalDevice},
		{"query surface", v.querySurface},
		{"create swapchain", v.createSwapchain},
		{"create image views", v.createImageViews},
		{"create render pass", v.createRenderPass},
		{"create framebuffers", v.createFramebuffers},
		{"load shaders", v.loadShaders},
		{"create pipeline layout", v.createPipelineLayout},
		{"create pipeline cache", v.createPipelineCache},
		{"create pipeline", v.createPipeline},
	}
	for _, stage := range stages {
		if err := stage.run(); err != nil {
			return errors.Wrap(err, stage.name)
		}
	}
	return nil
}

func (v *VulkanRenderer) selectPhysicalDevice() error {
	candidates := v.instance.Candidates(v.surface)
	idx, family, err := SelectDevice(candidates)
	if err != nil {
		return err
	}
	v.physicalDevice = v.instance.AvailableDevices()[idx]
	v.deviceName = candidates[idx].Name
	v.graphicsQueueIndex = family

	v.log.WithFields(log.Fields{
		"device":      v.deviceName,
		"queueFamily": family,
	}).Info("GPU selected")
	return nil
}

func (v *VulkanRenderer) createLogicalDevice() error {
	queueInfos := []vk.DeviceQueueCreateInfo{{
		SType:            vk.StructureTypeDeviceQueueCreateInfo,
		QueueFamilyIndex: v.graphicsQueueIndex,
		QueueCount:       1,
		PQueuePriorities: []float32{1.0},
	}}

	dci := vk.DeviceCreateInfo{
		SType:                   vk.StructureTypeDeviceCreateInfo,
		QueueCreateInfoCount:    uint32(len(queueInfos)),
		PQueueCreateInfos:       queueInfos,
		EnabledExtensionCount:   uint32(len(v.configuration.DeviceExtensions)),
		PpEnabledExtensionNames: safeStrings(v.configuration.DeviceExtensions),
	}

	var device vk.Device
	if err := vkCreateError("vk.CreateDevice()", vk.CreateDevice(v.physicalDevice, &dci, nil, &device)); err != nil {
		return err
	}
	v.logicalDevice = device
	v.releases.push("logical device", func() {
		vk.DestroyDevice(device, nil)
	})

	var queue vk.Queue
	vk.GetDeviceQueue(device, v.graphicsQueueIndex, 0, &queue)
	v.deviceQueue = queue

	v.log.WithField("extensions", v.configuration.DeviceExtensions).Info("Logical device created")
	return nil
}

func (v *VulkanRenderer) querySurface() error {
	var capabilities vk.SurfaceCapabilities
	if err := vkQueryError("vk.GetPhysicalDeviceSurfaceCapabilities()",
		vk.GetPhysicalDeviceSurfaceCapabilities(v.physicalDevice, v.surface, &capabilities)); err != nil {
		return err
	}
	capabilities.Deref()
	capabilities.CurrentExtent.Deref()
	capabilities.MinImageExtent.Deref()
	capabilities.MaxImageExtent.Deref()
	v.surfaceCapabilities = SurfaceCapabilities{
		MinImageCount:           capabilities.MinImageCount,
		MaxImageCount:           capabilities.MaxImageCount,
		CurrentExtent:           capabilities.CurrentExtent,
		MinImageExtent:          capabilities.MinImageExtent,
		MaxImageExtent:          capabilities.MaxImageExtent,
		CurrentTransform:        capabilities.CurrentTransform,
		SupportedCompositeAlpha: capabilities.SupportedCompositeAlpha,
	}

	var formatCount uint32
	if err := vkQueryError("vk.GetPhysicalDeviceSurfaceFormats()",
		vk.GetPhysicalDeviceSurfaceFormats(v.physicalDevice, v.surface, &formatCount, nil)); err != nil {
		return err
	}
	vkFormats := make([]vk.SurfaceFormat, formatCount)
	if err := vkQueryError("vk.GetPhysicalDeviceSurfaceFormats()",
		vk.GetPhysicalDeviceSurfaceFormats(v.physicalDevice, v.surface, &formatCount, vkFormats)); err != nil {
		return err
	}
	formats := make([]SurfaceFormat, 0, formatCount)
	for idx := uint32(0); idx < formatCount; idx++ {
		vkFormats[idx].Deref()
		formats = append(formats, SurfaceFormat{
			Format:     vkFormats[idx].Format,
			ColorSpace: vkFormats[idx].ColorSpace,
		})
	}

	surfaceFormat, err := SelectSurfaceFormat(formats)
	if err != nil {
		return err
	}
	v.surfaceFormat = surfaceFormat

	var presentModeCount uint32
	if err := vkQueryError("vk.GetPhysicalDeviceSurfacePresentModes()",
		vk.GetPhysicalDeviceSurfacePresentModes(v.physicalDevice, v.surface, &presentModeCount, nil)); err != nil {
		return err
	}
	presentModes := make([]vk.PresentMode, presentModeCount)
	if err := vkQueryError("vk.GetPhysicalDeviceSurfacePresentModes()",
		vk.GetPhysicalDeviceSurfacePresentModes(v.physicalDevice, v.surface, &presentModeCount, presentModes)); err != nil {
		return err
	}
	v.presentMode = vk.PresentModeFifo
	v.extent = SelectExtent(v.surfaceCapabilities, v.configuration.ScreenWidth, v.configuration.ScreenHeight)

	v.log.WithFields(log.Fields{
		"formats":      len(formats),
		"format":       surfaceFormat.Format,
		"colorSpace":   surfaceFormat.ColorSpace,
		"presentModes": presentModes[:presentModeCount],
		"minImages":    v.surfaceCapabilities.MinImageCount,
		"maxImages":    v.surfaceCapabilities.MaxImageCount,
	}).Debug("Surface queried")
	return nil
}

func (v *VulkanRenderer) createSwapchain() error {
	imageCount := SwapchainImageCount(v.surfaceCapabilities.MinImageCount, v.surfaceCapabilities.MaxImageCount)

	scci := vk.SwapchainCreateInfo{
		SType:            vk.StructureTypeSwapchainCreateInfo,
		Surface:          v.surface,
		MinImageCount:    imageCount,
		ImageFormat:      v.surfaceFormat.Format,
		ImageColorSpace:  v.surfaceFormat.ColorSpace,
		ImageExtent:      v.extent,
		ImageArrayLayers: 1,
		ImageUsage:       vk.ImageUsageFlags(vk.ImageUsageColorAttachmentBit),
		ImageSharingMode: vk.SharingModeExclusive,
		PreTransform:     v.surfaceCapabilities.CurrentTransform,
		CompositeAlpha:   SelectCompositeAlpha(v.surfaceCapabilities.SupportedCompositeAlpha),
		PresentMode:      v.presentMode,
		Clipped:          vk.True,
	}

	var swapchain vk.Swapchain
	if err := vkCreateError("vk.CreateSwapchain()", vk.CreateSwapchain(v.logicalDevice, &scci, nil, &swapchain)); err != nil {
		return err
	}
	v.swapchain = swapchain
	device := v.logicalDevice
	v.releases.push("swapchain", func() {
		vk.DestroySwapchain(device, swapchain, nil)
	})

	var numImages uint32
	if err := vkQueryError("vk.GetSwapchainImages()", vk.GetSwapchainImages(device, swapchain, &numImages, nil)); err != nil {
		return err
	}
	images := make([]vk.Image, numImages)
	if err := vkQueryError("vk.GetSwapchainImages()", vk.GetSwapchainImages(device, swapchain, &numImages, images)); err != nil {
		return err
	}
	v.swapchainImages = images[:numImages]

	v.log.WithFields(log.Fields{
		"requested": imageCount,
		"images":    numImages,
		"width":     v.extent.Width,
		"height":    v.extent.Height,
	}).Info("Swapchain created")
	return nil
}

func (v *VulkanRenderer) createImageViews() error {
	device := v.logicalDevice
	for idx, image := range v.swapchainImages {
		ivci := vk.ImageViewCreateInfo{
			SType:    vk.StructureTypeImageViewCreateInfo,
			Image:    image,
			ViewType: vk.ImageViewType2d,
			Format:   v.surfaceFormat.Format,
			Components: vk.ComponentMapping{
				R: vk.ComponentSwizzleIdentity,
				G: vk.ComponentSwizzleIdentity,
				B: vk.ComponentSwizzleIdentity,
				A: vk.ComponentSwizzleIdentity,
			},
			SubresourceRange: vk.ImageSubresourceRange{
				AspectMask:     vk.ImageAspectFlags(vk.ImageAspectColorBit),
				BaseMipLevel:   0,
				LevelCount:     1,
				BaseArrayLayer: 0,
				LayerCount:     1,
			},
		}

		var imageView vk.ImageView
		if err := vkCreateError("vk.CreateImageView()["+strconv.Itoa(idx)+"]",
			vk.CreateImageView(device, &ivci, nil, &imageView)); err != nil {
			return err
		}
		v.swapchainImageViews = append(v.swapchainImageViews, imageView)
		v.releases.push("image view "+strconv.Itoa(idx), func() {
			vk.DestroyImageView(device, imageView, nil)
		})
	}

	v.log.WithField("count", len(v.swapchainImageViews)).Info("Image views created")
	return nil
}

func (v *VulkanRenderer) createRenderPass() error {
	attachments := []vk.AttachmentDescription{{
		Format:         v.surfaceFormat.Format,
		Samples:        vk.SampleCount1Bit,
		LoadOp:         vk.AttachmentLoadOpClear,
		StoreOp:        vk.AttachmentStoreOpStore,
		StencilLoadOp:  vk.AttachmentLoadOpDontCare,
		StencilStoreOp: vk.AttachmentStoreOpDontCare,
		InitialLayout:  vk.ImageLayoutUndefined,
		FinalLayout:    vk.ImageLayoutPresentSrc,
	}}

	colorAttachmentRef := []vk.AttachmentReference{{
		Attachment: 0,
		Layout:     vk.ImageLayoutColorAttachmentOptimal,
	}}

	subpass := vk.SubpassDescription{
		PipelineBindPoint:    vk.PipelineBindPointGraphics,
		ColorAttachmentCount: uint32(len(colorAttachmentRef)),
		PColorAttachments:    colorAttachmentRef,
	}

	subpassDependency := vk.SubpassDependency{
		SrcSubpass:    vk.SubpassExternal,
		DstSubpass:    0,
		SrcStageMask:  vk.PipelineStageFlags(vk.PipelineStageColorAttachmentOutputBit),
		SrcAccessMask: 0,
		DstStageMask:  vk.PipelineStageFlags(vk.PipelineStageColorAttachmentOutputBit),
		DstAccessMask: vk.AccessFlags(vk.AccessColorAttachmentWriteBit),
	}

	rpci := vk.RenderPassCreateInfo{
		SType:           vk.StructureTypeRenderPassCreateInfo,
		AttachmentCount: uint32(len(attachments)),
		PAttachments:    attachments,
		SubpassCount:    1,
		PSubpasses:      []vk.SubpassDescription{subpass},
		DependencyCount: 1,
		PDependencies:   []vk.SubpassDependency{subpassDependency},
	}

	var renderPass vk.RenderPass
	if err := vkCreateError("vk.CreateRenderPass()", vk.CreateRenderPass(v.logicalDevice, &rpci, nil, &renderPass)); err != nil {
		return err
	}
	v.renderPass = renderPass
	device := v.logicalDevice
	v.releases.push("render pass", func() {
		vk.DestroyRenderPass(device, renderPass, nil)
	})

	v.log.Info("Render pass created")
	return nil
}

func (v *VulkanRenderer) createFramebuffers() error {
	device := v.logicalDevice
	for idx, view := range v.swapchainImageViews {
		attachments := []vk.ImageView{
			view,
		}
		fci := vk.FramebufferCreateInfo{
			SType:           vk.StructureTypeFramebufferCreateInfo,
			RenderPass:      v.renderPass,
			AttachmentCount: uint32(len(attachments)),
			PAttachments:    attachments,
			Width:           v.extent.Width,
			Height:          v.extent.Height,
			Layers:          1,
		}

		var framebuffer vk.Framebuffer
		if err := vkCreateError("vk.CreateFramebuffer()["+strconv.Itoa(idx)+"]",
			vk.CreateFramebuffer(device, &fci, nil, &framebuffer)); err != nil {
			return err
		}
		v.framebuffers = append(v.framebuffers, framebuffer)
		v.releases.push("framebuffer "+strconv.Itoa(idx), func() {
			vk.DestroyFramebuffer(device, framebuffer, nil)
		})
	}

	v.log.WithField("count", len(v.framebuffers)).Info("Framebuffers created")
	return nil
}

func (v *VulkanRenderer) loadShaders() error {
	files := []struct {
		name       string
		shaderType ShaderType
	}{
		{v.configuration.VertexShader, VertexShaderType},
		{v.configuration.FragmentShader, FragmentShaderType},
	}

	for _, f := range files {
		code, err := LoadShaderCode(v.shaderSource, f.name)
		if err != nil {
			return err
		}
		shader, err := NewVulkanShader(f.name, code, f.shaderType, v.logicalDevice)
		if err != nil {
			return err
		}
		v.shaders = append(v.shaders, shader)
		v.releases.push("shader "+f.name, shader.Destroy)
		v.log.WithFields(log.Fields{
			"shader": f.name,
			"bytes":  len(code),
		}).Debug("Shader module created")
	}
	return nil
}

func (v *VulkanRenderer) createPipelineLayout() error {
	plci := vk.PipelineLayoutCreateInfo{
		SType: vk.StructureTypePipelineLayoutCreateInfo,
	}

	var pipelineLayout vk.PipelineLayout
	if err := vkCreateError("vk.CreatePipelineLayout()", vk.CreatePipelineLayout(v.logicalDevice, &plci, nil, &pipelineLayout)); err != nil {
		return err
	}
	v.pipelineLayout = pipelineLayout
	device := v.logicalDevice
	v.releases.push("pipeline layout", func() {
		vk.DestroyPipelineLayout(device, pipelineLayout, nil)
	})
	return nil
}

func (v *VulkanRenderer) createPipelineCache() error {
	pcci := vk.PipelineCacheCreateInfo{
		SType: vk.StructureTypePipelineCacheCreateInfo,
	}

	var pipelineCache vk.PipelineCache
	if err := vkCreateError("vk.CreatePipelineCache()", vk.CreatePipelineCache(v.logicalDevice, &pcci, nil, &pipelineCache)); err != nil {
		return err
	}
	v.pipelineCache = pipelineCache
	device := v.logicalDevice
	v.releases.push("pipeline cache", func() {
		vk.DestroyPipelineCache(device, pipelineCache, nil)
	})
	return nil
}

func (v *VulkanRenderer) createPipeline() error {
	stages := make([]vk.PipelineShaderStageCreateInfo, 0, len(v.shaders))
	for _, shader := range v.shaders {
		stage, err := shader.StageInfo()
		if err != nil {
			return err
		}
		stages = append(stages, stage)
	}

	gpci := []vk.GraphicsPipelineCreateInfo{{
		SType:      vk.StructureTypeGraphicsPipelineCreateInfo,
		StageCount: uint32(len(stages)),
		PStages:    stages,
		PVertexInputState: &vk.PipelineVertexInputStateCreateInfo{
			SType: vk.StructureTypePipelineVertexInputStateCreateInfo,
		},
		PInputAssemblyState: &vk.PipelineInputAssemblyStateCreateInfo{
			SType:                  vk.StructureTypePipelineInputAssemblyStateCreateInfo,
			Topology:               vk.PrimitiveTopologyTriangleList,
			PrimitiveRestartEnable: vk.False,
		},
		PViewportState: &vk.PipelineViewportStateCreateInfo{
			SType:         vk.StructureTypePipelineViewportStateCreateInfo,
			ViewportCount: 1,
			PViewports: []vk.Viewport{{
				X:        0,
				Y:        0,
				Width:    float32(v.extent.Width),
				Height:   float32(v.extent.Height),
				MinDepth: 0,
				MaxDepth: 1,
			}},
			ScissorCount: 1,
			PScissors: []vk.Rect2D{{
				Offset: vk.Offset2D{X: 0, Y: 0},
				Extent: v.extent,
			}},
		},
		PRasterizationState: &vk.PipelineRasterizationStateCreateInfo{
			SType:                   vk.StructureTypePipelineRasterizationStateCreateInfo,
			DepthClampEnable:        vk.False,
			RasterizerDiscardEnable: vk.False,
			PolygonMode:             vk.PolygonModeFill,
			CullMode:                vk.CullModeFlags(vk.CullModeBackBit),
			FrontFace:               vk.FrontFaceClockwise,
			DepthBiasEnable:         vk.False,
			LineWidth:               1.0,
		},
		PMultisampleState: &vk.PipelineMultisampleStateCreateInfo{
			SType:                vk.StructureTypePipelineMultisampleStateCreateInfo,
			RasterizationSamples: vk.SampleCount1Bit,
			SampleShadingEnable:  vk.False,
		},
		PColorBlendState: &vk.PipelineColorBlendStateCreateInfo{
			SType:           vk.StructureTypePipelineColorBlendStateCreateInfo,
			LogicOpEnable:   vk.False,
			AttachmentCount: 1,
			PAttachments: []vk.PipelineColorBlendAttachmentState{{
				ColorWriteMask: vk.ColorComponentFlags(vk.ColorComponentRBit | vk.ColorComponentGBit |
					vk.ColorComponentBBit | vk.ColorComponentABit),
				BlendEnable: vk.False,
			}},
		},
		Layout:     v.pipelineLayout,
		RenderPass: v.renderPass,
		Subpass:    0,
	}}

	pipelines := make([]vk.Pipeline, len(gpci))
	if err := vkCreateError("vk.CreateGraphicsPipelines()",
		vk.CreateGraphicsPipelines(v.logicalDevice, v.pipelineCache, uint32(len(gpci)), gpci, nil, pipelines)); err != nil {
		return err
	}
	v.pipeline = pipelines[0]
	device, pipeline := v.logicalDevice, v.pipeline
	v.releases.push("graphics pipeline", func() {
		vk.DestroyPipeline(device, pipeline, nil)
	})

	v.log.WithField("stages", len(stages)).Info("Graphics pipeline created")
	return nil
}

// DeviceName is the name of the selected GPU, empty before Initialise
func (v *VulkanRenderer) DeviceName() string {
	return v.deviceName
}

// Extent is the swapchain extent, zero before Initialise
func (v *VulkanRenderer) Extent() (width, height uint32) {
	return v.extent.Width, v.extent.Height
}

// Destroy implements interface. Waits for the device to be idle and
// releases everything in reverse creation order.
func (v *VulkanRenderer) Destroy() {
	if v.releases.len() == 0 {
		return
	}
	if v.logicalDevice != nil {
		vk.DeviceWaitIdle(v.logicalDevice)
	}
	v.releases.releaseAll(func(name string) {
		v.log.WithField("object", name).Debug("Released")
	})
	v.shaders = nil
	v.framebuffers = nil
	v.swapchainImageViews = nil
	v.swapchainImages = nil
	v.logicalDevice = nil
}
