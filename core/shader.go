// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package core

import (
	"encoding/binary"
	"os"
	"path/filepath"

	"github.com/cockroachdb/errors"
	vk "github.com/vulkan-go/vulkan"

	"github.com/devblok/vkboot/utility/kar"
)

// spirvMagic is the first word of every SPIR-V module
const spirvMagic = 0x07230203

// ShaderSource provides compiled shader binaries by name
type ShaderSource interface {
	ReadShader(name string) ([]byte, error)
}

// DirectorySource reads shaders from files in Dir
type DirectorySource struct {
	Dir string
}

// ReadShader implements interface
func (d DirectorySource) ReadShader(name string) ([]byte, error) {
	path := filepath.Join(d.Dir, name)
	contents, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Mark(errors.Wrapf(err, "shader %s", name), ErrFileAccess)
	}
	return contents, nil
}

// OpenArchiveSource memory maps the kar archive at path
func OpenArchiveSource(path string) (*ArchiveSource, error) {
	ar, err := kar.OpenFile(path)
	if err != nil {
		return nil, errors.Mark(errors.Wrapf(err, "shader archive %s", path), ErrFileAccess)
	}
	return &ArchiveSource{archive: ar}, nil
}

// ArchiveSource reads shaders out of a kar archive
type ArchiveSource struct {
	archive *kar.Archive
}

// ReadShader implements interface
func (a *ArchiveSource) ReadShader(name string) ([]byte, error) {
	contents, err := a.archive.ReadAll(name)
	if err != nil {
		return nil, errors.Mark(errors.Wrapf(err, "shader %s", name), ErrFileAccess)
	}
	return contents, nil
}

// Close releases the archive
func (a *ArchiveSource) Close() error {
	return a.archive.Close()
}

// LoadShaderCode reads a shader from src and checks it is a SPIR-V binary.
// It returns either the whole binary or an error, never a partial buffer.
func LoadShaderCode(src ShaderSource, name string) ([]byte, error) {
	code, err := src.ReadShader(name)
	if err != nil {
		return nil, err
	}
	if len(code) < 4 || len(code)%4 != 0 {
		return nil, errors.Wrapf(ErrInvalidShader, "%s: size %d", name, len(code))
	}
	if binary.LittleEndian.Uint32(code) != spirvMagic {
		return nil, errors.Wrapf(ErrInvalidShader, "%s: bad magic", name)
	}
	return code, nil
}

// NewVulkanShader creates a Vulkan specific shader wrapper
func NewVulkanShader(name string, code []byte, shaderType ShaderType, device vk.Device) (*VulkanShader, error) {
	smci := vk.ShaderModuleCreateInfo{
		SType:    vk.StructureTypeShaderModuleCreateInfo,
		CodeSize: uint(len(code)),
		PCode:    SliceUint32(code),
	}

	var shader vk.ShaderModule
	if err := vkCreateError("vk.CreateShaderModule("+name+")", vk.CreateShaderModule(device, &smci, nil, &shader)); err != nil {
		return nil, err
	}

	return &VulkanShader{
		name:       name,
		shaderType: shaderType,
		device:     device,
		shader:     shader,
		destroy:    destroyShaderModule,
	}, nil
}

// VulkanShader is a Vulkan specific shader
type VulkanShader struct {
	name       string
	shaderType ShaderType
	device     vk.Device
	shader     vk.ShaderModule

	// destroy is nil once the module is released
	destroy func(vk.Device, vk.ShaderModule)
}

func destroyShaderModule(device vk.Device, shader vk.ShaderModule) {
	vk.DestroyShaderModule(device, shader, nil)
}

// Type implements interface
func (v *VulkanShader) Type() ShaderType {
	return v.shaderType
}

// Name implements interface
func (v *VulkanShader) Name() string {
	return v.name
}

// StageInfo describes the shader as a pipeline stage with a "main" entry point
func (v *VulkanShader) StageInfo() (vk.PipelineShaderStageCreateInfo, error) {
	var stage vk.ShaderStageFlagBits
	switch v.shaderType {
	case VertexShaderType:
		stage = vk.ShaderStageVertexBit
	case FragmentShaderType:
		stage = vk.ShaderStageFragmentBit
	default:
		return vk.PipelineShaderStageCreateInfo{}, errors.Mark(errors.Newf("shader %s has unsupported type %d", v.name, v.shaderType), ErrObjectCreation)
	}
	return vk.PipelineShaderStageCreateInfo{
		SType:  vk.StructureTypePipelineShaderStageCreateInfo,
		Stage:  stage,
		Module: v.shader,
		PName:  safeString("main"),
	}, nil
}

// Destroy implements interface
func (v *VulkanShader) Destroy() {
	if v.destroy == nil {
		return
	}
	v.destroy(v.device, v.shader)
	v.destroy = nil
}
