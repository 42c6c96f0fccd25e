// Package shader compiles WGSL compute shaders for feature plugins and
// turns them into HAL shader modules.
package shader

import (
	"fmt"

	"github.com/gogpu/naga"
	"github.com/gogpu/wgpu/hal"
)

// CompileSPIRV compiles WGSL source to SPIR-V words.
func CompileSPIRV(wgslSource string) ([]uint32, error) {
	spirvBytes, err := naga.Compile(wgslSource)
	if err != nil {
		return nil, fmt.Errorf("shader: compile: %w", err)
	}
	if len(spirvBytes)%4 != 0 {
		return nil, fmt.Errorf("shader: SPIR-V length %d is not a multiple of 4", len(spirvBytes))
	}

	// SPIR-V is little-endian 32-bit words
	spirvCode := make([]uint32, len(spirvBytes)/4)
	for i := range spirvCode {
		spirvCode[i] = uint32(spirvBytes[i*4]) |
			uint32(spirvBytes[i*4+1])<<8 |
			uint32(spirvBytes[i*4+2])<<16 |
			uint32(spirvBytes[i*4+3])<<24
	}
	return spirvCode, nil
}

// CreateModule creates a HAL shader module from SPIR-V code.
func CreateModule(device hal.Device, label string, spirvCode []uint32) (hal.ShaderModule, error) {
	return device.CreateShaderModule(&hal.ShaderModuleDescriptor{
		Label: label,
		Source: hal.ShaderSource{
			SPIRV: spirvCode,
		},
	})
}

// Program is a compiled shader and, once bound to a device, its module.
type Program struct {
	Label string
	SPIRV []uint32

	device hal.Device
	module hal.ShaderModule
}

// Compile compiles source into a Program.
func Compile(label, source string) (*Program, error) {
	code, err := CompileSPIRV(source)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", label, err)
	}
	return &Program{Label: label, SPIRV: code}, nil
}

// Bind creates the shader module on device. Binding again to another
// device releases the previous module first.
func (p *Program) Bind(device hal.Device) error {
	p.Release()
	m, err := CreateModule(device, p.Label, p.SPIRV)
	if err != nil {
		return fmt.Errorf("shader: create module %s: %w", p.Label, err)
	}
	p.device, p.module = device, m
	return nil
}

// Module returns the bound shader module, or nil.
func (p *Program) Module() hal.ShaderModule { return p.module }

// Release destroys the shader module, if any.
func (p *Program) Release() {
	if p.device == nil {
		return
	}
	if p.module != nil {
		p.device.DestroyShaderModule(p.module)
	}
	p.device, p.module = nil, nil
}
