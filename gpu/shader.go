//go:build !nogpu

package gpu

import (
	_ "embed"
	"fmt"
	"log/slog"

	"github.com/gogpu/heat"
	"github.com/gogpu/naga"
	"github.com/gogpu/wgpu/hal"
)

// Embedded WGSL shader sources, compiled to SPIR-V via naga at pipeline
// creation.

//go:embed shaders/intensity.wgsl
var intensityShaderSource string

//go:embed shaders/colorize.wgsl
var colorizeShaderSource string

// logger returns the shared heat logger.
func logger() *slog.Logger { return heat.Logger() }

// compileShader compiles WGSL source to SPIR-V and creates a HAL shader
// module from it.
func compileShader(device hal.Device, label, wgslSource string) (hal.ShaderModule, error) {
	if wgslSource == "" {
		return nil, fmt.Errorf("gpu: %s shader source is empty", label)
	}

	spirvBytes, err := naga.Compile(wgslSource)
	if err != nil {
		return nil, fmt.Errorf("gpu: compile %s shader: %w", label, err)
	}

	// SPIR-V is little-endian 32-bit words.
	spirvCode := make([]uint32, len(spirvBytes)/4)
	for i := range spirvCode {
		spirvCode[i] = uint32(spirvBytes[i*4]) |
			uint32(spirvBytes[i*4+1])<<8 |
			uint32(spirvBytes[i*4+2])<<16 |
			uint32(spirvBytes[i*4+3])<<24
	}

	module, err := device.CreateShaderModule(&hal.ShaderModuleDescriptor{
		Label:  label,
		Source: hal.ShaderSource{SPIRV: spirvCode},
	})
	if err != nil {
		return nil, fmt.Errorf("gpu: create %s shader module: %w", label, err)
	}
	return module, nil
}
