//go:build !nogpu

// Package gpu provides the shader rendering backend for heat, built on
// gogpu/wgpu.
//
// Import this package for its registration side effect:
//
//	import _ "github.com/gogpu/heat/gpu"
//
// The backend accumulates point intensity with additive blending of
// point sprites whose fragment shader evaluates the radial falloff
// analytically, then colorizes in a full-screen pass that samples the
// accumulated intensity texture and a 256x1 palette texture. The result
// is read back into the heat.Pixmap, so consumers see the same surface
// contract as the software backend.
//
// If no GPU adapter is available, renderer construction fails and heat
// falls back to the software backend (unless fallback is disabled via
// heat.WithGPUFallback(false)).
package gpu

import (
	"github.com/gogpu/heat"
)

func init() {
	heat.RegisterRenderer(heat.BackendGPU, func(cfg heat.Config) (heat.Renderer, error) {
		return NewRenderer(cfg)
	})
}
