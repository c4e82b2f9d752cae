// Package heat renders weighted 2D point sets as continuous density
// visualizations (heatmaps).
//
// # Overview
//
// heat accumulates per-point radial influence into a scalar intensity
// field and colorizes that field through a 256-entry gradient palette and
// opacity curve. Two interchangeable backends implement the same
// two-pass model:
//
//   - Software: an offscreen shadow buffer accumulates grayscale alpha by
//     stamping a precomputed radial template per point; the dirty region
//     is then remapped through the palette into the visible pixmap.
//   - GPU (gpu subpackage): additive point sprites with an analytic
//     radial-falloff fragment shader accumulate into an intensity
//     texture; a full-screen pass samples it together with a 256x1
//     palette texture.
//
// The two backends are visually, not bit-for-bit, equivalent: the
// software path quantizes intensity to 256 steps while the shader path
// applies a continuous response curve.
//
// # Quick Start
//
//	import "github.com/gogpu/heat"
//
//	hm, err := heat.New(800, 600, heat.WithRadius(30))
//	if err != nil {
//		log.Fatal(err)
//	}
//	defer hm.Close()
//
//	hm.SetPoints([]heat.Point{
//		{X: 120, Y: 80, Value: 4},
//		{X: 130, Y: 95, Value: 9},
//	})
//
//	png, _ := hm.Snapshot("png", 0)
//
// # Backends
//
// The software backend is always available. To enable GPU rendering,
// import the gpu subpackage for its registration side effect:
//
//	import _ "github.com/gogpu/heat/gpu"
//
// Backend selection prefers GPU when registered and falls back to
// software if GPU initialization fails. Pass WithGPUFallback(false) to
// surface ErrBackendUnavailable instead of falling back.
//
// # Concurrency
//
// A Heatmap and its renderer are not safe for concurrent use. All calls
// must be serialized by the caller; every operation runs to completion
// before returning.
//
// # Coordinate System
//
// Standard raster coordinates: origin (0,0) at top-left, X increases
// right, Y increases down. Point coordinates are in surface pixels.
package heat

// Version information
const (
	// Version is the current version of the library
	Version = "0.1.0"

	// VersionMajor is the major version
	VersionMajor = 0

	// VersionMinor is the minor version
	VersionMinor = 1

	// VersionPatch is the patch version
	VersionPatch = 0
)
