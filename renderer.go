package heat

// RenderPoint is a point prepared for drawing: pixel position, resolved
// influence radius, and normalized [0, 1] intensity.
type RenderPoint struct {
	X, Y      float64
	Radius    int
	Intensity float64
}

// Renderer is the backend-agnostic rendering contract. The software
// backend implements it with pixel-buffer compositing, the gpu
// subpackage with shader passes; both share the same abstract
// accumulate-then-colorize model.
//
// A Renderer exclusively owns its visible surface and intensity
// accumulation buffer. Callers must serialize all calls.
type Renderer interface {
	// Clear wipes the intensity accumulation buffer and the visible
	// surface.
	Clear()

	// DrawPoints accumulates the points' radial influence into the
	// intensity buffer and returns the dirty bounds covering every
	// touched pixel, clamped to the surface.
	DrawPoints(points []RenderPoint) (Bounds, error)

	// Colorize remaps the accumulated intensity inside bounds through
	// the palette and opacity tables into the visible surface. Pixels
	// with zero accumulated intensity are left untouched.
	Colorize(bounds Bounds) error

	// Render is the full-redraw path: Clear, DrawPoints, Colorize.
	Render(points []RenderPoint) (Bounds, error)

	// SetPalette replaces the color and opacity lookup tables without
	// touching accumulated intensity.
	SetPalette(p Palette, op OpacityTable) error

	// Pixmap returns the visible surface.
	Pixmap() *Pixmap

	// Dispose releases backend resources. The renderer must not be
	// used afterwards.
	Dispose()
}
