package heat

import (
	"fmt"
	"image"
)

// Heatmap owns the current point set and its value range, derives
// per-point normalized intensities, and delegates rendering to the
// attached backend. It decides between full re-renders and incremental
// dirty-rect re-renders so that appending points during animation only
// recomposites the affected region.
//
// Heatmap is not safe for concurrent use; callers serialize all calls.
type Heatmap struct {
	cfg      Config
	renderer Renderer

	points []Point
	rng    valueRange

	grid *valueGrid

	palette Palette
	opacity OpacityTable

	onExtrema []func(min, max float64)
	onRender  []func(Bounds)
}

// New creates a heatmap with the given surface dimensions. Configuration
// errors are raised here and only here; no runtime operation
// re-validates.
func New(width, height int, opts ...Option) (*Heatmap, error) {
	cfg := defaultConfig(width, height)
	for _, opt := range opts {
		opt(&cfg)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}

	stops := cfg.Gradient
	if len(stops) == 0 {
		stops = DefaultGradient()
	}
	if err := validateStops(stops); err != nil {
		return nil, err
	}

	renderer, err := newRenderer(cfg)
	if err != nil {
		return nil, err
	}

	h := &Heatmap{
		cfg:      cfg,
		renderer: renderer,
		grid:     newValueGrid(cfg.GridSize),
		palette:  MakePalette(stops),
		opacity:  MakeOpacityTable(cfg.MinOpacity, cfg.MaxOpacity),
	}
	if cfg.RangePinned {
		h.rng = valueRange{min: cfg.ValueMin, max: cfg.ValueMax, valid: true}
	}

	if err := renderer.SetPalette(h.palette, h.opacity); err != nil {
		renderer.Dispose()
		return nil, err
	}
	return h, nil
}

// validateStops checks gradient stops: at least one stop, offsets in
// [0, 1].
func validateStops(stops []ColorStop) error {
	if len(stops) == 0 {
		return fmt.Errorf("heat: gradient needs at least one stop")
	}
	for i, s := range stops {
		if s.Offset < 0 || s.Offset > 1 {
			return fmt.Errorf("heat: invalid gradient stop %d: offset %v (must be in [0, 1])", i, s.Offset)
		}
	}
	return nil
}

// SetPoints replaces the data set: the value range is recomputed (unless
// pinned), the spatial value grid is rebuilt, and a full render runs.
func (h *Heatmap) SetPoints(points []Point) error {
	h.points = append(h.points[:0], points...)
	if !h.cfg.RangePinned {
		old := h.rng
		h.rng = detectRange(h.points)
		if h.rng != old {
			h.notifyExtrema()
		}
	}
	h.grid.rebuild(h.points)
	return h.fullRender()
}

// AddPoints appends to the data set. When the new values stay inside
// the current range, only the new points are drawn and only their dirty
// region is recolorized. A grown range forces a full render because
// every previously drawn point's intensity is stale relative to it.
func (h *Heatmap) AddPoints(points ...Point) error {
	if len(points) == 0 {
		return nil
	}

	rangeGrew := false
	if !h.cfg.RangePinned {
		for i := range points {
			if !h.rng.contains(points[i].Value) {
				rangeGrew = true
				break
			}
		}
	}

	h.points = append(h.points, points...)
	h.grid.rebuild(h.points)

	if rangeGrew {
		h.rng = detectRange(h.points)
		h.notifyExtrema()
		return h.fullRender()
	}

	bounds, err := h.renderer.DrawPoints(h.renderPoints(points))
	if err != nil {
		return err
	}
	if err := h.renderer.Colorize(bounds); err != nil {
		return err
	}
	h.notifyRender(bounds)
	return nil
}

// SetGradient replaces the color ramp, regenerates the palette, and
// performs a full render.
func (h *Heatmap) SetGradient(stops []ColorStop) error {
	if err := validateStops(stops); err != nil {
		return err
	}
	h.cfg.Gradient = append([]ColorStop(nil), stops...)
	h.palette = MakePalette(stops)
	if err := h.renderer.SetPalette(h.palette, h.opacity); err != nil {
		return err
	}
	return h.fullRender()
}

// SetValueRange pins the value range and re-renders. Subsequent data
// changes keep the pinned range.
func (h *Heatmap) SetValueRange(minValue, maxValue float64) error {
	if minValue > maxValue {
		return fmt.Errorf("heat: invalid value range: min %v > max %v", minValue, maxValue)
	}
	h.cfg.RangePinned = true
	h.rng = valueRange{min: minValue, max: maxValue, valid: true}
	h.notifyExtrema()
	return h.fullRender()
}

// Clear empties the point set, the spatial grid, and all rendering
// buffers.
func (h *Heatmap) Clear() error {
	h.points = h.points[:0]
	if !h.cfg.RangePinned {
		h.rng = valueRange{}
	}
	h.grid.rebuild(nil)
	h.renderer.Clear()
	h.notifyRender(Bounds{})
	return nil
}

// ValueAt returns the accumulated raw value of the grid cell containing
// (x, y). It never touches rendering state and returns 0 for empty
// cells.
func (h *Heatmap) ValueAt(x, y float64) float64 {
	return h.grid.valueAt(x, y)
}

// Repaint forces a full re-render of the current point set.
func (h *Heatmap) Repaint() error {
	return h.fullRender()
}

// Snapshot encodes the current surface in the named format ("png",
// "jpeg", "bmp", "tiff"). quality applies to jpeg only.
func (h *Heatmap) Snapshot(format string, quality int) ([]byte, error) {
	return h.renderer.Pixmap().Snapshot(format, quality)
}

// Image returns the current surface as an image.Image view. The
// returned value shares the surface's pixel storage.
func (h *Heatmap) Image() image.Image {
	return h.renderer.Pixmap()
}

// Points returns the current point set. The returned slice is the
// heatmap's own storage and must not be mutated.
func (h *Heatmap) Points() []Point {
	return h.points
}

// Extrema returns the current [min, max] value range. Both are 0 while
// the set is empty and no range is pinned.
func (h *Heatmap) Extrema() (minValue, maxValue float64) {
	return h.rng.min, h.rng.max
}

// OnExtremaChange registers a callback invoked whenever the value range
// changes.
func (h *Heatmap) OnExtremaChange(fn func(min, max float64)) {
	h.onExtrema = append(h.onExtrema, fn)
}

// OnRender registers a callback invoked after every draw with the
// recomposited bounds.
func (h *Heatmap) OnRender(fn func(Bounds)) {
	h.onRender = append(h.onRender, fn)
}

// Close releases the renderer's resources.
func (h *Heatmap) Close() {
	h.renderer.Dispose()
}

// renderPoints derives normalized render intensities for the given
// points against the current value range.
func (h *Heatmap) renderPoints(points []Point) []RenderPoint {
	rps := make([]RenderPoint, len(points))
	for i := range points {
		rps[i] = RenderPoint{
			X:         points[i].X,
			Y:         points[i].Y,
			Radius:    points[i].Radius,
			Intensity: h.rng.intensity(points[i].Value, h.cfg.IntensityExponent),
		}
	}
	return rps
}

func (h *Heatmap) fullRender() error {
	bounds, err := h.renderer.Render(h.renderPoints(h.points))
	if err != nil {
		return err
	}
	h.notifyRender(bounds)
	return nil
}

func (h *Heatmap) notifyExtrema() {
	for _, fn := range h.onExtrema {
		fn(h.rng.min, h.rng.max)
	}
}

func (h *Heatmap) notifyRender(b Bounds) {
	for _, fn := range h.onRender {
		fn(b)
	}
}
