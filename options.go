package heat

import (
	"fmt"
)

// BlendMode selects how overlapping stamps accumulate in the software
// backend's shadow buffer.
type BlendMode int

const (
	// BlendOver is standard over-compositing: overlap saturates smoothly.
	BlendOver BlendMode = iota
	// BlendAdd is additive accumulation: overlap is emphasized and
	// clamps at full intensity. This matches the GPU backend's strictly
	// additive intensity pass.
	BlendAdd
)

// String returns a human-readable name for the blend mode.
func (m BlendMode) String() string {
	switch m {
	case BlendOver:
		return "over"
	case BlendAdd:
		return "add"
	default:
		return fmt.Sprintf("BlendMode(%d)", int(m))
	}
}

// Config holds the resolved renderer configuration. All fields are
// validated once at construction; no runtime operation re-validates.
type Config struct {
	// Width and Height are the surface dimensions in pixels.
	Width  int
	Height int

	// Radius is the default influence radius of a point in pixels.
	// Points may override it individually via Point.Radius.
	Radius int

	// Blur controls the radial falloff in [0, 1]: 0 renders hard-edged
	// disks, 1 the maximal gradient.
	Blur float64

	// MinOpacity and MaxOpacity bound the opacity ramp, both in [0, 1]
	// with MinOpacity <= MaxOpacity.
	MinOpacity float64
	MaxOpacity float64

	// GridSize is the cell side of the spatial value grid in pixels.
	GridSize int

	// IntensityExponent reshapes the normalized value response curve.
	// Values below 1 boost low readings, above 1 suppress them.
	IntensityExponent float64

	// BlendMode selects shadow-buffer accumulation (see BlendMode).
	BlendMode BlendMode

	// Gradient is the color ramp the palette is derived from.
	// Empty means DefaultGradient.
	Gradient []ColorStop

	// Backend names the renderer backend ("software", "gpu").
	// Empty selects the best registered backend.
	Backend string

	// GPUFallback controls the backend-unavailable policy: when true
	// (the default) a failed GPU initialization falls back to software,
	// otherwise construction returns ErrBackendUnavailable.
	GPUFallback bool

	// ValueMin, ValueMax pin the value range when RangePinned is set;
	// otherwise the range is auto-detected from the data.
	ValueMin    float64
	ValueMax    float64
	RangePinned bool
}

// defaultConfig returns the default configuration for the given surface
// dimensions.
func defaultConfig(width, height int) Config {
	return Config{
		Width:             width,
		Height:            height,
		Radius:            40,
		Blur:              0.85,
		MinOpacity:        0,
		MaxOpacity:        1,
		GridSize:          10,
		IntensityExponent: 1,
		BlendMode:         BlendOver,
		GPUFallback:       true,
	}
}

// validate checks every field against its constraint and returns a
// descriptive error naming the offending field.
func (c *Config) validate() error {
	if c.Width <= 0 || c.Height <= 0 {
		return fmt.Errorf("heat: invalid dimensions: width=%d, height=%d (both must be > 0)", c.Width, c.Height)
	}
	if c.Radius <= 0 {
		return fmt.Errorf("heat: invalid radius %d (must be > 0)", c.Radius)
	}
	if c.Blur < 0 || c.Blur > 1 {
		return fmt.Errorf("heat: invalid blur %v (must be in [0, 1])", c.Blur)
	}
	if c.MinOpacity < 0 || c.MinOpacity > 1 {
		return fmt.Errorf("heat: invalid min opacity %v (must be in [0, 1])", c.MinOpacity)
	}
	if c.MaxOpacity < 0 || c.MaxOpacity > 1 {
		return fmt.Errorf("heat: invalid max opacity %v (must be in [0, 1])", c.MaxOpacity)
	}
	if c.MinOpacity > c.MaxOpacity {
		return fmt.Errorf("heat: invalid opacity range: min %v > max %v", c.MinOpacity, c.MaxOpacity)
	}
	if c.GridSize < 1 {
		return fmt.Errorf("heat: invalid grid size %d (must be >= 1)", c.GridSize)
	}
	if c.IntensityExponent <= 0 {
		return fmt.Errorf("heat: invalid intensity exponent %v (must be > 0)", c.IntensityExponent)
	}
	if c.BlendMode != BlendOver && c.BlendMode != BlendAdd {
		return fmt.Errorf("heat: invalid blend mode %d", int(c.BlendMode))
	}
	if c.RangePinned && c.ValueMin > c.ValueMax {
		return fmt.Errorf("heat: invalid value range: min %v > max %v", c.ValueMin, c.ValueMax)
	}
	return nil
}

// Option configures a Heatmap during creation.
//
// Example:
//
//	hm, err := heat.New(800, 600,
//		heat.WithRadius(25),
//		heat.WithBlur(0.9),
//		heat.WithOpacityRange(0.05, 0.8),
//	)
type Option func(*Config)

// WithRadius sets the default point influence radius in pixels.
func WithRadius(radius int) Option {
	return func(c *Config) { c.Radius = radius }
}

// WithBlur sets the radial falloff factor in [0, 1].
// 0 produces hard-edged disks, 1 the softest gradient.
func WithBlur(blur float64) Option {
	return func(c *Config) { c.Blur = blur }
}

// WithOpacityRange bounds the opacity ramp applied during colorization.
func WithOpacityRange(minOpacity, maxOpacity float64) Option {
	return func(c *Config) {
		c.MinOpacity = minOpacity
		c.MaxOpacity = maxOpacity
	}
}

// WithGridSize sets the cell side of the spatial value grid in pixels.
func WithGridSize(size int) Option {
	return func(c *Config) { c.GridSize = size }
}

// WithIntensityExponent sets the exponent of the value response curve.
func WithIntensityExponent(exp float64) Option {
	return func(c *Config) { c.IntensityExponent = exp }
}

// WithBlendMode selects the shadow-buffer accumulation mode.
func WithBlendMode(mode BlendMode) Option {
	return func(c *Config) { c.BlendMode = mode }
}

// WithGradient sets the color ramp the palette is derived from.
func WithGradient(stops []ColorStop) Option {
	return func(c *Config) { c.Gradient = stops }
}

// WithBackend pins the renderer backend by name instead of automatic
// selection. Construction fails with ErrBackendUnavailable if the named
// backend is not registered or cannot initialize and fallback is
// disabled.
func WithBackend(name string) Option {
	return func(c *Config) { c.Backend = name }
}

// WithGPUFallback controls whether a failed GPU backend initialization
// falls back to the software backend (default true).
func WithGPUFallback(enabled bool) Option {
	return func(c *Config) { c.GPUFallback = enabled }
}

// WithValueRange pins the [min, max] value range instead of
// auto-detecting it from the data. Points outside the range clamp to
// the nearest bound.
func WithValueRange(minValue, maxValue float64) Option {
	return func(c *Config) {
		c.ValueMin = minValue
		c.ValueMax = maxValue
		c.RangePinned = true
	}
}
