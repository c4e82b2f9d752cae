package heat

import (
	"math"
	"sort"
)

// PaletteSize is the number of entries in the intensity lookup tables.
// Accumulated intensity is quantized to a byte, so both the palette and
// the opacity table carry exactly one entry per possible byte value.
const PaletteSize = 256

// ColorStop represents a color at a specific position in a gradient.
type ColorStop struct {
	Offset float64 // Position in gradient, 0.0 to 1.0
	Color  RGBA    // Color at this position
}

// Palette is the intensity-to-color lookup table derived from a gradient.
// Index i holds the gradient ramp sampled at position i/255.
type Palette [PaletteSize]RGBA

// OpacityTable maps a quantized intensity byte to an alpha byte. It is
// a linear ramp from the configured minimum to maximum opacity and is
// monotonically non-decreasing.
type OpacityTable [PaletteSize]uint8

// DefaultGradient is the gradient used when no stops are configured:
// a cold-to-hot ramp from blue through green and yellow to red.
func DefaultGradient() []ColorStop {
	return []ColorStop{
		{Offset: 0.25, Color: Hex("0000ff")},
		{Offset: 0.55, Color: Hex("00ff00")},
		{Offset: 0.85, Color: Hex("ffff00")},
		{Offset: 1.00, Color: Hex("ff0000")},
	}
}

// sortStops returns a copy of stops sorted by offset ascending.
// The input slice is never modified, so unsorted caller input cannot
// affect palette output.
func sortStops(stops []ColorStop) []ColorStop {
	if len(stops) == 0 {
		return stops
	}

	sorted := make([]ColorStop, len(stops))
	copy(sorted, stops)

	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].Offset < sorted[j].Offset
	})

	return sorted
}

// colorAtOffset returns the interpolated ramp color at position t.
// Positions before the first stop or after the last stop take that
// boundary stop's color directly; there is no extrapolation.
func colorAtOffset(sorted []ColorStop, t float64) RGBA {
	if len(sorted) == 0 {
		return Transparent
	}
	if len(sorted) == 1 {
		return sorted[0].Color
	}

	idx := sort.Search(len(sorted), func(i int) bool {
		return sorted[i].Offset >= t
	})

	if idx == 0 {
		return sorted[0].Color
	}
	if idx >= len(sorted) {
		return sorted[len(sorted)-1].Color
	}

	stop1 := sorted[idx-1]
	stop2 := sorted[idx]

	// Coincident stops have a zero-width bracket; local position is 0.
	if stop2.Offset == stop1.Offset {
		return stop1.Color
	}

	localT := (t - stop1.Offset) / (stop2.Offset - stop1.Offset)
	return stop1.Color.Lerp(stop2.Color, localT)
}

// MakePalette samples the gradient ramp defined by stops at 256 evenly
// spaced positions. Stops are sorted by offset before interpolation;
// a single-stop gradient collapses to a constant palette.
func MakePalette(stops []ColorStop) Palette {
	var p Palette
	sorted := sortStops(stops)
	for i := 0; i < PaletteSize; i++ {
		t := float64(i) / (PaletteSize - 1)
		p[i] = colorAtOffset(sorted, t)
	}
	return p
}

// Bytes returns the palette as tightly packed RGBA8 data, 4 bytes per
// entry. This is the layout uploaded as the GPU backend's 256x1 palette
// texture.
func (p *Palette) Bytes() []byte {
	buf := make([]byte, PaletteSize*4)
	for i, c := range p {
		buf[i*4+0] = uint8(clamp255(c.R * 255))
		buf[i*4+1] = uint8(clamp255(c.G * 255))
		buf[i*4+2] = uint8(clamp255(c.B * 255))
		buf[i*4+3] = uint8(clamp255(c.A * 255))
	}
	return buf
}

// MakeOpacityTable builds the linear intensity-to-alpha ramp. Entry i is
// minOpacity + (i/255)*(maxOpacity-minOpacity), scaled to a byte.
func MakeOpacityTable(minOpacity, maxOpacity float64) OpacityTable {
	var t OpacityTable
	span := maxOpacity - minOpacity
	for i := 0; i < PaletteSize; i++ {
		a := minOpacity + float64(i)/(PaletteSize-1)*span
		t[i] = uint8(clamp255(math.Round(a * 255)))
	}
	return t
}
