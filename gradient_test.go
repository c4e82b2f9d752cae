package heat

import (
	"math"
	"testing"
)

const gradientEpsilon = 0.01

func colorsEqual(c1, c2 RGBA, epsilon float64) bool {
	return math.Abs(c1.R-c2.R) < epsilon &&
		math.Abs(c1.G-c2.G) < epsilon &&
		math.Abs(c1.B-c2.B) < epsilon &&
		math.Abs(c1.A-c2.A) < epsilon
}

func TestMakePaletteBoundaries(t *testing.T) {
	stops := []ColorStop{
		{Offset: 0.25, Color: Blue},
		{Offset: 1.00, Color: Red},
	}
	p := MakePalette(stops)

	// Below the first stop the palette holds the first stop's color.
	if !colorsEqual(p[0], Blue, gradientEpsilon) {
		t.Errorf("p[0] = %v, want %v", p[0], Blue)
	}
	if !colorsEqual(p[63], Blue, gradientEpsilon) {
		t.Errorf("p[63] = %v, want %v (still before first stop)", p[63], Blue)
	}
	// The last entry hits the final stop exactly.
	if !colorsEqual(p[255], Red, gradientEpsilon) {
		t.Errorf("p[255] = %v, want %v", p[255], Red)
	}
}

func TestMakePaletteInterpolation(t *testing.T) {
	stops := []ColorStop{
		{Offset: 0, Color: Black},
		{Offset: 1, Color: White},
	}
	p := MakePalette(stops)

	mid := p[127]
	want := 127.0 / 255.0
	if math.Abs(mid.R-want) > gradientEpsilon {
		t.Errorf("p[127].R = %v, want ~%v", mid.R, want)
	}

	// Monotone in every channel for a monotone ramp.
	for i := 1; i < PaletteSize; i++ {
		if p[i].R < p[i-1].R {
			t.Fatalf("palette not monotone at %d: %v < %v", i, p[i].R, p[i-1].R)
		}
	}
}

func TestMakePaletteUnsortedStops(t *testing.T) {
	sorted := []ColorStop{
		{Offset: 0.25, Color: Blue},
		{Offset: 0.55, Color: Green},
		{Offset: 1.00, Color: Red},
	}
	unsorted := []ColorStop{
		{Offset: 1.00, Color: Red},
		{Offset: 0.25, Color: Blue},
		{Offset: 0.55, Color: Green},
	}

	p1 := MakePalette(sorted)
	p2 := MakePalette(unsorted)
	if p1 != p2 {
		t.Error("palette differs between sorted and unsorted stop order")
	}

	// The input slice order must survive MakePalette.
	if unsorted[0].Offset != 1.00 {
		t.Error("MakePalette mutated the caller's stop slice")
	}
}

func TestMakePaletteSingleStop(t *testing.T) {
	p := MakePalette([]ColorStop{{Offset: 0.5, Color: Green}})
	for i := 0; i < PaletteSize; i += 51 {
		if !colorsEqual(p[i], Green, gradientEpsilon) {
			t.Fatalf("p[%d] = %v, want constant %v", i, p[i], Green)
		}
	}
}

func TestColorAtOffsetZeroWidthBracket(t *testing.T) {
	sorted := []ColorStop{
		{Offset: 0.5, Color: Blue},
		{Offset: 0.5, Color: Red},
	}
	// Coincident stops must not divide by zero; the earlier stop wins.
	got := colorAtOffset(sorted, 0.5)
	if !colorsEqual(got, Blue, gradientEpsilon) {
		t.Errorf("colorAtOffset at coincident stops = %v, want %v", got, Blue)
	}
}

func TestPaletteBytes(t *testing.T) {
	p := MakePalette([]ColorStop{{Offset: 0, Color: Red}})
	b := p.Bytes()
	if len(b) != PaletteSize*4 {
		t.Fatalf("Bytes length = %d, want %d", len(b), PaletteSize*4)
	}
	if b[0] != 255 || b[1] != 0 || b[2] != 0 || b[3] != 255 {
		t.Errorf("entry 0 = [%d %d %d %d], want [255 0 0 255]", b[0], b[1], b[2], b[3])
	}
}

func TestMakeOpacityTable(t *testing.T) {
	tests := []struct {
		name       string
		minOpacity float64
		maxOpacity float64
		first      uint8
		last       uint8
	}{
		{"full range", 0, 1, 0, 255},
		{"narrow", 0.2, 0.8, 51, 204},
		{"constant", 0.5, 0.5, 128, 128},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tab := MakeOpacityTable(tt.minOpacity, tt.maxOpacity)
			if tab[0] != tt.first {
				t.Errorf("tab[0] = %d, want %d", tab[0], tt.first)
			}
			if tab[255] != tt.last {
				t.Errorf("tab[255] = %d, want %d", tab[255], tt.last)
			}
			for i := 1; i < PaletteSize; i++ {
				if tab[i] < tab[i-1] {
					t.Fatalf("opacity table decreases at %d: %d < %d", i, tab[i], tab[i-1])
				}
			}
		})
	}
}

func TestDefaultGradientShape(t *testing.T) {
	p := MakePalette(DefaultGradient())

	// Cold end is blue, hot end is red.
	if p[0].B < 0.9 || p[0].R > 0.1 {
		t.Errorf("cold end = %v, want blue", p[0])
	}
	if p[255].R < 0.9 || p[255].B > 0.1 {
		t.Errorf("hot end = %v, want red", p[255])
	}
}
