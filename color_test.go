package heat

import (
	"image/color"
	"testing"
)

func TestHex(t *testing.T) {
	tests := []struct {
		name string
		hex  string
		want RGBA
	}{
		{"rgb short", "f00", Red},
		{"rrggbb", "00ff00", Green},
		{"with hash", "#0000ff", Blue},
		{"rrggbbaa", "ff000080", RGBA{R: 1, A: 128.0 / 255}},
		{"rgba short", "f008", RGBA{R: 1, A: 136.0 / 255}},
		{"invalid length", "12345", Black},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Hex(tt.hex)
			if !colorsEqual(got, tt.want, gradientEpsilon) {
				t.Errorf("Hex(%q) = %v, want %v", tt.hex, got, tt.want)
			}
		})
	}
}

func TestLerp(t *testing.T) {
	got := Black.Lerp(White, 0.5)
	want := RGBA{R: 0.5, G: 0.5, B: 0.5, A: 1}
	if !colorsEqual(got, want, gradientEpsilon) {
		t.Errorf("Lerp = %v, want %v", got, want)
	}

	if got := Red.Lerp(Blue, 0); !colorsEqual(got, Red, gradientEpsilon) {
		t.Errorf("Lerp(t=0) = %v, want %v", got, Red)
	}
	if got := Red.Lerp(Blue, 1); !colorsEqual(got, Blue, gradientEpsilon) {
		t.Errorf("Lerp(t=1) = %v, want %v", got, Blue)
	}
}

func TestColorRoundTrip(t *testing.T) {
	c := RGBA{R: 0.25, G: 0.5, B: 0.75, A: 1}
	back := FromColor(c.Color())
	if !colorsEqual(back, c, gradientEpsilon) {
		t.Errorf("round trip = %v, want %v", back, c)
	}
}

func TestColorInterface(t *testing.T) {
	got := White.Color()
	nrgba, ok := got.(color.NRGBA)
	if !ok {
		t.Fatalf("Color() returned %T, want color.NRGBA", got)
	}
	if nrgba.R != 255 || nrgba.G != 255 || nrgba.B != 255 || nrgba.A != 255 {
		t.Errorf("White.Color() = %v", nrgba)
	}
}
