package heat

import "math"

// Bounds is an axis-aligned dirty rectangle in surface pixel
// coordinates. MaxX/MaxY are exclusive. A draw pass starts from the
// empty sentinel, expands per stamped point, and is clamped once to the
// surface extents after all points are processed.
type Bounds struct {
	MinX, MinY int
	MaxX, MaxY int
}

// EmptyBounds returns the empty sentinel: mins at +inf, maxs at -inf,
// so any expansion replaces them. Renderer implementations start their
// dirty tracking from this value.
func EmptyBounds() Bounds {
	return Bounds{
		MinX: math.MaxInt,
		MinY: math.MaxInt,
		MaxX: math.MinInt,
		MaxY: math.MinInt,
	}
}

// Empty reports whether the bounds cover no pixels.
func (b Bounds) Empty() bool {
	return b.MinX >= b.MaxX || b.MinY >= b.MaxY
}

// Dx returns the width of the bounds, 0 when empty.
func (b Bounds) Dx() int {
	if b.Empty() {
		return 0
	}
	return b.MaxX - b.MinX
}

// Dy returns the height of the bounds, 0 when empty.
func (b Bounds) Dy() int {
	if b.Empty() {
		return 0
	}
	return b.MaxY - b.MinY
}

// Expand returns the union of b and other.
func (b Bounds) Expand(other Bounds) Bounds {
	if other.MinX < b.MinX {
		b.MinX = other.MinX
	}
	if other.MinY < b.MinY {
		b.MinY = other.MinY
	}
	if other.MaxX > b.MaxX {
		b.MaxX = other.MaxX
	}
	if other.MaxY > b.MaxY {
		b.MaxY = other.MaxY
	}
	return b
}

// Clamp restricts the bounds to the surface extents [0, w) x [0, h).
// Bounds entirely outside the surface collapse to the zero value.
func (b Bounds) Clamp(w, h int) Bounds {
	if b.MinX < 0 {
		b.MinX = 0
	}
	if b.MinY < 0 {
		b.MinY = 0
	}
	if b.MaxX > w {
		b.MaxX = w
	}
	if b.MaxY > h {
		b.MaxY = h
	}
	if b.Empty() {
		return Bounds{}
	}
	return b
}

// Contains reports whether the pixel (x, y) lies inside the bounds.
func (b Bounds) Contains(x, y int) bool {
	return x >= b.MinX && x < b.MaxX && y >= b.MinY && y < b.MaxY
}
