package heat

import "math"

// Point is a weighted location in surface pixel coordinates. Points are
// immutable once submitted; the point set as a whole is replaced or
// appended to.
type Point struct {
	X     float64
	Y     float64
	Value float64

	// Radius optionally overrides the configured influence radius for
	// this point. Zero means "use the renderer default".
	Radius int
}

// valueRange tracks the [min, max] span of submitted point values.
type valueRange struct {
	min, max float64
	valid    bool // false until at least one value has been observed
}

// observe extends the range to include v.
func (r *valueRange) observe(v float64) {
	if !r.valid {
		r.min, r.max = v, v
		r.valid = true
		return
	}
	if v < r.min {
		r.min = v
	}
	if v > r.max {
		r.max = v
	}
}

// contains reports whether v lies within the current range. An invalid
// (empty) range contains nothing.
func (r *valueRange) contains(v float64) bool {
	return r.valid && v >= r.min && v <= r.max
}

// detectRange scans points and returns their value range.
func detectRange(points []Point) valueRange {
	var r valueRange
	for i := range points {
		r.observe(points[i].Value)
	}
	return r
}

// intensity maps a raw value into the normalized [0, 1] render
// intensity: clamp01((v-min)/span) raised to the response exponent.
// A degenerate range (min == max) divides by 1 instead, so equal-valued
// points normalize to 0 and render at the minimum visible intensity.
func (r *valueRange) intensity(v, exponent float64) float64 {
	span := r.max - r.min
	if span == 0 {
		span = 1
	}
	n := clamp01((v - r.min) / span)
	if exponent == 1 {
		return n
	}
	return math.Pow(n, exponent)
}
