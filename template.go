package heat

import "math"

// template is the precomputed radial falloff stamp for one influence
// radius. Only the alpha carrier matters; color is applied later by the
// palette lookup. The bitmap is a 2*radius square with alpha in [0, 1].
type template struct {
	side  int
	alpha []float64
}

// makeTemplate precomputes the stamp for the given radius and blur.
// blurFactor = 1 - blur. With no blur the stamp is a solid disk with a
// hard cutoff at radius; otherwise alpha ramps linearly from opaque at
// radius*blurFactor down to zero at radius, matching a canvas-style
// radial gradient.
func makeTemplate(radius int, blur float64) *template {
	side := 2 * radius
	t := &template{
		side:  side,
		alpha: make([]float64, side*side),
	}

	r := float64(radius)
	blurFactor := 1 - blur
	inner := r * blurFactor
	center := r

	for y := 0; y < side; y++ {
		for x := 0; x < side; x++ {
			// Sample at the pixel center.
			dx := float64(x) + 0.5 - center
			dy := float64(y) + 0.5 - center
			d := math.Sqrt(dx*dx + dy*dy)

			var a float64
			switch {
			case blurFactor >= 1:
				// Hard cutoff, no gradient.
				if d <= r {
					a = 1
				}
			case d <= inner:
				a = 1
			case d < r:
				a = 1 - (d-inner)/(r-inner)
			}
			t.alpha[y*side+x] = a
		}
	}

	return t
}

// templateCache caches stamps by radius. The blur factor is fixed for
// the life of a renderer, so the radius alone keys the cache. Per-point
// radii hit the cache after the first use, amortizing the gradient
// computation across all draws.
type templateCache struct {
	blur  float64
	cache map[int]*template
}

func newTemplateCache(blur float64) *templateCache {
	return &templateCache{
		blur:  blur,
		cache: make(map[int]*template),
	}
}

// get returns the stamp for radius, generating and caching it on first
// use.
func (tc *templateCache) get(radius int) *template {
	if t, ok := tc.cache[radius]; ok {
		return t
	}
	t := makeTemplate(radius, tc.blur)
	tc.cache[radius] = t
	return t
}
