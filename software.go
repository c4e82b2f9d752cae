package heat

import "math"

// minStampIntensity is the floor applied to a point's intensity when
// stamping. Zero-intensity points still leave a faint trace so very low
// values remain visible instead of disappearing entirely.
const minStampIntensity = 0.01

// SoftwareRenderer is the CPU compositing backend. It accumulates
// grayscale alpha by stamping precomputed radial templates into an
// offscreen shadow buffer, then remaps the dirty region's alpha through
// the palette and opacity tables into the visible pixmap.
//
// Accumulating in a single scalar channel first and colorizing once
// keeps overlap semantics defined by intensity accumulation rather than
// color math: blending overlapping gradients in color space produces
// visually wrong results.
type SoftwareRenderer struct {
	width  int
	height int

	pix    *Pixmap
	shadow []float64 // per-pixel accumulated intensity in [0, 1]

	templates     *templateCache
	defaultRadius int
	blend         BlendMode

	palette Palette
	opacity OpacityTable

	// paletteRGB caches the palette as bytes so colorize avoids a
	// float conversion per pixel.
	paletteRGB [PaletteSize][3]uint8
}

// NewSoftwareRenderer creates the CPU backend for the given
// configuration. The configuration must already be validated.
func NewSoftwareRenderer(cfg Config) *SoftwareRenderer {
	r := &SoftwareRenderer{
		width:         cfg.Width,
		height:        cfg.Height,
		pix:           NewPixmap(cfg.Width, cfg.Height),
		shadow:        make([]float64, cfg.Width*cfg.Height),
		templates:     newTemplateCache(cfg.Blur),
		defaultRadius: cfg.Radius,
		blend:         cfg.BlendMode,
	}
	return r
}

var _ Renderer = (*SoftwareRenderer)(nil)

// Clear wipes the shadow buffer and the visible pixmap.
func (r *SoftwareRenderer) Clear() {
	clear(r.shadow)
	r.pix.Clear()
}

// DrawPoints stamps every point's template into the shadow buffer with
// alpha scaled by the point's intensity, expanding the dirty bounds per
// stamp and clamping them once to the surface at the end.
func (r *SoftwareRenderer) DrawPoints(points []RenderPoint) (Bounds, error) {
	bounds := EmptyBounds()

	for i := range points {
		p := &points[i]
		radius := p.Radius
		if radius <= 0 {
			radius = r.defaultRadius
		}
		tpl := r.templates.get(radius)

		x0 := int(math.Floor(p.X)) - radius
		y0 := int(math.Floor(p.Y)) - radius
		bounds = bounds.Expand(Bounds{MinX: x0, MinY: y0, MaxX: x0 + tpl.side, MaxY: y0 + tpl.side})

		intensity := p.Intensity
		if intensity < minStampIntensity {
			intensity = minStampIntensity
		}
		r.stamp(tpl, x0, y0, intensity)
	}

	return bounds.Clamp(r.width, r.height), nil
}

// stamp composites one template into the shadow buffer at (x0, y0),
// clipped to the surface.
func (r *SoftwareRenderer) stamp(tpl *template, x0, y0 int, intensity float64) {
	ty0 := 0
	if y0 < 0 {
		ty0 = -y0
	}
	ty1 := tpl.side
	if y0+ty1 > r.height {
		ty1 = r.height - y0
	}
	tx0 := 0
	if x0 < 0 {
		tx0 = -x0
	}
	tx1 := tpl.side
	if x0+tx1 > r.width {
		tx1 = r.width - x0
	}

	for ty := ty0; ty < ty1; ty++ {
		row := (y0 + ty) * r.width
		trow := ty * tpl.side
		for tx := tx0; tx < tx1; tx++ {
			src := tpl.alpha[trow+tx] * intensity
			if src == 0 {
				continue
			}
			di := row + x0 + tx
			switch r.blend {
			case BlendAdd:
				v := r.shadow[di] + src
				if v > 1 {
					v = 1
				}
				r.shadow[di] = v
			default: // BlendOver
				r.shadow[di] = src + r.shadow[di]*(1-src)
			}
		}
	}
}

// Colorize reads back only the region defined by bounds from the shadow
// buffer and writes palette RGB plus opacity-table alpha into the
// pixmap for every pixel with nonzero accumulated intensity. Zero
// pixels stay untouched (transparent).
func (r *SoftwareRenderer) Colorize(bounds Bounds) error {
	if bounds.Empty() {
		return nil
	}

	pix := r.pix.data
	for y := bounds.MinY; y < bounds.MaxY; y++ {
		row := y * r.width
		for x := bounds.MinX; x < bounds.MaxX; x++ {
			v := r.shadow[row+x]
			if v <= 0 {
				continue
			}
			q := int(v*255 + 0.5)
			if q > 255 {
				q = 255
			}
			if q == 0 {
				continue
			}
			i := (row + x) * 4
			rgb := &r.paletteRGB[q]
			pix[i+0] = rgb[0]
			pix[i+1] = rgb[1]
			pix[i+2] = rgb[2]
			pix[i+3] = r.opacity[q]
		}
	}
	return nil
}

// Render is the full-redraw path.
func (r *SoftwareRenderer) Render(points []RenderPoint) (Bounds, error) {
	r.Clear()
	bounds, err := r.DrawPoints(points)
	if err != nil {
		return bounds, err
	}
	return bounds, r.Colorize(bounds)
}

// SetPalette replaces the lookup tables. The tables are value objects
// owned by this renderer; replacing them never mutates shared state.
func (r *SoftwareRenderer) SetPalette(p Palette, op OpacityTable) error {
	r.palette = p
	r.opacity = op
	for i, c := range p {
		r.paletteRGB[i][0] = uint8(clamp255(c.R * 255))
		r.paletteRGB[i][1] = uint8(clamp255(c.G * 255))
		r.paletteRGB[i][2] = uint8(clamp255(c.B * 255))
	}
	return nil
}

// Pixmap returns the visible surface.
func (r *SoftwareRenderer) Pixmap() *Pixmap {
	return r.pix
}

// Dispose releases the buffers.
func (r *SoftwareRenderer) Dispose() {
	r.shadow = nil
	r.templates = nil
}

// shadowAt returns the accumulated intensity at (x, y). Test hook.
func (r *SoftwareRenderer) shadowAt(x, y int) float64 {
	if x < 0 || x >= r.width || y < 0 || y >= r.height {
		return 0
	}
	return r.shadow[y*r.width+x]
}
