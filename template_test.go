package heat

import "testing"

// alphaAtDistance samples the template's alpha at approximately the
// given distance along the +x axis from the center.
func alphaAtDistance(tpl *template, radius int, d int) float64 {
	center := radius // pixel index whose center is at radius+0.5
	x := center + d
	y := center
	if x < 0 || x >= tpl.side {
		return 0
	}
	return tpl.alpha[y*tpl.side+x]
}

func TestMakeTemplateSize(t *testing.T) {
	for _, radius := range []int{1, 10, 40} {
		tpl := makeTemplate(radius, 0.85)
		if tpl.side != 2*radius {
			t.Errorf("radius %d: side = %d, want %d", radius, tpl.side, 2*radius)
		}
		if len(tpl.alpha) != tpl.side*tpl.side {
			t.Errorf("radius %d: alpha length = %d, want %d", radius, len(tpl.alpha), tpl.side*tpl.side)
		}
	}
}

func TestMakeTemplateHardDisk(t *testing.T) {
	// blur 0 means a hard cutoff: fully opaque inside, zero outside.
	const radius = 30
	tpl := makeTemplate(radius, 0)

	if a := alphaAtDistance(tpl, radius, 0); a != 1 {
		t.Errorf("alpha at center = %v, want 1", a)
	}
	if a := alphaAtDistance(tpl, radius, radius-2); a != 1 {
		t.Errorf("alpha just inside = %v, want 1", a)
	}
	// The corner of the square template lies outside the disk.
	if a := tpl.alpha[0]; a != 0 {
		t.Errorf("alpha at corner = %v, want 0", a)
	}
}

func TestMakeTemplateFalloff(t *testing.T) {
	const radius = 30
	tpl := makeTemplate(radius, 0.85)

	// Center is opaque, edge fades to zero, alpha decreases with
	// distance in between.
	center := alphaAtDistance(tpl, radius, 0)
	if center != 1 {
		t.Errorf("alpha at center = %v, want 1", center)
	}

	prev := center
	for d := 1; d < radius; d++ {
		a := alphaAtDistance(tpl, radius, d)
		if a > prev {
			t.Fatalf("alpha increased with distance at d=%d: %v > %v", d, a, prev)
		}
		prev = a
	}
	if edge := alphaAtDistance(tpl, radius, radius-1); edge >= 0.5 {
		t.Errorf("alpha near edge = %v, want small", edge)
	}
}

func TestMakeTemplateFullBlur(t *testing.T) {
	// blur 1 ramps from the exact center all the way out.
	const radius = 20
	tpl := makeTemplate(radius, 1)

	near := alphaAtDistance(tpl, radius, 1)
	far := alphaAtDistance(tpl, radius, radius-1)
	if near <= far {
		t.Errorf("expected falloff: near %v, far %v", near, far)
	}
	if far < 0 || far > 0.2 {
		t.Errorf("alpha near rim = %v, want close to 0", far)
	}
}

func TestTemplateCache(t *testing.T) {
	tc := newTemplateCache(0.85)
	a := tc.get(25)
	b := tc.get(25)
	if a != b {
		t.Error("same radius should return the cached template")
	}
	c := tc.get(30)
	if c == a {
		t.Error("different radius must not share a template")
	}
	if c.side != 60 {
		t.Errorf("side = %d, want 60", c.side)
	}
}
