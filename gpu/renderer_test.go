//go:build !nogpu

package gpu

import (
	"math"
	"testing"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/heat"
	"github.com/gogpu/wgpu/hal"
	"github.com/gogpu/wgpu/hal/noop"
)

// createNoopDevice creates a noop device and queue for testing.
// Returns the device, queue, and a cleanup function.
func createNoopDevice(t *testing.T) (hal.Device, hal.Queue, func()) {
	t.Helper()
	api := noop.API{}
	instance, err := api.CreateInstance(nil)
	if err != nil {
		t.Fatalf("CreateInstance failed: %v", err)
	}
	adapters := instance.EnumerateAdapters(nil)
	openDev, err := adapters[0].Adapter.Open(0, gputypes.DefaultLimits())
	if err != nil {
		instance.Destroy()
		t.Fatalf("Open failed: %v", err)
	}
	cleanup := func() {
		openDev.Device.Destroy()
		instance.Destroy()
	}
	return openDev.Device, openDev.Queue, cleanup
}

func newTestRenderer(t *testing.T, width, height int) *Renderer {
	t.Helper()
	device, queue, cleanup := createNoopDevice(t)
	t.Cleanup(cleanup)

	cfg := heat.Config{
		Width:      width,
		Height:     height,
		Radius:     40,
		Blur:       0.85,
		MinOpacity: 0,
		MaxOpacity: 1,
	}
	r, err := newRendererWithDevice(cfg, nil, device, queue, true)
	if err != nil {
		t.Fatalf("newRendererWithDevice: %v", err)
	}
	t.Cleanup(r.Dispose)
	return r
}

func TestNewRendererResources(t *testing.T) {
	r := newTestRenderer(t, 320, 240)

	if r.intensityTex == nil || r.intensityView == nil {
		t.Error("expected intensity texture and view")
	}
	if r.colorTex == nil || r.colorView == nil {
		t.Error("expected color texture and view")
	}
	if r.paletteTex == nil || r.paletteView == nil {
		t.Error("expected palette texture and view")
	}
	if r.intensityPipeline == nil || r.colorizePipeline == nil {
		t.Error("expected both render pipelines")
	}
	if r.intensityBind == nil || r.colorizeBind == nil {
		t.Error("expected both bind groups")
	}
	if r.screenTriBuf == nil {
		t.Error("expected full-screen triangle buffer")
	}

	p := r.Pixmap()
	if p.Width() != 320 || p.Height() != 240 {
		t.Errorf("pixmap size = %dx%d, want 320x240", p.Width(), p.Height())
	}
}

func TestRendererImplementsInterface(t *testing.T) {
	var _ heat.Renderer = newTestRenderer(t, 64, 64)
}

func TestDrawPointsBounds(t *testing.T) {
	r := newTestRenderer(t, 200, 200)

	bounds, err := r.DrawPoints([]heat.RenderPoint{
		{X: 100, Y: 100, Radius: 10, Intensity: 1},
	})
	if err != nil {
		t.Fatalf("DrawPoints: %v", err)
	}
	want := heat.Bounds{MinX: 90, MinY: 90, MaxX: 110, MaxY: 110}
	if bounds != want {
		t.Errorf("bounds = %+v, want %+v", bounds, want)
	}
}

func TestDrawPointsDefaultRadiusAndClamp(t *testing.T) {
	r := newTestRenderer(t, 100, 100)

	// Radius 0 falls back to the configured default (40); the stamp
	// near the corner clamps to the surface.
	bounds, err := r.DrawPoints([]heat.RenderPoint{
		{X: 10, Y: 10, Intensity: 0.5},
	})
	if err != nil {
		t.Fatalf("DrawPoints: %v", err)
	}
	want := heat.Bounds{MinX: 0, MinY: 0, MaxX: 50, MaxY: 50}
	if bounds != want {
		t.Errorf("bounds = %+v, want %+v", bounds, want)
	}
}

func TestDrawPointsEmpty(t *testing.T) {
	r := newTestRenderer(t, 100, 100)

	bounds, err := r.DrawPoints(nil)
	if err != nil {
		t.Fatalf("DrawPoints: %v", err)
	}
	if !bounds.Empty() {
		t.Errorf("bounds = %+v, want empty", bounds)
	}
}

func TestFullRenderCycle(t *testing.T) {
	r := newTestRenderer(t, 128, 128)

	if err := r.SetPalette(heat.MakePalette(heat.DefaultGradient()), heat.MakeOpacityTable(0, 1)); err != nil {
		t.Fatalf("SetPalette: %v", err)
	}

	pts := []heat.RenderPoint{
		{X: 40, Y: 40, Radius: 20, Intensity: 0.8},
		{X: 80, Y: 80, Radius: 15, Intensity: 0.3},
	}
	for i := 0; i < 3; i++ {
		if _, err := r.Render(pts); err != nil {
			t.Fatalf("Render frame %d: %v", i, err)
		}
	}

	r.Clear()
	if _, err := r.DrawPoints(pts); err != nil {
		t.Fatalf("DrawPoints after Clear: %v", err)
	}
	if err := r.Colorize(heat.Bounds{MinX: 0, MinY: 0, MaxX: 128, MaxY: 128}); err != nil {
		t.Fatalf("Colorize: %v", err)
	}
}

func TestSetPaletteOpacityEndpoints(t *testing.T) {
	r := newTestRenderer(t, 64, 64)

	if err := r.SetPalette(heat.MakePalette(heat.DefaultGradient()), heat.MakeOpacityTable(0.2, 0.8)); err != nil {
		t.Fatalf("SetPalette: %v", err)
	}
	if r.minOpacity < 0.19 || r.minOpacity > 0.21 {
		t.Errorf("minOpacity = %v, want ~0.2", r.minOpacity)
	}
	if r.maxOpacity < 0.79 || r.maxOpacity > 0.81 {
		t.Errorf("maxOpacity = %v, want ~0.8", r.maxOpacity)
	}
}

func TestDisposeIdempotent(t *testing.T) {
	r := newTestRenderer(t, 32, 32)
	r.Dispose()
	r.Dispose()

	// Clear must be a no-op on a disposed renderer, not a crash.
	r.Clear()

	if _, err := r.DrawPoints([]heat.RenderPoint{{X: 1, Y: 1, Intensity: 1}}); err == nil {
		t.Error("DrawPoints after Dispose should fail")
	}
	if err := r.Colorize(heat.Bounds{}); err == nil {
		t.Error("Colorize after Dispose should fail")
	}
}

func TestSpriteQuadPacking(t *testing.T) {
	data := appendSpriteQuad(nil, 10, 20, 5, 2, 0.5)
	if len(data) != 6*intensityVertexStride {
		t.Fatalf("quad byte length = %d, want %d", len(data), 6*intensityVertexStride)
	}
}

// TestSoftwareParity renders the same scene through both backends on a
// real adapter and compares them structurally: the backends quantize
// differently, so the assertion is agreement on zero/nonzero pixels,
// non-increasing alpha along the falloff, and a bounded channel delta
// at a set of probe pixels, not byte equality.
func TestSoftwareParity(t *testing.T) {
	instance, device, queue, err := openDevice()
	if err != nil {
		t.Skipf("no usable GPU adapter: %v", err)
	}

	cfg := heat.Config{
		Width:      128,
		Height:     128,
		Radius:     30,
		Blur:       0.5,
		MinOpacity: 0,
		MaxOpacity: 1,
	}
	gr, err := newRendererWithDevice(cfg, instance, device, queue, false)
	if err != nil {
		t.Fatalf("newRendererWithDevice: %v", err)
	}
	defer gr.Dispose()

	sw := heat.NewSoftwareRenderer(cfg)
	defer sw.Dispose()

	palette := heat.MakePalette(heat.DefaultGradient())
	opacity := heat.MakeOpacityTable(cfg.MinOpacity, cfg.MaxOpacity)
	points := []heat.RenderPoint{
		{X: 64, Y: 64, Intensity: 1},
		{X: 100, Y: 100, Intensity: 0.5},
	}
	for _, r := range []heat.Renderer{sw, gr} {
		if err := r.SetPalette(palette, opacity); err != nil {
			t.Fatalf("SetPalette: %v", err)
		}
		if _, err := r.Render(points); err != nil {
			t.Fatalf("Render: %v", err)
		}
	}

	sp := sw.Pixmap()
	gp := gr.Pixmap()

	// Probes along the first sprite's falloff, past its hard edge, at
	// the second sprite's center, and in untouched space.
	probes := [][2]int{
		{64, 64}, {80, 64}, {88, 64}, {91, 64}, {96, 64},
		{100, 100}, {10, 10},
	}
	const maxDelta = 25.0 / 255
	for _, pt := range probes {
		a := sp.GetPixel(pt[0], pt[1])
		b := gp.GetPixel(pt[0], pt[1])
		if (a.A == 0) != (b.A == 0) {
			t.Errorf("probe %v: zero/nonzero mismatch: software %v, gpu %v", pt, a, b)
			continue
		}
		deltas := []float64{a.R - b.R, a.G - b.G, a.B - b.B, a.A - b.A}
		for ch, d := range deltas {
			if math.Abs(d) > maxDelta {
				t.Errorf("probe %v channel %d: software %v vs gpu %v", pt, ch, a, b)
				break
			}
		}
	}

	// Alpha must fall monotonically from the sprite center outward on
	// both backends, with a little slack for quantization.
	falloff := probes[:5]
	for name, pix := range map[string]*heat.Pixmap{"software": sp, "gpu": gp} {
		prev := math.Inf(1)
		for _, pt := range falloff {
			a := pix.GetPixel(pt[0], pt[1]).A
			if a > prev+2.0/255 {
				t.Errorf("%s: alpha rises along falloff at %v: %v > %v", name, pt, a, prev)
			}
			prev = a
		}
	}
}

func TestShaderSourcesEmbedded(t *testing.T) {
	if intensityShaderSource == "" {
		t.Error("intensity shader source is empty")
	}
	if colorizeShaderSource == "" {
		t.Error("colorize shader source is empty")
	}
}
