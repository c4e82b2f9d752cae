//go:build !nogpu

package gpu

import (
	"encoding/binary"
	"fmt"
	"math"
	"time"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/heat"
	"github.com/gogpu/wgpu/hal"
)

// minStampIntensity mirrors the software backend: sprites never stamp
// below this intensity so every point stays visible.
const minStampIntensity = 0.01

// gpuTimeout bounds every fence wait. A GPU that takes longer than
// this on a heatmap pass is wedged.
const gpuTimeout = 5 * time.Second

// Renderer renders heatmaps on the GPU in two passes: additive point
// sprites accumulate intensity into an offscreen texture, then a
// full-screen pass maps intensity through the palette texture into
// the color target, which is read back into a CPU pixmap.
//
// Renderer is not safe for concurrent use.
type Renderer struct {
	instance hal.Instance
	device   hal.Device
	queue    hal.Queue

	// externalDevice is set when the device came from a shared
	// provider. Dispose must not destroy it.
	externalDevice bool

	width  uint32
	height uint32

	defaultRadius int
	blur          float64
	minOpacity    float32
	maxOpacity    float32

	pix *heat.Pixmap

	intensityTex  hal.Texture
	intensityView hal.TextureView
	colorTex      hal.Texture
	colorView     hal.TextureView
	paletteTex    hal.Texture
	paletteView   hal.TextureView

	sampler hal.Sampler

	intensityShader     hal.ShaderModule
	colorizeShader      hal.ShaderModule
	intensityLayout     hal.BindGroupLayout
	intensityPipeLayout hal.PipelineLayout
	intensityPipeline   hal.RenderPipeline
	colorizeLayout      hal.BindGroupLayout
	colorizePipeLayout  hal.PipelineLayout
	colorizePipeline    hal.RenderPipeline

	viewportBuf  hal.Buffer
	colorizeBuf  hal.Buffer
	screenTriBuf hal.Buffer

	intensityBind hal.BindGroup
	colorizeBind  hal.BindGroup

	disposed bool
}

var _ heat.Renderer = (*Renderer)(nil)

// NewRenderer creates a GPU heatmap renderer for the given
// configuration. It prefers a shared device installed through
// SetDeviceProvider and otherwise opens its own adapter. The returned
// error wraps heat.ErrBackendUnavailable when no usable GPU exists so
// the backend registry can fall back to software.
func NewRenderer(cfg heat.Config) (*Renderer, error) {
	if dev, q, ok := sharedHalDevice(); ok {
		return newRendererWithDevice(cfg, nil, dev, q, true)
	}
	instance, dev, q, err := openDevice()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", heat.ErrBackendUnavailable, err)
	}
	return newRendererWithDevice(cfg, instance, dev, q, false)
}

// newRendererWithDevice builds the renderer on an already opened
// device. external renderers never destroy the device on Dispose.
func newRendererWithDevice(cfg heat.Config, instance hal.Instance, device hal.Device, queue hal.Queue, external bool) (*Renderer, error) {
	r := &Renderer{
		instance:       instance,
		device:         device,
		queue:          queue,
		externalDevice: external,
		width:          uint32(cfg.Width),
		height:         uint32(cfg.Height),
		defaultRadius:  cfg.Radius,
		blur:           cfg.Blur,
		minOpacity:     float32(cfg.MinOpacity),
		maxOpacity:     float32(cfg.MaxOpacity),
		pix:            heat.NewPixmap(cfg.Width, cfg.Height),
	}

	if err := r.createTextures(); err != nil {
		r.Dispose()
		return nil, err
	}
	if err := r.createPipelines(); err != nil {
		r.Dispose()
		return nil, err
	}
	if err := r.clearIntensity(); err != nil {
		r.Dispose()
		return nil, err
	}
	return r, nil
}

// Clear resets the intensity texture and the pixmap to transparent.
func (r *Renderer) Clear() {
	if r.disposed {
		return
	}
	if err := r.clearIntensity(); err != nil {
		logger().Warn("heat gpu: clear failed", "error", err)
	}
	r.pix.Clear()
}

// DrawPoints accumulates the given points into the intensity texture
// and returns the pixel bounds they touch. The bounds are computed on
// the CPU with the same placement arithmetic as the software backend.
func (r *Renderer) DrawPoints(points []heat.RenderPoint) (heat.Bounds, error) {
	if r.disposed {
		return heat.Bounds{}, fmt.Errorf("heat gpu: renderer disposed")
	}

	dirty := heat.EmptyBounds()
	verts := make([]byte, 0, len(points)*6*intensityVertexStride)
	count := uint32(0)

	for _, p := range points {
		intensity := p.Intensity
		if intensity < minStampIntensity {
			intensity = minStampIntensity
		}
		radius := p.Radius
		if radius <= 0 {
			radius = r.defaultRadius
		}
		cx := math.Floor(p.X)
		cy := math.Floor(p.Y)
		dirty = dirty.Expand(heat.Bounds{
			MinX: int(cx) - radius,
			MinY: int(cy) - radius,
			MaxX: int(cx) + radius,
			MaxY: int(cy) + radius,
		})

		inner := float32(float64(radius) * (1 - r.blur))
		verts = appendSpriteQuad(verts, float32(cx), float32(cy),
			float32(radius), inner, float32(intensity))
		count += 6
	}
	dirty = dirty.Clamp(int(r.width), int(r.height))
	if count == 0 {
		return dirty, nil
	}

	vertBuf, err := r.createAndUploadBuffer("heat_sprite_verts", verts,
		gputypes.BufferUsageVertex|gputypes.BufferUsageCopyDst)
	if err != nil {
		return heat.Bounds{}, err
	}
	defer r.device.DestroyBuffer(vertBuf)

	err = r.encodePass("heat_intensity", func(encoder hal.CommandEncoder) error {
		rp := encoder.BeginRenderPass(&hal.RenderPassDescriptor{
			Label: "heat_intensity_pass",
			ColorAttachments: []hal.RenderPassColorAttachment{
				{
					View:       r.intensityView,
					LoadOp:     gputypes.LoadOpLoad,
					StoreOp:    gputypes.StoreOpStore,
					ClearValue: gputypes.Color{},
				},
			},
		})
		rp.SetPipeline(r.intensityPipeline)
		rp.SetBindGroup(0, r.intensityBind, nil)
		rp.SetVertexBuffer(0, vertBuf, 0)
		rp.Draw(count, 1, 0, 0)
		rp.End()
		return nil
	})
	if err != nil {
		return heat.Bounds{}, err
	}
	return dirty, nil
}

// Colorize maps the accumulated intensity through the palette and
// reads the result back into the pixmap. The colorize pass always
// covers the full surface; the bounds argument only describes which
// region changed since the last call.
func (r *Renderer) Colorize(heat.Bounds) error {
	if r.disposed {
		return fmt.Errorf("heat gpu: renderer disposed")
	}

	encoder, err := r.device.CreateCommandEncoder(&hal.CommandEncoderDescriptor{
		Label: "heat_colorize_encoder",
	})
	if err != nil {
		return fmt.Errorf("heat gpu: create command encoder: %w", err)
	}
	if err := encoder.BeginEncoding("heat_colorize"); err != nil {
		return fmt.Errorf("heat gpu: begin encoding: %w", err)
	}

	rp := encoder.BeginRenderPass(&hal.RenderPassDescriptor{
		Label: "heat_colorize_pass",
		ColorAttachments: []hal.RenderPassColorAttachment{
			{
				View:       r.colorView,
				LoadOp:     gputypes.LoadOpClear,
				StoreOp:    gputypes.StoreOpStore,
				ClearValue: gputypes.Color{},
			},
		},
	})
	rp.SetPipeline(r.colorizePipeline)
	rp.SetBindGroup(0, r.colorizeBind, nil)
	rp.SetVertexBuffer(0, r.screenTriBuf, 0)
	rp.Draw(3, 1, 0, 0)
	rp.End()

	// The color attachment must transition to a copy source before
	// CopyTextureToBuffer. No-op on backends without explicit layouts.
	encoder.TransitionTextures([]hal.TextureBarrier{{
		Texture: r.colorTex,
		Usage: hal.TextureUsageTransition{
			OldUsage: gputypes.TextureUsageRenderAttachment,
			NewUsage: gputypes.TextureUsageCopySrc,
		},
	}})

	pixelBufSize := uint64(r.width) * uint64(r.height) * 4
	stagingBuf, err := r.device.CreateBuffer(&hal.BufferDescriptor{
		Label: "heat_readback_staging",
		Size:  pixelBufSize,
		Usage: gputypes.BufferUsageMapRead | gputypes.BufferUsageCopyDst,
	})
	if err != nil {
		encoder.DiscardEncoding()
		return fmt.Errorf("heat gpu: create staging buffer: %w", err)
	}
	defer r.device.DestroyBuffer(stagingBuf)

	encoder.CopyTextureToBuffer(r.colorTex, stagingBuf, []hal.BufferTextureCopy{{
		BufferLayout: hal.ImageDataLayout{Offset: 0, BytesPerRow: r.width * 4, RowsPerImage: r.height},
		TextureBase:  hal.ImageCopyTexture{Texture: r.colorTex, MipLevel: 0},
		Size:         hal.Extent3D{Width: r.width, Height: r.height, DepthOrArrayLayers: 1},
	}})

	cmdBuf, err := encoder.EndEncoding()
	if err != nil {
		return fmt.Errorf("heat gpu: end encoding: %w", err)
	}
	defer r.device.FreeCommandBuffer(cmdBuf)

	fence, err := r.device.CreateFence()
	if err != nil {
		return fmt.Errorf("heat gpu: create fence: %w", err)
	}
	defer r.device.DestroyFence(fence)

	if err := r.queue.Submit([]hal.CommandBuffer{cmdBuf}, fence, 1); err != nil {
		return fmt.Errorf("heat gpu: submit: %w", err)
	}
	fenceOK, err := r.device.Wait(fence, 1, gpuTimeout)
	if err != nil || !fenceOK {
		return fmt.Errorf("heat gpu: wait: ok=%v err=%w", fenceOK, err)
	}

	if err := r.queue.ReadBuffer(stagingBuf, 0, r.pix.Data()); err != nil {
		return fmt.Errorf("heat gpu: readback: %w", err)
	}
	return nil
}

// Render clears, accumulates, and colorizes in one call.
func (r *Renderer) Render(points []heat.RenderPoint) (heat.Bounds, error) {
	if err := r.clearIntensity(); err != nil {
		return heat.Bounds{}, err
	}
	dirty, err := r.DrawPoints(points)
	if err != nil {
		return heat.Bounds{}, err
	}
	if err := r.Colorize(dirty); err != nil {
		return heat.Bounds{}, err
	}
	return dirty, nil
}

// SetPalette uploads a new palette texture and opacity ramp. Pipelines
// are untouched, so gradient swaps are cheap.
func (r *Renderer) SetPalette(palette heat.Palette, opacity heat.OpacityTable) error {
	if r.disposed {
		return fmt.Errorf("heat gpu: renderer disposed")
	}
	r.uploadPalette(palette.Bytes())

	// The shader applies a continuous opacity ramp between the table's
	// endpoints, matching the linear table the CPU backend indexes.
	r.minOpacity = float32(opacity[0]) / 255
	r.maxOpacity = float32(opacity[heat.PaletteSize-1]) / 255
	r.queue.WriteBuffer(r.colorizeBuf, 0, r.colorizeUniform())
	return nil
}

// Pixmap returns the CPU-visible output surface. Its contents are
// valid after Colorize or Render.
func (r *Renderer) Pixmap() *heat.Pixmap {
	return r.pix
}

// Dispose releases all GPU resources. Shared devices installed via
// SetDeviceProvider are left open.
func (r *Renderer) Dispose() {
	if r.disposed {
		return
	}
	r.disposed = true

	d := r.device
	if d == nil {
		return
	}
	if r.colorizeBind != nil {
		d.DestroyBindGroup(r.colorizeBind)
	}
	if r.intensityBind != nil {
		d.DestroyBindGroup(r.intensityBind)
	}
	if r.screenTriBuf != nil {
		d.DestroyBuffer(r.screenTriBuf)
	}
	if r.colorizeBuf != nil {
		d.DestroyBuffer(r.colorizeBuf)
	}
	if r.viewportBuf != nil {
		d.DestroyBuffer(r.viewportBuf)
	}
	if r.colorizePipeline != nil {
		d.DestroyRenderPipeline(r.colorizePipeline)
	}
	if r.colorizePipeLayout != nil {
		d.DestroyPipelineLayout(r.colorizePipeLayout)
	}
	if r.colorizeLayout != nil {
		d.DestroyBindGroupLayout(r.colorizeLayout)
	}
	if r.intensityPipeline != nil {
		d.DestroyRenderPipeline(r.intensityPipeline)
	}
	if r.intensityPipeLayout != nil {
		d.DestroyPipelineLayout(r.intensityPipeLayout)
	}
	if r.intensityLayout != nil {
		d.DestroyBindGroupLayout(r.intensityLayout)
	}
	if r.colorizeShader != nil {
		d.DestroyShaderModule(r.colorizeShader)
	}
	if r.intensityShader != nil {
		d.DestroyShaderModule(r.intensityShader)
	}
	if r.sampler != nil {
		d.DestroySampler(r.sampler)
	}
	if r.paletteView != nil {
		d.DestroyTextureView(r.paletteView)
	}
	if r.paletteTex != nil {
		d.DestroyTexture(r.paletteTex)
	}
	if r.colorView != nil {
		d.DestroyTextureView(r.colorView)
	}
	if r.colorTex != nil {
		d.DestroyTexture(r.colorTex)
	}
	if r.intensityView != nil {
		d.DestroyTextureView(r.intensityView)
	}
	if r.intensityTex != nil {
		d.DestroyTexture(r.intensityTex)
	}

	if !r.externalDevice {
		d.Destroy()
		if r.instance != nil {
			r.instance.Destroy()
		}
	}
	r.device = nil
	r.queue = nil
	r.instance = nil
}

// clearIntensity runs an empty render pass that clears the intensity
// texture to zero.
func (r *Renderer) clearIntensity() error {
	return r.encodePass("heat_clear", func(encoder hal.CommandEncoder) error {
		rp := encoder.BeginRenderPass(&hal.RenderPassDescriptor{
			Label: "heat_clear_pass",
			ColorAttachments: []hal.RenderPassColorAttachment{
				{
					View:       r.intensityView,
					LoadOp:     gputypes.LoadOpClear,
					StoreOp:    gputypes.StoreOpStore,
					ClearValue: gputypes.Color{},
				},
			},
		})
		rp.End()
		return nil
	})
}

// encodePass records a command buffer through record, submits it, and
// blocks until the fence signals.
func (r *Renderer) encodePass(label string, record func(hal.CommandEncoder) error) error {
	encoder, err := r.device.CreateCommandEncoder(&hal.CommandEncoderDescriptor{
		Label: label + "_encoder",
	})
	if err != nil {
		return fmt.Errorf("heat gpu: create command encoder: %w", err)
	}
	if err := encoder.BeginEncoding(label); err != nil {
		return fmt.Errorf("heat gpu: begin encoding: %w", err)
	}
	if err := record(encoder); err != nil {
		encoder.DiscardEncoding()
		return err
	}
	cmdBuf, err := encoder.EndEncoding()
	if err != nil {
		return fmt.Errorf("heat gpu: end encoding: %w", err)
	}
	defer r.device.FreeCommandBuffer(cmdBuf)

	fence, err := r.device.CreateFence()
	if err != nil {
		return fmt.Errorf("heat gpu: create fence: %w", err)
	}
	defer r.device.DestroyFence(fence)

	if err := r.queue.Submit([]hal.CommandBuffer{cmdBuf}, fence, 1); err != nil {
		return fmt.Errorf("heat gpu: submit: %w", err)
	}
	fenceOK, err := r.device.Wait(fence, 1, gpuTimeout)
	if err != nil || !fenceOK {
		return fmt.Errorf("heat gpu: wait: ok=%v err=%w", fenceOK, err)
	}
	return nil
}

// appendSpriteQuad appends two triangles (six vertices) covering the
// square [cx-radius, cx+radius] x [cy-radius, cy+radius].
func appendSpriteQuad(dst []byte, cx, cy, radius, inner, intensity float32) []byte {
	corners := [6][2]float32{
		{-1, -1}, {1, -1}, {1, 1},
		{-1, -1}, {1, 1}, {-1, 1},
	}
	for _, c := range corners {
		lx := c[0] * radius
		ly := c[1] * radius
		dst = appendF32(dst, cx+lx)
		dst = appendF32(dst, cy+ly)
		dst = appendF32(dst, lx)
		dst = appendF32(dst, ly)
		dst = appendF32(dst, radius)
		dst = appendF32(dst, inner)
		dst = appendF32(dst, intensity)
	}
	return dst
}

func appendF32(dst []byte, v float32) []byte {
	var b [4]byte
	binary.LittleEndian.PutUint32(b[:], math.Float32bits(v))
	return append(dst, b[:]...)
}
