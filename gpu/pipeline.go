//go:build !nogpu

package gpu

import (
	"encoding/binary"
	"fmt"
	"math"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/heat"
	"github.com/gogpu/wgpu/hal"
)

// intensityVertexStride is the byte stride per sprite vertex.
// Layout per vertex:
//
//	position (vec2<f32>) = 8 bytes (location 0, surface pixels)
//	local    (vec2<f32>) = 8 bytes (location 1, offset from center)
//	radius   (f32)       = 4 bytes (location 2)
//	inner    (f32)       = 4 bytes (location 3, falloff inner radius)
//	intensity (f32)      = 4 bytes (location 4)
//
// Total = 28 bytes per vertex.
const intensityVertexStride = 28

// uniformSize is the byte size of both pass uniform buffers.
// Intensity pass: viewport (vec2<f32>) + padding = 16 bytes.
// Colorize pass: min_opacity, max_opacity, threshold, padding = 16 bytes.
const uniformSize = 16

// intensityThreshold is the accumulated intensity below which the
// colorize pass discards the fragment, preserving transparency. One
// byte step keeps parity with the software backend's "zero shadow
// alpha stays untouched" rule.
const intensityThreshold = 1.0 / 255.0

// createTextures allocates the intensity accumulation target, the
// color output target, and the 256x1 palette texture.
func (r *Renderer) createTextures() error {
	size := hal.Extent3D{Width: r.width, Height: r.height, DepthOrArrayLayers: 1}

	intensityTex, err := r.device.CreateTexture(&hal.TextureDescriptor{
		Label:         "heat_intensity",
		Size:          size,
		MipLevelCount: 1,
		SampleCount:   1,
		Dimension:     gputypes.TextureDimension2D,
		Format:        gputypes.TextureFormatRGBA8Unorm,
		Usage:         gputypes.TextureUsageRenderAttachment | gputypes.TextureUsageTextureBinding,
	})
	if err != nil {
		return fmt.Errorf("gpu: create intensity texture: %w", err)
	}
	r.intensityTex = intensityTex

	intensityView, err := r.device.CreateTextureView(intensityTex, &hal.TextureViewDescriptor{
		Label:         "heat_intensity_view",
		Format:        gputypes.TextureFormatRGBA8Unorm,
		Dimension:     gputypes.TextureViewDimension2D,
		Aspect:        gputypes.TextureAspectAll,
		MipLevelCount: 1,
	})
	if err != nil {
		return fmt.Errorf("gpu: create intensity view: %w", err)
	}
	r.intensityView = intensityView

	colorTex, err := r.device.CreateTexture(&hal.TextureDescriptor{
		Label:         "heat_color",
		Size:          size,
		MipLevelCount: 1,
		SampleCount:   1,
		Dimension:     gputypes.TextureDimension2D,
		Format:        gputypes.TextureFormatRGBA8Unorm,
		Usage:         gputypes.TextureUsageRenderAttachment | gputypes.TextureUsageCopySrc,
	})
	if err != nil {
		return fmt.Errorf("gpu: create color texture: %w", err)
	}
	r.colorTex = colorTex

	colorView, err := r.device.CreateTextureView(colorTex, &hal.TextureViewDescriptor{
		Label:         "heat_color_view",
		Format:        gputypes.TextureFormatRGBA8Unorm,
		Dimension:     gputypes.TextureViewDimension2D,
		Aspect:        gputypes.TextureAspectAll,
		MipLevelCount: 1,
	})
	if err != nil {
		return fmt.Errorf("gpu: create color view: %w", err)
	}
	r.colorView = colorView

	paletteTex, err := r.device.CreateTexture(&hal.TextureDescriptor{
		Label:         "heat_palette",
		Size:          hal.Extent3D{Width: heat.PaletteSize, Height: 1, DepthOrArrayLayers: 1},
		MipLevelCount: 1,
		SampleCount:   1,
		Dimension:     gputypes.TextureDimension2D,
		Format:        gputypes.TextureFormatRGBA8Unorm,
		Usage:         gputypes.TextureUsageTextureBinding | gputypes.TextureUsageCopyDst,
	})
	if err != nil {
		return fmt.Errorf("gpu: create palette texture: %w", err)
	}
	r.paletteTex = paletteTex

	paletteView, err := r.device.CreateTextureView(paletteTex, &hal.TextureViewDescriptor{
		Label:         "heat_palette_view",
		Format:        gputypes.TextureFormatRGBA8Unorm,
		Dimension:     gputypes.TextureViewDimension2D,
		Aspect:        gputypes.TextureAspectAll,
		MipLevelCount: 1,
	})
	if err != nil {
		return fmt.Errorf("gpu: create palette view: %w", err)
	}
	r.paletteView = paletteView

	return nil
}

// uploadPalette writes the packed RGBA8 palette into the 256x1 texture.
// Shaders and pipelines are untouched; only the texture contents change.
func (r *Renderer) uploadPalette(data []byte) {
	r.queue.WriteTexture(
		&hal.ImageCopyTexture{
			Texture:  r.paletteTex,
			MipLevel: 0,
		},
		data,
		&hal.ImageDataLayout{
			Offset:       0,
			BytesPerRow:  heat.PaletteSize * 4,
			RowsPerImage: 1,
		},
		&hal.Extent3D{Width: heat.PaletteSize, Height: 1, DepthOrArrayLayers: 1},
	)
}

// createPipelines compiles both shaders and builds the intensity and
// colorize render pipelines, the sampler, the persistent uniform
// buffers, and their bind groups.
func (r *Renderer) createPipelines() error { //nolint:funlen // GPU pipeline descriptors are inherently verbose
	intensityShader, err := compileShader(r.device, "heat_intensity_shader", intensityShaderSource)
	if err != nil {
		return err
	}
	r.intensityShader = intensityShader

	colorizeShader, err := compileShader(r.device, "heat_colorize_shader", colorizeShaderSource)
	if err != nil {
		return err
	}
	r.colorizeShader = colorizeShader

	// --- Intensity pipeline ---
	//
	// One uniform buffer (viewport) at group(0) binding(0). Strictly
	// additive blending: accumulate, never overwrite. This is what
	// makes overlapping points brighter, mirroring the software
	// backend's shadow-buffer accumulation.
	intensityLayout, err := r.device.CreateBindGroupLayout(&hal.BindGroupLayoutDescriptor{
		Label: "heat_intensity_layout",
		Entries: []gputypes.BindGroupLayoutEntry{
			{
				Binding:    0,
				Visibility: gputypes.ShaderStageVertex | gputypes.ShaderStageFragment,
				Buffer:     &gputypes.BufferBindingLayout{Type: gputypes.BufferBindingTypeUniform},
			},
		},
	})
	if err != nil {
		return fmt.Errorf("gpu: create intensity bind group layout: %w", err)
	}
	r.intensityLayout = intensityLayout

	intensityPipeLayout, err := r.device.CreatePipelineLayout(&hal.PipelineLayoutDescriptor{
		Label:            "heat_intensity_pipe_layout",
		BindGroupLayouts: []hal.BindGroupLayout{r.intensityLayout},
	})
	if err != nil {
		return fmt.Errorf("gpu: create intensity pipeline layout: %w", err)
	}
	r.intensityPipeLayout = intensityPipeLayout

	additiveBlend := gputypes.BlendState{
		Color: gputypes.BlendComponent{
			SrcFactor: gputypes.BlendFactorOne,
			DstFactor: gputypes.BlendFactorOne,
			Operation: gputypes.BlendOperationAdd,
		},
		Alpha: gputypes.BlendComponent{
			SrcFactor: gputypes.BlendFactorOne,
			DstFactor: gputypes.BlendFactorOne,
			Operation: gputypes.BlendOperationAdd,
		},
	}

	intensityPipeline, err := r.device.CreateRenderPipeline(&hal.RenderPipelineDescriptor{
		Label:  "heat_intensity_pipeline",
		Layout: r.intensityPipeLayout,
		Vertex: hal.VertexState{
			Module:     r.intensityShader,
			EntryPoint: "vs_main",
			Buffers:    intensityVertexLayout(),
		},
		Fragment: &hal.FragmentState{
			Module:     r.intensityShader,
			EntryPoint: "fs_main",
			Targets: []gputypes.ColorTargetState{
				{
					Format:    gputypes.TextureFormatRGBA8Unorm,
					Blend:     &additiveBlend,
					WriteMask: gputypes.ColorWriteMaskAll,
				},
			},
		},
		Primitive: gputypes.PrimitiveState{
			Topology: gputypes.PrimitiveTopologyTriangleList,
			CullMode: gputypes.CullModeNone,
		},
		Multisample: gputypes.MultisampleState{
			Count: 1,
			Mask:  0xFFFFFFFF,
		},
	})
	if err != nil {
		return fmt.Errorf("gpu: create intensity pipeline: %w", err)
	}
	r.intensityPipeline = intensityPipeline

	// --- Colorize pipeline ---
	//
	// Uniform buffer + intensity texture + palette texture + sampler.
	// Each fragment is written once onto the cleared target, so the
	// shader's straight-alpha output is stored as-is.
	colorizeLayout, err := r.device.CreateBindGroupLayout(&hal.BindGroupLayoutDescriptor{
		Label: "heat_colorize_layout",
		Entries: []gputypes.BindGroupLayoutEntry{
			{
				Binding:    0,
				Visibility: gputypes.ShaderStageFragment,
				Buffer:     &gputypes.BufferBindingLayout{Type: gputypes.BufferBindingTypeUniform},
			},
			{
				Binding:    1,
				Visibility: gputypes.ShaderStageFragment,
				Texture: &gputypes.TextureBindingLayout{
					SampleType:    gputypes.TextureSampleTypeFloat,
					ViewDimension: gputypes.TextureViewDimension2D,
				},
			},
			{
				Binding:    2,
				Visibility: gputypes.ShaderStageFragment,
				Texture: &gputypes.TextureBindingLayout{
					SampleType:    gputypes.TextureSampleTypeFloat,
					ViewDimension: gputypes.TextureViewDimension2D,
				},
			},
			{
				Binding:    3,
				Visibility: gputypes.ShaderStageFragment,
				Sampler:    &gputypes.SamplerBindingLayout{Type: gputypes.SamplerBindingTypeFiltering},
			},
		},
	})
	if err != nil {
		return fmt.Errorf("gpu: create colorize bind group layout: %w", err)
	}
	r.colorizeLayout = colorizeLayout

	colorizePipeLayout, err := r.device.CreatePipelineLayout(&hal.PipelineLayoutDescriptor{
		Label:            "heat_colorize_pipe_layout",
		BindGroupLayouts: []hal.BindGroupLayout{r.colorizeLayout},
	})
	if err != nil {
		return fmt.Errorf("gpu: create colorize pipeline layout: %w", err)
	}
	r.colorizePipeLayout = colorizePipeLayout

	sampler, err := r.device.CreateSampler(&hal.SamplerDescriptor{
		Label:        "heat_sampler",
		AddressModeU: gputypes.AddressModeClampToEdge,
		AddressModeV: gputypes.AddressModeClampToEdge,
		AddressModeW: gputypes.AddressModeClampToEdge,
		MagFilter:    gputypes.FilterModeLinear,
		MinFilter:    gputypes.FilterModeLinear,
		MipmapFilter: gputypes.FilterModeNearest,
	})
	if err != nil {
		return fmt.Errorf("gpu: create sampler: %w", err)
	}
	r.sampler = sampler

	premulBlend := gputypes.BlendStatePremultiplied()
	colorizePipeline, err := r.device.CreateRenderPipeline(&hal.RenderPipelineDescriptor{
		Label:  "heat_colorize_pipeline",
		Layout: r.colorizePipeLayout,
		Vertex: hal.VertexState{
			Module:     r.colorizeShader,
			EntryPoint: "vs_main",
			Buffers: []gputypes.VertexBufferLayout{
				{
					ArrayStride: 8,
					StepMode:    gputypes.VertexStepModeVertex,
					Attributes: []gputypes.VertexAttribute{
						{Format: gputypes.VertexFormatFloat32x2, Offset: 0, ShaderLocation: 0},
					},
				},
			},
		},
		Fragment: &hal.FragmentState{
			Module:     r.colorizeShader,
			EntryPoint: "fs_main",
			Targets: []gputypes.ColorTargetState{
				{
					Format:    gputypes.TextureFormatRGBA8Unorm,
					Blend:     &premulBlend,
					WriteMask: gputypes.ColorWriteMaskAll,
				},
			},
		},
		Primitive: gputypes.PrimitiveState{
			Topology: gputypes.PrimitiveTopologyTriangleList,
			CullMode: gputypes.CullModeNone,
		},
		Multisample: gputypes.MultisampleState{
			Count: 1,
			Mask:  0xFFFFFFFF,
		},
	})
	if err != nil {
		return fmt.Errorf("gpu: create colorize pipeline: %w", err)
	}
	r.colorizePipeline = colorizePipeline

	return r.createStaticBuffers()
}

// createStaticBuffers builds the persistent uniform buffers, the
// full-screen triangle vertex buffer, and both bind groups.
func (r *Renderer) createStaticBuffers() error {
	viewportData := make([]byte, uniformSize)
	binary.LittleEndian.PutUint32(viewportData[0:4], math.Float32bits(float32(r.width)))
	binary.LittleEndian.PutUint32(viewportData[4:8], math.Float32bits(float32(r.height)))

	viewportBuf, err := r.createAndUploadBuffer("heat_viewport_uniform", viewportData,
		gputypes.BufferUsageUniform|gputypes.BufferUsageCopyDst)
	if err != nil {
		return err
	}
	r.viewportBuf = viewportBuf

	colorizeBuf, err := r.createAndUploadBuffer("heat_colorize_uniform", r.colorizeUniform(),
		gputypes.BufferUsageUniform|gputypes.BufferUsageCopyDst)
	if err != nil {
		return err
	}
	r.colorizeBuf = colorizeBuf

	// Full-screen triangle in clip space: covers the whole viewport
	// with a single primitive.
	tri := []float32{-1, -1, 3, -1, -1, 3}
	triData := make([]byte, len(tri)*4)
	for i, v := range tri {
		binary.LittleEndian.PutUint32(triData[i*4:], math.Float32bits(v))
	}
	screenTriBuf, err := r.createAndUploadBuffer("heat_screen_tri", triData,
		gputypes.BufferUsageVertex|gputypes.BufferUsageCopyDst)
	if err != nil {
		return err
	}
	r.screenTriBuf = screenTriBuf

	intensityBind, err := r.device.CreateBindGroup(&hal.BindGroupDescriptor{
		Label:  "heat_intensity_bind",
		Layout: r.intensityLayout,
		Entries: []gputypes.BindGroupEntry{
			{Binding: 0, Resource: gputypes.BufferBinding{
				Buffer: r.viewportBuf.NativeHandle(), Offset: 0, Size: uniformSize,
			}},
		},
	})
	if err != nil {
		return fmt.Errorf("gpu: create intensity bind group: %w", err)
	}
	r.intensityBind = intensityBind

	colorizeBind, err := r.device.CreateBindGroup(&hal.BindGroupDescriptor{
		Label:  "heat_colorize_bind",
		Layout: r.colorizeLayout,
		Entries: []gputypes.BindGroupEntry{
			{Binding: 0, Resource: gputypes.BufferBinding{
				Buffer: r.colorizeBuf.NativeHandle(), Offset: 0, Size: uniformSize,
			}},
			{Binding: 1, Resource: gputypes.TextureViewBinding{
				TextureView: r.intensityView.NativeHandle(),
			}},
			{Binding: 2, Resource: gputypes.TextureViewBinding{
				TextureView: r.paletteView.NativeHandle(),
			}},
			{Binding: 3, Resource: gputypes.SamplerBinding{
				Sampler: r.sampler.NativeHandle(),
			}},
		},
	})
	if err != nil {
		return fmt.Errorf("gpu: create colorize bind group: %w", err)
	}
	r.colorizeBind = colorizeBind

	return nil
}

// colorizeUniform packs the opacity ramp bounds and discard threshold.
func (r *Renderer) colorizeUniform() []byte {
	buf := make([]byte, uniformSize)
	binary.LittleEndian.PutUint32(buf[0:4], math.Float32bits(r.minOpacity))
	binary.LittleEndian.PutUint32(buf[4:8], math.Float32bits(r.maxOpacity))
	binary.LittleEndian.PutUint32(buf[8:12], math.Float32bits(intensityThreshold))
	return buf
}

// createAndUploadBuffer creates a GPU buffer and uploads data.
func (r *Renderer) createAndUploadBuffer(label string, data []byte, usage gputypes.BufferUsage) (hal.Buffer, error) {
	buf, err := r.device.CreateBuffer(&hal.BufferDescriptor{
		Label: label,
		Size:  uint64(len(data)),
		Usage: usage,
	})
	if err != nil {
		return nil, fmt.Errorf("gpu: create %s: %w", label, err)
	}
	r.queue.WriteBuffer(buf, 0, data)
	return buf, nil
}

// intensityVertexLayout returns the vertex buffer layout for the
// intensity pass.
func intensityVertexLayout() []gputypes.VertexBufferLayout {
	return []gputypes.VertexBufferLayout{
		{
			ArrayStride: intensityVertexStride,
			StepMode:    gputypes.VertexStepModeVertex,
			Attributes: []gputypes.VertexAttribute{
				{Format: gputypes.VertexFormatFloat32x2, Offset: 0, ShaderLocation: 0},  // position
				{Format: gputypes.VertexFormatFloat32x2, Offset: 8, ShaderLocation: 1},  // local
				{Format: gputypes.VertexFormatFloat32, Offset: 16, ShaderLocation: 2},   // radius
				{Format: gputypes.VertexFormatFloat32, Offset: 20, ShaderLocation: 3},   // inner
				{Format: gputypes.VertexFormatFloat32, Offset: 24, ShaderLocation: 4},   // intensity
			},
		},
	}
}
