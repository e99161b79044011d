package clusterlight

import (
	"github.com/cogentcore/webgpu/wgpu"

	"github.com/gekko3d/clusterlight/clustergpu"
)

// Engine is the single public surface a host embeds: light CRUD (via
// LightStore), per-frame update, texture/uniform accessors and material
// patching. It owns a LightStore and TexturePacker outright; the wgpu
// device is supplied by the host and the cluster-assignment GPU pipeline
// is built against it separately (AttachGPU), since -- like mod_flying_camera.go's
// App -- this package never creates its own device or window (camera
// controllers and friends stay host-side, not inside a rendering module).
type Engine struct {
	cfg    EngineConfig
	logger Logger
	store  *LightStore
	packer *TexturePacker
	grid   ClusterGrid

	gpu      *clustergpu.Pipeline
	lastGPUW int
	lastGPUH int

	AmbientColor [3]float32

	patched []*patchedMaterial
}

// NewEngine allocates the Light Store and Texture Packer per cfg.
// maxTextureDimension drives the packer's 2D-width tier selection; a
// host without a live device yet can pass a conservative default and
// re-create the engine once the real GPU limit is known.
func NewEngine(cfg EngineConfig, maxTextureDimension int) (*Engine, error) {
	store, err := NewLightStore(cfg)
	if err != nil {
		return nil, err
	}

	logger := cfg.Logger
	if logger == nil {
		logger = NewNopLogger()
	}
	cfg.MaxTileSpan = clampTileSpan(cfg.MaxTileSpan)

	e := &Engine{
		cfg:    cfg,
		logger: logger,
		store:  store,
		packer: NewTexturePacker(maxTextureDimension),
		grid:   LightCountClusterGrid(cfg, 0),
	}
	return e, nil
}

// Lights returns the engine's LightStore for add/remove/update calls.
func (e *Engine) Lights() *LightStore { return e.store }

// AttachGPU compiles the cluster-assignment compute pipelines against a
// host-supplied wgpu device. The engine never creates its own device
// (mirrors gpu_operations.go's App, which always receives a device
// rather than constructing one). Call once after the host has a live
// device; ResizeGPU must be called at least once afterward before the
// first GPU-backed frame.
func (e *Engine) AttachGPU(device *wgpu.Device) error {
	p, err := clustergpu.NewPipeline(device)
	if err != nil {
		return err
	}
	e.gpu = p
	return nil
}

// ResizeGPU (re)allocates the list/master/super-master render targets
// for the current cluster grid and light count, sized in texels. A
// host calls this once after AttachGPU and again whenever the light
// population changes the grid's Nw enough to change the master
// texture's row count or format tier (cfg.EnableSuperMaster gates the
// optional second reduction level).
func (e *Engine) ResizeGPU() error {
	if e.gpu == nil {
		return nil
	}
	total := e.store.totalLights()
	width, height := listTextureDimensions(e.grid, total)
	if width == e.lastGPUW && height == e.lastGPUH {
		return nil
	}
	format := MasterFormatForNw(computeNw(total))
	if err := e.gpu.Resize(width, height, wgpuTextureFormat(format), e.cfg.EnableSuperMaster); err != nil {
		return err
	}
	e.lastGPUW, e.lastGPUH = width, height
	return nil
}

// wgpuTextureFormat maps the engine's own MasterTextureFormat tag (kept
// free of a wgpu import so clusterparams.go stays standalone-testable)
// to the concrete wgpu enum the GPU pipeline needs.
func wgpuTextureFormat(f MasterTextureFormat) wgpu.TextureFormat {
	switch f {
	case MasterFormatR32UI:
		return wgpu.TextureFormatR32Uint
	case MasterFormatR16UI:
		return wgpu.TextureFormatR16Uint
	default:
		return wgpu.TextureFormatR8Uint
	}
}

// Update advances animation, view transform/LOD, and texture packing to
// time t (seconds) for the given camera. The order is load-bearing:
// sort (if due) before animate, so Morton locality reflects this
// frame's positions; animate before view transform, so LOD and culling
// see current* rather than stale state; view transform before pack, so
// the packed textures carry this frame's view-space depth and tier.
func (e *Engine) Update(t float64, cam Camera) {
	e.store.Sort()
	tf := float32(t)

	evaluateAllAnimations(e.store, tf)

	total := e.store.totalLights()
	e.grid = LightCountClusterGrid(e.cfg, total)

	e.store.UpdateViewState(cam, e.cfg.LODBias)
	e.packer.Pack(e.store)

	if err := e.ResizeGPU(); err != nil {
		e.logger.Errorf("clusterlight: resizing cluster GPU targets: %v", err)
	}
}

// evaluateAllAnimations recomputes current* fields for every light, in
// groups of 4 to keep the loop's memory access pattern predictable. Go
// has no portable 128-bit SIMD intrinsic, so "batch of 4" is an
// unrolled scalar loop rather than literal SIMD -- the result is
// identical to a one-at-a-time scalar loop either way.
func evaluateAllAnimations(s *LightStore, t float32) {
	n := len(s.points)
	i := 0
	for ; i+4 <= n; i += 4 {
		evaluatePointAnimation(&s.points[i], t)
		evaluatePointAnimation(&s.points[i+1], t)
		evaluatePointAnimation(&s.points[i+2], t)
		evaluatePointAnimation(&s.points[i+3], t)
	}
	for ; i < n; i++ {
		evaluatePointAnimation(&s.points[i], t)
	}

	n = len(s.spots)
	i = 0
	for ; i+4 <= n; i += 4 {
		evaluateSpotAnimation(&s.spots[i], t)
		evaluateSpotAnimation(&s.spots[i+1], t)
		evaluateSpotAnimation(&s.spots[i+2], t)
		evaluateSpotAnimation(&s.spots[i+3], t)
	}
	for ; i < n; i++ {
		evaluateSpotAnimation(&s.spots[i], t)
	}

	n = len(s.rects)
	i = 0
	for ; i+4 <= n; i += 4 {
		evaluateRectAnimation(&s.rects[i], t)
		evaluateRectAnimation(&s.rects[i+1], t)
		evaluateRectAnimation(&s.rects[i+2], t)
		evaluateRectAnimation(&s.rects[i+3], t)
	}
	for ; i < n; i++ {
		evaluateRectAnimation(&s.rects[i], t)
	}
}

// Textures returns the packer's current packed buffers, valid until the
// next Update call.
func (e *Engine) Textures() *PackedTextures { return &e.packer.textures }

// Grid returns the current cluster grid dimensions, recomputed each
// Update from the live light count.
func (e *Engine) Grid() ClusterGrid { return e.grid }

// Uniforms assembles the wire uniform block for the current frame,
// given the viewport size and camera near/far planes the cluster-params
// formula needs.
func (e *Engine) Uniforms(viewportW, viewportH int, near, far float32) UniformBlock {
	total := e.store.totalLights()
	np, ns, nr := e.store.Counts()
	return UniformBlock{
		ClusterParams: ComputeClusterParams(e.grid, viewportW, viewportH, near, far),
		SliceParams:   ComputeSliceParams(e.grid, total),
		LightCounts:   [4]int32{int32(np), int32(ns), int32(nr), 0},
		AmbientColor:  e.AmbientColor,
	}
}
