package clusterlight

import (
	"math"
	"unsafe"
)

// textureWidthForGPU selects the packer's 2D texture width tier from the
// GPU's maximum texture dimension (maxDim), mirroring the format/size
// table lookup idiom in wgpuBytesPerPixel (mod_client_helpers.go).
func textureWidthForGPU(maxDim int) int {
	switch {
	case maxDim >= 16384:
		return 2048
	case maxDim >= 8192:
		return 1024
	default:
		return 512
	}
}

// encodePointPacked folds (decay, visible, lod) into the single float
// the point record's second texel carries in its alpha channel. Bit-exact
// contract: packed = decay*100 + (visible?10:0) + lod.
func encodePointPacked(decay float32, visible bool, lod LOD) float32 {
	v := float32(0)
	if visible {
		v = 10
	}
	return decay*100 + v + float32(lod)
}

// decodePointPacked inverts encodePointPacked. The fragment-shader side
// decodes visible/lod with floor(packed*0.1) and mod(packed,10)
// respectively; decay recovers via floor(packed*0.01) -- the worked
// examples (packed=213 -> decay=2.0) are the authoritative contract here,
// not a literal transcription of every decimal place in the formula.
func decodePointPacked(packed float32) (decay float32, visible bool, lod LOD) {
	decay = float32(math.Floor(float64(packed) * 0.01))
	visBit := math.Mod(math.Floor(float64(packed)*0.1), 2)
	visible = visBit != 0
	lod = LOD(int(math.Mod(float64(packed), 10)))
	return
}

// encodeVisLOD folds (visible, lod) into the spot/rect packedVisLOD term:
// packed = (visible?10:0) + lod.
func encodeVisLOD(visible bool, lod LOD) float32 {
	v := float32(0)
	if visible {
		v = 10
	}
	return v + float32(lod)
}

func decodeVisLOD(packed float32) (visible bool, lod LOD) {
	visible = math.Floor(float64(packed)*0.1) != 0
	lod = LOD(int(math.Mod(float64(packed), 10)))
	return
}

// clampDecay enforces the [0,3) bound the packed encoding requires to
// stay collision-free with the visible/lod terms -- decay*100 must
// never reach the range the visible/lod bits occupy.
func clampDecay(decay float32) float32 {
	if decay < 0 {
		return 0
	}
	if decay >= 3 {
		return 2.999
	}
	return decay
}

const floatsPerTexel = 4

// PackedTextures holds the packer's three flat, row-major RGBA32F
// buffers plus the dirty/"needs upload" flag the host checks once per
// frame before re-uploading to the GPU.
type PackedTextures struct {
	Width int

	Point []float32 // pointCount * 2 texels * 4 floats
	Spot  []float32 // spotCount * 4 texels * 4 floats
	Rect  []float32 // rectCount * 5 texels * 4 floats

	NeedsUpload bool
}

// TexturePacker owns the packed buffers and reallocates them only when
// light counts change, so a steady-state scene packs every frame
// without touching the allocator.
type TexturePacker struct {
	widthTier int

	lastPointN, lastSpotN, lastRectN int
	textures                         PackedTextures
}

func NewTexturePacker(maxTextureDimension int) *TexturePacker {
	return &TexturePacker{widthTier: textureWidthForGPU(maxTextureDimension)}
}

// Pack rewrites the three packed buffers from the store's current
// (post-animation, post-view-transform) light state. It reallocates a
// buffer only when that kind's light count has changed since the last
// call; otherwise it refreshes the existing buffer in place and leaves
// NeedsUpload set so the host knows to re-upload this frame regardless,
// since the content can change even when the count doesn't.
func (tp *TexturePacker) Pack(s *LightStore) *PackedTextures {
	np, ns, nr := len(s.points), len(s.spots), len(s.rects)

	if np != tp.lastPointN {
		tp.textures.Point = make([]float32, np*2*floatsPerTexel)
		tp.lastPointN = np
	}
	if ns != tp.lastSpotN {
		tp.textures.Spot = make([]float32, ns*4*floatsPerTexel)
		tp.lastSpotN = ns
	}
	if nr != tp.lastRectN {
		tp.textures.Rect = make([]float32, nr*5*floatsPerTexel)
		tp.lastRectN = nr
	}

	for i := range s.points {
		packPointRecord(&s.points[i], tp.textures.Point[i*2*floatsPerTexel:])
	}
	for i := range s.spots {
		packSpotRecord(&s.spots[i], tp.textures.Spot[i*4*floatsPerTexel:])
	}
	for i := range s.rects {
		packRectRecord(&s.rects[i], tp.textures.Rect[i*5*floatsPerTexel:])
	}

	tp.textures.Width = tp.widthTier
	tp.textures.NeedsUpload = true
	return &tp.textures
}

func packPointRecord(l *pointLight, out []float32) {
	decay := clampDecay(l.decay)
	packed := encodePointPacked(decay, l.visible, l.lod)

	// Texel 0: viewPos.xyz, radius
	out[0], out[1], out[2], out[3] = l.viewPos.X(), l.viewPos.Y(), l.viewPos.Z(), l.currentRadius
	// Texel 1: color*intensity.rgb, packed
	out[4] = l.color.X() * l.currentIntensity
	out[5] = l.color.Y() * l.currentIntensity
	out[6] = l.color.Z() * l.currentIntensity
	out[7] = packed
}

func packSpotRecord(l *spotLight, out []float32) {
	decay := clampDecay(l.decay)
	cosAngle := float32(math.Cos(float64(l.coneHalf)))
	cosPenumbra := float32(math.Cos(float64(l.coneHalf * (1 - l.penumbra))))
	packed := encodeVisLOD(l.visible, l.lod)

	out[0], out[1], out[2], out[3] = l.viewPos.X(), l.viewPos.Y(), l.viewPos.Z(), l.currentRadius
	out[4] = l.color.X() * l.currentIntensity
	out[5] = l.color.Y() * l.currentIntensity
	out[6] = l.color.Z() * l.currentIntensity
	out[7] = 0
	out[8], out[9], out[10] = l.viewDir.X(), l.viewDir.Y(), l.viewDir.Z()
	out[11] = 0
	out[12], out[13], out[14], out[15] = cosAngle, cosPenumbra, decay, packed
}

func packRectRecord(l *rectLight, out []float32) {
	decay := clampDecay(l.decay)
	packed := encodeVisLOD(l.visible, l.lod)

	out[0], out[1], out[2], out[3] = l.viewPos.X(), l.viewPos.Y(), l.viewPos.Z(), l.currentRadius
	out[4] = l.color.X() * l.currentIntensity
	out[5] = l.color.Y() * l.currentIntensity
	out[6] = l.color.Z() * l.currentIntensity
	out[7] = 0
	out[8], out[9], out[10], out[11] = l.width, l.height, decay, packed
	out[12], out[13], out[14] = l.viewNorm.X(), l.viewNorm.Y(), l.viewNorm.Z()
	out[15] = 0
	out[16], out[17], out[18] = l.viewTan.X(), l.viewTan.Y(), l.viewTan.Z()
	out[19] = 0
}

// Bytes reinterprets a packed float32 buffer as a byte slice without
// copying, for zero-copy upload when the destination accepts raw bytes
// and the source is suitably aligned and exactly the expected size --
// mirrors untypedSliceToWgpuBytes (mod_client_helpers.go). Callers that
// need a stable, engine-owned-independent copy should clone the result.
func Bytes(buf []float32) []byte {
	if len(buf) == 0 {
		return nil
	}
	return unsafe.Slice((*byte)(unsafe.Pointer(&buf[0])), len(buf)*4)
}
