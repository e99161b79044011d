package clusterlight

import (
	"github.com/go-gl/mathgl/mgl32"
	"github.com/google/uuid"
)

// LightKind tags which of the three light variants a LightID refers to.
// Bulk-add APIs accept the same codes (0/1/2) so a mixed batch can be
// described as one flat kind-tagged slice instead of three separate ones.
type LightKind uint8

const (
	KindPoint LightKind = 0
	KindSpot  LightKind = 1
	KindRect  LightKind = 2
)

// LightID is the stable, globally-unique handle a host uses to mutate or
// remove a light; it never changes even though the engine may reorder
// its internal arrays during a Morton sort. Same approach as
// mod_assets.go's AssetId, which decouples a stable handle from
// internal slot reuse the same way.
type LightID uuid.UUID

var NilLightID LightID

// LOD is the shading-quality tier derived from view distance / radius.
// LOD 0 means "do not render."
type LOD uint8

const (
	LOD0Skip LOD = iota
	LOD1Simple
	LOD2Medium
	LOD3Full
)

// AnimKind is a bitmask over the six composable sub-animations. Multiple
// bits may be set; composition order is fixed (circular -> linear ->
// wave -> flicker -> pulse -> rotate) so stacking animations always
// produces the same result regardless of which flags a caller set first.
type AnimKind uint8

const (
	AnimCircular AnimKind = 1 << iota
	AnimLinear
	AnimWave
	AnimFlicker
	AnimPulse
	AnimRotate
)

type LinearMode uint8

const (
	LinearOnce LinearMode = iota
	LinearLoop
	LinearPingPong
)

// PulseTarget is a bitmask: Pulse can modulate intensity, radius, or both.
type PulseTarget uint8

const (
	PulseIntensity PulseTarget = 1 << iota
	PulseRadius
)

type RotateMode uint8

const (
	RotateContinuous RotateMode = iota
	RotateSwing
)

// CircularParams: Δ.x = sin(t*Speed)*Radius; Δ.z = cos(t*Speed)*Radius.
// Point lights only. Radius here is the orbit amplitude, a parameter of
// the circular animation itself -- independent of the light's own
// (culling/attenuation) radius field.
type CircularParams struct {
	Speed  float32
	Radius float32
}

// LinearParams interpolates from the light's base position toward Target
// over [Delay, Delay+Duration), with Mode governing what happens once
// t passes Delay+Duration (clamp, wrap, or reverse).
type LinearParams struct {
	Target   mgl32.Vec3
	Delay    float32
	Duration float32
	Mode     LinearMode
}

// WaveParams: Δ += Axis * sin(t*Speed+Phase) * Amplitude. Axis need not
// be unit length: the evaluator normalizes it before use.
type WaveParams struct {
	Axis      mgl32.Vec3
	Speed     float32
	Phase     float32
	Amplitude float32
}

type FlickerParams struct {
	Speed     float32
	Seed      float32
	Intensity float32
}

type PulseParams struct {
	Speed  float32
	Amount float32
	Target PulseTarget
}

// RotateParams spins a spot's direction or a rect's normal/tangent frame
// via Rodrigues' formula about Axis. When Orbit is true the light's
// current world position is also rotated about Axis (pivot at the
// world origin) -- this couples "orbit around origin" with "orientation
// spin", which existing scenes rely on; a host that wants
// orientation-only spin sets Orbit=false.
type RotateParams struct {
	Axis     mgl32.Vec3
	Speed    float32
	MaxAngle float32
	Mode     RotateMode
	Orbit    bool
}

// AnimDescriptor is the per-light animation state: a flags bitmask plus
// one fixed-size param struct per possible sub-animation. Using a fixed
// struct rather than per-light polymorphism keeps the Light Store's
// arrays flat (no interface boxing, no per-light heap allocation).
type AnimDescriptor struct {
	Flags    AnimKind
	Circular CircularParams
	Linear   LinearParams
	Wave     WaveParams
	Flicker  FlickerParams
	Pulse    PulseParams
	Rotate   RotateParams
}

func (a AnimKind) has(flag AnimKind) bool { return a&flag != 0 }

// pointLight is the Light Store's internal record for a point light.
// Base* fields are the canonical data animations read from and never
// write to, so evaluating the same time twice always yields the same
// current* state; current* fields are scratch, recomputed every Update.
type pointLight struct {
	basePos mgl32.Vec3
	radius  float32

	color     mgl32.Vec3
	intensity float32
	decay     float32
	visible   bool
	anim      AnimDescriptor

	currentPos       mgl32.Vec3
	currentRadius    float32
	currentIntensity float32
	viewPos          mgl32.Vec3
	lod              LOD
	culled           bool

	mortonKey uint32
	dirty     uint8
}

type spotLight struct {
	basePos   mgl32.Vec3
	radius    float32
	baseDir   mgl32.Vec3 // unit
	coneHalf  float32
	penumbra  float32
	color     mgl32.Vec3
	intensity float32
	decay     float32
	visible   bool
	anim      AnimDescriptor

	currentPos       mgl32.Vec3
	currentDir       mgl32.Vec3
	currentRadius    float32
	currentIntensity float32
	viewPos          mgl32.Vec3
	viewDir          mgl32.Vec3
	lod              LOD
	culled           bool

	mortonKey uint32
	dirty     uint8
}

type rectLight struct {
	basePos   mgl32.Vec3
	radius    float32
	width     float32
	height    float32
	baseNorm  mgl32.Vec3 // unit
	baseTan   mgl32.Vec3 // derived orthonormal frame
	baseBitan mgl32.Vec3
	color     mgl32.Vec3
	intensity float32
	decay     float32
	visible   bool
	anim      AnimDescriptor

	currentPos       mgl32.Vec3
	currentNorm      mgl32.Vec3
	currentTan       mgl32.Vec3
	currentBitan     mgl32.Vec3
	currentRadius    float32
	currentIntensity float32
	viewPos          mgl32.Vec3
	viewNorm         mgl32.Vec3
	viewTan          mgl32.Vec3
	lod              LOD
	culled           bool

	mortonKey uint32
	dirty     uint8
}

// Dirty bits are set when a light is added (DirtyAll) and by the
// position/color/animation mutators. Nothing in this package reads or
// clears them; the packer re-packs every light on every call.
const (
	DirtyPosition uint8 = 1 << 0
	DirtyColor    uint8 = 1 << 1
	DirtyParams   uint8 = 1 << 2
	DirtyAll      uint8 = DirtyPosition | DirtyColor | DirtyParams
)

// orthonormalFrame builds a tangent/bitangent pair from a unit normal,
// used when a Rect light is added so Update never has to re-derive the
// frame from scratch (only Rotate perturbs it afterward).
func orthonormalFrame(normal mgl32.Vec3) (tangent, bitangent mgl32.Vec3) {
	up := mgl32.Vec3{0, 1, 0}
	if abs32(normal.Y()) > 0.999 {
		up = mgl32.Vec3{1, 0, 0}
	}
	tangent = up.Cross(normal).Normalize()
	bitangent = normal.Cross(tangent).Normalize()
	return tangent, bitangent
}

func abs32(v float32) float32 {
	if v < 0 {
		return -v
	}
	return v
}
