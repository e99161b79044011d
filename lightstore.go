package clusterlight

import (
	"fmt"
	"unsafe"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/google/uuid"
)

// PointParams describes a point light at add time. Position, Color and
// Intensity become the light's canonical base state.
type PointParams struct {
	Position  mgl32.Vec3
	Radius    float32
	Color     mgl32.Vec3
	Intensity float32
	Decay     float32
	Visible   bool
	Anim      AnimDescriptor
}

type SpotParams struct {
	Position      mgl32.Vec3
	Radius        float32
	Direction     mgl32.Vec3 // need not be pre-normalized; Add normalizes it
	ConeHalfAngle float32
	Penumbra      float32
	Color         mgl32.Vec3
	Intensity     float32
	Decay         float32
	Visible       bool
	Anim          AnimDescriptor
}

type RectParams struct {
	Position  mgl32.Vec3
	Radius    float32
	Width     float32
	Height    float32
	Normal    mgl32.Vec3 // need not be pre-normalized
	Color     mgl32.Vec3
	Intensity float32
	Decay     float32
	Visible   bool
	Anim      AnimDescriptor
}

type lightRef struct {
	kind  LightKind
	index int32
}

// LightStore owns every light record. Three fixed-capacity
// Struct-of-Arrays hold point/spot/rect lights (the same SoA layout as
// particles_ecs.go's particlePool); three matching scratch arrays back
// the permutation each radix sort writes into. Mutation is never
// concurrent -- the host's render loop serializes every call.
type LightStore struct {
	logger    Logger
	maxLights int

	points []pointLight
	spots  []spotLight
	rects  []rectLight

	pointsScratch []pointLight
	spotsScratch  []spotLight
	rectsScratch  []rectLight

	pointIDs []LightID
	spotIDs  []LightID
	rectIDs  []LightID

	permScratch []int32

	idIndex map[LightID]lightRef

	needsSort    bool
	deferSorting bool
	hasAnimated  bool
}

// estimatedLightStoreBytes gives a rough per-light-slot memory estimate
// (primary + scratch array slot + id) used by NewLightStore's capacity check.
func estimatedLightStoreBytes(maxLights int) int64 {
	perPoint := int64(unsafe.Sizeof(pointLight{}))*2 + int64(unsafe.Sizeof(LightID{}))
	perSpot := int64(unsafe.Sizeof(spotLight{}))*2 + int64(unsafe.Sizeof(LightID{}))
	perRect := int64(unsafe.Sizeof(rectLight{}))*2 + int64(unsafe.Sizeof(LightID{}))
	// Worst case: all maxLights lights are the largest variant (rect).
	biggest := perPoint
	if perSpot > biggest {
		biggest = perSpot
	}
	if perRect > biggest {
		biggest = perRect
	}
	return biggest * int64(maxLights)
}

// NewLightStore allocates the fixed-size arrays for a session. It fails
// with ErrCapacity if the estimated footprint would exceed
// cfg.MaxMemoryBytes (0 disables the check).
func NewLightStore(cfg EngineConfig) (*LightStore, error) {
	if cfg.MaxLights <= 0 {
		return nil, fmt.Errorf("%w: MaxLights must be positive", ErrInvalidArgument)
	}
	if cfg.MaxMemoryBytes > 0 {
		if need := estimatedLightStoreBytes(cfg.MaxLights); need > cfg.MaxMemoryBytes {
			return nil, fmt.Errorf("%w: light store would need ~%d bytes, cap is %d", ErrCapacity, need, cfg.MaxMemoryBytes)
		}
	}

	logger := cfg.Logger
	if logger == nil {
		logger = NewNopLogger()
	}

	return &LightStore{
		logger:        logger,
		maxLights:     cfg.MaxLights,
		points:        make([]pointLight, 0, cfg.MaxLights),
		spots:         make([]spotLight, 0, cfg.MaxLights),
		rects:         make([]rectLight, 0, cfg.MaxLights),
		pointsScratch: make([]pointLight, cfg.MaxLights),
		spotsScratch:  make([]spotLight, cfg.MaxLights),
		rectsScratch:  make([]rectLight, cfg.MaxLights),
		pointIDs:      make([]LightID, 0, cfg.MaxLights),
		spotIDs:       make([]LightID, 0, cfg.MaxLights),
		rectIDs:       make([]LightID, 0, cfg.MaxLights),
		permScratch:   make([]int32, cfg.MaxLights),
		idIndex:       make(map[LightID]lightRef, cfg.MaxLights),
	}, nil
}

func (s *LightStore) totalLights() int {
	return len(s.points) + len(s.spots) + len(s.rects)
}

func (s *LightStore) remainingCapacity() int {
	return s.maxLights - s.totalLights()
}

func newLightID() LightID { return LightID(uuid.New()) }

// AddPoint appends a point light, returning its stable id. Returns
// ErrCapacity (and the zero id) once pointLightCount+spotLightCount+
// rectLightCount would exceed maxLights -- capacity is shared across
// all three kinds, not budgeted per kind.
func (s *LightStore) AddPoint(p PointParams) (LightID, error) {
	if s.remainingCapacity() <= 0 {
		return NilLightID, ErrCapacity
	}

	l := pointLight{
		basePos:   p.Position,
		radius:    p.Radius,
		color:     p.Color,
		intensity: p.Intensity,
		decay:     p.Decay,
		visible:   p.Visible,
		anim:      p.Anim,
		mortonKey: mortonCode(p.Position.X(), p.Position.Z()),
		dirty:     DirtyAll,
	}
	id := newLightID()
	s.points = append(s.points, l)
	s.pointIDs = append(s.pointIDs, id)
	s.idIndex[id] = lightRef{kind: KindPoint, index: int32(len(s.points) - 1)}

	s.needsSort = true
	if p.Anim.Flags != 0 {
		s.hasAnimated = true
	}
	return id, nil
}

func (s *LightStore) AddSpot(p SpotParams) (LightID, error) {
	if s.remainingCapacity() <= 0 {
		return NilLightID, ErrCapacity
	}

	dir := p.Direction
	if dir.Len() > 0 {
		dir = dir.Normalize()
	} else {
		dir = mgl32.Vec3{0, -1, 0}
	}

	l := spotLight{
		basePos:   p.Position,
		radius:    p.Radius,
		baseDir:   dir,
		coneHalf:  p.ConeHalfAngle,
		penumbra:  p.Penumbra,
		color:     p.Color,
		intensity: p.Intensity,
		decay:     p.Decay,
		visible:   p.Visible,
		anim:      p.Anim,
		mortonKey: mortonCode(p.Position.X(), p.Position.Z()),
		dirty:     DirtyAll,
	}
	id := newLightID()
	s.spots = append(s.spots, l)
	s.spotIDs = append(s.spotIDs, id)
	s.idIndex[id] = lightRef{kind: KindSpot, index: int32(len(s.spots) - 1)}

	s.needsSort = true
	if p.Anim.Flags != 0 {
		s.hasAnimated = true
	}
	return id, nil
}

func (s *LightStore) AddRect(p RectParams) (LightID, error) {
	if s.remainingCapacity() <= 0 {
		return NilLightID, ErrCapacity
	}

	norm := p.Normal
	if norm.Len() > 0 {
		norm = norm.Normalize()
	} else {
		norm = mgl32.Vec3{0, -1, 0}
	}
	tan, bitan := orthonormalFrame(norm)

	l := rectLight{
		basePos:   p.Position,
		radius:    p.Radius,
		width:     p.Width,
		height:    p.Height,
		baseNorm:  norm,
		baseTan:   tan,
		baseBitan: bitan,
		color:     p.Color,
		intensity: p.Intensity,
		decay:     p.Decay,
		visible:   p.Visible,
		anim:      p.Anim,
		mortonKey: mortonCode(p.Position.X(), p.Position.Z()),
		dirty:     DirtyAll,
	}
	id := newLightID()
	s.rects = append(s.rects, l)
	s.rectIDs = append(s.rectIDs, id)
	s.idIndex[id] = lightRef{kind: KindRect, index: int32(len(s.rects) - 1)}

	s.needsSort = true
	if p.Anim.Flags != 0 {
		s.hasAnimated = true
	}
	return id, nil
}

// BulkAddPoints appends as many of points as fit in remaining capacity,
// in one call, skipping the per-light add overhead of N separate calls.
// It returns the ids actually assigned and sets needsSort once, not per
// light.
func (s *LightStore) BulkAddPoints(points []PointParams) ([]LightID, int) {
	n := len(points)
	if rem := s.remainingCapacity(); n > rem {
		n = rem
	}
	if n <= 0 {
		return nil, 0
	}

	ids := make([]LightID, n)
	for i := 0; i < n; i++ {
		p := points[i]
		l := pointLight{
			basePos:   p.Position,
			radius:    p.Radius,
			color:     p.Color,
			intensity: p.Intensity,
			decay:     p.Decay,
			visible:   p.Visible,
			anim:      p.Anim,
			mortonKey: mortonCode(p.Position.X(), p.Position.Z()),
			dirty:     DirtyAll,
		}
		id := newLightID()
		s.points = append(s.points, l)
		s.pointIDs = append(s.pointIDs, id)
		s.idIndex[id] = lightRef{kind: KindPoint, index: int32(len(s.points) - 1)}
		ids[i] = id
		if p.Anim.Flags != 0 {
			s.hasAnimated = true
		}
	}

	if n > 0 {
		s.needsSort = true
	}
	return ids, n
}

// BulkMixedLight tags a single bulk-add entry with its kind, letting a
// scene description interleave point/spot/rect lights in one flat
// slice instead of three separate bulk calls.
type BulkMixedLight struct {
	Kind  LightKind
	Point PointParams
	Spot  SpotParams
	Rect  RectParams
}

// BulkAddMixed appends a sequence of differently-kinded lights in one
// call, clamped to remaining capacity and returning the number appended.
func (s *LightStore) BulkAddMixed(lights []BulkMixedLight) ([]LightID, int) {
	ids := make([]LightID, 0, len(lights))
	appended := 0
	for _, entry := range lights {
		var (
			id  LightID
			err error
		)
		switch entry.Kind {
		case KindPoint:
			id, err = s.AddPoint(entry.Point)
		case KindSpot:
			id, err = s.AddSpot(entry.Spot)
		case KindRect:
			id, err = s.AddRect(entry.Rect)
		default:
			continue
		}
		if err != nil {
			break // out of capacity; stop, matching the bulk-add clamp contract
		}
		ids = append(ids, id)
		appended++
	}
	return ids, appended
}

// Remove deletes a light by its global id via tail-shift compaction
// within its type's array, then fixes up the id->index mapping for
// whichever light was moved into the vacated slot. An unknown id is a
// no-op, logged at warn level rather than treated as an error.
func (s *LightStore) Remove(id LightID) {
	ref, ok := s.idIndex[id]
	if !ok {
		s.logger.Warnf("clusterlight: Remove called with unknown light id %v", uuid.UUID(id))
		return
	}

	var hadAnim bool
	switch ref.kind {
	case KindPoint:
		hadAnim = s.points[ref.index].anim.Flags != 0
		s.removePointAt(ref.index)
	case KindSpot:
		hadAnim = s.spots[ref.index].anim.Flags != 0
		s.removeSpotAt(ref.index)
	case KindRect:
		hadAnim = s.rects[ref.index].anim.Flags != 0
		s.removeRectAt(ref.index)
	}
	delete(s.idIndex, id)
	s.needsSort = true

	if hadAnim {
		s.rescanHasAnimated()
	}
}

func (s *LightStore) removePointAt(index int32) {
	last := int32(len(s.points) - 1)
	if index != last {
		s.points[index] = s.points[last]
		s.pointIDs[index] = s.pointIDs[last]
		s.idIndex[s.pointIDs[index]] = lightRef{kind: KindPoint, index: index}
	}
	s.points = s.points[:last]
	s.pointIDs = s.pointIDs[:last]
}

func (s *LightStore) removeSpotAt(index int32) {
	last := int32(len(s.spots) - 1)
	if index != last {
		s.spots[index] = s.spots[last]
		s.spotIDs[index] = s.spotIDs[last]
		s.idIndex[s.spotIDs[index]] = lightRef{kind: KindSpot, index: index}
	}
	s.spots = s.spots[:last]
	s.spotIDs = s.spotIDs[:last]
}

func (s *LightStore) removeRectAt(index int32) {
	last := int32(len(s.rects) - 1)
	if index != last {
		s.rects[index] = s.rects[last]
		s.rectIDs[index] = s.rectIDs[last]
		s.idIndex[s.rectIDs[index]] = lightRef{kind: KindRect, index: index}
	}
	s.rects = s.rects[:last]
	s.rectIDs = s.rectIDs[:last]
}

func (s *LightStore) rescanHasAnimated() {
	for i := range s.points {
		if s.points[i].anim.Flags != 0 {
			s.hasAnimated = true
			return
		}
	}
	for i := range s.spots {
		if s.spots[i].anim.Flags != 0 {
			s.hasAnimated = true
			return
		}
	}
	for i := range s.rects {
		if s.rects[i].anim.Flags != 0 {
			s.hasAnimated = true
			return
		}
	}
	s.hasAnimated = false
}

// SetDeferSorting lets a host batch many add/update calls and sort once
// before the next frame, rather than on every mutating call. There is no
// coroutine behind this: it is a single flag consulted by Sort.
func (s *LightStore) SetDeferSorting(defer_ bool) { s.deferSorting = defer_ }

// SetPosition mutates a light's base position, which re-derives its
// Morton code and requests a sort. An unknown id is a no-op (logged).
func (s *LightStore) SetPosition(id LightID, pos mgl32.Vec3) {
	ref, ok := s.idIndex[id]
	if !ok {
		s.logger.Warnf("clusterlight: SetPosition called with unknown light id %v", uuid.UUID(id))
		return
	}
	switch ref.kind {
	case KindPoint:
		l := &s.points[ref.index]
		l.basePos = pos
		l.mortonKey = mortonCode(pos.X(), pos.Z())
		l.dirty |= DirtyPosition
	case KindSpot:
		l := &s.spots[ref.index]
		l.basePos = pos
		l.mortonKey = mortonCode(pos.X(), pos.Z())
		l.dirty |= DirtyPosition
	case KindRect:
		l := &s.rects[ref.index]
		l.basePos = pos
		l.mortonKey = mortonCode(pos.X(), pos.Z())
		l.dirty |= DirtyPosition
	}
	s.needsSort = true
}

// SetColor mutates base color and intensity (the packer multiplies the
// animated intensity into the packed rgb). Does not affect sort order.
func (s *LightStore) SetColor(id LightID, color mgl32.Vec3, intensity float32) {
	ref, ok := s.idIndex[id]
	if !ok {
		s.logger.Warnf("clusterlight: SetColor called with unknown light id %v", uuid.UUID(id))
		return
	}
	switch ref.kind {
	case KindPoint:
		l := &s.points[ref.index]
		l.color, l.intensity = color, intensity
		l.dirty |= DirtyColor
	case KindSpot:
		l := &s.spots[ref.index]
		l.color, l.intensity = color, intensity
		l.dirty |= DirtyColor
	case KindRect:
		l := &s.rects[ref.index]
		l.color, l.intensity = color, intensity
		l.dirty |= DirtyColor
	}
}

// SetAnimation replaces a light's animation descriptor wholesale.
func (s *LightStore) SetAnimation(id LightID, anim AnimDescriptor) {
	ref, ok := s.idIndex[id]
	if !ok {
		s.logger.Warnf("clusterlight: SetAnimation called with unknown light id %v", uuid.UUID(id))
		return
	}
	switch ref.kind {
	case KindPoint:
		s.points[ref.index].anim = anim
		s.points[ref.index].dirty |= DirtyParams
	case KindSpot:
		s.spots[ref.index].anim = anim
		s.spots[ref.index].dirty |= DirtyParams
	case KindRect:
		s.rects[ref.index].anim = anim
		s.rects[ref.index].dirty |= DirtyParams
	}
	if anim.Flags != 0 {
		s.hasAnimated = true
	} else {
		s.rescanHasAnimated()
	}
}

// SetVisible toggles a light's visibility flag, folded into the packed
// parameter float the texture packer writes.
func (s *LightStore) SetVisible(id LightID, visible bool) {
	ref, ok := s.idIndex[id]
	if !ok {
		s.logger.Warnf("clusterlight: SetVisible called with unknown light id %v", uuid.UUID(id))
		return
	}
	switch ref.kind {
	case KindPoint:
		s.points[ref.index].visible = visible
	case KindSpot:
		s.spots[ref.index].visible = visible
	case KindRect:
		s.rects[ref.index].visible = visible
	}
}

// Sort runs the LSD radix sort over each type's array when needsSort is
// set, total light count is >= 3, and the host hasn't deferred sorting.
// Sorting is skipped for <=2 lights: there's no locality to gain, and
// it would otherwise perturb addressing stability in tests/tiny scenes
// for no benefit.
func (s *LightStore) Sort() {
	if s.deferSorting || !s.needsSort {
		return
	}
	if s.totalLights() < 3 {
		s.needsSort = false
		return
	}

	sortPoints(s)
	sortSpots(s)
	sortRects(s)

	s.needsSort = false
}

func sortPoints(s *LightStore) {
	n := len(s.points)
	if n == 0 {
		return
	}
	idx := s.permScratch[:n]
	keys := make([]uint32, n)
	for i := range idx {
		idx[i] = int32(i)
		keys[i] = s.points[i].mortonKey
	}
	scratchIdx := make([]int32, n)
	radixSortMortonLSD(idx, keys, scratchIdx)

	scratch := s.pointsScratch[:n]
	for i, from := range idx {
		scratch[i] = s.points[from]
	}
	copy(s.points, scratch)

	scratchIDs := make([]LightID, n)
	for i, from := range idx {
		scratchIDs[i] = s.pointIDs[from]
	}
	copy(s.pointIDs, scratchIDs)

	for i, id := range s.pointIDs {
		s.idIndex[id] = lightRef{kind: KindPoint, index: int32(i)}
	}
}

func sortSpots(s *LightStore) {
	n := len(s.spots)
	if n == 0 {
		return
	}
	idx := s.permScratch[:n]
	keys := make([]uint32, n)
	for i := range idx {
		idx[i] = int32(i)
		keys[i] = s.spots[i].mortonKey
	}
	scratchIdx := make([]int32, n)
	radixSortMortonLSD(idx, keys, scratchIdx)

	scratch := s.spotsScratch[:n]
	for i, from := range idx {
		scratch[i] = s.spots[from]
	}
	copy(s.spots, scratch)

	scratchIDs := make([]LightID, n)
	for i, from := range idx {
		scratchIDs[i] = s.spotIDs[from]
	}
	copy(s.spotIDs, scratchIDs)

	for i, id := range s.spotIDs {
		s.idIndex[id] = lightRef{kind: KindSpot, index: int32(i)}
	}
}

func sortRects(s *LightStore) {
	n := len(s.rects)
	if n == 0 {
		return
	}
	idx := s.permScratch[:n]
	keys := make([]uint32, n)
	for i := range idx {
		idx[i] = int32(i)
		keys[i] = s.rects[i].mortonKey
	}
	scratchIdx := make([]int32, n)
	radixSortMortonLSD(idx, keys, scratchIdx)

	scratch := s.rectsScratch[:n]
	for i, from := range idx {
		scratch[i] = s.rects[from]
	}
	copy(s.rects, scratch)

	scratchIDs := make([]LightID, n)
	for i, from := range idx {
		scratchIDs[i] = s.rectIDs[from]
	}
	copy(s.rectIDs, scratchIDs)

	for i, id := range s.rectIDs {
		s.idIndex[id] = lightRef{kind: KindRect, index: int32(i)}
	}
}

// Counts returns (point, spot, rect) light counts.
func (s *LightStore) Counts() (int, int, int) {
	return len(s.points), len(s.spots), len(s.rects)
}

// Lookup resolves a light id to its kind and current internal index, for
// tests and for components (the texture packer, view transform) that
// need direct array access without exporting the backing slices.
func (s *LightStore) Lookup(id LightID) (LightKind, int, bool) {
	ref, ok := s.idIndex[id]
	return ref.kind, int(ref.index), ok
}
