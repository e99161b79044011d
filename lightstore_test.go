package clusterlight

import (
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig(maxLights int) EngineConfig {
	cfg := DefaultEngineConfig()
	cfg.MaxLights = maxLights
	cfg.MaxMemoryBytes = 0
	return cfg
}

func TestNewLightStoreRejectsNonPositiveMaxLights(t *testing.T) {
	_, err := NewLightStore(testConfig(0))
	require.ErrorIs(t, err, ErrInvalidArgument)
}

func TestNewLightStoreRejectsOverCapacityMemoryBudget(t *testing.T) {
	cfg := testConfig(1_000_000)
	cfg.MaxMemoryBytes = 1
	_, err := NewLightStore(cfg)
	require.ErrorIs(t, err, ErrCapacity)
}

// TestAddPointReturnsCapacityErrorAtLimit verifies that capacity is
// shared across all three kinds, not budgeted per kind.
func TestAddPointReturnsCapacityErrorAtLimit(t *testing.T) {
	s, err := NewLightStore(testConfig(2))
	require.NoError(t, err)

	_, err = s.AddPoint(PointParams{})
	require.NoError(t, err)
	_, err = s.AddSpot(SpotParams{})
	require.NoError(t, err)

	_, err = s.AddRect(RectParams{})
	require.ErrorIs(t, err, ErrCapacity)

	p, s_, r := s.Counts()
	assert.Equal(t, 1, p)
	assert.Equal(t, 1, s_)
	assert.Equal(t, 0, r)
}

// TestRemoveIsTailShiftAndFixesUpIDIndex verifies removing a non-tail
// light must not invalidate the ids of the lights that remain.
func TestRemoveIsTailShiftAndFixesUpIDIndex(t *testing.T) {
	s, err := NewLightStore(testConfig(8))
	require.NoError(t, err)

	var ids []LightID
	for i := 0; i < 4; i++ {
		id, err := s.AddPoint(PointParams{Position: mgl32.Vec3{float32(i), 0, 0}})
		require.NoError(t, err)
		ids = append(ids, id)
	}

	s.Remove(ids[1])

	p, _, _ := s.Counts()
	assert.Equal(t, 3, p)

	for i, id := range ids {
		if i == 1 {
			_, _, ok := s.Lookup(id)
			assert.False(t, ok, "removed id must no longer resolve")
			continue
		}
		_, _, ok := s.Lookup(id)
		assert.True(t, ok, "surviving id %d must still resolve", i)
	}
}

// TestRemoveUnknownIDIsNoOp covers the NotFound contract: Remove on an
// unknown id never panics or errors, it's logged and ignored.
func TestRemoveUnknownIDIsNoOp(t *testing.T) {
	s, err := NewLightStore(testConfig(4))
	require.NoError(t, err)
	id, err := s.AddPoint(PointParams{})
	require.NoError(t, err)

	s.Remove(LightID{0xff})
	p, _, _ := s.Counts()
	assert.Equal(t, 1, p)
	_, _, ok := s.Lookup(id)
	assert.True(t, ok)
}

// TestSetPositionUnknownIDIsNoOp mirrors the same NotFound contract for
// every mutator.
func TestSetPositionUnknownIDIsNoOp(t *testing.T) {
	s, err := NewLightStore(testConfig(4))
	require.NoError(t, err)
	assert.NotPanics(t, func() {
		s.SetPosition(LightID{0xaa}, mgl32.Vec3{1, 2, 3})
		s.SetColor(LightID{0xaa}, mgl32.Vec3{1, 1, 1}, 1)
		s.SetVisible(LightID{0xaa}, true)
		s.SetAnimation(LightID{0xaa}, AnimDescriptor{})
	})
}

// TestSortSkippedBelowThreeLights covers the documented <3-light skip:
// Sort clears needsSort without touching ordering or ids.
func TestSortSkippedBelowThreeLights(t *testing.T) {
	s, err := NewLightStore(testConfig(8))
	require.NoError(t, err)
	idA, err := s.AddPoint(PointParams{Position: mgl32.Vec3{100, 0, 100}})
	require.NoError(t, err)
	idB, err := s.AddPoint(PointParams{Position: mgl32.Vec3{0, 0, 0}})
	require.NoError(t, err)

	s.Sort()

	kindA, idxA, ok := s.Lookup(idA)
	require.True(t, ok)
	assert.Equal(t, KindPoint, kindA)
	assert.Equal(t, 0, idxA)

	_, idxB, ok := s.Lookup(idB)
	require.True(t, ok)
	assert.Equal(t, 1, idxB)
}

// TestSortReordersByMortonLocalityAndPreservesIDs verifies that after
// Sort, lookups via LightID must still resolve to the same logical
// light even though array order changed.
func TestSortReordersByMortonLocalityAndPreservesIDs(t *testing.T) {
	s, err := NewLightStore(testConfig(16))
	require.NoError(t, err)

	positions := []mgl32.Vec3{
		{500, 0, 500},
		{0, 0, 0},
		{250, 0, 250},
		{10, 0, 10},
	}
	ids := make([]LightID, len(positions))
	for i, p := range positions {
		id, err := s.AddPoint(PointParams{Position: p})
		require.NoError(t, err)
		ids[i] = id
	}

	s.Sort()

	for i, id := range ids {
		kind, idx, ok := s.Lookup(id)
		require.True(t, ok, "light %d must still resolve after sort", i)
		assert.Equal(t, KindPoint, kind)
		assert.Equal(t, positions[i], s.points[idx].basePos, "light %d must resolve to its own record", i)
	}
}

// TestSetDeferSortingSuppressesAutomaticSort verifies that while
// deferred, Sort is a no-op even with needsSort pending, until the host
// clears the flag.
func TestSetDeferSortingSuppressesAutomaticSort(t *testing.T) {
	s, err := NewLightStore(testConfig(16))
	require.NoError(t, err)
	s.SetDeferSorting(true)

	var firstID LightID
	for i := 0; i < 4; i++ {
		id, err := s.AddPoint(PointParams{Position: mgl32.Vec3{float32(100 - i*10), 0, 0}})
		require.NoError(t, err)
		if i == 0 {
			firstID = id
		}
	}
	assert.True(t, s.needsSort)

	s.Sort()
	// Still in insertion order: first-added light stays at index 0.
	_, idx, ok := s.Lookup(firstID)
	require.True(t, ok)
	assert.Equal(t, 0, idx)

	s.SetDeferSorting(false)
	s.Sort()
	assert.False(t, s.needsSort)
}

func TestBulkAddPointsClampsToRemainingCapacity(t *testing.T) {
	s, err := NewLightStore(testConfig(3))
	require.NoError(t, err)

	points := make([]PointParams, 5)
	ids, n := s.BulkAddPoints(points)
	assert.Equal(t, 3, n)
	assert.Len(t, ids, 3)

	p, _, _ := s.Counts()
	assert.Equal(t, 3, p)
}

func TestBulkAddMixedStopsAtCapacity(t *testing.T) {
	s, err := NewLightStore(testConfig(2))
	require.NoError(t, err)

	lights := []BulkMixedLight{
		{Kind: KindPoint, Point: PointParams{}},
		{Kind: KindSpot, Spot: SpotParams{}},
		{Kind: KindRect, Rect: RectParams{}},
	}
	ids, n := s.BulkAddMixed(lights)
	assert.Equal(t, 2, n)
	assert.Len(t, ids, 2)
}

// TestBulkAddPointsMatchesSerialAddAfterSort verifies that adding N
// point lights via BulkAddPoints, then sorting and packing, produces
// the exact same packed texture content as adding the same N lights
// one at a time via AddPoint followed by the same sort and pack. Both
// paths derive Morton keys from identical positions, so a correct
// bulk path must converge on the same post-sort array order as the
// serial path, not merely the same set of lights.
func TestBulkAddPointsMatchesSerialAddAfterSort(t *testing.T) {
	n := 20
	params := make([]PointParams, n)
	for i := 0; i < n; i++ {
		params[i] = PointParams{
			Position:  mgl32.Vec3{float32(i*37 % 200), 0, float32(i*53 % 200)},
			Radius:    2 + float32(i%5),
			Color:     mgl32.Vec3{0.1, 0.2, 0.3},
			Intensity: 1 + float32(i%3),
			Decay:     1.5,
			Visible:   i%4 != 0,
		}
	}

	bulkEngine, err := NewEngine(testConfig(n), 16384)
	require.NoError(t, err)
	_, added := bulkEngine.Lights().BulkAddPoints(params)
	require.Equal(t, n, added)

	serialEngine, err := NewEngine(testConfig(n), 16384)
	require.NoError(t, err)
	for _, p := range params {
		_, err := serialEngine.Lights().AddPoint(p)
		require.NoError(t, err)
	}

	cam := Camera{View: mgl32.Ident4(), Projection: mgl32.Ident4()}
	bulkEngine.Update(0, cam)
	serialEngine.Update(0, cam)

	assert.Equal(t, serialEngine.Textures().Point, bulkEngine.Textures().Point)
}

// TestBulkAddMixedMatchesSerialAddAfterSort is the same equivalence
// check for BulkAddMixed against the matching sequence of per-kind
// serial Add calls.
func TestBulkAddMixedMatchesSerialAddAfterSort(t *testing.T) {
	mixed := []BulkMixedLight{
		{Kind: KindPoint, Point: PointParams{
			Position: mgl32.Vec3{10, 0, 20}, Radius: 2, Color: mgl32.Vec3{1, 0, 0},
			Intensity: 1, Decay: 1, Visible: true,
		}},
		{Kind: KindSpot, Spot: SpotParams{
			Position: mgl32.Vec3{5, 0, 5}, Radius: 3, Direction: mgl32.Vec3{0, -1, 0},
			ConeHalfAngle: 0.5, Penumbra: 0.1, Color: mgl32.Vec3{0, 1, 0},
			Intensity: 2, Decay: 1, Visible: true,
		}},
		{Kind: KindRect, Rect: RectParams{
			Position: mgl32.Vec3{100, 0, 50}, Radius: 4, Width: 2, Height: 3,
			Normal: mgl32.Vec3{0, 1, 0}, Color: mgl32.Vec3{0, 0, 1},
			Intensity: 1.5, Decay: 1, Visible: true,
		}},
		{Kind: KindPoint, Point: PointParams{
			Position: mgl32.Vec3{70, 0, 80}, Radius: 1, Color: mgl32.Vec3{1, 1, 1},
			Intensity: 1, Decay: 1, Visible: false,
		}},
	}

	bulkEngine, err := NewEngine(testConfig(len(mixed)), 16384)
	require.NoError(t, err)
	_, added := bulkEngine.Lights().BulkAddMixed(mixed)
	require.Equal(t, len(mixed), added)

	serialEngine, err := NewEngine(testConfig(len(mixed)), 16384)
	require.NoError(t, err)
	for _, entry := range mixed {
		var err error
		switch entry.Kind {
		case KindPoint:
			_, err = serialEngine.Lights().AddPoint(entry.Point)
		case KindSpot:
			_, err = serialEngine.Lights().AddSpot(entry.Spot)
		case KindRect:
			_, err = serialEngine.Lights().AddRect(entry.Rect)
		}
		require.NoError(t, err)
	}

	cam := Camera{View: mgl32.Ident4(), Projection: mgl32.Ident4()}
	bulkEngine.Update(0, cam)
	serialEngine.Update(0, cam)

	assert.Equal(t, serialEngine.Textures().Point, bulkEngine.Textures().Point)
	assert.Equal(t, serialEngine.Textures().Spot, bulkEngine.Textures().Spot)
	assert.Equal(t, serialEngine.Textures().Rect, bulkEngine.Textures().Rect)
}

func TestAddSpotNormalizesDirection(t *testing.T) {
	s, err := NewLightStore(testConfig(4))
	require.NoError(t, err)
	id, err := s.AddSpot(SpotParams{Direction: mgl32.Vec3{0, 0, 5}})
	require.NoError(t, err)

	_, idx, ok := s.Lookup(id)
	require.True(t, ok)
	dir := s.spots[idx].baseDir
	assert.InDelta(t, 1.0, dir.Len(), 1e-5)
}

func TestAddRectDefaultsDegenerateNormalAndBuildsFrame(t *testing.T) {
	s, err := NewLightStore(testConfig(4))
	require.NoError(t, err)
	id, err := s.AddRect(RectParams{Normal: mgl32.Vec3{0, 0, 0}})
	require.NoError(t, err)

	_, idx, ok := s.Lookup(id)
	require.True(t, ok)
	r := s.rects[idx]
	assert.InDelta(t, 1.0, r.baseNorm.Len(), 1e-5)
	assert.InDelta(t, 0, r.baseNorm.Dot(r.baseTan), 1e-4)
	assert.InDelta(t, 0, r.baseNorm.Dot(r.baseBitan), 1e-4)
	assert.InDelta(t, 0, r.baseTan.Dot(r.baseBitan), 1e-4)
}
