package clusterlight

import (
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewEngineDefaultsLoggerWhenNil(t *testing.T) {
	cfg := testConfig(4)
	cfg.Logger = nil
	e, err := NewEngine(cfg, 16384)
	require.NoError(t, err)
	assert.NotNil(t, e.logger)
}

// TestUpdateFixedOrderProducesPackedTextures exercises the full
// sort -> animate -> view-transform -> pack pipeline end to end and
// checks the packed output reflects animated, view-space state.
func TestUpdateFixedOrderProducesPackedTextures(t *testing.T) {
	e, err := NewEngine(testConfig(8), 16384)
	require.NoError(t, err)

	_, err = e.Lights().AddPoint(PointParams{
		Position:  mgl32.Vec3{0, 0, -10},
		Radius:    5,
		Color:     mgl32.Vec3{1, 1, 1},
		Intensity: 2,
		Decay:     1,
		Visible:   true,
		Anim: AnimDescriptor{
			Flags: AnimPulse,
			Pulse: PulseParams{Speed: 1, Amount: 0.5, Target: PulseIntensity},
		},
	})
	require.NoError(t, err)

	cam := Camera{
		View:       mgl32.Ident4(),
		Projection: mgl32.Perspective(mgl32.DegToRad(60), 16.0/9.0, 0.1, 1000),
	}
	e.Update(0.25, cam)

	tex := e.Textures()
	require.Len(t, tex.Point, 2*floatsPerTexel)
	assert.True(t, tex.NeedsUpload)

	// packed alpha term (texel 1, component 3) must encode decay/visible/lod.
	packed := tex.Point[7]
	decay, visible, _ := decodePointPacked(packed)
	assert.InDelta(t, 1.0, decay, 1e-3)
	assert.True(t, visible)
}

func TestEngineGridUpdatesWithLightCount(t *testing.T) {
	e, err := NewEngine(testConfig(1000), 16384)
	require.NoError(t, err)

	cam := Camera{View: mgl32.Ident4(), Projection: mgl32.Ident4()}
	e.Update(0, cam)
	small := e.Grid()
	assert.Equal(t, ClusterGrid{Nx: 8, Ny: 4, Nz: 8}, small)

	for i := 0; i < 100; i++ {
		_, err := e.Lights().AddPoint(PointParams{Position: mgl32.Vec3{float32(i), 0, 0}})
		require.NoError(t, err)
	}
	e.Update(0, cam)
	medium := e.Grid()
	assert.Equal(t, ClusterGrid{Nx: 16, Ny: 8, Nz: 16}, medium)
}

func TestUniformsReflectCurrentCounts(t *testing.T) {
	e, err := NewEngine(testConfig(8), 16384)
	require.NoError(t, err)
	_, err = e.Lights().AddPoint(PointParams{})
	require.NoError(t, err)
	_, err = e.Lights().AddSpot(SpotParams{})
	require.NoError(t, err)

	e.Update(0, Camera{View: mgl32.Ident4(), Projection: mgl32.Ident4()})
	u := e.Uniforms(1920, 1080, 0.1, 1000)
	assert.Equal(t, int32(1), u.LightCounts[0])
	assert.Equal(t, int32(1), u.LightCounts[1])
	assert.Equal(t, int32(0), u.LightCounts[2])

	bytes := u.Bytes()
	assert.NotEmpty(t, bytes)
}

func TestResizeGPUNoOpWithoutAttachedDevice(t *testing.T) {
	e, err := NewEngine(testConfig(8), 16384)
	require.NoError(t, err)
	assert.NoError(t, e.ResizeGPU())
}
