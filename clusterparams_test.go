package clusterlight

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBatchSizeForLightCountThreshold(t *testing.T) {
	assert.Equal(t, 512, batchSizeForLightCount(8000))
	assert.Equal(t, 1024, batchSizeForLightCount(8001))
}

func TestComputeNwCeilsToBatchSize(t *testing.T) {
	assert.Equal(t, 0, computeNw(0))
	assert.Equal(t, 1, computeNw(1))
	assert.Equal(t, 1, computeNw(512))
	assert.Equal(t, 2, computeNw(513))
	assert.Equal(t, 9, computeNw(9000)) // batch size 1024 above 8000
}

func TestLightCountClusterGridTiers(t *testing.T) {
	cfg := DefaultEngineConfig()

	small := LightCountClusterGrid(cfg, 10)
	assert.Equal(t, ClusterGrid{Nx: 8, Ny: 4, Nz: 8}, small)

	medium := LightCountClusterGrid(cfg, 400)
	assert.Equal(t, ClusterGrid{Nx: 16, Ny: 8, Nz: 16}, medium)

	large := LightCountClusterGrid(cfg, 5000)
	assert.Equal(t, ClusterGrid{Nx: cfg.ClusterX, Ny: cfg.ClusterY, Nz: cfg.ClusterZ}, large)
}

func TestMasterFormatForNwTiers(t *testing.T) {
	assert.Equal(t, MasterFormatR8UI, MasterFormatForNw(1))
	assert.Equal(t, MasterFormatR8UI, MasterFormatForNw(8))
	assert.Equal(t, MasterFormatR16UI, MasterFormatForNw(9))
	assert.Equal(t, MasterFormatR16UI, MasterFormatForNw(16))
	assert.Equal(t, MasterFormatR32UI, MasterFormatForNw(17))
}

func TestComputeClusterParamsDerivation(t *testing.T) {
	grid := ClusterGrid{Nx: 16, Ny: 8, Nz: 24}
	p := ComputeClusterParams(grid, 1920, 1080, 0.1, 1000)
	assert.InDelta(t, 16.0/1920.0, p.X, 1e-6)
	assert.InDelta(t, 8.0/1080.0, p.Y, 1e-6)
	assert.Greater(t, p.Z, float32(0))
}

// TestSliceIndexForDepthMonotonic verifies slice index increases with
// depth and stays clamped to [0, Nz).
func TestSliceIndexForDepthMonotonic(t *testing.T) {
	grid := ClusterGrid{Nx: 16, Ny: 8, Nz: 24}
	near, far := float32(0.1), float32(1000)

	iNear := SliceIndexForDepth(grid, near, near, far)
	iMid := SliceIndexForDepth(grid, 10, near, far)
	iFar := SliceIndexForDepth(grid, far, near, far)

	assert.GreaterOrEqual(t, iMid, iNear)
	assert.GreaterOrEqual(t, iFar, iMid)
	assert.GreaterOrEqual(t, iNear, 0)
	assert.Less(t, iFar, grid.Nz)
}

func TestListTextureDimensions(t *testing.T) {
	grid := ClusterGrid{Nx: 16, Ny: 8, Nz: 16}
	w, h := listTextureDimensions(grid, 100)
	assert.Equal(t, 16*16, w)
	assert.Equal(t, 8*1, h)
}

func TestSuperMasterTextureDimensionsCeilsBy8(t *testing.T) {
	grid := ClusterGrid{Nx: 9, Ny: 9, Nz: 1}
	w, h := superMasterTextureDimensions(grid, 1)
	assert.Equal(t, 2, w) // ceil(9*1/8)
	assert.Equal(t, 2, h) // ceil(9*1/8)
}
