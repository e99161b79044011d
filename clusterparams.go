package clusterlight

import "math"

// ClusterGrid holds the Nx/Ny/Nz screen-tile x depth-slice partition.
type ClusterGrid struct {
	Nx, Ny, Nz int
}

// batchSizeForLightCount picks the light-batch width: 1024 for light
// counts above 8000, 512 otherwise, trading master-texture row count
// against per-batch occupancy-word waste at each scale.
func batchSizeForLightCount(lightCount int) int {
	if lightCount > 8000 {
		return 1024
	}
	return 512
}

// computeNw is ceil(lightCount / batchSize).
func computeNw(lightCount int) int {
	batchSize := batchSizeForLightCount(lightCount)
	if lightCount <= 0 {
		return 0
	}
	return (lightCount + batchSize - 1) / batchSize
}

// LightCountClusterGrid chooses Nx, Ny, Nz from the configured default
// grid (cfg.ClusterX/Y/Z) and the current light count (Engine.Update
// calls it every frame with the live total), scaling
// the configured grid down for small scenes, where the full grid would
// mean near-empty clusters and wasted master-texture rows.
func LightCountClusterGrid(cfg EngineConfig, lightCount int) ClusterGrid {
	switch {
	case lightCount <= 64:
		return ClusterGrid{Nx: 8, Ny: 4, Nz: 8}
	case lightCount <= 512:
		return ClusterGrid{Nx: 16, Ny: 8, Nz: 16}
	default:
		return ClusterGrid{Nx: cfg.ClusterX, Ny: cfg.ClusterY, Nz: cfg.ClusterZ}
	}
}

// MasterTextureFormat is a placeholder for the wgpu texture format enum
// selected in clustergpu; kept here as a plain string tag so
// clusterparams.go has no wgpu import and can be unit tested standalone.
type MasterTextureFormat string

const (
	MasterFormatR8UI  MasterTextureFormat = "r8uint"
	MasterFormatR16UI MasterTextureFormat = "r16uint"
	MasterFormatR32UI MasterTextureFormat = "r32uint"
)

// MasterFormatForNw picks the master texture's per-texel integer width:
// R32UI for Nw>16, R16UI for Nw>8, else R8UI -- the smallest format
// that still has one bit per batch.
func MasterFormatForNw(nw int) MasterTextureFormat {
	switch {
	case nw > 16:
		return MasterFormatR32UI
	case nw > 8:
		return MasterFormatR16UI
	default:
		return MasterFormatR8UI
	}
}

// ClusterParams is the vec4 uniform the fragment snippet uses to map
// gl_FragCoord and view depth to a cluster index:
// (Nx/W, Ny/H, Nz/ln(far/near), Nz*ln(near)/ln(far/near)).
type ClusterParams struct {
	X, Y, Z, W float32
}

// SliceParams is the ivec4 uniform (Nx, Ny, Nz, Nw).
type SliceParams struct {
	Nx, Ny, Nz, Nw int32
}

// ComputeClusterParams derives the fragment-side cluster-params uniform
// from the grid, the viewport size and the camera's near/far planes.
func ComputeClusterParams(grid ClusterGrid, viewportW, viewportH int, near, far float32) ClusterParams {
	lnFN := float32(math.Log(float64(far / near)))
	return ClusterParams{
		X: float32(grid.Nx) / float32(viewportW),
		Y: float32(grid.Ny) / float32(viewportH),
		Z: float32(grid.Nz) / lnFN,
		W: float32(grid.Nz) * float32(math.Log(float64(near))) / lnFN,
	}
}

// ComputeSliceParams packs (Nx, Ny, Nz, Nw) for the ivec4 uniform.
func ComputeSliceParams(grid ClusterGrid, lightCount int) SliceParams {
	return SliceParams{
		Nx: int32(grid.Nx), Ny: int32(grid.Ny), Nz: int32(grid.Nz), Nw: int32(computeNw(lightCount)),
	}
}

// SliceIndexForDepth reproduces the fragment-snippet slice computation:
// floor(ln(z)*Nz/ln(far/near) - Nz*ln(near)/ln(far/near)), the inverse
// of the exponential slice spacing ComputeClusterParams encodes.
func SliceIndexForDepth(grid ClusterGrid, z, near, far float32) int {
	lnFN := float64(float32(math.Log(float64(far / near))))
	raw := math.Log(float64(z))*float64(grid.Nz)/lnFN - float64(grid.Nz)*math.Log(float64(near))/lnFN
	idx := int(math.Floor(raw))
	if idx < 0 {
		idx = 0
	}
	if idx >= grid.Nz {
		idx = grid.Nz - 1
	}
	return idx
}

// listTextureDimensions returns the list/master texture's (width,
// height) in texels for a given grid and light count:
// width = Nx*Nz, height = Ny*Nw.
func listTextureDimensions(grid ClusterGrid, lightCount int) (width, height int) {
	return grid.Nx * grid.Nz, grid.Ny * computeNw(lightCount)
}

// superMasterTextureDimensions returns the optional super-master
// texture's (width, height): ceil(Nx*Nz/8), ceil(Ny*Nw/8).
func superMasterTextureDimensions(grid ClusterGrid, lightCount int) (width, height int) {
	w, h := listTextureDimensions(grid, lightCount)
	return (w + 7) / 8, (h + 7) / 8
}
