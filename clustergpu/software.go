// Package clustergpu implements the cluster-assignment pipeline: a list
// pass that rasterizes light volumes into per-cluster bitmasks, a master
// pass that reduces 32 slices of list texels into one occupancy word,
// and an optional super-master pass that reduces further over 8x8 tile
// blocks. The GPU-backed pipeline lives in pipeline.go; this file is a
// pure-Go software model of the exact same bit semantics, the same
// practice of mirroring GPU logic in CPU-testable Go that
// voxelrt/rt/core/scene.go's IsOccluded/AABBInFrustum follow, so the
// bit semantics can be tested without a GPU device. No test in this
// package runs the GPU pipeline or compares its output with this model.
package clustergpu

// Grid is the Nx/Ny/Nz cluster partition (mirrors clusterlight.ClusterGrid,
// duplicated here so this package has no dependency on the root package).
type Grid struct {
	Nx, Ny, Nz int
}

// LightFootprint is a single light's cluster-space bounding volume after
// sphere-to-tile projection: which tiles its bounding sphere overlaps,
// and which depth slices it spans. BatchIndex/BitIndex locate it within
// the scheme of 32-light batches, one occupancy bit per light in a batch.
type LightFootprint struct {
	TileXMin, TileXMax int // inclusive
	TileYMin, TileYMax int // inclusive
	SliceMin, SliceMax int // inclusive, clamped to [0, Nz)

	BatchIndex int // lightIndex / 32
	BitIndex   int // lightIndex % 32
}

// SoftwareModel holds the list and master textures as plain Go maps
// keyed by (tileX, row), each value a 32-bit occupancy word. This is
// functionally a dense 2D texture but a map keeps small test grids cheap
// and avoids allocating Nx*Nz*Ny*Nw-sized arrays for a 4x4x4 test grid.
type SoftwareModel struct {
	Grid Grid
	Nw   int // number of batches-of-32 represented (ceil(lightCount/32))

	List   map[[2]int]uint32
	Master map[[2]int]uint32
}

func NewSoftwareModel(grid Grid, lightCount int) *SoftwareModel {
	nw := (lightCount + 31) / 32
	if nw == 0 {
		nw = 1
	}
	return &SoftwareModel{
		Grid:   grid,
		Nw:     nw,
		List:   make(map[[2]int]uint32),
		Master: make(map[[2]int]uint32),
	}
}

// listRow computes the list texture's row for (tileY, batch, slice):
// row = tileY + Ny*(32*batch + slice).
func (m *SoftwareModel) listRow(tileY, batch, slice int) int {
	return tileY + m.Grid.Ny*(32*batch+slice)
}

// masterRow computes the master texture's row for (tileY, batch):
// row = tileY*Nw + batch.
func (m *SoftwareModel) masterRow(tileY, batch int) int {
	return tileY*m.Nw + batch
}

// RasterizeList runs the list pass for one light: for every tile and
// slice its footprint spans, sets its bit in that cluster's list texel.
// Spans exceeding maxTileSpan tiles in either screen axis are clamped,
// logged as dropped coverage by the caller if it cares -- the software
// model itself just clamps silently, matching the GPU rasterizer's
// fixed-size instance quad behavior.
func (m *SoftwareModel) RasterizeList(f LightFootprint, maxTileSpan int) {
	xMin, xMax := clampSpan(f.TileXMin, f.TileXMax, maxTileSpan)
	yMin, yMax := clampSpan(f.TileYMin, f.TileYMax, maxTileSpan)
	sliceMin, sliceMax := f.SliceMin, f.SliceMax
	if sliceMin < 0 {
		sliceMin = 0
	}
	if sliceMax >= m.Grid.Nz {
		sliceMax = m.Grid.Nz - 1
	}

	bit := uint32(1) << uint(f.BitIndex)
	for tx := xMin; tx <= xMax; tx++ {
		for ty := yMin; ty <= yMax; ty++ {
			for slice := sliceMin; slice <= sliceMax; slice++ {
				row := m.listRow(ty, f.BatchIndex, slice)
				m.List[[2]int{tx, row}] |= bit
			}
		}
	}
}

func clampSpan(lo, hi, maxSpan int) (int, int) {
	if hi-lo+1 > maxSpan {
		hi = lo + maxSpan - 1
	}
	return lo, hi
}

// ReduceMaster runs the master pass: for every (tileX, tileY, batch)
// that appears in List, emits a word whose bit i is set iff
// List[tx, ty+Ny*(32*batch+i)] is non-zero for slice i.
func (m *SoftwareModel) ReduceMaster() {
	for tx := 0; tx < m.Grid.Nx; tx++ {
		for ty := 0; ty < m.Grid.Ny; ty++ {
			for batch := 0; batch < m.Nw; batch++ {
				var word uint32
				for slice := 0; slice < m.Grid.Nz && slice < 32; slice++ {
					if m.List[[2]int{tx, m.listRow(ty, batch, slice)}] != 0 {
						word |= 1 << uint(slice)
					}
				}
				if word != 0 {
					m.Master[[2]int{tx, m.masterRow(ty, batch)}] = word
				}
			}
		}
	}
}

// SuperMasterReduce builds the optional second-level reduction: one bit
// per 8x8 block of (tileX-row) master cells, set iff any master word in
// that block is non-zero. Structurally the same "reduce into a coarser
// grid, one pass per level" shape as voxelrt/rt/gpu/manager_hiz.go's
// Hi-Z mip generation (SetupHiZ/DispatchHiZ).
func (m *SoftwareModel) SuperMasterReduce() map[[2]int]bool {
	superW := (m.Grid.Nx + 7) / 8
	_ = superW
	out := make(map[[2]int]bool)
	for key, word := range m.Master {
		if word == 0 {
			continue
		}
		tx, row := key[0], key[1]
		out[[2]int{tx / 8, row / 8}] = true
	}
	return out
}

// ListBitSet reports whether light bitIndex of batch is marked present
// at (tileX, tileY, slice) -- a test helper for inspecting raw list bits.
func (m *SoftwareModel) ListBitSet(tileX, tileY, batch, slice, bitIndex int) bool {
	word := m.List[[2]int{tileX, m.listRow(tileY, batch, slice)}]
	return word&(1<<uint(bitIndex)) != 0
}

// PopCount counts set bits in a list texel's word.
func PopCount(word uint32) int {
	n := 0
	for word != 0 {
		n += int(word & 1)
		word >>= 1
	}
	return n
}
