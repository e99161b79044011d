package clusterlight

// EngineConfig holds the engine's compile-time-ish knobs. There is no
// environment variable or persisted-state path for any of these; a host
// builds one, optionally tweaks it, and passes it to NewEngine.
type EngineConfig struct {
	// MaxLights bounds pointLightCount+spotLightCount+rectLightCount.
	MaxLights int

	// MaxMemoryBytes is a soft cap on the Light Store's backing arrays;
	// NewLightStore fails with ErrCapacity-wrapping detail if the requested
	// MaxLights would exceed it. Zero disables the check.
	MaxMemoryBytes int64

	// ClusterX, ClusterY, ClusterZ are the default Nx, Ny, Nz grid
	// dimensions before LightCountClusterGrid's light-count-based
	// override (see clusterparams.go).
	ClusterX, ClusterY, ClusterZ int

	// LODBias multiplies radius before the d/r LOD thresholds classifyLOD
	// applies.
	LODBias float32

	// MaxTileSpan clamps the list pass's worst-case tile footprint per
	// light, itself clamped to [8,32] on use.
	MaxTileSpan float32

	// EnableSuperMaster toggles the optional 8x8 super-tile reduction.
	EnableSuperMaster bool

	Logger Logger
}

// DefaultEngineConfig returns a reasonable starting point for a mid-size
// scene: max-light cap of 32800, a 32x16x32 cluster grid, lodBias 1,
// maxTileSpan 12.
func DefaultEngineConfig() EngineConfig {
	return EngineConfig{
		MaxLights:         32800,
		MaxMemoryBytes:    0,
		ClusterX:          32,
		ClusterY:          16,
		ClusterZ:          32,
		LODBias:           1.0,
		MaxTileSpan:       12.0,
		EnableSuperMaster: false,
		Logger:            NewNopLogger(),
	}
}

func clampTileSpan(v float32) float32 {
	if v < 8 {
		return 8
	}
	if v > 32 {
		return 32
	}
	return v
}
