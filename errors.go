package clusterlight

import "errors"

// Error taxonomy. Capacity is returned to the caller by the Add* calls
// and by NewLightStore's memory check. UnsupportedGPU is declared but no
// function in this package returns it: there is no check of requested
// formats or sizes against GPU limits. NotFound is never returned --
// mutating an unknown light id logs a warning and no-ops instead, since
// a host racing a remove against an update shouldn't have to
// special-case the error. InvalidArgument is returned for a non-positive
// MaxLights and for a material source whose splice markers are missing
// or duplicated; degenerate spot directions and rect normals are
// replaced by a default rather than rejected.
var (
	ErrCapacity        = errors.New("clusterlight: light store at capacity")
	ErrUnsupportedGPU  = errors.New("clusterlight: gpu limits cannot satisfy requested configuration")
	ErrInvalidArgument = errors.New("clusterlight: invalid argument")
)
