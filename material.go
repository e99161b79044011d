package clusterlight

import (
	"fmt"
	"strings"

	"github.com/gekko3d/clusterlight/shadersnippet"
)

// Material is the host-implemented shader-source surface PatchMaterial
// mutates: a GLSL fragment-shader string containing the two canonical
// three.js-style markers, read and rewritten in place.
type Material interface {
	FragmentSource() string
	SetFragmentSource(string)
}

// patchedMaterial is the non-owning record PatchMaterial keeps so a
// later engine teardown can mark materials inert, the same
// App.resources discipline of avoiding GC-cycle-holding back-references
// between long-lived modules.
type patchedMaterial struct {
	material Material
	inert    bool
}

// PatchMaterial splices the engine's uniform declarations and fragment
// traversal loop into material at MarkerParsFragment/MarkerBeginFragment,
// selecting a snippet Variant from the engine's current light-kind
// population. Returns an error if either marker is missing or appears
// more than once.
func (e *Engine) PatchMaterial(material Material) error {
	src := material.FragmentSource()

	np, ns, nr := e.store.Counts()
	variant := shadersnippet.SelectVariant(np, ns, nr)

	src, err := spliceOnce(src, shadersnippet.MarkerParsFragment, shadersnippet.ParsFragment(variant))
	if err != nil {
		return err
	}
	src, err = spliceOnce(src, shadersnippet.MarkerBeginFragment, shadersnippet.BeginFragment(variant))
	if err != nil {
		return err
	}

	material.SetFragmentSource(src)
	e.patched = append(e.patched, &patchedMaterial{material: material})
	return nil
}

// IsPatched reports whether material was patched by this engine and is
// still live -- false once Teardown has run, even if the host kept its
// own reference to the material.
func (e *Engine) IsPatched(material Material) bool {
	for _, p := range e.patched {
		if p.material == material {
			return !p.inert
		}
	}
	return false
}

func spliceOnce(src, marker, replacement string) (string, error) {
	count := strings.Count(src, marker)
	if count == 0 {
		return "", fmt.Errorf("%w: marker %q not found in material source", ErrInvalidArgument, marker)
	}
	if count > 1 {
		return "", fmt.Errorf("%w: marker %q appears %d times, expected exactly once", ErrInvalidArgument, marker, count)
	}
	return strings.Replace(src, marker, replacement, 1), nil
}

// Teardown marks every material this engine ever patched as inert and
// releases the GPU pipeline, if attached. A host that keeps a reference
// to a patched material past Teardown gets back FragmentSource() as it
// was at patch time -- inert, not actively re-rendered with live data.
// The patched records themselves are kept (not discarded) so IsPatched
// can still report the inert state afterward.
func (e *Engine) Teardown() {
	for _, p := range e.patched {
		p.inert = true
	}

	if e.gpu != nil {
		e.gpu.Release()
		e.gpu = nil
	}
}
