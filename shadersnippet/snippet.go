// Package shadersnippet holds the GLSL fragment-shader text spliced
// into a host material's BRDF shader at two canonical three.js-style
// markers. Unlike clustergpu's WGSL (compiled by our own wgpu device for
// our own passes), this text is never compiled by us -- it is handed,
// as an opaque string, to whatever GLSL compiler the host renderer owns.
package shadersnippet

// Marker strings the host's shader source must contain exactly once
// each. PatchMaterial replaces each marker with the corresponding
// declaration/body snippet below.
const (
	MarkerParsFragment = "lights_physical_pars_fragment"
	MarkerBeginFragment = "lights_fragment_begin"
)

// Variant selects which traversal snippet to splice, based on the
// current light-kind population.
type Variant int

const (
	VariantFull Variant = iota
	VariantPointOnlyFast
	VariantPointOnlyUltra
)

// SelectVariant picks the cheapest snippet that still covers the scene:
// any spot or rect light forces the full traversal; point-only scenes
// at or under the "ultra" threshold get the path that reads a single
// master word per tile.
func SelectVariant(pointCount, spotCount, rectCount int) Variant {
	if spotCount > 0 || rectCount > 0 {
		return VariantFull
	}
	if pointCount <= ultraPointThreshold {
		return VariantPointOnlyUltra
	}
	return VariantPointOnlyFast
}

const ultraPointThreshold = 64

// ParsFragment returns the declarations spliced at MarkerParsFragment:
// uniform declarations and the per-light shading function(s) the begin
// snippet calls into. The full variant also declares the spot and rect
// textures, but every variant contains point shading only; no variant
// decodes or shades spot or rect records.
func ParsFragment(v Variant) string {
	switch v {
	case VariantPointOnlyFast, VariantPointOnlyUltra:
		return parsFragmentPointOnly
	default:
		return parsFragmentFull
	}
}

// BeginFragment returns the traversal loop spliced at MarkerBeginFragment.
func BeginFragment(v Variant) string {
	switch v {
	case VariantPointOnlyUltra:
		return beginFragmentPointOnlyUltra
	case VariantPointOnlyFast:
		return beginFragmentPointOnlyFast
	default:
		return beginFragmentFull
	}
}

const parsFragmentFull = `
uniform sampler2D pointLightTexture;
uniform sampler2D spotLightTexture;
uniform sampler2D rectLightTexture;
uniform usampler2D masterTexture;
uniform usampler2D listTexture;
uniform vec4 clusterParams;
uniform ivec4 sliceParams;
uniform vec3 lightAmbient;

struct ClusterLight {
	vec3 viewPos;
	float radius;
	vec3 colorIntensity;
	float packed;
};

ClusterLight decodePointRecord(int index) {
	ClusterLight l;
	vec4 t0 = texelFetch(pointLightTexture, ivec2(index * 2, 0), 0);
	vec4 t1 = texelFetch(pointLightTexture, ivec2(index * 2 + 1, 0), 0);
	l.viewPos = t0.xyz;
	l.radius = t0.w;
	l.colorIntensity = t1.rgb;
	l.packed = t1.w;
	return l;
}

float decodePackedDecay(float packed) { return floor(packed * 0.01); }
float decodePackedVisible(float packed) { return mod(floor(packed * 0.1), 2.0); }
float decodePackedLOD(float packed) { return mod(packed, 10.0); }

vec3 shadePointLight(ClusterLight l, vec3 worldNormal, vec3 viewPos) {
	float visible = decodePackedVisible(l.packed);
	if (visible < 0.5) return vec3(0.0);
	float lod = decodePackedLOD(l.packed);
	if (lod < 0.5) return vec3(0.0);
	vec3 toLight = l.viewPos - viewPos;
	float dist = length(toLight);
	float decay = decodePackedDecay(l.packed);
	float atten = 1.0 / max(pow(dist, decay), 1e-4);
	float ndotl = max(dot(worldNormal, normalize(toLight)), 0.0);
	return l.colorIntensity * atten * ndotl;
}
`

const parsFragmentPointOnly = `
uniform sampler2D pointLightTexture;
uniform usampler2D masterTexture;
uniform usampler2D listTexture;
uniform vec4 clusterParams;
uniform ivec4 sliceParams;
uniform vec3 lightAmbient;

float decodePackedDecay(float packed) { return floor(packed * 0.01); }
float decodePackedVisible(float packed) { return mod(floor(packed * 0.1), 2.0); }
float decodePackedLOD(float packed) { return mod(packed, 10.0); }

vec3 shadePointIndex(int index, vec3 worldNormal, vec3 viewPos) {
	vec4 t0 = texelFetch(pointLightTexture, ivec2(index * 2, 0), 0);
	vec4 t1 = texelFetch(pointLightTexture, ivec2(index * 2 + 1, 0), 0);
	float packed = t1.w;
	float visible = decodePackedVisible(packed);
	float lod = decodePackedLOD(packed);
	if (visible < 0.5 || lod < 0.5) return vec3(0.0);
	vec3 toLight = t0.xyz - viewPos;
	float dist = length(toLight);
	float decay = decodePackedDecay(packed);
	float atten = 1.0 / max(pow(dist, decay), 1e-4);
	float ndotl = max(dot(worldNormal, normalize(toLight)), 0.0);
	return t1.rgb * atten * ndotl;
}
`

// beginFragmentFull iterates Nw master words per tile, skips runs of
// zero bits 5 at a time, and for each set bit walks the 32 lights of
// that batch-of-32 cluster index via the list texture.
const beginFragmentFull = `
{
	vec3 clusterLight = vec3(0.0);
	ivec2 fragCoord = ivec2(gl_FragCoord.xy);
	int tx = int(float(fragCoord.x) * clusterParams.x);
	int ty = int(float(fragCoord.y) * clusterParams.y);
	float viewDepth = -vViewPosition.z;
	int sliceZ = int(log(viewDepth) * clusterParams.z - clusterParams.w);
	sliceZ = clamp(sliceZ, 0, sliceParams.z - 1);

	for (int i = 0; i < sliceParams.w; i++) {
		uint master = texelFetch(masterTexture, ivec2(tx, ty * sliceParams.w + i), 0).r;
		int clusterIndex = 32 * i;
		while (master != 0u) {
			if ((master & 1u) == 1u) {
				uint texel = texelFetch(listTexture, ivec2(tx, ty + sliceParams.y * clusterIndex), 0).r;
				for (int b = 0; b < 32; b++) {
					if ((texel & (1u << uint(b))) != 0u) {
						int lightIndex = 32 * clusterIndex + b;
						ClusterLight pl = decodePointRecord(lightIndex);
						clusterLight += shadePointLight(pl, normal, -vViewPosition);
					}
				}
			}
			uint low5 = master & 0x1Eu;
			uint inc = (low5 != 0u) ? 1u : 5u;
			master >>= inc;
			clusterIndex += int(inc);
		}
	}

	reflectedLight.directDiffuse += clusterLight + lightAmbient;
}
`

// beginFragmentPointOnlyFast is the same traversal, shading each light
// through shadePointIndex instead of a decoded ClusterLight record.
const beginFragmentPointOnlyFast = `
{
	vec3 clusterLight = vec3(0.0);
	ivec2 fragCoord = ivec2(gl_FragCoord.xy);
	int tx = int(float(fragCoord.x) * clusterParams.x);
	int ty = int(float(fragCoord.y) * clusterParams.y);
	float viewDepth = -vViewPosition.z;
	int sliceZ = int(log(viewDepth) * clusterParams.z - clusterParams.w);
	sliceZ = clamp(sliceZ, 0, sliceParams.z - 1);

	for (int i = 0; i < sliceParams.w; i++) {
		uint master = texelFetch(masterTexture, ivec2(tx, ty * sliceParams.w + i), 0).r;
		int clusterIndex = 32 * i;
		while (master != 0u) {
			if ((master & 1u) == 1u) {
				uint texel = texelFetch(listTexture, ivec2(tx, ty + sliceParams.y * clusterIndex), 0).r;
				for (int b = 0; b < 32; b++) {
					if ((texel & (1u << uint(b))) != 0u) {
						clusterLight += shadePointIndex(32 * clusterIndex + b, normal, -vViewPosition);
					}
				}
			}
			uint low5 = master & 0x1Eu;
			uint inc = (low5 != 0u) ? 1u : 5u;
			master >>= inc;
			clusterIndex += int(inc);
		}
	}

	reflectedLight.directDiffuse += clusterLight + lightAmbient;
}
`

// beginFragmentPointOnlyUltra drops the super-master/zero-run-skip
// machinery entirely for small point-only scenes (fewer batches than a
// single master word needs the skip optimization for).
const beginFragmentPointOnlyUltra = `
{
	vec3 clusterLight = vec3(0.0);
	ivec2 fragCoord = ivec2(gl_FragCoord.xy);
	int tx = int(float(fragCoord.x) * clusterParams.x);
	int ty = int(float(fragCoord.y) * clusterParams.y);

	uint master = texelFetch(masterTexture, ivec2(tx, ty * sliceParams.w), 0).r;
	int clusterIndex = 0;
	for (int b = 0; b < 32; b++) {
		if ((master & (1u << uint(b))) != 0u) {
			uint texel = texelFetch(listTexture, ivec2(tx, ty + sliceParams.y * b), 0).r;
			for (int j = 0; j < 32; j++) {
				if ((texel & (1u << uint(j))) != 0u) {
					clusterLight += shadePointIndex(32 * b + j, normal, -vViewPosition);
				}
			}
		}
	}

	reflectedLight.directDiffuse += clusterLight + lightAmbient;
}
`
