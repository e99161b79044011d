package clusterlight

import (
	"math"

	"github.com/go-gl/mathgl/mgl32"
)

// Camera is the host-supplied per-frame view state. View and Projection
// are plain 4x4 matrices; the engine never owns a camera controller
// itself, the same way mod_flying_camera.go lives entirely on the host
// side of the app rather than inside a rendering module.
type Camera struct {
	View       mgl32.Mat4
	Projection mgl32.Mat4
}

// frustumPlanes extracts the 6 view-frustum planes (Left, Right, Bottom,
// Top, Near, Far; Ax+By+Cz+D=0, inward normals, so a point inside the
// frustum has non-negative distance to every plane) from a combined
// view-projection matrix, the same row-add/row-subtract technique as
// voxelrt/rt/core/camera.go's CameraState.ExtractFrustum.
func frustumPlanes(vp mgl32.Mat4) [6]mgl32.Vec4 {
	var planes [6]mgl32.Vec4

	planes[0] = mgl32.Vec4{
		vp.At(3, 0) + vp.At(0, 0), vp.At(3, 1) + vp.At(0, 1),
		vp.At(3, 2) + vp.At(0, 2), vp.At(3, 3) + vp.At(0, 3),
	}
	planes[1] = mgl32.Vec4{
		vp.At(3, 0) - vp.At(0, 0), vp.At(3, 1) - vp.At(0, 1),
		vp.At(3, 2) - vp.At(0, 2), vp.At(3, 3) - vp.At(0, 3),
	}
	planes[2] = mgl32.Vec4{
		vp.At(3, 0) + vp.At(1, 0), vp.At(3, 1) + vp.At(1, 1),
		vp.At(3, 2) + vp.At(1, 2), vp.At(3, 3) + vp.At(1, 3),
	}
	planes[3] = mgl32.Vec4{
		vp.At(3, 0) - vp.At(1, 0), vp.At(3, 1) - vp.At(1, 1),
		vp.At(3, 2) - vp.At(1, 2), vp.At(3, 3) - vp.At(1, 3),
	}
	planes[4] = mgl32.Vec4{
		vp.At(3, 0) + vp.At(2, 0), vp.At(3, 1) + vp.At(2, 1),
		vp.At(3, 2) + vp.At(2, 2), vp.At(3, 3) + vp.At(2, 3),
	}
	planes[5] = mgl32.Vec4{
		vp.At(3, 0) - vp.At(2, 0), vp.At(3, 1) - vp.At(2, 1),
		vp.At(3, 2) - vp.At(2, 2), vp.At(3, 3) - vp.At(2, 3),
	}

	for i := range planes {
		length := float32(math.Sqrt(float64(
			planes[i][0]*planes[i][0] + planes[i][1]*planes[i][1] + planes[i][2]*planes[i][2],
		)))
		if length > 0 {
			planes[i] = planes[i].Mul(1.0 / length)
		}
	}
	return planes
}

// sphereOutsideFrustum reports whether a bounding sphere lies entirely
// outside any one frustum plane -- the standard plane-distance test.
func sphereOutsideFrustum(planes [6]mgl32.Vec4, center mgl32.Vec3, radius float32) bool {
	for _, p := range planes {
		dist := p.X()*center.X() + p.Y()*center.Y() + p.Z()*center.Z() + p.W()
		if dist < -radius {
			return true
		}
	}
	return false
}

// classifyLOD derives the shading-quality tier from the view-space
// distance-to-radius ratio: past 30x the light is invisible at its own
// scale and skipped outright, 15x and 7x step down to simpler shading,
// and anything closer gets full quality. lodBias multiplies radius
// before the comparison, so a bias above 1 pushes lights toward higher
// detail for longer.
func classifyLOD(distance, radius, lodBias float32) LOD {
	effectiveRadius := radius * lodBias
	if effectiveRadius <= 0 {
		return LOD0Skip
	}
	ratio := distance / effectiveRadius
	switch {
	case ratio > 30:
		return LOD0Skip
	case ratio > 15:
		return LOD1Simple
	case ratio > 7:
		return LOD2Medium
	default:
		return LOD3Full
	}
}

// UpdateViewState recomputes viewPos/viewDir/viewNorm, LOD and frustum
// culling for every light from its already-animated current* fields.
// Must run after animation evaluation and before texture packing, so
// the packer always sees this frame's view-space state.
//
// LOD uses view-space depth (-viewPos.z), not 3D distance to the eye:
// a light far off-axis but at the same depth as one dead ahead gets the
// same tier, matching the depth-slice test the GPU list pass and
// SliceIndexForDepth already use.
func (s *LightStore) UpdateViewState(cam Camera, lodBias float32) {
	vp := cam.Projection.Mul4(cam.View)
	planes := frustumPlanes(vp)

	for i := range s.points {
		l := &s.points[i]
		l.viewPos = mgl32.TransformCoordinate(l.currentPos, cam.View)
		d := -l.viewPos.Z()
		l.lod = classifyLOD(d, l.currentRadius, lodBias)
		l.culled = !l.visible || l.lod == LOD0Skip || sphereOutsideFrustum(planes, l.currentPos, l.currentRadius)
	}
	for i := range s.spots {
		l := &s.spots[i]
		l.viewPos = mgl32.TransformCoordinate(l.currentPos, cam.View)
		l.viewDir = transformDirection(l.currentDir, cam.View).Normalize()
		d := -l.viewPos.Z()
		l.lod = classifyLOD(d, l.currentRadius, lodBias)
		l.culled = !l.visible || l.lod == LOD0Skip || sphereOutsideFrustum(planes, l.currentPos, l.currentRadius)
	}
	for i := range s.rects {
		l := &s.rects[i]
		l.viewPos = mgl32.TransformCoordinate(l.currentPos, cam.View)
		l.viewNorm = transformDirection(l.currentNorm, cam.View).Normalize()
		l.viewTan = transformDirection(l.currentTan, cam.View).Normalize()
		d := -l.viewPos.Z()
		l.lod = classifyLOD(d, l.currentRadius, lodBias)
		l.culled = !l.visible || l.lod == LOD0Skip || sphereOutsideFrustum(planes, l.currentPos, l.currentRadius)
	}
}

// transformDirection applies only the rotational part of m (no
// translation), for transforming a direction/normal vector into view
// space.
func transformDirection(v mgl32.Vec3, m mgl32.Mat4) mgl32.Vec3 {
	return mgl32.Vec3{
		m.At(0, 0)*v.X() + m.At(0, 1)*v.Y() + m.At(0, 2)*v.Z(),
		m.At(1, 0)*v.X() + m.At(1, 1)*v.Y() + m.At(1, 2)*v.Z(),
		m.At(2, 0)*v.X() + m.At(2, 1)*v.Y() + m.At(2, 2)*v.Z(),
	}
}

// cameraEyeFromView recovers the world-space eye position from a view
// matrix by inverting it and reading off the translation column -- the
// eye is wherever the view matrix maps back to the origin.
func cameraEyeFromView(view mgl32.Mat4) mgl32.Vec3 {
	inv := view.Inv()
	return mgl32.Vec3{inv.At(0, 3), inv.At(1, 3), inv.At(2, 3)}
}
