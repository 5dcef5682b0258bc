package math

import (
	gomath "math"

	"github.com/go-gl/mathgl/mgl32"
)

// FrustumCornersWorldSpace returns the eight corners of the view frustum
// described by proj and view, in world space.
func FrustumCornersWorldSpace(proj, view mgl32.Mat4) [8]mgl32.Vec4 {
	inv := proj.Mul4(view).Inv()
	var corners [8]mgl32.Vec4
	i := 0
	for x := 0; x < 2; x++ {
		for y := 0; y < 2; y++ {
			for z := 0; z < 2; z++ {
				pt := inv.Mul4x1(mgl32.Vec4{
					2*float32(x) - 1,
					2*float32(y) - 1,
					2*float32(z) - 1,
					1,
				})
				corners[i] = pt.Mul(1 / pt.W())
				i++
			}
		}
	}
	return corners
}

// LightSpaceMatrix fits an orthographic light projection around the camera
// frustum. lightDir points from the light towards the scene. zMult widens the
// depth range so casters outside the frustum still land in the shadow map.
func LightSpaceMatrix(proj, view mgl32.Mat4, lightDir mgl32.Vec3, zMult float32) mgl32.Mat4 {
	corners := FrustumCornersWorldSpace(proj, view)

	center := mgl32.Vec3{}
	for _, c := range corners {
		center = center.Add(c.Vec3())
	}
	center = center.Mul(1.0 / float32(len(corners)))

	if lightDir.Len() == 0 {
		lightDir = mgl32.Vec3{0, -1, 0}
	}
	lightDir = lightDir.Normalize()

	up := mgl32.Vec3{0, 1, 0}
	if gomath.Abs(float64(lightDir.Dot(up))) > 0.999 {
		up = mgl32.Vec3{0, 0, 1}
	}
	lightView := mgl32.LookAtV(center.Sub(lightDir), center, up)

	minX, minY, minZ := float32(gomath.MaxFloat32), float32(gomath.MaxFloat32), float32(gomath.MaxFloat32)
	maxX, maxY, maxZ := -minX, -minY, -minZ
	for _, c := range corners {
		p := lightView.Mul4x1(c)
		minX = min(minX, p.X())
		maxX = max(maxX, p.X())
		minY = min(minY, p.Y())
		maxY = max(maxY, p.Y())
		minZ = min(minZ, p.Z())
		maxZ = max(maxZ, p.Z())
	}

	if zMult < 1 {
		zMult = 1
	}
	if minZ < 0 {
		minZ *= zMult
	} else {
		minZ /= zMult
	}
	if maxZ < 0 {
		maxZ /= zMult
	} else {
		maxZ *= zMult
	}

	// View space looks down -Z, so near/far are the negated extremes.
	lightProjection := mgl32.Ortho(minX, maxX, minY, maxY, -maxZ, -minZ)
	return lightProjection.Mul4(lightView)
}
