package math

import (
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
)

func TestClamp(t *testing.T) {
	assert.Equal(t, 5, Clamp(7, 0, 5))
	assert.Equal(t, float32(0.5), Clamp(float32(0.5), 0, 1))
	assert.Equal(t, -1.0, Clamp(-3.0, -1.0, 1.0))
}

func TestComposeModel_Order(t *testing.T) {
	m := ComposeModel(mgl32.Vec3{1, 2, 3}, mgl32.Vec3{0, 90, 0}, mgl32.Vec3{2, 2, 2})

	// Scale first, then rotate 90 degrees around Y, then translate.
	p := TransformPoint(m, mgl32.Vec3{1, 0, 0})
	assert.True(t, p.ApproxEqualThreshold(mgl32.Vec3{1, 2, 1}, 1e-5), "got %v", p)
}

func TestTransform_ModelCachesUntilDirty(t *testing.T) {
	tr := TransformFromPosition(mgl32.Vec3{0, 2.5, 2.5})
	assert.Equal(t, mgl32.Translate3D(0, 2.5, 2.5), tr.Model())

	tr.Translate(mgl32.Vec3{1, 0, 0})
	assert.True(t, tr.IsDirty)
	assert.Equal(t, mgl32.Translate3D(1, 2.5, 2.5), tr.Model())
	assert.False(t, tr.IsDirty)
}

func TestTransformDirection_Normalizes(t *testing.T) {
	d := TransformDirection(mgl32.Scale3D(3, 3, 3), mgl32.Vec3{0, -2, 0})
	assert.InDelta(t, 1.0, float64(d.Len()), 1e-6)
	assert.Equal(t, mgl32.Vec3{}, TransformDirection(mgl32.Ident4(), mgl32.Vec3{}))
}

func TestLightSpaceMatrix_ContainsFrustum(t *testing.T) {
	proj := mgl32.Perspective(mgl32.DegToRad(45), 1, 1, 50)
	view := mgl32.LookAtV(mgl32.Vec3{0, 5, 10}, mgl32.Vec3{}, mgl32.Vec3{0, 1, 0})
	ls := LightSpaceMatrix(proj, view, mgl32.Vec3{-0.3, -1, -0.2}, 10)

	for _, c := range FrustumCornersWorldSpace(proj, view) {
		p := ls.Mul4x1(c)
		ndc := p.Vec3().Mul(1 / p.W())
		assert.LessOrEqual(t, float64(ndc.X()), 1.0001)
		assert.GreaterOrEqual(t, float64(ndc.X()), -1.0001)
		assert.LessOrEqual(t, float64(ndc.Y()), 1.0001)
		assert.GreaterOrEqual(t, float64(ndc.Y()), -1.0001)
		assert.LessOrEqual(t, float64(ndc.Z()), 1.0001)
		assert.GreaterOrEqual(t, float64(ndc.Z()), -1.0001)
	}
}
