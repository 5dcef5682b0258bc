package math

import "github.com/go-gl/mathgl/mgl32"

// Transform holds a position, an euler rotation in degrees and a scale.
// The model matrix is T * Rx * Ry * Rz * S.
type Transform struct {
	Position mgl32.Vec3
	Rotation mgl32.Vec3
	Scale    mgl32.Vec3
	IsDirty  bool

	model mgl32.Mat4
}

func TransformCreate() *Transform {
	return TransformFromPositionRotationScale(mgl32.Vec3{}, mgl32.Vec3{}, mgl32.Vec3{1, 1, 1})
}

func TransformFromPosition(position mgl32.Vec3) *Transform {
	return TransformFromPositionRotationScale(position, mgl32.Vec3{}, mgl32.Vec3{1, 1, 1})
}

func TransformFromPositionRotationScale(position, rotation, scale mgl32.Vec3) *Transform {
	t := &Transform{
		Position: position,
		Rotation: rotation,
		Scale:    scale,
	}
	t.model = ComposeModel(position, rotation, scale)
	return t
}

func (t *Transform) SetPosition(position mgl32.Vec3) {
	t.Position = position
	t.IsDirty = true
}

func (t *Transform) Translate(translation mgl32.Vec3) {
	t.Position = t.Position.Add(translation)
	t.IsDirty = true
}

func (t *Transform) SetRotation(degrees mgl32.Vec3) {
	t.Rotation = degrees
	t.IsDirty = true
}

func (t *Transform) Rotate(degrees mgl32.Vec3) {
	t.Rotation = t.Rotation.Add(degrees)
	t.IsDirty = true
}

func (t *Transform) SetScale(scale mgl32.Vec3) {
	t.Scale = scale
	t.IsDirty = true
}

// Model returns the cached model matrix, rebuilding it when the transform changed.
func (t *Transform) Model() mgl32.Mat4 {
	if t.IsDirty || t.model == (mgl32.Mat4{}) {
		t.model = ComposeModel(t.Position, t.Rotation, t.Scale)
		t.IsDirty = false
	}
	return t.model
}

func ComposeModel(position, rotationDeg, scale mgl32.Vec3) mgl32.Mat4 {
	translate := mgl32.Translate3D(position.X(), position.Y(), position.Z())
	rx := mgl32.HomogRotate3DX(mgl32.DegToRad(rotationDeg.X()))
	ry := mgl32.HomogRotate3DY(mgl32.DegToRad(rotationDeg.Y()))
	rz := mgl32.HomogRotate3DZ(mgl32.DegToRad(rotationDeg.Z()))
	s := mgl32.Scale3D(scale.X(), scale.Y(), scale.Z())
	return translate.Mul4(rx).Mul4(ry).Mul4(rz).Mul4(s)
}
