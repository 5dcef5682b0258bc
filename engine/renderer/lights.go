package renderer

import (
	"fmt"
	gomath "math"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/spaghettifunk/lumen/engine/core"
	"github.com/spaghettifunk/lumen/engine/renderer/metadata"
	"github.com/spaghettifunk/lumen/engine/scene"
)

/**
 * @brief Collects the active lights of a scene into world space and uploads
 * the three light arrays plus their counts.
 */
type LightUploader struct {
	ctx *RendererContext

	directional []metadata.DirectionalLightUpload
	spot        []metadata.SpotLightUpload
	point       []metadata.PointLightUpload
	meta        metadata.LightMeta
}

func NewLightUploader(ctx *RendererContext) *LightUploader {
	return &LightUploader{ctx: ctx}
}

// Upload rebuilds the light arrays. cameraPos ends up in LightMeta.ViewPos.
func (lu *LightUploader) Upload(s *scene.Scene, cameraPos mgl32.Vec3) error {
	lu.directional = lu.directional[:0]
	lu.spot = lu.spot[:0]
	lu.point = lu.point[:0]

	reg := s.Registry()
	for _, e := range reg.View(scene.TypeOf[scene.LightComponent](), scene.TypeOf[scene.TransformComponent]()) {
		if !reg.IsActive(e) {
			continue
		}
		light, _ := scene.Get[scene.LightComponent](reg, e)
		transform, _ := scene.Get[scene.TransformComponent](reg, e)
		if err := lu.append(light, transform.Model()); err != nil {
			core.LogError(err.Error())
			return err
		}
	}

	lu.meta = metadata.LightMeta{
		ViewPos:         cameraPos.Vec4(1),
		NDirectionLight: int32(len(lu.directional)),
		NSpotLight:      int32(len(lu.spot)),
		NPointLight:     int32(len(lu.point)),
	}

	backend := lu.ctx.Backend
	if len(lu.directional) > 0 {
		backend.UploadBufferData(lu.ctx.DirectionalLights, 0, metadata.AsBytes(lu.directional))
	}
	if len(lu.spot) > 0 {
		backend.UploadBufferData(lu.ctx.SpotLights, 0, metadata.AsBytes(lu.spot))
	}
	if len(lu.point) > 0 {
		backend.UploadBufferData(lu.ctx.PointLights, 0, metadata.AsBytes(lu.point))
	}
	backend.UploadBufferData(lu.ctx.LightMeta, 0, metadata.AsBytes([]metadata.LightMeta{lu.meta}))
	return nil
}

func (lu *LightUploader) append(light *scene.LightComponent, model mgl32.Mat4) error {
	limit := int(lu.ctx.Capacity.MaxLightsPerType)
	full := func(n int) error {
		if n < limit {
			return nil
		}
		return fmt.Errorf("%w: more than %d %s lights", core.ErrCapacityExceeded, limit, light.Type)
	}

	switch light.Type {
	case scene.LightTypeDirectional:
		if err := full(len(lu.directional)); err != nil {
			return err
		}
		dir := model.Mul4x1(light.Position.Vec4(0)).Vec3().Normalize()
		lu.directional = append(lu.directional, metadata.DirectionalLightUpload{
			Direction: dir.Vec4(0),
			Color:     light.Color,
		})
	case scene.LightTypePoint:
		if err := full(len(lu.point)); err != nil {
			return err
		}
		lu.point = append(lu.point, metadata.PointLightUpload{
			Position: model.Mul4x1(light.Position.Vec4(1)),
			Color:    light.Color,
		})
	case scene.LightTypeSpot:
		if err := full(len(lu.spot)); err != nil {
			return err
		}
		pos := model.Mul4x1(light.Position.Vec4(1))
		dir := model.Mul4x1(light.SpotDirection.Vec4(0)).Vec3().Normalize()
		color := light.Color
		pos[3] = cosDegrees(light.InnerRadius)
		color[3] = cosDegrees(light.OuterRadius)
		lu.spot = append(lu.spot, metadata.SpotLightUpload{
			Position:  pos,
			Color:     color,
			Direction: dir.Vec4(0),
		})
	}
	return nil
}

func cosDegrees(deg float32) float32 {
	return float32(gomath.Cos(float64(mgl32.DegToRad(deg))))
}

// FirstDirection returns the direction towards the first directional light.
func (lu *LightUploader) FirstDirection() (mgl32.Vec3, bool) {
	if len(lu.directional) == 0 {
		return mgl32.Vec3{}, false
	}
	return lu.directional[0].Direction.Vec3(), true
}

func (lu *LightUploader) Meta() metadata.LightMeta {
	return lu.meta
}

func (lu *LightUploader) Directional() []metadata.DirectionalLightUpload {
	return lu.directional
}

func (lu *LightUploader) Spot() []metadata.SpotLightUpload {
	return lu.spot
}

func (lu *LightUploader) Point() []metadata.PointLightUpload {
	return lu.point
}
