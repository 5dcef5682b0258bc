package renderer

import (
	"github.com/go-gl/mathgl/mgl32"
	"github.com/spaghettifunk/lumen/engine/core"
	"github.com/spaghettifunk/lumen/engine/math"
	"github.com/spaghettifunk/lumen/engine/renderer/metadata"
	"github.com/spaghettifunk/lumen/engine/scene"
)

// Texture units of the lighting pass inputs.
const (
	unitShadowMap uint32 = GBufferDepth
	unitGDepth    uint32 = GBufferDepth + 1
	unitCubeMap   uint32 = 0
)

var lightingSamplers = [...]string{
	GBufferAlbedo:    "albedo",
	GBufferPosition:  "position",
	GBufferNormal:    "normal",
	GBufferAO:        "iAo",
	GBufferRoughness: "iRoughness",
	GBufferMetallic:  "iMetallic",
}

// RenderScene uploads whatever changed and runs the shadow, geometry,
// lighting and environment passes.
func (r *Renderer) RenderScene(s *scene.Scene) error {
	if err := r.prepare(s); err != nil {
		return err
	}

	ctx := r.ctx
	camera := s.PrimaryCamera()
	r.lightSpace = r.computeLightSpace(camera)
	r.uploadCamera(camera)

	ctx.Stats.ShadowPassTime = core.Measure(r.shadowPass)
	ctx.Stats.GeometryPassTime = core.Measure(r.geometryPass)
	ctx.Stats.LightingPassTime = core.Measure(r.lightingPass)
	ctx.Stats.EnvironmentPassTime = 0
	if ctx.Config.EnvironmentPass && s.Environment != nil && s.Environment.Handle.Valid {
		ctx.Stats.EnvironmentPassTime = core.Measure(func() { r.environmentPass(camera, s.Environment.Handle) })
	}
	ctx.Backend.BindFramebuffer(nil)
	return nil
}

// prepare re-uploads materials and re-batches the scene when flagged, then
// uploads the lights. Persistent memory is only written after the previous
// frame's fence has signalled.
func (r *Renderer) prepare(s *scene.Scene) error {
	ctx := r.ctx
	s.UpdateTransforms()

	var err error
	rebatch := s.IsRegistryDirty()
	if s.IsMaterialsDirty() {
		r.waitFence()
		ctx.Stats.MaterialUploadTime = core.Measure(func() {
			err = r.materials.Upload(s.Cache(), &ctx.Stats)
		})
		if err != nil {
			return err
		}
		s.ClearMaterialsDirty()
		rebatch = true
	}

	if rebatch {
		r.waitFence()
		ctx.Stats.SceneUploadTime = core.Measure(func() {
			err = r.batcher.Batch(s, r.materials)
		})
		if err != nil {
			return err
		}
		s.ClearRegistryDirty()
	}

	ctx.Stats.LightUploadTime = core.Measure(func() {
		err = r.lights.Upload(s, s.PrimaryCamera().Position)
	})
	return err
}

func (r *Renderer) waitFence() {
	r.ctx.Sync.WaitFence()
	r.ctx.Stats.FencePolls, _ = r.ctx.Sync.Polls()
}

// computeLightSpace fits the first directional light around the camera
// frustum. Without a directional light the shadow map stays empty.
func (r *Renderer) computeLightSpace(camera *scene.Camera) mgl32.Mat4 {
	towardLight, ok := r.lights.FirstDirection()
	if !ok {
		return mgl32.Ident4()
	}
	return math.LightSpaceMatrix(camera.Projection(), camera.View(), towardLight.Mul(-1), r.ctx.Config.ShadowZMult)
}

func (r *Renderer) uploadCamera(camera *scene.Camera) {
	upload := []metadata.CameraUpload{{
		View:           camera.View(),
		Projection:     camera.Projection(),
		ViewProjection: camera.ViewProjection(),
		LightSpace:     r.lightSpace,
	}}
	r.ctx.Backend.UploadBufferData(r.ctx.Camera, 0, metadata.AsBytes(upload))
}

func (r *Renderer) drawScene(shader metadata.ShaderHandle) {
	ctx := r.ctx
	n := r.batcher.Commands()
	if n == 0 || !shader.Valid {
		return
	}
	ctx.Backend.UseShader(shader)
	ctx.Backend.MultiDrawElementsIndirect(ctx.SceneVAO, ctx.Commands, n)
}

func (r *Renderer) shadowPass() {
	ctx := r.ctx
	b := ctx.Backend
	size := ctx.Config.ShadowMapSize

	b.BindFramebuffer(ctx.ShadowTarget)
	b.SetViewport(0, 0, size, size)
	b.Clear(mgl32.Vec4{}, metadata.ClearDepth)
	if _, ok := r.lights.FirstDirection(); ok {
		b.SetCullFace(metadata.CullFront)
		r.drawScene(ctx.Shaders.Shadow)
		b.SetCullFace(metadata.CullBack)
	}
}

// geometryPass is the last reader of the persistent scene buffers in a frame,
// so the fence goes in right after it.
func (r *Renderer) geometryPass() {
	ctx := r.ctx
	b := ctx.Backend

	b.BindFramebuffer(ctx.GBuffer)
	b.SetViewport(0, 0, ctx.Width, ctx.Height)
	b.Clear(mgl32.Vec4{}, metadata.ClearColor|metadata.ClearDepth)
	b.SetCullFace(metadata.CullBack)
	r.drawScene(ctx.Shaders.GBuffer)
	ctx.Sync.LockFence()
}

func (r *Renderer) lightingPass() {
	ctx := r.ctx
	b := ctx.Backend

	b.BindFramebuffer(ctx.Output)
	b.SetViewport(0, 0, ctx.Width, ctx.Height)
	b.Clear(mgl32.Vec4(ctx.Config.ClearColor), metadata.ClearColor|metadata.ClearDepth)

	shader := ctx.Shaders.Lighting
	if !shader.Valid {
		return
	}
	b.UseShader(shader)

	uniforms := make([]metadata.UniformDesc, 0, len(lightingSamplers)+3)
	for unit, name := range lightingSamplers {
		b.BindTextureUnit(uint32(unit), ctx.GBuffer.Attachments[unit])
		uniforms = append(uniforms, metadata.Sampler2D(name, int32(unit)))
	}
	if depth, ok := ctx.ShadowTarget.DepthAttachment(); ok {
		b.BindTextureUnit(unitShadowMap, depth)
	}
	if depth, ok := ctx.GBuffer.DepthAttachment(); ok {
		b.BindTextureUnit(unitGDepth, depth)
	}
	uniforms = append(uniforms,
		metadata.Sampler2D("shadowMap", int32(unitShadowMap)),
		metadata.Sampler2D("gDepth", int32(unitGDepth)),
		metadata.Mat4("lightSpace", r.lightSpace),
	)
	uploadUniforms(b, shader, uniforms...)

	b.DrawElements(ctx.ScreenQuad.VAO, ctx.ScreenQuad.IndexCount)
}

// environmentPass draws the sky cube behind the lit geometry.
func (r *Renderer) environmentPass(camera *scene.Camera, cubeMap metadata.TextureHandle) {
	ctx := r.ctx
	b := ctx.Backend
	shader := ctx.Shaders.Environment
	if !shader.Valid {
		return
	}

	view := camera.View().Mat3().Mat4()
	b.BindFramebuffer(ctx.Output)
	b.SetDepthMask(false)
	b.SetCullFace(metadata.CullNone)
	b.UseShader(shader)
	b.BindCubeMapUnit(unitCubeMap, cubeMap)
	uploadUniforms(b, shader,
		metadata.Mat4("viewProjection", camera.Projection().Mul4(view)),
		metadata.Sampler2D("environmentMap", int32(unitCubeMap)),
	)
	b.DrawElements(ctx.EnvironmentCube.VAO, ctx.EnvironmentCube.IndexCount)
	b.SetCullFace(metadata.CullBack)
	b.SetDepthMask(true)
}
