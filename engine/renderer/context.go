package renderer

import (
	"errors"
	"fmt"
	"io/fs"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/spaghettifunk/lumen/engine/config"
	"github.com/spaghettifunk/lumen/engine/core"
	"github.com/spaghettifunk/lumen/engine/renderer/metadata"
	"github.com/spaghettifunk/lumen/engine/resources"
)

/**
 * @brief A small indexed mesh drawn with DrawElements.
 */
type staticGeometry struct {
	Vertices   *metadata.Buffer
	Indices    *metadata.Buffer
	VAO        *metadata.VertexArray
	IndexCount int32
}

/**
 * @brief Every GPU object and CPU-side array the pipeline owns. One per
 * Renderer, created at startup and destroyed at shutdown.
 */
type RendererContext struct {
	Backend  Backend
	Config   config.RendererConfig
	Capacity config.CapacityConfig
	Sync     *SyncController
	Stats    RendererStatistics

	// Viewport size. The G-buffer and the output follow it.
	Width  uint32
	Height uint32

	// Persistent mapped scene geometry, written by the batcher.
	Vertices     *metadata.Buffer
	Indices      *metadata.Buffer
	Commands     *metadata.Buffer
	CommandData  *metadata.Buffer
	SubMeshDraws *metadata.Buffer
	Transforms   *metadata.Buffer
	SceneVAO     *metadata.VertexArray

	Materials         *metadata.Buffer
	DirectionalLights *metadata.Buffer
	SpotLights        *metadata.Buffer
	PointLights       *metadata.Buffer
	LightMeta         *metadata.Buffer
	Camera            *metadata.Buffer

	ScreenQuad      staticGeometry
	EnvironmentCube staticGeometry

	ShadowTarget *metadata.Framebuffer
	GBuffer      *metadata.Framebuffer
	Output       *metadata.Framebuffer

	Shaders Shaders
}

var screenQuadVertices = []float32{
	-1, -1, 0, 0,
	1, -1, 1, 0,
	1, 1, 1, 1,
	-1, 1, 0, 1,
}

var screenQuadIndices = []uint32{0, 1, 2, 0, 2, 3}

var environmentCubeVertices = []float32{
	-1, -1, -1, 1, -1, -1, 1, 1, -1, -1, 1, -1,
	1, -1, 1, -1, -1, 1, -1, 1, 1, 1, 1, 1,
	-1, -1, 1, -1, -1, -1, -1, 1, -1, -1, 1, 1,
	1, -1, -1, 1, -1, 1, 1, 1, 1, 1, 1, -1,
	-1, 1, -1, 1, 1, -1, 1, 1, 1, -1, 1, 1,
	-1, -1, 1, 1, -1, 1, 1, -1, -1, -1, -1, -1,
}

func environmentCubeIndices() []uint32 {
	indices := make([]uint32, 0, 36)
	for face := uint32(0); face < 6; face++ {
		v := face * 4
		indices = append(indices, v, v+1, v+2, v+2, v+3, v)
	}
	return indices
}

// NewRendererContext creates the scene buffers, render targets and pass
// programs. Shaders are read from fsys, or from the embedded sources when nil.
func NewRendererContext(backend Backend, cfg config.RendererConfig, width, height uint32, fsys fs.FS) (*RendererContext, error) {
	if width == 0 || height == 0 {
		width, height = cfg.GBufferWidth, cfg.GBufferHeight
	}
	if fsys == nil {
		fsys = BuiltinShaders()
	}
	ctx := &RendererContext{
		Backend:  backend,
		Config:   cfg,
		Capacity: cfg.Capacity,
		Sync:     NewSyncController(backend, cfg.FenceTimeoutNs),
		Width:    width,
		Height:   height,
	}

	ctx.createSceneBuffers()
	ctx.createUploadBuffers()
	ctx.ScreenQuad = ctx.createStaticGeometry("screen_quad", screenQuadVertices, screenQuadIndices, 4*4,
		[]metadata.VertexAttribute{
			{Location: 0, Components: 2, Offset: 0},
			{Location: 1, Components: 2, Offset: 2 * 4},
		})
	ctx.EnvironmentCube = ctx.createStaticGeometry("environment_cube", environmentCubeVertices, environmentCubeIndices(), 3*4,
		[]metadata.VertexAttribute{{Location: 0, Components: 3, Offset: 0}})

	ctx.ShadowTarget = backend.CreateFramebuffer(shadowTargetDesc(cfg.ShadowMapSize))
	ctx.GBuffer = backend.CreateFramebuffer(gBufferDesc(width, height))
	ctx.Output = backend.CreateFramebuffer(outputDesc(width, height))

	shaders, err := compileShaders(backend, fsys)
	if err != nil {
		ctx.Destroy()
		return nil, err
	}
	ctx.Shaders = shaders

	core.LogInfo("renderer context created at %dx%d (shadow map %d)", width, height, cfg.ShadowMapSize)
	return ctx, nil
}

func (ctx *RendererContext) createSceneBuffers() {
	c := ctx.Capacity
	ctx.Vertices = ctx.persistentBuffer("scene_vertices", metadata.BufferArray, int(c.MaxVertices)*resources.VerticeSize)
	ctx.Indices = ctx.persistentBuffer("scene_indices", metadata.BufferElementArray, int(c.MaxIndices)*4)
	ctx.Commands = ctx.persistentBuffer("draw_commands", metadata.BufferDrawIndirect,
		int(c.MaxDrawCommands)*metadata.SizeOf[metadata.DrawElementsIndirectCommand]())
	ctx.CommandData = ctx.persistentBuffer("command_data", metadata.BufferShaderStorage,
		int(c.MaxDrawCommands)*metadata.SizeOf[metadata.CommandData]())
	ctx.SubMeshDraws = ctx.persistentBuffer("submesh_draws", metadata.BufferShaderStorage,
		int(c.MaxSubMeshes)*metadata.SizeOf[metadata.SubMeshDraw]())
	ctx.Transforms = ctx.persistentBuffer("transforms", metadata.BufferShaderStorage,
		int(c.MaxDrawCommands)*metadata.SizeOf[mgl32.Mat4]())

	ctx.SceneVAO = ctx.Backend.CreateVertexArray(metadata.VertexArrayDesc{
		Vertices: ctx.Vertices,
		Indices:  ctx.Indices,
		Stride:   resources.VerticeSize,
		Attributes: []metadata.VertexAttribute{
			{Location: 0, Components: 3, Offset: 0},
			{Location: 1, Components: 3, Offset: 12},
			{Location: 2, Components: 2, Offset: 24},
			{Location: 3, Components: 3, Offset: 32},
			{Location: 4, Components: 3, Offset: 44},
		},
	})

	ctx.Backend.BindBufferBase(ctx.Transforms, metadata.SSBOTransforms)
	ctx.Backend.BindBufferBase(ctx.CommandData, metadata.SSBOCommandData)
	ctx.Backend.BindBufferBase(ctx.SubMeshDraws, metadata.SSBOSubMeshDraws)
}

func (ctx *RendererContext) createUploadBuffers() {
	c := ctx.Capacity
	ctx.Materials = ctx.dynamicBuffer("materials", metadata.BufferShaderStorage,
		int(c.MaxMaterials)*metadata.SizeOf[metadata.MaterialUpload]())
	ctx.DirectionalLights = ctx.dynamicBuffer("directional_lights", metadata.BufferShaderStorage,
		int(c.MaxLightsPerType)*metadata.SizeOf[metadata.DirectionalLightUpload]())
	ctx.SpotLights = ctx.dynamicBuffer("spot_lights", metadata.BufferShaderStorage,
		int(c.MaxLightsPerType)*metadata.SizeOf[metadata.SpotLightUpload]())
	ctx.PointLights = ctx.dynamicBuffer("point_lights", metadata.BufferShaderStorage,
		int(c.MaxLightsPerType)*metadata.SizeOf[metadata.PointLightUpload]())
	ctx.LightMeta = ctx.dynamicBuffer("light_meta", metadata.BufferUniform, metadata.SizeOf[metadata.LightMeta]())
	ctx.Camera = ctx.dynamicBuffer("camera", metadata.BufferUniform, metadata.SizeOf[metadata.CameraUpload]())

	ctx.Backend.BindBufferBase(ctx.Materials, metadata.SSBOMaterials)
	ctx.Backend.BindBufferBase(ctx.DirectionalLights, metadata.SSBODirectionalLights)
	ctx.Backend.BindBufferBase(ctx.SpotLights, metadata.SSBOSpotLights)
	ctx.Backend.BindBufferBase(ctx.PointLights, metadata.SSBOPointLights)
	ctx.Backend.BindBufferBase(ctx.LightMeta, metadata.UBOLightMeta)
	ctx.Backend.BindBufferBase(ctx.Camera, metadata.UBOCamera)
}

func (ctx *RendererContext) persistentBuffer(name string, target metadata.BufferTarget, size int) *metadata.Buffer {
	return ctx.Backend.CreateBuffer(metadata.BufferDesc{Name: name, Target: target, Size: size, Persistent: true})
}

func (ctx *RendererContext) dynamicBuffer(name string, target metadata.BufferTarget, size int) *metadata.Buffer {
	return ctx.Backend.CreateBuffer(metadata.BufferDesc{Name: name, Target: target, Size: size})
}

func (ctx *RendererContext) createStaticGeometry(name string, vertices []float32, indices []uint32, stride int32, attributes []metadata.VertexAttribute) staticGeometry {
	g := staticGeometry{IndexCount: int32(len(indices))}
	g.Vertices = ctx.dynamicBuffer(name+"_vertices", metadata.BufferArray, len(vertices)*4)
	g.Indices = ctx.dynamicBuffer(name+"_indices", metadata.BufferElementArray, len(indices)*4)
	ctx.Backend.UploadBufferData(g.Vertices, 0, metadata.AsBytes(vertices))
	ctx.Backend.UploadBufferData(g.Indices, 0, metadata.AsBytes(indices))
	g.VAO = ctx.Backend.CreateVertexArray(metadata.VertexArrayDesc{
		Vertices:   g.Vertices,
		Indices:    g.Indices,
		Stride:     stride,
		Attributes: attributes,
	})
	return g
}

func (g *staticGeometry) destroy(backend Backend) {
	if g.VAO != nil {
		backend.DestroyVertexArray(g.VAO)
	}
	for _, b := range []*metadata.Buffer{g.Vertices, g.Indices} {
		if b != nil {
			backend.DestroyBuffer(b)
		}
	}
	*g = staticGeometry{}
}

// Resize recreates the viewport-sized targets. The shadow target keeps its
// configured size but is recreated too.
func (ctx *RendererContext) Resize(width, height uint32) error {
	if width == 0 || height == 0 {
		return errors.New("cannot resize render targets to zero")
	}
	ctx.Width, ctx.Height = width, height
	ctx.Backend.ResizeFramebuffer(ctx.GBuffer, width, height)
	ctx.Backend.ResizeFramebuffer(ctx.Output, width, height)
	ctx.Backend.ResizeFramebuffer(ctx.ShadowTarget, ctx.Config.ShadowMapSize, ctx.Config.ShadowMapSize)
	if !ctx.GBuffer.Complete || !ctx.Output.Complete {
		err := fmt.Errorf("render targets incomplete after resize to %dx%d", width, height)
		core.LogError(err.Error())
		return err
	}
	return nil
}

// Destroy waits for the GPU and releases every object of the context.
func (ctx *RendererContext) Destroy() {
	ctx.Sync.WaitFence()
	ctx.Sync.Shutdown()

	ctx.Shaders.destroy(ctx.Backend)
	for _, fb := range []*metadata.Framebuffer{ctx.ShadowTarget, ctx.GBuffer, ctx.Output} {
		if fb != nil {
			ctx.Backend.DestroyFramebuffer(fb)
		}
	}
	ctx.ScreenQuad.destroy(ctx.Backend)
	ctx.EnvironmentCube.destroy(ctx.Backend)
	if ctx.SceneVAO != nil {
		ctx.Backend.DestroyVertexArray(ctx.SceneVAO)
	}
	for _, b := range []*metadata.Buffer{
		ctx.Vertices, ctx.Indices, ctx.Commands, ctx.CommandData, ctx.SubMeshDraws, ctx.Transforms,
		ctx.Materials, ctx.DirectionalLights, ctx.SpotLights, ctx.PointLights, ctx.LightMeta, ctx.Camera,
	} {
		if b != nil {
			ctx.Backend.DestroyBuffer(b)
		}
	}
	core.LogInfo("renderer context destroyed")
}
