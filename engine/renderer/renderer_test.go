package renderer

import (
	"io/fs"
	gomath "math"
	"testing"
	"testing/fstest"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/spaghettifunk/lumen/engine/assets/loaders"
	"github.com/spaghettifunk/lumen/engine/config"
	"github.com/spaghettifunk/lumen/engine/core"
	"github.com/spaghettifunk/lumen/engine/renderer/headless"
	"github.com/spaghettifunk/lumen/engine/renderer/metadata"
	"github.com/spaghettifunk/lumen/engine/resources"
	"github.com/spaghettifunk/lumen/engine/scene"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fixture struct {
	backend  *headless.Backend
	renderer *Renderer
	scene    *scene.Scene
}

func testConfig() config.RendererConfig {
	cfg := config.Default().Renderer
	cfg.Capacity = config.CapacityConfig{
		MaxVertices:      1024,
		MaxIndices:       2048,
		MaxDrawCommands:  16,
		MaxSubMeshes:     32,
		MaxMaterials:     8,
		MaxLightsPerType: 4,
	}
	cfg.ShadowMapSize = 256
	return cfg
}

func newFixture(t *testing.T, cfg config.RendererConfig, shaders fs.FS) *fixture {
	t.Helper()
	backend := headless.New()
	require.NoError(t, backend.Initialize("renderer test"))

	cache := resources.NewCache(backend)
	require.NoError(t, cache.Initialize())

	r, err := NewRenderer(backend, cfg, 640, 480, shaders)
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = r.Shutdown()
		_ = cache.Shutdown()
	})

	return &fixture{
		backend:  backend,
		renderer: r,
		scene:    scene.NewScene("test", cache, scene.NewStore(), 640, 480),
	}
}

func decode[T any](data []byte, n int) []T {
	out := make([]T, n)
	copy(metadata.AsBytes(out), data)
	return out
}

// twoPartMesh has a triangle submesh followed by a quad submesh.
func twoPartMesh(t *testing.T, cache *resources.Cache) *resources.Mesh {
	t.Helper()
	m, err := resources.Create[resources.Mesh](cache, "meshes/twopart.mesh")
	require.NoError(t, err)
	for i := 0; i < 7; i++ {
		m.Vertices = append(m.Vertices, resources.Vertice{Position: mgl32.Vec3{float32(i), float32(i * i), 1}})
	}
	m.Indices = []uint32{0, 1, 2, 3, 4, 5, 3, 5, 6}
	m.SubMeshes = []resources.SubMesh{
		{VertexOffset: 0, VertexCount: 3, IndexOffset: 0, IndexCount: 3, Index: 0, Name: "tri"},
		{VertexOffset: 3, VertexCount: 4, IndexOffset: 3, IndexCount: 6, Index: 1, Name: "quad"},
	}
	require.NoError(t, m.Validate())
	return m
}

func redMaterial(t *testing.T, cache *resources.Cache) *resources.Material {
	t.Helper()
	red, err := resources.Create[resources.Material](cache, "materials/red.mat.toml")
	require.NoError(t, err)
	red.Color = mgl32.Vec4{1, 0, 0, 1}
	return red
}

func TestRenderer_BatchesSharedMeshPerEntity(t *testing.T) {
	f := newFixture(t, testConfig(), nil)
	s := f.scene
	mesh := twoPartMesh(t, s.Cache())
	red := redMaterial(t, s.Cache())

	a, err := s.AddMesh(mesh.ID(), "a")
	require.NoError(t, err)
	b, err := s.AddMesh(mesh.ID(), "b")
	require.NoError(t, err)
	require.NoError(t, s.AssignMaterial(a, 1, red.ID()))
	tb, _ := scene.Get[scene.TransformComponent](s.Registry(), b)
	tb.SetPosition(mgl32.Vec3{5, 0, 0})

	require.NoError(t, f.renderer.RenderScene(s))
	ctx := f.renderer.Context()

	redSlot, ok := f.renderer.Materials().Slot(red.ID())
	require.True(t, ok)
	defaultSlot, ok := f.renderer.Materials().Slot(s.Cache().Defaults().Material)
	require.True(t, ok)
	assert.Equal(t, uint32(0), defaultSlot, "the pinned default material comes first")

	commands := decode[metadata.DrawElementsIndirectCommand](f.backend.BufferData(ctx.Commands), 2)
	assert.Equal(t, []metadata.DrawElementsIndirectCommand{
		{Count: 9, InstanceCount: 1, FirstIndex: 0, BaseVertex: 0, BaseInstance: 0},
		{Count: 9, InstanceCount: 1, FirstIndex: 9, BaseVertex: 7, BaseInstance: 1},
	}, commands)

	assert.Equal(t, []metadata.CommandData{{Offset: 0, SubMeshCount: 2}, {Offset: 2, SubMeshCount: 2}},
		decode[metadata.CommandData](f.backend.BufferData(ctx.CommandData), 2))

	assert.Equal(t, []metadata.SubMeshDraw{
		{MaterialSlot: defaultSlot, FirstVertex: 0, VertexCount: 3},
		{MaterialSlot: redSlot, FirstVertex: 3, VertexCount: 4},
		{MaterialSlot: defaultSlot, FirstVertex: 0, VertexCount: 3},
		{MaterialSlot: defaultSlot, FirstVertex: 3, VertexCount: 4},
	}, decode[metadata.SubMeshDraw](f.backend.BufferData(ctx.SubMeshDraws), 4))

	// Every merged triangle must resolve to the same positions as the source.
	vertices := decode[resources.Vertice](f.backend.BufferData(ctx.Vertices), 14)
	indices := decode[uint32](f.backend.BufferData(ctx.Indices), 18)
	for _, cmd := range commands {
		for i := uint32(0); i < cmd.Count; i++ {
			merged := vertices[cmd.BaseVertex+int32(indices[cmd.FirstIndex+i])]
			source := mesh.Vertices[mesh.Indices[i]]
			assert.Equal(t, source.Position, merged.Position)
		}
	}

	transforms := decode[mgl32.Mat4](f.backend.BufferData(ctx.Transforms), 2)
	assert.Equal(t, mgl32.Ident4(), transforms[0])
	assert.Equal(t, mgl32.Translate3D(5, 0, 0), transforms[1])

	stats := f.renderer.Stats()
	assert.Equal(t, uint32(2), stats.DrawCalls)
	assert.Equal(t, uint32(14), stats.RenderedVertices)
	assert.Equal(t, uint32(18), stats.RenderedIndices)
	// default and red material, five 1x1 RGBA8 default maps each
	assert.Equal(t, uint64(2*5*4), stats.TotalTextureBytes)

	assert.False(t, s.IsRegistryDirty())
	assert.False(t, s.IsMaterialsDirty())
}

func TestRenderer_InactiveEntitiesAreSkipped(t *testing.T) {
	f := newFixture(t, testConfig(), nil)
	s := f.scene
	_, err := s.AddCube("visible")
	require.NoError(t, err)
	hidden, err := s.AddCube("hidden")
	require.NoError(t, err)
	s.SetActive(hidden, false)

	require.NoError(t, f.renderer.RenderScene(s))
	assert.Equal(t, int32(1), f.renderer.batcher.Commands())
	assert.Equal(t, uint32(24), f.renderer.Stats().RenderedVertices)
}

func TestMaterialUploader_Idempotent(t *testing.T) {
	f := newFixture(t, testConfig(), nil)
	s := f.scene
	red := redMaterial(t, s.Cache())
	red.FlipY = true
	red.NormalStrength = 0.5
	e, err := s.AddCube("cube")
	require.NoError(t, err)
	require.NoError(t, s.AssignMaterial(e, 0, red.ID()))

	mu := f.renderer.Materials()
	var stats RendererStatistics
	require.NoError(t, mu.Upload(s.Cache(), &stats))
	first := append([]metadata.MaterialUpload(nil), mu.Uploads()...)
	firstSlots := mu.Slots()
	firstBytes := stats.TotalTextureBytes

	require.NoError(t, mu.Upload(s.Cache(), &stats))
	assert.Equal(t, first, mu.Uploads())
	assert.Equal(t, firstSlots, mu.Slots())
	assert.Equal(t, firstBytes, stats.TotalTextureBytes)

	slot, ok := mu.Slot(red.ID())
	require.True(t, ok)
	up := mu.Uploads()[slot]
	assert.Equal(t, mgl32.Vec4{1, 0, 0, 1}, up.Color)
	assert.Equal(t, mgl32.Vec4{1, 1, 0.5, -1}, up.UVScale)
	for slot, id := range s.Cache().Defaults().Textures {
		tex, ok := resources.GetByUUID[resources.ImageTexture](s.Cache(), id)
		require.True(t, ok)
		assert.Equal(t, tex.Handle.Bindless, up.Maps[slot])
	}
}

func TestMaterialUploader_SkipsUnreferenced(t *testing.T) {
	f := newFixture(t, testConfig(), nil)
	red := redMaterial(t, f.scene.Cache())

	mu := f.renderer.Materials()
	require.NoError(t, mu.Upload(f.scene.Cache(), &RendererStatistics{}))
	assert.Equal(t, uint32(1), mu.Count())
	_, ok := mu.Slot(red.ID())
	assert.False(t, ok)
}

func TestRenderer_MaterialChangeRebatches(t *testing.T) {
	f := newFixture(t, testConfig(), nil)
	s := f.scene
	red := redMaterial(t, s.Cache())
	e, err := s.AddCube("cube")
	require.NoError(t, err)
	require.NoError(t, f.renderer.RenderScene(s))

	draws := decode[metadata.SubMeshDraw](f.backend.BufferData(f.renderer.Context().SubMeshDraws), 1)
	assert.Equal(t, uint32(0), draws[0].MaterialSlot)

	require.NoError(t, s.AssignMaterial(e, 0, red.ID()))
	require.NoError(t, f.renderer.RenderScene(s))
	redSlot, _ := f.renderer.Materials().Slot(red.ID())
	draws = decode[metadata.SubMeshDraw](f.backend.BufferData(f.renderer.Context().SubMeshDraws), 1)
	assert.Equal(t, redSlot, draws[0].MaterialSlot)
}

func TestRenderer_FenceDiscipline(t *testing.T) {
	f := newFixture(t, testConfig(), nil)
	f.backend.SignalAfterPolls = 2
	s := f.scene
	e, err := s.AddCube("cube")
	require.NoError(t, err)

	require.NoError(t, f.renderer.RenderScene(s))
	ctx := f.renderer.Context()
	assert.Equal(t, FencePending, ctx.Sync.State())
	assert.Equal(t, 1, f.backend.LiveFences())

	// Nothing dirty: no wait, the fence is replaced by the new frame's.
	require.NoError(t, f.renderer.RenderScene(s))
	assert.Equal(t, 1, f.backend.LiveFences())
	assert.Empty(t, f.backend.CallNames("ClientWaitSync"))

	tc, _ := scene.Get[scene.TransformComponent](s.Registry(), e)
	tc.SetPosition(mgl32.Vec3{0, 1, 0})
	f.backend.Reset()
	require.NoError(t, f.renderer.RenderScene(s))

	assert.Len(t, f.backend.CallNames("ClientWaitSync"), 3)
	last, _ := ctx.Sync.Polls()
	assert.Equal(t, 3, last)
	assert.Equal(t, 3, f.renderer.Stats().FencePolls)
	assert.Equal(t, 0, ctx.Sync.Overlaps())

	transforms := decode[mgl32.Mat4](f.backend.BufferData(ctx.Transforms), 1)
	assert.Equal(t, mgl32.Translate3D(0, 1, 0), transforms[0])

	f.renderer.WaitIdle()
	assert.Equal(t, FenceUnset, ctx.Sync.State())
	assert.Equal(t, 0, f.backend.LiveFences())
}

func TestSyncController_StateMachine(t *testing.T) {
	backend := headless.New()
	sc := NewSyncController(backend, 1000)

	assert.True(t, sc.WaitFence(), "waiting without a fence is a no-op")
	assert.Equal(t, FenceUnset, sc.State())

	sc.LockFence()
	sc.LockFence()
	assert.Equal(t, FencePending, sc.State())
	assert.Equal(t, 1, backend.LiveFences(), "relocking replaces the older fence")

	sc.BeginWrite("scene_vertices")
	assert.Equal(t, 1, sc.Overlaps())

	assert.True(t, sc.WaitFence())
	assert.Equal(t, FenceUnset, sc.State())
	assert.Equal(t, 0, backend.LiveFences())
	last, total := sc.Polls()
	assert.Equal(t, 1, last)
	assert.Equal(t, 1, total)

	sc.BeginWrite("scene_vertices")
	assert.Equal(t, 1, sc.Overlaps())

	backend.FailWait = true
	sc.LockFence()
	assert.False(t, sc.WaitFence())
	assert.Equal(t, FenceUnset, sc.State())
	assert.Equal(t, 0, backend.LiveFences())
	assert.Equal(t, "unset", sc.State().String())
}

func TestRenderer_LightScenario(t *testing.T) {
	f := newFixture(t, testConfig(), nil)
	s := f.scene
	_, err := s.AddCube("cube")
	require.NoError(t, err)
	s.AddDirectionalLight(mgl32.Vec3{0, 2, 0})
	point := s.AddPointLight()
	tc, _ := scene.Get[scene.TransformComponent](s.Registry(), point)
	tc.SetPosition(mgl32.Vec3{1, 0, 0})

	require.NoError(t, f.renderer.RenderScene(s))
	ctx := f.renderer.Context()

	meta := decode[metadata.LightMeta](f.backend.BufferData(ctx.LightMeta), 1)[0]
	assert.Equal(t, int32(1), meta.NDirectionLight)
	assert.Equal(t, int32(1), meta.NPointLight)
	assert.Equal(t, int32(0), meta.NSpotLight)
	assert.Equal(t, s.Camera.Position.Vec4(1), meta.ViewPos)

	dir := decode[metadata.DirectionalLightUpload](f.backend.BufferData(ctx.DirectionalLights), 1)[0]
	assert.Equal(t, mgl32.Vec4{0, 1, 0, 0}, dir.Direction)

	light, _ := scene.Get[scene.LightComponent](s.Registry(), point)
	want := tc.Model().Mul4x1(light.Position.Vec4(1))
	got := decode[metadata.PointLightUpload](f.backend.BufferData(ctx.PointLights), 1)[0]
	assert.Equal(t, want, got.Position)
	assert.Equal(t, mgl32.Vec4{1, 2.5, 2.5, 1}, got.Position)

	assert.NotEqual(t, mgl32.Ident4(), f.renderer.LightSpace())
	var shadowDraws int
	for _, d := range f.backend.Draws {
		if d.Framebuffer == ctx.ShadowTarget.ID {
			shadowDraws++
			assert.Equal(t, metadata.CullFront, d.Cull)
		}
	}
	assert.Equal(t, 1, shadowDraws)
}

func TestLightUploader_SpotCones(t *testing.T) {
	f := newFixture(t, testConfig(), nil)
	s := f.scene
	spot := s.AddSpotLight()
	tc, _ := scene.Get[scene.TransformComponent](s.Registry(), spot)
	tc.SetRotation(mgl32.Vec3{0, 0, 90})

	lu := f.renderer.Lights()
	require.NoError(t, lu.Upload(s, mgl32.Vec3{}))
	require.Len(t, lu.Spot(), 1)

	up := lu.Spot()[0]
	assert.InDelta(t, gomath.Cos(float64(mgl32.DegToRad(5))), up.Position.W(), 1e-5)
	assert.InDelta(t, gomath.Cos(float64(mgl32.DegToRad(30))), up.Color.W(), 1e-5)
	assert.InDelta(t, 1, up.Direction.Vec3().Len(), 1e-5)
	assert.Equal(t, float32(0), up.Direction.W())
	assert.Empty(t, lu.Point())
	_, ok := lu.FirstDirection()
	assert.False(t, ok)
}

func TestRenderer_CapacityExceeded(t *testing.T) {
	cfg := testConfig()
	cfg.Capacity.MaxDrawCommands = 1
	f := newFixture(t, cfg, nil)
	s := f.scene
	for _, name := range []string{"a", "b"} {
		_, err := s.AddCube(name)
		require.NoError(t, err)
	}

	err := f.renderer.RenderScene(s)
	assert.ErrorIs(t, err, core.ErrCapacityExceeded)
	assert.True(t, s.IsRegistryDirty(), "a failed batch is retried next frame")
	assert.Equal(t, int32(0), f.renderer.batcher.Commands())
	assert.Equal(t, make([]byte, len(f.backend.BufferData(f.renderer.Context().Commands))),
		f.backend.BufferData(f.renderer.Context().Commands), "nothing is written past the check")
}

func TestRenderer_InvalidSubMeshIsRejected(t *testing.T) {
	f := newFixture(t, testConfig(), nil)
	s := f.scene
	mesh := twoPartMesh(t, s.Cache())
	// the quad's indices are local to the submesh instead of the mesh
	mesh.Indices = []uint32{0, 1, 2, 0, 1, 2, 0, 2, 3}
	_, err := s.AddMesh(mesh.ID(), "broken")
	require.NoError(t, err)

	err = f.renderer.RenderScene(s)
	assert.ErrorIs(t, err, core.ErrInvalidSubMesh)
	assert.True(t, s.IsRegistryDirty())
	assert.Equal(t, int32(0), f.renderer.batcher.Commands())
	indices := f.backend.BufferData(f.renderer.Context().Indices)
	assert.Equal(t, make([]byte, len(indices)), indices, "no index is written for a broken mesh")

	// a submesh range past the arrays is reported the same way
	mesh.Indices = []uint32{0, 1, 2, 3, 4, 5, 3, 5, 6}
	mesh.SubMeshes[1].VertexCount = 9
	assert.ErrorIs(t, f.renderer.RenderScene(s), core.ErrInvalidSubMesh)
}

func TestRenderer_MaterialAndLightCapacity(t *testing.T) {
	cfg := testConfig()
	cfg.Capacity.MaxMaterials = 1
	cfg.Capacity.MaxLightsPerType = 1
	f := newFixture(t, cfg, nil)
	s := f.scene

	s.AddPointLight()
	s.AddPointLight()
	err := f.renderer.Lights().Upload(s, mgl32.Vec3{})
	assert.ErrorIs(t, err, core.ErrCapacityExceeded)

	red := redMaterial(t, s.Cache())
	e, err := s.AddCube("cube")
	require.NoError(t, err)
	require.NoError(t, s.AssignMaterial(e, 0, red.ID()))
	err = f.renderer.Materials().Upload(s.Cache(), &RendererStatistics{})
	assert.ErrorIs(t, err, core.ErrCapacityExceeded)
}

func TestRenderer_Resize(t *testing.T) {
	f := newFixture(t, testConfig(), nil)
	ctx := f.renderer.Context()

	bus := core.NewEventBus(8)
	require.True(t, bus.Register(core.EVENT_CODE_RESIZED, f.renderer, f.renderer.OnResize))
	bus.Fire(core.EVENT_CODE_RESIZED, nil, core.ResizeContext(1024, 768))

	assert.Equal(t, uint32(1024), ctx.Width)
	assert.Equal(t, uint32(768), ctx.Height)
	for _, fb := range []*metadata.Framebuffer{ctx.GBuffer, ctx.Output} {
		assert.Equal(t, uint32(1024), fb.Desc.Width)
		assert.Equal(t, uint32(768), fb.Desc.Height)
		assert.True(t, fb.Complete)
		for _, a := range fb.Attachments {
			tex, ok := f.backend.Texture(a.ID)
			require.True(t, ok)
			assert.Equal(t, uint32(1024), tex.Desc.Width)
		}
	}
	assert.Equal(t, uint32(256), ctx.ShadowTarget.Desc.Width)
	assert.Len(t, ctx.GBuffer.Attachments, GBufferAttachmentCount)

	bus.Fire(core.EVENT_CODE_RESIZED, nil, core.ResizeContext(0, 0))
	assert.Equal(t, uint32(1024), ctx.Width, "minimized windows keep the last size")
	assert.Error(t, ctx.Resize(0, 10))

	output := f.renderer.RenderOutput()
	assert.Equal(t, ctx.Output.ColorAttachments()[0].ID, output)

	assert.True(t, f.renderer.Present(1024, 768))
	assert.Equal(t, []string{"Present"}, f.backend.CallNames("Present"))
}

func TestRenderer_InvalidShaderDrawsNothing(t *testing.T) {
	shaders := fstest.MapFS{}
	require.NoError(t, fs.WalkDir(BuiltinShaders(), ".", func(path string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return err
		}
		data, err := fs.ReadFile(BuiltinShaders(), path)
		shaders[path] = &fstest.MapFile{Data: data}
		return err
	}))
	shaders["gbuffer.frag"] = &fstest.MapFile{Data: []byte("#version 460 core\nout vec4 color;\n")}

	f := newFixture(t, testConfig(), shaders)
	ctx := f.renderer.Context()
	assert.False(t, ctx.Shaders.GBuffer.Valid)
	assert.True(t, ctx.Shaders.Lighting.Valid)

	_, err := f.scene.AddCube("cube")
	require.NoError(t, err)
	require.NoError(t, f.renderer.RenderScene(f.scene))

	for _, d := range f.backend.Draws {
		assert.NotEqual(t, ctx.GBuffer.ID, d.Framebuffer, "no geometry drawn with an invalid program")
	}
	assert.Equal(t, FencePending, ctx.Sync.State(), "the frame still completes")
}

func TestRenderer_ReloadShader(t *testing.T) {
	f := newFixture(t, testConfig(), nil)
	ctx := f.renderer.Context()
	before := ctx.Shaders.GBuffer

	src, err := loaders.ReadShaderSourcesFS(BuiltinShaders(), ".", ShaderGBuffer)
	require.NoError(t, err)

	broken := *src
	broken.Fragment = "#version 460 core\n"
	assert.False(t, f.renderer.ReloadShader(&broken))
	assert.Equal(t, before, ctx.Shaders.GBuffer, "a broken program keeps the previous one")

	assert.True(t, f.renderer.ReloadShader(src))
	assert.True(t, ctx.Shaders.GBuffer.Valid)
	assert.NotEqual(t, before.ID, ctx.Shaders.GBuffer.ID)

	assert.False(t, f.renderer.ReloadShader(&loaders.ShaderSources{Name: "unknown"}))
}

func TestRenderer_MissingShaderFails(t *testing.T) {
	backend := headless.New()
	_, err := NewRenderer(backend, testConfig(), 64, 64, fstest.MapFS{})
	assert.Error(t, err)
}

func TestRenderer_EnvironmentPass(t *testing.T) {
	cfg := testConfig()
	cfg.EnvironmentPass = true
	f := newFixture(t, cfg, nil)
	s := f.scene

	env, err := resources.Create[resources.Environment](s.Cache(), "sky/sky.cube")
	require.NoError(t, err)
	var faces [6]metadata.TextureDesc
	for i := range faces {
		faces[i] = metadata.TextureDesc{Width: 1, Height: 1, Channels: 4, BitsPerChannel: 8, Pixels: []byte{1, 2, 3, 4}}
	}
	env.Handle = f.backend.CreateCubeMap(faces)
	s.Environment = env

	f.backend.Reset()
	require.NoError(t, f.renderer.RenderScene(s))
	assert.Contains(t, f.backend.CallNames("BindCubeMapUnit"), "BindCubeMapUnit")

	ctx := f.renderer.Context()
	last := f.backend.Draws[len(f.backend.Draws)-1]
	assert.Equal(t, ctx.Output.ID, last.Framebuffer)
	assert.Equal(t, ctx.Shaders.Environment.ID, last.Shader)
	assert.Equal(t, ctx.EnvironmentCube.IndexCount, last.Count)
}
