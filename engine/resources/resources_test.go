package resources

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/google/uuid"
	"github.com/spaghettifunk/lumen/engine/assets/loaders"
	"github.com/spaghettifunk/lumen/engine/core"
	"github.com/spaghettifunk/lumen/engine/renderer/headless"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestCache(t *testing.T) (*Cache, *headless.Backend) {
	t.Helper()
	gpu := headless.New()
	c := NewCache(gpu)
	require.NoError(t, c.Initialize())
	t.Cleanup(func() { _ = c.Shutdown() })
	return c, gpu
}

func writePNG(t *testing.T, path string, c color.Color) {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, 2, 2))
	for y := 0; y < 2; y++ {
		for x := 0; x < 2; x++ {
			img.Set(x, y, c)
		}
	}
	f, err := os.Create(path)
	require.NoError(t, err)
	require.NoError(t, png.Encode(f, img))
	require.NoError(t, f.Close())
}

func twoSubMeshMesh() *Mesh {
	m := &Mesh{}
	m.name = "Pair"
	for i := 0; i < 7; i++ {
		m.Vertices = append(m.Vertices, Vertice{Position: mgl32.Vec3{float32(i), 0, 0}, UV: mgl32.Vec2{float32(i % 2), float32(i / 2)}})
	}
	m.Indices = []uint32{0, 1, 2, 3, 4, 5, 4, 5, 6}
	m.SubMeshes = []SubMesh{
		{VertexOffset: 0, VertexCount: 3, IndexOffset: 0, IndexCount: 3, Index: 0, Name: "left"},
		{VertexOffset: 3, VertexCount: 4, IndexOffset: 3, IndexCount: 6, Index: 1, Name: "right"},
	}
	return m
}

func TestInitialize_Defaults(t *testing.T) {
	c, gpu := newTestCache(t)
	d := c.Defaults()

	cube, ok := GetByUUID[Mesh](c, d.Cube)
	require.True(t, ok)
	assert.Equal(t, "Cube", cube.Name())
	assert.Len(t, cube.Vertices, 24)
	assert.Len(t, cube.Indices, 36)
	require.Len(t, cube.SubMeshes, 1)
	assert.NoError(t, cube.Validate())
	assert.Equal(t, []uint32{0, 1, 2, 2, 3, 0}, cube.Indices[:6])

	plane, ok := GetByName[Mesh](c, "Plane")
	require.True(t, ok)
	assert.Len(t, plane.Vertices, 4)
	assert.Len(t, plane.Indices, 6)
	for _, v := range plane.Vertices {
		assert.Equal(t, float32(-1), v.Position.Y())
	}

	normal, ok := GetByUUID[ImageTexture](c, d.Textures[TextureMapNormal])
	require.True(t, ok)
	require.True(t, normal.Handle.Valid)
	stored, ok := gpu.Texture(normal.Handle.ID)
	require.True(t, ok)
	assert.Equal(t, []byte{128, 128, 255, 255}, stored.Desc.Pixels)

	mat, ok := GetByUUID[Material](c, d.Material)
	require.True(t, ok)
	assert.Equal(t, DefaultMaterialColor, mat.Color)
	assert.Equal(t, d.Textures, mat.Maps)
	assert.Equal(t, 1, mat.RefCount())
}

func TestGenerateTangents_Cube(t *testing.T) {
	c, _ := newTestCache(t)
	cube, _ := GetByUUID[Mesh](c, c.Defaults().Cube)
	for _, v := range cube.Vertices {
		assert.InDelta(t, 1.0, v.Tangent.Len(), 1e-5)
		assert.InDelta(t, 0.0, v.Tangent.Dot(v.Normal), 1e-5)
	}
}

func TestCreate_NameAndDefaults(t *testing.T) {
	c, _ := newTestCache(t)
	mat, err := Create[Material](c, "materials/Rock.mat.toml")
	require.NoError(t, err)
	assert.Equal(t, "Rock", mat.Name())
	assert.Equal(t, mgl32.Vec4{1, 1, 1, 1}, mat.Color)
	assert.Equal(t, mgl32.Vec2{1, 1}, mat.UVScale)
	assert.NotEqual(t, uuid.Nil, mat.ID())

	_, err = Create[Material](c, "materials/Rock.mat.toml")
	assert.ErrorIs(t, err, core.ErrResourceAlreadyCached)
}

func TestLookups(t *testing.T) {
	c, _ := newTestCache(t)
	mat, err := Create[Material](c, "Brick.mat.toml")
	require.NoError(t, err)

	got, ok := GetByPath[Material](c, "Brick.mat.toml")
	require.True(t, ok)
	assert.Same(t, mat, got)

	got, ok = GetByName[Material](c, "Brick")
	require.True(t, ok)
	assert.Same(t, mat, got)

	// wrong kind never panics
	_, ok = GetByUUID[Mesh](c, mat.ID())
	assert.False(t, ok)
	_, ok = GetByUUID[Material](c, uuid.New())
	assert.False(t, ok)

	mats := GetByType[Material](c)
	require.Len(t, mats, 2)
	assert.Equal(t, c.Defaults().Material, mats[0].ID())
	assert.Equal(t, mat.ID(), mats[1].ID())

	meshes := GetByType[Mesh](c)
	require.Len(t, meshes, 2)
	assert.Equal(t, "Cube", meshes[0].Name())
	assert.Equal(t, "Plane", meshes[1].Name())
}

func TestUseUnuse(t *testing.T) {
	c, _ := newTestCache(t)
	mat, err := Create[Material](c, "Wood.mat.toml")
	require.NoError(t, err)

	c.Use(mat.ID())
	c.Use(mat.ID())
	assert.Equal(t, 2, mat.RefCount())
	c.Unuse(mat.ID())
	c.Unuse(mat.ID())
	assert.Equal(t, 0, mat.RefCount())

	assert.PanicsWithError(t, core.ErrNegativeRefCount.Error()+": Wood ("+mat.ID().String()+")", func() {
		c.Unuse(mat.ID())
	})
	assert.Equal(t, 0, mat.RefCount())
}

func TestDuplicate_Naming(t *testing.T) {
	c, gpu := newTestCache(t)
	d := c.Defaults()

	first, err := Duplicate[Mesh](c, d.Cube)
	require.NoError(t, err)
	second, err := Duplicate[Mesh](c, d.Cube)
	require.NoError(t, err)

	assert.Equal(t, "Cube (1)", first.Name())
	assert.Equal(t, "Cube (2)", second.Name())
	assert.NotEqual(t, d.Cube, first.ID())
	assert.Equal(t, 0, first.RefCount())

	cube, _ := GetByUUID[Mesh](c, d.Cube)
	first.Vertices[0].Position = mgl32.Vec3{9, 9, 9}
	assert.NotEqual(t, cube.Vertices[0].Position, first.Vertices[0].Position)

	before := gpu.TextureCount()
	tex, err := Duplicate[ImageTexture](c, d.Textures[TextureMapAlbedo])
	require.NoError(t, err)
	assert.True(t, tex.Handle.Valid)
	assert.Equal(t, before+1, gpu.TextureCount())
	src, _ := GetByUUID[ImageTexture](c, d.Textures[TextureMapAlbedo])
	assert.NotEqual(t, src.Handle.ID, tex.Handle.ID)

	_, err = Duplicate[Mesh](c, uuid.New())
	assert.ErrorIs(t, err, core.ErrResourceNotFound)
}

func TestLoad_Errors(t *testing.T) {
	c, _ := newTestCache(t)

	_, err := Load[ImageTexture](c, filepath.Join(t.TempDir(), "missing.png"))
	assert.ErrorIs(t, err, core.ErrResourceNotFound)

	bad := filepath.Join(t.TempDir(), "bad.png")
	require.NoError(t, os.WriteFile(bad, []byte("garbage"), 0o644))
	_, err = Load[ImageTexture](c, bad)
	assert.Error(t, err)
	assert.False(t, c.Contains(bad), "failed loads are not cached")
}

func TestMeshFile_RoundTrip(t *testing.T) {
	src := twoSubMeshMesh()
	src.GenerateTangents()
	require.NoError(t, src.Validate())

	var buf bytes.Buffer
	require.NoError(t, EncodeMesh(&buf, src))
	expected := resourceHeaderSize + meshFileHeaderSize + 2*subMeshHeaderSize + 7*VerticeSize + 9*4 + len("Pair\x00left\x00right\x00")
	assert.Equal(t, expected, buf.Len())

	data, err := DecodeMesh(bytes.NewReader(buf.Bytes()))
	require.NoError(t, err)
	assert.Equal(t, "Pair", data.Name)
	assert.Equal(t, src.Vertices, data.Vertices)
	assert.Equal(t, src.Indices, data.Indices)
	assert.Equal(t, src.SubMeshes, data.SubMeshes)
}

func TestMeshFile_LoadThroughCache(t *testing.T) {
	c, _ := newTestCache(t)
	path := filepath.Join(t.TempDir(), "Pair.mesh")
	require.NoError(t, WriteMeshFile(path, twoSubMeshMesh()))

	m, err := Load[Mesh](c, path)
	require.NoError(t, err)
	assert.Equal(t, "Pair", m.Name())
	assert.Len(t, m.SubMeshes, 2)
	assert.Equal(t, "right", m.SubMesh(1).Name)
	assert.Panics(t, func() { m.SubMesh(2) })

	m.Indices[0] = 6
	assert.ErrorIs(t, m.Save(path), core.ErrInvalidSubMesh)
}

func TestMeshFile_Invalid(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, EncodeMesh(&buf, twoSubMeshMesh()))
	good := buf.Bytes()

	badMagic := append([]byte(nil), good...)
	badMagic[0] ^= 0xff
	_, err := DecodeMesh(bytes.NewReader(badMagic))
	assert.ErrorIs(t, err, core.ErrInvalidMeshFile)

	badVersion := append([]byte(nil), good...)
	badVersion[5] = 9
	_, err = DecodeMesh(bytes.NewReader(badVersion))
	assert.ErrorIs(t, err, core.ErrInvalidMeshFile)

	_, err = DecodeMesh(bytes.NewReader(good[:len(good)-4]))
	assert.ErrorIs(t, err, core.ErrInvalidMeshFile)

	// second submesh claims more vertices than the file holds
	badRange := append([]byte(nil), good...)
	off := resourceHeaderSize + meshFileHeaderSize + subMeshHeaderSize + 4
	badRange[off] = 200
	_, err = DecodeMesh(bytes.NewReader(badRange))
	assert.ErrorIs(t, err, core.ErrInvalidMeshFile)
}

func TestMesh_Validate(t *testing.T) {
	m := twoSubMeshMesh()
	assert.NoError(t, m.Validate())

	m.SubMeshes[1].IndexCount = 10
	assert.ErrorIs(t, m.Validate(), core.ErrInvalidSubMesh)

	m = twoSubMeshMesh()
	m.Indices[0] = 5
	assert.ErrorIs(t, m.Validate(), core.ErrInvalidSubMesh)
}

func TestMaterial_LoadResolvesTextures(t *testing.T) {
	c, _ := newTestCache(t)
	dir := t.TempDir()
	require.NoError(t, os.Mkdir(filepath.Join(dir, "textures"), 0o755))
	writePNG(t, filepath.Join(dir, "textures", "rock.png"), color.NRGBA{200, 100, 50, 255})

	mf := loaders.DefaultMaterialFile()
	mf.Color = [4]float32{0.5, 0.5, 0.5, 1}
	mf.FlipY = true
	mf.Maps.Albedo = "textures/rock.png"
	mf.Maps.Normal = "textures/missing.png"
	path := filepath.Join(dir, "Rock.mat.toml")
	require.NoError(t, loaders.WriteMaterialFile(path, &mf))

	mat, err := Load[Material](c, path)
	require.NoError(t, err)
	assert.Equal(t, "Rock", mat.Name())
	assert.Equal(t, mgl32.Vec4{0.5, 0.5, 0.5, 1}, mat.Color)
	assert.True(t, mat.FlipY)

	tex, ok := GetByPath[ImageTexture](c, filepath.Join(dir, "textures", "rock.png"))
	require.True(t, ok)
	assert.Equal(t, tex.ID(), mat.Map(TextureMapAlbedo))
	assert.Equal(t, uint64(2*2*4), tex.ByteSize())
	assert.Equal(t, c.Defaults().Textures[TextureMapNormal], mat.Map(TextureMapNormal))

	// a second material sharing the texture does not load it again
	other := filepath.Join(dir, "Other.mat.toml")
	require.NoError(t, loaders.WriteMaterialFile(other, &mf))
	before := c.Len()
	mat2, err := Load[Material](c, other)
	require.NoError(t, err)
	assert.Equal(t, before+1, c.Len())
	assert.Equal(t, tex.ID(), mat2.Map(TextureMapAlbedo))

	saved := filepath.Join(dir, "Saved.mat.toml")
	require.NoError(t, mat.Save(saved))
	back, err := loaders.ReadMaterialFile(saved)
	require.NoError(t, err)
	assert.Equal(t, "textures/rock.png", back.Maps.Albedo)
	assert.Empty(t, back.Maps.Normal)
}

func TestReload(t *testing.T) {
	c, gpu := newTestCache(t)
	path := filepath.Join(t.TempDir(), "tile.png")
	writePNG(t, path, color.NRGBA{255, 0, 0, 255})

	tex, err := Load[ImageTexture](c, path)
	require.NoError(t, err)
	oldHandle := tex.Handle.ID

	writePNG(t, path, color.NRGBA{0, 255, 0, 255})
	require.NoError(t, c.Reload(path))
	assert.NotEqual(t, oldHandle, tex.Handle.ID)
	_, alive := gpu.Texture(oldHandle)
	assert.False(t, alive)
	assert.Equal(t, []byte{0, 255, 0, 255}, tex.ImageData().Pixels[:4])

	assert.ErrorIs(t, c.Reload("nowhere.png"), core.ErrResourceNotFound)
}

func TestEnvironment_Load(t *testing.T) {
	c, gpu := newTestCache(t)
	dir := t.TempDir()
	list := &loaders.CubeMapList{}
	for i, face := range loaders.CubeMapFaces {
		list.Faces[i] = filepath.Join(dir, face+".png")
		writePNG(t, list.Faces[i], color.NRGBA{uint8(i * 40), 0, 0, 255})
	}
	path := filepath.Join(dir, "Sky.env")
	require.NoError(t, loaders.WriteCubeMapList(path, list))

	env, err := Load[Environment](c, path)
	require.NoError(t, err)
	require.True(t, env.Handle.Valid)
	stored, ok := gpu.Texture(env.Handle.ID)
	require.True(t, ok)
	assert.True(t, stored.CubeMap)
	assert.Equal(t, list.Faces, env.Faces)

	var mismatched [6]*loaders.ImageData
	for i := range mismatched {
		mismatched[i] = &loaders.ImageData{Width: 1, Height: 1, Channels: 4, BitsPerChannel: 8, Pixels: make([]byte, 4)}
	}
	mismatched[3] = &loaders.ImageData{Width: 2, Height: 2, Channels: 4, BitsPerChannel: 8, Pixels: make([]byte, 16)}
	assert.ErrorIs(t, env.Upload(mismatched), core.ErrUnsupportedFormat)
}

func TestShutdown_ReleasesTextures(t *testing.T) {
	gpu := headless.New()
	c := NewCache(gpu)
	require.NoError(t, c.Initialize())
	assert.Equal(t, int(TextureMapCount), gpu.TextureCount())

	require.NoError(t, c.Shutdown())
	assert.Equal(t, 0, gpu.TextureCount())
	assert.Equal(t, 0, c.Len())
}
