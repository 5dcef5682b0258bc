package loaders

import (
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeTestPNG(t *testing.T, path string, img image.Image) {
	t.Helper()
	f, err := os.Create(path)
	require.NoError(t, err)
	require.NoError(t, png.Encode(f, img))
	require.NoError(t, f.Close())
}

func TestDecodeImage_RGBA(t *testing.T) {
	path := filepath.Join(t.TempDir(), "checker.png")
	img := image.NewNRGBA(image.Rect(0, 0, 2, 2))
	img.Set(0, 0, color.NRGBA{255, 0, 0, 255})
	img.Set(1, 0, color.NRGBA{0, 255, 0, 255})
	img.Set(0, 1, color.NRGBA{0, 0, 255, 255})
	img.Set(1, 1, color.NRGBA{255, 255, 255, 128})
	writeTestPNG(t, path, img)

	data, err := DecodeImage(path, false)
	require.NoError(t, err)
	assert.Equal(t, uint32(2), data.Width)
	assert.Equal(t, uint32(2), data.Height)
	assert.Equal(t, uint8(4), data.Channels)
	assert.Equal(t, uint8(8), data.BitsPerChannel)
	require.Len(t, data.Pixels, 16)
	assert.Equal(t, []byte{255, 0, 0, 255}, data.Pixels[0:4])
	assert.Equal(t, []byte{255, 255, 255, 128}, data.Pixels[12:16])

	flipped, err := DecodeImage(path, true)
	require.NoError(t, err)
	assert.Equal(t, []byte{0, 0, 255, 255}, flipped.Pixels[0:4])
	assert.Equal(t, []byte{255, 0, 0, 255}, flipped.Pixels[8:12])
}

func TestDecodeImage_Gray(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rough.png")
	img := image.NewGray(image.Rect(0, 0, 3, 1))
	img.SetGray(0, 0, color.Gray{10})
	img.SetGray(1, 0, color.Gray{128})
	img.SetGray(2, 0, color.Gray{250})
	writeTestPNG(t, path, img)

	data, err := DecodeImage(path, false)
	require.NoError(t, err)
	assert.Equal(t, uint8(1), data.Channels)
	assert.Equal(t, []byte{10, 128, 250}, data.Pixels)
}

func TestDecodeImage_Gray16LittleEndian(t *testing.T) {
	path := filepath.Join(t.TempDir(), "height.png")
	img := image.NewGray16(image.Rect(0, 0, 1, 1))
	img.SetGray16(0, 0, color.Gray16{0x1234})
	writeTestPNG(t, path, img)

	data, err := DecodeImage(path, false)
	require.NoError(t, err)
	assert.Equal(t, uint8(16), data.BitsPerChannel)
	assert.Equal(t, []byte{0x34, 0x12}, data.Pixels)
}

func TestDecodeImage_Errors(t *testing.T) {
	_, err := DecodeImage(filepath.Join(t.TempDir(), "missing.png"), false)
	assert.ErrorIs(t, err, os.ErrNotExist)

	bad := filepath.Join(t.TempDir(), "bad.png")
	require.NoError(t, os.WriteFile(bad, []byte("not an image"), 0o644))
	_, err = DecodeImage(bad, false)
	assert.Error(t, err)
}

func TestWritePNG_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.png")
	in := &ImageData{Width: 1, Height: 2, Channels: 4, BitsPerChannel: 8, Pixels: []byte{1, 2, 3, 255, 4, 5, 6, 255}}
	require.NoError(t, WritePNG(path, in))

	out, err := DecodeImage(path, false)
	require.NoError(t, err)
	assert.Equal(t, in, out)

	assert.Error(t, WritePNG(path, &ImageData{Width: 1, Height: 1, Channels: 3, BitsPerChannel: 8, Pixels: []byte{1, 2, 3}}))
}

func TestParseMaterial_Defaults(t *testing.T) {
	mf, err := ParseMaterial([]byte(`name = "Bricks"`))
	require.NoError(t, err)
	assert.Equal(t, "Bricks", mf.Name)
	assert.Equal(t, [4]float32{1, 1, 1, 1}, mf.Color)
	assert.Equal(t, [2]float32{1, 1}, mf.UVScale)
	assert.Equal(t, float32(1), mf.NormalStrength)
	assert.Empty(t, mf.Maps.Albedo)
}

func TestParseMaterial_Full(t *testing.T) {
	src := `
name = "Rock"
color = [0.5, 0.25, 1.0, 1.0]
uv_scale = [2.0, 4.0]
normal_strength = 0.5
flip_y = true

[maps]
albedo = "textures/rock_albedo.png"
normal = "textures/rock_normal.png"
`
	mf, err := ParseMaterial([]byte(src))
	require.NoError(t, err)
	assert.Equal(t, [4]float32{0.5, 0.25, 1, 1}, mf.Color)
	assert.Equal(t, [2]float32{2, 4}, mf.UVScale)
	assert.Equal(t, float32(0.5), mf.NormalStrength)
	assert.True(t, mf.FlipY)
	assert.Equal(t, "textures/rock_albedo.png", mf.Maps.Albedo)
	assert.Equal(t, "textures/rock_normal.png", mf.Maps.Normal)
}

func TestParseMaterial_Invalid(t *testing.T) {
	cases := map[string]string{
		"color out of range": `color = [2.0, 0.0, 0.0, 1.0]`,
		"zero uv scale":      `uv_scale = [0.0, 1.0]`,
		"negative strength":  `normal_strength = -1.0`,
		"unknown key":        `shininess = 3.0`,
		"bad syntax":         `name = `,
	}
	for name, src := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := ParseMaterial([]byte(src))
			assert.Error(t, err)
		})
	}
}

func TestMaterialFile_WriteRead(t *testing.T) {
	path := filepath.Join(t.TempDir(), "Floor.mat.toml")
	in := DefaultMaterialFile()
	in.Name = "Floor"
	in.Color = [4]float32{0.2, 0.5, 0.6, 1}
	in.Maps.Roughness = "floor_rough.png"
	require.NoError(t, WriteMaterialFile(path, &in))

	out, err := ReadMaterialFile(path)
	require.NoError(t, err)
	assert.Equal(t, &in, out)
}

func TestParseCubeMapList(t *testing.T) {
	src := "# sky\nright.png\nleft.png\n\ntop.png\nbottom.png\nfront.png\n/abs/back.png\n"
	list, err := ParseCubeMapList(strings.NewReader(src), "skies")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join("skies", "right.png"), list.Faces[0])
	assert.Equal(t, filepath.Join("skies", "front.png"), list.Faces[4])
	assert.Equal(t, "/abs/back.png", list.Faces[5])

	_, err = ParseCubeMapList(strings.NewReader("a.png\nb.png\n"), "")
	assert.Error(t, err)

	_, err = ParseCubeMapList(strings.NewReader(strings.Repeat("x.png\n", 7)), "")
	assert.Error(t, err)
}

func TestCubeMapList_WriteRead(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "Sky.env")
	in := &CubeMapList{}
	for i, face := range CubeMapFaces {
		in.Faces[i] = filepath.Join(dir, "faces", face+".png")
	}
	require.NoError(t, WriteCubeMapList(path, in))

	out, err := ReadCubeMapList(path)
	require.NoError(t, err)
	assert.Equal(t, in, out)
}

func TestReadShaderSources(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "gbuffer.vert"), []byte("vertex"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "gbuffer.frag"), []byte("fragment"), 0o644))

	src, err := ReadShaderSources(dir, "gbuffer")
	require.NoError(t, err)
	assert.Equal(t, "vertex", src.Vertex)
	assert.Equal(t, "fragment", src.Fragment)
	assert.Empty(t, src.Geometry)

	loaded, err := (&ShaderLoader{}).Load(filepath.Join(dir, "gbuffer.frag"))
	require.NoError(t, err)
	assert.Equal(t, src, loaded)

	_, err = ReadShaderSources(dir, "missing")
	assert.Error(t, err)
}
