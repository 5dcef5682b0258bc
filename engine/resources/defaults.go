package resources

import (
	"github.com/go-gl/mathgl/mgl32"
	"github.com/google/uuid"
	"github.com/spaghettifunk/lumen/engine/assets/loaders"
	"github.com/spaghettifunk/lumen/engine/core"
)

/** @brief Ids of the resources every cache starts with. */
type Defaults struct {
	Cube  uuid.UUID
	Plane uuid.UUID
	/** @brief 1x1 placeholder textures indexed by TextureMapType. */
	Textures [TextureMapCount]uuid.UUID
	Material uuid.UUID
}

const defaultsDir = "Default"

var defaultTexturePixels = [TextureMapCount]struct {
	name  string
	pixel []byte
}{
	TextureMapAlbedo:    {"DiffuseTexture.png", []byte{255, 255, 255, 255}},
	TextureMapNormal:    {"NormalTexture.png", []byte{128, 128, 255, 255}},
	TextureMapAO:        {"AOTexture.png", []byte{255, 255, 255, 255}},
	TextureMapRoughness: {"RoughnessTexture.png", []byte{128, 128, 128, 255}},
	TextureMapMetallic:  {"MetallicTexture.png", []byte{0, 0, 0, 255}},
}

/** @brief Color of the default material. */
var DefaultMaterialColor = mgl32.Vec4{0.2, 0.5, 0.6, 1}

// Defaults returns the ids created by Initialize.
func (c *Cache) Defaults() Defaults {
	return c.defaults
}

// Initialize creates the default textures, the default material and the
// generated Cube and Plane meshes. The default material is pinned with one
// reference so it always gets a material slot.
func (c *Cache) Initialize() error {
	for slot, dt := range defaultTexturePixels {
		tex, err := Create[ImageTexture](c, defaultsDir+"/"+dt.name)
		if err != nil {
			return err
		}
		if err := tex.Upload(&loaders.ImageData{Width: 1, Height: 1, Channels: 4, BitsPerChannel: 8, Pixels: dt.pixel}); err != nil {
			core.LogError("failed to create default %s texture: %s", TextureMapType(slot), err)
			return err
		}
		c.defaults.Textures[slot] = tex.ID()
	}

	mat, err := Create[Material](c, defaultsDir+"/DefaultMaterial.mat.toml")
	if err != nil {
		return err
	}
	mat.Color = DefaultMaterialColor
	c.defaults.Material = mat.ID()
	c.Use(mat.ID())

	cube, err := Create[Mesh](c, defaultsDir+"/Cube.mesh")
	if err != nil {
		return err
	}
	GenerateCube(cube)
	c.defaults.Cube = cube.ID()

	plane, err := Create[Mesh](c, defaultsDir+"/Plane.mesh")
	if err != nil {
		return err
	}
	GeneratePlane(plane)
	c.defaults.Plane = plane.ID()

	core.LogInfo("resource cache initialized with %d default resources", c.Len())
	return nil
}
