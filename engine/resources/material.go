package resources

import (
	"path/filepath"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/google/uuid"
	"github.com/spaghettifunk/lumen/engine/assets/loaders"
	"github.com/spaghettifunk/lumen/engine/core"
)

type TextureMapType int

/** @brief Texture slots of a material, in upload order. */
const (
	TextureMapAlbedo TextureMapType = iota
	TextureMapNormal
	TextureMapAO
	TextureMapRoughness
	TextureMapMetallic

	TextureMapCount
)

func (t TextureMapType) String() string {
	switch t {
	case TextureMapAlbedo:
		return "albedo"
	case TextureMapNormal:
		return "normal"
	case TextureMapAO:
		return "ao"
	case TextureMapRoughness:
		return "roughness"
	case TextureMapMetallic:
		return "metallic"
	default:
		return "unknown"
	}
}

/**
 * @brief Surface description referencing up to five textures by UUID.
 */
type Material struct {
	Base

	/** @brief Albedo color, multiplied with the albedo map. */
	Color mgl32.Vec4
	/** @brief Texture UUIDs indexed by TextureMapType. uuid.Nil means the default texture. */
	Maps           [TextureMapCount]uuid.UUID
	NormalStrength float32
	/** @brief Flips the green channel of the normal map. */
	FlipY   bool
	UVScale mgl32.Vec2
}

func (m *Material) Type() ResourceType { return ResourceTypeMaterial }

func (m *Material) setDefaults() {
	m.Color = mgl32.Vec4{1, 1, 1, 1}
	m.UVScale = mgl32.Vec2{1, 1}
	m.NormalStrength = 1
	if m.cache != nil {
		m.Maps = m.cache.defaults.Textures
	}
}

func (m *Material) SetMap(t TextureMapType, id uuid.UUID) {
	m.Maps[t] = id
}

func (m *Material) Map(t TextureMapType) uuid.UUID {
	return m.Maps[t]
}

// Load reads a .mat.toml file. Texture paths are relative to the file and are
// loaded through the cache unless already cached.
func (m *Material) Load(path string) error {
	mf, err := loaders.ReadMaterialFile(path)
	if err != nil {
		return err
	}

	m.setDefaults()
	m.Color = mgl32.Vec4(mf.Color)
	m.UVScale = mgl32.Vec2(mf.UVScale)
	m.NormalStrength = mf.NormalStrength
	m.FlipY = mf.FlipY

	dir := filepath.Dir(path)
	paths := [TextureMapCount]string{mf.Maps.Albedo, mf.Maps.Normal, mf.Maps.AO, mf.Maps.Roughness, mf.Maps.Metallic}
	for slot, p := range paths {
		if p == "" {
			continue
		}
		if !filepath.IsAbs(p) {
			p = filepath.Join(dir, p)
		}
		tex, err := m.resolveTexture(p)
		if err != nil {
			core.LogWarn("material '%s' falls back to the default %s map: %s", m.name, TextureMapType(slot), err)
			continue
		}
		m.Maps[slot] = tex.ID()
	}
	return nil
}

func (m *Material) resolveTexture(path string) (*ImageTexture, error) {
	if m.cache == nil {
		return nil, core.ErrResourceNotFound
	}
	if tex, ok := GetByPath[ImageTexture](m.cache, path); ok {
		return tex, nil
	}
	return Load[ImageTexture](m.cache, path)
}

// Save writes the material as TOML, storing texture paths relative to path.
// Default textures are not written.
func (m *Material) Save(path string) error {
	mf := &loaders.MaterialFile{
		Name:           m.name,
		Color:          m.Color,
		UVScale:        m.UVScale,
		NormalStrength: m.NormalStrength,
		FlipY:          m.FlipY,
	}

	dir := filepath.Dir(path)
	var paths [TextureMapCount]string
	for slot, id := range m.Maps {
		if m.cache == nil || id == uuid.Nil || id == m.cache.defaults.Textures[slot] {
			continue
		}
		tex, ok := GetByUUID[ImageTexture](m.cache, id)
		if !ok {
			continue
		}
		p := tex.Path()
		if rel, err := filepath.Rel(dir, p); err == nil {
			p = filepath.ToSlash(rel)
		}
		paths[slot] = p
	}
	mf.Maps = loaders.MaterialMaps{
		Albedo:    paths[TextureMapAlbedo],
		Normal:    paths[TextureMapNormal],
		AO:        paths[TextureMapAO],
		Roughness: paths[TextureMapRoughness],
		Metallic:  paths[TextureMapMetallic],
	}
	return loaders.WriteMaterialFile(path, mf)
}

func (m *Material) duplicate() (Resource, error) {
	dup := *m
	return &dup, nil
}

func (m *Material) release() {}
