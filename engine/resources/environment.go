package resources

import (
	"fmt"

	"github.com/spaghettifunk/lumen/engine/assets/loaders"
	"github.com/spaghettifunk/lumen/engine/core"
	"github.com/spaghettifunk/lumen/engine/renderer/metadata"
)

/**
 * @brief A cube map built from six face images listed in a text file.
 */
type Environment struct {
	Base

	/** @brief Face image paths in CubeMapFaces order. */
	Faces  [6]string
	Handle metadata.TextureHandle

	faces [6]*loaders.ImageData
}

func (e *Environment) Type() ResourceType { return ResourceTypeEnvironment }

func (e *Environment) Load(path string) error {
	list, err := loaders.ReadCubeMapList(path)
	if err != nil {
		return err
	}

	var faces [6]*loaders.ImageData
	for i, p := range list.Faces {
		if faces[i], err = loaders.DecodeImage(p, false); err != nil {
			return fmt.Errorf("%s face: %w", loaders.CubeMapFaces[i], err)
		}
	}
	e.Faces = list.Faces
	return e.Upload(faces)
}

func (e *Environment) Save(path string) error {
	return loaders.WriteCubeMapList(path, &loaders.CubeMapList{Faces: e.Faces})
}

// Upload replaces the cube map. All faces must share size and layout.
func (e *Environment) Upload(faces [6]*loaders.ImageData) error {
	var descs [6]metadata.TextureDesc
	for i, f := range faces {
		if f == nil {
			return fmt.Errorf("%w: missing %s face", core.ErrUnsupportedFormat, loaders.CubeMapFaces[i])
		}
		if f.Width != faces[0].Width || f.Height != faces[0].Height ||
			f.Channels != faces[0].Channels || f.BitsPerChannel != faces[0].BitsPerChannel {
			return fmt.Errorf("%w: %s face differs from the first face", core.ErrUnsupportedFormat, loaders.CubeMapFaces[i])
		}
		descs[i] = metadata.TextureDesc{
			Width:          f.Width,
			Height:         f.Height,
			Channels:       f.Channels,
			BitsPerChannel: f.BitsPerChannel,
			DataType:       metadata.TextureDataColor,
			Pixels:         f.Pixels,
		}
	}

	e.release()
	e.faces = faces
	if gpu := e.gpu(); gpu != nil {
		e.Handle = gpu.CreateCubeMap(descs)
		if !e.Handle.Valid {
			core.LogError("failed to create cube map for '%s'", e.name)
		}
	}
	return nil
}

func (e *Environment) duplicate() (Resource, error) {
	dup := &Environment{Faces: e.Faces}
	dup.cache = e.cache
	if err := dup.Upload(e.faces); err != nil {
		return nil, err
	}
	return dup, nil
}

func (e *Environment) release() {
	if !e.Handle.Valid {
		return
	}
	if gpu := e.gpu(); gpu != nil {
		gpu.DestroyCubeMap(&e.Handle)
	}
	e.Handle = metadata.TextureHandle{}
}
