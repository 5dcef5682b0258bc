package assets

import (
	"fmt"

	"github.com/spaghettifunk/lumen/engine/assets/loaders"
	"github.com/spaghettifunk/lumen/engine/resources"
)

// Loader decodes a file into an in-memory value. Loaders run on the decode
// workers and must not touch the cache or the GPU.
type Loader interface {
	Load(path string) (interface{}, error) // `interface{}` here allows loaders to return various asset types
}

/**
 * @brief The decoded content of a cube map list: the list itself and the
 * pixels of each face.
 */
type EnvironmentFaces struct {
	List   *loaders.CubeMapList
	Images [6]*loaders.ImageData
}

type environmentLoader struct{}

func (environmentLoader) Load(path string) (interface{}, error) {
	list, err := loaders.ReadCubeMapList(path)
	if err != nil {
		return nil, err
	}
	env := &EnvironmentFaces{List: list}
	for i, p := range list.Faces {
		if env.Images[i], err = loaders.DecodeImage(p, false); err != nil {
			return nil, fmt.Errorf("%s face: %w", loaders.CubeMapFaces[i], err)
		}
	}
	return env, nil
}

type meshLoader struct{}

func (meshLoader) Load(path string) (interface{}, error) {
	return resources.ReadMeshFile(path)
}

func defaultLoaders() map[AssetKind]Loader {
	return map[AssetKind]Loader{
		// rows are flipped on apply, per texture
		AssetImage:       &loaders.ImageLoader{FlipY: false},
		AssetMaterial:    &loaders.MaterialLoader{},
		AssetMesh:        meshLoader{},
		AssetEnvironment: environmentLoader{},
		AssetShader:      &loaders.ShaderLoader{},
	}
}
