package loaders

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"strings"
)

/**
 * @brief GLSL sources of one program. The geometry stage is optional.
 */
type ShaderSources struct {
	Name     string
	Vertex   string
	Fragment string
	Geometry string
}

type ShaderLoader struct{}

// Load accepts any stage file of a program and reads all of its stages.
func (sl *ShaderLoader) Load(path string) (interface{}, error) {
	name := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	return ReadShaderSources(filepath.Dir(path), name)
}

// ReadShaderSources reads <dir>/<name>.vert, .frag and the optional .geom.
func ReadShaderSources(dir, name string) (*ShaderSources, error) {
	return ReadShaderSourcesFS(os.DirFS(dir), ".", name)
}

// ReadShaderSourcesFS is ReadShaderSources over fsys, used for the shaders
// embedded in the binary.
func ReadShaderSourcesFS(fsys fs.FS, dir, name string) (*ShaderSources, error) {
	src := &ShaderSources{Name: name}

	vert, err := fs.ReadFile(fsys, path.Join(dir, name+".vert"))
	if err != nil {
		return nil, err
	}
	frag, err := fs.ReadFile(fsys, path.Join(dir, name+".frag"))
	if err != nil {
		return nil, err
	}
	src.Vertex, src.Fragment = string(vert), string(frag)

	geom, err := fs.ReadFile(fsys, path.Join(dir, name+".geom"))
	switch {
	case err == nil:
		src.Geometry = string(geom)
	case !errors.Is(err, fs.ErrNotExist):
		return nil, fmt.Errorf("failed to read geometry stage of '%s': %w", name, err)
	}
	return src, nil
}
