package loaders

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// Face order of a cube map list: +X, -X, +Y, -Y, +Z, -Z.
var CubeMapFaces = [6]string{"right", "left", "top", "bottom", "front", "back"}

type CubeMapList struct {
	// Faces are resolved against the directory of the list file.
	Faces [6]string
}

type CubeMapLoader struct{}

func (cl *CubeMapLoader) Load(path string) (interface{}, error) {
	return ReadCubeMapList(path)
}

// ReadCubeMapList reads six face paths, one per line. Blank lines and lines
// starting with '#' are skipped.
func ReadCubeMapList(path string) (*CubeMapList, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	list, err := ParseCubeMapList(bytes.NewReader(data), filepath.Dir(path))
	if err != nil {
		return nil, fmt.Errorf("cube map list '%s': %w", path, err)
	}
	return list, nil
}

func ParseCubeMapList(r io.Reader, dir string) (*CubeMapList, error) {
	list := &CubeMapList{}
	n := 0

	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())

		// Skip comments and empty lines
		if strings.HasPrefix(line, "#") || line == "" {
			continue
		}
		if n == len(list.Faces) {
			return nil, fmt.Errorf("more than %d faces listed", len(list.Faces))
		}
		if !filepath.IsAbs(line) {
			line = filepath.Join(dir, line)
		}
		list.Faces[n] = line
		n++
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	if n != len(list.Faces) {
		return nil, fmt.Errorf("expected %d faces, found %d", len(list.Faces), n)
	}
	return list, nil
}

// WriteCubeMapList stores faces relative to the list file when possible.
func WriteCubeMapList(path string, list *CubeMapList) error {
	dir := filepath.Dir(path)
	var buf bytes.Buffer
	for i, face := range list.Faces {
		if rel, err := filepath.Rel(dir, face); err == nil {
			face = rel
		}
		fmt.Fprintf(&buf, "# %s\n%s\n", CubeMapFaces[i], filepath.ToSlash(face))
	}
	return os.WriteFile(path, buf.Bytes(), 0o644)
}
