//go:build mage

package main

import (
	"fmt"
	"path/filepath"

	"github.com/magefile/mage/mg"
)

const shaderDir = "engine/renderer/shaders"

type Build mg.Namespace

// Compiles the lumen binary into ./bin.
func (Build) Engine() error {
	if _, err := executeCmd("go", withArgs("build", "-o", "bin/lumen", "."), withStream()); err != nil {
		return err
	}
	return nil
}

// Validates every pass program with glslangValidator.
func (Build) Shaders() error {
	return validateShaders()
}

func validateShaders() error {
	sources, err := shaderSources()
	if err != nil {
		return err
	}
	for _, src := range sources {
		if _, err := executeCmd("glslangValidator", withArgs(filepath.Base(src)), withDir(shaderDir)); err != nil {
			return fmt.Errorf("invalid shader %s: %w", src, err)
		}
	}
	return nil
}

func shaderSources() ([]string, error) {
	var sources []string
	for _, ext := range []string{"*.vert", "*.frag", "*.geom"} {
		matches, err := filepath.Glob(filepath.Join(shaderDir, ext))
		if err != nil {
			return nil, err
		}
		sources = append(sources, matches...)
	}
	return sources, nil
}
