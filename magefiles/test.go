//go:build mage

package main

import (
	"github.com/magefile/mage/mg"
)

type Test mg.Namespace

// Runs the packages that do not need a GL context.
func (Test) All() error {
	packages := []string{
		"./engine/containers/...",
		"./engine/core/...",
		"./engine/config/...",
		"./engine/math/...",
		"./engine/assets/...",
		"./engine/resources/...",
		"./engine/scene/...",
		"./engine/systems/...",
		"./engine/renderer",
		"./engine/renderer/metadata/...",
	}
	args := append([]string{"test", "-race", "-count=1"}, packages...)
	// the race detector needs cgo
	if _, err := executeCmd("go", withArgs(args...), withEnv("CGO_ENABLED=1"), withStream()); err != nil {
		return err
	}
	return nil
}
