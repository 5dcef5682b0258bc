//go:build mage

package main

import (
	"fmt"

	"github.com/magefile/mage/mg"
)

type Run mg.Namespace

// Validates the shaders and runs the testbed in a window.
func (Run) Engine() error {
	mg.Deps(Build.Shaders)
	fmt.Println("Run engine...")
	if _, err := executeCmd("go", withArgs("run", "."), withStream()); err != nil {
		return err
	}
	return nil
}

// Runs the testbed without a window.
func (Run) Headless() error {
	if _, err := executeCmd("go", withArgs("run", ".", "-headless"), withStream()); err != nil {
		return err
	}
	return nil
}
