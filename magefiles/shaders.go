//go:build mage

package main

import (
	"fmt"
	"os/exec"
	"path/filepath"

	"github.com/magefile/mage/mg"
)

const shaderDir = "engine/assets/shaders"

type Shaders mg.Namespace

// Validates the embedded GLSL with glslangValidator, skipped when it is not installed.
func (Shaders) Validate() error {
	if _, err := exec.LookPath("glslangValidator"); err != nil {
		fmt.Println("glslangValidator not found, skipping shader validation")
		return nil
	}
	for _, pattern := range []string{"*.vert", "*.frag"} {
		files, err := filepath.Glob(filepath.Join(shaderDir, pattern))
		if err != nil {
			return err
		}
		for _, file := range files {
			if _, err := executeCmd("glslangValidator", withArgs(file)); err != nil {
				return err
			}
		}
	}
	return nil
}
