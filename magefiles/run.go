//go:build mage

package main

import (
	"fmt"
	"os"

	"github.com/magefile/mage/mg"
)

type Run mg.Namespace

// Validates the shaders and runs the engine in a window.
func (Run) Engine() error {
	mg.Deps(Shaders.Validate)
	fmt.Println("Run engine...")
	if _, err := executeCmd("go", withArgs("run", "."), withStream()); err != nil {
		return err
	}
	return nil
}

// Renders a few frames with the software backend and writes the last one to frame.png.
// Useful to check the post-processing chain, the scene itself is not rasterized.
func (Run) Headless() error {
	fmt.Println("Run headless...")
	config := "[renderer]\nbackend = \"software\"\nframes = 3\ncapture = \"frame.png\"\n\n[window]\nwidth = 320\nheight = 180\n"
	f, err := os.CreateTemp("", "prism-*.toml")
	if err != nil {
		return err
	}
	defer os.Remove(f.Name())
	if _, err := f.WriteString(config); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}
	if _, err := executeCmd("go", withArgs("run", "."), withEnv("PRISM_CONFIG="+f.Name()), withStream()); err != nil {
		return err
	}
	return nil
}
