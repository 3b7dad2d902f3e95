//go:build mage

package main

import (
	"fmt"

	"github.com/magefile/mage/mg"
)

type Build mg.Namespace

var shaderSources = []string{
	"shaders/colored_triangle.vert",
	"shaders/colored_triangle.frag",
	"shaders/triangle.vert",
	"shaders/triangle.frag",
	"shaders/tri_mesh.vert",
}

// Compiles every GLSL shader to SPIR-V with glslc.
func (Build) Shaders() error {
	for _, src := range shaderSources {
		out := fmt.Sprintf("%s.spv", src)
		if _, err := executeCmd("glslc", withArgs(src, "-o", out), withStream()); err != nil {
			return err
		}
	}
	return nil
}

// Builds the engine binary.
func (Build) Engine() error {
	mg.Deps(Build.Shaders)
	if _, err := executeCmd("go", withArgs("build", "-o", "lumina", "."), withStream()); err != nil {
		return err
	}
	return nil
}
