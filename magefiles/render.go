//go:build mage

package main

import (
	"github.com/magefile/mage/mg"
	"github.com/magefile/mage/sh"
)

// Render groups the figure targets.
type Render mg.Namespace

// All renders every recipe into figures/ and records the runs.
func (Render) All() error {
	ensureBinary()
	return sh.RunV(binPath(), "render", "--all")
}

// Recipe renders one named recipe.
func (Render) Recipe(name string) error {
	ensureBinary()
	return sh.RunV(binPath(), "render", name)
}

// On renders every recipe as of date (YYYY-MM-DD).
func (Render) On(date string) error {
	ensureBinary()
	return sh.RunV(binPath(), "render", "--all", "--date", date)
}
