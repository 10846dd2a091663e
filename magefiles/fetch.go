//go:build mage

package main

import (
	"github.com/magefile/mage/mg"
	"github.com/magefile/mage/sh"
)

// Fetch groups the dataset download targets.
type Fetch mg.Namespace

// All downloads every non-templated dataset into data/raw.
func (Fetch) All() error {
	ensureBinary()
	return sh.RunV(binPath(), "fetch", "--all")
}

// Refresh downloads every non-templated dataset, ignoring fresh copies.
func (Fetch) Refresh() error {
	ensureBinary()
	return sh.RunV(binPath(), "fetch", "--all", "--refresh")
}

// Dataset downloads one named dataset.
func (Fetch) Dataset(name string) error {
	ensureBinary()
	return sh.RunV(binPath(), "fetch", name)
}
