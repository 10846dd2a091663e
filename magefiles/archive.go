//go:build mage

package main

import (
	"github.com/magefile/mage/mg"
	"github.com/magefile/mage/sh"
)

// Archive groups the ledger targets.
type Archive mg.Namespace

// Ingest loads the downloaded daily series into the ledger.
func (Archive) Ingest() error {
	ensureBinary()
	return sh.RunV(binPath(), "archive", "ingest")
}

// Export writes the ledger to archive/index/export.yaml.
func (Archive) Export() error {
	ensureBinary()
	mg.Deps(Archive.Ingest)
	return sh.RunV(binPath(), "archive", "export")
}
