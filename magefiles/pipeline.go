//go:build mage

package main

import (
	"github.com/magefile/mage/mg"
	"github.com/magefile/mage/sh"
)

// Fetch downloads PDFs and LaTeX sources for the topic in papertex.yaml.
func Fetch() error {
	mg.Deps(Init, Build)
	return sh.RunV(binPath, "fetch")
}

// Extract unpacks latex_papers/*.tar.gz into markdown_papers/.
func Extract() error {
	mg.Deps(Init, Build)
	return sh.RunV(binPath, "extract")
}

// Convert runs the full extract and convert batch with cleaning enabled.
func Convert() error {
	mg.Deps(Init, Build)
	return sh.RunV(binPath, "run", "--clean")
}

// Catalog lists the recorded conversion outcomes.
func Catalog() error {
	mg.Deps(Build)
	return sh.RunV(binPath, "catalog")
}
