//go:build mage

package main

import (
	"path/filepath"

	"github.com/magefile/mage/mg"
	"github.com/magefile/mage/sh"
)

func binary() string {
	return filepath.Join(binDir, binName)
}

// Evaluate builds the CLI and runs a full evaluation of a stored idea.
func Evaluate(ideaID string) error {
	mg.Deps(Init, Build)
	return sh.RunV(binary(), "evaluate", ideaID, "--output", filepath.Join("output", ideaID+".yaml"))
}

// Research builds the CLI and runs one domain's research stage on a document
// file, printing the quality report.
func Research(domain, file string) error {
	mg.Deps(Build)
	return sh.RunV(binary(), "research", "--domain", domain, "--file", file, "--log-level", "debug")
}
