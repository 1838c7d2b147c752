//go:build mage

package main

import (
	"os"

	"github.com/magefile/mage/mg"
	"github.com/magefile/mage/sh"
)

// Convert builds the CLI and converts every volume in ../text to TEI.
// Extra arguments (e.g. a volume range) can be passed with CONVERT_ARGS.
func Convert() error {
	mg.Deps(Init, Build)
	args := []string{"convert"}
	if extra := os.Getenv("CONVERT_ARGS"); extra != "" {
		args = append(args, extra)
	}
	return sh.RunV(binPath, args...)
}
