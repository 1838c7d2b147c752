//go:build mage

// Package main contains Mage build targets for derge-tei developer tooling.
package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/magefile/mage/mg"
	"github.com/magefile/mage/sh"

	"github.com/esukhia/derge-tei/internal/volume"
)

// projectDirs lists the working directories a conversion run expects.
var projectDirs = []string{
	"../text",
	"output",
}

// Init creates the source and output directories.
func Init() error {
	for _, dir := range projectDirs {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("creating %s: %w", dir, err)
		}
		fmt.Println("  ", dir)
	}
	fmt.Println("Project directories initialized.")
	return nil
}

const (
	binDir  = "bin"
	binName = "derge-tei"
	cmdPkg  = "./cmd/derge-tei"
)

// binPath is the location of the built CLI.
var binPath = filepath.Join(binDir, binName)

// Build compiles the CLI binary into bin/, stamping the version from VERSION
// when set.
func Build() error {
	if err := os.MkdirAll(binDir, 0o755); err != nil {
		return fmt.Errorf("creating %s: %w", binDir, err)
	}
	args := []string{"build", "-o", binPath}
	if v := os.Getenv("VERSION"); v != "" {
		args = append(args, "-ldflags", "-X main.version="+v)
	}
	args = append(args, cmdPkg)
	if err := sh.RunV("go", args...); err != nil {
		return fmt.Errorf("go build: %w", err)
	}
	fmt.Printf("Built %s\n", binPath)
	return nil
}

// Test runs the unit tests with the race detector.
func Test() error {
	return sh.RunV("go", "test", "-race", "./...")
}

// Clean removes the built binary.
func Clean() error {
	return sh.Rm(binDir)
}

// Runs lists the most recent conversion runs from the run ledger.
func Runs() error {
	mg.Deps(Build)
	return sh.RunV(binPath, "runs", "list")
}

// Stats prints corpus metrics: volume files and tagged lines under ../text
// and the number of converted TEI documents under output/.
func Stats() error {
	volumes, lines, err := countSourceLines(projectDirs[0])
	if err != nil {
		return err
	}
	teiDocs, err := countTEIDocs(projectDirs[1])
	if err != nil {
		return err
	}

	fmt.Printf("Volume files (source):  %d\n", volumes)
	fmt.Printf("Tagged lines (source):  %d\n", lines)
	fmt.Printf("TEI documents (output): %d\n", teiDocs)
	return nil
}

// countTEIDocs counts generated *-0000.xml files under root.
func countTEIDocs(root string) (int, error) {
	matches, err := filepath.Glob(filepath.Join(root, "*", "*", "*-0000.xml"))
	if err != nil {
		return 0, err
	}
	return len(matches), nil
}

// countSourceLines counts the volume files in dir and the lines they hold.
// A missing dir counts as empty.
func countSourceLines(dir string) (files, lines int, err error) {
	if _, err := os.Stat(dir); os.IsNotExist(err) {
		return 0, 0, nil
	}
	idx, err := volume.Scan(dir)
	if err != nil {
		return 0, 0, err
	}
	lines, err = idx.CountLines()
	return len(idx.Files), lines, err
}
