//go:build mage

// Package main contains Mage targets for building and exercising the
// tidylearn CLI.
package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/magefile/mage/mg"
	"github.com/magefile/mage/sh"
)

const (
	binDir  = "bin"
	binName = "tidylearn"
	cmdPkg  = "./cmd/tidylearn"
)

// Build compiles the CLI binary into bin/, stamping the version from git.
func Build() error {
	if err := os.MkdirAll(binDir, 0o755); err != nil {
		return fmt.Errorf("creating %s: %w", binDir, err)
	}
	version, err := sh.Output("git", "describe", "--tags", "--always", "--dirty")
	if err != nil {
		version = "dev"
	}
	out := filepath.Join(binDir, binName)
	if err := sh.RunV("go", "build", "-ldflags", "-X main.version="+version, "-o", out, cmdPkg); err != nil {
		return err
	}
	fmt.Printf("Built %s (%s)\n", out, version)
	return nil
}

// Test runs the full test suite.
func Test() error {
	return sh.RunV("go", "test", "./...")
}

// Lint vets every package.
func Lint() error {
	return sh.RunV("go", "vet", "./...")
}

// Fetch builds the CLI and downloads every manifest dataset into the cache.
func Fetch() error {
	mg.Deps(Build)
	return sh.RunV(filepath.Join(binDir, binName), "fetch")
}

// Studies builds the CLI and runs both analyses end to end. Results land
// in out/.
func Studies() error {
	mg.Deps(Build)
	bin := filepath.Join(binDir, binName)
	if err := sh.RunV(bin, "employment"); err != nil {
		return err
	}
	return sh.RunV(bin, "papers")
}

// Clean removes build and analysis outputs.
func Clean() error {
	for _, dir := range []string{binDir, "out"} {
		if err := os.RemoveAll(dir); err != nil {
			return err
		}
	}
	return nil
}
