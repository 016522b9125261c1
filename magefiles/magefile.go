//go:build mage

// Developer tasks for python-extension-go. Run with `mage -l` to list them.
package main

import (
	"os"
	"path/filepath"

	"github.com/magefile/mage/mg"
	"github.com/magefile/mage/sh"
)

// Default target when running mage without arguments.
var Default = Build

const binDir = "bin"

// Build compiles the pyext CLI into bin/.
func Build() error {
	mg.Deps(Vet)
	return sh.RunV("go", "build", "-o", filepath.Join(binDir, "pyext"), "./cmd/pyext")
}

// Vet runs go vet on every package.
func Vet() error {
	return sh.RunV("go", "vet", "./...")
}

// Test runs the test suite with the race detector.
func Test() error {
	return sh.RunV("go", "test", "-race", "./...")
}

// Install installs the pyext CLI into GOBIN.
func Install() error {
	mg.Deps(Test)
	return sh.RunV("go", "install", "./cmd/pyext")
}

// Sample builds testdata/sample in place with the local interpreter.
// Requires python3 with numpy and Cython installed.
func Sample() error {
	mg.Deps(Build)
	return sh.RunV(filepath.Join(binDir, "pyext"), "build", "--dir", filepath.Join("testdata", "sample"), "-v")
}

// Clean removes bin/ and sample build output.
func Clean() error {
	if err := os.RemoveAll(binDir); err != nil {
		return err
	}
	return sh.Rm(filepath.Join("testdata", "sample", "build"))
}
