//go:build mage
// +build mage

package main

import (
	"fmt"
	"os"
	"os/exec"

	"github.com/magefile/mage/mg"
)

// Default target to run when none is specified
var Default = Build

// Build compiles both commands into ./bin
func Build() error {
	mg.Deps(BuildGasgen, BuildChambersim)
	fmt.Println("Compilation finished")
	return nil
}

func BuildGasgen() error {
	return buildCommand("gasgen")
}

func BuildChambersim() error {
	return buildCommand("chambersim")
}

// Test runs the unit tests of every package
func Test() error {
	return run(exec.Command("go", "test", "./..."))
}

// HDF5 is linked through cgo, CGO_CFLAGS and CGO_LDFLAGS are passed through
// to find a non-system installation.
func buildCommand(name string) error {
	fmt.Printf("Building %s executable...\n", name)
	return run(exec.Command("go", "build", "-o", "./bin/"+name, "./"+name))
}

func run(cmd *exec.Cmd) error {
	cmd.Env = append(os.Environ(),
		"CGO_ENABLED=1",
		fmt.Sprintf("CGO_LDFLAGS=%s", os.Getenv("CGO_LDFLAGS")),
		fmt.Sprintf("CGO_CFLAGS=%s", os.Getenv("CGO_CFLAGS")))
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	return cmd.Run()
}
