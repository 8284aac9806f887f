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
// If not set, running mage will list available targets
var Default = Build

// Build compiles both commands into ./bin
func Build() error {
	mg.Deps(BuildPopulate, BuildPopstate)
	fmt.Println("Compilation finished")
	return nil
}

func BuildPopulate() error {
	fmt.Println("Building populate executable...")
	return goCmd(false, "build", "-o", "./bin/populate", "./populate")
}

// BuildPopstate needs libhdf5: CGO_CFLAGS and CGO_LDFLAGS are forwarded.
func BuildPopstate() error {
	fmt.Println("Building popstate executable...")
	return goCmd(true, "build", "-o", "./bin/popstate", "./popstate")
}

// Test runs the test suite of every package.
func Test() error {
	fmt.Println("Running tests...")
	return goCmd(true, "test", "./...")
}

func goCmd(cgo bool, args ...string) error {
	cmd := exec.Command("go", args...)
	cmd.Env = os.Environ()
	if cgo {
		ldflags := os.Getenv("CGO_LDFLAGS")
		cflags := os.Getenv("CGO_CFLAGS")
		cmd.Env = append(cmd.Env,
			"CGO_ENABLED=1",
			fmt.Sprintf("CGO_LDFLAGS=%s", ldflags),
			fmt.Sprintf("CGO_CFLAGS=%s", cflags))
	}
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	return cmd.Run()
}
