//go:build mage

package main

import (
	"fmt"

	"github.com/magefile/mage/mg"
	"github.com/magefile/mage/sh"
)

var Default = Build

// Build compiles the cardfill binary.
func Build() error {
	fmt.Println("Building cardfill...")
	return sh.RunV("go", "build", "-o", "cardfill", "./cmd/cardfill")
}

// Test runs all tests.
func Test() error {
	return sh.RunV("go", "test", "./...")
}

// Vet runs go vet over the module.
func Vet() error {
	return sh.RunV("go", "vet", "./...")
}

// Check runs vet and the tests.
func Check() {
	mg.SerialDeps(Vet, Test)
}

// Install builds and installs the binary into GOPATH/bin.
func Install() error {
	mg.Deps(Build)
	return sh.RunV("go", "install", "./cmd/cardfill")
}

// Clean removes build artifacts.
func Clean() error {
	return sh.Rm("cardfill")
}
