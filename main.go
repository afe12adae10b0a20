// The main package for the anpgru executable.
package main

import (
	_ "time/tzdata" // zoneinfo for minimal images

	"github.com/rafaelordanini/ANP-GRU/cmd"
)

// main is the entry point of the application.
// It defers all execution to the Cobra CLI library.
func main() {
	cmd.Execute()
}
