// The main package for the caselaw executable.
package main

import (
	"github.com/lexel-search/caselaw-pipeline/cmd"
)

// main defers all execution to the Cobra CLI.
func main() {
	cmd.Execute()
}
