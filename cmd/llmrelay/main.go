// llmrelay sends a prompt to an ordered list of models and reports
// the first successful response with the attempt history.
package main

import (
	"os"
)

func main() {
	os.Exit(newCLI(os.Stdout, os.Stderr).run(os.Args[1:]))
}
