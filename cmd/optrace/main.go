// Command optrace traces the operator calls of a reference model.
package main

import (
	_ "github.com/joho/godotenv/autoload"
	"github.com/tebeka/atexit"

	"github.com/sarchlab/optrace/cmd/optrace/cmd"
)

func main() {
	err := cmd.Execute()
	if err != nil {
		atexit.Exit(1)
	}

	atexit.Exit(0)
}
