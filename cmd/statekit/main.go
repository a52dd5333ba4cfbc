// Command statekit drives the state store from the terminal.
package main

import (
	"os"

	"github.com/mesh-intelligence/statekit/internal/cli"
)

func main() {
	os.Exit(cli.Execute())
}
