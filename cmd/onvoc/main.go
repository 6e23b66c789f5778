// Command onvoc maintains a controlled vocabulary stored as a terms tree and
// a vocabulary tree.
package main

import (
	"os"

	"github.com/roach88/onvoc/internal/cli"
)

func main() {
	os.Exit(cli.Execute(os.Args[1:], os.Stdout, os.Stderr))
}
