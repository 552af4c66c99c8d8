// Command qbay is the marketplace server and admin CLI.
//
// All behaviour lives in internal/cli; main only translates an error into a
// non-zero exit status.
package main

import (
	"os"

	"github.com/sakif/qbay/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
