// Command cartelera prunes, queries and serves event listing pages.
package main

import (
	"os"

	"cartelera/internal/cli"
)

func main() {
	cmd := cli.NewRootCmd()
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
