package main

import (
	"os"

	"github.com/dgallion1/docgraph/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
