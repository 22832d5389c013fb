package main

import (
	"os"

	"github.com/kailas-cloud/tiles/internal/cli"
)

func main() {
	if err := cli.NewRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
