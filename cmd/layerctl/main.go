package main

import (
	"os"

	cli "github.com/justincpresley/layerlist/pkg/cli"
)

func main() {
	if err := cli.NewRootCommand().Execute(); err != nil {
		os.Exit(1)
	}
}
