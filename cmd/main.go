package main

import (
	"os"

	"github.com/cupertitieus-ctrl/notesareboring/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
