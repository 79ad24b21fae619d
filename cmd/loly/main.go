package main

import (
	"os"

	"github.com/KrystelLucin/go-loly/internal/cli"
)

func main() {
	if err := cli.RootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
