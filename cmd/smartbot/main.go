// Package main is the entry point for the smartbot CLI.
package main

import (
	"os"

	"github.com/4ndikaRizaldy/smartbotv2/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
