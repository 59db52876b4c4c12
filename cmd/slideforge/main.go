package main

import (
	"os"

	"github.com/slideforge/slideforge/cmd/slideforge/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		os.Exit(1)
	}
}
