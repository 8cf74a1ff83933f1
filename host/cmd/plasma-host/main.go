package main

import (
	"os"

	"plasmacut/host/cmd/plasma-host/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		os.Exit(1)
	}
}
