// Package main is the entry point for the aidebug CLI.
//
// All logic lives in the commands package.
package main

import (
	"os"

	"github.com/devchat-app/aidebug/cmd/aidebug/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		os.Exit(commands.ExitCode(err))
	}
}
