package main

import (
	"os"

	"github.com/moolen/sentinel/cmd/sentinel/commands"
)

func main() {
	err := commands.Execute()
	commands.ReportError(os.Stderr, err)
	os.Exit(commands.ExitCode(err))
}
