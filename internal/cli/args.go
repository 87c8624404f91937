package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

// ProjectDirArgs accepts an optional project directory argument.
// The directory holds dwh.yaml and an optional .env file.
func ProjectDirArgs(cmd *cobra.Command, args []string) error {
	if len(args) > 1 {
		return fmt.Errorf(`accepts at most 1 arg(s), received %d

Usage: %s

Example:
  %s ./warehouse --reset`, len(args), cmd.UseLine(), cmd.CommandPath())
	}
	return nil
}

// projectDirArg returns the project directory, "." when none was given.
func projectDirArg(args []string) string {
	if len(args) == 0 || args[0] == "" {
		return "."
	}
	return args[0]
}
