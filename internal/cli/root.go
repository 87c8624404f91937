package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "dwhetl",
	Short: "Load event logs and song metadata into a star-schema warehouse",
	Long: `dwhetl loads JSON event logs and song metadata from object storage into
staging tables, then reshapes them into a star schema for play analytics:
one songplays fact table and the users, songs, artists and time dimensions.

Every statement runs and commits on its own, in a fixed order, over a single
warehouse connection that is always closed at the end of the run.

Configuration is read from dwh.yaml in the project directory, the
environment (.env, PG* and DWH_* variables) and command-line flags.

Exit Codes:
  0  - Success
  1  - General error
  2  - CLI usage error (invalid arguments or flags)
  3  - Panic or unexpected system error
  10 - Invalid configuration
  11 - Warehouse connection failed
  12 - User declined the schema reset
  13 - A statement or commit was rejected`,
	SilenceUsage: true,
}

// Execute runs the root command
func Execute() error {
	if len(os.Args) > 1 && os.Args[1] == "--version" {
		printVersionInfo()
		return nil
	}
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().Bool("help", false, "Help for dwhetl")
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "Enable verbose output (full SQL of every statement)")
}

// getVerboseFlag safely retrieves the verbose flag value
func getVerboseFlag(cmd *cobra.Command) bool {
	verbose, err := cmd.Flags().GetBool("verbose")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: Failed to get verbose flag: %v\n", err)
		return false
	}
	return verbose
}
