package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/sparkify-data/dwhetl/internal/catalog"
	"github.com/sparkify-data/dwhetl/internal/report"
)

type planFlagValues struct {
	catalogFlags
	reset bool
	sql   bool
}

var planFlags planFlagValues

var planCmd = &cobra.Command{
	Use:   "plan [project_dir]",
	Short: "Print the statements a run would execute, without connecting",
	Long: `Plan renders the statement catalog from the same configuration a run uses
and prints it in execution order. No connection is opened.

By default a table lists each statement with its phase and declared
dependencies. --sql prints the full SQL instead, ready to be reviewed or
run by hand.
` + sourcesHelp + `

Examples:
  dwhetl plan ./warehouse
  dwhetl plan ./warehouse --reset --sql > plan.sql
  dwhetl plan --dialect postgres --log-data /data/events.json --song-data /data/songs.json`,
	Args:              ProjectDirArgs,
	ValidArgsFunction: completeDirectories,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runPlan(cmd, args, &planFlags)
	},
}

func init() {
	registerCatalogFlags(planCmd, &planFlags.catalogFlags)
	planCmd.Flags().BoolVar(&planFlags.reset, "reset", false, "Plan a run that drops the fact and dimension tables too")
	planCmd.Flags().BoolVar(&planFlags.sql, "sql", false, "Print the full SQL of every statement")
	_ = planCmd.RegisterFlagCompletionFunc("dialect", completeDialects)
	_ = planCmd.RegisterFlagCompletionFunc("set", completeConfigKeys)

	rootCmd.AddCommand(planCmd)
}

func runPlan(cmd *cobra.Command, args []string, f *planFlagValues) error {
	verbose := getVerboseFlag(cmd)

	projectCfg, err := resolveProjectConfig(projectDirArg(args), &f.catalogFlags, verbose)
	if err != nil {
		return err
	}
	catalogCfg, err := resolveCatalogConfig(context.Background(), &f.catalogFlags, projectCfg, verbose)
	if err != nil {
		return err
	}

	cat, err := catalog.New(catalogCfg)
	if err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	reset := f.reset
	if !cmd.Flags().Changed("reset") {
		reset = projectCfg.ResetSchema
	}
	stmts := cat.Plan(reset)

	out := cmd.OutOrStdout()
	if f.sql {
		return report.WritePlanSQL(out, stmts)
	}
	report.WritePlan(out, stmts)
	fmt.Fprintf(os.Stderr, "\n%d statements, %s dialect, reset schema: %t\n", len(stmts), cat.Config().Dialect, reset)
	return nil
}
