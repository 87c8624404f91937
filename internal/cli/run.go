package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/sparkify-data/dwhetl/internal/logging"
	"github.com/sparkify-data/dwhetl/internal/report"
	"github.com/sparkify-data/dwhetl/internal/services"
	"github.com/sparkify-data/dwhetl/internal/ui"
	"github.com/sparkify-data/dwhetl/internal/warehouse"
	"github.com/sparkify-data/dwhetl/pkg/dwhetl"
)

// runMode selects which phases a command runs.
type runMode int

const (
	modeAll runMode = iota
	modeStage
	modeTransform
)

func (m runMode) String() string {
	switch m {
	case modeStage:
		return "stage"
	case modeTransform:
		return "transform"
	default:
		return "run"
	}
}

// Replaced in tests.
var (
	connectorFactory services.ConnectorFactory = warehouse.NewConnector
	newApprover                                = ui.NewApprover
)

var (
	runFlags       etlFlags
	stageFlags     etlFlags
	transformFlags etlFlags
)

const sourcesHelp = `
Sources (flag > environment > dwh.yaml):
  --log-data       $DWH_LOG_DATA       s3.log_data       event logs
  --log-jsonpath   $DWH_LOG_JSONPATH   s3.log_jsonpath   JSONPaths file for event logs
  --song-data      $DWH_SONG_DATA      s3.song_data      song metadata
  --role-arn       $DWH_IAM_ROLE_ARN   iam_role.arn      role the cluster assumes for COPY
  --region         $DWH_REGION         s3.region         bucket region (then AWS config, us-west-2)

With --dialect postgres, --log-data and --song-data name newline-delimited
JSON files readable by the database server; role, JSONPaths and region are
not used.

Connection (flag > environment > dwh.yaml > default):
  --connection or -h/-p/-U/-d, $PGHOST/$PGPORT/$PGUSER/$PGDATABASE,
  $PGPASSWORD, $DATABASE_URL, or the cluster section of dwh.yaml.
  --iam requests temporary credentials with redshift:GetClusterCredentials.`

var runCmd = &cobra.Command{
	Use:   "run [project_dir]",
	Short: "Load the staging tables, then build the star schema",
	Long: `Run executes the full ETL over one warehouse connection:

  1. Drop the staging tables (all tables with --reset)
  2. Create every table that does not exist yet
  3. Bulk-load event logs and song metadata into staging
  4. Insert into songplays, users, songs, artists and time

Each statement is committed on its own. The first failure stops the run;
statements committed before it stay committed. Transforms append, so running
twice without --reset duplicates the star-schema rows.
` + sourcesHelp + `

Examples:
  dwhetl run ./warehouse
  dwhetl run --connection "redshift://awsuser@dwhcluster.abc123.us-west-2.redshift.amazonaws.com:5439/dev" --iam
  dwhetl run -h localhost -p 5432 -U postgres -d sparkify --dialect postgres \
    --log-data /data/log_data.json --song-data /data/song_data.json
  dwhetl run ./warehouse --reset --force`,
	Args:              ProjectDirArgs,
	ValidArgsFunction: completeDirectories,
	RunE: func(cmd *cobra.Command, args []string) error {
		return executeRun(cmd, args, &runFlags, modeAll)
	},
}

var stageCmd = &cobra.Command{
	Use:   "stage [project_dir]",
	Short: "Recreate the staging tables and bulk-load them",
	Long: `Stage drops and recreates the staging tables, creates the star-schema tables
that do not exist yet and bulk-loads event logs and song metadata.
` + sourcesHelp,
	Args:              ProjectDirArgs,
	ValidArgsFunction: completeDirectories,
	RunE: func(cmd *cobra.Command, args []string) error {
		return executeRun(cmd, args, &stageFlags, modeStage)
	},
}

var transformCmd = &cobra.Command{
	Use:   "transform [project_dir]",
	Short: "Insert from the staging tables into the star schema",
	Long: `Transform inserts into songplays, users, songs, artists and time from the
staging tables loaded by a previous stage. Inserts append: running transform
twice duplicates rows.

The catalog values are still required because the whole catalog is
validated before connecting.
` + sourcesHelp,
	Args:              ProjectDirArgs,
	ValidArgsFunction: completeDirectories,
	RunE: func(cmd *cobra.Command, args []string) error {
		return executeRun(cmd, args, &transformFlags, modeTransform)
	},
}

func init() {
	registerETLFlags(runCmd, &runFlags, true)
	registerETLFlags(stageCmd, &stageFlags, true)
	registerETLFlags(transformCmd, &transformFlags, false)

	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(stageCmd)
	rootCmd.AddCommand(transformCmd)
}

func executeRun(cmd *cobra.Command, args []string, f *etlFlags, mode runMode) error {
	verbose := getVerboseFlag(cmd)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Handle interrupt signals (Ctrl+C, SIGTERM) for graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	go func() {
		select {
		case <-sigChan:
			fmt.Fprintln(os.Stderr, "\n[INTERRUPT] Received interrupt signal, cancelling run...")
			cancel()
		case <-ctx.Done():
		}
	}()

	cfg, err := buildRunConfig(ctx, cmd, args, f, mode)
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	if err := confirmReset(ctx, cfg, f.force, verbose); err != nil {
		return err
	}
	if err := ensurePassword(&cfg.Connection); err != nil {
		return err
	}

	logger := logging.NewConsoleLogger(verbose)
	runner := services.NewRunService(connectorFactory, logger)

	result, runErr := runner.Run(ctx, *cfg)
	if result.Committed() > 0 {
		fmt.Fprintln(cmd.OutOrStdout())
		report.WriteSummary(cmd.OutOrStdout(), result)
	}
	if runErr != nil {
		return fmt.Errorf("%s failed: %w", mode, runErr)
	}

	fmt.Fprintf(os.Stderr, "\n✓ ETL %s completed in %s\n", mode, result.Duration.Round(time.Millisecond))
	return nil
}

// confirmReset asks for approval before a run drops the star schema.
func confirmReset(ctx context.Context, cfg *dwhetl.RunConfig, force, verbose bool) error {
	if !cfg.ResetSchema || cfg.SkipStaging {
		return nil
	}

	approver := newApprover(force, verbose)
	if approver == nil {
		return &dwhetl.ConfigurationError{
			Field:  "reset",
			Reason: "--reset drops every star-schema table and must be confirmed; pass --force in non-interactive sessions",
		}
	}

	approved, err := approver.RequestApproval(ctx, cfg.Connection.Database)
	if err != nil {
		return fmt.Errorf("schema reset approval failed: %w", err)
	}
	if !approved {
		return fmt.Errorf("%w: schema reset of %s", dwhetl.ErrApprovalDenied, cfg.Connection.Database)
	}
	return nil
}
