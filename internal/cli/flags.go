package cli

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/sparkify-data/dwhetl/internal/config"
	"github.com/sparkify-data/dwhetl/internal/params"
	"github.com/sparkify-data/dwhetl/internal/warehouse"
	"github.com/sparkify-data/dwhetl/pkg/dwhetl"
)

// Environment variables read for catalog values. Connection values use the
// libpq variables (PGHOST, PGPORT, ...) handled by the warehouse package.
const (
	envRoleARN     = "DWH_IAM_ROLE_ARN"
	envLogData     = "DWH_LOG_DATA"
	envLogJSONPath = "DWH_LOG_JSONPATH"
	envSongData    = "DWH_SONG_DATA"
	envRegion      = "DWH_REGION"
	envDialect     = "DWH_DIALECT"
)

// connectionFlags holds the warehouse connection flag values.
type connectionFlags struct {
	connection string
	host       string
	port       int
	username   string
	database   string
	sslMode    string
	driver     string
	iam        bool
	clusterID  string
	awsRegion  string
}

// catalogFlags holds the configuration sources and the catalog values.
type catalogFlags struct {
	configFile  string
	envFiles    []string
	sets        []string
	dialect     string
	roleARN     string
	logData     string
	logJSONPath string
	songData    string
	region      string
}

// etlFlags holds every flag of the run, stage and transform commands.
type etlFlags struct {
	connectionFlags
	catalogFlags
	reset            bool
	force            bool
	timeout          time.Duration
	statementTimeout time.Duration
}

func registerConnectionFlags(cmd *cobra.Command, f *connectionFlags) {
	fl := cmd.Flags()
	fl.StringVar(&f.connection, "connection", "", "Connection string (postgresql://, redshift://, jdbc:redshift:// or ADO.NET)")
	fl.StringVarP(&f.host, "host", "h", "", "Warehouse host (default: $PGHOST, cluster.host)")
	fl.IntVarP(&f.port, "port", "p", 0, "Warehouse port (default: $PGPORT, cluster.port, 5439)")
	fl.StringVarP(&f.username, "username", "U", "", "Database user (default: $PGUSER, cluster.username)")
	fl.StringVarP(&f.database, "database", "d", "", "Database name (default: $PGDATABASE, cluster.database, dev)")
	fl.StringVar(&f.sslMode, "sslmode", "", "SSL mode: disable, allow, prefer, require, verify-ca, verify-full")
	fl.StringVar(&f.driver, "driver", "", "Client driver: pgx (default) or libpq")
	fl.BoolVar(&f.iam, "iam", false, "Authenticate with Redshift temporary IAM credentials")
	fl.StringVar(&f.clusterID, "cluster-id", "", "Redshift cluster identifier for --iam (default: derived from host)")
	fl.StringVar(&f.awsRegion, "aws-region", "", "AWS region of the cluster for --iam (default: derived from host, $AWS_REGION)")
}

func registerCatalogFlags(cmd *cobra.Command, f *catalogFlags) {
	fl := cmd.Flags()
	fl.StringVar(&f.configFile, "config", "", "Path to the configuration file (default: <project_dir>/dwh.yaml)")
	fl.StringArrayVar(&f.envFiles, "env-file", nil, "Export variables from a .env file before resolving values (repeatable)")
	fl.StringArrayVar(&f.sets, "set", nil, "Override a dwh.yaml key, e.g. --set s3.region=us-east-1 (repeatable)")
	fl.StringVar(&f.dialect, "dialect", "", "SQL dialect: redshift (default) or postgres (default: $DWH_DIALECT, dialect)")
	fl.StringVar(&f.roleARN, "role-arn", "", "IAM role the cluster assumes for COPY (default: $DWH_IAM_ROLE_ARN, iam_role.arn)")
	fl.StringVar(&f.logData, "log-data", "", "Event log location (default: $DWH_LOG_DATA, s3.log_data)")
	fl.StringVar(&f.logJSONPath, "log-jsonpath", "", "JSONPaths file for event logs (default: $DWH_LOG_JSONPATH, s3.log_jsonpath)")
	fl.StringVar(&f.songData, "song-data", "", "Song metadata location (default: $DWH_SONG_DATA, s3.song_data)")
	fl.StringVar(&f.region, "region", "", "Region of the source bucket (default: $DWH_REGION, s3.region, AWS config, us-west-2)")
}

func registerETLFlags(cmd *cobra.Command, f *etlFlags, withReset bool) {
	registerConnectionFlags(cmd, &f.connectionFlags)
	registerCatalogFlags(cmd, &f.catalogFlags)

	fl := cmd.Flags()
	fl.DurationVar(&f.timeout, "timeout", dwhetl.DefaultTimeout, "Timeout for the whole run (0 = none)")
	fl.DurationVar(&f.statementTimeout, "statement-timeout", 0, "Timeout for each statement and each commit (0 = none)")
	if withReset {
		fl.BoolVar(&f.reset, "reset", false, "Drop the fact and dimension tables too, not only staging")
		fl.BoolVar(&f.force, "force", false, "Confirm --reset without a prompt (5 second countdown)")
	}

	_ = cmd.RegisterFlagCompletionFunc("sslmode", completeSSLModes)
	_ = cmd.RegisterFlagCompletionFunc("driver", completeDrivers)
	_ = cmd.RegisterFlagCompletionFunc("dialect", completeDialects)
	_ = cmd.RegisterFlagCompletionFunc("set", completeConfigKeys)
}

// buildRunConfig resolves every value of a run. Precedence per value is
// flag > environment > dwh.yaml (with --set applied) > default.
func buildRunConfig(ctx context.Context, cmd *cobra.Command, args []string, f *etlFlags, mode runMode) (*dwhetl.RunConfig, error) {
	verbose := getVerboseFlag(cmd)

	projectCfg, err := resolveProjectConfig(projectDirArg(args), &f.catalogFlags, verbose)
	if err != nil {
		return nil, err
	}

	catalogCfg, err := resolveCatalogConfig(ctx, &f.catalogFlags, projectCfg, verbose)
	if err != nil {
		return nil, err
	}

	connCfg, err := resolveConnection(&f.connectionFlags, projectCfg)
	if err != nil {
		return nil, err
	}
	if verbose {
		logConnectionVerbose(connCfg)
	}

	timeout, err := resolveDuration(cmd, "timeout", f.timeout, projectCfg.Timeout, "timeout")
	if err != nil {
		return nil, err
	}
	statementTimeout, err := resolveDuration(cmd, "statement-timeout", f.statementTimeout, projectCfg.StatementTimeout, "statement_timeout")
	if err != nil {
		return nil, err
	}

	reset := f.reset
	if cmd.Flags().Lookup("reset") == nil || !cmd.Flags().Changed("reset") {
		reset = projectCfg.ResetSchema
	}

	return &dwhetl.RunConfig{
		Connection:       *connCfg,
		Catalog:          catalogCfg,
		ResetSchema:      reset,
		SkipStaging:      mode == modeTransform,
		SkipTransform:    mode == modeStage,
		Timeout:          timeout,
		StatementTimeout: statementTimeout,
		Verbose:          verbose,
	}, nil
}

// resolveProjectConfig loads the environment and dwh.yaml, then applies --set
// overrides and the dialect override.
func resolveProjectConfig(projectDir string, f *catalogFlags, verbose bool) (*config.ProjectConfig, error) {
	if err := loadEnvironment(projectDir, f.envFiles, verbose); err != nil {
		return nil, err
	}

	projectCfg, err := loadProjectConfig(projectDir, f.configFile)
	if err != nil {
		return nil, err
	}

	overrides, err := params.ParseKeyValuePairs(f.sets)
	if err != nil {
		return nil, &dwhetl.ConfigurationError{Field: "set", Reason: err.Error()}
	}
	if err := projectCfg.ApplyOverrides(overrides); err != nil {
		return nil, err
	}
	if verbose && len(overrides) > 0 {
		fmt.Fprintf(os.Stderr, "[VERBOSE] --set overrides %d value(s)\n", len(overrides))
	}

	if d := firstNonEmpty(f.dialect, os.Getenv(envDialect)); d != "" {
		projectCfg.Dialect = d
	}
	return projectCfg, nil
}

// loadEnvironment exports <project_dir>/.env (existing variables win) and then
// every --env-file in order (file values win).
func loadEnvironment(projectDir string, envFiles []string, verbose bool) error {
	dotenv := filepath.Join(projectDir, ".env")
	if err := godotenv.Load(dotenv); err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("failed to load %s: %w", dotenv, err)
		}
	} else if verbose {
		fmt.Fprintf(os.Stderr, "[VERBOSE] Loaded environment from %s\n", dotenv)
	}

	for _, path := range envFiles {
		content, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("failed to read env file '%s': %w", path, err)
		}
		values, err := params.ParseEnvFile(content)
		if err != nil {
			return &dwhetl.ConfigurationError{Field: "env-file", Reason: fmt.Sprintf("%s: %v", path, err)}
		}
		for k, v := range values {
			if err := os.Setenv(k, v); err != nil {
				return fmt.Errorf("failed to export %s from '%s': %w", k, path, err)
			}
		}
		if verbose {
			fmt.Fprintf(os.Stderr, "[VERBOSE] Exported %d variable(s) from %s\n", len(values), path)
		}
	}
	return nil
}

// loadProjectConfig reads dwh.yaml. A missing dwh.yaml in the project
// directory yields an empty config; a missing --config file is an error.
func loadProjectConfig(projectDir, configFile string) (*config.ProjectConfig, error) {
	var (
		projectCfg *config.ProjectConfig
		err        error
		name       = config.ConfigFileName
	)
	if configFile != "" {
		name = configFile
		projectCfg, err = config.LoadFile(configFile)
	} else {
		projectCfg, err = config.Load(projectDir)
	}

	switch {
	case err == nil:
		return projectCfg, nil
	case errors.Is(err, config.ErrConfigNotFound) && configFile == "":
		return &config.ProjectConfig{}, nil
	case errors.Is(err, config.ErrConfigNotFound):
		return nil, &dwhetl.ConfigurationError{Field: "config", Reason: fmt.Sprintf("%s does not exist", configFile)}
	default:
		return nil, &dwhetl.ConfigurationError{Field: name, Reason: err.Error()}
	}
}

// discoverRegion asks the AWS SDK for the default region (AWS_REGION,
// AWS_DEFAULT_REGION or the shared profile). It is replaced in tests.
var discoverRegion = func(ctx context.Context) string {
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx)
	if err != nil {
		return ""
	}
	return awsCfg.Region
}

// resolveCatalogConfig resolves the values substituted into the catalog.
func resolveCatalogConfig(ctx context.Context, f *catalogFlags, projectCfg *config.ProjectConfig, verbose bool) (dwhetl.CatalogConfig, error) {
	dialect, err := dwhetl.ParseDialect(projectCfg.Dialect)
	if err != nil {
		return dwhetl.CatalogConfig{}, err
	}

	cfg := dwhetl.CatalogConfig{
		Dialect:              dialect,
		EventsLocation:       firstNonEmpty(f.logData, os.Getenv(envLogData), projectCfg.S3.LogData),
		SongsLocation:        firstNonEmpty(f.songData, os.Getenv(envSongData), projectCfg.S3.SongData),
		EventsPathDescriptor: firstNonEmpty(f.logJSONPath, os.Getenv(envLogJSONPath), projectCfg.S3.LogJSONPath),
		RoleARN:              firstNonEmpty(f.roleARN, os.Getenv(envRoleARN), projectCfg.IAMRole.ARN),
		Region:               firstNonEmpty(f.region, os.Getenv(envRegion), projectCfg.S3.Region),
	}

	if dialect == dwhetl.DialectRedshift && cfg.Region == "" {
		cfg.Region = discoverRegion(ctx)
		if cfg.Region == "" {
			cfg.Region = dwhetl.DefaultRegion
		}
		if verbose {
			fmt.Fprintf(os.Stderr, "[VERBOSE] No bucket region configured, using %s\n", cfg.Region)
		}
	}
	return cfg, nil
}

// resolveConnection resolves connection parameters from flags, the
// environment and dwh.yaml.
func resolveConnection(f *connectionFlags, projectCfg *config.ProjectConfig) (*dwhetl.ConnectionConfig, error) {
	return warehouse.ResolveConnectionParams(
		f.connection,
		&warehouse.ConnFlags{
			Host:              f.host,
			Port:              f.port,
			Username:          f.username,
			Database:          f.database,
			SSLMode:           f.sslMode,
			Driver:            f.driver,
			IAM:               f.iam,
			ClusterIdentifier: f.clusterID,
			AWSRegion:         f.awsRegion,
		},
		warehouse.LoadFromEnvironment(),
		projectCfg,
	)
}

// resolveDuration returns the dwh.yaml value when the flag was not set explicitly.
func resolveDuration(cmd *cobra.Command, flagName string, flagValue time.Duration, yamlValue, yamlKey string) (time.Duration, error) {
	if yamlValue == "" || cmd.Flags().Changed(flagName) {
		return flagValue, nil
	}
	parsed, err := time.ParseDuration(yamlValue)
	if err != nil {
		return 0, &dwhetl.ConfigurationError{Field: yamlKey, Reason: fmt.Sprintf("invalid duration %q", yamlValue)}
	}
	return parsed, nil
}

// logConnectionVerbose logs connection details when verbose mode is enabled.
func logConnectionVerbose(cfg *dwhetl.ConnectionConfig) {
	fmt.Fprintf(os.Stderr, "[VERBOSE] Connection resolved:\n")
	fmt.Fprintf(os.Stderr, "  Host: %s\n", cfg.Host)
	fmt.Fprintf(os.Stderr, "  Port: %d\n", cfg.Port)
	fmt.Fprintf(os.Stderr, "  User: %s\n", cfg.Username)
	fmt.Fprintf(os.Stderr, "  Database: %s\n", cfg.Database)
	fmt.Fprintf(os.Stderr, "  SSL Mode: %s\n", cfg.SSLMode)
	fmt.Fprintf(os.Stderr, "  Driver: %s\n", cfg.Driver)
	fmt.Fprintf(os.Stderr, "  Auth Method: %s\n", cfg.AuthMethod)
	if cfg.AuthMethod == dwhetl.AuthMethodAWSIAM {
		fmt.Fprintf(os.Stderr, "  Cluster: %s (%s)\n", cfg.ClusterIdentifier, cfg.AWSRegion)
	}
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
