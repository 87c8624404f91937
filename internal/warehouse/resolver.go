package warehouse

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/sparkify-data/dwhetl/internal/config"
	"github.com/sparkify-data/dwhetl/pkg/dwhetl"
)

// ConnFlags represents connection parameters from CLI flags.
// These follow PostgreSQL standard flag conventions (-h, -p, -U, -d).
//
// Note: Password is NOT included as a CLI flag. Use $PGPASSWORD, the
// cluster.password key of dwh.yaml, a connection string, or IAM auth.
type ConnFlags struct {
	Host     string
	Port     int
	Username string
	Database string
	SSLMode  string

	Driver            string
	IAM               bool
	ClusterIdentifier string
	AWSRegion         string
}

// IsEmpty returns true if no endpoint flags were provided by the user.
// Database, driver and IAM flags may be combined with a connection string.
func (f *ConnFlags) IsEmpty() bool {
	return f.Host == "" && f.Port == 0 && f.Username == "" && f.SSLMode == ""
}

// EnvVars represents libpq environment variables plus the AWS region.
// See: https://www.postgresql.org/docs/current/libpq-envars.html
type EnvVars struct {
	PGHOST       string
	PGPORT       string
	PGUSER       string
	PGPASSWORD   string
	PGDATABASE   string
	PGSSLMODE    string
	DATABASE_URL string
	AWS_REGION   string
}

// LoadFromEnvironment loads connection environment variables.
func LoadFromEnvironment() *EnvVars {
	region := os.Getenv("AWS_REGION")
	if region == "" {
		region = os.Getenv("AWS_DEFAULT_REGION")
	}
	return &EnvVars{
		PGHOST:       os.Getenv("PGHOST"),
		PGPORT:       os.Getenv("PGPORT"),
		PGUSER:       os.Getenv("PGUSER"),
		PGPASSWORD:   os.Getenv("PGPASSWORD"),
		PGDATABASE:   os.Getenv("PGDATABASE"),
		PGSSLMODE:    os.Getenv("PGSSLMODE"),
		DATABASE_URL: os.Getenv("DATABASE_URL"),
		AWS_REGION:   region,
	}
}

// ResolveConnectionParams resolves connection parameters with this precedence:
//
//  1. Connection string flag (--connection), parsed and used directly
//  2. DATABASE_URL, when no endpoint flags were given
//  3. Per value: CLI flag > environment variable > dwh.yaml > default
//
// Defaults depend on the dialect in dwh.yaml: Redshift uses port 5439 and
// database "dev", PostgreSQL uses 5432 and "postgres".
//
// IAM authentication is enabled by --iam or cluster.auth_method: iam. The
// cluster identifier and region are derived from a Redshift endpoint host
// when not given explicitly.
func ResolveConnectionParams(
	connStringFlag string,
	flags *ConnFlags,
	envVars *EnvVars,
	projectConfig *config.ProjectConfig,
) (*dwhetl.ConnectionConfig, error) {
	if flags == nil {
		flags = &ConnFlags{}
	}
	if envVars == nil {
		envVars = &EnvVars{}
	}
	if projectConfig == nil {
		projectConfig = &config.ProjectConfig{}
	}

	if connStringFlag != "" && !flags.IsEmpty() {
		return nil, &dwhetl.ConfigurationError{
			Field: "connection",
			Reason: "cannot specify both --connection and granular flags (-h, -p, -U)\n" +
				"Choose one approach:\n" +
				"  1. Connection string: --connection \"redshift://awsuser@cluster.abc.us-west-2.redshift.amazonaws.com:5439/dev\"\n" +
				"  2. Granular flags: -h cluster.abc.us-west-2.redshift.amazonaws.com -p 5439 -U awsuser -d dev\n" +
				"  3. dwh.yaml cluster section or PGHOST/PGPORT/PGUSER",
		}
	}

	var cfg *dwhetl.ConnectionConfig
	var err error

	switch {
	case connStringFlag != "":
		cfg, err = resolveFromConnectionString(connStringFlag, envVars)
	case flags.IsEmpty() && envVars.DATABASE_URL != "":
		cfg, err = resolveFromConnectionString(envVars.DATABASE_URL, envVars)
	default:
		cfg, err = resolveFromGranularParams(flags, envVars, projectConfig)
	}
	if err != nil {
		return nil, err
	}

	if flags.Database != "" {
		cfg.Database = flags.Database
	}

	if err := applyDriver(cfg, flags, projectConfig); err != nil {
		return nil, err
	}
	if err := applyIAMAuth(cfg, flags, envVars, projectConfig); err != nil {
		return nil, err
	}

	return cfg, nil
}

func resolveFromConnectionString(connStr string, envVars *EnvVars) (*dwhetl.ConnectionConfig, error) {
	cfg, err := ParseConnectionString(connStr)
	if err != nil {
		return nil, &dwhetl.ConfigurationError{Field: "connection", Reason: "invalid connection string: " + err.Error()}
	}

	// libpq semantics: environment fills what the string leaves out.
	if cfg.Password == "" {
		cfg.Password = envVars.PGPASSWORD
	}
	if envVars.PGSSLMODE != "" && !strings.Contains(connStr, "sslmode") && !strings.Contains(strings.ToLower(connStr), "ssl mode") {
		cfg.SSLMode = envVars.PGSSLMODE
	}
	return cfg, nil
}

func resolveFromGranularParams(
	flags *ConnFlags,
	envVars *EnvVars,
	projectConfig *config.ProjectConfig,
) (*dwhetl.ConnectionConfig, error) {
	pc := projectConfig.Cluster

	defaultPort, defaultDB := dwhetl.DefaultRedshiftPort, "dev"
	if d, err := dwhetl.ParseDialect(projectConfig.Dialect); err == nil && d == dwhetl.DialectPostgres {
		defaultPort, defaultDB = dwhetl.DefaultPostgresPort, "postgres"
	}

	cfg := &dwhetl.ConnectionConfig{
		Driver:           dwhetl.DriverPgx,
		AuthMethod:       dwhetl.AuthMethodStandard,
		AdditionalParams: make(map[string]string),
	}

	// Host: flag > PGHOST > dwh.yaml > default
	cfg.Host = firstNonEmpty(flags.Host, envVars.PGHOST, pc.Host, "localhost")

	// Port: flag > PGPORT > dwh.yaml > default
	switch {
	case flags.Port != 0:
		cfg.Port = flags.Port
	case envVars.PGPORT != "":
		port, err := strconv.Atoi(envVars.PGPORT)
		if err != nil {
			return nil, &dwhetl.ConfigurationError{Field: "PGPORT", Reason: fmt.Sprintf("invalid value '%s': must be an integer", envVars.PGPORT)}
		}
		cfg.Port = port
	case pc.Port != 0:
		cfg.Port = pc.Port
	default:
		cfg.Port = defaultPort
	}

	// Username: flag > PGUSER > dwh.yaml > current OS user
	cfg.Username = firstNonEmpty(flags.Username, envVars.PGUSER, pc.Username, os.Getenv("USER"), os.Getenv("USERNAME"))

	// Password: PGPASSWORD > dwh.yaml
	cfg.Password = firstNonEmpty(envVars.PGPASSWORD, pc.Password)

	// Database: flag > PGDATABASE > dwh.yaml > default
	cfg.Database = firstNonEmpty(flags.Database, envVars.PGDATABASE, pc.Database, defaultDB)

	// SSLMode: flag > PGSSLMODE > dwh.yaml > default
	cfg.SSLMode = firstNonEmpty(flags.SSLMode, envVars.PGSSLMODE, pc.SSLMode, "prefer")

	return cfg, nil
}

func applyDriver(cfg *dwhetl.ConnectionConfig, flags *ConnFlags, projectConfig *config.ProjectConfig) error {
	name := firstNonEmpty(flags.Driver, projectConfig.Driver)
	if name == "" {
		if cfg.Driver == "" {
			cfg.Driver = dwhetl.DriverPgx
		}
		return nil
	}
	driver, err := dwhetl.ParseDriver(name)
	if err != nil {
		return err
	}
	cfg.Driver = driver
	return nil
}

func applyIAMAuth(cfg *dwhetl.ConnectionConfig, flags *ConnFlags, envVars *EnvVars, projectConfig *config.ProjectConfig) error {
	pc := projectConfig.Cluster

	switch strings.ToLower(pc.AuthMethod) {
	case "", "password", "standard":
	case "iam":
		cfg.AuthMethod = dwhetl.AuthMethodAWSIAM
	default:
		return &dwhetl.ConfigurationError{Field: "cluster.auth_method", Reason: fmt.Sprintf("%q is not supported (expected password or iam): %v", pc.AuthMethod, dwhetl.ErrUnsupportedAuthMethod)}
	}
	if flags.IAM {
		cfg.AuthMethod = dwhetl.AuthMethodAWSIAM
	}
	if cfg.AuthMethod != dwhetl.AuthMethodAWSIAM {
		return nil
	}

	derivedID, derivedRegion, _ := RedshiftEndpoint(cfg.Host)
	cfg.ClusterIdentifier = firstNonEmpty(flags.ClusterIdentifier, cfg.ClusterIdentifier, pc.ClusterIdentifier, derivedID)
	cfg.AWSRegion = firstNonEmpty(flags.AWSRegion, cfg.AWSRegion, pc.AWSRegion, envVars.AWS_REGION, derivedRegion)

	// Temporary credentials replace any static password.
	cfg.Password = ""
	return nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
