package dwhetl

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// Dialect selects the SQL flavor the query catalog renders.
type Dialect string

const (
	// DialectRedshift renders COPY-from-S3 bulk loads and informational
	// PRIMARY KEY / FOREIGN KEY constraints.
	DialectRedshift Dialect = "redshift"

	// DialectPostgres renders bulk loads that read newline-delimited JSON
	// files on the database server and omits key constraints, so the same
	// load order and duplicate behavior hold on an enforcing engine.
	DialectPostgres Dialect = "postgres"
)

// ParseDialect parses a dialect name. Empty means DialectRedshift.
func ParseDialect(s string) (Dialect, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "redshift":
		return DialectRedshift, nil
	case "postgres", "postgresql":
		return DialectPostgres, nil
	default:
		return "", &ConfigurationError{Field: "dialect", Reason: fmt.Sprintf("unknown dialect %q (expected redshift or postgres)", s)}
	}
}

// Driver selects the client library used to talk to the warehouse.
type Driver string

const (
	DriverPgx   Driver = "pgx"   // github.com/jackc/pgx/v5, single *pgx.Conn
	DriverLibPQ Driver = "libpq" // database/sql + github.com/lib/pq, one pinned *sql.Conn
)

// ParseDriver parses a driver name. Empty means DriverPgx.
func ParseDriver(s string) (Driver, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "pgx":
		return DriverPgx, nil
	case "libpq", "pq", "postgres":
		return DriverLibPQ, nil
	default:
		return "", &ConfigurationError{Field: "driver", Reason: fmt.Sprintf("unknown driver %q (expected pgx or libpq)", s)}
	}
}

// AuthMethod represents the type of authentication to use.
type AuthMethod int

const (
	AuthMethodStandard AuthMethod = iota // Username/Password
	AuthMethodAWSIAM                     // Redshift GetClusterCredentials
)

// String returns a human-readable string representation of the AuthMethod.
func (a AuthMethod) String() string {
	switch a {
	case AuthMethodStandard:
		return "Standard"
	case AuthMethodAWSIAM:
		return "AWS IAM"
	default:
		return fmt.Sprintf("Unknown(%d)", a)
	}
}

// IsValid returns true if the AuthMethod is a valid, defined value.
func (a AuthMethod) IsValid() bool {
	return a >= AuthMethodStandard && a <= AuthMethodAWSIAM
}

// ConnectionConfig represents resolved warehouse connection parameters.
type ConnectionConfig struct {
	Host     string
	Port     int
	Database string
	Username string
	Password string
	SSLMode  string

	Driver     Driver
	AuthMethod AuthMethod

	// Additional connection parameters
	AppName          string
	ConnectTimeout   time.Duration
	AdditionalParams map[string]string

	// Redshift IAM authentication (used when AuthMethod is AuthMethodAWSIAM).
	// Temporary credentials are requested for Username on ClusterIdentifier.
	ClusterIdentifier string
	AWSRegion         string
}

// CatalogConfig carries every value substituted into the statement catalog.
// Values are opaque strings; the catalog quotes them as SQL literals.
type CatalogConfig struct {
	Dialect Dialect

	// EventsLocation is the object-storage prefix of the event logs
	// (PostgreSQL dialect: a newline-delimited JSON file on the server).
	EventsLocation string

	// SongsLocation is the object-storage prefix of the song metadata.
	SongsLocation string

	// EventsPathDescriptor is the JSONPaths file mapping event-log fields to
	// staging_events columns. Redshift dialect only.
	EventsPathDescriptor string

	// RoleARN is the IAM role the warehouse assumes to read object storage.
	// Redshift dialect only.
	RoleARN string

	// Region of the object-storage bucket. Redshift dialect only.
	Region string
}

// Validate checks that every value the selected dialect substitutes is present.
// It returns a multi-error with one ConfigurationError per problem.
func (c *CatalogConfig) Validate() error {
	var errs []error

	if c.EventsLocation == "" {
		errs = append(errs, &ConfigurationError{Field: "s3.log_data", Reason: "event log location is required"})
	}
	if c.SongsLocation == "" {
		errs = append(errs, &ConfigurationError{Field: "s3.song_data", Reason: "song data location is required"})
	}

	if c.Dialect == DialectRedshift || c.Dialect == "" {
		if c.RoleARN == "" {
			errs = append(errs, &ConfigurationError{Field: "iam_role.arn", Reason: "IAM role ARN is required for COPY"})
		} else if !strings.HasPrefix(c.RoleARN, "arn:") {
			errs = append(errs, &ConfigurationError{Field: "iam_role.arn", Reason: fmt.Sprintf("%q is not an ARN", c.RoleARN)})
		}
		if c.EventsPathDescriptor == "" {
			errs = append(errs, &ConfigurationError{Field: "s3.log_jsonpath", Reason: "JSONPaths descriptor for event logs is required"})
		}
		if c.Region == "" {
			errs = append(errs, &ConfigurationError{Field: "s3.region", Reason: "region is required"})
		}
	}

	fields := []struct{ name, value string }{
		{"s3.log_data", c.EventsLocation},
		{"s3.song_data", c.SongsLocation},
		{"s3.log_jsonpath", c.EventsPathDescriptor},
		{"iam_role.arn", c.RoleARN},
		{"s3.region", c.Region},
	}
	for _, f := range fields {
		if strings.ContainsAny(f.value, "\\\x00\n\r") {
			errs = append(errs, &ConfigurationError{Field: f.name, Reason: "must not contain backslashes or control characters"})
		}
	}

	return errors.Join(errs...)
}

// RunConfig contains all parameters needed for an ETL run.
type RunConfig struct {
	Connection ConnectionConfig
	Catalog    CatalogConfig

	// ResetSchema drops the fact and dimension tables too, not only staging.
	ResetSchema bool

	// SkipStaging / SkipTransform run a single phase.
	SkipStaging   bool
	SkipTransform bool

	// Timeout is the global timeout for the entire run (0 = none).
	Timeout time.Duration

	// StatementTimeout bounds each remote call: every Exec and every Commit (0 = none).
	StatementTimeout time.Duration

	// Verbose enables detailed logging
	Verbose bool
}

// Validate checks if the RunConfig has all required fields and valid values.
// It returns a multi-error if multiple validation failures occur.
func (c *RunConfig) Validate() error {
	var errs []error

	if c.Connection.Host == "" {
		errs = append(errs, &ConfigurationError{Field: "cluster.host", Reason: "host is required"})
	}
	if c.Connection.Database == "" {
		errs = append(errs, &ConfigurationError{Field: "cluster.database", Reason: "database name is required"})
	}
	if c.Connection.Port <= 0 || c.Connection.Port > 65535 {
		errs = append(errs, &ConfigurationError{Field: "cluster.port", Reason: fmt.Sprintf("invalid port %d", c.Connection.Port)})
	}
	if c.Connection.AuthMethod == AuthMethodAWSIAM && c.Connection.ClusterIdentifier == "" {
		errs = append(errs, &ConfigurationError{Field: "cluster.cluster_identifier", Reason: "required for AWS IAM authentication"})
	}

	if c.SkipStaging && c.SkipTransform {
		errs = append(errs, &ConfigurationError{Field: "phases", Reason: "cannot skip both staging and transform"})
	}
	if c.Timeout < 0 {
		errs = append(errs, &ConfigurationError{Field: "timeout", Reason: "cannot be negative"})
	}
	if c.StatementTimeout < 0 {
		errs = append(errs, &ConfigurationError{Field: "statement_timeout", Reason: "cannot be negative"})
	}

	if err := c.Catalog.Validate(); err != nil {
		errs = append(errs, err)
	}

	return errors.Join(errs...)
}
