package dwhetl

import "time"

// Exit codes for semantic error classification.
// These follow Unix/GNU conventions:
//   - 0: Success
//   - 1: General error
//   - 2: CLI usage error (misuse of command line)
//   - 3+: Application-specific errors
const (
	ExitSuccess         = 0  // Run completed successfully
	ExitGeneralError    = 1  // Unknown or unclassified error
	ExitUsageError      = 2  // CLI usage error (missing args, invalid flags)
	ExitPanic           = 3  // Internal panic (unexpected crash)
	ExitConfigError     = 10 // Invalid configuration
	ExitConnectionError = 11 // Failed to connect to the warehouse
	ExitApprovalDenied  = 12 // User declined the schema reset
	ExitExecutionFailed = 13 // A statement or commit was rejected
)

const (
	// DefaultRegion is the object-storage region used when none is configured.
	DefaultRegion = "us-west-2"

	// DefaultRedshiftPort is the port Redshift clusters listen on by default.
	DefaultRedshiftPort = 5439

	// DefaultPostgresPort is the default port for PostgreSQL-compatible engines.
	DefaultPostgresPort = 5432

	// DefaultTimeout bounds an entire run. Bulk loads of a full month of logs
	// can take a while on small clusters.
	DefaultTimeout = 2 * time.Hour

	// DefaultAppName is sent as application_name so runs are visible in
	// stv_sessions / pg_stat_activity.
	DefaultAppName = "dwhetl"

	// DefaultIAMCredentialsDuration is how long Redshift temporary
	// credentials stay valid. Only the connection handshake needs them.
	DefaultIAMCredentialsDuration = 15 * time.Minute

	// MaxErrorPreviewLength caps how much SQL is echoed in error output.
	MaxErrorPreviewLength = 200

	// DefaultForceApprovalCountdown is how long --force waits before a
	// schema reset, giving the user a chance to press Ctrl+C.
	DefaultForceApprovalCountdown = 5 * time.Second

	// ConfigFileName is the project configuration file looked up in the project directory.
	ConfigFileName = "dwh.yaml"
)
