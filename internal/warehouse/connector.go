package warehouse

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/sparkify-data/dwhetl/internal/logging"
	"github.com/sparkify-data/dwhetl/pkg/dwhetl"
)

// StandardConnector implements dwhetl.Connector for username/password
// authentication. A failed connection attempt is not retried.
type StandardConnector struct {
	config *dwhetl.ConnectionConfig
	logger dwhetl.Logger
}

// NewStandardConnector creates a StandardConnector. A nil logger discards notices.
func NewStandardConnector(config *dwhetl.ConnectionConfig, logger dwhetl.Logger) *StandardConnector {
	if config == nil {
		panic("config cannot be nil")
	}
	if logger == nil {
		logger = logging.NewNullLogger()
	}
	return &StandardConnector{config: config, logger: logger}
}

// Connect opens exactly one connection with the configured driver.
func (c *StandardConnector) Connect(ctx context.Context) (dwhetl.Conn, error) {
	return open(ctx, c.config, c.logger)
}

// CredentialsConnector implements dwhetl.Connector for clusters that
// authenticate with short-lived credentials from a CredentialsProvider.
type CredentialsConnector struct {
	config       *dwhetl.ConnectionConfig
	provider     CredentialsProvider
	providerName string
	logger       dwhetl.Logger
}

// NewCredentialsConnector creates a connector that acquires credentials from provider.
// providerName is used in error/warning messages (e.g., "Redshift IAM").
func NewCredentialsConnector(config *dwhetl.ConnectionConfig, provider CredentialsProvider, providerName string, logger dwhetl.Logger) *CredentialsConnector {
	if config == nil {
		panic("config cannot be nil")
	}
	if provider == nil {
		panic("provider cannot be nil")
	}
	if logger == nil {
		logger = logging.NewNullLogger()
	}
	return &CredentialsConnector{
		config:       config,
		provider:     provider,
		providerName: providerName,
		logger:       logger,
	}
}

// Connect acquires fresh credentials and opens one connection with them.
func (c *CredentialsConnector) Connect(ctx context.Context) (dwhetl.Conn, error) {
	creds, err := c.provider.GetCredentials(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to acquire %s credentials: %w", dwhetl.ErrConnectionFailed, c.providerName, err)
	}

	if remaining := time.Until(creds.Expiration); remaining < time.Minute {
		c.logger.Info("Warning: %s credentials expire in %v", c.providerName, remaining.Round(time.Second))
	}
	c.logger.Verbose("Acquired %s credentials for %s via %s", c.providerName, creds.Username, c.provider)

	withCreds := *c.config
	withCreds.Username = creds.Username
	withCreds.Password = creds.Password

	return open(ctx, &withCreds, c.logger)
}

// NewConnector creates the Connector matching config.AuthMethod.
func NewConnector(config *dwhetl.ConnectionConfig, logger dwhetl.Logger) (dwhetl.Connector, error) {
	switch config.AuthMethod {
	case dwhetl.AuthMethodStandard:
		return NewStandardConnector(config, logger), nil
	case dwhetl.AuthMethodAWSIAM:
		provider, err := NewRedshiftCredentialsProvider(config.ClusterIdentifier, config.AWSRegion, config.Username, config.Database)
		if err != nil {
			return nil, err
		}
		return NewCredentialsConnector(config, provider, "Redshift IAM", logger), nil
	default:
		return nil, fmt.Errorf("unsupported auth method %v: %w", config.AuthMethod, dwhetl.ErrUnsupportedAuthMethod)
	}
}

// open dispatches on the configured driver.
func open(ctx context.Context, config *dwhetl.ConnectionConfig, logger dwhetl.Logger) (dwhetl.Conn, error) {
	switch config.Driver {
	case dwhetl.DriverPgx, "":
		return connectPgx(ctx, config, logger)
	case dwhetl.DriverLibPQ:
		return connectLibPQ(ctx, config)
	default:
		return nil, &dwhetl.ConfigurationError{Field: "driver", Reason: fmt.Sprintf("unknown driver %q", config.Driver)}
	}
}

// wrapConnectionError wraps raw driver connection errors with actionable guidance.
// The result matches dwhetl.ErrConnectionFailed.
func wrapConnectionError(err error, host string, port int, database string) error {
	errStr := strings.ToLower(err.Error())
	addr := fmt.Sprintf("%s:%d", host, port)

	switch {
	case strings.Contains(errStr, "connection refused") || strings.Contains(errStr, "actively refused"):
		return fmt.Errorf(`%w: connection refused to %s

Possible causes:
  - The cluster is paused, resizing, or not running
  - Wrong host or port (Redshift listens on 5439 by default)
  - Firewall blocking the connection

Original error: %w`, dwhetl.ErrConnectionFailed, addr, err)

	case strings.Contains(errStr, "no such host") || strings.Contains(errStr, "no host"):
		return fmt.Errorf(`%w: cannot resolve host "%s"

Possible causes:
  - Cluster endpoint is misspelled or the cluster was deleted
  - DNS is not configured or reachable
  - Network connection issue

Original error: %w`, dwhetl.ErrConnectionFailed, host, err)

	case strings.Contains(errStr, "password authentication failed"):
		return fmt.Errorf(`%w: password authentication failed for database "%s"

Possible causes:
  - Wrong password (check $PGPASSWORD or cluster.password in dwh.yaml)
  - Wrong username
  - User does not have access to the database

Original error: %w`, dwhetl.ErrConnectionFailed, database, err)

	case strings.Contains(errStr, "does not exist"):
		return fmt.Errorf(`%w: database "%s" does not exist

Check cluster.database in dwh.yaml (Redshift clusters start with "dev").

Original error: %w`, dwhetl.ErrConnectionFailed, database, err)

	case strings.Contains(errStr, "timeout") || strings.Contains(errStr, "timed out"):
		return fmt.Errorf(`%w: connection timed out to %s

Possible causes:
  - The cluster is not publicly accessible
  - The VPC security group has no inbound rule for port %d
  - Network latency or packet loss
  - Wrong host/port (server not listening)

Original error: %w`, dwhetl.ErrConnectionFailed, addr, port, err)

	case strings.Contains(errStr, "ssl") || strings.Contains(errStr, "tls"):
		return fmt.Errorf(`%w: SSL/TLS connection error

Possible causes:
  - Server requires SSL but --sslmode is wrong
  - Certificate verification failed (try --sslmode=require)

Original error: %w`, dwhetl.ErrConnectionFailed, err)

	case strings.Contains(errStr, "too many connections"):
		return fmt.Errorf(`%w: too many connections to database "%s"

Possible causes:
  - max_connections limit reached on the cluster
  - Stale sessions from previous runs

Original error: %w`, dwhetl.ErrConnectionFailed, database, err)

	default:
		return fmt.Errorf("%w: failed to connect to warehouse: %w", dwhetl.ErrConnectionFailed, err)
	}
}
