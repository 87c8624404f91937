package warehouse

import (
	"context"
	"time"
)

// Credentials are a database user and password valid until Expiration.
type Credentials struct {
	Username   string
	Password   string
	Expiration time.Time
}

// CredentialsProvider abstracts acquisition of short-lived database
// credentials (Redshift GetClusterCredentials) so connectors can be tested
// with fakes.
type CredentialsProvider interface {
	// GetCredentials acquires a fresh user/password pair.
	GetCredentials(ctx context.Context) (Credentials, error)

	// String returns a human-readable description for logging.
	// Must NOT include secrets.
	String() string
}
