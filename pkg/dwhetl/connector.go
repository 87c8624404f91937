package dwhetl

import "context"

// Conn is the blocking request/response interface the loaders drive.
//
// Exec implicitly opens a transaction when none is open and runs a single
// statement inside it; Commit commits the open transaction. No result sets are
// read: Exec only reports the number of rows affected (0 for DDL).
//
// Thread-Safety: NOT safe for concurrent use. One run owns one Conn.
type Conn interface {
	// Exec executes one statement in the current (implicitly opened) transaction.
	Exec(ctx context.Context, sql string) (rowsAffected int64, err error)

	// Commit commits the current transaction. Committing with no open
	// transaction is a no-op.
	Commit(ctx context.Context) error

	// Close releases the connection. An open, uncommitted transaction is
	// discarded by the server. Close is idempotent.
	Close(ctx context.Context) error
}

// Connector is a unified interface for establishing warehouse connections.
// Different implementations handle various drivers and authentication methods
// (standard credentials, Redshift IAM temporary credentials).
type Connector interface {
	// Connect opens exactly one connection to the warehouse.
	// The caller owns the returned Conn and must Close it.
	Connect(ctx context.Context) (Conn, error)
}
