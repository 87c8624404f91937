package warehouse

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/lib/pq"

	"github.com/sparkify-data/dwhetl/pkg/dwhetl"
)

// sqlConn adapts one pinned *sql.Conn to dwhetl.Conn.
//
// Thread-Safety: NOT safe for concurrent use.
type sqlConn struct {
	db     *sql.DB
	conn   *sql.Conn
	tx     *sql.Tx
	closed bool
}

// connectLibPQ opens a database/sql pool limited to one connection through
// github.com/lib/pq and pins that connection for the whole run.
func connectLibPQ(ctx context.Context, config *dwhetl.ConnectionConfig) (dwhetl.Conn, error) {
	connector, err := pq.NewConnector(libpqConnectionString(config))
	if err != nil {
		return nil, &dwhetl.ConfigurationError{Field: "connection", Reason: fmt.Sprintf("failed to parse connection config: %v", err)}
	}

	conn, err := newSQLConn(ctx, sql.OpenDB(connector))
	if err != nil {
		return nil, wrapConnectionError(err, config.Host, config.Port, config.Database)
	}
	return conn, nil
}

// libpqConnectionString maps sslmode values lib/pq does not implement.
func libpqConnectionString(config *dwhetl.ConnectionConfig) string {
	c := *config
	switch c.SSLMode {
	case "prefer":
		c.SSLMode = "require"
	case "allow":
		c.SSLMode = "disable"
	}
	return BuildConnectionString(&c)
}

// newSQLConn pins a single connection of db. db is closed on failure.
func newSQLConn(ctx context.Context, db *sql.DB) (*sqlConn, error) {
	db.SetMaxOpenConns(1)

	conn, err := db.Conn(ctx)
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	if err := conn.PingContext(ctx); err != nil {
		_ = conn.Close()
		_ = db.Close()
		return nil, err
	}
	return &sqlConn{db: db, conn: conn}, nil
}

// Exec runs sql inside the open transaction, beginning one if needed.
func (c *sqlConn) Exec(ctx context.Context, query string) (int64, error) {
	if c.closed {
		return 0, fmt.Errorf("connection is closed")
	}
	if c.tx == nil {
		// database/sql rolls a transaction back when its BeginTx context is
		// canceled; the transaction must outlive per-statement deadlines.
		tx, err := c.conn.BeginTx(context.WithoutCancel(ctx), nil)
		if err != nil {
			return 0, fmt.Errorf("begin transaction: %w", err)
		}
		c.tx = tx
	}

	res, err := c.tx.ExecContext(ctx, query)
	if err != nil {
		return 0, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, nil
	}
	return n, nil
}

// Commit commits the open transaction. *sql.Tx.Commit takes no context, so
// an already expired ctx fails fast instead.
func (c *sqlConn) Commit(ctx context.Context) error {
	if c.tx == nil {
		return nil
	}
	tx := c.tx
	c.tx = nil
	if err := ctx.Err(); err != nil {
		_ = tx.Rollback()
		return err
	}
	return tx.Commit()
}

// Close discards any open transaction, then releases the connection and pool.
func (c *sqlConn) Close(ctx context.Context) error {
	if c.closed {
		return nil
	}
	c.closed = true
	if c.tx != nil {
		_ = c.tx.Rollback()
		c.tx = nil
	}
	connErr := c.conn.Close()
	dbErr := c.db.Close()
	if connErr != nil {
		return connErr
	}
	return dbErr
}
