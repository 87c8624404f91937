package warehouse

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/sparkify-data/dwhetl/pkg/dwhetl"
)

// pgxConn adapts a single *pgx.Conn to dwhetl.Conn.
//
// Thread-Safety: NOT safe for concurrent use.
type pgxConn struct {
	conn   *pgx.Conn
	tx     pgx.Tx
	closed bool
}

// connectPgx opens one connection using the simple query protocol, which
// Redshift requires (no server-side prepared statements).
func connectPgx(ctx context.Context, config *dwhetl.ConnectionConfig, logger dwhetl.Logger) (dwhetl.Conn, error) {
	connConfig, err := pgx.ParseConfig(BuildConnectionString(config))
	if err != nil {
		return nil, &dwhetl.ConfigurationError{Field: "connection", Reason: fmt.Sprintf("failed to parse connection config: %v", err)}
	}

	connConfig.DefaultQueryExecMode = pgx.QueryExecModeSimpleProtocol
	connConfig.OnNotice = func(_ *pgconn.PgConn, notice *pgconn.Notice) {
		logger.Verbose("NOTICE: %s", notice.Message)
	}

	conn, err := pgx.ConnectConfig(ctx, connConfig)
	if err != nil {
		return nil, wrapConnectionError(err, config.Host, config.Port, config.Database)
	}

	if err := conn.Ping(ctx); err != nil {
		_ = conn.Close(ctx)
		return nil, wrapConnectionError(err, config.Host, config.Port, config.Database)
	}

	return &pgxConn{conn: conn}, nil
}

// Exec runs sql inside the open transaction, beginning one if needed.
func (c *pgxConn) Exec(ctx context.Context, sql string) (int64, error) {
	if c.closed {
		return 0, fmt.Errorf("connection is closed")
	}
	if c.tx == nil {
		tx, err := c.conn.Begin(ctx)
		if err != nil {
			return 0, fmt.Errorf("begin transaction: %w", err)
		}
		c.tx = tx
	}

	tag, err := c.tx.Exec(ctx, sql)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

// Commit commits the open transaction. The transaction is finished whether
// or not the commit succeeds.
func (c *pgxConn) Commit(ctx context.Context) error {
	if c.tx == nil {
		return nil
	}
	tx := c.tx
	c.tx = nil
	return tx.Commit(ctx)
}

// Close discards any open transaction and closes the connection.
func (c *pgxConn) Close(ctx context.Context) error {
	if c.closed {
		return nil
	}
	c.closed = true
	if c.tx != nil {
		_ = c.tx.Rollback(ctx)
		c.tx = nil
	}
	return c.conn.Close(ctx)
}
