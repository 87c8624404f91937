// Package warehouse connects to the data warehouse and adapts driver
// connections to dwhetl.Conn.
//
// Two drivers are supported: github.com/jackc/pgx/v5 (default, a single
// *pgx.Conn using the simple query protocol) and github.com/lib/pq through
// database/sql (one pinned *sql.Conn). Connection parameters are resolved
// from flags, libpq environment variables and dwh.yaml; Redshift IAM
// authentication obtains temporary credentials with GetClusterCredentials.
package warehouse
