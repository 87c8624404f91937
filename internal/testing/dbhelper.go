package testing

import (
	"context"
	"fmt"
	"os"
	"strings"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/lib/pq"

	"github.com/sparkify-data/dwhetl/internal/logging"
	"github.com/sparkify-data/dwhetl/internal/services"
	"github.com/sparkify-data/dwhetl/internal/testinfra"
	"github.com/sparkify-data/dwhetl/internal/warehouse"
	"github.com/sparkify-data/dwhetl/pkg/dwhetl"
)

var (
	testContainerOnce sync.Once
	testContainerConn string
	testContainerErr  error
)

func getOrStartTestContainer() (string, error) {
	testContainerOnce.Do(func() {
		container, err := testinfra.StartPostgres(context.Background())
		if err != nil {
			testContainerErr = err
			return
		}
		testContainerConn = container.ConnString
	})
	return testContainerConn, testContainerErr
}

// GetTestConnectionString returns the test warehouse connection string.
// Priority: DWHETL_TEST_CONN env var > auto-started testcontainer > skip test.
//
// The server must be PostgreSQL and the user a superuser: staging fixtures
// are written to, and bulk-loaded from, the server's file system.
func GetTestConnectionString(t *testing.T) string {
	t.Helper()

	if connString := os.Getenv("DWHETL_TEST_CONN"); connString != "" {
		return connString
	}

	connString, err := getOrStartTestContainer()
	if err != nil {
		t.Skipf("DWHETL_TEST_CONN not set and Docker unavailable: %v", err)
	}
	return connString
}

// SkipIfShort skips the test if running in short mode (-short flag).
func SkipIfShort(t *testing.T) {
	t.Helper()

	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}
}

// RequireDatabase combines SkipIfShort and GetTestConnectionString for convenience.
// Returns the test connection string if available, otherwise skips the test.
func RequireDatabase(t *testing.T) string {
	t.Helper()

	SkipIfShort(t)
	return GetTestConnectionString(t)
}

// NewTestRunService creates a RunService wired to the real warehouse
// connectors and a discarding logger.
func NewTestRunService(t *testing.T) *services.RunService {
	t.Helper()

	factory := func(cfg *dwhetl.ConnectionConfig, logger dwhetl.Logger) (dwhetl.Connector, error) {
		return warehouse.NewConnector(cfg, logger)
	}
	return services.NewRunService(factory, logging.NewNullLogger())
}

// ConnectionConfig parses connString and points it at dbName.
func ConnectionConfig(t *testing.T, connString, dbName string) *dwhetl.ConnectionConfig {
	t.Helper()

	config, err := warehouse.ParseConnectionString(connString)
	if err != nil {
		t.Fatalf("Failed to parse connection string: %v", err)
	}
	config.Database = dbName
	return config
}

// UniqueDBName returns a database name that is safe to create in parallel tests.
func UniqueDBName(prefix string) string {
	return prefix + "_" + uuid.NewString()[:8]
}

// CreateTestDB creates a test database with the given name and drops it when
// the test completes.
func CreateTestDB(t *testing.T, connString, dbName string) {
	t.Helper()

	ctx := context.Background()

	pool, err := pgxpool.New(ctx, connString)
	if err != nil {
		t.Fatalf("Failed to connect for test DB creation: %v", err)
	}
	defer pool.Close()

	if _, err := pool.Exec(ctx, "CREATE DATABASE "+pq.QuoteIdentifier(dbName)); err != nil {
		t.Fatalf("Failed to create test database %s: %v", dbName, err)
	}
	t.Logf("✓ Created test database %s", dbName)

	t.Cleanup(func() {
		CleanupTestDB(t, connString, dbName)
	})
}

// CleanupTestDB drops the test database.
// Safe to call multiple times (uses DROP DATABASE IF EXISTS).
func CleanupTestDB(t *testing.T, connString, dbName string) {
	t.Helper()

	ctx := context.Background()

	pool, err := pgxpool.New(ctx, connString)
	if err != nil {
		t.Logf("Warning: Failed to connect for cleanup: %v", err)
		return
	}
	defer pool.Close()

	_, err = pool.Exec(ctx, `
		SELECT pg_terminate_backend(pid)
		FROM pg_stat_activity
		WHERE datname = $1 AND pid <> pg_backend_pid()
	`, dbName)
	if err != nil {
		t.Logf("Warning: Failed to terminate connections to %s: %v", dbName, err)
	}

	if _, err := pool.Exec(ctx, "DROP DATABASE IF EXISTS "+pq.QuoteIdentifier(dbName)); err != nil {
		t.Logf("Warning: Failed to drop database %s: %v", dbName, err)
	} else {
		t.Logf("✓ Cleaned up database %s", dbName)
	}
}

// GetTestPool creates a connection pool to the specified database for
// assertions. The pool is automatically closed when the test completes.
func GetTestPool(t *testing.T, connString, dbName string) *pgxpool.Pool {
	t.Helper()

	pool, err := pgxpool.New(context.Background(), warehouse.BuildConnectionString(ConnectionConfig(t, connString, dbName)))
	if err != nil {
		t.Fatalf("Failed to create connection pool: %v", err)
	}
	t.Cleanup(pool.Close)
	return pool
}

// WriteServerFile writes lines as a file on the database server, where the
// postgres dialect's bulk loads read it. Lines must not contain backslashes,
// tabs or newlines. Returns the server-side path.
func WriteServerFile(t *testing.T, pool *pgxpool.Pool, name string, lines []string) string {
	t.Helper()

	path := fmt.Sprintf("/tmp/dwhetl_%s_%s", strings.ReplaceAll(uuid.NewString(), "-", ""), name)

	values := make([]string, len(lines))
	for i, line := range lines {
		if strings.ContainsAny(line, "\\\t\n") {
			t.Fatalf("WriteServerFile: line %d contains a character COPY would escape", i+1)
		}
		values[i] = pq.QuoteLiteral(line)
	}

	query := fmt.Sprintf("COPY (SELECT unnest(ARRAY[%s]::text[])) TO %s",
		strings.Join(values, ", "), pq.QuoteLiteral(path))
	if len(lines) == 0 {
		query = fmt.Sprintf("COPY (SELECT ''::text WHERE false) TO %s", pq.QuoteLiteral(path))
	}

	if _, err := pool.Exec(context.Background(), query); err != nil {
		t.Fatalf("Failed to write server file %s: %v", path, err)
	}
	return path
}

// CountRows returns the number of rows in table.
func CountRows(t *testing.T, pool *pgxpool.Pool, table string) int {
	t.Helper()

	var n int
	query := "SELECT count(*) FROM " + pq.QuoteIdentifier(table)
	if err := pool.QueryRow(context.Background(), query).Scan(&n); err != nil {
		t.Fatalf("Failed to count rows of %s: %v", table, err)
	}
	return n
}
