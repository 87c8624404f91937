package services

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/sparkify-data/dwhetl/internal/catalog"
	"github.com/sparkify-data/dwhetl/internal/logging"
	"github.com/sparkify-data/dwhetl/pkg/dwhetl"
)

// ConnectorFactory builds the Connector for a resolved connection config.
// warehouse.NewConnector is the production implementation.
type ConnectorFactory func(*dwhetl.ConnectionConfig, dwhetl.Logger) (dwhetl.Connector, error)

// RunService drives a complete ETL run over exactly one connection.
// Thread-Safety: safe for concurrent Run() calls; each run owns its connection.
type RunService struct {
	connectorFactory ConnectorFactory
	logger           dwhetl.Logger
	newRunID         func() string
}

// NewRunService creates a RunService. Panics on nil dependencies.
func NewRunService(connectorFactory ConnectorFactory, logger dwhetl.Logger) *RunService {
	if connectorFactory == nil {
		panic("connectorFactory cannot be nil")
	}
	if logger == nil {
		panic("logger cannot be nil")
	}
	return &RunService{
		connectorFactory: connectorFactory,
		logger:           logger,
		newRunID:         uuid.NewString,
	}
}

// Run validates cfg, renders the catalog, opens one connection, runs the
// staging phase then the transform phase (unless skipped) and closes the
// connection on every path.
//
// The returned Report lists every committed statement, including those
// committed before a failure.
func (s *RunService) Run(ctx context.Context, cfg dwhetl.RunConfig) (dwhetl.Report, error) {
	start := time.Now()
	report := dwhetl.Report{RunID: s.newRunID()}

	if err := cfg.Validate(); err != nil {
		return report, fmt.Errorf("invalid configuration: %w", err)
	}

	cat, err := catalog.New(cfg.Catalog)
	if err != nil {
		return report, err
	}

	logger := logging.NewRedactingLogger(s.logger, cfg.Catalog.RoleARN, cfg.Connection.Password)

	if cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, cfg.Timeout)
		defer cancel()
	}

	connConfig := cfg.Connection
	if connConfig.AppName == "" {
		connConfig.AppName = dwhetl.DefaultAppName + "-" + shortID(report.RunID)
	}

	logger.Verbose("Run %s: %s dialect, %s driver, %s auth", report.RunID, cat.Config().Dialect, connConfig.Driver, connConfig.AuthMethod)

	connector, err := s.connectorFactory(&connConfig, logger)
	if err != nil {
		return report, fmt.Errorf("failed to create connector: %w", err)
	}

	conn, err := connector.Connect(ctx)
	if err != nil {
		return report, err
	}
	defer func() {
		if closeErr := conn.Close(context.WithoutCancel(ctx)); closeErr != nil {
			logger.Error("Failed to close connection: %v", closeErr)
		}
	}()
	logger.Info("Connected to %s:%d/%s (run %s)", connConfig.Host, connConfig.Port, connConfig.Database, report.RunID)

	opts := LoaderOptions{ResetSchema: cfg.ResetSchema, StatementTimeout: cfg.StatementTimeout}

	if !cfg.SkipStaging {
		staged, err := NewStagingLoader(cat, logger, opts).Load(ctx, conn)
		report.Append(staged)
		if err != nil {
			report.Duration = time.Since(start)
			return report, fmt.Errorf("staging failed: %w", err)
		}
	}

	if !cfg.SkipTransform {
		transformed, err := NewTransformLoader(cat, logger, opts).Load(ctx, conn)
		report.Append(transformed)
		if err != nil {
			report.Duration = time.Since(start)
			return report, fmt.Errorf("transform failed: %w", err)
		}
	}

	report.Duration = time.Since(start)
	return report, nil
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
