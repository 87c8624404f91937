package services

import (
	"context"
	"fmt"
	"time"

	"github.com/sparkify-data/dwhetl/internal/catalog"
	"github.com/sparkify-data/dwhetl/internal/logging"
	"github.com/sparkify-data/dwhetl/pkg/dwhetl"
)

// LoaderOptions tune how a loader runs its statements.
type LoaderOptions struct {
	// ResetSchema makes the staging loader drop every table, not only staging.
	ResetSchema bool

	// StatementTimeout bounds each Exec and each Commit (0 = none).
	StatementTimeout time.Duration
}

// StagingLoader (re)builds the schema and bulk-loads the staging tables.
//
// Thread-Safety: NOT safe for concurrent Load() calls on the same connection.
type StagingLoader struct {
	catalog *catalog.Catalog
	logger  dwhetl.Logger
	opts    LoaderOptions
}

// NewStagingLoader creates a StagingLoader. The role ARN of the catalog is
// masked in everything the loader logs.
func NewStagingLoader(cat *catalog.Catalog, logger dwhetl.Logger, opts LoaderOptions) *StagingLoader {
	if cat == nil {
		panic("catalog cannot be nil")
	}
	if logger == nil {
		panic("logger cannot be nil")
	}
	return &StagingLoader{
		catalog: cat,
		logger:  logging.NewRedactingLogger(logger, cat.Config().RoleARN),
		opts:    opts,
	}
}

// Load runs the drops in scope, every create, then both bulk loads. Each
// statement is committed before the next one starts. On failure the returned
// Report lists what was committed and the error is a *dwhetl.ExecutionError.
func (l *StagingLoader) Load(ctx context.Context, conn dwhetl.Conn) (dwhetl.Report, error) {
	if conn == nil {
		panic("conn cannot be nil")
	}

	drops := l.catalog.StagingDrops()
	if l.opts.ResetSchema {
		drops = l.catalog.Drops()
	}

	var report dwhetl.Report
	start := time.Now()
	exec := newExecutor(l.logger, l.opts.StatementTimeout)

	phases := []struct {
		phase dwhetl.Phase
		stmts []dwhetl.Statement
	}{
		{dwhetl.PhaseDrop, drops},
		{dwhetl.PhaseCreate, l.catalog.Creates()},
		{dwhetl.PhaseBulkLoad, l.catalog.BulkLoads()},
	}
	for _, p := range phases {
		if err := exec.runPhase(ctx, conn, p.phase, p.stmts, &report); err != nil {
			report.Duration = time.Since(start)
			return report, err
		}
	}

	report.Duration = time.Since(start)
	return report, nil
}

// TransformLoader populates the fact and dimension tables from staging.
//
// Thread-Safety: NOT safe for concurrent Load() calls on the same connection.
type TransformLoader struct {
	catalog *catalog.Catalog
	logger  dwhetl.Logger
	opts    LoaderOptions
}

// NewTransformLoader creates a TransformLoader. ResetSchema is ignored.
func NewTransformLoader(cat *catalog.Catalog, logger dwhetl.Logger, opts LoaderOptions) *TransformLoader {
	if cat == nil {
		panic("catalog cannot be nil")
	}
	if logger == nil {
		panic("logger cannot be nil")
	}
	return &TransformLoader{
		catalog: cat,
		logger:  logging.NewRedactingLogger(logger, cat.Config().RoleARN),
		opts:    opts,
	}
}

// Load runs the five transforms in catalog order after checking their
// declared dependencies. Rows are appended: running it twice on unchanged
// staging data duplicates them.
func (l *TransformLoader) Load(ctx context.Context, conn dwhetl.Conn) (dwhetl.Report, error) {
	if conn == nil {
		panic("conn cannot be nil")
	}

	var report dwhetl.Report
	transforms := l.catalog.Transforms()
	if err := catalog.ValidateOrder(transforms); err != nil {
		return report, fmt.Errorf("transform plan rejected: %w", err)
	}

	start := time.Now()
	err := newExecutor(l.logger, l.opts.StatementTimeout).runPhase(ctx, conn, dwhetl.PhaseTransform, transforms, &report)
	report.Duration = time.Since(start)
	return report, err
}
