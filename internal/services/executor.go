package services

import (
	"context"
	"time"

	"github.com/sparkify-data/dwhetl/internal/warehouse"
	"github.com/sparkify-data/dwhetl/pkg/dwhetl"
)

// executor runs ordered statements one at a time on a single connection,
// committing after each. It stops at the first failure.
type executor struct {
	logger           dwhetl.Logger
	statementTimeout time.Duration
	now              func() time.Time
}

func newExecutor(logger dwhetl.Logger, statementTimeout time.Duration) *executor {
	return &executor{
		logger:           logger,
		statementTimeout: statementTimeout,
		now:              time.Now,
	}
}

// runPhase executes stmts, which all belong to phase, appending one result
// per committed statement to report.
func (e *executor) runPhase(ctx context.Context, conn dwhetl.Conn, phase dwhetl.Phase, stmts []dwhetl.Statement, report *dwhetl.Report) error {
	total := len(stmts)
	if total == 0 {
		return nil
	}

	phaseStart := e.now()
	var rows int64
	for i, stmt := range stmts {
		position := i + 1
		e.logger.Info("[%d/%d] %s %s", position, total, phase, stmt.Name)
		e.logger.Verbose("%s", stmt.SQL)

		start := e.now()
		affected, err := e.exec(ctx, conn, stmt.SQL)
		if err != nil {
			return newExecutionError(phase, stmt.Name, position, total, false, err)
		}
		if err := e.commit(ctx, conn); err != nil {
			return newExecutionError(phase, stmt.Name, position, total, true, err)
		}

		elapsed := e.now().Sub(start)
		e.logger.Verbose("%s committed: %d rows in %v", stmt, affected, elapsed.Round(time.Millisecond))
		report.Results = append(report.Results, dwhetl.StatementResult{
			Name:         stmt.Name,
			Table:        stmt.Table,
			Phase:        phase,
			RowsAffected: affected,
			Duration:     elapsed,
		})
		rows += affected
	}

	e.logger.Info("Done: %s (%d statements, %d rows, %v)", phase, total, rows, e.now().Sub(phaseStart).Round(time.Millisecond))
	return nil
}

func (e *executor) exec(ctx context.Context, conn dwhetl.Conn, sql string) (int64, error) {
	callCtx, cancel := e.callContext(ctx)
	defer cancel()
	return conn.Exec(callCtx, sql)
}

func (e *executor) commit(ctx context.Context, conn dwhetl.Conn) error {
	callCtx, cancel := e.callContext(ctx)
	defer cancel()
	return conn.Commit(callCtx)
}

func (e *executor) callContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if e.statementTimeout > 0 {
		return context.WithTimeout(ctx, e.statementTimeout)
	}
	return ctx, func() {}
}

func newExecutionError(phase dwhetl.Phase, name string, position, total int, commit bool, err error) *dwhetl.ExecutionError {
	class := warehouse.Classify(err)
	return &dwhetl.ExecutionError{
		Phase:     phase,
		Statement: name,
		Position:  position,
		Total:     total,
		Commit:    commit,
		SQLState:  class.SQLState,
		Transient: class.Transient,
		Err:       err,
	}
}
