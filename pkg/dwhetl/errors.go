package dwhetl

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel errors for common failure scenarios.
// These enable callers to distinguish error types using errors.Is().
//
// Example usage:
//
//	report, err := runner.Run(ctx, config)
//	if errors.Is(err, dwhetl.ErrExecutionFailed) {
//	    // A statement or commit was rejected by the warehouse
//	}
var (
	// ErrInvalidConfig indicates a required configuration value is missing or malformed.
	ErrInvalidConfig = errors.New("invalid configuration")

	// ErrExecutionFailed indicates a statement or commit was rejected by the warehouse.
	ErrExecutionFailed = errors.New("execution failed")

	// ErrConnectionFailed indicates the warehouse connection could not be established.
	ErrConnectionFailed = errors.New("connection failed")

	// ErrUnsupportedAuthMethod indicates the requested authentication method is not supported.
	ErrUnsupportedAuthMethod = errors.New("unsupported authentication method")

	// ErrApprovalDenied indicates the user declined a schema reset.
	ErrApprovalDenied = errors.New("approval denied")

	// ErrStatementOrder indicates a statement list violates a declared dependency.
	ErrStatementOrder = errors.New("statement order violates declared dependency")
)

// ConfigurationError reports a single missing or malformed configuration value.
// It unwraps to ErrInvalidConfig.
type ConfigurationError struct {
	Field  string
	Reason string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Reason)
}

// Unwrap returns ErrInvalidConfig so errors.Is works on wrapped values.
func (e *ConfigurationError) Unwrap() error {
	return ErrInvalidConfig
}

// ExecutionError reports the statement (or its commit) that stopped a run.
// Statements before it were committed; statements after it were never sent.
//
// ExecutionError matches both ErrExecutionFailed and its cause with errors.Is,
// and errors.As can reach driver-level errors such as *pgconn.PgError.
type ExecutionError struct {
	Phase     Phase
	Statement string
	Position  int // 1-based position within the phase
	Total     int
	Commit    bool   // true when the commit, not the statement, failed
	SQLState  string // empty when the cause carried no SQLSTATE
	Transient bool   // advisory: the cause looks like a transient warehouse condition
	Err       error
}

func (e *ExecutionError) Error() string {
	action := "statement"
	if e.Commit {
		action = "commit of"
	}
	msg := fmt.Sprintf("%s %s %q (%d/%d) failed", e.Phase, action, e.Statement, e.Position, e.Total)
	if e.SQLState != "" {
		msg += fmt.Sprintf(" [SQLSTATE %s]", e.SQLState)
	}
	return fmt.Sprintf("%s: %v", msg, e.Err)
}

// Unwrap exposes both the sentinel and the underlying cause.
func (e *ExecutionError) Unwrap() []error {
	return []error{ErrExecutionFailed, e.Err}
}

// usageErrorPatterns are message fragments cobra uses for command-line misuse.
var usageErrorPatterns = []string{
	"unknown flag",
	"unknown shorthand flag",
	"unknown command",
	"accepts ",
	"required flag",
	"invalid argument",
	"flag needs an argument",
}

// ExitCodeForError returns the appropriate exit code for an error.
// Returns ExitSuccess (0) for nil errors, semantic codes for known errors,
// and ExitGeneralError (1) for unclassified errors.
func ExitCodeForError(err error) int {
	if err == nil {
		return ExitSuccess
	}

	switch {
	case errors.Is(err, ErrInvalidConfig):
		return ExitConfigError
	case errors.Is(err, ErrUnsupportedAuthMethod):
		return ExitConfigError
	case errors.Is(err, ErrStatementOrder):
		return ExitConfigError
	case errors.Is(err, ErrApprovalDenied):
		return ExitApprovalDenied
	case errors.Is(err, ErrExecutionFailed):
		return ExitExecutionFailed
	case errors.Is(err, ErrConnectionFailed):
		return ExitConnectionError
	}

	errStr := err.Error()
	for _, pattern := range usageErrorPatterns {
		if strings.Contains(errStr, pattern) {
			return ExitUsageError
		}
	}

	if strings.Contains(errStr, "failed to connect") ||
		strings.Contains(errStr, "connection refused") ||
		strings.Contains(errStr, "no such host") {
		return ExitConnectionError
	}

	return ExitGeneralError
}
