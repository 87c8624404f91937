package logging

import "github.com/sparkify-data/dwhetl/pkg/dwhetl"

var (
	_ dwhetl.Logger = (*ConsoleLogger)(nil)
	_ dwhetl.Logger = (*NullLogger)(nil)
	_ dwhetl.Logger = (*RedactingLogger)(nil)
)

// NullLogger discards all log messages. Loaders and the run service fall
// back to it when no logger is supplied; tests use it directly.
type NullLogger struct{}

// NewNullLogger creates a new NullLogger.
func NewNullLogger() *NullLogger {
	return &NullLogger{}
}

func (l *NullLogger) Verbose(format string, args ...interface{}) {}

func (l *NullLogger) Info(format string, args ...interface{}) {}

func (l *NullLogger) Error(format string, args ...interface{}) {}
