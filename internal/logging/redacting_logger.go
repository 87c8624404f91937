package logging

import (
	"fmt"
	"strings"

	"github.com/sparkify-data/dwhetl/pkg/dwhetl"
)

// Mask replaces secret values in log output.
const Mask = "****"

// RedactingLogger replaces every occurrence of a secret value with Mask
// before delegating to the wrapped logger.
type RedactingLogger struct {
	inner    dwhetl.Logger
	replacer *strings.Replacer
}

// NewRedactingLogger wraps inner. Empty secrets are ignored.
func NewRedactingLogger(inner dwhetl.Logger, secrets ...string) *RedactingLogger {
	if inner == nil {
		panic("inner logger cannot be nil")
	}
	var pairs []string
	for _, s := range secrets {
		if s != "" {
			pairs = append(pairs, s, Mask)
		}
	}
	return &RedactingLogger{inner: inner, replacer: strings.NewReplacer(pairs...)}
}

func (l *RedactingLogger) Verbose(format string, args ...interface{}) {
	l.inner.Verbose("%s", l.redact(format, args))
}

func (l *RedactingLogger) Info(format string, args ...interface{}) {
	l.inner.Info("%s", l.redact(format, args))
}

func (l *RedactingLogger) Error(format string, args ...interface{}) {
	l.inner.Error("%s", l.redact(format, args))
}

func (l *RedactingLogger) redact(format string, args []interface{}) string {
	msg := format
	if len(args) > 0 {
		msg = fmt.Sprintf(format, args...)
	}
	return l.replacer.Replace(msg)
}
