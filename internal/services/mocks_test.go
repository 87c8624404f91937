package services

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/sparkify-data/dwhetl/pkg/dwhetl"
)

// mockConn records every call. failExec / failCommit make the call whose
// SQL contains the key fail with the mapped error.
type mockConn struct {
	calls      []string
	executed   []string
	committed  []string
	pending    string
	rows       int64
	failExec   map[string]error
	failCommit map[string]error
	closed     int
	closeErr   error
}

func (m *mockConn) Exec(ctx context.Context, sql string) (int64, error) {
	m.calls = append(m.calls, "exec")
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	for key, err := range m.failExec {
		if strings.Contains(sql, key) {
			return 0, err
		}
	}
	m.executed = append(m.executed, sql)
	m.pending = sql
	return m.rows, nil
}

func (m *mockConn) Commit(ctx context.Context) error {
	m.calls = append(m.calls, "commit")
	if m.pending == "" {
		return nil
	}
	for key, err := range m.failCommit {
		if strings.Contains(m.pending, key) {
			m.pending = ""
			return err
		}
	}
	m.committed = append(m.committed, m.pending)
	m.pending = ""
	return nil
}

func (m *mockConn) Close(_ context.Context) error {
	m.calls = append(m.calls, "close")
	m.closed++
	return m.closeErr
}

type mockConnector struct {
	conn     *mockConn
	err      error
	connects int
}

func (m *mockConnector) Connect(_ context.Context) (dwhetl.Conn, error) {
	m.connects++
	if m.err != nil {
		return nil, m.err
	}
	return m.conn, nil
}

type recordingLogger struct {
	mu    sync.Mutex
	lines []string
}

func (l *recordingLogger) record(level, format string, args ...interface{}) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.lines = append(l.lines, level+" "+fmt.Sprintf(format, args...))
}

func (l *recordingLogger) Verbose(format string, args ...interface{}) {
	l.record("VERBOSE", format, args...)
}
func (l *recordingLogger) Info(format string, args ...interface{})  { l.record("INFO", format, args...) }
func (l *recordingLogger) Error(format string, args ...interface{}) { l.record("ERROR", format, args...) }

func (l *recordingLogger) String() string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return strings.Join(l.lines, "\n")
}
