package warehouse

import (
	"context"
	"errors"
	"net"
	"strings"
	"syscall"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"
)

// SQLSTATE codes outside the transient classes that still indicate a
// transient condition.
// See: https://www.postgresql.org/docs/current/errcodes-appendix.html
const (
	pgCodeSerializationFailure = "40001"
	pgCodeDeadlockDetected     = "40P01"
	pgCodeLockNotAvailable     = "55P03"
)

// transientClasses are SQLSTATE classes for conditions that may clear up on
// their own: 08 connection exception, 53 insufficient resources, 57 operator
// intervention.
var transientClasses = []string{"08", "53", "57"}

// Classification describes a failed statement or commit.
type Classification struct {
	SQLState  string
	Transient bool
}

// Classify extracts the SQLSTATE from pgx or lib/pq errors and decides
// whether the failure looks transient. It is advisory: nothing retries.
func Classify(err error) Classification {
	if err == nil {
		return Classification{}
	}

	code := SQLState(err)
	if code != "" {
		return Classification{SQLState: code, Transient: isTransientCode(code)}
	}

	return Classification{Transient: isNetworkError(err) || isConnectionError(err)}
}

// SQLState returns the SQLSTATE carried by err, or "".
func SQLState(err error) string {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return string(pqErr.Code)
	}
	return ""
}

func isTransientCode(code string) bool {
	for _, class := range transientClasses {
		if strings.HasPrefix(code, class) {
			return true
		}
	}
	switch code {
	case pgCodeSerializationFailure, pgCodeDeadlockDetected, pgCodeLockNotAvailable:
		return true
	}
	return false
}

func isNetworkError(err error) bool {
	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return dnsErr.IsTemporary || dnsErr.IsTimeout
	}

	var opErr *net.OpError
	if errors.As(err, &opErr) {
		if opErr.Timeout() {
			return true
		}
		for _, errno := range []syscall.Errno{syscall.ECONNREFUSED, syscall.ECONNRESET, syscall.ENETUNREACH, syscall.EHOSTUNREACH} {
			if errors.Is(opErr.Err, errno) {
				return true
			}
		}
	}

	return errors.Is(err, context.DeadlineExceeded)
}

func isConnectionError(err error) bool {
	errMsg := strings.ToLower(err.Error())

	transientPatterns := []string{
		"connection refused",
		"connection reset",
		"connection timeout",
		"no such host",
		"network is unreachable",
		"i/o timeout",
		"broken pipe",
		"too many connections",
		"server closed the connection",
		"unexpected eof",
		"conn closed",
	}

	for _, pattern := range transientPatterns {
		if strings.Contains(errMsg, pattern) {
			return true
		}
	}
	return false
}
