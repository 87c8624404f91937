package dwhetl

import "time"

// StatementResult records one statement that was executed and committed.
type StatementResult struct {
	Name         string
	Table        string
	Phase        Phase
	RowsAffected int64
	Duration     time.Duration
}

// Report summarizes a loader or driver run. On failure it holds every
// statement that was committed before the failing one.
type Report struct {
	RunID    string
	Results  []StatementResult
	Duration time.Duration
}

// Append adds the results of another report, keeping order.
func (r *Report) Append(other Report) {
	r.Results = append(r.Results, other.Results...)
}

// Committed returns the number of statements committed.
func (r Report) Committed() int {
	return len(r.Results)
}

// RowsByTable sums RowsAffected per target table for the given phase.
func (r Report) RowsByTable(phase Phase) map[string]int64 {
	rows := make(map[string]int64)
	for _, res := range r.Results {
		if res.Phase == phase {
			rows[res.Table] += res.RowsAffected
		}
	}
	return rows
}
