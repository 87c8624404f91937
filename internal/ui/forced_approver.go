package ui

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/sparkify-data/dwhetl/pkg/dwhetl"
)

const resetWarning = `
  DANGER: --reset drops every table in database '%s':
    staging_events, staging_songs, songplays, users, songs, artists, time
  All loaded history is lost. The star schema is rebuilt from staging.
`

// ForcedApprover approves a schema reset after a countdown. It backs --force
// and is the only approver available in non-interactive sessions.
type ForcedApprover struct {
	verbose bool
	output  io.Writer
	sleepFn func(time.Duration)
}

// NewForcedApprover creates a ForcedApprover writing to stderr.
func NewForcedApprover(verbose bool) dwhetl.Approver {
	return &ForcedApprover{verbose: verbose, output: os.Stderr, sleepFn: time.Sleep}
}

// RequestApproval prints the warning, counts down and approves.
func (a *ForcedApprover) RequestApproval(ctx context.Context, dbName string) (bool, error) {
	fmt.Fprintf(a.output, resetWarning, dbName)
	fmt.Fprintln(a.output)

	countdownSeconds := int(dwhetl.DefaultForceApprovalCountdown.Seconds())
	for i := countdownSeconds; i > 0; i-- {
		if err := ctx.Err(); err != nil {
			fmt.Fprintln(a.output)
			return false, err
		}
		fmt.Fprintf(a.output, "\rResetting in: %d seconds... (Press Ctrl+C to cancel)", i)
		a.sleepFn(time.Second)
	}
	if err := ctx.Err(); err != nil {
		fmt.Fprintln(a.output)
		return false, err
	}

	fmt.Fprintf(a.output, "\r✓ Proceeding with schema reset...                              \n")
	return true, nil
}

var _ dwhetl.Approver = (*ForcedApprover)(nil)
