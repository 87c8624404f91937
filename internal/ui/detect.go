package ui

import (
	"os"

	"golang.org/x/term"

	"github.com/sparkify-data/dwhetl/pkg/dwhetl"
)

// IsInteractive reports whether a human is at the terminal.
//
// Returns false if:
//   - DWHETL_NON_INTERACTIVE=1 is set
//   - CI is set (common CI/CD convention)
//   - stdin or stderr is not a terminal
func IsInteractive() bool {
	if os.Getenv("DWHETL_NON_INTERACTIVE") == "1" {
		return false
	}
	if os.Getenv("CI") != "" {
		return false
	}
	if !term.IsTerminal(int(os.Stdin.Fd())) {
		return false
	}
	return term.IsTerminal(int(os.Stderr.Fd()))
}

// NewApprover picks the approver for a schema reset: ForcedApprover when
// force is set, InteractiveApprover when a terminal is attached, and nil
// otherwise. A nil approver means the reset cannot be confirmed.
func NewApprover(force, verbose bool) dwhetl.Approver {
	if force {
		return NewForcedApprover(verbose)
	}
	if IsInteractive() {
		return NewInteractiveApprover(verbose)
	}
	return nil
}
