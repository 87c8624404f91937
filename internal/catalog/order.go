package catalog

import (
	"fmt"

	"github.com/sparkify-data/dwhetl/pkg/dwhetl"
)

// ValidateOrder checks every declared dependency of an ordered statement list.
//
// A create depends on the referenced tables existing, so it must not be
// followed by a create of one of them. A bulk load or transform depends on
// the data of its source tables, so it must not be followed by a bulk load
// or transform writing one of them. Drops never satisfy a dependency.
//
// Dependencies nothing in the list writes are considered satisfied: the
// check cannot tell a table populated by an earlier run from a missing one.
// Violations are reported with ErrStatementOrder.
func ValidateOrder(stmts []dwhetl.Statement) error {
	for i, s := range stmts {
		for _, dep := range s.DependsOn {
			if dep == s.Table {
				continue
			}
			for j := i + 1; j < len(stmts); j++ {
				later := stmts[j]
				if later.Table != dep || !satisfies(later.Phase, s.Phase) {
					continue
				}
				return fmt.Errorf("%w: %s (position %d) depends on %s, which is written later by %s (position %d)",
					dwhetl.ErrStatementOrder, s, i+1, dep, later, j+1)
			}
		}
	}
	return nil
}

// satisfies reports whether a writer of phase w provides what a statement of
// phase consumer depends on.
func satisfies(w, consumer dwhetl.Phase) bool {
	switch consumer {
	case dwhetl.PhaseCreate:
		return w == dwhetl.PhaseCreate
	case dwhetl.PhaseBulkLoad, dwhetl.PhaseTransform:
		return w == dwhetl.PhaseBulkLoad || w == dwhetl.PhaseTransform
	default:
		return false
	}
}
