package dwhetl

import "fmt"

// Phase identifies which ordered statement collection a statement belongs to.
type Phase int

const (
	PhaseDrop      Phase = iota // DROP TABLE IF EXISTS
	PhaseCreate                 // CREATE TABLE [IF NOT EXISTS]
	PhaseBulkLoad               // object storage -> staging table
	PhaseTransform              // INSERT ... SELECT into the star schema
)

// String returns a human-readable string representation of the Phase.
func (p Phase) String() string {
	switch p {
	case PhaseDrop:
		return "drop"
	case PhaseCreate:
		return "create"
	case PhaseBulkLoad:
		return "bulk-load"
	case PhaseTransform:
		return "transform"
	default:
		return fmt.Sprintf("Unknown(%d)", p)
	}
}

// TableKind classifies the tables the catalog manages.
type TableKind int

const (
	TableStaging TableKind = iota
	TableDimension
	TableFact
)

// String returns a human-readable string representation of the TableKind.
func (k TableKind) String() string {
	switch k {
	case TableStaging:
		return "staging"
	case TableDimension:
		return "dimension"
	case TableFact:
		return "fact"
	default:
		return fmt.Sprintf("Unknown(%d)", k)
	}
}

// Statement is one rendered SQL statement of the query catalog.
//
// DependsOn lists tables whose contents must be fully written (by an earlier
// statement in the same list) before this statement runs. It makes load-order
// constraints such as "time is derived from songplays" explicit instead of
// relying on slice position alone.
type Statement struct {
	Name      string
	Table     string
	Kind      TableKind
	Phase     Phase
	SQL       string
	DependsOn []string
}

// String returns "phase:name", used in logs and reports.
func (s Statement) String() string {
	return fmt.Sprintf("%s:%s", s.Phase, s.Name)
}
