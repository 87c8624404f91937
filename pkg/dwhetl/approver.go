package dwhetl

import "context"

// Approver confirms destructive operations before a run touches the warehouse.
// The only destructive operation today is a schema reset, which drops the
// fact and dimension tables along with everything loaded into them.
//
// Implementations:
//   - ForcedApprover: shows a countdown and approves (--force)
//   - InteractiveApprover: asks the user to type the database name
type Approver interface {
	// RequestApproval returns true when the reset of dbName may proceed.
	RequestApproval(ctx context.Context, dbName string) (bool, error)
}
