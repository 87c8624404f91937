// Package services implements the ETL run: the staging loader, the transform
// loader and the RunService that drives both over a single connection.
//
// Statements run strictly in catalog order, one at a time, and each is
// committed before the next is sent. The first failure stops the run with a
// *dwhetl.ExecutionError; committed work is never rolled back.
package services
