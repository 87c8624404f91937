// Package catalog renders the ordered SQL statements of an ETL run.
//
// A Catalog is built from an explicit Config and exposes four collections:
// drops, creates, bulk loads and transforms. Configuration values are quoted
// as SQL string literals at named substitution points. Load-order
// constraints are declared on each statement (Statement.DependsOn) and
// checked by ValidateOrder.
package catalog
