// Package analysis computes the descriptive dashboard views from a
// dataset.Table.
//
// Every function is a pure function of the table and a selection. Results
// are fresh values owned by the caller; the table is only read. Rankings
// are deterministic: equal counts or values are ordered by label.
package analysis
