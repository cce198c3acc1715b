// Package inp scans the engine's native model description (the sectioned
// .inp text format) into a section table.
//
// The format is line oriented:
//
//	[SECTION]
//	;; comment line
//	NAME  FIELD  FIELD  "QUOTED FIELD"  ; trailing comment
//
// Section headers are matched case-insensitively and stored upper-case. A
// data row belongs to the most recently seen header; rows that appear before
// any header are discarded. Sections that never appear yield no rows, never
// an error.
//
// This package imports nothing internal; discovery and mapping build on it.
package inp
