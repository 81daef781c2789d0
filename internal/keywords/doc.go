// Package keywords reads the keyword list that drives a run.
//
// The input is UTF-8 text with one keyword per line. Surrounding whitespace
// is trimmed, blank lines are skipped and a leading byte order mark is
// removed. Duplicates are kept in their original positions.
package keywords
