package stream

import "regexp"

// ObjectScanner locates the next candidate JSON object in a buffer.
// Next returns the span [start, end) of the first candidate, or ok=false
// when the buffer holds none yet.
type ObjectScanner interface {
	Next(buf string) (start, end int, ok bool)
}

// flatObjectRe matches one brace-delimited run with no inner braces.
var flatObjectRe = regexp.MustCompile(`\{[^{}]*\}`)

// FlatScanner finds single-level objects only. Nested objects are not
// recognised as a whole; their innermost object is matched first.
type FlatScanner struct{}

var _ ObjectScanner = FlatScanner{}

// Next implements ObjectScanner.
func (FlatScanner) Next(buf string) (int, int, bool) {
	loc := flatObjectRe.FindStringIndex(buf)
	if loc == nil {
		return 0, 0, false
	}
	return loc[0], loc[1], true
}
