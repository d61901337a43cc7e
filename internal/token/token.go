package token

import (
	"fmt"
	"sort"
)

// Span is a byte-offset range into the source text, as recorded by the
// parser front end. The zero Span means "no position".
type Span struct {
	Start int
	End   int
	set   bool
}

// NewSpan returns a span covering [start, end).
func NewSpan(start, end int) Span {
	return Span{Start: start, End: end, set: true}
}

func (s Span) Valid() bool {
	return s.set && s.Start >= 0 && s.End >= s.Start
}

func (s Span) String() string {
	if !s.Valid() {
		return "-"
	}
	return fmt.Sprintf("%d..%d", s.Start, s.End)
}

// LineTable maps byte offsets to 1-based line numbers using the ordered
// offsets of every newline in the source.
type LineTable struct {
	newlines []int
}

// NewLineTable builds a table from newline offsets. The offsets are copied
// and sorted, so callers may pass them in any order.
func NewLineTable(newlines []int) LineTable {
	nl := make([]int, len(newlines))
	copy(nl, newlines)
	sort.Ints(nl)
	return LineTable{newlines: nl}
}

// Line returns the line containing offset. Offsets past the last newline
// belong to line len(newlines)+1.
func (t LineTable) Line(offset int) int {
	return sort.SearchInts(t.newlines, offset) + 1
}

// LineOf returns the line of the span start, or 0 if the span has no position.
func (t LineTable) LineOf(s Span) int {
	if !s.Valid() {
		return 0
	}
	return t.Line(s.Start)
}

// Count is the number of recorded newlines.
func (t LineTable) Count() int { return len(t.newlines) }
