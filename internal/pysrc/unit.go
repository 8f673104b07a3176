package pysrc

import "strings"

// SourceUnit is the parsed representation of one file: the root Module
// node plus a table of raw source lines used for message context.
// Immutable after construction; one per analysis run.
type SourceUnit struct {
	Filename string
	Root     *Node

	lines []string
}

// NewSourceUnit builds a unit from the parsed root and the original text.
func NewSourceUnit(filename string, root *Node, text string) *SourceUnit {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	return &SourceUnit{
		Filename: filename,
		Root:     root,
		lines:    strings.Split(text, "\n"),
	}
}

// Line returns the raw text of the 1-based line n.
func (u *SourceUnit) Line(n int) (string, bool) {
	if n < 1 || n > len(u.lines) {
		return "", false
	}
	return u.lines[n-1], true
}

// NumLines reports how many lines the unit has.
func (u *SourceUnit) NumLines() int { return len(u.lines) }
