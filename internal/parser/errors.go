package parser

import "fmt"

// SyntaxError is the single fatal failure kind of the parser. Analysis
// of the file aborts; no findings are produced alongside it.
type SyntaxError struct {
	Line int
	Col  int
	Msg  string
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("syntax error: line %d, col %d: %s", e.Line, e.Col, e.Msg)
}

func errAt(line, col int, format string, args ...any) *SyntaxError {
	return &SyntaxError{Line: line, Col: col, Msg: fmt.Sprintf(format, args...)}
}
