package rules

import (
	"github.com/aideng18/PyWard/internal/pysrc"
)

func init() {
	Register(Rule{
		ID:       "UNREACHABLE-CODE",
		Category: pysrc.CategoryOptimization,
		Severity: pysrc.SeverityMedium,
		Summary:  "A statement can never execute because control flow always leaves the block before it.",
		Eval:     evalUnreachable,
	})
}

func evalUnreachable(unit *pysrc.SourceUnit) []pysrc.Finding {
	var out []pysrc.Finding

	report := func(st *pysrc.Node) {
		out = append(out, pysrc.Finding{
			Line:       st.Line,
			Col:        st.Col,
			Message:    "This code is unreachable.",
			Suggestion: "Remove the statement or restructure the control flow above it.",
		})
	}

	// checkBlock reports every statement after the first terminator and
	// says whether the block as a whole always terminates. Statements
	// past a terminator are flagged once and not descended into.
	var checkBlock func(stmts []*pysrc.Node) bool
	var stmtTerminates func(st *pysrc.Node) bool

	checkBlock = func(stmts []*pysrc.Node) bool {
		dead := false
		for _, st := range stmts {
			if dead {
				report(st)
				continue
			}
			if stmtTerminates(st) {
				dead = true
			}
		}
		return dead
	}

	stmtTerminates = func(st *pysrc.Node) bool {
		switch st.Kind {
		case pysrc.KindReturn, pysrc.KindRaise, pysrc.KindBreak, pysrc.KindContinue:
			return true
		case pysrc.KindExprStmt:
			return callNeverReturns(st.Value)
		case pysrc.KindIf:
			bodyT := checkBlock(st.Body)
			elseT := len(st.Orelse) > 0 && checkBlock(st.Orelse)
			return bodyT && elseT
		case pysrc.KindWhile:
			checkBlock(st.Body)
			checkBlock(st.Orelse)
			// "while True" with no break at the loop's own level never
			// falls through, so everything after it is dead even when
			// the body itself does not terminate.
			return isTrueConstant(st.Test) && !blockHasBreak(st.Body)
		case pysrc.KindFor:
			checkBlock(st.Body)
			checkBlock(st.Orelse)
			return false
		case pysrc.KindWith:
			return checkBlock(st.Body)
		case pysrc.KindTry:
			bodyT := checkBlock(st.Body)
			handlersT := len(st.Handlers) > 0
			for _, h := range st.Handlers {
				if !checkBlock(h.Body) {
					handlersT = false
				}
			}
			checkBlock(st.Orelse)
			finalT := len(st.Final) > 0 && checkBlock(st.Final)
			if finalT {
				return true
			}
			return bodyT && handlersT
		case pysrc.KindFunctionDef, pysrc.KindClassDef:
			checkBlock(st.Body)
			return false
		default:
			return false
		}
	}

	checkBlock(unit.Root.Body)
	return out
}

// callNeverReturns recognizes expression statements that are calls to
// process-exit primitives.
func callNeverReturns(expr *pysrc.Node) bool {
	if expr == nil || expr.Kind != pysrc.KindCall {
		return false
	}
	switch name := dottedName(expr.Func); name {
	case "exit", "quit", "sys.exit", "os._exit", "os.abort":
		return true
	}
	return false
}

func isTrueConstant(n *pysrc.Node) bool {
	return n != nil && n.Kind == pysrc.KindConstant && !n.IsStr && n.Literal == "True"
}

// blockHasBreak reports whether a break statement exists at the loop's
// own level, looking through conditionals and try blocks but not into
// nested loops or function bodies where break would bind elsewhere.
func blockHasBreak(stmts []*pysrc.Node) bool {
	for _, st := range stmts {
		switch st.Kind {
		case pysrc.KindBreak:
			return true
		case pysrc.KindIf, pysrc.KindWith:
			if blockHasBreak(st.Body) || blockHasBreak(st.Orelse) {
				return true
			}
		case pysrc.KindTry:
			if blockHasBreak(st.Body) || blockHasBreak(st.Orelse) || blockHasBreak(st.Final) {
				return true
			}
			for _, h := range st.Handlers {
				if blockHasBreak(h.Body) {
					return true
				}
			}
		}
	}
	return false
}

// dottedName renders a Name or chain of Attribute accesses as the
// dotted path seen in source, or "" when the expression is anything
// else.
func dottedName(n *pysrc.Node) string {
	switch {
	case n == nil:
		return ""
	case n.Kind == pysrc.KindName:
		return n.Name
	case n.Kind == pysrc.KindAttribute:
		base := dottedName(n.Value)
		if base == "" {
			return ""
		}
		return base + "." + n.Name
	}
	return ""
}
