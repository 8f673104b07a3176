package rules

import (
	"fmt"

	"github.com/aideng18/PyWard/internal/pysrc"
	"github.com/aideng18/PyWard/internal/walker"
)

func init() {
	Register(Rule{
		ID:       "STR-CONCAT-IN-LOOP",
		Category: pysrc.CategoryOptimization,
		Severity: pysrc.SeverityMedium,
		Summary:  "String built by repeated concatenation inside a loop.",
		Eval:     evalStrConcatInLoop,
	})
	Register(Rule{
		ID:       "LEN-CALL-IN-LOOP",
		Category: pysrc.CategoryOptimization,
		Severity: pysrc.SeverityLow,
		Summary:  "len() recomputed on every loop iteration.",
		Eval:     evalLenCallInLoop,
	})
	Register(Rule{
		ID:       "RANGE-LEN-LOOP",
		Category: pysrc.CategoryOptimization,
		Severity: pysrc.SeverityLow,
		Summary:  "Iteration over range(len(...)) instead of enumerate().",
		Eval:     evalRangeLenLoop,
	})
	Register(Rule{
		ID:       "APPEND-IN-LOOP",
		Category: pysrc.CategoryOptimization,
		Severity: pysrc.SeverityLow,
		Summary:  "List grown by append() inside a loop.",
		Eval:     evalAppendInLoop,
	})
}

func evalStrConcatInLoop(unit *pysrc.SourceUnit) []pysrc.Finding {
	var out []pysrc.Finding
	walker.Walk(unit.Root, func(n *pysrc.Node, ctx *walker.Context) {
		target := ""
		switch {
		case n.Kind == pysrc.KindAugAssign && n.Op == "+" &&
			n.Target != nil && n.Target.Kind == pysrc.KindName:
			target = n.Target.Name
		case n.Kind == pysrc.KindAssign && len(n.Targets) == 1 &&
			n.Targets[0].Kind == pysrc.KindName &&
			selfConcat(n.Targets[0].Name, n.Value):
			target = n.Targets[0].Name
		default:
			return
		}
		if !ctx.InLoopBody(n) {
			return
		}
		out = append(out, pysrc.Finding{
			Line:       n.Line,
			Col:        n.Col,
			Message:    fmt.Sprintf("String concatenation to '%s' inside a loop.", target),
			Suggestion: "Collect the pieces in a list and join them once after the loop.",
		})
	})
	return out
}

// selfConcat reports whether expr is a '+' chain that references name,
// the shape of 's = s + part'.
func selfConcat(name string, expr *pysrc.Node) bool {
	if expr == nil || expr.Kind != pysrc.KindBinOp || expr.Op != "+" {
		return false
	}
	var refs func(n *pysrc.Node) bool
	refs = func(n *pysrc.Node) bool {
		if n == nil {
			return false
		}
		if n.Kind == pysrc.KindName && n.Name == name {
			return true
		}
		if n.Kind == pysrc.KindBinOp && n.Op == "+" {
			return refs(n.Left) || refs(n.Right)
		}
		return false
	}
	return refs(expr)
}

func evalLenCallInLoop(unit *pysrc.SourceUnit) []pysrc.Finding {
	var out []pysrc.Finding
	walker.Walk(unit.Root, func(n *pysrc.Node, ctx *walker.Context) {
		if n.Kind != pysrc.KindCall || dottedName(n.Func) != "len" {
			return
		}
		// range(len(...)) loop headers are the RANGE-LEN-LOOP rule's
		// business, and the header is outside the body anyway.
		if !ctx.InLoopBody(n) {
			return
		}
		out = append(out, pysrc.Finding{
			Line:       n.Line,
			Col:        n.Col,
			Message:    "Call to len() inside a loop body.",
			Suggestion: "Hoist the len() call out of the loop if the length does not change.",
		})
	})
	return out
}

func evalRangeLenLoop(unit *pysrc.SourceUnit) []pysrc.Finding {
	var out []pysrc.Finding
	walker.Walk(unit.Root, func(n *pysrc.Node, _ *walker.Context) {
		if n.Kind != pysrc.KindFor || !isRangeLen(n.Iter) {
			return
		}
		out = append(out, pysrc.Finding{
			Line:       n.Line,
			Col:        n.Col,
			Message:    "Loop over 'range(len(...))'. Consider using 'enumerate()' to iterate with indices.",
			Suggestion: "Replace 'for i in range(len(seq))' with 'for i, item in enumerate(seq)'.",
		})
	})
	return out
}

func isRangeLen(iter *pysrc.Node) bool {
	if iter == nil || iter.Kind != pysrc.KindCall || dottedName(iter.Func) != "range" {
		return false
	}
	if len(iter.Args) != 1 {
		return false
	}
	arg := iter.Args[0]
	return arg.Kind == pysrc.KindCall && dottedName(arg.Func) == "len"
}

func evalAppendInLoop(unit *pysrc.SourceUnit) []pysrc.Finding {
	var out []pysrc.Finding
	walker.Walk(unit.Root, func(n *pysrc.Node, ctx *walker.Context) {
		if n.Kind != pysrc.KindCall {
			return
		}
		f := n.Func
		if f == nil || f.Kind != pysrc.KindAttribute || f.Name != "append" {
			return
		}
		if f.Value == nil || f.Value.Kind != pysrc.KindName {
			return
		}
		if !ctx.InLoopBody(n) {
			return
		}
		out = append(out, pysrc.Finding{
			Line:       n.Line,
			Col:        n.Col,
			Message:    fmt.Sprintf("Call to '%s.append' inside a loop.", f.Value.Name),
			Suggestion: "Consider a list comprehension when the loop only builds the list.",
		})
	})
	return out
}
