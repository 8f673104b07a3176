package rules

import (
	"fmt"
	"strings"

	"github.com/aideng18/PyWard/internal/pysrc"
	"github.com/aideng18/PyWard/internal/walker"
)

func init() {
	Register(Rule{
		ID:       "UNUSED-VARIABLE",
		Category: pysrc.CategoryOptimization,
		Severity: pysrc.SeverityLow,
		Summary:  "A variable is assigned but never read in its scope.",
		Eval:     evalUnusedVariables,
	})
}

type varScope struct {
	assigned map[string]*pysrc.Node // name -> first assignment
	used     map[string]bool
	declared map[string]bool // global / nonlocal
}

// evalUnusedVariables flags simple assignments whose name is never
// loaded anywhere in the scope, including nested closures. Names with
// a leading underscore are deliberate discards and stay silent, as do
// names declared global or nonlocal.
func evalUnusedVariables(unit *pysrc.SourceUnit) []pysrc.Finding {
	var out []pysrc.Finding

	var processScope func(body []*pysrc.Node)
	processScope = func(body []*pysrc.Node) {
		sc := &varScope{
			assigned: map[string]*pysrc.Node{},
			used:     map[string]bool{},
			declared: map[string]bool{},
		}
		var order []string

		var visit func(n *pysrc.Node)
		visit = func(n *pysrc.Node) {
			if n == nil {
				return
			}
			switch n.Kind {
			case pysrc.KindAssign:
				for _, t := range n.Targets {
					if t.Kind == pysrc.KindName {
						if _, seen := sc.assigned[t.Name]; !seen {
							sc.assigned[t.Name] = t
							order = append(order, t.Name)
						}
					} else {
						visit(t)
					}
				}
				visit(n.Value)
				return
			case pysrc.KindGlobal, pysrc.KindNonlocal:
				for _, name := range n.Names {
					sc.declared[name] = true
				}
				return
			case pysrc.KindName:
				if !n.Store {
					sc.used[n.Name] = true
				}
				return
			case pysrc.KindAugAssign:
				// x += 1 reads the prior binding
				if n.Target != nil && n.Target.Kind == pysrc.KindName {
					sc.used[n.Target.Name] = true
				}
			case pysrc.KindFunctionDef, pysrc.KindClassDef:
				for _, d := range n.Decorators {
					visit(d)
				}
				for _, d := range n.Defaults {
					visit(d)
				}
				visit(n.Returns)
				for _, a := range n.Args {
					visit(a)
				}
				for _, k := range n.Keywords {
					visit(k)
				}
				processScope(n.Body)
				// a closure may read any enclosing name
				markLoads(n.Body, sc.used)
				return
			}
			for _, c := range walker.Children(n) {
				visit(c)
			}
		}
		for _, st := range body {
			visit(st)
		}

		for _, name := range order {
			if sc.used[name] || sc.declared[name] || strings.HasPrefix(name, "_") {
				continue
			}
			t := sc.assigned[name]
			out = append(out, pysrc.Finding{
				Line:       t.Line,
				Col:        t.Col,
				Message:    fmt.Sprintf("Variable '%s' is assigned but never used.", name),
				Suggestion: "Remove the assignment or prefix the name with '_' if the value is intentionally discarded.",
			})
		}
	}

	processScope(unit.Root.Body)
	return out
}

// markLoads records every name loaded anywhere under stmts, nested
// scopes included.
func markLoads(stmts []*pysrc.Node, used map[string]bool) {
	for _, st := range stmts {
		walker.Walk(st, func(n *pysrc.Node, _ *walker.Context) {
			if n.Kind == pysrc.KindName && !n.Store {
				used[n.Name] = true
			}
		})
	}
}
