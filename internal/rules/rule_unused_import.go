package rules

import (
	"fmt"

	"github.com/aideng18/PyWard/internal/pysrc"
	"github.com/aideng18/PyWard/internal/walker"
)

func init() {
	Register(Rule{
		ID:       "UNUSED-IMPORT",
		Category: pysrc.CategoryOptimization,
		Severity: pysrc.SeverityLow,
		Summary:  "An imported name is never referenced in its scope.",
		Eval:     evalUnusedImports,
	})
}

// importBinding is one name introduced by an import statement. The
// used flag flips when a later name reference resolves to it.
type importBinding struct {
	name string
	line int
	col  int
	used bool
}

type nameScope struct {
	parent  *nameScope
	imports map[string]*importBinding
	locals  map[string]bool
}

func newNameScope(parent *nameScope) *nameScope {
	return &nameScope{
		parent:  parent,
		imports: map[string]*importBinding{},
		locals:  map[string]bool{},
	}
}

// resolve marks the nearest enclosing binding of name as used. A local
// (non-import) binding in an inner scope shadows an outer import and
// stops the search.
func (s *nameScope) resolve(name string) {
	for sc := s; sc != nil; sc = sc.parent {
		if b, ok := sc.imports[name]; ok {
			b.used = true
			return
		}
		if sc.locals[name] {
			return
		}
	}
}

func evalUnusedImports(unit *pysrc.SourceUnit) []pysrc.Finding {
	var all []*importBinding

	var processScope func(sc *nameScope, body []*pysrc.Node, params []string)

	// collectBindings records every name the statement list binds in
	// this scope, without descending into nested function or class
	// bodies. It runs before use-scanning so later definitions are
	// visible to earlier references.
	var collectBindings func(sc *nameScope, stmts []*pysrc.Node)
	collectBindings = func(sc *nameScope, stmts []*pysrc.Node) {
		for _, st := range stmts {
			switch st.Kind {
			case pysrc.KindImport:
				for _, a := range st.Aliases {
					bound := a.Binding(false)
					b := &importBinding{name: bound, line: a.Line, col: a.Col}
					sc.imports[bound] = b
					all = append(all, b)
				}
			case pysrc.KindImportFrom:
				for _, a := range st.Aliases {
					if a.Name == "*" {
						// wildcard imports cannot be tracked statically
						continue
					}
					bound := a.Binding(true)
					b := &importBinding{name: bound, line: a.Line, col: a.Col}
					sc.imports[bound] = b
					all = append(all, b)
				}
			case pysrc.KindFunctionDef, pysrc.KindClassDef:
				sc.locals[st.Name] = true
			case pysrc.KindAssign:
				for _, t := range st.Targets {
					collectTargetNames(sc, t)
				}
			case pysrc.KindAugAssign:
				collectTargetNames(sc, st.Target)
			case pysrc.KindFor:
				collectTargetNames(sc, st.Target)
				collectBindings(sc, st.Body)
				collectBindings(sc, st.Orelse)
			case pysrc.KindWhile, pysrc.KindIf:
				collectBindings(sc, st.Body)
				collectBindings(sc, st.Orelse)
			case pysrc.KindWith:
				for _, it := range st.Items {
					if it.Target != nil {
						collectTargetNames(sc, it.Target)
					}
				}
				collectBindings(sc, st.Body)
			case pysrc.KindTry:
				collectBindings(sc, st.Body)
				for _, h := range st.Handlers {
					if h.Name != "" {
						sc.locals[h.Name] = true
					}
					collectBindings(sc, h.Body)
				}
				collectBindings(sc, st.Orelse)
				collectBindings(sc, st.Final)
			}
		}
	}

	// scanUses resolves every name load in an expression subtree,
	// entering nested scopes where they begin.
	var scanUses func(sc *nameScope, n *pysrc.Node)
	scanUses = func(sc *nameScope, n *pysrc.Node) {
		if n == nil {
			return
		}
		switch n.Kind {
		case pysrc.KindName:
			if !n.Store {
				sc.resolve(n.Name)
			}
			return
		case pysrc.KindFunctionDef:
			// decorators, defaults and annotations evaluate in the
			// enclosing scope; the body gets a fresh one
			for _, d := range n.Decorators {
				scanUses(sc, d)
			}
			for _, d := range n.Defaults {
				scanUses(sc, d)
			}
			scanUses(sc, n.Returns)
			processScope(newNameScope(sc), n.Body, n.Params)
			return
		case pysrc.KindClassDef:
			for _, d := range n.Decorators {
				scanUses(sc, d)
			}
			for _, a := range n.Args {
				scanUses(sc, a)
			}
			for _, k := range n.Keywords {
				scanUses(sc, k)
			}
			processScope(newNameScope(sc), n.Body, nil)
			return
		case pysrc.KindComprehension:
			collectTargetNames(sc, n.Target)
		}
		for _, c := range walker.Children(n) {
			scanUses(sc, c)
		}
	}

	processScope = func(sc *nameScope, body []*pysrc.Node, params []string) {
		for _, p := range params {
			sc.locals[p] = true
		}
		collectBindings(sc, body)
		for _, st := range body {
			scanUses(sc, st)
		}
	}

	processScope(newNameScope(nil), unit.Root.Body, nil)

	var out []pysrc.Finding
	for _, b := range all {
		if b.used {
			continue
		}
		out = append(out, pysrc.Finding{
			Line:       b.line,
			Col:        b.col,
			Message:    fmt.Sprintf("Imported name '%s' is never used.", b.name),
			Suggestion: "Remove the import or reference the name.",
		})
	}
	return out
}

func collectTargetNames(sc *nameScope, t *pysrc.Node) {
	if t == nil {
		return
	}
	switch t.Kind {
	case pysrc.KindName:
		sc.locals[t.Name] = true
	case pysrc.KindTupleLit, pysrc.KindListLit:
		for _, e := range t.Elts {
			collectTargetNames(sc, e)
		}
	case pysrc.KindUnaryOp:
		collectTargetNames(sc, t.Value)
	}
}
