// Package walker provides the deterministic depth-first traversal the
// rules are built on. Visitation is pre-order, children in source
// order; the walker never mutates the tree.
package walker

import "github.com/aideng18/PyWard/internal/pysrc"

// Context carries the ancestor chain of the node being visited. The
// slice is reused between visits; callers must copy it if they keep it.
type Context struct {
	stack []*pysrc.Node
}

// Ancestors returns the chain from the root down to (excluding) the
// current node, outermost first.
func (c *Context) Ancestors() []*pysrc.Node { return c.stack }

// Parent returns the immediate parent, or nil at the root.
func (c *Context) Parent() *pysrc.Node {
	if len(c.stack) == 0 {
		return nil
	}
	return c.stack[len(c.stack)-1]
}

// Scope returns the innermost enclosing name-resolution scope: the
// nearest FunctionDef, ClassDef or Module ancestor.
func (c *Context) Scope() *pysrc.Node {
	for i := len(c.stack) - 1; i >= 0; i-- {
		switch c.stack[i].Kind {
		case pysrc.KindModule, pysrc.KindFunctionDef, pysrc.KindClassDef:
			return c.stack[i]
		}
	}
	return nil
}

// InLoopBody reports whether cur sits inside the body (or else block)
// of a For or While, without crossing a function boundary. Loop
// headers (target, iterable, condition) do not count.
func (c *Context) InLoopBody(cur *pysrc.Node) bool {
	prev := cur
	for i := len(c.stack) - 1; i >= 0; i-- {
		a := c.stack[i]
		switch a.Kind {
		case pysrc.KindFor, pysrc.KindWhile:
			for _, st := range a.Body {
				if st == prev {
					return true
				}
			}
			for _, st := range a.Orelse {
				if st == prev {
					return true
				}
			}
		case pysrc.KindFunctionDef:
			return false
		}
		prev = a
	}
	return false
}

// VisitFunc is invoked once per node, pre-order.
type VisitFunc func(n *pysrc.Node, ctx *Context)

// Walk traverses the tree rooted at root.
func Walk(root *pysrc.Node, fn VisitFunc) {
	ctx := &Context{}
	walk(root, fn, ctx)
}

func walk(n *pysrc.Node, fn VisitFunc, ctx *Context) {
	if n == nil {
		return
	}
	fn(n, ctx)
	ctx.stack = append(ctx.stack, n)
	for _, c := range Children(n) {
		walk(c, fn, ctx)
	}
	ctx.stack = ctx.stack[:len(ctx.stack)-1]
}

// Children returns a node's direct children in source order. The
// switch is exhaustive over pysrc.Kind; a new kind must be added here
// before any rule can see it.
func Children(n *pysrc.Node) []*pysrc.Node {
	var out []*pysrc.Node
	add := func(ns ...*pysrc.Node) {
		for _, c := range ns {
			if c != nil {
				out = append(out, c)
			}
		}
	}
	switch n.Kind {
	case pysrc.KindModule:
		add(n.Body...)
	case pysrc.KindImport, pysrc.KindImportFrom:
		// aliases are payload, not nodes
	case pysrc.KindFunctionDef:
		add(n.Decorators...)
		add(n.Defaults...)
		add(n.Returns)
		add(n.Body...)
	case pysrc.KindClassDef:
		add(n.Decorators...)
		add(n.Args...)
		add(n.Keywords...)
		add(n.Body...)
	case pysrc.KindIf, pysrc.KindWhile:
		add(n.Test)
		add(n.Body...)
		add(n.Orelse...)
	case pysrc.KindFor:
		add(n.Target, n.Iter)
		add(n.Body...)
		add(n.Orelse...)
	case pysrc.KindReturn, pysrc.KindRaise, pysrc.KindExprStmt:
		add(n.Value)
	case pysrc.KindBreak, pysrc.KindContinue, pysrc.KindPass,
		pysrc.KindGlobal, pysrc.KindNonlocal:
		// leaves
	case pysrc.KindAssign:
		add(n.Targets...)
		add(n.Anno)
		add(n.Value)
	case pysrc.KindAugAssign:
		add(n.Target, n.Value)
	case pysrc.KindAssert:
		add(n.Test, n.Msg)
	case pysrc.KindDelete:
		add(n.Elts...)
	case pysrc.KindWith:
		add(n.Items...)
		add(n.Body...)
	case pysrc.KindWithItem:
		add(n.Value, n.Target)
	case pysrc.KindTry:
		add(n.Body...)
		add(n.Handlers...)
		add(n.Orelse...)
		add(n.Final...)
	case pysrc.KindExceptHandler:
		add(n.Test)
		add(n.Body...)
	case pysrc.KindCall:
		add(n.Func)
		add(n.Args...)
		add(n.Keywords...)
	case pysrc.KindKeyword:
		add(n.Value)
	case pysrc.KindAttribute, pysrc.KindSubscript:
		add(n.Value)
		if n.Kind == pysrc.KindSubscript {
			add(n.Index)
		}
	case pysrc.KindName, pysrc.KindConstant:
		// leaves
	case pysrc.KindBoolOp:
		add(n.Elts...)
	case pysrc.KindUnaryOp:
		add(n.Value)
	case pysrc.KindBinOp:
		add(n.Left, n.Right)
	case pysrc.KindCompare:
		add(n.Left)
		add(n.Elts...)
	case pysrc.KindListLit, pysrc.KindTupleLit, pysrc.KindDictLit:
		add(n.Elts...)
	case pysrc.KindComprehension:
		add(n.Target, n.Iter)
		add(n.Elts...)
		add(n.Value)
	case pysrc.KindIfExp:
		add(n.Left, n.Test, n.Right)
	case pysrc.KindSlice:
		add(n.Left, n.Right, n.Value)
	}
	return out
}

// Blocks returns the statement blocks a node owns, in source order.
// Nodes without blocks return nil.
func Blocks(n *pysrc.Node) [][]*pysrc.Node {
	switch n.Kind {
	case pysrc.KindModule, pysrc.KindFunctionDef, pysrc.KindClassDef,
		pysrc.KindWith, pysrc.KindExceptHandler:
		if len(n.Body) == 0 {
			return nil
		}
		return [][]*pysrc.Node{n.Body}
	case pysrc.KindIf, pysrc.KindFor, pysrc.KindWhile:
		out := [][]*pysrc.Node{n.Body}
		if len(n.Orelse) > 0 {
			out = append(out, n.Orelse)
		}
		return out
	case pysrc.KindTry:
		out := [][]*pysrc.Node{n.Body}
		if len(n.Orelse) > 0 {
			out = append(out, n.Orelse)
		}
		if len(n.Final) > 0 {
			out = append(out, n.Final)
		}
		return out
	}
	return nil
}
