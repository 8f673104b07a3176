package parser

import "github.com/aideng18/PyWard/internal/pysrc"

// parseTestList parses "test (',' test)*", producing a tuple node when
// more than one element (or a trailing comma) is present.
func (p *parser) parseTestList() (*pysrc.Node, *SyntaxError) {
	first, err := p.parseTest()
	if err != nil {
		return nil, err
	}
	if !p.atOp(",") {
		return first, nil
	}
	tuple := &pysrc.Node{
		Kind: pysrc.KindTupleLit, Line: first.Line, Col: first.Col,
		Elts: []*pysrc.Node{first},
	}
	for p.acceptOp(",") {
		if p.atLineEnd() || p.atOp("=") || p.atOp(")") || p.atOp("]") || p.atOp("}") || p.atOp(":") {
			break // trailing comma
		}
		e, err := p.parseTest()
		if err != nil {
			return nil, err
		}
		tuple.Elts = append(tuple.Elts, e)
	}
	return tuple, nil
}

// parseTargetList is the for-statement target grammar; it reuses the
// testlist shape and lets markStore reject nothing (non-name targets
// simply bind no names).
func (p *parser) parseTargetList() (*pysrc.Node, *SyntaxError) {
	first, err := p.parsePostfixOrStar()
	if err != nil {
		return nil, err
	}
	if !p.atOp(",") {
		return first, nil
	}
	tuple := &pysrc.Node{
		Kind: pysrc.KindTupleLit, Line: first.Line, Col: first.Col,
		Elts: []*pysrc.Node{first},
	}
	for p.acceptOp(",") {
		if p.atKw("in") || p.atOp(":") {
			break
		}
		e, err := p.parsePostfixOrStar()
		if err != nil {
			return nil, err
		}
		tuple.Elts = append(tuple.Elts, e)
	}
	return tuple, nil
}

func (p *parser) parsePostfixOrStar() (*pysrc.Node, *SyntaxError) {
	if p.atOp("*") {
		t := p.next()
		v, err := p.parsePostfix()
		if err != nil {
			return nil, err
		}
		return &pysrc.Node{Kind: pysrc.KindUnaryOp, Line: t.line, Col: t.col, Op: "*", Value: v}, nil
	}
	if p.atOp("(") || p.atOp("[") {
		return p.parseAtomThenPostfix()
	}
	return p.parsePostfix()
}

// parseTest is the full conditional-expression grammar, including
// lambda (modeled as an anonymous FunctionDef whose body is a single
// return) and yield expressions.
func (p *parser) parseTest() (*pysrc.Node, *SyntaxError) {
	if p.atKw("lambda") {
		return p.parseLambda()
	}
	if p.atKw("yield") {
		t := p.next()
		n := &pysrc.Node{Kind: pysrc.KindUnaryOp, Line: t.line, Col: t.col, Op: "yield"}
		p.acceptKw("from")
		if !p.atLineEnd() && !p.atOp(")") && !p.atOp("]") && !p.atOp("}") && !p.atOp(",") {
			v, err := p.parseTestList()
			if err != nil {
				return nil, err
			}
			n.Value = v
		}
		return n, nil
	}
	body, err := p.parseOrTest()
	if err != nil {
		return nil, err
	}
	if !p.atKw("if") {
		return body, nil
	}
	// conditional expression: body if cond else alt
	p.pos++
	cond, err := p.parseOrTest()
	if err != nil {
		return nil, err
	}
	if !p.acceptKw("else") {
		t := p.cur()
		return nil, errAt(t.line, t.col, "expected 'else' in conditional expression")
	}
	alt, err := p.parseTest()
	if err != nil {
		return nil, err
	}
	return &pysrc.Node{
		Kind: pysrc.KindIfExp, Line: body.Line, Col: body.Col,
		Test: cond, Left: body, Right: alt,
	}, nil
}

func (p *parser) parseLambda() (*pysrc.Node, *SyntaxError) {
	t := p.next() // lambda
	n := &pysrc.Node{Kind: pysrc.KindFunctionDef, Line: t.line, Col: t.col, Name: "<lambda>"}
	for !p.atOp(":") {
		for p.atOp("*") || p.atOp("**") {
			p.pos++
		}
		if p.atOp(",") {
			p.pos++
			continue
		}
		param, err := p.expectName()
		if err != nil {
			return nil, err
		}
		n.Params = append(n.Params, param.val)
		if p.acceptOp("=") {
			def, derr := p.parseTest()
			if derr != nil {
				return nil, derr
			}
			n.Defaults = append(n.Defaults, def)
		}
		if !p.acceptOp(",") {
			break
		}
	}
	if err := p.expectOp(":"); err != nil {
		return nil, err
	}
	body, err := p.parseTest()
	if err != nil {
		return nil, err
	}
	n.Body = []*pysrc.Node{{Kind: pysrc.KindReturn, Line: body.Line, Col: body.Col, Value: body}}
	return n, nil
}

func (p *parser) parseOrTest() (*pysrc.Node, *SyntaxError) {
	return p.parseBoolOp("or", p.parseAndTest)
}

func (p *parser) parseAndTest() (*pysrc.Node, *SyntaxError) {
	return p.parseBoolOp("and", p.parseNotTest)
}

func (p *parser) parseBoolOp(op string, sub func() (*pysrc.Node, *SyntaxError)) (*pysrc.Node, *SyntaxError) {
	first, err := sub()
	if err != nil {
		return nil, err
	}
	if !p.atKw(op) {
		return first, nil
	}
	n := &pysrc.Node{
		Kind: pysrc.KindBoolOp, Line: first.Line, Col: first.Col,
		Op: op, Elts: []*pysrc.Node{first},
	}
	for p.acceptKw(op) {
		e, err := sub()
		if err != nil {
			return nil, err
		}
		n.Elts = append(n.Elts, e)
	}
	return n, nil
}

func (p *parser) parseNotTest() (*pysrc.Node, *SyntaxError) {
	if p.atKw("not") {
		t := p.next()
		v, err := p.parseNotTest()
		if err != nil {
			return nil, err
		}
		return &pysrc.Node{Kind: pysrc.KindUnaryOp, Line: t.line, Col: t.col, Op: "not", Value: v}, nil
	}
	return p.parseComparison()
}

var compareOps = map[string]bool{
	"<": true, ">": true, "<=": true, ">=": true, "==": true, "!=": true,
}

func (p *parser) parseComparison() (*pysrc.Node, *SyntaxError) {
	left, err := p.parseArith(0)
	if err != nil {
		return nil, err
	}
	var ops []string
	var comps []*pysrc.Node
	for {
		var op string
		t := p.cur()
		switch {
		case t.kind == tokOp && compareOps[t.val]:
			op = t.val
			p.pos++
		case p.atKw("in"):
			op = "in"
			p.pos++
		case p.atKw("is"):
			op = "is"
			p.pos++
			if p.acceptKw("not") {
				op = "is not"
			}
		case p.atKw("not"):
			p.pos++
			if !p.acceptKw("in") {
				c := p.cur()
				return nil, errAt(c.line, c.col, "expected 'in' after 'not' in comparison")
			}
			op = "not in"
		default:
			if len(ops) == 0 {
				return left, nil
			}
			return &pysrc.Node{
				Kind: pysrc.KindCompare, Line: left.Line, Col: left.Col,
				Left: left, Names: ops, Elts: comps,
			}, nil
		}
		rhs, err := p.parseArith(0)
		if err != nil {
			return nil, err
		}
		ops = append(ops, op)
		comps = append(comps, rhs)
	}
}

// binary operator precedence tiers, loosest first.
var binTiers = [][]string{
	{"|"},
	{"^"},
	{"&"},
	{"<<", ">>"},
	{"+", "-"},
	{"*", "/", "//", "%", "@"},
}

func (p *parser) parseArith(tier int) (*pysrc.Node, *SyntaxError) {
	if tier >= len(binTiers) {
		return p.parseFactor()
	}
	left, err := p.parseArith(tier + 1)
	if err != nil {
		return nil, err
	}
	for {
		t := p.cur()
		if t.kind != tokOp || !contains(binTiers[tier], t.val) {
			return left, nil
		}
		p.pos++
		right, err := p.parseArith(tier + 1)
		if err != nil {
			return nil, err
		}
		left = &pysrc.Node{
			Kind: pysrc.KindBinOp, Line: left.Line, Col: left.Col,
			Op: t.val, Left: left, Right: right,
		}
	}
}

func contains(ss []string, s string) bool {
	for _, v := range ss {
		if v == s {
			return true
		}
	}
	return false
}

func (p *parser) parseFactor() (*pysrc.Node, *SyntaxError) {
	t := p.cur()
	if t.kind == tokOp && (t.val == "+" || t.val == "-" || t.val == "~" || t.val == "*" || t.val == "**") {
		p.pos++
		v, err := p.parseFactor()
		if err != nil {
			return nil, err
		}
		return &pysrc.Node{Kind: pysrc.KindUnaryOp, Line: t.line, Col: t.col, Op: t.val, Value: v}, nil
	}
	return p.parsePower()
}

func (p *parser) parsePower() (*pysrc.Node, *SyntaxError) {
	base, err := p.parsePostfix()
	if err != nil {
		return nil, err
	}
	if p.atOp("**") {
		p.pos++
		exp, err := p.parseFactor() // right associative
		if err != nil {
			return nil, err
		}
		return &pysrc.Node{
			Kind: pysrc.KindBinOp, Line: base.Line, Col: base.Col,
			Op: "**", Left: base, Right: exp,
		}, nil
	}
	return base, nil
}

// parsePostfix parses an atom followed by any chain of calls,
// attribute accesses and subscripts.
func (p *parser) parsePostfix() (*pysrc.Node, *SyntaxError) {
	return p.parseAtomThenPostfix()
}

func (p *parser) parseAtomThenPostfix() (*pysrc.Node, *SyntaxError) {
	n, err := p.parseAtom()
	if err != nil {
		return nil, err
	}
	for {
		switch {
		case p.atOp("("):
			call := &pysrc.Node{Kind: pysrc.KindCall, Line: n.Line, Col: n.Col, Func: n}
			p.pos++
			for !p.atOp(")") {
				arg, aerr := p.parseCallArg()
				if aerr != nil {
					return nil, aerr
				}
				// generator expression argument: f(x for x in xs)
				if p.atKw("for") && arg.Kind != pysrc.KindKeyword {
					comp, cerr := p.parseComprehensionTail(arg)
					if cerr != nil {
						return nil, cerr
					}
					arg = comp
				}
				if arg.Kind == pysrc.KindKeyword {
					call.Keywords = append(call.Keywords, arg)
				} else {
					call.Args = append(call.Args, arg)
				}
				if !p.acceptOp(",") {
					break
				}
			}
			if err := p.expectOp(")"); err != nil {
				return nil, err
			}
			n = call
		case p.atOp("."):
			p.pos++
			attr, aerr := p.expectName()
			if aerr != nil {
				return nil, aerr
			}
			n = &pysrc.Node{
				Kind: pysrc.KindAttribute, Line: n.Line, Col: n.Col,
				Name: attr.val, Value: n,
			}
		case p.atOp("["):
			p.pos++
			idx, ierr := p.parseSubscript()
			if ierr != nil {
				return nil, ierr
			}
			if err := p.expectOp("]"); err != nil {
				return nil, err
			}
			n = &pysrc.Node{
				Kind: pysrc.KindSubscript, Line: n.Line, Col: n.Col,
				Value: n, Index: idx,
			}
		default:
			return n, nil
		}
	}
}

func (p *parser) parseCallArg() (*pysrc.Node, *SyntaxError) {
	t := p.cur()
	if t.kind == tokOp && (t.val == "*" || t.val == "**") {
		p.pos++
		v, err := p.parseTest()
		if err != nil {
			return nil, err
		}
		// A ** splat is a keyword argument with no name.
		if t.val == "**" {
			return &pysrc.Node{Kind: pysrc.KindKeyword, Line: t.line, Col: t.col, Value: v}, nil
		}
		return &pysrc.Node{Kind: pysrc.KindUnaryOp, Line: t.line, Col: t.col, Op: "*", Value: v}, nil
	}
	// keyword argument: NAME '=' test (but not NAME '==' ...)
	if t.kind == tokName {
		nt := p.toks[p.pos+1]
		if nt.kind == tokOp && nt.val == "=" {
			p.pos += 2
			v, err := p.parseTest()
			if err != nil {
				return nil, err
			}
			return &pysrc.Node{
				Kind: pysrc.KindKeyword, Line: t.line, Col: t.col,
				Name: t.val, Value: v,
			}, nil
		}
	}
	return p.parseTest()
}

// parseSubscript handles plain indexes, tuple indexes and slices.
func (p *parser) parseSubscript() (*pysrc.Node, *SyntaxError) {
	t := p.cur()
	sl := &pysrc.Node{Kind: pysrc.KindSlice, Line: t.line, Col: t.col}
	if !p.atOp(":") {
		lo, err := p.parseTestList()
		if err != nil {
			return nil, err
		}
		if !p.atOp(":") {
			return lo, nil // plain index
		}
		sl.Left = lo
	}
	if err := p.expectOp(":"); err != nil {
		return nil, err
	}
	if !p.atOp("]") && !p.atOp(":") {
		hi, err := p.parseTest()
		if err != nil {
			return nil, err
		}
		sl.Right = hi
	}
	if p.acceptOp(":") {
		if !p.atOp("]") {
			step, err := p.parseTest()
			if err != nil {
				return nil, err
			}
			sl.Value = step
		}
	}
	return sl, nil
}

func (p *parser) parseAtom() (*pysrc.Node, *SyntaxError) {
	t := p.cur()
	switch t.kind {
	case tokName:
		p.pos++
		return &pysrc.Node{Kind: pysrc.KindName, Line: t.line, Col: t.col, Name: t.val}, nil
	case tokNumber:
		p.pos++
		return &pysrc.Node{Kind: pysrc.KindConstant, Line: t.line, Col: t.col, Literal: t.val}, nil
	case tokString:
		p.pos++
		n := &pysrc.Node{Kind: pysrc.KindConstant, Line: t.line, Col: t.col, Literal: t.val, IsStr: true}
		// adjacent string literals concatenate
		for p.cur().kind == tokString {
			n.Literal += p.next().val
		}
		return n, nil
	case tokKeyword:
		switch t.val {
		case "True", "False", "None":
			p.pos++
			return &pysrc.Node{Kind: pysrc.KindConstant, Line: t.line, Col: t.col, Literal: t.val}, nil
		case "lambda", "not", "yield":
			return p.parseTest()
		}
	case tokOp:
		switch t.val {
		case "(":
			return p.parseParenForm()
		case "[":
			return p.parseListForm()
		case "{":
			return p.parseDictForm()
		case "...":
			p.pos++
			return &pysrc.Node{Kind: pysrc.KindConstant, Line: t.line, Col: t.col, Literal: "..."}, nil
		}
	}
	return nil, errAt(t.line, t.col, "unexpected %s", describe(t))
}

func (p *parser) parseParenForm() (*pysrc.Node, *SyntaxError) {
	t := p.next() // (
	if p.atOp(")") {
		p.pos++
		return &pysrc.Node{Kind: pysrc.KindTupleLit, Line: t.line, Col: t.col}, nil
	}
	first, err := p.parseTest()
	if err != nil {
		return nil, err
	}
	if p.atKw("for") {
		comp, cerr := p.parseComprehensionTail(first)
		if cerr != nil {
			return nil, cerr
		}
		if err := p.expectOp(")"); err != nil {
			return nil, err
		}
		return comp, nil
	}
	if p.atOp(",") {
		tuple := &pysrc.Node{
			Kind: pysrc.KindTupleLit, Line: t.line, Col: t.col,
			Elts: []*pysrc.Node{first},
		}
		for p.acceptOp(",") {
			if p.atOp(")") {
				break
			}
			e, err := p.parseTest()
			if err != nil {
				return nil, err
			}
			tuple.Elts = append(tuple.Elts, e)
		}
		if err := p.expectOp(")"); err != nil {
			return nil, err
		}
		return tuple, nil
	}
	if err := p.expectOp(")"); err != nil {
		return nil, err
	}
	return first, nil
}

func (p *parser) parseListForm() (*pysrc.Node, *SyntaxError) {
	t := p.next() // [
	n := &pysrc.Node{Kind: pysrc.KindListLit, Line: t.line, Col: t.col}
	if p.atOp("]") {
		p.pos++
		return n, nil
	}
	first, err := p.parseTest()
	if err != nil {
		return nil, err
	}
	if p.atKw("for") {
		comp, cerr := p.parseComprehensionTail(first)
		if cerr != nil {
			return nil, cerr
		}
		if err := p.expectOp("]"); err != nil {
			return nil, err
		}
		return comp, nil
	}
	n.Elts = append(n.Elts, first)
	for p.acceptOp(",") {
		if p.atOp("]") {
			break
		}
		e, err := p.parseTest()
		if err != nil {
			return nil, err
		}
		n.Elts = append(n.Elts, e)
	}
	if err := p.expectOp("]"); err != nil {
		return nil, err
	}
	return n, nil
}

// parseDictForm parses dict and set displays plus their comprehension
// forms. Set displays are modeled as list literals; the rules draw no
// distinction between them.
func (p *parser) parseDictForm() (*pysrc.Node, *SyntaxError) {
	t := p.next() // {
	if p.atOp("}") {
		p.pos++
		return &pysrc.Node{Kind: pysrc.KindDictLit, Line: t.line, Col: t.col}, nil
	}
	first, err := p.parseTest()
	if err != nil {
		return nil, err
	}
	if p.atOp(":") { // dict
		p.pos++
		val, verr := p.parseTest()
		if verr != nil {
			return nil, verr
		}
		if p.atKw("for") {
			pair := &pysrc.Node{
				Kind: pysrc.KindTupleLit, Line: first.Line, Col: first.Col,
				Elts: []*pysrc.Node{first, val},
			}
			comp, cerr := p.parseComprehensionTail(pair)
			if cerr != nil {
				return nil, cerr
			}
			if err := p.expectOp("}"); err != nil {
				return nil, err
			}
			return comp, nil
		}
		n := &pysrc.Node{
			Kind: pysrc.KindDictLit, Line: t.line, Col: t.col,
			Elts: []*pysrc.Node{first, val},
		}
		for p.acceptOp(",") {
			if p.atOp("}") {
				break
			}
			k, kerr := p.parseTest()
			if kerr != nil {
				return nil, kerr
			}
			if err := p.expectOp(":"); err != nil {
				return nil, err
			}
			v, verr := p.parseTest()
			if verr != nil {
				return nil, verr
			}
			n.Elts = append(n.Elts, k, v)
		}
		if err := p.expectOp("}"); err != nil {
			return nil, err
		}
		return n, nil
	}
	if p.atKw("for") { // set comprehension
		comp, cerr := p.parseComprehensionTail(first)
		if cerr != nil {
			return nil, cerr
		}
		if err := p.expectOp("}"); err != nil {
			return nil, err
		}
		return comp, nil
	}
	// set display
	n := &pysrc.Node{Kind: pysrc.KindListLit, Line: t.line, Col: t.col, Elts: []*pysrc.Node{first}}
	for p.acceptOp(",") {
		if p.atOp("}") {
			break
		}
		e, err := p.parseTest()
		if err != nil {
			return nil, err
		}
		n.Elts = append(n.Elts, e)
	}
	if err := p.expectOp("}"); err != nil {
		return nil, err
	}
	return n, nil
}

// parseComprehensionTail parses "for target in iter (if cond)*"
// clauses after an element expression. Extra for-clauses nest, each
// wrapping the previous comprehension as its element.
func (p *parser) parseComprehensionTail(elt *pysrc.Node) (*pysrc.Node, *SyntaxError) {
	n := elt
	for p.atKw("for") {
		t := p.next()
		comp := &pysrc.Node{Kind: pysrc.KindComprehension, Line: t.line, Col: t.col, Value: n}
		target, err := p.parseTargetList()
		if err != nil {
			return nil, err
		}
		markStore(target)
		comp.Target = target
		if !p.acceptKw("in") {
			c := p.cur()
			return nil, errAt(c.line, c.col, "expected 'in' in comprehension")
		}
		iter, err := p.parseOrTest()
		if err != nil {
			return nil, err
		}
		comp.Iter = iter
		for p.acceptKw("if") {
			cond, cerr := p.parseOrTest()
			if cerr != nil {
				return nil, cerr
			}
			comp.Elts = append(comp.Elts, cond)
		}
		n = comp
	}
	return n, nil
}
