// Package parser turns Python source text into the pysrc syntax tree.
//
// It covers the statement and expression surface the rule battery
// reasons about: imports, definitions, control flow, assignments,
// calls, comprehensions, with/try blocks and the usual literal and
// operator forms. Parsing either fully succeeds or fails with a
// *SyntaxError; there is no partial result.
package parser

import (
	"strings"

	"github.com/aideng18/PyWard/internal/pysrc"
)

// Parse builds a SourceUnit from one file's text.
func Parse(filename, src string) (*pysrc.SourceUnit, error) {
	toks, lerr := lex(src)
	if lerr != nil {
		return nil, lerr
	}
	p := &parser{toks: toks}
	root, perr := p.parseModule()
	if perr != nil {
		return nil, perr
	}
	return pysrc.NewSourceUnit(filename, root, src), nil
}

type parser struct {
	toks []token
	pos  int
}

func (p *parser) cur() token  { return p.toks[p.pos] }
func (p *parser) next() token { t := p.toks[p.pos]; p.pos++; return t }

func (p *parser) atOp(val string) bool {
	t := p.cur()
	return t.kind == tokOp && t.val == val
}

func (p *parser) atKw(val string) bool {
	t := p.cur()
	return t.kind == tokKeyword && t.val == val
}

func (p *parser) acceptOp(val string) bool {
	if p.atOp(val) {
		p.pos++
		return true
	}
	return false
}

func (p *parser) acceptKw(val string) bool {
	if p.atKw(val) {
		p.pos++
		return true
	}
	return false
}

func (p *parser) expectOp(val string) *SyntaxError {
	if p.acceptOp(val) {
		return nil
	}
	t := p.cur()
	return errAt(t.line, t.col, "expected %q, found %s", val, describe(t))
}

func (p *parser) expectName() (token, *SyntaxError) {
	t := p.cur()
	if t.kind != tokName {
		return t, errAt(t.line, t.col, "expected identifier, found %s", describe(t))
	}
	p.pos++
	return t, nil
}

func describe(t token) string {
	switch t.kind {
	case tokEOF:
		return "end of file"
	case tokNewline:
		return "end of line"
	case tokIndent:
		return "indent"
	case tokDedent:
		return "dedent"
	case tokString:
		return "string literal"
	default:
		return "'" + t.val + "'"
	}
}

func (p *parser) parseModule() (*pysrc.Node, *SyntaxError) {
	root := &pysrc.Node{Kind: pysrc.KindModule, Line: 1, Col: 1}
	for p.cur().kind != tokEOF {
		if p.cur().kind == tokNewline {
			p.pos++
			continue
		}
		stmts, err := p.parseStatement()
		if err != nil {
			return nil, err
		}
		root.Body = append(root.Body, stmts...)
	}
	return root, nil
}

// parseStatement parses one logical line: a compound statement or a
// ';'-separated run of simple statements.
func (p *parser) parseStatement() ([]*pysrc.Node, *SyntaxError) {
	t := p.cur()
	if t.kind == tokKeyword {
		switch t.val {
		case "if":
			n, err := p.parseIf()
			return wrap(n, err)
		case "while":
			n, err := p.parseWhile()
			return wrap(n, err)
		case "for":
			n, err := p.parseFor()
			return wrap(n, err)
		case "def":
			n, err := p.parseDef(nil)
			return wrap(n, err)
		case "class":
			n, err := p.parseClass(nil)
			return wrap(n, err)
		case "with":
			n, err := p.parseWith()
			return wrap(n, err)
		case "try":
			n, err := p.parseTry()
			return wrap(n, err)
		}
	}
	if t.kind == tokOp && t.val == "@" {
		n, err := p.parseDecorated()
		return wrap(n, err)
	}
	return p.parseSimpleLine()
}

func wrap(n *pysrc.Node, err *SyntaxError) ([]*pysrc.Node, *SyntaxError) {
	if err != nil {
		return nil, err
	}
	return []*pysrc.Node{n}, nil
}

func (p *parser) parseSimpleLine() ([]*pysrc.Node, *SyntaxError) {
	var out []*pysrc.Node
	for {
		n, err := p.parseSmallStmt()
		if err != nil {
			return nil, err
		}
		out = append(out, n)
		if p.acceptOp(";") {
			if p.cur().kind == tokNewline || p.cur().kind == tokEOF {
				break
			}
			continue
		}
		break
	}
	t := p.cur()
	if t.kind == tokNewline {
		p.pos++
	} else if t.kind != tokEOF && t.kind != tokDedent {
		return nil, errAt(t.line, t.col, "unexpected %s after statement", describe(t))
	}
	return out, nil
}

func (p *parser) parseSmallStmt() (*pysrc.Node, *SyntaxError) {
	t := p.cur()
	if t.kind == tokKeyword {
		switch t.val {
		case "return":
			p.pos++
			n := &pysrc.Node{Kind: pysrc.KindReturn, Line: t.line, Col: t.col}
			if !p.atLineEnd() {
				v, err := p.parseTestList()
				if err != nil {
					return nil, err
				}
				n.Value = v
			}
			return n, nil
		case "raise":
			p.pos++
			n := &pysrc.Node{Kind: pysrc.KindRaise, Line: t.line, Col: t.col}
			if !p.atLineEnd() {
				v, err := p.parseTest()
				if err != nil {
					return nil, err
				}
				n.Value = v
				if p.acceptKw("from") {
					if _, err := p.parseTest(); err != nil {
						return nil, err
					}
				}
			}
			return n, nil
		case "break":
			p.pos++
			return &pysrc.Node{Kind: pysrc.KindBreak, Line: t.line, Col: t.col}, nil
		case "continue":
			p.pos++
			return &pysrc.Node{Kind: pysrc.KindContinue, Line: t.line, Col: t.col}, nil
		case "pass":
			p.pos++
			return &pysrc.Node{Kind: pysrc.KindPass, Line: t.line, Col: t.col}, nil
		case "import":
			return p.parseImport()
		case "from":
			return p.parseImportFrom()
		case "del":
			p.pos++
			n := &pysrc.Node{Kind: pysrc.KindDelete, Line: t.line, Col: t.col}
			for {
				e, err := p.parseTest()
				if err != nil {
					return nil, err
				}
				markStore(e)
				n.Elts = append(n.Elts, e)
				if !p.acceptOp(",") {
					break
				}
			}
			return n, nil
		case "global", "nonlocal":
			p.pos++
			kind := pysrc.KindGlobal
			if t.val == "nonlocal" {
				kind = pysrc.KindNonlocal
			}
			n := &pysrc.Node{Kind: kind, Line: t.line, Col: t.col}
			for {
				name, err := p.expectName()
				if err != nil {
					return nil, err
				}
				n.Names = append(n.Names, name.val)
				if !p.acceptOp(",") {
					break
				}
			}
			return n, nil
		case "assert":
			p.pos++
			n := &pysrc.Node{Kind: pysrc.KindAssert, Line: t.line, Col: t.col}
			cond, err := p.parseTest()
			if err != nil {
				return nil, err
			}
			n.Test = cond
			if p.acceptOp(",") {
				msg, err := p.parseTest()
				if err != nil {
					return nil, err
				}
				n.Msg = msg
			}
			return n, nil
		}
	}
	return p.parseExprStmt()
}

func (p *parser) atLineEnd() bool {
	t := p.cur()
	return t.kind == tokNewline || t.kind == tokEOF || t.kind == tokDedent ||
		(t.kind == tokOp && t.val == ";")
}

var augOps = map[string]bool{
	"+=": true, "-=": true, "*=": true, "/=": true, "//=": true,
	"%=": true, "**=": true, "&=": true, "|=": true, "^=": true,
	"<<=": true, ">>=": true, "@=": true,
}

func (p *parser) parseExprStmt() (*pysrc.Node, *SyntaxError) {
	t := p.cur()
	expr, err := p.parseTestList()
	if err != nil {
		return nil, err
	}

	// annotated assignment: x: int = 1
	if p.atOp(":") {
		p.pos++
		anno, err := p.parseTest()
		if err != nil {
			return nil, err
		}
		n := &pysrc.Node{Kind: pysrc.KindAssign, Line: t.line, Col: t.col, Anno: anno}
		markStore(expr)
		n.Targets = []*pysrc.Node{expr}
		if p.acceptOp("=") {
			v, err := p.parseTestList()
			if err != nil {
				return nil, err
			}
			n.Value = v
		}
		return n, nil
	}

	if cur := p.cur(); cur.kind == tokOp && augOps[cur.val] {
		p.pos++
		v, err := p.parseTestList()
		if err != nil {
			return nil, err
		}
		markStore(expr)
		return &pysrc.Node{
			Kind: pysrc.KindAugAssign, Line: t.line, Col: t.col,
			Op: strings.TrimSuffix(cur.val, "="), Target: expr, Value: v,
		}, nil
	}

	if p.atOp("=") {
		targets := []*pysrc.Node{expr}
		var value *pysrc.Node
		for p.acceptOp("=") {
			next, err := p.parseTestList()
			if err != nil {
				return nil, err
			}
			if p.atOp("=") {
				targets = append(targets, next)
			} else {
				value = next
			}
		}
		for _, tgt := range targets {
			markStore(tgt)
		}
		return &pysrc.Node{
			Kind: pysrc.KindAssign, Line: t.line, Col: t.col,
			Targets: targets, Value: value,
		}, nil
	}

	return &pysrc.Node{Kind: pysrc.KindExprStmt, Line: t.line, Col: t.col, Value: expr}, nil
}

// markStore flags the Name nodes of an assignment target as binding
// positions. Attribute and subscript targets keep their inner value as
// a load; `os.flag = 1` still counts as a use of os.
func markStore(n *pysrc.Node) {
	switch n.Kind {
	case pysrc.KindName:
		n.Store = true
	case pysrc.KindTupleLit, pysrc.KindListLit:
		for _, e := range n.Elts {
			markStore(e)
		}
	case pysrc.KindUnaryOp:
		if n.Op == "*" && n.Value != nil {
			markStore(n.Value)
		}
	}
}

func (p *parser) parseImport() (*pysrc.Node, *SyntaxError) {
	t := p.next() // import
	n := &pysrc.Node{Kind: pysrc.KindImport, Line: t.line, Col: t.col}
	for {
		a, err := p.parseDottedAlias()
		if err != nil {
			return nil, err
		}
		n.Aliases = append(n.Aliases, a)
		if !p.acceptOp(",") {
			break
		}
	}
	return n, nil
}

func (p *parser) parseImportFrom() (*pysrc.Node, *SyntaxError) {
	t := p.next() // from
	n := &pysrc.Node{Kind: pysrc.KindImportFrom, Line: t.line, Col: t.col}
	var mod strings.Builder
	for p.acceptOp(".") {
		mod.WriteByte('.')
	}
	if p.cur().kind == tokName {
		name, _ := p.expectName()
		mod.WriteString(name.val)
		for p.acceptOp(".") {
			part, err := p.expectName()
			if err != nil {
				return nil, err
			}
			mod.WriteByte('.')
			mod.WriteString(part.val)
		}
	}
	n.Module = mod.String()
	if !p.acceptKw("import") {
		c := p.cur()
		return nil, errAt(c.line, c.col, "expected 'import' in from-import")
	}
	if p.atOp("*") {
		star := p.next()
		n.Aliases = append(n.Aliases, pysrc.Alias{Name: "*", Line: star.line, Col: star.col})
		return n, nil
	}
	paren := p.acceptOp("(")
	for {
		name, err := p.expectName()
		if err != nil {
			return nil, err
		}
		a := pysrc.Alias{Name: name.val, Line: name.line, Col: name.col}
		if p.acceptKw("as") {
			as, err := p.expectName()
			if err != nil {
				return nil, err
			}
			a.AsName = as.val
		}
		n.Aliases = append(n.Aliases, a)
		if !p.acceptOp(",") {
			break
		}
		if paren && p.atOp(")") {
			break
		}
	}
	if paren {
		if err := p.expectOp(")"); err != nil {
			return nil, err
		}
	}
	return n, nil
}

func (p *parser) parseDottedAlias() (pysrc.Alias, *SyntaxError) {
	name, err := p.expectName()
	if err != nil {
		return pysrc.Alias{}, err
	}
	a := pysrc.Alias{Name: name.val, Line: name.line, Col: name.col}
	for p.acceptOp(".") {
		part, err := p.expectName()
		if err != nil {
			return pysrc.Alias{}, err
		}
		a.Name += "." + part.val
	}
	if p.acceptKw("as") {
		as, err := p.expectName()
		if err != nil {
			return pysrc.Alias{}, err
		}
		a.AsName = as.val
	}
	return a, nil
}

func (p *parser) parseIf() (*pysrc.Node, *SyntaxError) {
	t := p.next() // if / elif
	n := &pysrc.Node{Kind: pysrc.KindIf, Line: t.line, Col: t.col}
	cond, err := p.parseTest()
	if err != nil {
		return nil, err
	}
	n.Test = cond
	var serr *SyntaxError
	if n.Body, serr = p.parseSuite(); serr != nil {
		return nil, serr
	}
	if p.atKw("elif") {
		// lower elif chains into nested ifs
		elifNode, err := p.parseIf()
		if err != nil {
			return nil, err
		}
		n.Orelse = []*pysrc.Node{elifNode}
		return n, nil
	}
	if p.acceptKw("else") {
		if err := p.expectOp(":"); err != nil {
			return nil, err
		}
		if n.Orelse, serr = p.parseBlock(); serr != nil {
			return nil, serr
		}
	}
	return n, nil
}

func (p *parser) parseWhile() (*pysrc.Node, *SyntaxError) {
	t := p.next()
	n := &pysrc.Node{Kind: pysrc.KindWhile, Line: t.line, Col: t.col}
	cond, err := p.parseTest()
	if err != nil {
		return nil, err
	}
	n.Test = cond
	var serr *SyntaxError
	if n.Body, serr = p.parseSuite(); serr != nil {
		return nil, serr
	}
	if p.acceptKw("else") {
		if err := p.expectOp(":"); err != nil {
			return nil, err
		}
		if n.Orelse, serr = p.parseBlock(); serr != nil {
			return nil, serr
		}
	}
	return n, nil
}

func (p *parser) parseFor() (*pysrc.Node, *SyntaxError) {
	t := p.next()
	n := &pysrc.Node{Kind: pysrc.KindFor, Line: t.line, Col: t.col}
	target, err := p.parseTargetList()
	if err != nil {
		return nil, err
	}
	markStore(target)
	n.Target = target
	if !p.acceptKw("in") {
		c := p.cur()
		return nil, errAt(c.line, c.col, "expected 'in' in for statement")
	}
	iter, err := p.parseTestList()
	if err != nil {
		return nil, err
	}
	n.Iter = iter
	var serr *SyntaxError
	if n.Body, serr = p.parseSuite(); serr != nil {
		return nil, serr
	}
	if p.acceptKw("else") {
		if err := p.expectOp(":"); err != nil {
			return nil, err
		}
		if n.Orelse, serr = p.parseBlock(); serr != nil {
			return nil, serr
		}
	}
	return n, nil
}

func (p *parser) parseDecorated() (*pysrc.Node, *SyntaxError) {
	var decs []*pysrc.Node
	for p.acceptOp("@") {
		d, err := p.parsePostfix()
		if err != nil {
			return nil, err
		}
		decs = append(decs, d)
		if p.cur().kind == tokNewline {
			p.pos++
		}
	}
	switch {
	case p.atKw("def"):
		return p.parseDef(decs)
	case p.atKw("class"):
		return p.parseClass(decs)
	}
	c := p.cur()
	return nil, errAt(c.line, c.col, "expected 'def' or 'class' after decorators")
}

func (p *parser) parseDef(decs []*pysrc.Node) (*pysrc.Node, *SyntaxError) {
	t := p.next() // def
	name, err := p.expectName()
	if err != nil {
		return nil, err
	}
	n := &pysrc.Node{
		Kind: pysrc.KindFunctionDef, Line: t.line, Col: t.col,
		Name: name.val, Decorators: decs,
	}
	if err := p.expectOp("("); err != nil {
		return nil, err
	}
	for !p.atOp(")") {
		for p.atOp("*") || p.atOp("**") {
			p.pos++
		}
		if p.atOp(",") { // bare '*' separator
			p.pos++
			continue
		}
		if p.atOp(")") {
			break
		}
		param, err := p.expectName()
		if err != nil {
			return nil, err
		}
		n.Params = append(n.Params, param.val)
		if p.acceptOp(":") {
			anno, aerr := p.parseTest()
			if aerr != nil {
				return nil, aerr
			}
			n.Defaults = append(n.Defaults, anno)
		}
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
	if err := p.expectOp(")"); err != nil {
		return nil, err
	}
	if p.acceptOp("->") {
		ret, rerr := p.parseTest()
		if rerr != nil {
			return nil, rerr
		}
		n.Returns = ret
	}
	body, serr := p.parseSuite()
	if serr != nil {
		return nil, serr
	}
	n.Body = body
	return n, nil
}

func (p *parser) parseClass(decs []*pysrc.Node) (*pysrc.Node, *SyntaxError) {
	t := p.next() // class
	name, err := p.expectName()
	if err != nil {
		return nil, err
	}
	n := &pysrc.Node{
		Kind: pysrc.KindClassDef, Line: t.line, Col: t.col,
		Name: name.val, Decorators: decs,
	}
	if p.acceptOp("(") {
		for !p.atOp(")") {
			arg, aerr := p.parseCallArg()
			if aerr != nil {
				return nil, aerr
			}
			if arg.Kind == pysrc.KindKeyword {
				n.Keywords = append(n.Keywords, arg)
			} else {
				n.Args = append(n.Args, arg)
			}
			if !p.acceptOp(",") {
				break
			}
		}
		if err := p.expectOp(")"); err != nil {
			return nil, err
		}
	}
	body, serr := p.parseSuite()
	if serr != nil {
		return nil, serr
	}
	n.Body = body
	return n, nil
}

func (p *parser) parseWith() (*pysrc.Node, *SyntaxError) {
	t := p.next()
	n := &pysrc.Node{Kind: pysrc.KindWith, Line: t.line, Col: t.col}
	for {
		item := &pysrc.Node{Kind: pysrc.KindWithItem, Line: p.cur().line, Col: p.cur().col}
		ctx, err := p.parseTest()
		if err != nil {
			return nil, err
		}
		item.Value = ctx
		// The as-target is a single target; a bare comma starts the
		// next context manager, not a target tuple.
		if p.acceptKw("as") {
			tgt, terr := p.parsePostfixOrStar()
			if terr != nil {
				return nil, terr
			}
			markStore(tgt)
			item.Target = tgt
		}
		n.Items = append(n.Items, item)
		if !p.acceptOp(",") {
			break
		}
	}
	body, serr := p.parseSuite()
	if serr != nil {
		return nil, serr
	}
	n.Body = body
	return n, nil
}

func (p *parser) parseTry() (*pysrc.Node, *SyntaxError) {
	t := p.next()
	n := &pysrc.Node{Kind: pysrc.KindTry, Line: t.line, Col: t.col}
	if err := p.expectOp(":"); err != nil {
		return nil, err
	}
	var serr *SyntaxError
	if n.Body, serr = p.parseBlock(); serr != nil {
		return nil, serr
	}
	for p.atKw("except") {
		h := p.next()
		handler := &pysrc.Node{Kind: pysrc.KindExceptHandler, Line: h.line, Col: h.col}
		if !p.atOp(":") {
			p.acceptOp("*") // except* groups
			typ, terr := p.parseTest()
			if terr != nil {
				return nil, terr
			}
			handler.Test = typ
			if p.acceptKw("as") {
				name, nerr := p.expectName()
				if nerr != nil {
					return nil, nerr
				}
				handler.Name = name.val
			}
		}
		if err := p.expectOp(":"); err != nil {
			return nil, err
		}
		if handler.Body, serr = p.parseBlock(); serr != nil {
			return nil, serr
		}
		n.Handlers = append(n.Handlers, handler)
	}
	if p.acceptKw("else") {
		if err := p.expectOp(":"); err != nil {
			return nil, err
		}
		if n.Orelse, serr = p.parseBlock(); serr != nil {
			return nil, serr
		}
	}
	if p.acceptKw("finally") {
		if err := p.expectOp(":"); err != nil {
			return nil, err
		}
		if n.Final, serr = p.parseBlock(); serr != nil {
			return nil, serr
		}
	}
	if len(n.Handlers) == 0 && len(n.Final) == 0 {
		return nil, errAt(t.line, t.col, "try statement needs an except or finally clause")
	}
	return n, nil
}

// parseSuite parses ": <block>".
func (p *parser) parseSuite() ([]*pysrc.Node, *SyntaxError) {
	if err := p.expectOp(":"); err != nil {
		return nil, err
	}
	return p.parseBlock()
}

// parseBlock parses either an indented block or simple statements on
// the same line.
func (p *parser) parseBlock() ([]*pysrc.Node, *SyntaxError) {
	if p.cur().kind != tokNewline {
		return p.parseSimpleLine()
	}
	p.pos++ // newline
	t := p.cur()
	if t.kind != tokIndent {
		return nil, errAt(t.line, t.col, "expected an indented block")
	}
	p.pos++
	var out []*pysrc.Node
	for {
		t = p.cur()
		if t.kind == tokDedent {
			p.pos++
			break
		}
		if t.kind == tokEOF {
			break
		}
		if t.kind == tokNewline {
			p.pos++
			continue
		}
		stmts, err := p.parseStatement()
		if err != nil {
			return nil, err
		}
		out = append(out, stmts...)
	}
	if len(out) == 0 {
		return nil, errAt(t.line, t.col, "expected an indented block")
	}
	return out, nil
}
