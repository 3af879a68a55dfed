package pluralforms

import (
	"fmt"
	"strconv"
)

type tokenKind int

const (
	eofTok tokenKind = iota
	invalidTok
	numTok
	varTok
	opTok
)

type token struct {
	kind tokenKind
	op   string
	num  int
	pos  int
}

type lexer struct {
	data string
	pos  int
}

func (l *lexer) next() token {
	for l.pos < len(l.data) && (l.data[l.pos] == ' ' || l.data[l.pos] == '\t') {
		l.pos += 1
	}
	if l.pos >= len(l.data) {
		return token{kind: eofTok, pos: l.pos}
	}

	pos := l.pos
	c := l.data[pos]
	l.pos += 1
	switch c {
	case '0', '1', '2', '3', '4', '5', '6', '7', '8', '9':
		for l.pos < len(l.data) && l.data[l.pos] >= '0' && l.data[l.pos] <= '9' {
			l.pos += 1
		}
		num, err := strconv.ParseInt(l.data[pos:l.pos], 10, 32)
		if err != nil {
			return token{kind: invalidTok, pos: pos}
		}
		return token{kind: numTok, num: int(num), pos: pos}
	case 'n':
		return token{kind: varTok, pos: pos}
	case '=':
		if l.peek('=') {
			return token{kind: opTok, op: "==", pos: pos}
		}
		return token{kind: invalidTok, pos: pos}
	case '!', '<', '>':
		if l.peek('=') {
			return token{kind: opTok, op: string(c) + "=", pos: pos}
		}
		return token{kind: opTok, op: string(c), pos: pos}
	case '&', '|':
		if l.peek(c) {
			return token{kind: opTok, op: string(c) + string(c), pos: pos}
		}
		return token{kind: invalidTok, pos: pos}
	case '?', ':', '(', ')', '*', '/', '%', '+', '-':
		return token{kind: opTok, op: string(c), pos: pos}
	case ';', '\n':
		// The expression ends here, whatever follows.
		l.pos = len(l.data)
		return token{kind: eofTok, pos: pos}
	default:
		return token{kind: invalidTok, pos: pos}
	}
}

func (l *lexer) peek(c byte) bool {
	if l.pos < len(l.data) && l.data[l.pos] == c {
		l.pos += 1
		return true
	}
	return false
}

// parser is a precedence climbing parser for the C subset used by gettext
// Plural-Forms headers.
type parser struct {
	lex *lexer
	tok token
}

func (p *parser) advance() {
	p.tok = p.lex.next()
}

func (p *parser) isOp(ops ...string) bool {
	if p.tok.kind != opTok {
		return false
	}
	for _, op := range ops {
		if p.tok.op == op {
			return true
		}
	}
	return false
}

func (p *parser) errorf(format string, args ...interface{}) error {
	return fmt.Errorf("at offset %d: %s", p.tok.pos, fmt.Sprintf(format, args...))
}

func (p *parser) ternary() (Expression, error) {
	test, err := p.or()
	if err != nil {
		return nil, err
	}
	if !p.isOp("?") {
		return test, nil
	}
	p.advance()
	ifTrue, err := p.ternary()
	if err != nil {
		return nil, err
	}
	if !p.isOp(":") {
		return nil, p.errorf("expected ':'")
	}
	p.advance()
	ifFalse, err := p.ternary()
	if err != nil {
		return nil, err
	}
	return ternaryExpr{test: test, ifTrue: ifTrue, ifFalse: ifFalse}, nil
}

func (p *parser) or() (Expression, error) {
	left, err := p.and()
	if err != nil {
		return nil, err
	}
	for p.isOp("||") {
		p.advance()
		right, err := p.and()
		if err != nil {
			return nil, err
		}
		left = orExpr{left, right}
	}
	return left, nil
}

func (p *parser) and() (Expression, error) {
	left, err := p.equality()
	if err != nil {
		return nil, err
	}
	for p.isOp("&&") {
		p.advance()
		right, err := p.equality()
		if err != nil {
			return nil, err
		}
		left = andExpr{left, right}
	}
	return left, nil
}

func (p *parser) equality() (Expression, error) {
	left, err := p.relational()
	if err != nil {
		return nil, err
	}
	for p.isOp("==", "!=") {
		op := p.tok.op
		p.advance()
		right, err := p.relational()
		if err != nil {
			return nil, err
		}
		if op == "==" {
			left = eqExpr{left, right}
		} else {
			left = neExpr{left, right}
		}
	}
	return left, nil
}

func (p *parser) relational() (Expression, error) {
	left, err := p.additive()
	if err != nil {
		return nil, err
	}
	for p.isOp("<", "<=", ">", ">=") {
		op := p.tok.op
		p.advance()
		right, err := p.additive()
		if err != nil {
			return nil, err
		}
		switch op {
		case "<":
			left = ltExpr{left, right}
		case "<=":
			left = lteExpr{left, right}
		case ">":
			left = gtExpr{left, right}
		case ">=":
			left = gteExpr{left, right}
		}
	}
	return left, nil
}

func (p *parser) additive() (Expression, error) {
	left, err := p.multiplicative()
	if err != nil {
		return nil, err
	}
	for p.isOp("+", "-") {
		op := p.tok.op
		p.advance()
		right, err := p.multiplicative()
		if err != nil {
			return nil, err
		}
		if op == "+" {
			left = addExpr{left, right}
		} else {
			left = subExpr{left, right}
		}
	}
	return left, nil
}

func (p *parser) multiplicative() (Expression, error) {
	left, err := p.unary()
	if err != nil {
		return nil, err
	}
	for p.isOp("*", "/", "%") {
		op := p.tok.op
		p.advance()
		right, err := p.unary()
		if err != nil {
			return nil, err
		}
		switch op {
		case "*":
			left = mulExpr{left, right}
		case "/":
			left = divExpr{left, right}
		case "%":
			left = modExpr{left, right}
		}
	}
	return left, nil
}

func (p *parser) unary() (Expression, error) {
	if p.isOp("!") {
		p.advance()
		sub, err := p.unary()
		if err != nil {
			return nil, err
		}
		return notExpr{sub}, nil
	}
	return p.primary()
}

func (p *parser) primary() (Expression, error) {
	switch p.tok.kind {
	case numTok:
		e := numberExpr{p.tok.num}
		p.advance()
		return e, nil
	case varTok:
		p.advance()
		return varExpr{}, nil
	case opTok:
		if p.tok.op == "(" {
			p.advance()
			e, err := p.ternary()
			if err != nil {
				return nil, err
			}
			if !p.isOp(")") {
				return nil, p.errorf("expected ')'")
			}
			p.advance()
			return e, nil
		}
		return nil, p.errorf("unexpected %q", p.tok.op)
	case eofTok:
		return nil, p.errorf("unexpected end of expression")
	default:
		return nil, p.errorf("invalid character")
	}
}

// Compile a string containing a plural form expression to a Expression object.
func Compile(expr string) (Expression, error) {
	p := parser{lex: &lexer{data: expr}}
	p.advance()
	e, err := p.ternary()
	if err == nil && p.tok.kind != eofTok {
		err = p.errorf("unexpected trailing input")
	}
	if err != nil {
		return nil, fmt.Errorf("cannot parse expression: %v", err)
	}
	return e, nil
}

// MustCompile is like Compile but panics if the expression cannot be parsed.
func MustCompile(expr string) Expression {
	e, err := Compile(expr)
	if err != nil {
		panic(fmt.Sprintf("pluralforms: %q: %v", expr, err))
	}
	return e
}
