package pluralforms

import "fmt"

// Expression is a compiled plural form expression. Eval returns the plural
// category index for a quantity n. Use Compile to build one.
type Expression interface {
	Eval(n uint64) int
	fmt.Stringer
}

func logic(b bool) int {
	if b {
		return 1
	}
	return 0
}

type notExpr struct {
	sub Expression
}

func (e notExpr) Eval(n uint64) int {
	return logic(e.sub.Eval(n) == 0)
}

func (e notExpr) String() string {
	return fmt.Sprintf("!%s", e.sub)
}

type binaryExpr struct {
	left  Expression
	right Expression
}

func (e binaryExpr) format(op string) string {
	return fmt.Sprintf("(%s %s %s)", e.left, op, e.right)
}

type orExpr binaryExpr

func (e orExpr) Eval(n uint64) int {
	return logic(e.left.Eval(n) != 0 || e.right.Eval(n) != 0)
}

func (e orExpr) String() string { return binaryExpr(e).format("||") }

type andExpr binaryExpr

func (e andExpr) Eval(n uint64) int {
	return logic(e.left.Eval(n) != 0 && e.right.Eval(n) != 0)
}

func (e andExpr) String() string { return binaryExpr(e).format("&&") }

type eqExpr binaryExpr

func (e eqExpr) Eval(n uint64) int {
	return logic(e.left.Eval(n) == e.right.Eval(n))
}

func (e eqExpr) String() string { return binaryExpr(e).format("==") }

type neExpr binaryExpr

func (e neExpr) Eval(n uint64) int {
	return logic(e.left.Eval(n) != e.right.Eval(n))
}

func (e neExpr) String() string { return binaryExpr(e).format("!=") }

type ltExpr binaryExpr

func (e ltExpr) Eval(n uint64) int {
	return logic(e.left.Eval(n) < e.right.Eval(n))
}

func (e ltExpr) String() string { return binaryExpr(e).format("<") }

type lteExpr binaryExpr

func (e lteExpr) Eval(n uint64) int {
	return logic(e.left.Eval(n) <= e.right.Eval(n))
}

func (e lteExpr) String() string { return binaryExpr(e).format("<=") }

type gtExpr binaryExpr

func (e gtExpr) Eval(n uint64) int {
	return logic(e.left.Eval(n) > e.right.Eval(n))
}

func (e gtExpr) String() string { return binaryExpr(e).format(">") }

type gteExpr binaryExpr

func (e gteExpr) Eval(n uint64) int {
	return logic(e.left.Eval(n) >= e.right.Eval(n))
}

func (e gteExpr) String() string { return binaryExpr(e).format(">=") }

type addExpr binaryExpr

func (e addExpr) Eval(n uint64) int {
	return e.left.Eval(n) + e.right.Eval(n)
}

func (e addExpr) String() string { return binaryExpr(e).format("+") }

type subExpr binaryExpr

func (e subExpr) Eval(n uint64) int {
	return e.left.Eval(n) - e.right.Eval(n)
}

func (e subExpr) String() string { return binaryExpr(e).format("-") }

type mulExpr binaryExpr

func (e mulExpr) Eval(n uint64) int {
	return e.left.Eval(n) * e.right.Eval(n)
}

func (e mulExpr) String() string { return binaryExpr(e).format("*") }

// Division and modulo by zero evaluate to 0 rather than panicking: the
// expressions come from catalog headers we do not control.
type divExpr binaryExpr

func (e divExpr) Eval(n uint64) int {
	d := e.right.Eval(n)
	if d == 0 {
		return 0
	}
	return e.left.Eval(n) / d
}

func (e divExpr) String() string { return binaryExpr(e).format("/") }

type modExpr binaryExpr

func (e modExpr) Eval(n uint64) int {
	d := e.right.Eval(n)
	if d == 0 {
		return 0
	}
	return e.left.Eval(n) % d
}

func (e modExpr) String() string { return binaryExpr(e).format("%") }

type ternaryExpr struct {
	test    Expression
	ifTrue  Expression
	ifFalse Expression
}

func (e ternaryExpr) Eval(n uint64) int {
	if e.test.Eval(n) != 0 {
		return e.ifTrue.Eval(n)
	}
	return e.ifFalse.Eval(n)
}

func (e ternaryExpr) String() string {
	return fmt.Sprintf("(%s ? %s : %s)", e.test, e.ifTrue, e.ifFalse)
}

type numberExpr struct {
	value int
}

func (e numberExpr) Eval(n uint64) int {
	return e.value
}

func (e numberExpr) String() string {
	return fmt.Sprint(e.value)
}

// maxVar bounds the value of n seen by expressions so that it fits an
// int on 32-bit platforms. Values above it are folded so that n%1000000
// is preserved and comparisons against small constants still hold.
const maxVar = 1_000_000_000

type varExpr struct{}

func (e varExpr) Eval(n uint64) int {
	if n > maxVar {
		n = maxVar + n%1_000_000
	}
	return int(n)
}

func (e varExpr) String() string {
	return "n"
}
