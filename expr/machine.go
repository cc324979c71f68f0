package expr

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/eclipse-che4z/hlasm-analyzer-go/context"
	"github.com/eclipse-che4z/hlasm-analyzer-go/diag"
	"github.com/eclipse-che4z/hlasm-analyzer-go/ids"
	"github.com/eclipse-che4z/hlasm-analyzer-go/source"
)

func precedence(op string) int {
	switch op {
	case "+", "-":
		return 1
	case "*", "/":
		return 2
	default:
		return 0
	}
}

// machineNode is the parsed tree of a machine expression, built once and
// re-evaluated whenever the dependency table sweeps it.
type machineNode struct {
	// exactly one of the following is set
	lit      *context.Value
	symbol   ids.ID
	attr     *attrNode
	binary   *binaryNode
	unaryNeg *machineNode
}

type attrNode struct {
	kind context.AttrKind
	sym  ids.ID
}

type binaryNode struct {
	op          string
	left, right *machineNode
}

// Machine parses text as a machine expression against c's interner and
// returns it as a context.Expression, ready to hand to the dependency
// table.
func Machine(text string, c *context.Context) (context.Expression, error) {
	toks := NewLexer(text).TokenizeAll()
	p := &machineParser{toks: toks, ctx: c}
	node, err := p.parseExpr(0)
	if err != nil {
		return nil, err
	}
	if p.cur().Kind != TokEOF {
		return nil, fmt.Errorf("unexpected token %q in machine expression", p.cur().Text)
	}
	return &MachineExpr{root: node}, nil
}

type machineParser struct {
	toks []Token
	pos  int
	ctx  *context.Context
}

func (p *machineParser) cur() Token {
	if p.pos >= len(p.toks) {
		return Token{Kind: TokEOF}
	}
	return p.toks[p.pos]
}
func (p *machineParser) advance() { p.pos++ }

func (p *machineParser) parseExpr(minPrec int) (*machineNode, error) {
	left, err := p.parseUnary()
	if err != nil {
		return nil, err
	}
	for {
		tok := p.cur()
		if tok.Kind != TokOperator {
			break
		}
		prec := precedence(tok.Text)
		if prec == 0 || prec < minPrec {
			break
		}
		op := tok.Text
		p.advance()
		right, err := p.parseExpr(prec + 1)
		if err != nil {
			return nil, err
		}
		left = &machineNode{binary: &binaryNode{op: op, left: left, right: right}}
	}
	return left, nil
}

func (p *machineParser) parseUnary() (*machineNode, error) {
	tok := p.cur()
	if tok.Kind == TokOperator && (tok.Text == "+" || tok.Text == "-") {
		p.advance()
		inner, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		if tok.Text == "-" {
			return &machineNode{unaryNeg: inner}, nil
		}
		return inner, nil
	}
	return p.parsePrimary()
}

func (p *machineParser) parsePrimary() (*machineNode, error) {
	tok := p.cur()
	switch tok.Kind {
	case TokNumber:
		p.advance()
		v, err := strconv.ParseInt(tok.Text, 10, 32)
		if err != nil {
			return nil, err
		}
		val := context.Abs32(int32(v))
		return &machineNode{lit: &val}, nil

	case TokName:
		p.advance()
		return &machineNode{symbol: p.ctx.Intern(tok.Text)}, nil

	case TokAttr:
		attrLetter := tok.Text
		p.advance()
		if p.cur().Kind != TokString && p.cur().Kind != TokName {
			return nil, fmt.Errorf("expected symbol after attribute %s'", attrLetter)
		}
		symTok := p.cur()
		p.advance()
		symText := symTok.Text
		if symTok.Kind == TokString {
			symText = unquote(symText)
		}
		kind, err := attrKindOf(attrLetter)
		if err != nil {
			return nil, err
		}
		return &machineNode{attr: &attrNode{kind: kind, sym: p.ctx.Intern(symText)}}, nil

	case TokLParen:
		p.advance()
		inner, err := p.parseExpr(0)
		if err != nil {
			return nil, err
		}
		if p.cur().Kind != TokRParen {
			return nil, fmt.Errorf("expected ')' in machine expression")
		}
		p.advance()
		return inner, nil

	default:
		return nil, fmt.Errorf("unexpected token %q in machine expression", tok.Text)
	}
}

func attrKindOf(letter string) (context.AttrKind, error) {
	switch letter {
	case "L":
		return context.AttrLength, nil
	case "T":
		return context.AttrType, nil
	case "S":
		return context.AttrScale, nil
	case "I":
		return context.AttrInteger, nil
	case "P":
		return context.AttrProgramType, nil
	default:
		return 0, fmt.Errorf("unsupported attribute reference %s'", letter)
	}
}

func unquote(s string) string {
	if len(s) >= 2 && s[0] == '\'' && s[len(s)-1] == '\'' {
		s = s[1 : len(s)-1]
	}
	return s
}

// MachineExpr implements context.Expression over a parsed machineNode
// tree, deferring to the symbol table/dependency table for the
// not-yet-resolved symbols and attributes it references.
type MachineExpr struct {
	root *machineNode
}

func (m *MachineExpr) Dependencies(c *context.Context) []context.Dependant {
	var out []context.Dependant
	var walk func(n *machineNode)
	walk = func(n *machineNode) {
		switch {
		case !n.symbol.IsZero():
			if sym, ok := c.Symbols.Lookup(n.symbol); !ok || !sym.Defined {
				out = append(out, context.Dependant{Kind: context.DependantSymbol, Symbol: n.symbol})
			}
		case n.attr != nil:
			if sym, ok := c.Symbols.Lookup(n.attr.sym); !ok || !sym.Defined {
				out = append(out, context.Dependant{Kind: context.DependantAttribute, Attr: n.attr.kind, Symbol: n.attr.sym})
			}
		case n.binary != nil:
			walk(n.binary.left)
			walk(n.binary.right)
		case n.unaryNeg != nil:
			walk(n.unaryNeg)
		}
	}
	walk(m.root)
	return out
}

func (m *MachineExpr) Evaluate(c *context.Context, ec context.EvalContext) (context.Value, error) {
	return evalNode(c, m.root)
}

func evalNode(c *context.Context, n *machineNode) (context.Value, error) {
	switch {
	case n.lit != nil:
		return *n.lit, nil

	case !n.symbol.IsZero():
		sym, ok := c.Symbols.Lookup(n.symbol)
		if !ok || !sym.Defined {
			return context.Undefined, fmt.Errorf("undefined symbol %s", n.symbol)
		}
		return sym.Value, nil

	case n.attr != nil:
		sym, ok := c.Symbols.Lookup(n.attr.sym)
		if !ok || !sym.Defined {
			return context.Undefined, fmt.Errorf("undefined symbol %s", n.attr.sym)
		}
		switch n.attr.kind {
		case context.AttrLength:
			return context.Abs32(sym.L), nil
		case context.AttrScale:
			return context.Abs32(sym.S), nil
		case context.AttrInteger:
			return context.Abs32(sym.I), nil
		default:
			return context.Abs32(int32(sym.T)), nil
		}

	case n.unaryNeg != nil:
		v, err := evalNode(c, n.unaryNeg)
		if err != nil {
			return context.Undefined, err
		}
		return negate(v), nil

	case n.binary != nil:
		l, err := evalNode(c, n.binary.left)
		if err != nil {
			return context.Undefined, err
		}
		r, err := evalNode(c, n.binary.right)
		if err != nil {
			return context.Undefined, err
		}
		return applyBinary(n.binary.op, l, r)
	}
	return context.Undefined, fmt.Errorf("empty expression node")
}

func negate(v context.Value) context.Value {
	if v.Kind == context.ValueAbsolute {
		return context.Abs32(-v.Abs)
	}
	return context.Reloc32(v.Reloc.Negate())
}

// applyBinary implements §4.9's relocatable-arithmetic rules: two
// relocatables may only be subtracted (collapsing to absolute when they
// share a location counter), a relocatable and an absolute may be added
// or subtracted freely, and two absolutes combine as plain integers.
func applyBinary(op string, l, r context.Value) (context.Value, error) {
	switch op {
	case "+":
		switch {
		case l.Kind == context.ValueAbsolute && r.Kind == context.ValueAbsolute:
			return context.Abs32(l.Abs + r.Abs), nil
		case l.Kind == context.ValueAbsolute:
			return context.Reloc32(r.Reloc.AddAbs(l.Abs)), nil
		case r.Kind == context.ValueAbsolute:
			return context.Reloc32(l.Reloc.AddAbs(r.Abs)), nil
		default:
			return context.Undefined, fmt.Errorf("relocatable + relocatable is not a valid machine expression")
		}
	case "-":
		switch {
		case l.Kind == context.ValueAbsolute && r.Kind == context.ValueAbsolute:
			return context.Abs32(l.Abs - r.Abs), nil
		case r.Kind == context.ValueAbsolute:
			return context.Reloc32(l.Reloc.AddAbs(-r.Abs)), nil
		case l.Kind == context.ValueAbsolute:
			return context.Reloc32(r.Reloc.Negate().AddAbs(l.Abs)), nil
		default:
			diff := l.Reloc.Sub(r.Reloc)
			if !diff.IsAbsolute() {
				return context.Undefined, fmt.Errorf("%w", relocArithmeticErr{diff})
			}
			return context.Abs32(diff.Offset), nil
		}
	case "*":
		if l.Kind != context.ValueAbsolute || r.Kind != context.ValueAbsolute {
			return context.Undefined, fmt.Errorf("relocatable operand not valid in multiplication")
		}
		return context.Abs32(l.Abs * r.Abs), nil
	case "/":
		if l.Kind != context.ValueAbsolute || r.Kind != context.ValueAbsolute {
			return context.Undefined, fmt.Errorf("relocatable operand not valid in division")
		}
		if r.Abs == 0 {
			return context.Undefined, fmt.Errorf("division by zero")
		}
		return context.Abs32(l.Abs / r.Abs), nil
	default:
		return context.Undefined, fmt.Errorf("unsupported operator %q", op)
	}
}

type relocArithmeticErr struct{ complex context.Address }

func (e relocArithmeticErr) Error() string {
	return "complex relocatable arithmetic result"
}

// DiagnoseArithmetic translates an evaluation error produced by
// applyBinary into the E032 diagnostic when it stems from invalid
// relocatable arithmetic, for callers that want to report it themselves
// instead of letting it surface as a generic evaluation failure.
func DiagnoseArithmetic(loc source.Location, err error) (diag.Diagnostic, bool) {
	var re relocArithmeticErr
	if errors.As(err, &re) {
		return diag.New(loc.URI, loc.Range, diag.CodeRelocArithmetic, diag.SeverityError,
			"invalid relocatable address arithmetic: %s", err), true
	}
	return diag.Diagnostic{}, false
}
