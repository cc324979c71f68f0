package expr

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/eclipse-che4z/hlasm-analyzer-go/context"
)

// CA expressions (SETA/SETB/SETC operands, and AIF/AGO/ACTR conditions)
// resolve immediately against the current variable scope: HLASM forbids
// forward references to SET symbols, so unlike machine expressions these
// never go through the dependency table (§4.9). Grounded on the same
// precedence-climbing shape as the machine evaluator, specialized to
// each of the three SET-symbol types.

// Evaluator resolves CA expressions against one context's active scope.
type Evaluator struct {
	Ctx *context.Context
}

func NewEvaluator(c *context.Context) *Evaluator { return &Evaluator{Ctx: c} }

func (e *Evaluator) lookupVar(name string) (*context.Variable, bool) {
	id, ok := e.Ctx.Interner.Lookup(strings.TrimPrefix(name, "&"))
	if !ok {
		return nil, false
	}
	return e.Ctx.Scopes.Lookup(id)
}

// EvalA evaluates an arithmetic (SETA) expression.
func (e *Evaluator) EvalA(text string) (int32, error) {
	p := &aParser{e: e, toks: NewLexer(text).TokenizeAll()}
	v, err := p.expr(0)
	if err != nil {
		return 0, err
	}
	if p.cur().Kind != TokEOF {
		return 0, fmt.Errorf("unexpected token %q in arithmetic expression", p.cur().Text)
	}
	return v, nil
}

type aParser struct {
	e    *Evaluator
	toks []Token
	pos  int
}

func (p *aParser) cur() Token {
	if p.pos >= len(p.toks) {
		return Token{Kind: TokEOF}
	}
	return p.toks[p.pos]
}
func (p *aParser) advance() { p.pos++ }

func (p *aParser) expr(minPrec int) (int32, error) {
	left, err := p.unary()
	if err != nil {
		return 0, err
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
		right, err := p.expr(prec + 1)
		if err != nil {
			return 0, err
		}
		left, err = applyAOp(op, left, right)
		if err != nil {
			return 0, err
		}
	}
	return left, nil
}

func applyAOp(op string, l, r int32) (int32, error) {
	switch op {
	case "+":
		return l + r, nil
	case "-":
		return l - r, nil
	case "*":
		return l * r, nil
	case "/":
		if r == 0 {
			return 0, fmt.Errorf("division by zero")
		}
		return l / r, nil
	default:
		return 0, fmt.Errorf("unsupported arithmetic operator %q", op)
	}
}

func (p *aParser) unary() (int32, error) {
	tok := p.cur()
	if tok.Kind == TokOperator && (tok.Text == "+" || tok.Text == "-") {
		p.advance()
		v, err := p.unary()
		if err != nil {
			return 0, err
		}
		if tok.Text == "-" {
			return -v, nil
		}
		return v, nil
	}
	return p.primary()
}

func (p *aParser) primary() (int32, error) {
	tok := p.cur()
	switch tok.Kind {
	case TokNumber:
		p.advance()
		v, err := strconv.ParseInt(tok.Text, 10, 32)
		return int32(v), err

	case TokVar:
		p.advance()
		v, ok := p.e.lookupVar(tok.Text)
		if !ok {
			return 0, fmt.Errorf("undefined SETA variable %s", tok.Text)
		}
		idx := 0
		if p.cur().Kind == TokLParen {
			p.advance()
			i, err := p.expr(0)
			if err != nil {
				return 0, err
			}
			if p.cur().Kind != TokRParen {
				return 0, fmt.Errorf("expected ')' after subscript")
			}
			p.advance()
			idx = int(i)
		}
		return v.GetA(idx), nil

	case TokName:
		p.advance()
		return p.callBuiltinA(tok.Text)

	case TokAttr:
		letter := tok.Text
		p.advance()
		if p.cur().Kind != TokVar {
			return 0, fmt.Errorf("expected variable after %s'", letter)
		}
		name := p.cur().Text
		p.advance()
		v, ok := p.e.lookupVar(name)
		if !ok {
			return 0, fmt.Errorf("undefined variable %s", name)
		}
		switch letter {
		case "K": // K'&V character count
			return int32(len(v.GetC(0))), nil
		case "N": // N'&V element count
			return int32(v.Count()), nil
		default:
			return 0, fmt.Errorf("unsupported attribute %s' in arithmetic expression", letter)
		}

	case TokLParen:
		p.advance()
		v, err := p.expr(0)
		if err != nil {
			return 0, err
		}
		if p.cur().Kind != TokRParen {
			return 0, fmt.Errorf("expected ')'")
		}
		p.advance()
		return v, nil

	default:
		return 0, fmt.Errorf("unexpected token %q in arithmetic expression", tok.Text)
	}
}

// callBuiltinA dispatches an A-type built-in function call: name(args).
func (p *aParser) callBuiltinA(name string) (int32, error) {
	name = strings.ToUpper(name)
	if p.cur().Kind != TokLParen {
		return 0, fmt.Errorf("unknown SETA operand %q", name)
	}
	p.advance()
	arg, err := p.readCString()
	if err != nil {
		return 0, err
	}
	if p.cur().Kind != TokRParen {
		return 0, fmt.Errorf("expected ')' after %s argument", name)
	}
	p.advance()

	switch name {
	case "C2D": // character string holding a decimal number, to its value
		v, err := strconv.ParseInt(strings.TrimSpace(arg), 10, 32)
		return int32(v), err
	case "X2D": // hex digit string to its decimal value
		v, err := strconv.ParseInt(arg, 16, 64)
		return int32(v), err
	case "DCLEN": // length of a character string
		return int32(len(arg)), nil
	case "FIND", "INDEX":
		return 0, fmt.Errorf("%s requires two arguments, not yet supported", name)
	default:
		return 0, fmt.Errorf("unknown SETA built-in %q", name)
	}
}

// readCString reads one C-type argument: either a quoted literal or a
// bare variable reference, for built-in function calls.
func (p *aParser) readCString() (string, error) {
	tok := p.cur()
	switch tok.Kind {
	case TokString:
		p.advance()
		return unquote(tok.Text), nil
	case TokVar:
		p.advance()
		v, ok := p.e.lookupVar(tok.Text)
		if !ok {
			return "", fmt.Errorf("undefined variable %s", tok.Text)
		}
		return v.GetC(0), nil
	default:
		return "", fmt.Errorf("expected string argument, got %q", tok.Text)
	}
}

// EvalB evaluates a logical (SETB) expression: relations (EQ/NE/LT/GT/
// LE/GE on arithmetic subexpressions) combined with AND/OR/NOT, plus
// bare '0'/'1' and variable references.
func (e *Evaluator) EvalB(text string) (bool, error) {
	p := &bParser{e: e, toks: NewLexer(text).TokenizeAll()}
	v, err := p.orExpr()
	if err != nil {
		return false, err
	}
	if p.cur().Kind != TokEOF {
		return false, fmt.Errorf("unexpected token %q in logical expression", p.cur().Text)
	}
	return v, nil
}

type bParser struct {
	e    *Evaluator
	toks []Token
	pos  int
}

func (p *bParser) cur() Token {
	if p.pos >= len(p.toks) {
		return Token{Kind: TokEOF}
	}
	return p.toks[p.pos]
}
func (p *bParser) advance() { p.pos++ }

func (p *bParser) orExpr() (bool, error) {
	left, err := p.andExpr()
	if err != nil {
		return false, err
	}
	for p.isKeyword("OR") {
		p.advance()
		right, err := p.andExpr()
		if err != nil {
			return false, err
		}
		left = left || right
	}
	return left, nil
}

func (p *bParser) andExpr() (bool, error) {
	left, err := p.notExpr()
	if err != nil {
		return false, err
	}
	for p.isKeyword("AND") {
		p.advance()
		right, err := p.notExpr()
		if err != nil {
			return false, err
		}
		left = left && right
	}
	return left, nil
}

func (p *bParser) notExpr() (bool, error) {
	if p.isKeyword("NOT") {
		p.advance()
		v, err := p.notExpr()
		return !v, err
	}
	return p.relExpr()
}

func (p *bParser) isKeyword(kw string) bool {
	tok := p.cur()
	return tok.Kind == TokName && strings.EqualFold(tok.Text, kw)
}

var relOps = map[string]func(a, b int32) bool{
	"EQ": func(a, b int32) bool { return a == b },
	"NE": func(a, b int32) bool { return a != b },
	"LT": func(a, b int32) bool { return a < b },
	"GT": func(a, b int32) bool { return a > b },
	"LE": func(a, b int32) bool { return a <= b },
	"GE": func(a, b int32) bool { return a >= b },
}

func (p *bParser) relExpr() (bool, error) {
	if p.cur().Kind == TokLParen {
		save := p.pos
		p.advance()
		v, err := p.orExpr()
		if err == nil && p.cur().Kind == TokRParen {
			p.advance()
			return v, nil
		}
		p.pos = save
	}
	ap := &aParser{e: p.e, toks: p.toks, pos: p.pos}
	left, err := ap.expr(0)
	if err != nil {
		// fall back to a bare 0/1 literal
		if p.cur().Kind == TokNumber && (p.cur().Text == "0" || p.cur().Text == "1") {
			v := p.cur().Text == "1"
			p.advance()
			return v, nil
		}
		return false, err
	}
	p.pos = ap.pos

	if p.cur().Kind == TokName {
		op := strings.ToUpper(p.cur().Text)
		if fn, ok := relOps[op]; ok {
			p.advance()
			ap2 := &aParser{e: p.e, toks: p.toks, pos: p.pos}
			right, err := ap2.expr(0)
			if err != nil {
				return false, err
			}
			p.pos = ap2.pos
			return fn(left, right), nil
		}
	}
	return left != 0, nil
}

// EvalC evaluates a character (SETC) expression: a concatenation of
// quoted literals and variable substitutions (substring notation
// &VAR(start,len) included), no arithmetic.
func (e *Evaluator) EvalC(text string) (string, error) {
	p := &cParser{e: e, toks: NewLexer(text).TokenizeAll()}
	return p.concat()
}

type cParser struct {
	e    *Evaluator
	toks []Token
	pos  int
}

func (p *cParser) cur() Token {
	if p.pos >= len(p.toks) {
		return Token{Kind: TokEOF}
	}
	return p.toks[p.pos]
}
func (p *cParser) advance() { p.pos++ }

func (p *cParser) concat() (string, error) {
	var sb strings.Builder
	for {
		tok := p.cur()
		switch tok.Kind {
		case TokEOF:
			return sb.String(), nil
		case TokString:
			sb.WriteString(unquote(tok.Text))
			p.advance()
		case TokVar:
			p.advance()
			v, ok := p.e.lookupVar(tok.Text)
			if !ok {
				return "", fmt.Errorf("undefined SETC variable %s", tok.Text)
			}
			full := v.GetC(0)
			if p.cur().Kind == TokLParen {
				// One parenthesized argument is an array subscript; two
				// (comma-separated) is substring notation. Try substring
				// first and fall back to a plain subscript.
				save := p.pos
				if s, l, err := p.substring(); err == nil {
					full = substr(v.GetC(0), s, l)
				} else {
					p.pos = save
					p.advance()
					ap := &aParser{e: p.e, toks: p.toks, pos: p.pos}
					i, err := ap.expr(0)
					if err != nil {
						return "", err
					}
					p.pos = ap.pos
					if p.cur().Kind != TokRParen {
						return "", fmt.Errorf("expected ')' after subscript")
					}
					p.advance()
					full = v.GetC(int(i))
				}
			}
			sb.WriteString(full)
		case TokName:
			sb.WriteString(tok.Text)
			p.advance()
		default:
			sb.WriteString(tok.Text)
			p.advance()
		}
	}
}

// substring parses "(start,len)" after a variable reference.
func (p *cParser) substring() (start, length int, err error) {
	p.advance() // (
	ap := &aParser{e: p.e, toks: p.toks, pos: p.pos}
	s, err := ap.expr(0)
	if err != nil {
		return 0, 0, err
	}
	p.pos = ap.pos
	if p.cur().Kind != TokComma {
		return 0, 0, fmt.Errorf("expected ',' in substring notation")
	}
	p.advance()
	ap2 := &aParser{e: p.e, toks: p.toks, pos: p.pos}
	l, err := ap2.expr(0)
	if err != nil {
		return 0, 0, err
	}
	p.pos = ap2.pos
	if p.cur().Kind != TokRParen {
		return 0, 0, fmt.Errorf("expected ')' in substring notation")
	}
	p.advance()
	return int(s), int(l), nil
}

func substr(s string, start, length int) string {
	if start < 1 {
		return ""
	}
	begin := start - 1
	if begin >= len(s) {
		return ""
	}
	end := begin + length
	if end > len(s) {
		end = len(s)
	}
	return s[begin:end]
}
