package propertytest

import (
	"fmt"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	hlasmcontext "github.com/eclipse-che4z/hlasm-analyzer-go/context"
	"github.com/eclipse-che4z/hlasm-analyzer-go/expr"
	"github.com/eclipse-che4z/hlasm-analyzer-go/source"
)

// setaNode is a random SETA arithmetic expression tree, evaluated twice:
// once natively in Go (the reference 32-bit two's-complement arithmetic
// the property checks against) and once rendered to text and run
// through expr.Evaluator.EvalA, HLASM's own evaluator.
type setaNode interface {
	eval() int32
	render() string
}

type litNode int32

func (n litNode) eval() int32    { return int32(n) }
func (n litNode) render() string { return strconv.Itoa(int(n)) }

type varNode struct {
	name string
	val  int32
}

func (n varNode) eval() int32    { return n.val }
func (n varNode) render() string { return "&" + n.name }

type binNode struct {
	op   byte
	l, r setaNode
}

func (n binNode) eval() int32 {
	l, r := n.l.eval(), n.r.eval()
	switch n.op {
	case '+':
		return l + r
	case '-':
		return l - r
	case '*':
		return l * r
	case '/':
		return l / r // r is generated nonzero
	default:
		panic("unreachable")
	}
}

func (n binNode) render() string {
	return fmt.Sprintf("(%s%c%s)", n.l.render(), n.op, n.r.render())
}

// genSetaNode builds a random expression tree up to depth levels deep,
// drawing leaves from vars (already bound A-type variables) plus random
// literals.
func genSetaNode(g *rng, vars []varNode, depth int) setaNode {
	if depth <= 0 || g.intn(3) == 0 {
		if len(vars) > 0 && g.bool() {
			return pick(g, vars)
		}
		return litNode(g.int32Range(-999, 999))
	}
	op := pick(g, []byte{'+', '-', '*', '/'})
	l := genSetaNode(g, vars, depth-1)
	if op == '/' {
		var r setaNode
		for {
			r = genSetaNode(g, vars, depth-1)
			if r.eval() != 0 {
				break
			}
		}
		return binNode{op: op, l: l, r: r}
	}
	r := genSetaNode(g, vars, depth-1)
	return binNode{op: op, l: l, r: r}
}

func TestSetaEvaluationMatchesReferenceArithmetic(t *testing.T) {
	uri := source.URI("test://seta.hlasm")

	for seed := uint64(0); seed < 40; seed++ {
		g := newRNG(seed)
		c := hlasmcontext.New(uri, hlasmcontext.ArchZ15)
		ev := expr.NewEvaluator(c)

		nvars := g.intn(4)
		vars := make([]varNode, nvars)
		for i := range vars {
			name := fmt.Sprintf("V%d", i)
			val := g.int32Range(-1000, 1000)
			id := c.Intern(name)
			v := c.Scopes.Declare(id, hlasmcontext.VarTypeA, source.Location{URI: uri})
			require.NoError(t, v.SetA(0, val))
			vars[i] = varNode{name: name, val: val}
		}

		tree := genSetaNode(g, vars, 3)
		want := tree.eval()
		text := tree.render()

		got, err := ev.EvalA(text)
		require.NoError(t, err, "seed %d: %s", seed, text)
		assert.Equal(t, want, got, "seed %d: %s", seed, text)
	}
}
