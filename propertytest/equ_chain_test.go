package propertytest

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	hlasmcontext "github.com/eclipse-che4z/hlasm-analyzer-go/context"
	"github.com/eclipse-che4z/hlasm-analyzer-go/source"
)

func loc(uri source.URI) source.Location {
	return source.Location{URI: uri}
}

// forwardSumExpr is EQU's deferred form: "Sn EQU S(n+1)+offset" (§4.8,
// scenario 1). It depends on one not-yet-defined symbol and, once that
// symbol is defined, evaluates by reading its actual resolved value
// rather than a value baked in ahead of time, so a passing chain
// genuinely exercises AddDefined's cascading resolution rather than
// just replaying pre-computed constants.
type forwardSumExpr struct {
	dep    hlasmcontext.Dependant
	offset int32
}

func (e *forwardSumExpr) Dependencies(c *hlasmcontext.Context) []hlasmcontext.Dependant {
	if sym, ok := c.Symbols.Lookup(e.dep.Symbol); ok && sym.Defined {
		return nil
	}
	return []hlasmcontext.Dependant{e.dep}
}

func (e *forwardSumExpr) Evaluate(c *hlasmcontext.Context, ec hlasmcontext.EvalContext) (hlasmcontext.Value, error) {
	sym, ok := c.Symbols.Lookup(e.dep.Symbol)
	if !ok || !sym.Defined {
		return hlasmcontext.Undefined, fmt.Errorf("%s not yet defined", e.dep.Symbol)
	}
	return hlasmcontext.Abs32(sym.Value.Abs + e.offset), nil
}

// buildEquChain generates a forward-reference EQU chain of length n:
// S0 EQU S1+c0, S1 EQU S2+c1, ..., S(n-2) EQU S(n-1)+c(n-2), with
// S(n-1) defined directly from a literal. It also computes the values
// a straightforward right-to-left interpreter would produce, the
// reference this property checks the cascading dependency table
// against.
func buildEquChain(g *rng, c *hlasmcontext.Context, n int) (ids []hlasmcontext.Dependant, offsets []int32, want []int32) {
	ids = make([]hlasmcontext.Dependant, n)
	for i := 0; i < n; i++ {
		ids[i] = hlasmcontext.Dependant{Kind: hlasmcontext.DependantSymbol, Symbol: c.Intern(fmt.Sprintf("S%d", i))}
	}

	offsets = make([]int32, n-1)
	for i := range offsets {
		offsets[i] = g.int32Range(-9, 9)
	}

	want = make([]int32, n)
	want[n-1] = g.int32Range(0, 99)
	for i := n - 2; i >= 0; i-- {
		want[i] = want[i+1] + offsets[i]
	}
	return ids, offsets, want
}

func TestEquForwardChainMatchesReferenceInterpreter(t *testing.T) {
	uri := source.URI("test://chain.hlasm")

	for seed := uint64(0); seed < 30; seed++ {
		g := newRNG(seed)
		n := 2 + g.intn(12) // chains of length 2..13

		c := hlasmcontext.New(uri, hlasmcontext.ArchZ15)
		symbols, offsets, want := buildEquChain(g, c, n)

		for i := 0; i < n-1; i++ {
			ok, diags := c.Dependencies.AddDependency(
				symbols[i],
				&forwardSumExpr{dep: symbols[i+1], offset: offsets[i]},
				loc(uri), c.CaptureEvalContext(),
			)
			require.True(t, ok, "seed %d: step %d must not close a cycle", seed, i)
			assert.Empty(t, diags, "seed %d: step %d", seed, i)
		}

		last := symbols[n-1].Symbol
		_, err := c.Symbols.Define(last, hlasmcontext.Abs32(want[n-1]), 1, 0, 1, 'U', ' ', loc(uri))
		require.NoError(t, err, "seed %d", seed)
		c.Dependencies.AddDefined([]hlasmcontext.Dependant{symbols[n-1]})

		assert.Equal(t, 0, c.Dependencies.Pending(), "seed %d: the chain must fully resolve", seed)

		for i, w := range want {
			sym, ok := c.Symbols.Lookup(symbols[i].Symbol)
			require.True(t, ok, "seed %d: %s never declared", seed, symbols[i].Symbol)
			require.True(t, sym.Defined, "seed %d: %s left undefined", seed, symbols[i].Symbol)
			assert.Equal(t, w, sym.Value.Abs, "seed %d: symbol index %d", seed, i)
		}
	}
}
