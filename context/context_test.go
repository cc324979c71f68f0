package context

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eclipse-che4z/hlasm-analyzer-go/ids"
	"github.com/eclipse-che4z/hlasm-analyzer-go/source"
)

func loc(c *Context) source.Location {
	return source.Location{URI: "test://t.hlasm"}
}

// constExpr is a minimal Expression used by the dependency-table tests:
// it depends on a fixed set of not-yet-defined symbols and evaluates to
// a constant once they resolve.
type constExpr struct {
	deps []Dependant
	val  Value
}

func (e *constExpr) Dependencies(c *Context) []Dependant {
	var out []Dependant
	for _, d := range e.deps {
		if d.Kind == DependantSymbol {
			if sym, ok := c.Symbols.Lookup(d.Symbol); ok && sym.Defined {
				continue
			}
		}
		out = append(out, d)
	}
	return out
}

func (e *constExpr) Evaluate(c *Context, ec EvalContext) (Value, error) { return e.val, nil }

func TestSymbolTableDuplicateDefinition(t *testing.T) {
	c := New("test://t.hlasm", ArchZ15)
	a := c.Intern("A")

	_, err := c.Symbols.Define(a, Abs32(1), 1, 0, 1, 'U', ' ', loc(c))
	require.NoError(t, err)

	_, err = c.Symbols.Define(a, Abs32(2), 1, 0, 1, 'U', ' ', loc(c))
	assert.Error(t, err, "a symbol must not be assigned twice")

	sym, _ := c.Symbols.Lookup(a)
	assert.Equal(t, int32(1), sym.Value.Abs, "the first assignment wins")
}

func TestDependencyForwardReference(t *testing.T) {
	// A EQU B+1 ; B EQU 2  (scenario 1, §8)
	c := New("test://t.hlasm", ArchZ15)
	a := c.Intern("A")
	b := c.Intern("B")

	ok, diags := c.Dependencies.AddDependency(
		Dependant{Kind: DependantSymbol, Symbol: a},
		&constExpr{deps: []Dependant{{Kind: DependantSymbol, Symbol: b}}, val: Abs32(3)},
		loc(c), c.CaptureEvalContext(),
	)
	require.True(t, ok)
	assert.Empty(t, diags)
	assert.Equal(t, 1, c.Dependencies.Pending())

	_, err := c.Symbols.Define(b, Abs32(2), 1, 0, 1, 'U', ' ', loc(c))
	require.NoError(t, err)
	c.Dependencies.AddDefined([]Dependant{{Kind: DependantSymbol, Symbol: b}})

	symA, ok := c.Symbols.Lookup(a)
	require.True(t, ok)
	assert.True(t, symA.Defined)
	assert.Equal(t, int32(3), symA.Value.Abs)
	assert.Equal(t, 0, c.Dependencies.Pending())
}

func TestDependencyCycleBreaksWithDefault(t *testing.T) {
	// A EQU B ; B EQU A (scenario 3, §8)
	c := New("test://t.hlasm", ArchZ15)
	a := c.Intern("A")
	b := c.Intern("B")

	ok, _ := c.Dependencies.AddDependency(
		Dependant{Kind: DependantSymbol, Symbol: b},
		&constExpr{deps: []Dependant{{Kind: DependantSymbol, Symbol: a}}, val: Abs32(0)},
		loc(c), c.CaptureEvalContext(),
	)
	require.True(t, ok)

	ok, diags := c.Dependencies.AddDependency(
		Dependant{Kind: DependantSymbol, Symbol: a},
		&constExpr{deps: []Dependant{{Kind: DependantSymbol, Symbol: b}}, val: Abs32(0)},
		loc(c), c.CaptureEvalContext(),
	)
	assert.False(t, ok, "adding a dependency that closes a cycle must fail")
	require.Len(t, diags, 1)
	assert.Equal(t, "E033", string(diags[0].Code))

	symA, ok := c.Symbols.Lookup(a)
	require.True(t, ok)
	assert.True(t, symA.Defined, "the cycle-breaking default still defines the symbol")
	assert.Equal(t, int32(0), symA.Value.Abs)
}

func TestAddressCanonicalizationAndSameLocationCounter(t *testing.T) {
	sec, err := (newSectionTable()).Define(ids.ID{}, SectionCSECT)
	_ = err
	loctr := sec.Active()
	base := NewSectionBase(sec, loctr, 1)

	a := Address{Offset: 10, Bases: []BaseTerm{base}}
	b := Address{Offset: 4, Bases: []BaseTerm{base}}

	assert.True(t, a.InSameLocationCounter(b))

	sum := a.Add(NewAbsolute(5))
	assert.Equal(t, int32(15), sum.Offset)
	assert.True(t, sum.Simple())

	diff := a.Sub(b)
	assert.True(t, diff.IsAbsolute(), "rel - rel in the same loctr collapses to absolute")
	assert.Equal(t, int32(6), diff.Offset)
}
