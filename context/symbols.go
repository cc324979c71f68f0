package context

import (
	"fmt"

	"github.com/eclipse-che4z/hlasm-analyzer-go/ids"
	"github.com/eclipse-che4z/hlasm-analyzer-go/source"
)

// ValueKind discriminates the Value sum type (§3).
type ValueKind int

const (
	ValueUndefined ValueKind = iota
	ValueAbsolute
	ValueRelocatable
)

// Value is exactly one of absolute, relocatable, or undefined.
type Value struct {
	Kind    ValueKind
	Abs     int32
	Reloc   Address
}

// Undefined is the zero Value.
var Undefined = Value{Kind: ValueUndefined}

// Abs32 wraps an absolute integer.
func Abs32(v int32) Value { return Value{Kind: ValueAbsolute, Abs: v} }

// Reloc32 wraps a relocatable address.
func Reloc32(a Address) Value {
	if a.IsAbsolute() {
		return Abs32(a.Offset)
	}
	return Value{Kind: ValueRelocatable, Reloc: a}
}

func (v Value) String() string {
	switch v.Kind {
	case ValueAbsolute:
		return fmt.Sprintf("%d", v.Abs)
	case ValueRelocatable:
		return fmt.Sprintf("reloc(%+d)", v.Reloc.Offset)
	default:
		return "<undefined>"
	}
}

// OrdinarySymbol is a label defined by appearing in the label field or
// via EQU (§3). Attributes L/T/S/I/P are the assembler attributes; N/O/K
// are derived on demand from the symbol's defining context rather than
// stored.
type OrdinarySymbol struct {
	Name ids.ID

	L int32 // length attribute
	T byte  // type attribute, one letter ('U' = unknown)
	S int32 // scale attribute
	I int32 // integer attribute
	P byte  // program type attribute

	Defined bool
	Value   Value
	DefLoc  source.Location
}

// SymbolTable owns all ordinary symbols for one analysis.
type SymbolTable struct {
	symbols map[ids.ID]*OrdinarySymbol
	order   []ids.ID
}

func newSymbolTable() *SymbolTable {
	return &SymbolTable{symbols: make(map[ids.ID]*OrdinarySymbol)}
}

// Declare ensures a (possibly still-undefined) entry exists for name,
// returning the existing one if already present. Used when a forward
// reference is seen before the symbol's defining statement.
func (t *SymbolTable) Declare(name ids.ID) *OrdinarySymbol {
	if s, ok := t.symbols[name]; ok {
		return s
	}
	s := &OrdinarySymbol{Name: name, T: 'U'}
	t.symbols[name] = s
	t.order = append(t.order, name)
	return s
}

// Lookup returns the symbol for name, if any.
func (t *SymbolTable) Lookup(name ids.ID) (*OrdinarySymbol, bool) {
	s, ok := t.symbols[name]
	return s, ok
}

// Define assigns sym's value and attributes exactly once. A second call
// for an already-defined symbol is a duplicate-symbol error (§3), which
// the caller reports as diag.CodeDuplicateSymbol; the value is left
// unchanged so existing dependents are unaffected.
func (t *SymbolTable) Define(name ids.ID, val Value, l, s, i int32, typ, prog byte, loc source.Location) (*OrdinarySymbol, error) {
	sym := t.Declare(name)
	if sym.Defined {
		return sym, fmt.Errorf("symbol %s already defined at %s", name, sym.DefLoc)
	}
	sym.Value = val
	sym.L, sym.S, sym.I, sym.T, sym.P = l, s, i, typ, prog
	sym.Defined = true
	sym.DefLoc = loc
	return sym, nil
}

// All returns symbols in definition order.
func (t *SymbolTable) All() []*OrdinarySymbol {
	out := make([]*OrdinarySymbol, 0, len(t.order))
	for _, n := range t.order {
		out = append(out, t.symbols[n])
	}
	return out
}
