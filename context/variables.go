package context

import (
	"fmt"

	"github.com/eclipse-che4z/hlasm-analyzer-go/ids"
	"github.com/eclipse-che4z/hlasm-analyzer-go/source"
)

// VarType is one of the three CA variable-symbol primitive types (§3).
type VarType int

const (
	VarTypeA VarType = iota // 32-bit signed arithmetic
	VarTypeB                // bit (0/1)
	VarTypeC                // character string, up to 4064 chars
)

func (t VarType) String() string {
	switch t {
	case VarTypeA:
		return "A"
	case VarTypeB:
		return "B"
	case VarTypeC:
		return "C"
	default:
		return "?"
	}
}

// MaxCharLength is the longest value a C-type variable symbol may hold.
const MaxCharLength = 4064

// Variable is a SET symbol: scalar or array, local to the current macro
// scope or global across all scopes.
type Variable struct {
	Name   ids.ID
	Type   VarType
	Global bool
	DefLoc source.Location

	// scalar holds index 0 for a non-subscripted variable; arrayed
	// variables use whatever indices have been assigned. HLASM arrays
	// are effectively sparse: SETA N'&V,1 can create index 1 directly.
	values map[int]any
}

func newVariable(name ids.ID, t VarType, global bool, loc source.Location) *Variable {
	return &Variable{Name: name, Type: t, Global: global, DefLoc: loc, values: make(map[int]any)}
}

// SetA stores an A-type value at index (0 for scalar).
func (v *Variable) SetA(index int, val int32) error {
	if v.Type != VarTypeA {
		return fmt.Errorf("variable %s is not type A", v.Name)
	}
	v.values[index] = val
	return nil
}

// SetB stores a B-type value at index.
func (v *Variable) SetB(index int, val bool) error {
	if v.Type != VarTypeB {
		return fmt.Errorf("variable %s is not type B", v.Name)
	}
	v.values[index] = val
	return nil
}

// SetC stores a C-type value at index.
func (v *Variable) SetC(index int, val string) error {
	if v.Type != VarTypeC {
		return fmt.Errorf("variable %s is not type C", v.Name)
	}
	if len(val) > MaxCharLength {
		return fmt.Errorf("value for %s exceeds %d characters", v.Name, MaxCharLength)
	}
	v.values[index] = val
	return nil
}

// GetA returns the A-type value at index, defaulting to 0.
func (v *Variable) GetA(index int) int32 {
	if val, ok := v.values[index]; ok {
		return val.(int32)
	}
	return 0
}

// GetB returns the B-type value at index, defaulting to false.
func (v *Variable) GetB(index int) bool {
	if val, ok := v.values[index]; ok {
		return val.(bool)
	}
	return false
}

// GetC returns the C-type value at index, defaulting to "".
func (v *Variable) GetC(index int) string {
	if val, ok := v.values[index]; ok {
		return val.(string)
	}
	return ""
}

// Count returns N' for the variable: 1 while no element has been
// assigned, otherwise the highest assigned index (0 for a scalar that
// holds a value at index 0).
func (v *Variable) Count() int {
	if len(v.values) == 0 {
		return 1
	}
	max := 0
	for idx := range v.values {
		if idx > max {
			max = idx
		}
	}
	return max
}

// Scope is one level of the variable scope stack: a macro invocation's
// local variables, or (at the bottom) open code's locals. GBLx-declared
// names resolve through to the shared global table instead of locals.
type Scope struct {
	MacroName ids.ID // zero at the open-code (outermost) scope
	locals    map[ids.ID]*Variable
	globalRef map[ids.ID]bool // names declared GBLx in this scope
}

func newScope(macroName ids.ID) *Scope {
	return &Scope{MacroName: macroName, locals: make(map[ids.ID]*Variable), globalRef: make(map[ids.ID]bool)}
}

// ScopeStack is the stack of active variable scopes; the top is active.
// The bottom-most scope (open code) is never popped during analysis.
type ScopeStack struct {
	stack   []*Scope
	globals map[ids.ID]*Variable
}

func newScopeStack() *ScopeStack {
	s := &ScopeStack{globals: make(map[ids.ID]*Variable)}
	s.stack = []*Scope{newScope(ids.ID{})}
	return s
}

// Push enters a new macro scope.
func (s *ScopeStack) Push(macroName ids.ID) *Scope {
	sc := newScope(macroName)
	s.stack = append(s.stack, sc)
	return sc
}

// Pop leaves the current macro scope. Popping the open-code scope panics;
// callers must never unbalance MACRO/MEND against the initial scope.
func (s *ScopeStack) Pop() {
	if len(s.stack) <= 1 {
		panic("context: cannot pop the open-code variable scope")
	}
	s.stack = s.stack[:len(s.stack)-1]
}

// Top returns the active scope.
func (s *ScopeStack) Top() *Scope { return s.stack[len(s.stack)-1] }

// Depth returns the macro nesting depth (SYSNEST), 0 at open code.
func (s *ScopeStack) Depth() int { return len(s.stack) - 1 }

// Declare creates a local variable in the active scope. Re-declaring an
// existing local of a different type is a caller-checked error.
func (s *ScopeStack) Declare(name ids.ID, t VarType, loc source.Location) *Variable {
	top := s.Top()
	v := newVariable(name, t, false, loc)
	top.locals[name] = v
	return v
}

// DeclareGlobal links name in the active scope to the shared global
// table, creating the global entry with type t if it does not yet
// exist. If it exists with a different type, E025 should be raised by
// the caller (opcode/CA processing layer), per §4.6; this method reports
// that mismatch via the returned ok flag.
func (s *ScopeStack) DeclareGlobal(name ids.ID, t VarType, loc source.Location) (v *Variable, ok bool) {
	top := s.Top()
	top.globalRef[name] = true
	if existing, found := s.globals[name]; found {
		return existing, existing.Type == t
	}
	v = newVariable(name, t, true, loc)
	s.globals[name] = v
	return v, true
}

// Lookup resolves name in the active scope: locals first, then (if
// declared GBLx here) the shared global table.
func (s *ScopeStack) Lookup(name ids.ID) (*Variable, bool) {
	top := s.Top()
	if v, ok := top.locals[name]; ok {
		return v, true
	}
	if top.globalRef[name] {
		if v, ok := s.globals[name]; ok {
			return v, true
		}
	}
	return nil, false
}

// Locals returns the active scope's locally-declared variables, for a
// debugger's scope listing. Order is unspecified.
func (s *ScopeStack) Locals() []*Variable {
	top := s.Top()
	out := make([]*Variable, 0, len(top.locals))
	for _, v := range top.locals {
		out = append(out, v)
	}
	return out
}

// Globals returns every GBLx variable declared anywhere so far, for a
// debugger's global scope listing. Order is unspecified.
func (s *ScopeStack) Globals() []*Variable {
	out := make([]*Variable, 0, len(s.globals))
	for _, v := range s.globals {
		out = append(out, v)
	}
	return out
}
