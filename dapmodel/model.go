// Package dapmodel defines the Go-side shapes a Debug Adapter Protocol
// front end would serialize for a macro-level step debugging session:
// stack frames, variable scopes, and variables. Building and sending
// the actual DAP wire messages (StackTrace, Scopes, Variables
// responses) is an external adapter's job; this package only converts
// engine state (context.Frame, context.Variable, macrodbg.Breakpoint/
// Watchpoint) into the shapes such an adapter would serialize,
// mirroring the way the teacher's service package turns vm/debugger
// state into JSON-tagged DTOs ahead of its own HTTP/WS layer.
package dapmodel

import (
	"fmt"

	"github.com/eclipse-che4z/hlasm-analyzer-go/context"
	"github.com/eclipse-che4z/hlasm-analyzer-go/macrodbg"
)

// StackFrame is one entry in a DAP StackTraceResponse, corresponding to
// one context.Frame: open code, or a macro/copy-member invocation.
type StackFrame struct {
	ID     int    `json:"id"`
	Name   string `json:"name"`
	URI    string `json:"uri"`
	Line   int    `json:"line"`   // 1-based, per DAP convention
	Column int    `json:"column"` // 1-based
}

// Scope is one entry in a DAP ScopesResponse: the locals of the active
// macro invocation, or the shared globals.
type Scope struct {
	Name               string `json:"name"`
	VariablesReference int    `json:"variablesReference"`
	Expensive          bool   `json:"expensive"`
}

// Variable is one entry in a DAP VariablesResponse.
type Variable struct {
	Name  string `json:"name"`
	Value string `json:"value"`
	Type  string `json:"type"` // "A", "B", or "C"
}

// StackTrace converts a frame chain (innermost first, as returned by
// context.Frame.Chain) into DAP stack frames. Frame IDs are assigned
// by position in the chain: ordinarily stable across calls on the same
// paused frame, since Chain's order never changes between pauses of
// the same statement.
func StackTrace(frame *context.Frame) []StackFrame {
	chain := frame.Chain()
	out := make([]StackFrame, len(chain))
	for i, f := range chain {
		name := "open code"
		if !f.Member.IsZero() {
			name = f.Member.String()
		}
		out[i] = StackFrame{
			ID:     i,
			Name:   name,
			URI:    string(f.URI),
			Line:   f.Position.Line + 1,
			Column: f.Position.Column + 1,
		}
	}
	return out
}

// Scopes returns the standard two-scope listing (locals, globals) for
// a paused frame. VariablesReference values are opaque handles an
// adapter would map back to Variables(scopes, ...) calls; here they are
// just fixed small integers distinguishing the two scopes.
func Scopes() []Scope {
	return []Scope{
		{Name: "Locals", VariablesReference: 1, Expensive: false},
		{Name: "Globals", VariablesReference: 2, Expensive: false},
	}
}

// Variables lists the variables of one scope (scopeRef from Scopes):
// 1 for locals, 2 for globals.
func Variables(scopes *context.ScopeStack, scopeRef int) []Variable {
	var vars []*context.Variable
	switch scopeRef {
	case 1:
		vars = scopes.Locals()
	case 2:
		vars = scopes.Globals()
	default:
		return nil
	}

	out := make([]Variable, len(vars))
	for i, v := range vars {
		out[i] = Variable{Name: v.Name.String(), Value: displayValue(v), Type: v.Type.String()}
	}
	return out
}

func displayValue(v *context.Variable) string {
	switch v.Type {
	case context.VarTypeA:
		return fmt.Sprintf("%d", v.GetA(0))
	case context.VarTypeB:
		if v.GetB(0) {
			return "1"
		}
		return "0"
	default:
		return v.GetC(0)
	}
}

// BreakpointDTO is the wire shape for a breakpoint, mirroring the
// teacher's service.BreakpointInfo with the CPU address replaced by an
// HLASM source location or sequence symbol.
type BreakpointDTO struct {
	ID        int    `json:"id"`
	URI       string `json:"uri"`
	Line      int    `json:"line"`
	SeqSymbol string `json:"seqSymbol"`
	Enabled   bool   `json:"enabled"`
	Condition string `json:"condition"`
}

// ToBreakpointDTO converts engine breakpoint state into its wire shape.
func ToBreakpointDTO(b *macrodbg.Breakpoint) BreakpointDTO {
	return BreakpointDTO{
		ID:        b.ID,
		URI:       b.URI,
		Line:      b.Line,
		SeqSymbol: b.SeqSymbol,
		Enabled:   b.Enabled,
		Condition: b.Condition,
	}
}

// WatchpointDTO is the wire shape for a watchpoint, mirroring the
// teacher's service.WatchpointInfo with the memory address/access type
// replaced by a CA expression.
type WatchpointDTO struct {
	ID         int    `json:"id"`
	Expression string `json:"expression"`
	Enabled    bool   `json:"enabled"`
	LastValue  string `json:"lastValue"`
}

// ToWatchpointDTO converts engine watchpoint state into its wire shape.
func ToWatchpointDTO(w *macrodbg.Watchpoint) WatchpointDTO {
	return WatchpointDTO{ID: w.ID, Expression: w.Expression, Enabled: w.Enabled, LastValue: w.LastValue}
}
