package context

import (
	"fmt"

	"github.com/eclipse-che4z/hlasm-analyzer-go/ids"
	"github.com/eclipse-che4z/hlasm-analyzer-go/source"
)

// MacroParam is one positional or keyword parameter of a macro
// prototype. Keyword parameters carry a default model-statement text
// (empty string if the prototype gave none).
type MacroParam struct {
	Name     ids.ID
	Keyword  bool
	Default  string
}

// MacroStatement is the minimal shape the context package needs from a
// cached macro-body statement: enough to replay it without depending on
// the semantics/parser packages (which themselves depend on context).
// The processors package supplies the concrete semantics.Statement and
// satisfies this via a thin wrapper.
type MacroStatement interface {
	RawText() string
	Location() source.Location
}

// Macro is a cached macro definition (§3): prototype plus pre-parsed
// body, replayed with variable substitution at each invocation.
type Macro struct {
	Name       ids.ID
	Positional []MacroParam
	Keyword    []MacroParam
	Body       []MacroStatement
	DefLoc     source.Location
}

// MacroTable owns all macro definitions visible to the analysis.
type MacroTable struct {
	macros map[ids.ID]*Macro
}

func newMacroTable() *MacroTable {
	return &MacroTable{macros: make(map[ids.ID]*Macro)}
}

// Define registers a macro. Redefining an existing user macro is legal
// in HLASM (the later definition wins) as long as it is not currently
// being expanded; that recursion check belongs to the processing
// manager, not this table.
func (t *MacroTable) Define(m *Macro) { t.macros[m.Name] = m }

// Lookup returns the macro definition for name, if any.
func (t *MacroTable) Lookup(name ids.ID) (*Macro, bool) {
	m, ok := t.macros[name]
	return m, ok
}

// BindArgs matches positional and keyword call-site arguments against a
// macro's prototype, returning parameter name -> argument text. Missing
// keyword arguments fall back to their prototype default.
func (t *Macro) BindArgs(positional []string, keyword map[ids.ID]string) (map[ids.ID]string, error) {
	if len(positional) > len(t.Positional) {
		return nil, fmt.Errorf("macro %s: too many positional operands (%d given, %d expected)",
			t.Name, len(positional), len(t.Positional))
	}
	bound := make(map[ids.ID]string, len(t.Positional)+len(t.Keyword))
	for i, p := range t.Positional {
		if i < len(positional) {
			bound[p.Name] = positional[i]
		} else {
			bound[p.Name] = ""
		}
	}
	for _, p := range t.Keyword {
		if v, ok := keyword[p.Name]; ok {
			bound[p.Name] = v
		} else {
			bound[p.Name] = p.Default
		}
	}
	for name := range keyword {
		if _, ok := bound[name]; !ok {
			return nil, fmt.Errorf("macro %s: unknown keyword operand %s", t.Name, name)
		}
	}
	return bound, nil
}
