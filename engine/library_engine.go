package engine

import (
	"fmt"
	"strings"

	"github.com/eclipse-che4z/hlasm-analyzer-go/context"
	"github.com/eclipse-che4z/hlasm-analyzer-go/parser"
	"github.com/eclipse-che4z/hlasm-analyzer-go/processors"
	"github.com/eclipse-che4z/hlasm-analyzer-go/source"
)

// libraryEngine implements library.Engine: it turns a resolved member's
// raw text into the parsed shape the processing manager registers.
// Parsing runs against the calling analysis's own *context.Context
// (specifically its Interner) rather than a fresh one, because a macro
// body's parameter names and the variable-scope bindings
// processing.Manager.invokeMacro creates at call time must resolve to
// the same ids.ID values — ids.ID is only comparable within the
// Interner that minted it (§ids), so a member parsed against a
// different interner would never match its own parameters once
// invoked.
type libraryEngine struct {
	ctx *context.Context
}

// ParseCopyMember parses a COPY member's text into the statement body
// providers.CopyProvider replays (§4.12).
func (e *libraryEngine) ParseCopyMember(uri source.URI, text string) ([]context.MacroStatement, error) {
	p := parser.New(e.ctx)
	stmts, _ := p.Parse(uri, text)

	out := make([]context.MacroStatement, len(stmts))
	for i, s := range stmts {
		out[i] = s
	}
	return out, nil
}

// ParseMacroMember parses a macro library member's text — a leading
// "MACRO" header statement, the prototype, the body, and a trailing
// MEND — into a *context.Macro (§4.12's autocall). This mirrors the
// manager's own MACRO-triggered handoff to
// processors.MacroDefinitionProcessor, but runs it directly over the
// member's statements instead of through the full provider stack,
// since a library member has no COPY/AGO/AIF of its own to schedule
// around before MACRO is reached.
func (e *libraryEngine) ParseMacroMember(uri source.URI, text string) (*context.Macro, error) {
	p := parser.New(e.ctx)
	stmts, _ := p.Parse(uri, text)

	start := 0
	for start < len(stmts) && strings.TrimSpace(stmts[start].Instruction.Text) == "" {
		start++
	}
	if start >= len(stmts) || strings.ToUpper(stmts[start].Instruction.Text) != "MACRO" {
		return nil, fmt.Errorf("macro member %s does not begin with MACRO", uri)
	}

	def := processors.NewMacroDefinitionProcessor(e.ctx)
	for _, stmt := range stmts[start+1:] {
		act := def.Process(stmt)
		if act.Kind == processors.ActionFinishProcessor && act.Macro != nil {
			return &context.Macro{
				Name:       e.ctx.Intern(act.Macro.Name),
				Positional: act.Macro.Positional,
				Keyword:    act.Macro.Keyword,
				Body:       act.Macro.Body,
				DefLoc:     stmt.Location(),
			}, nil
		}
	}
	return nil, fmt.Errorf("macro member %s: MACRO with no matching MEND", uri)
}
