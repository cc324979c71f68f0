// Package processors implements the four statement-processing state
// machines of §4.4: ordinary, macro-definition, lookahead, and
// copy-definition. Grounded on the teacher's fetch-decode-execute
// dispatch loop (vm/executor.go's per-instruction Step), generalized
// from CPU instruction execution to HLASM statement interpretation: each
// Processor consumes one semantics.Statement and returns an Action
// telling the processing manager (C5) what state transition, if any, to
// perform.
package processors

import (
	"github.com/eclipse-che4z/hlasm-analyzer-go/context"
	"github.com/eclipse-che4z/hlasm-analyzer-go/diag"
	"github.com/eclipse-che4z/hlasm-analyzer-go/ids"
	"github.com/eclipse-che4z/hlasm-analyzer-go/semantics"
)

// ActionKind discriminates the Action sum type.
type ActionKind int

const (
	ActionNone ActionKind = iota
	ActionStartLookahead
	ActionStartMacroDefinition
	ActionStartCopyMember
	ActionFinishProcessor
	// ActionInvokeMacro requests a macro call: Target names the macro,
	// Operands carries its unparsed operand field for the manager to
	// split into positional/keyword arguments and bind (§4.6).
	ActionInvokeMacro
)

// Action is what a processor asks the manager to do after consuming one
// statement, per §4.4's "process(statement) which may request
// start_lookahead, start_macro_definition, start_copy_member,
// finish_processor" vocabulary.
type Action struct {
	Kind   ActionKind
	Target ids.ID // sequence symbol (lookahead), member name (copy), or macro name (invoke)

	// Operands is the raw operand text of an ActionInvokeMacro request.
	Operands string

	// Macro is populated by MacroDefinitionProcessor on
	// ActionFinishProcessor: the completed definition to register.
	Macro *MacroDefResult

	// CopyBody is populated by CopyDefinitionProcessor on
	// ActionFinishProcessor: the resolved member's statement list.
	CopyBody []context.MacroStatement

	Diagnostics []diag.Diagnostic
}

// Processor consumes one statement and reports what should happen next.
type Processor interface {
	Process(stmt *semantics.Statement) Action
}
