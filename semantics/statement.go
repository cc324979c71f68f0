// Package semantics defines the statement model produced by the parser
// (C1): label, instruction, operand, and remark fields, plus the model-
// statement concatenation form used inside macro bodies.
package semantics

import (
	"github.com/eclipse-che4z/hlasm-analyzer-go/ids"
	"github.com/eclipse-che4z/hlasm-analyzer-go/source"
)

// LabelKind classifies the label field.
type LabelKind int

const (
	LabelNone LabelKind = iota
	LabelOrdinary
	LabelSequence // .NAME
	LabelVariable // &V
	LabelModel    // concatenation containing variable references
)

// Label is the parsed label field.
type Label struct {
	Kind  LabelKind
	Name  ids.ID // valid for Ordinary/Sequence/Variable
	Text  string // raw text, used for Model labels and for display
	Range source.Range
}

// InstructionKind classifies the instruction field.
type InstructionKind int

const (
	InstructionOrdinary InstructionKind = iota
	InstructionVariable
	InstructionModel
)

// Instruction is the parsed instruction (opcode) field.
type Instruction struct {
	Kind  InstructionKind
	Name  ids.ID
	Text  string
	Range source.Range
}

// OperandField is either deferred (kept as raw text for late parsing, per
// §4.1) or fully parsed, depending on the owning instruction's class.
type OperandField struct {
	Deferred bool
	RawText  string
	Operands []Operand
	Range    source.Range
}

// Operand is one fully-parsed operand (only meaningful when the owning
// OperandField is not Deferred).
type Operand struct {
	Text  string
	Range source.Range
}

// Statement is one logical-line statement: the unit the processing
// pipeline consumes (§4.1).
type Statement struct {
	Label       Label
	Instruction Instruction
	Operands    OperandField
	Remark      string
	RemarkRange source.Range

	URI     source.URI
	Range   source.Range
	RawLine string

	// EvaluatedFromModel marks a statement instantiated from a macro
	// model statement after variable substitution, so the LSP analyzer
	// (C11) does not double-count the raw model form (§4.11).
	EvaluatedFromModel bool
}

// RawText satisfies context.MacroStatement, letting a cached Statement
// serve as a macro/copy body entry without the context package needing
// to import semantics (which would create a cycle, since semantics may
// eventually need ids from context-adjacent packages).
func (s *Statement) RawText() string { return s.RawLine }

// Location satisfies context.MacroStatement.
func (s *Statement) Location() source.Location {
	return source.Location{URI: s.URI, Range: s.Range}
}
