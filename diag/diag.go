// Package diag implements the diagnostic taxonomy of §7: syntax, semantic,
// warning, attribute, machine-operand, CA-expression, library, and bridge
// diagnostics, each carrying a stable code for LSP-client compatibility.
package diag

import (
	"fmt"
	"strings"

	"github.com/eclipse-che4z/hlasm-analyzer-go/source"
)

// Severity mirrors the LSP DiagnosticSeverity scale.
type Severity int

const (
	SeverityError Severity = iota + 1
	SeverityWarning
	SeverityInfo
	SeverityHint
)

func (s Severity) String() string {
	switch s {
	case SeverityError:
		return "error"
	case SeverityWarning:
		return "warning"
	case SeverityInfo:
		return "info"
	case SeverityHint:
		return "hint"
	default:
		return "unknown"
	}
}

// Code is a stable diagnostic code, e.g. "E033", "CE004", "M010".
// Codes are preserved verbatim from the original HLASM language server so
// existing LSP clients keep working (Open Question, DESIGN.md).
type Code string

// Well-known codes referenced directly by spec.md's testable properties
// and error-handling design.
const (
	CodeDuplicateSymbol  Code = "E010"
	CodeUndefinedSymbol  Code = "E011"
	CodeSectionConflict  Code = "E015"
	CodeInvalidUsing     Code = "E044"
	CodeSequenceNotFound Code = "E047"
	CodeCopyMemberNotFnd Code = "E049"
	CodeActrExhausted    Code = "E056"
	CodeStatementLimit   Code = "E077"
	CodeOpsynConflict    Code = "E025"
	CodeDependencyCycle  Code = "E033"
	CodeLoctrSpaceCycle  Code = "E053"
	CodeSysndxCeiling    Code = "E072"
	CodeRelocArithmetic  Code = "E032"
	CodeUnalignedDC      Code = "W011"
	CodeUnrecognizedOpt  Code = "W001"
	CodeCAArithmetic     Code = "CE004"
	CodeCATypeMismatch   Code = "CE017"
	CodeLibraryLoad      Code = "L0001"
	CodeLibraryNotFound  Code = "L0002"
	CodeLibraryConflict  Code = "L0004"
	CodeOperandCount     Code = "M010"
	CodeInvalidRegister  Code = "M011"
	CodeInvalidAddress   Code = "M012"
	CodeMalformedOperand Code = "M013"
	CodeBridgeConfig     Code = "B4G001"
	CodeMnote            Code = "MNOTE"
	CodeInactiveFade     Code = "F_IN001"
	CodeSuppressed       Code = "SUP"
	CodeCrash            Code = "CRASH"
)

// Tag mirrors the LSP DiagnosticTag enum.
type Tag int

const (
	TagUnnecessary Tag = iota + 1
	TagDeprecated
)

// RelatedInfo attaches a secondary location/message to a diagnostic, used
// to render the macro/copy processing-stack chain for a reported error.
type RelatedInfo struct {
	Location source.Location
	Message  string
}

// Diagnostic is one finding, keyed to a document range.
type Diagnostic struct {
	URI      source.URI
	Range    source.Range
	Code     Code
	Severity Severity
	Message  string
	Related  []RelatedInfo
	Tags     []Tag
}

func (d Diagnostic) String() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "%s:%s: %s %s: %s", d.URI, d.Range, d.Severity, d.Code, d.Message)
	for _, r := range d.Related {
		fmt.Fprintf(&sb, "\n    %s: %s", r.Location, r.Message)
	}
	return sb.String()
}

// New builds a Diagnostic with no related info or tags.
func New(uri source.URI, rng source.Range, code Code, sev Severity, format string, args ...any) Diagnostic {
	return Diagnostic{
		URI:      uri,
		Range:    rng,
		Code:     code,
		Severity: sev,
		Message:  fmt.Sprintf(format, args...),
	}
}

// WithRelated returns a copy of d with related info appended.
func (d Diagnostic) WithRelated(loc source.Location, message string) Diagnostic {
	d.Related = append(append([]RelatedInfo{}, d.Related...), RelatedInfo{Location: loc, Message: message})
	return d
}

// WithTag returns a copy of d with tag appended.
func (d Diagnostic) WithTag(tag Tag) Diagnostic {
	d.Tags = append(append([]Tag{}, d.Tags...), tag)
	return d
}

// Collector accumulates diagnostics in processing order, the ordering
// guarantee required by §5.
type Collector struct {
	items []Diagnostic
}

// Add appends d to the collector.
func (c *Collector) Add(d Diagnostic) { c.items = append(c.items, d) }

// All returns the diagnostics collected so far, in processing order.
func (c *Collector) All() []Diagnostic { return c.items }

// Len reports how many diagnostics have been collected.
func (c *Collector) Len() int { return len(c.items) }
