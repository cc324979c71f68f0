package processors

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/eclipse-che4z/hlasm-analyzer-go/context"
	"github.com/eclipse-che4z/hlasm-analyzer-go/datadef"
	"github.com/eclipse-che4z/hlasm-analyzer-go/diag"
	"github.com/eclipse-che4z/hlasm-analyzer-go/expr"
	"github.com/eclipse-che4z/hlasm-analyzer-go/semantics"
)

// asmInstructions names the assembler (ordinary-assembly) instructions
// the ordinary processor drives directly rather than handing to
// Delegate: enough of §4.7's context (sections/location counters, USING,
// EQU, DC/DS) to resolve real source through the dependency table (§4.8)
// instead of only through context package's own unit tests.
var asmInstructions = map[string]bool{
	"EQU":   true,
	"DC":    true,
	"DS":    true,
	"CSECT": true, "DSECT": true, "RSECT": true, "COMMON": true, "START": true,
	"USING": true, "DROP": true,
	"ORG": true, "LTORG": true,
}

func (p *OrdinaryProcessor) processAsm(stmt *semantics.Statement, op string) Action {
	switch op {
	case "EQU":
		return p.processEqu(stmt)
	case "DC":
		return p.processData(stmt, true)
	case "DS":
		return p.processData(stmt, false)
	case "CSECT":
		return p.processSectionStart(stmt, context.SectionCSECT)
	case "DSECT":
		return p.processSectionStart(stmt, context.SectionDSECT)
	case "RSECT":
		return p.processSectionStart(stmt, context.SectionRSECT)
	case "COMMON":
		return p.processSectionStart(stmt, context.SectionCOMMON)
	case "START":
		return p.processStart(stmt)
	case "USING":
		return p.processUsing(stmt)
	case "DROP":
		return p.processDrop(stmt)
	case "ORG":
		return p.processOrg(stmt)
	case "LTORG":
		return p.processLtorg(stmt)
	}
	return Action{}
}

// processEqu implements EQU (§4.7): the label's value is the operand
// expression, resolved immediately if every symbol it references is
// already defined, or deferred through the dependency table (§4.8)
// otherwise, the same cycle-breaking AddDependency already provides for
// context_test.go's own scenarios. An optional second operand overrides
// the default length attribute of 1; it is only honored on the
// immediate-resolution path (a deferred EQU whose length also depends on
// a forward reference is not supported).
func (p *OrdinaryProcessor) processEqu(stmt *semantics.Statement) Action {
	label, ok := p.labelID(stmt)
	if !ok {
		return Action{Diagnostics: []diag.Diagnostic{p.diagAt(stmt, diag.CodeMalformedOperand, "EQU requires a label")}}
	}

	parts := splitOperandList(stmt.Operands.RawText)
	if len(parts) == 0 {
		return Action{Diagnostics: []diag.Diagnostic{p.diagAt(stmt, diag.CodeMalformedOperand, "EQU requires a value operand")}}
	}

	node, err := expr.Machine(parts[0], p.Ctx)
	if err != nil {
		return Action{Diagnostics: []diag.Diagnostic{p.diagAt(stmt, diag.CodeMalformedOperand, "%s", err)}}
	}

	length := int32(1)
	if len(parts) > 1 && strings.TrimSpace(parts[1]) != "" {
		if n, err := p.Eval.EvalA(parts[1]); err == nil {
			length = n
		}
	}

	target := context.Dependant{Kind: context.DependantSymbol, Symbol: label}

	if deps := node.Dependencies(p.Ctx); len(deps) == 0 {
		val, err := node.Evaluate(p.Ctx, p.Ctx.CaptureEvalContext())
		if err != nil {
			return Action{Diagnostics: []diag.Diagnostic{p.diagnoseEval(stmt, err)}}
		}
		if _, err := p.Ctx.Symbols.Define(label, val, length, 0, 1, 'U', ' ', stmt.Location()); err != nil {
			return Action{Diagnostics: []diag.Diagnostic{p.diagAt(stmt, diag.CodeDuplicateSymbol, "%s", err)}}
		}
		p.Ctx.Dependencies.AddDefined([]context.Dependant{target})
		return Action{}
	}

	resolved, diags := p.Ctx.Dependencies.AddDependency(target, node, stmt.Location(), p.Ctx.CaptureEvalContext())
	if !resolved {
		// AddDependency already defaulted target to break the cycle;
		// wake anything else waiting on it.
		p.Ctx.Dependencies.AddDefined([]context.Dependant{target})
	}
	return Action{Diagnostics: diags}
}

var addressConstantTypes = map[datadef.Type]bool{
	datadef.TypeA: true, datadef.TypeY: true, datadef.TypeS: true,
	datadef.TypeV: true, datadef.TypeQ: true,
}

// processData implements DC/DS (§4.10): each comma-separated operand
// parses via datadef.ParseOperand, advances the active location
// counter's offset past its own alignment padding and data bytes, and
// (for the statement's first operand only) gives the label an address at
// that operand's start and a length attribute equal to one element's
// byte length. DC additionally evaluates any forward-referencing
// expressions inside an address-constant's nominal value (A(L'L1), ...)
// so undefined-symbol and dependency-cycle diagnostics surface the same
// way EQU's do.
func (p *OrdinaryProcessor) processData(stmt *semantics.Statement, withNominal bool) Action {
	var diags []diag.Diagnostic
	label, hasLabel := p.labelID(stmt)
	labelBound := false

	for i, text := range splitOperandList(stmt.Operands.RawText) {
		op, err := datadef.ParseOperand(text, withNominal)
		if err != nil {
			diags = append(diags, p.diagAt(stmt, diag.CodeMalformedOperand, "%s", err))
			continue
		}

		length, err := p.elementLength(op)
		if err != nil {
			diags = append(diags, p.diagAt(stmt, diag.CodeMalformedOperand, "%s", err))
			continue
		}

		dup := int32(1)
		if op.DupFactor.Present {
			n, err := p.Eval.EvalA(op.DupFactor.Text)
			if err != nil {
				diags = append(diags, p.diagAt(stmt, diag.CodeCAArithmetic, "%s", err))
				continue
			}
			dup = n
		}

		loctr := p.Ctx.Sections.ActiveLoctr()
		if align := alignmentFor(op.Type); align > 1 {
			if pad := (align - loctr.Offset%align) % align; pad != 0 {
				loctr.Offset += pad
			}
		}
		start := loctr.Offset
		loctr.Offset += dup * length

		if i == 0 && hasLabel && !labelBound {
			labelBound = true
			addr := context.Address{Offset: start, Bases: []context.BaseTerm{context.NewSectionBase(loctr.Section, loctr, 1)}}
			if _, err := p.Ctx.Symbols.Define(label, context.Reloc32(addr), length, 0, 1, byte(op.Type), op.ProgramTyp, stmt.Location()); err != nil {
				diags = append(diags, p.diagAt(stmt, diag.CodeDuplicateSymbol, "%s", err))
			} else {
				p.Ctx.Dependencies.AddDefined([]context.Dependant{{Kind: context.DependantSymbol, Symbol: label}})
			}
		}

		if withNominal {
			diags = append(diags, p.processNominal(stmt, op)...)
		}
	}
	return Action{Diagnostics: diags}
}

// elementLength returns one element's byte length: an explicit L
// modifier if present (L.n is a bit length, rounded up to whole bytes),
// the type's fixed implicit length otherwise, or, for the string/packed-
// decimal types with no fixed-width table entry, a length derived from
// the nominal value's own text.
func (p *OrdinaryProcessor) elementLength(op datadef.Operand) (int32, error) {
	if op.Length.Present {
		n, err := p.Eval.EvalA(op.Length.Text)
		if err != nil {
			return 0, err
		}
		if op.Length.BitLen {
			return (n + 7) / 8, nil
		}
		return n, nil
	}
	if fixed, ok := datadef.ImplicitLength(op.Type); ok {
		return int32(fixed), nil
	}
	return nominalLength(op.Type, op.Nominal)
}

// nominalLength computes the implicit byte length of a DC nominal value
// for the type letters datadef.ImplicitLength leaves unfixed: C/X/B size
// from their own quoted text, P/Z from a packed/zoned decimal digit run.
func nominalLength(t datadef.Type, nominal string) (int32, error) {
	inner := unquoteNominal(nominal)
	switch t {
	case datadef.TypeC:
		return int32(len(strings.ReplaceAll(inner, "''", "'"))), nil
	case datadef.TypeX:
		return int32((len(inner) + 1) / 2), nil
	case datadef.TypeB:
		return int32((len(inner) + 7) / 8), nil
	case datadef.TypeP:
		return int32(len(inner)/2 + 1), nil
	case datadef.TypeZ:
		return int32(len(inner)), nil
	default:
		return 0, fmt.Errorf("type %c requires an explicit length", t)
	}
}

func unquoteNominal(nominal string) string {
	if len(nominal) >= 2 && nominal[0] == '\'' && nominal[len(nominal)-1] == '\'' {
		return nominal[1 : len(nominal)-1]
	}
	return nominal
}

// alignmentFor returns the boundary a DC/DS element must start on: its
// own implicit length for the fixed-width numeric/float types, one byte
// (no alignment requirement) otherwise, per §4.10. An explicit L modifier
// changes an element's byte length but never its alignment.
func alignmentFor(t datadef.Type) int32 {
	if n, ok := datadef.ImplicitLength(t); ok {
		return int32(n)
	}
	return 1
}

// processNominal evaluates an address-constant operand's parenthesized
// term list (A(SYM1,SYM2), A(L'L1), ...): a term already fully resolved
// evaluates right away, surfacing any relocatable-arithmetic error (§4.9);
// a term still waiting on a forward reference is registered with
// Postpone so it is revisited (and, if truly never resolved, defaulted)
// once the rest of the document has been seen (§4.8). Other nominal forms
// (plain quoted literals) carry no symbol references worth evaluating.
func (p *OrdinaryProcessor) processNominal(stmt *semantics.Statement, op datadef.Operand) []diag.Diagnostic {
	if !addressConstantTypes[op.Type] {
		return nil
	}
	inner := strings.TrimSpace(op.Nominal)
	if !strings.HasPrefix(inner, "(") || !strings.HasSuffix(inner, ")") {
		return nil
	}
	inner = inner[1 : len(inner)-1]

	var diags []diag.Diagnostic
	for _, term := range splitOperandList(inner) {
		node, err := expr.Machine(term, p.Ctx)
		if err != nil {
			diags = append(diags, p.diagAt(stmt, diag.CodeMalformedOperand, "%s", err))
			continue
		}
		if deps := node.Dependencies(p.Ctx); len(deps) > 0 {
			loc := stmt.Location()
			p.Ctx.Dependencies.Postpone(deps, func(c *context.Context) []diag.Diagnostic {
				if _, err := node.Evaluate(c, c.CaptureEvalContext()); err != nil {
					return []diag.Diagnostic{diag.New(loc.URI, loc.Range, diag.CodeMalformedOperand, diag.SeverityError, "%s", err)}
				}
				return nil
			})
			continue
		}
		if _, err := node.Evaluate(p.Ctx, p.Ctx.CaptureEvalContext()); err != nil {
			diags = append(diags, p.diagnoseEval(stmt, err))
		}
	}
	return diags
}

// processSectionStart implements CSECT/DSECT/RSECT/COMMON (§4.7): the
// label names the section, defining it at first use and resuming it on
// a later statement that names the same section again. The section name
// is also declared as an ordinary symbol, the way HLASM makes a control
// section's name usable in address expressions elsewhere.
func (p *OrdinaryProcessor) processSectionStart(stmt *semantics.Statement, kind context.SectionKind) Action {
	name, _ := p.labelID(stmt) // zero ID names the unnamed (default) CSECT

	sec, err := p.Ctx.Sections.Define(name, kind)
	if err != nil {
		return Action{Diagnostics: []diag.Diagnostic{p.diagAt(stmt, diag.CodeSectionConflict, "%s", err)}}
	}

	if name.IsZero() {
		return Action{}
	}
	if sym, ok := p.Ctx.Symbols.Lookup(name); ok && sym.Defined {
		return Action{}
	}
	loctr := sec.Active()
	addr := context.Address{Bases: []context.BaseTerm{context.NewSectionBase(sec, loctr, 1)}}
	if _, err := p.Ctx.Symbols.Define(name, context.Reloc32(addr), 1, 0, 1, 'J', ' ', stmt.Location()); err != nil {
		return Action{Diagnostics: []diag.Diagnostic{p.diagAt(stmt, diag.CodeDuplicateSymbol, "%s", err)}}
	}
	p.Ctx.Dependencies.AddDefined([]context.Dependant{{Kind: context.DependantSymbol, Symbol: name}})
	return Action{}
}

// processStart implements START (§4.7): like CSECT, but an optional
// operand sets the section's initial location-counter offset (the
// starting address HLASM otherwise assigns at link time).
func (p *OrdinaryProcessor) processStart(stmt *semantics.Statement) Action {
	act := p.processSectionStart(stmt, context.SectionCSECT)
	if len(act.Diagnostics) > 0 {
		return act
	}
	text := strings.TrimSpace(stmt.Operands.RawText)
	if text == "" {
		return act
	}
	n, err := p.Eval.EvalA(text)
	if err != nil {
		return Action{Diagnostics: append(act.Diagnostics, p.diagAt(stmt, diag.CodeMalformedOperand, "%s", err))}
	}
	p.Ctx.Sections.ActiveLoctr().Offset = n
	return act
}

// processUsing implements USING (§4.7): the first operand is the base
// address (a machine expression, typically a relocatable label), the
// rest name the covering registers, either as bare integers or as
// symbols already EQUated to a register number.
func (p *OrdinaryProcessor) processUsing(stmt *semantics.Statement) Action {
	parts := splitOperandList(stmt.Operands.RawText)
	if len(parts) < 2 {
		return Action{Diagnostics: []diag.Diagnostic{p.diagAt(stmt, diag.CodeInvalidUsing, "USING requires a base and at least one register")}}
	}

	node, err := expr.Machine(parts[0], p.Ctx)
	if err != nil {
		return Action{Diagnostics: []diag.Diagnostic{p.diagAt(stmt, diag.CodeMalformedOperand, "%s", err)}}
	}
	if deps := node.Dependencies(p.Ctx); len(deps) > 0 {
		return Action{Diagnostics: []diag.Diagnostic{p.diagAt(stmt, diag.CodeInvalidUsing, "USING base %s is not yet defined", parts[0])}}
	}
	val, err := node.Evaluate(p.Ctx, p.Ctx.CaptureEvalContext())
	if err != nil {
		return Action{Diagnostics: []diag.Diagnostic{p.diagnoseEval(stmt, err)}}
	}
	base := val.Reloc
	if val.Kind == context.ValueAbsolute {
		base = context.NewAbsolute(val.Abs)
	}

	var registers []int
	var diags []diag.Diagnostic
	for _, regText := range parts[1:] {
		r, err := p.registerNumber(regText)
		if err != nil {
			diags = append(diags, p.diagAt(stmt, diag.CodeInvalidRegister, "%s", err))
			continue
		}
		registers = append(registers, r)
	}
	if len(registers) == 0 {
		return Action{Diagnostics: diags}
	}

	label, _ := p.labelID(stmt)
	p.Ctx.Using.Add(label, base, registers, stmt.Range)
	return Action{Diagnostics: diags}
}

// processDrop implements DROP (§4.7): bare DROP clears every active
// USING; DROP reg,... clears only the named registers.
func (p *OrdinaryProcessor) processDrop(stmt *semantics.Statement) Action {
	text := strings.TrimSpace(stmt.Operands.RawText)
	if text == "" {
		p.Ctx.Using.Drop()
		return Action{}
	}
	var registers []int
	var diags []diag.Diagnostic
	for _, regText := range splitOperandList(text) {
		r, err := p.registerNumber(regText)
		if err != nil {
			diags = append(diags, p.diagAt(stmt, diag.CodeInvalidRegister, "%s", err))
			continue
		}
		registers = append(registers, r)
	}
	p.Ctx.Using.Drop(registers...)
	return Action{Diagnostics: diags}
}

// registerNumber resolves a USING/DROP register operand: a bare decimal
// integer, or a symbol (commonly EQUated, e.g. "R3 EQU 3") whose value is
// used as the register number.
func (p *OrdinaryProcessor) registerNumber(text string) (int, error) {
	text = strings.TrimSpace(text)
	if n, err := strconv.Atoi(text); err == nil {
		return n, nil
	}
	n, err := p.Eval.EvalA(text)
	if err != nil {
		return 0, fmt.Errorf("invalid register %q", text)
	}
	return int(n), nil
}

// processOrg implements ORG (§4.7): the operand, a machine expression
// (commonly a label plus/minus a displacement), sets the active location
// counter's offset directly. A blank ORG is accepted as a no-op; HLASM's
// "return to the highest point reached" form is not supported.
func (p *OrdinaryProcessor) processOrg(stmt *semantics.Statement) Action {
	text := strings.TrimSpace(stmt.Operands.RawText)
	if text == "" {
		return Action{}
	}
	node, err := expr.Machine(text, p.Ctx)
	if err != nil {
		return Action{Diagnostics: []diag.Diagnostic{p.diagAt(stmt, diag.CodeMalformedOperand, "%s", err)}}
	}
	if deps := node.Dependencies(p.Ctx); len(deps) > 0 {
		return Action{Diagnostics: []diag.Diagnostic{p.diagAt(stmt, diag.CodeMalformedOperand, "ORG operand %s is not yet defined", text)}}
	}
	val, err := node.Evaluate(p.Ctx, p.Ctx.CaptureEvalContext())
	if err != nil {
		return Action{Diagnostics: []diag.Diagnostic{p.diagnoseEval(stmt, err)}}
	}
	switch val.Kind {
	case context.ValueAbsolute:
		p.Ctx.Sections.ActiveLoctr().Offset = val.Abs
	case context.ValueRelocatable:
		p.Ctx.Sections.ActiveLoctr().Offset = val.Reloc.Offset
	}
	return Action{}
}

// processLtorg implements LTORG (§4.7): it flushes the pending literal
// pool and, in first-use order, aligns and advances the active location
// counter past each literal, resolving each literal's placeholder space
// to its byte length. The offset a literal lands at is not recorded.
func (p *OrdinaryProcessor) processLtorg(stmt *semantics.Statement) Action {
	var diags []diag.Diagnostic
	loctr := p.Ctx.Sections.ActiveLoctr()
	for _, lit := range p.Ctx.Literals.Flush() {
		text := strings.TrimPrefix(lit.Text, "=")
		op, err := datadef.ParseOperand(text, true)
		if err != nil {
			diags = append(diags, p.diagAt(stmt, diag.CodeMalformedOperand, "literal %s: %s", lit.Text, err))
			continue
		}
		length, err := p.elementLength(op)
		if err != nil {
			diags = append(diags, p.diagAt(stmt, diag.CodeMalformedOperand, "literal %s: %s", lit.Text, err))
			continue
		}
		if align := alignmentFor(op.Type); align > 1 {
			if pad := (align - loctr.Offset%align) % align; pad != 0 {
				loctr.Offset += pad
			}
		}
		if !lit.Addr.Resolved() {
			lit.Addr.ResolveToLength(length)
		}
		loctr.Offset += length
	}
	return Action{Diagnostics: diags}
}
