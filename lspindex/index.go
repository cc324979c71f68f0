// Package lspindex builds the occurrence/definition/hover tables an LSP
// server needs (C11): the label definition of each observed statement
// (ordinary, sequence, or variable symbol), macro call-site and
// definition info, and per-statement hit counts for coverage-style
// highlighting. Symbol references in operands are not recorded. It attaches
// to a processing run as an observer rather than owning any processing
// state itself.
//
// Grounded on the teacher's tools/xref.go (symbol definition/reference
// table construction) generalized from ARM labels/`.equ` constants to
// HLASM's three symbol kinds, and vm/coverage.go (per-address execution
// counters) generalized from per-instruction-address counts to
// per-statement-location hit counts.
package lspindex

import (
	"sort"

	"github.com/samber/lo"

	"github.com/eclipse-che4z/hlasm-analyzer-go/context"
	"github.com/eclipse-che4z/hlasm-analyzer-go/ids"
	"github.com/eclipse-che4z/hlasm-analyzer-go/semantics"
	"github.com/eclipse-che4z/hlasm-analyzer-go/source"
)

// OccurrenceKind classifies one recorded appearance of a name.
type OccurrenceKind int

const (
	OccOrdinaryDefinition OccurrenceKind = iota
	OccOrdinaryReference
	OccSequenceDefinition
	OccSequenceReference
	OccVariableDefinition
	OccVariableReference
	OccMacroCall
	OccMacroDefinition
)

func (k OccurrenceKind) String() string {
	switch k {
	case OccOrdinaryDefinition:
		return "ordinary-definition"
	case OccOrdinaryReference:
		return "ordinary-reference"
	case OccSequenceDefinition:
		return "sequence-definition"
	case OccSequenceReference:
		return "sequence-reference"
	case OccVariableDefinition:
		return "variable-definition"
	case OccVariableReference:
		return "variable-reference"
	case OccMacroCall:
		return "macro-call"
	case OccMacroDefinition:
		return "macro-definition"
	default:
		return "unknown"
	}
}

// Occurrence is one recorded appearance of a name at a location.
type Occurrence struct {
	Kind OccurrenceKind
	Name ids.ID
	Loc  source.Location
}

// MacroInfo tracks one macro's definition site and every call site seen
// during the run, mirroring xref.go's Symbol.IsFunction/References shape.
type MacroInfo struct {
	Name      ids.ID
	DefLoc    source.Location
	CallSites []source.Location
}

// VarDef tracks one SET-symbol's declaration and assignment count,
// enough for hover text ("&X, type A, set 3 times").
type VarDef struct {
	Name     ids.ID
	Type     context.VarType
	Global   bool
	DefLoc   source.Location
	SetCount int
}

// HitCount is one statement location's execution-equivalent visit
// count, generalized from CoverageEntry's address/cycle fields to a
// source location and a plain counter (analysis has no "cycle").
type HitCount struct {
	Loc   source.Location
	Count uint64
}

type hitKey struct {
	uri  source.URI
	line int
}

// Index accumulates occurrences, macro info, variable definitions, and
// hit counts as statements are observed. Not safe for concurrent
// observation; the processing engine driving it is single-threaded (§5).
type Index struct {
	Ctx *context.Context

	occurrences []Occurrence
	macros      map[ids.ID]*MacroInfo
	vars        map[ids.ID]*VarDef
	hits        map[hitKey]*HitCount
}

// New creates an empty index bound to c for variable-type lookups.
func New(c *context.Context) *Index {
	return &Index{
		Ctx:    c,
		macros: make(map[ids.ID]*MacroInfo),
		vars:   make(map[ids.ID]*VarDef),
		hits:   make(map[hitKey]*HitCount),
	}
}

// Observe records one processed statement's symbol occurrences and hit
// count. Matches processing.Manager.AfterStatement's signature so it
// can be installed directly, or composed with another hook via Compose;
// it never asks to suspend.
func (idx *Index) Observe(stmt *semantics.Statement, frame *context.Frame) bool {
	if stmt.EvaluatedFromModel {
		// A model statement already recorded occurrences when its
		// defining macro body statement was first observed; the
		// instantiated copy would only duplicate them (§4.11).
		return false
	}

	idx.recordHit(stmt)
	idx.recordLabel(stmt)
	idx.recordMacroCall(stmt)

	return false
}

func (idx *Index) recordHit(stmt *semantics.Statement) {
	k := hitKey{uri: stmt.URI, line: stmt.Range.Start.Line}
	if h, ok := idx.hits[k]; ok {
		h.Count++
		return
	}
	idx.hits[k] = &HitCount{Loc: source.Location{URI: stmt.URI, Range: stmt.Range}, Count: 1}
}

func (idx *Index) recordLabel(stmt *semantics.Statement) {
	loc := source.Location{URI: stmt.URI, Range: stmt.Label.Range}
	switch stmt.Label.Kind {
	case semantics.LabelOrdinary:
		idx.occurrences = append(idx.occurrences, Occurrence{Kind: OccOrdinaryDefinition, Name: stmt.Label.Name, Loc: loc})
	case semantics.LabelSequence:
		idx.occurrences = append(idx.occurrences, Occurrence{Kind: OccSequenceDefinition, Name: stmt.Label.Name, Loc: loc})
	case semantics.LabelVariable:
		idx.occurrences = append(idx.occurrences, Occurrence{Kind: OccVariableDefinition, Name: stmt.Label.Name, Loc: loc})
	}
}

// recordMacroCall tracks macro invocations via the context macro table
// (§4.4): an instruction name resolving to a user macro is a call, not
// an ordinary instruction.
func (idx *Index) recordMacroCall(stmt *semantics.Statement) {
	if idx.Ctx == nil || stmt.Instruction.Kind != semantics.InstructionOrdinary {
		return
	}
	name := stmt.Instruction.Name
	macro, ok := idx.Ctx.Macros.Lookup(name)
	if !ok {
		return
	}
	loc := source.Location{URI: stmt.URI, Range: stmt.Instruction.Range}
	idx.occurrences = append(idx.occurrences, Occurrence{Kind: OccMacroCall, Name: name, Loc: loc})

	info, ok := idx.macros[name]
	if !ok {
		info = &MacroInfo{Name: name, DefLoc: macro.DefLoc}
		idx.macros[name] = info
	}
	info.CallSites = append(info.CallSites, loc)
}

// RecordMacroDefinition records a macro's prototype location. Observe
// does not call it; the caller supplies each definition explicitly.
func (idx *Index) RecordMacroDefinition(name ids.ID, defLoc source.Location) {
	idx.occurrences = append(idx.occurrences, Occurrence{Kind: OccMacroDefinition, Name: name, Loc: defLoc})
	info, ok := idx.macros[name]
	if !ok {
		info = &MacroInfo{Name: name, DefLoc: defLoc}
		idx.macros[name] = info
		return
	}
	info.DefLoc = defLoc
}

// RecordVarDef records a SET-symbol declaration or assignment, counting
// assignments so hover text can report how many times a variable
// changed. Observe does not call it; the caller supplies each one.
func (idx *Index) RecordVarDef(name ids.ID, t context.VarType, global bool, loc source.Location, isAssignment bool) {
	v, ok := idx.vars[name]
	if !ok {
		v = &VarDef{Name: name, Type: t, Global: global, DefLoc: loc}
		idx.vars[name] = v
	}
	if isAssignment {
		v.SetCount++
	}
}

// Definition returns the definition occurrence for name, if recorded.
func (idx *Index) Definition(name ids.ID) (source.Location, bool) {
	for _, occ := range idx.occurrences {
		if occ.Name != name {
			continue
		}
		switch occ.Kind {
		case OccOrdinaryDefinition, OccSequenceDefinition, OccVariableDefinition, OccMacroDefinition:
			return occ.Loc, true
		}
	}
	return source.Location{}, false
}

// References returns every reference occurrence (not the definition)
// for name, in source order.
func (idx *Index) References(name ids.ID) []source.Location {
	var refs []source.Location
	for _, occ := range idx.occurrences {
		if occ.Name != name {
			continue
		}
		switch occ.Kind {
		case OccOrdinaryReference, OccSequenceReference, OccVariableReference, OccMacroCall:
			refs = append(refs, occ.Loc)
		}
	}
	return refs
}

// Macro returns the recorded info for a macro name.
func (idx *Index) Macro(name ids.ID) (*MacroInfo, bool) {
	m, ok := idx.macros[name]
	return m, ok
}

// Var returns the recorded variable-definition info for a SET symbol.
func (idx *Index) Var(name ids.ID) (*VarDef, bool) {
	v, ok := idx.vars[name]
	return v, ok
}

// HitCountAt returns the hit count for the statement starting at line
// in uri, if any statement was observed there.
func (idx *Index) HitCountAt(uri source.URI, line int) (uint64, bool) {
	h, ok := idx.hits[hitKey{uri: uri, line: line}]
	if !ok {
		return 0, false
	}
	return h.Count, true
}

// AllHits returns every recorded hit count, sorted by URI then line,
// the shape a coverage-highlighting LSP client would render.
func (idx *Index) AllHits() []HitCount {
	out := make([]HitCount, 0, len(idx.hits))
	for _, h := range idx.hits {
		out = append(out, *h)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Loc.URI != out[j].Loc.URI {
			return out[i].Loc.URI < out[j].Loc.URI
		}
		return out[i].Loc.Range.Start.Line < out[j].Loc.Range.Start.Line
	})
	return out
}

// MostCalledMacros returns macro names ranked by call-site count,
// most-called first; n <= 0 returns all of them.
func (idx *Index) MostCalledMacros(n int) []*MacroInfo {
	all := lo.Values(idx.macros)
	sort.Slice(all, func(i, j int) bool { return len(all[i].CallSites) > len(all[j].CallSites) })
	if n > 0 && n < len(all) {
		return all[:n]
	}
	return all
}

// OccurrencesInFile returns every occurrence recorded in uri, in
// source order, deduplicated in case the same location was recorded
// twice (e.g. a relisted copy member).
func (idx *Index) OccurrencesInFile(uri source.URI) []Occurrence {
	matches := lo.Filter(idx.occurrences, func(o Occurrence, _ int) bool { return o.Loc.URI == uri })
	return lo.UniqBy(matches, func(o Occurrence) source.Range { return o.Loc.Range })
}

// Compose combines several AfterStatement-shaped hooks into one: every
// hook runs (so observers like this index keep recording even while a
// debugger is also attached), and the combined hook asks to suspend if
// any of them did.
func Compose(hooks ...func(*semantics.Statement, *context.Frame) bool) func(*semantics.Statement, *context.Frame) bool {
	return func(stmt *semantics.Statement, frame *context.Frame) bool {
		suspend := false
		for _, h := range hooks {
			if h == nil {
				continue
			}
			if h(stmt, frame) {
				suspend = true
			}
		}
		return suspend
	}
}
