// Package engine wires the pipeline stages (C1–C12) together into the
// single "analyze one open-code document" operation: parse, run the
// processing manager to completion (resolving COPY/macro members
// through a library resolver, checking machine operands, indexing
// symbols for LSP consumers, and collecting statistics), and hand back
// the diagnostics and index produced along the way. Grounded on the
// teacher's cmd/main.go driving vm.NewVM + vm.Execute end to end for
// one program; this is the same shape generalized from "run a program"
// to "analyze a source file".
package engine

import (
	"context"
	"fmt"

	hlasmcontext "github.com/eclipse-che4z/hlasm-analyzer-go/context"
	"github.com/eclipse-che4z/hlasm-analyzer-go/diag"
	"github.com/eclipse-che4z/hlasm-analyzer-go/library"
	"github.com/eclipse-che4z/hlasm-analyzer-go/lspindex"
	"github.com/eclipse-che4z/hlasm-analyzer-go/machinecheck"
	"github.com/eclipse-che4z/hlasm-analyzer-go/parser"
	"github.com/eclipse-che4z/hlasm-analyzer-go/processing"
	"github.com/eclipse-che4z/hlasm-analyzer-go/processors"
	"github.com/eclipse-che4z/hlasm-analyzer-go/providers"
	"github.com/eclipse-che4z/hlasm-analyzer-go/report"
	"github.com/eclipse-che4z/hlasm-analyzer-go/semantics"
	"github.com/eclipse-che4z/hlasm-analyzer-go/source"
)

// Options configures one analysis run.
type Options struct {
	Arch hlasmcontext.Architecture

	// LibraryDirs are searched, in order, for COPY members and macro
	// autocall (§4.12). Nil means source carries every macro/copy
	// member it needs inline.
	LibraryDirs []*library.Directory

	// MaxStatements overrides the runaway-assembly guard (§4.5); zero
	// keeps processing.Manager's default.
	MaxStatements int64

	// AfterStatement, if set, is consulted alongside the result's own
	// symbol-index recording (via lspindex.Compose): package macrodbg
	// installs this to drive a step debugger session over the same run.
	AfterStatement func(stmt *semantics.Statement, frame *hlasmcontext.Frame) bool
}

// Result is everything one analysis run produced.
type Result struct {
	Ctx        *hlasmcontext.Context
	Index      *lspindex.Index
	Diagnostics []diag.Diagnostic
	Stats      *report.Statistics
	Suspension processing.Suspension
}

// Session is a built-but-not-yet-run (or partially run) analysis: the
// pieces Analyze assembles before calling Manager.Resume to
// completion. package analysisapi and a macrodbg.Debugger instead hold
// onto a Session across many Resume calls, so a long-lived session can
// be stepped, breakpointed, and queried between individual WebSocket
// messages rather than run start-to-finish in one call.
type Session struct {
	Ctx           *hlasmcontext.Context
	Manager       *processing.Manager
	Index         *lspindex.Index
	Stats         *report.Statistics
	LibResolver   *library.Resolver
	parseDiags    []diag.Diagnostic
}

// Prepare builds a Session without running it: parsing uri/text and
// wiring the processing manager's collaborators (machine-operand
// checking, library autocall, symbol indexing, statistics), stopping
// short of the first Manager.Resume call. Analyze is Prepare followed
// by one Resume to completion; callers that need to pause mid-run
// (the debug-session API, the macro-level step debugger) call Prepare
// once and then drive Manager.Resume themselves.
func Prepare(uri source.URI, text string, opts Options) *Session {
	arch := opts.Arch
	if arch == "" {
		arch = hlasmcontext.ArchZ15
	}
	c := hlasmcontext.New(uri, arch)

	p := parser.New(c)
	doc, parseDiags := parser.NewDocument(p, uri, text)

	idx := lspindex.New(c)
	stats := report.NewStatistics()
	stats.Enabled = true
	stats.Start()

	root := providers.NewOpenCodeProvider(doc)

	var resolver processors.MemberResolver
	var macroResolver *library.Resolver
	if len(opts.LibraryDirs) > 0 {
		macroResolver = library.NewResolver(&libraryEngine{ctx: c}, opts.LibraryDirs...)
		resolver = macroResolver
	}

	mgr := processing.NewManager(c, root, resolver)
	if opts.MaxStatements > 0 {
		mgr.MaxStatements = opts.MaxStatements
	}
	mgr.Delegate(machinecheck.Delegate)
	if macroResolver != nil {
		mgr.AutocallMacro(macroResolver.ResolveMacro)
	}

	statsHook := func(stmt *semantics.Statement, frame *hlasmcontext.Frame) bool {
		stats.RecordStatement(processorKind(stmt))
		if stmt.Instruction.Kind == semantics.InstructionOrdinary {
			if _, ok := c.Macros.Lookup(stmt.Instruction.Name); ok {
				stats.RecordMacroCall(stmt.Instruction.Text)
			}
		}
		stats.RecordSysndx(c.Sysndx)
		return false
	}

	hooks := []func(*semantics.Statement, *hlasmcontext.Frame) bool{idx.Observe, statsHook}
	if opts.AfterStatement != nil {
		hooks = append(hooks, opts.AfterStatement)
	}
	mgr.AfterStatement = lspindex.Compose(hooks...)

	return &Session{
		Ctx:         c,
		Manager:     mgr,
		Index:       idx,
		Stats:       stats,
		LibResolver: macroResolver,
		parseDiags:  parseDiags,
	}
}

// Diagnostics collects everything raised so far: parse-time
// diagnostics, the processing manager's accumulated diagnostics, and
// any library-resolution diagnostics. Safe to call before the session
// has finished running, e.g. after an intermediate Resume suspends at
// a breakpoint.
func (s *Session) Diagnostics() []diag.Diagnostic {
	var diags []diag.Diagnostic
	diags = append(diags, s.parseDiags...)
	diags = append(diags, s.Manager.Diags.All()...)
	if s.LibResolver != nil {
		diags = append(diags, s.LibResolver.Diagnostics()...)
	}
	return diags
}

// Analyze parses and fully processes one open-code document in a
// single call, for LSP-style one-shot analysis. **G** teacher's
// cmd/main.go driving vm.NewVM/vm.Execute to completion for one
// program.
func Analyze(ctx context.Context, uri source.URI, text string, opts Options) (*Result, error) {
	s := Prepare(uri, text, opts)

	suspension, err := s.Manager.Resume(ctx)
	s.Stats.Finalize()
	if err != nil {
		return nil, fmt.Errorf("engine: analysis failed: %w", err)
	}

	return &Result{
		Ctx:         s.Ctx,
		Index:       s.Index,
		Diagnostics: s.Diagnostics(),
		Stats:       s.Stats,
		Suspension:  suspension,
	}, nil
}

func processorKind(stmt *semantics.Statement) string {
	if stmt.EvaluatedFromModel {
		return "macro-model"
	}
	return "ordinary"
}
