// Package processing implements the scheduler of §4.4/§5: the processing
// manager owns the provider stack (C4) and a shadow processor stack,
// pulls one statement at a time, and reacts to each processors.Action by
// pushing/popping providers and processors, registering macros and copy
// members, and resolving AGO/AIF sequence-symbol targets. Grounded on the
// teacher's top-level fetch-decode-execute loop (vm/executor.go's Step),
// generalized from one CPU instruction per step to one HLASM statement
// per step, with Resume taking a context and an optional statement
// budget so a caller (the LSP analyzer or the debugger) can interleave
// analysis with other work instead of blocking until end of file.
package processing

import (
	stdcontext "context"
	"fmt"
	"strings"

	"github.com/eclipse-che4z/hlasm-analyzer-go/context"
	"github.com/eclipse-che4z/hlasm-analyzer-go/diag"
	"github.com/eclipse-che4z/hlasm-analyzer-go/ids"
	"github.com/eclipse-che4z/hlasm-analyzer-go/processors"
	"github.com/eclipse-che4z/hlasm-analyzer-go/providers"
	"github.com/eclipse-che4z/hlasm-analyzer-go/semantics"
)

// sysndxCeiling is the hard limit on macro-call invocations per analysis
// (§4.5, E072), independent of how wide SysndxWidth has grown to print it.
const sysndxCeiling = 99_999_999

// Suspension reports why Resume returned control to the caller.
type Suspension int

const (
	// SuspendFinished means the open-code provider, and every provider
	// pushed above it, ran to completion.
	SuspendFinished Suspension = iota
	// SuspendBudget means Manager.StatementBudget statements were
	// processed with more still pending; call Resume again to continue
	// (§5's cooperative scheduling).
	SuspendBudget
	// SuspendCancelled means ctx was cancelled mid-run; Resume may be
	// called again with a fresh context to continue where it left off.
	SuspendCancelled
	// SuspendBreakpoint means AfterStatement asked to pause once the
	// most recently processed statement settled (§6.2's macro-level step
	// debugger; see package macrodbg).
	SuspendBreakpoint
)

// defaultMaxStatements is the runaway-assembly guard of §4.5: a
// conditional-assembly loop that never terminates is caught here rather
// than exhausting memory.
const defaultMaxStatements = 10_000_000

// seqMark remembers where a sequence symbol was last seen, so a
// backward AGO/AIF can jump straight there without a rescan.
type seqMark struct {
	prov providers.Provider
	mark any
}

// Manager is the single-threaded, non-reentrant scheduler for one
// analysis task (§5). Nothing here is safe for concurrent use; a caller
// that wants to analyze several files in parallel runs one Manager per
// file, each against its own *context.Context.
type Manager struct {
	Ctx       *context.Context
	Providers *providers.Stack
	Resolver  processors.MemberResolver
	Diags     *diag.Collector

	// MaxStatements overrides defaultMaxStatements; zero keeps the
	// default. Set low in tests that exercise the E077 diagnostic.
	MaxStatements int64

	// StatementBudget caps how many statements a single Resume call
	// processes before yielding SuspendBudget; zero means unbounded
	// (Resume only returns on completion, cancellation, or error).
	StatementBudget int

	// AfterStatement, if set, is consulted once per statement right
	// after it has been processed; a true return suspends Resume with
	// SuspendBreakpoint before the next statement is pulled. This is the
	// hook package macrodbg uses to implement breakpoints and step
	// modes without this package depending on it.
	AfterStatement func(stmt *semantics.Statement, frame *context.Frame) bool

	ordinary *processors.OrdinaryProcessor
	defStack []processors.Processor // macro/copy-definition capture, LIFO

	seqSeen map[string]seqMark
	frame   *context.Frame
}

// NewManager creates a manager seeded with an open-code provider and
// ready to process from the start of the file.
func NewManager(c *context.Context, root *providers.OpenCodeProvider, resolver processors.MemberResolver) *Manager {
	m := &Manager{
		Ctx:       c,
		Providers: providers.NewStack(root),
		Resolver:  resolver,
		Diags:     &diag.Collector{},
		ordinary:  processors.NewOrdinaryProcessor(c),
		seqSeen:   make(map[string]seqMark),
		frame:     c.Root,
	}
	m.Providers.OnPop = m.onProviderPopped
	return m
}

// onProviderPopped unwinds the variable scope and processing-stack frame
// that a macro invocation pushed, once its provider is exhausted and
// removed, whether that removal was explicit or Stack.Next's auto-pop.
func (m *Manager) onProviderPopped(p providers.Provider) {
	if _, ok := p.(*providers.MacroProvider); ok {
		m.Ctx.Scopes.Pop()
		if m.frame.Parent != nil {
			m.frame = m.frame.Parent
		}
	}
}

// Delegate installs the machine/assembler-instruction dispatch callback
// (machinecheck + the rest of the opcode table) on the ordinary
// processor, deferred until construction so this package does not need
// to import machinecheck.
func (m *Manager) Delegate(fn func(stmt *semantics.Statement) []diag.Diagnostic) {
	m.ordinary.Delegate = fn
}

// AutocallMacro installs a library macro-autocall resolver (§4.12): an
// instruction mnemonic that is neither a CA instruction nor already
// defined via an in-source MACRO/MEND is tried here before the ordinary
// processor falls back to Delegate. A successful resolution is
// registered into Ctx.Macros so later calls to the same name in this
// analysis hit the macro table directly. Deferred until construction,
// like Delegate, so this package does not need to import library.
func (m *Manager) AutocallMacro(resolve func(name string) (*context.Macro, error)) {
	m.ordinary.ResolveMacro = func(name string) (*context.Macro, bool) {
		macro, err := resolve(name)
		if err != nil || macro == nil {
			return nil, false
		}
		m.Ctx.Macros.Define(macro)
		return macro, true
	}
}

func (m *Manager) limit() int64 {
	if m.MaxStatements > 0 {
		return m.MaxStatements
	}
	return defaultMaxStatements
}

// activeProcessor returns the processor that should see the next
// statement: the innermost macro/copy-definition capture in progress,
// or the ordinary processor if none is open.
func (m *Manager) activeProcessor() processors.Processor {
	if n := len(m.defStack); n > 0 {
		return m.defStack[n-1]
	}
	return m.ordinary
}

// Resume drains statements from the provider stack, applying each one's
// resulting Action, until the analysis finishes, ctx is cancelled, an
// unrecoverable error occurs, or StatementBudget statements have been
// processed in this call, whichever comes first. It may be called again
// to continue a suspended analysis (§5's cooperative scheduling).
func (m *Manager) Resume(ctx stdcontext.Context) (Suspension, error) {
	processed := 0
	for {
		if err := ctx.Err(); err != nil {
			return SuspendCancelled, nil
		}
		if m.StatementBudget > 0 && processed >= m.StatementBudget {
			return SuspendBudget, nil
		}
		stmt, ok := m.Providers.Next()
		if !ok {
			if len(m.defStack) > 0 {
				return SuspendFinished, fmt.Errorf("processing: end of input with %d macro/copy definition(s) still open", len(m.defStack))
			}
			for _, d := range m.Ctx.Dependencies.CollectPostponed() {
				m.Diags.Add(d)
			}
			return SuspendFinished, nil
		}
		processed++
		if err := m.step(stmt); err != nil {
			return SuspendFinished, err
		}
		if m.AfterStatement != nil && m.AfterStatement(stmt, m.frame) {
			return SuspendBreakpoint, nil
		}
	}
}

// CurrentFrame returns the processing-stack frame active after the most
// recently processed statement: open code, or the innermost macro
// invocation (§3). Used by package macrodbg to label stack frames and
// key step-over/step-out depth comparisons.
func (m *Manager) CurrentFrame() *context.Frame { return m.frame }

// step dispatches one statement to the active processor and applies its
// action, shared by the main Resume loop and by the statement that a
// lookahead scan lands on.
func (m *Manager) step(stmt *semantics.Statement) error {
	m.Ctx.StatementCount++
	if m.Ctx.StatementCount > m.limit() {
		m.Diags.Add(diag.New(stmt.URI, stmt.Range, diag.CodeStatementLimit, diag.SeverityError,
			"statement processing limit (%d) exceeded", m.limit()))
		return fmt.Errorf("processing: statement limit exceeded")
	}

	if stmt.Label.Kind == semantics.LabelSequence {
		if top, ok := m.Providers.Top().(providers.Marker); ok {
			m.seqSeen[strings.ToUpper(stmt.Label.Text)] = seqMark{prov: m.Providers.Top(), mark: top.Mark()}
		}
	}

	act := m.activeProcessor().Process(stmt)
	for _, d := range act.Diagnostics {
		m.Diags.Add(d)
	}
	return m.applyAction(stmt, act)
}

func (m *Manager) applyAction(stmt *semantics.Statement, act processors.Action) error {
	switch act.Kind {
	case processors.ActionNone:
		return nil

	case processors.ActionStartMacroDefinition:
		m.defStack = append(m.defStack, processors.NewMacroDefinitionProcessor(m.Ctx))
		return nil

	case processors.ActionStartCopyMember:
		return m.startCopy(stmt, act.Target)

	case processors.ActionStartLookahead:
		return m.startLookahead(stmt, act.Target)

	case processors.ActionFinishProcessor:
		return m.finishDefinition(stmt, act)

	case processors.ActionInvokeMacro:
		return m.invokeMacro(stmt, act.Target, act.Operands)
	}
	return nil
}

// invokeMacro binds the call-site operands against the macro's
// prototype, pushes a fresh variable scope with each bound parameter
// exposed as a local C-type SET symbol, and pushes a provider that
// replays the macro's body (§3, §4.6). Operand values are bound into the
// scope rather than substituted into the body text, so nested
// expressions re-resolve &PARAM references live, the same as any other
// SET variable.
func (m *Manager) invokeMacro(stmt *semantics.Statement, name ids.ID, operandText string) error {
	macro, ok := m.Ctx.Macros.Lookup(name)
	if !ok {
		m.Diags.Add(diag.New(stmt.URI, stmt.Range, diag.CodeUndefinedSymbol, diag.SeverityError,
			"macro %s is not defined", name))
		return nil
	}

	sysndx := m.Ctx.NextSysndx()
	if sysndx > sysndxCeiling {
		m.Diags.Add(diag.New(stmt.URI, stmt.Range, diag.CodeSysndxCeiling, diag.SeverityError,
			"macro call sequence number exceeded %d", sysndxCeiling))
		return nil
	}

	positional, keyword := classifyMacroOperands(m.Ctx, macro, operandText)
	bound, err := macro.BindArgs(positional, keyword)
	if err != nil {
		m.Diags.Add(diag.New(stmt.URI, stmt.Range, diag.CodeOpsynConflict, diag.SeverityError, "%s", err))
		return nil
	}

	m.Ctx.Scopes.Push(name)
	for _, p := range append(append([]context.MacroParam{}, macro.Positional...), macro.Keyword...) {
		m.Ctx.Scopes.Declare(p.Name, context.VarTypeC, stmt.Location())
		v, _ := m.Ctx.Scopes.Lookup(p.Name)
		_ = v.SetC(0, bound[p.Name])
	}

	m.frame = m.frame.Push(stmt.Range.Start, stmt.URI, name)
	m.Providers.Push(providers.NewMacroProvider(toStatements(macro.Body), m.frame))
	return nil
}

// classifyMacroOperands splits a macro call's operand field on top-level
// commas (respecting nested parens and quoted strings), then separates
// "NAME=value" keyword operands, matched against the macro's own
// keyword-parameter names, from bare positional ones (§4.6).
func classifyMacroOperands(c *context.Context, macro *context.Macro, text string) (positional []string, keyword map[ids.ID]string) {
	keyword = make(map[ids.ID]string)
	for _, part := range splitTopLevel(text) {
		if eq := strings.IndexByte(part, '='); eq > 0 {
			name := strings.TrimSpace(strings.TrimPrefix(part[:eq], "&"))
			if id, ok := c.Interner.Lookup(name); ok && isKeywordParam(macro, id) {
				keyword[id] = part[eq+1:]
				continue
			}
		}
		positional = append(positional, part)
	}
	return positional, keyword
}

func isKeywordParam(macro *context.Macro, name ids.ID) bool {
	for _, p := range macro.Keyword {
		if p.Name.Equal(name) {
			return true
		}
	}
	return false
}

// splitTopLevel splits text on commas outside parens and quoted strings.
func splitTopLevel(text string) []string {
	var parts []string
	depth := 0
	inStr := false
	start := 0
	flush := func(end int) {
		part := strings.TrimSpace(text[start:end])
		if part != "" {
			parts = append(parts, part)
		}
	}
	for i := 0; i < len(text); i++ {
		switch c := text[i]; {
		case c == '\'':
			inStr = !inStr
		case inStr:
		case c == '(':
			depth++
		case c == ')':
			depth--
		case c == ',' && depth == 0:
			flush(i)
			start = i + 1
		}
	}
	flush(len(text))
	return parts
}

// finishDefinition pops the innermost macro/copy-definition capture and,
// for a completed macro, registers it in the macro table (§4.6).
func (m *Manager) finishDefinition(stmt *semantics.Statement, act processors.Action) error {
	if len(m.defStack) == 0 {
		// MEND/MEXIT with no open MACRO: not a state transition this
		// manager tracks further; the ordinary processor already
		// reported it as a no-op action.
		return nil
	}
	m.defStack = m.defStack[:len(m.defStack)-1]
	if act.Macro != nil {
		m.registerMacro(act.Macro, stmt)
	}
	return nil
}

func (m *Manager) registerMacro(def *processors.MacroDefResult, stmt *semantics.Statement) {
	macro := &context.Macro{
		Name:       m.Ctx.Intern(def.Name),
		Positional: def.Positional,
		Keyword:    def.Keyword,
		Body:       def.Body,
		DefLoc:     stmt.Location(),
	}
	m.Ctx.Macros.Define(macro)
}

// startCopy resolves a COPY member through the library resolver and, on
// success, pushes a provider replaying its body (§4.3, §4.12).
func (m *Manager) startCopy(stmt *semantics.Statement, target ids.ID) error {
	name := target.String()
	cp := processors.NewCopyDefinitionProcessor(m.Resolver, name)
	act := cp.Process(stmt)
	for _, d := range act.Diagnostics {
		m.Diags.Add(d)
	}
	if act.CopyBody == nil {
		return nil
	}
	member := &context.CopyMember{Name: target, Body: act.CopyBody, DefLoc: stmt.Location()}
	m.Ctx.Copy.Define(member)
	m.Providers.Push(providers.NewCopyProvider(toStatements(act.CopyBody), member))
	return nil
}

// startLookahead resolves an AGO/AIF sequence-symbol target: a symbol
// already seen resolves immediately by seeking the provider that holds
// it; otherwise the current provider is scanned forward, without side
// effects other than recording sequence positions, until the target is
// found or the provider is exhausted (§4.4).
func (m *Manager) startLookahead(stmt *semantics.Statement, target ids.ID) error {
	if rec, ok := m.seqSeen[target.String()]; ok && rec.prov == m.Providers.Top() {
		if mk, ok := rec.prov.(providers.Marker); ok {
			mk.SeekTo(rec.mark)
			return nil
		}
	}

	lp := processors.NewLookaheadProcessor(m.Ctx, target)
	for {
		s, ok := m.Providers.Next()
		if !ok {
			m.Diags.Add(diag.New(stmt.URI, stmt.Range, diag.CodeSequenceNotFound, diag.SeverityError,
				"sequence symbol %s not found", target))
			return nil
		}
		act := lp.Process(s)
		if act.Kind == processors.ActionFinishProcessor {
			return nil
		}
	}
}

func toStatements(body []context.MacroStatement) []*semantics.Statement {
	out := make([]*semantics.Statement, 0, len(body))
	for _, b := range body {
		if s, ok := b.(*semantics.Statement); ok {
			out = append(out, s)
		}
	}
	return out
}
