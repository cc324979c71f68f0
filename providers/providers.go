// Package providers implements the three statement sources of §4.3: open
// code (the file being analyzed), a macro body under expansion, and a
// copy member under inclusion, stacked LIFO so a COPY or macro call
// nested inside another suspends its enclosing provider until it
// finishes. Grounded on the teacher's lexer position-tracking (for the
// open-code provider's Rewind), generalized from a one-shot TokenizeAll
// pass to a resumable statement cursor.
package providers

import (
	"github.com/eclipse-che4z/hlasm-analyzer-go/context"
	"github.com/eclipse-che4z/hlasm-analyzer-go/semantics"
	"github.com/eclipse-che4z/hlasm-analyzer-go/source"
)

// Provider yields statements one at a time until exhausted.
type Provider interface {
	// GetNext returns the next statement, or false once exhausted.
	GetNext() (*semantics.Statement, bool)
	// Finished reports whether GetNext has been exhausted.
	Finished() bool
	// Kind identifies the provider for diagnostics/debugger frame labels.
	Kind() Kind
}

// Kind discriminates the three provider shapes.
type Kind int

const (
	KindOpenCode Kind = iota
	KindMacro
	KindCopy
)

func (k Kind) String() string {
	switch k {
	case KindOpenCode:
		return "open code"
	case KindMacro:
		return "macro"
	case KindCopy:
		return "copy"
	default:
		return "?"
	}
}

// LineSource supplies one logical-line Statement at a time from an
// open-code document, implemented by the parser package (C1); providers
// only needs this much of it to stay decoupled from lexer/parser.
type LineSource interface {
	Next() (*semantics.Statement, bool)
	Position() source.Position
	Seek(source.Position)
}

// OpenCodeProvider serves statements straight from a file being
// analyzed, and supports rewinding to an earlier position for AGO/AIF
// backward jumps within open code.
type OpenCodeProvider struct {
	src  LineSource
	done bool
}

func NewOpenCodeProvider(src LineSource) *OpenCodeProvider {
	return &OpenCodeProvider{src: src}
}

func (p *OpenCodeProvider) GetNext() (*semantics.Statement, bool) {
	stmt, ok := p.src.Next()
	if !ok {
		p.done = true
	}
	return stmt, ok
}

func (p *OpenCodeProvider) Finished() bool { return p.done }
func (p *OpenCodeProvider) Kind() Kind     { return KindOpenCode }

// Rewind repositions the underlying source, for AGO to a sequence symbol
// that precedes the current position and clears the finished flag since
// more statements will follow.
func (p *OpenCodeProvider) Rewind(pos source.Position) {
	p.src.Seek(pos)
	p.done = false
}

// Position reports where the provider currently sits, for sequence
// symbol resolution and debugger frame display.
func (p *OpenCodeProvider) Position() source.Position { return p.src.Position() }

// Mark and SeekTo implement Marker, letting the processing manager
// record and later jump back to a position uniformly across provider
// kinds for AGO/AIF control transfer.
func (p *OpenCodeProvider) Mark() any       { return p.Position() }
func (p *OpenCodeProvider) SeekTo(m any)    { p.Rewind(m.(source.Position)); p.done = false }

// cachedProvider serves a pre-parsed statement list as it was captured,
// shared by MacroProvider and CopyProvider.
type cachedProvider struct {
	kind  Kind
	stmts []*semantics.Statement
	idx   int
}

func (p *cachedProvider) GetNext() (*semantics.Statement, bool) {
	if p.idx >= len(p.stmts) {
		return nil, false
	}
	s := p.stmts[p.idx]
	p.idx++
	return s, true
}

func (p *cachedProvider) Finished() bool { return p.idx >= len(p.stmts) }
func (p *cachedProvider) Kind() Kind     { return p.kind }

// Index reports the next statement index to be returned, for AGO
// targeting a sequence symbol inside the same macro/copy body.
func (p *cachedProvider) Index() int { return p.idx }

// Seek repositions within the cached body, for backward AGO jumps.
func (p *cachedProvider) Seek(idx int) { p.idx = idx }

// Mark and SeekTo implement Marker for macro/copy bodies.
func (p *cachedProvider) Mark() any    { return p.idx }
func (p *cachedProvider) SeekTo(m any) { p.idx = m.(int) }

// Marker lets the processing manager record a provider's current
// position and later jump back to it, uniformly across the open-code,
// macro and copy provider shapes, for AGO/AIF sequence-symbol targeting.
type Marker interface {
	Mark() any
	SeekTo(any)
}

// MacroProvider replays one macro invocation's captured body statements
// unchanged; the call's arguments are bound as SET symbols in the
// invocation scope rather than substituted into the text (§4.3, §4.6).
type MacroProvider struct {
	cachedProvider
	Invocation *context.Frame
}

func NewMacroProvider(stmts []*semantics.Statement, frame *context.Frame) *MacroProvider {
	return &MacroProvider{cachedProvider: cachedProvider{kind: KindMacro, stmts: stmts}, Invocation: frame}
}

// CopyProvider replays one copy member's body statements (§4.3).
type CopyProvider struct {
	cachedProvider
	Member *context.CopyMember
}

func NewCopyProvider(stmts []*semantics.Statement, member *context.CopyMember) *CopyProvider {
	return &CopyProvider{cachedProvider: cachedProvider{kind: KindCopy, stmts: stmts}, Member: member}
}

// Stack is the LIFO provider stack: the top entry supplies the next
// statement, with exhausted providers popped automatically (§4.3).
type Stack struct {
	entries []Provider

	// OnPop, if set, is invoked with the provider being removed whenever
	// Pop runs, whether called explicitly or by Next's auto-pop; it lets
	// the processing manager unwind the matching variable scope and
	// processing-stack frame for a macro invocation (§3, §4.6).
	OnPop func(Provider)
}

// NewStack creates a stack seeded with the open-code provider, which is
// never popped (mirroring ScopeStack's protected bottom entry).
func NewStack(root *OpenCodeProvider) *Stack {
	return &Stack{entries: []Provider{root}}
}

// Push suspends the current top provider behind a new one (entering a
// macro call or COPY).
func (s *Stack) Push(p Provider) { s.entries = append(s.entries, p) }

// Pop resumes the provider beneath the current top. Popping the
// open-code provider panics; callers must never unbalance MEND/copy
// completion against the root.
func (s *Stack) Pop() {
	if len(s.entries) <= 1 {
		panic("providers: cannot pop the open-code provider")
	}
	popped := s.entries[len(s.entries)-1]
	s.entries = s.entries[:len(s.entries)-1]
	if s.OnPop != nil {
		s.OnPop(popped)
	}
}

// Top returns the active provider.
func (s *Stack) Top() Provider { return s.entries[len(s.entries)-1] }

// Depth reports how many providers are stacked, including open code.
func (s *Stack) Depth() int { return len(s.entries) }

// Next pulls the next statement from the top provider, popping
// exhausted providers (other than open code) until one yields a
// statement or only open code remains and it too is exhausted.
func (s *Stack) Next() (*semantics.Statement, bool) {
	for {
		top := s.Top()
		stmt, ok := top.GetNext()
		if ok {
			return stmt, true
		}
		if s.Depth() == 1 {
			return nil, false
		}
		s.Pop()
	}
}
