package processors

import (
	"strings"

	"github.com/eclipse-che4z/hlasm-analyzer-go/context"
	"github.com/eclipse-che4z/hlasm-analyzer-go/ids"
	"github.com/eclipse-che4z/hlasm-analyzer-go/semantics"
)

// LookaheadProcessor scans forward without side effects other than
// recording sequence-symbol positions, per §4.4. Ordinary-symbol
// attributes are not recorded. It never mutates the symbol table or
// dependency graph.
type LookaheadProcessor struct {
	Ctx    *context.Context
	Target ids.ID

	// Found is set once the target sequence symbol is seen, at the same
	// time Process returns ActionFinishProcessor for it.
	Found bool

	// SeqPositions records every sequence symbol seen during the scan,
	// keyed by its text, with the scan index it was seen at.
	SeqPositions map[string]int // sequence symbol text -> statement index seen at
	index        int
}

func NewLookaheadProcessor(c *context.Context, target ids.ID) *LookaheadProcessor {
	return &LookaheadProcessor{Ctx: c, Target: target, SeqPositions: make(map[string]int)}
}

func (p *LookaheadProcessor) Process(stmt *semantics.Statement) Action {
	defer func() { p.index++ }()

	if stmt.Label.Kind == semantics.LabelSequence {
		p.SeqPositions[stmt.Label.Text] = p.index
		if strings.EqualFold(stmt.Label.Text, p.Target.String()) {
			p.Found = true
			return Action{Kind: ActionFinishProcessor, Target: p.Target}
		}
	}

	// Attribute references forward-declare nothing by themselves; the
	// ordinary processor's dependency table already records L'/T'/etc.
	// as deferred dependants (§4.8), so lookahead only needs to find
	// sequence symbols, matching the teacher's read-only scan shape
	// (vm/executor.go's disassembly pre-pass) generalized to HLASM
	// labels instead of instruction addresses.
	return Action{}
}
