// Package preprocessor implements the db2/cics/endevor line-stream filter
// chain that runs ahead of the statement provider (§4.2), turning
// embedded-language source into HLASM statements the parser understands.
// It is grounded on the teacher's line-stream filter shape (a struct that
// consumes a cached line slice and yields another), generalized from a
// single filter into a declaratively ordered chain of stages.
package preprocessor

import (
	"fmt"

	"github.com/eclipse-che4z/hlasm-analyzer-go/source"
)

// Line is one physical source line carried through the chain.
type Line struct {
	Text string
	URI  source.URI
	Num  int // zero-based line number in URI
}

// LineStream is the chain's unit of work: a slice of Lines plus the
// generated-line bookkeeping a stage may add.
type LineStream struct {
	Lines []Line
}

// Stage transforms a LineStream, optionally injecting generated lines
// under a virtual URI.
type Stage interface {
	Name() string
	Process(in LineStream) LineStream
}

// Chain runs stages in declared order.
type Chain struct {
	stages []Stage
}

// NewChain builds a chain from the given stages, in the order given
// (DB2 before CICS before Endevor is the
// conventional order; the caller decides, the chain just runs it).
func NewChain(stages ...Stage) *Chain {
	return &Chain{stages: stages}
}

// Run applies every stage in order.
func (c *Chain) Run(in LineStream) LineStream {
	out := in
	for _, s := range c.stages {
		out = s.Process(out)
	}
	return out
}

// virtualCounter gives each generated virtual file a unique path
// suffix within one analysis run.
var virtualCounter int

// VirtualURI synthesizes a hlasm://<stage>/<n>/<origin> URI for stage-generated
// content, so diagnostics and hovers on generated text can still be
// attributed and navigated (§6.4).
func VirtualURI(origin source.URI, stage string) source.URI {
	virtualCounter++
	return source.URI(fmt.Sprintf("hlasm://%s/%d/%s", stage, virtualCounter, origin))
}

// ResetVirtualCounter reseeds the virtual-URI counter; intended for test
// determinism only, since production runs never need IDs to restart.
func ResetVirtualCounter() { virtualCounter = 0 }
