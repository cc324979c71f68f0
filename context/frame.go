package context

import (
	"github.com/eclipse-che4z/hlasm-analyzer-go/ids"
	"github.com/eclipse-che4z/hlasm-analyzer-go/source"
)

// Frame is one entry in the processing stack (§3): a point inside open
// code, a macro invocation, or a copy-member expansion. Frames share
// common prefixes via the Parent pointer, so pushing a nested expansion
// never copies the outer chain.
type Frame struct {
	Position source.Position
	URI      source.URI
	Member   ids.ID // macro or copy member name; zero for open code
	Parent   *Frame
}

// Push returns a new frame nested under f.
func (f *Frame) Push(pos source.Position, uri source.URI, member ids.ID) *Frame {
	return &Frame{Position: pos, URI: uri, Member: member, Parent: f}
}

// Chain returns the frames from innermost to outermost (root last).
func (f *Frame) Chain() []*Frame {
	var chain []*Frame
	for cur := f; cur != nil; cur = cur.Parent {
		chain = append(chain, cur)
	}
	return chain
}

// Depth returns the macro/copy nesting depth (0 for open code).
func (f *Frame) Depth() int {
	d := 0
	for cur := f; cur.Parent != nil; cur = cur.Parent {
		d++
	}
	return d
}

// Location converts the frame's position/URI into a source.Location
// with a zero-length range, convenient for diagnostics anchored at a
// single point.
func (f *Frame) Location() source.Location {
	return source.Location{URI: f.URI, Range: source.Range{Start: f.Position, End: f.Position}}
}
