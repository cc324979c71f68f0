package context

import (
	"fmt"
	"sort"

	"github.com/eclipse-che4z/hlasm-analyzer-go/ids"
	"github.com/eclipse-che4z/hlasm-analyzer-go/source"
)

// LabelResolver answers "which label encloses this source line" queries
// for hover text and debugger stack-frame display, adapted from an
// address-to-symbol nearest-match lookup into a per-file, line-ordered
// one: HLASM labels have no addresses until assembly completes, but
// they do have a definition line, and the nearest-preceding-label
// relation is exactly the one the original algorithm computed.
type LabelResolver struct {
	// lines[uri] is sorted by Position.Line ascending.
	lines map[source.URI][]labelEntry
}

type labelEntry struct {
	pos  source.Position
	name ids.ID
}

// NewLabelResolver builds a resolver from a symbol table's defining
// locations.
func NewLabelResolver(symbols *SymbolTable) *LabelResolver {
	r := &LabelResolver{lines: make(map[source.URI][]labelEntry)}
	for _, sym := range symbols.All() {
		if !sym.Defined {
			continue
		}
		uri := sym.DefLoc.URI
		r.lines[uri] = append(r.lines[uri], labelEntry{pos: sym.DefLoc.Range.Start, name: sym.Name})
	}
	for uri := range r.lines {
		entries := r.lines[uri]
		sort.Slice(entries, func(i, j int) bool { return entries[i].pos.Before(entries[j].pos) })
		r.lines[uri] = entries
	}
	return r
}

// Enclosing returns the nearest label at or before pos in uri, and the
// number of lines between that label and pos.
func (r *LabelResolver) Enclosing(uri source.URI, pos source.Position) (name ids.ID, lineOffset int, found bool) {
	entries := r.lines[uri]
	if len(entries) == 0 {
		return ids.ID{}, 0, false
	}
	idx := sort.Search(len(entries), func(i int) bool { return pos.Before(entries[i].pos) })
	if idx == 0 {
		return ids.ID{}, 0, false
	}
	e := entries[idx-1]
	return e.name, pos.Line - e.pos.Line, true
}

// Format renders a position as "label+N (uri:line:col)" or just
// "uri:line:col" if no enclosing label is found, for debugger frame and
// trace display.
func (r *LabelResolver) Format(uri source.URI, pos source.Position) string {
	name, offset, found := r.Enclosing(uri, pos)
	if !found {
		return fmt.Sprintf("%s:%s", uri, pos)
	}
	if offset == 0 {
		return fmt.Sprintf("%s (%s:%s)", name, uri, pos)
	}
	return fmt.Sprintf("%s+%d (%s:%s)", name, offset, uri, pos)
}
