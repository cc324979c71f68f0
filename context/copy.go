package context

import (
	"github.com/eclipse-che4z/hlasm-analyzer-go/ids"
	"github.com/eclipse-che4z/hlasm-analyzer-go/source"
)

// CopyMember is a cached copy-book body (§3), included textually via
// COPY at any processing level; nesting is allowed with cycle detection
// performed by the library resolver (C12) before caching here.
type CopyMember struct {
	Name   ids.ID
	Body   []MacroStatement
	DefLoc source.Location
}

// CopyTable owns all resolved copy members for the analysis.
type CopyTable struct {
	members map[ids.ID]*CopyMember
}

func newCopyTable() *CopyTable {
	return &CopyTable{members: make(map[ids.ID]*CopyMember)}
}

// Define caches a resolved copy member.
func (t *CopyTable) Define(m *CopyMember) { t.members[m.Name] = m }

// Lookup returns the cached copy member for name, if previously resolved.
func (t *CopyTable) Lookup(name ids.ID) (*CopyMember, bool) {
	m, ok := t.members[name]
	return m, ok
}
