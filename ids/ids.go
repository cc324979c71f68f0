// Package ids implements case-folded symbol interning for one analysis
// context. An ID is pointer-comparable: two IDs are equal iff they were
// interned from the same upper-cased spelling in the same Interner.
package ids

import "strings"

// ID is an interned, case-folded HLASM symbol name. The zero value is not
// a valid ID; obtain one from an Interner.
type ID struct {
	entry *string
}

// IsZero reports whether id was never assigned by an Interner.
func (id ID) IsZero() bool { return id.entry == nil }

// String returns the canonical (upper-cased) spelling.
func (id ID) String() string {
	if id.entry == nil {
		return ""
	}
	return *id.entry
}

// Equal reports pointer-equality, the cheap comparison the spec requires.
func (id ID) Equal(other ID) bool { return id.entry == other.entry }

// MaxLength is the longest HLASM symbol name (1-63 characters, §3).
const MaxLength = 63

// Interner case-folds and interns symbol names for a single analysis
// context. Not safe for concurrent use; the engine is single-threaded
// per §5.
type Interner struct {
	table map[string]*string
}

// NewInterner creates an empty interner.
func NewInterner() *Interner {
	return &Interner{table: make(map[string]*string)}
}

// Intern upper-cases name and returns its interned ID, creating an entry
// on first use. Names longer than MaxLength are still interned (callers
// validating symbol syntax should reject them before calling Intern).
func (in *Interner) Intern(name string) ID {
	folded := strings.ToUpper(name)
	if existing, ok := in.table[folded]; ok {
		return ID{entry: existing}
	}
	stored := folded
	in.table[folded] = &stored
	return ID{entry: &stored}
}

// Lookup returns the ID for name without creating it, and whether it
// already existed.
func (in *Interner) Lookup(name string) (ID, bool) {
	folded := strings.ToUpper(name)
	existing, ok := in.table[folded]
	if !ok {
		return ID{}, false
	}
	return ID{entry: existing}, true
}

// Len returns the number of distinct interned names.
func (in *Interner) Len() int { return len(in.table) }
