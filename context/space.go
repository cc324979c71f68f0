package context

// SpaceKind distinguishes why a space's size is not yet known (§3).
type SpaceKind int

const (
	SpaceOrdinary SpaceKind = iota
	SpaceLoctrBegin
	SpaceLoctrUnknown
	SpaceLoctrSet
	SpaceLoctrMax
	SpaceAlignment
)

// Alignment is a (boundary, byte_offset) pair: the space must land on a
// multiple of boundary, offset by byte_offset bytes.
type Alignment struct {
	Boundary   int32
	ByteOffset int32
}

// Space is an address component of statically unknown size (§3). Spaces
// are reference-counted rather than owned by the location counter that
// created them, because an Address captured during operand parsing may
// outlive it (§3, §9 "shared mutable address graph").
type Space struct {
	Kind      SpaceKind
	Alignment Alignment

	resolved       bool
	resolvedLength int32
	resolvedPtrs   []SpaceTerm

	refcount int
}

// NewSpace creates an unresolved space of the given kind.
func NewSpace(kind SpaceKind, align Alignment) *Space {
	return &Space{Kind: kind, Alignment: align}
}

// Retain increments the reference count; called whenever an Address
// captures this space.
func (s *Space) Retain() { s.refcount++ }

// Release decrements the reference count. Spaces are not freed here:
// Go's GC reclaims them once unreferenced; RefCount exists purely so
// tests can assert the "longest holder" ownership property of §9.
func (s *Space) Release() {
	if s.refcount > 0 {
		s.refcount--
	}
}

// RefCount reports the current reference count.
func (s *Space) RefCount() int { return s.refcount }

// Resolved reports whether the space has been resolved to a concrete
// size or expression.
func (s *Space) Resolved() bool { return s.resolved }

// ResolveToLength resolves the space to a constant byte length. A space
// never transitions back to unresolved (§4.8 resolution ordering
// invariant); resolving twice is a programming error in the caller.
func (s *Space) ResolveToLength(length int32) {
	if s.resolved {
		panic("context: space resolved twice")
	}
	s.resolved = true
	s.resolvedLength = length
}

// ResolveToExpr resolves the space to another (possibly still partially
// unresolved) combination of space terms, e.g. a LOCTR_SET space whose
// size equals another loctr's final extent.
func (s *Space) ResolveToExpr(ptrs []SpaceTerm) {
	if s.resolved {
		panic("context: space resolved twice")
	}
	s.resolved = true
	s.resolvedPtrs = append([]SpaceTerm{}, ptrs...)
}

// ResolvedLength returns the resolved constant length, valid only when
// Resolved() is true and ResolveToLength (not ResolveToExpr) was used.
func (s *Space) ResolvedLength() int32 { return s.resolvedLength }

// ResolvedPtrs returns the resolved pointer expansion, valid only when
// Resolved() is true and ResolveToExpr was used.
func (s *Space) ResolvedPtrs() []SpaceTerm { return s.resolvedPtrs }
