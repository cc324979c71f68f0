package context

// BaseTerm is one (section, loctr) or external/weak-symbol contribution
// to a relocatable address, with a signed coefficient (§3).
type BaseTerm struct {
	Section  *Section
	Loctr    *Loctr
	External bool
	Count    int32
}

func (b BaseTerm) sameBase(other BaseTerm) bool {
	if b.External != other.External {
		return false
	}
	if b.External {
		return b.Loctr == other.Loctr // external symbols stored via Loctr-less identity; see NewExternalBase
	}
	return b.Section == other.Section && b.Loctr == other.Loctr
}

// NewSectionBase creates a base term rooted at a section's named loctr.
func NewSectionBase(sec *Section, loctr *Loctr, count int32) BaseTerm {
	return BaseTerm{Section: sec, Loctr: loctr, Count: count}
}

// NewExternalBase creates a base term rooted at an external/weak symbol.
// loctr is an opaque per-symbol identity used only for equality; callers
// pass the same *Loctr value for repeated references to the same
// external symbol (e.g. one cached in the symbol table entry).
func NewExternalBase(loctr *Loctr, count int32) BaseTerm {
	return BaseTerm{Loctr: loctr, External: true, Count: count}
}

// SpaceTerm is an unknown-offset contribution from a space (§3).
type SpaceTerm struct {
	Space *Space
	Count int32
}

// Address is a relocatable (or, with no bases/spaces, absolute) value:
// offset + sum(bases) + sum(spaces) (§3).
type Address struct {
	Offset int32
	Bases  []BaseTerm
	Spaces []SpaceTerm
}

// NewAbsolute wraps a plain integer as a (degenerate) address with no
// bases or spaces.
func NewAbsolute(v int32) Address { return Address{Offset: v} }

// IsAbsolute reports whether the address has collapsed to a plain
// integer (no surviving bases or spaces after canonicalization).
func (a Address) IsAbsolute() bool {
	return len(a.Bases) == 0 && len(a.Spaces) == 0
}

// Simple reports whether the address has exactly one base with
// coefficient 1 and no spaces (§3).
func (a Address) Simple() bool {
	return len(a.Bases) == 1 && a.Bases[0].Count == 1 && len(a.Spaces) == 0
}

// Complex is the negation of Simple for non-absolute addresses.
func (a Address) Complex() bool { return !a.IsAbsolute() && !a.Simple() }

// canonicalize collapses duplicate bases/spaces and drops zero-
// coefficient entries, per §3's canonical-form rule.
func (a Address) canonicalize() Address {
	var bases []BaseTerm
	for _, b := range a.Bases {
		merged := false
		for i := range bases {
			if bases[i].sameBase(b) {
				bases[i].Count += b.Count
				merged = true
				break
			}
		}
		if !merged {
			bases = append(bases, b)
		}
	}
	var keptBases []BaseTerm
	for _, b := range bases {
		if b.Count != 0 {
			keptBases = append(keptBases, b)
		}
	}

	var spaces []SpaceTerm
	for _, s := range a.Spaces {
		merged := false
		for i := range spaces {
			if spaces[i].Space == s.Space {
				spaces[i].Count += s.Count
				merged = true
				break
			}
		}
		if !merged {
			spaces = append(spaces, s)
		}
	}
	var keptSpaces []SpaceTerm
	for _, s := range spaces {
		if s.Count != 0 {
			keptSpaces = append(keptSpaces, s)
		}
	}

	return Address{Offset: a.Offset, Bases: keptBases, Spaces: keptSpaces}
}

// AddAbs returns a + v (an absolute integer), per §4.9's "rel + abs"
// rule: always relocatable.
func (a Address) AddAbs(v int32) Address {
	out := a
	out.Offset += v
	return out
}

// Add returns a + b, the general relocatable-plus-relocatable case.
// Callers in the expression evaluator are responsible for emitting
// E032 when the result is complex in a context that forbids it.
func (a Address) Add(b Address) Address {
	out := Address{
		Offset: a.Offset + b.Offset,
		Bases:  append(append([]BaseTerm{}, a.Bases...), b.Bases...),
		Spaces: append(append([]SpaceTerm{}, a.Spaces...), b.Spaces...),
	}
	return out.canonicalize()
}

// Negate returns -a (every base/space coefficient and the offset
// negated), used to implement subtraction as Add(b.Negate()).
func (a Address) Negate() Address {
	out := Address{Offset: -a.Offset}
	for _, b := range a.Bases {
		b.Count = -b.Count
		out.Bases = append(out.Bases, b)
	}
	for _, s := range a.Spaces {
		s.Count = -s.Count
		out.Spaces = append(out.Spaces, s)
	}
	return out
}

// Sub returns a - b.
func (a Address) Sub(b Address) Address { return a.Add(b.Negate()) }

// InSameLocationCounter implements §3's "same location counter"
// relation: both addresses have exactly one base, and those bases share
// the same (section, loctr), and their first LOCTR_BEGIN space (if any)
// coincides.
func (a Address) InSameLocationCounter(b Address) bool {
	if len(a.Bases) != 1 || len(b.Bases) != 1 {
		return false
	}
	if !a.Bases[0].sameBase(b.Bases[0]) {
		return false
	}
	aBegin := firstLoctrBegin(a.Spaces)
	bBegin := firstLoctrBegin(b.Spaces)
	if aBegin == nil && bBegin == nil {
		return true
	}
	return aBegin == bBegin
}

func firstLoctrBegin(spaces []SpaceTerm) *Space {
	for _, s := range spaces {
		if s.Space.Kind == SpaceLoctrBegin {
			return s.Space
		}
	}
	return nil
}
