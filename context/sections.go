package context

import (
	"fmt"

	"github.com/eclipse-che4z/hlasm-analyzer-go/ids"
)

// SectionKind is one of the §3 section kinds.
type SectionKind int

const (
	SectionCSECT SectionKind = iota
	SectionRSECT
	SectionDSECT
	SectionCOMMON
	SectionEXECUTABLE
	SectionREADONLY
	SectionDUMMY
)

// Loctr is one location counter within a section: a current address
// that ORG/CNOP/machine-statement-length advances.
type Loctr struct {
	Name    ids.ID
	Section *Section
	Offset  int32
	Spaces  []*Space // unresolved space contributions accumulated at the current position
}

// Section is a named container for one or more location counters; one
// is active at a time (§3, §4.7).
type Section struct {
	Name   ids.ID // empty for the unnamed (default) CSECT
	Kind   SectionKind
	loctrs map[ids.ID]*Loctr
	order  []ids.ID
	active ids.ID
}

func newSection(name ids.ID, kind SectionKind) *Section {
	s := &Section{Name: name, Kind: kind, loctrs: make(map[ids.ID]*Loctr)}
	unnamed := ids.ID{}
	s.loctrs[unnamed] = &Loctr{Name: unnamed, Section: s}
	s.order = append(s.order, unnamed)
	s.active = unnamed
	return s
}

// Switch activates loctr name within the section, creating it at offset
// 0 on first use (HLASM LOCTR semantics: a fresh named loctr starts
// empty and grows independently; its absolute placement within the
// section is resolved once bytes in all loctrs of the section are known).
func (s *Section) Switch(name ids.ID) *Loctr {
	if l, ok := s.loctrs[name]; ok {
		s.active = name
		return l
	}
	l := &Loctr{Name: name, Section: s}
	s.loctrs[name] = l
	s.order = append(s.order, name)
	s.active = name
	return l
}

// Active returns the currently active location counter.
func (s *Section) Active() *Loctr { return s.loctrs[s.active] }

// SectionTable owns all sections and external symbols, which share one
// namespace (§3): duplicates across the two are an error.
type SectionTable struct {
	sections map[ids.ID]*Section
	order    []ids.ID
	externs  map[ids.ID]bool
	active   ids.ID
}

func newSectionTable() *SectionTable {
	t := &SectionTable{sections: make(map[ids.ID]*Section), externs: make(map[ids.ID]bool)}
	unnamed := ids.ID{}
	t.sections[unnamed] = newSection(unnamed, SectionCSECT)
	t.order = append(t.order, unnamed)
	t.active = unnamed
	return t
}

// Define starts (or resumes) a section of the given kind under name,
// making it active. Redefining an existing section under a different
// kind is an error the caller surfaces as a diagnostic.
func (t *SectionTable) Define(name ids.ID, kind SectionKind) (*Section, error) {
	if t.externs[name] {
		return nil, fmt.Errorf("%s already declared EXTRN/WXTRN", name)
	}
	if sec, ok := t.sections[name]; ok {
		if sec.Kind != kind {
			return nil, fmt.Errorf("section %s redefined with a different kind", name)
		}
		t.active = name
		return sec, nil
	}
	sec := newSection(name, kind)
	t.sections[name] = sec
	t.order = append(t.order, name)
	t.active = name
	return sec, nil
}

// DefineExternal reserves name in the shared section/external namespace.
func (t *SectionTable) DefineExternal(name ids.ID) error {
	if _, ok := t.sections[name]; ok {
		return fmt.Errorf("%s already declared as a section", name)
	}
	if t.externs[name] {
		return fmt.Errorf("%s already declared EXTRN/WXTRN", name)
	}
	t.externs[name] = true
	return nil
}

// Active returns the currently active section.
func (t *SectionTable) Active() *Section { return t.sections[t.active] }

// ActiveLoctr returns the active location counter of the active section.
func (t *SectionTable) ActiveLoctr() *Loctr { return t.Active().Active() }

// All returns sections in definition order.
func (t *SectionTable) All() []*Section {
	out := make([]*Section, 0, len(t.order))
	for _, name := range t.order {
		out = append(out, t.sections[name])
	}
	return out
}
