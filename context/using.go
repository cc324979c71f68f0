package context

import (
	"fmt"

	"github.com/eclipse-che4z/hlasm-analyzer-go/ids"
	"github.com/eclipse-che4z/hlasm-analyzer-go/source"
)

// UsingEntry is one active USING registration (§3): a base address
// covered by a set of general registers, optionally qualified by a
// label (USING label,base form used for DSECT mapping).
type UsingEntry struct {
	Label    ids.ID
	Base     Address
	Registers []int
	Range    source.Range
}

// UsingTable is the ordered stack of active USING registrations,
// manipulated by USING/DROP/PUSH USING/POP USING (§3, §4.7).
type UsingTable struct {
	stack []UsingEntry
	saved [][]UsingEntry // PUSH USING / POP USING save stack
}

func newUsingTable() *UsingTable {
	return &UsingTable{}
}

// Add registers a new USING covering base with the given registers.
func (t *UsingTable) Add(label ids.ID, base Address, registers []int, rng source.Range) {
	t.stack = append(t.stack, UsingEntry{Label: label, Base: base, Registers: registers, Range: rng})
}

// Drop removes USINGs for the given registers (DROP reg,...). Passing no
// registers drops everything (bare DROP).
func (t *UsingTable) Drop(registers ...int) {
	if len(registers) == 0 {
		t.stack = nil
		return
	}
	dropSet := make(map[int]bool, len(registers))
	for _, r := range registers {
		dropSet[r] = true
	}
	var kept []UsingEntry
	for _, e := range t.stack {
		var remaining []int
		for _, r := range e.Registers {
			if !dropSet[r] {
				remaining = append(remaining, r)
			}
		}
		if len(remaining) > 0 {
			e.Registers = remaining
			kept = append(kept, e)
		}
	}
	t.stack = kept
}

// Push saves the current USING state (PUSH USING).
func (t *UsingTable) Push() {
	snapshot := append([]UsingEntry{}, t.stack...)
	t.saved = append(t.saved, snapshot)
}

// Pop restores the USING state saved by the matching Push (POP USING).
func (t *UsingTable) Pop() error {
	if len(t.saved) == 0 {
		return fmt.Errorf("POP USING with no matching PUSH USING")
	}
	t.stack = t.saved[len(t.saved)-1]
	t.saved = t.saved[:len(t.saved)-1]
	return nil
}

// Resolve finds a register/displacement pair covering addr, searching
// the most recently added USING first (last-registered wins on overlap,
// matching HLASM's USING precedence). It returns false if no active
// USING covers addr's base.
func (t *UsingTable) Resolve(addr Address) (register int, displacement int32, ok bool) {
	if len(addr.Bases) != 1 {
		return 0, 0, false
	}
	for i := len(t.stack) - 1; i >= 0; i-- {
		e := t.stack[i]
		if len(e.Base.Bases) != 1 || !e.Base.Bases[0].sameBase(addr.Bases[0]) {
			continue
		}
		disp := addr.Offset - e.Base.Offset
		if disp < 0 || disp > 0xFFF || len(e.Registers) == 0 {
			continue
		}
		return e.Registers[0], disp, true
	}
	return 0, 0, false
}
