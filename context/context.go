// Package context implements the HLASM analysis context (C6) and the
// ordinary-assembly context (C7): symbol interning, opcode resolution,
// variable scopes, sections/location counters, the USING table, the
// literal pool, and the forward-reference dependency graph (C8). It is
// owned exclusively by one analysis task (§5); nothing here is safe for
// concurrent use.
package context

import (
	"strconv"

	"github.com/eclipse-che4z/hlasm-analyzer-go/ids"
	"github.com/eclipse-che4z/hlasm-analyzer-go/source"
)

// Architecture identifies the active system_architecture assembler
// option (§6.3), filtering which machine instructions are visible.
type Architecture string

const (
	ArchZ15 Architecture = "Z15"
	ArchZ14 Architecture = "Z14"
	ArchZ13 Architecture = "Z13"
	ArchZ12 Architecture = "Z12"
	ArchZ11 Architecture = "Z11"
	ArchZ10 Architecture = "Z10"
	ArchZ9  Architecture = "Z9"
	ArchESA Architecture = "ESA"
	ArchXA  Architecture = "XA"
	ArchUNI Architecture = "UNI"
	ArchDOS Architecture = "DOS"
	Arch370 Architecture = "370"
)

// Context is the mutable, per-analysis global state described by §4.6
// and §4.7. A fresh Context is created once per "analyze file" task.
type Context struct {
	Interner *ids.Interner

	Arch Architecture

	Opcodes *OpcodeTable
	Macros  *MacroTable
	Copy    *CopyTable

	Scopes *ScopeStack

	Sections *SectionTable
	Symbols  *SymbolTable
	Using    *UsingTable
	Literals *LiteralPool

	Dependencies *DependencyTable

	// Sysndx is the monotonically increasing macro-call sequence number
	// (§4.6). SysndxWidth widens from the default 4 digits only once
	// MHELP 256's ceiling has been raised past 9999 (Open Question,
	// DESIGN.md).
	Sysndx      int
	SysndxWidth int

	// MHELPFlags holds the bit flags set by the most recent MHELP
	// statement; bit 256 enforces the SYSNDX ceiling (§4.5).
	MHELPFlags int

	// StatementCount counts statements processed in this analysis, for
	// the 10-million statement runaway guard (§4.5).
	StatementCount int64

	// Root is the base of the processing-stack frame tree (§3); open
	// code begins with a single root frame.
	Root *Frame
}

// New creates a context ready for open-code processing of the given root
// document.
func New(rootURI source.URI, arch Architecture) *Context {
	c := &Context{
		Interner:    ids.NewInterner(),
		Arch:        arch,
		SysndxWidth: 4,
	}
	c.Opcodes = newOpcodeTable()
	c.Macros = newMacroTable()
	c.Copy = newCopyTable()
	c.Scopes = newScopeStack()
	c.Sections = newSectionTable()
	c.Symbols = newSymbolTable()
	c.Using = newUsingTable()
	c.Literals = newLiteralPool()
	c.Dependencies = newDependencyTable(c)
	c.Root = &Frame{URI: rootURI}
	return c
}

// Intern is a convenience wrapper around Context.Interner.Intern.
func (c *Context) Intern(name string) ids.ID { return c.Interner.Intern(name) }

// NextSysndx advances and returns the macro-call sequence number,
// widening SysndxWidth if MHELP 256 has raised the ceiling and the
// counter now exceeds the current width's capacity.
func (c *Context) NextSysndx() int {
	c.Sysndx++
	if c.MHELPFlags&0x100 != 0 {
		limit := 1
		for i := 0; i < c.SysndxWidth; i++ {
			limit *= 10
		}
		for c.Sysndx >= limit {
			c.SysndxWidth++
			limit *= 10
		}
	}
	return c.Sysndx
}

// SysndxString formats the current SYSNDX with the context's active
// width, left-padded with zeros as HLASM does.
func (c *Context) SysndxString() string {
	return sysndxFormat(c.Sysndx, c.SysndxWidth)
}

func sysndxFormat(n, width int) string {
	s := strconv.Itoa(n)
	for len(s) < width {
		s = "0" + s
	}
	return s
}
