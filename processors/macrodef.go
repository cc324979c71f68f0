package processors

import (
	"strings"

	"github.com/eclipse-che4z/hlasm-analyzer-go/context"
	"github.com/eclipse-che4z/hlasm-analyzer-go/semantics"
)

// MacroDefResult is the completed definition MacroDefinitionProcessor
// hands back via ActionFinishProcessor, for the manager to register in
// the macro table.
type MacroDefResult struct {
	Name       string
	Positional []context.MacroParam
	Keyword    []context.MacroParam
	Body       []context.MacroStatement
}

// MacroDefinitionProcessor captures a macro body verbatim from the
// statement following MACRO through the matching MEND, tracking nested
// MACRO/MEND depth so a macro that defines another macro (legal, if
// unusual) is captured correctly (§4.4).
type MacroDefinitionProcessor struct {
	Ctx *context.Context

	prototypeSeen bool
	depth         int

	name       string
	positional []context.MacroParam
	keyword    []context.MacroParam
	body       []context.MacroStatement
}

func NewMacroDefinitionProcessor(c *context.Context) *MacroDefinitionProcessor {
	return &MacroDefinitionProcessor{Ctx: c, depth: 1}
}

func (p *MacroDefinitionProcessor) Process(stmt *semantics.Statement) Action {
	op := strings.ToUpper(stmt.Instruction.Text)

	if !p.prototypeSeen {
		p.prototypeSeen = true
		p.parsePrototype(stmt)
		return Action{}
	}

	switch op {
	case "MACRO":
		p.depth++
	case "MEND":
		p.depth--
		if p.depth == 0 {
			return Action{Kind: ActionFinishProcessor, Macro: &MacroDefResult{
				Name: p.name, Positional: p.positional, Keyword: p.keyword, Body: p.body,
			}}
		}
	}

	p.body = append(p.body, stmt)
	return Action{}
}

// parsePrototype reads the prototype statement: "&LABEL OP &P1,&P2,&KW=default".
// The label field (if present) is conventionally the macro's own name in
// some shops' style guides, but per §3 only the instruction field names
// the macro; the label is ignored here.
func (p *MacroDefinitionProcessor) parsePrototype(stmt *semantics.Statement) {
	p.name = strings.ToUpper(stmt.Instruction.Text)
	for _, part := range strings.Split(stmt.Operands.RawText, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		if eq := strings.IndexByte(part, '='); eq >= 0 {
			p.keyword = append(p.keyword, context.MacroParam{
				Name:    p.Ctx.Intern(strings.TrimPrefix(strings.TrimSpace(part[:eq]), "&")),
				Keyword: true,
				Default: part[eq+1:],
			})
			continue
		}
		p.positional = append(p.positional, context.MacroParam{
			Name: p.Ctx.Intern(strings.TrimPrefix(part, "&")),
		})
	}
}
