package processors

import (
	"github.com/eclipse-che4z/hlasm-analyzer-go/context"
	"github.com/eclipse-che4z/hlasm-analyzer-go/diag"
	"github.com/eclipse-che4z/hlasm-analyzer-go/semantics"
)

// MemberResolver fetches a copy member's already-parsed statement body,
// implemented by the library resolver (C12). Kept minimal so processors
// does not depend on the library package's caching/error-reporting
// machinery directly.
type MemberResolver interface {
	ResolveCopy(name string) ([]context.MacroStatement, error)
}

// CopyDefinitionProcessor resolves a COPY member on first encounter,
// caching its parsed body, per §4.4 and §4.12. It consumes exactly one
// "statement" (conceptually the COPY instruction itself, already
// dispatched by the ordinary processor) and always finishes immediately;
// it exists as its own Processor only so the manager's processor-stack
// bookkeeping is uniform across all four kinds.
type CopyDefinitionProcessor struct {
	Resolver MemberResolver
	Member   string
}

func NewCopyDefinitionProcessor(resolver MemberResolver, member string) *CopyDefinitionProcessor {
	return &CopyDefinitionProcessor{Resolver: resolver, Member: member}
}

func (p *CopyDefinitionProcessor) Process(stmt *semantics.Statement) Action {
	body, err := p.Resolver.ResolveCopy(p.Member)
	if err != nil {
		return Action{Kind: ActionFinishProcessor, Diagnostics: []diag.Diagnostic{
			diag.New(stmt.URI, stmt.Range, diag.CodeCopyMemberNotFnd, diag.SeverityError,
				"copy member %s not found: %s", p.Member, err),
		}}
	}
	return Action{Kind: ActionFinishProcessor, CopyBody: body}
}
