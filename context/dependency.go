package context

import (
	"fmt"

	"github.com/eclipse-che4z/hlasm-analyzer-go/diag"
	"github.com/eclipse-che4z/hlasm-analyzer-go/ids"
	"github.com/eclipse-che4z/hlasm-analyzer-go/source"
)

// DependantKind discriminates the Dependant sum type (§3).
type DependantKind int

const (
	DependantSymbol DependantKind = iota
	DependantAttribute
	DependantSpace
)

// AttrKind names which derived attribute a DependantAttribute targets.
type AttrKind int

const (
	AttrLength AttrKind = iota
	AttrType
	AttrScale
	AttrInteger
	AttrProgramType
	AttrCount
)

// Dependant is the key of a deferred computation: a symbol id, an
// (attribute, symbol) pair, or a space (§3).
type Dependant struct {
	Kind   DependantKind
	Symbol ids.ID
	Attr   AttrKind
	Space  *Space
}

func (d Dependant) String() string {
	switch d.Kind {
	case DependantSymbol:
		return d.Symbol.String()
	case DependantAttribute:
		return fmt.Sprintf("attr(%d,%s)", d.Attr, d.Symbol)
	default:
		return "space"
	}
}

// EvalContext is the evaluation environment captured at the moment a
// dependency is registered: the active loctr, SYSNDX, opcode generation,
// and active USING set. A postponed operand must evaluate as of this
// snapshot, not the context's current state, because a USING may be
// dropped before the operand resolves (§4.8).
type EvalContext struct {
	Loctr          *Loctr
	Sysndx         int
	OpcodeGen      int
	UsingSnapshot  []UsingEntry
}

// CaptureEvalContext snapshots the fields of c that a deferred
// expression must see again at resolution time.
func (c *Context) CaptureEvalContext() EvalContext {
	return EvalContext{
		Loctr:         c.Sections.ActiveLoctr(),
		Sysndx:        c.Sysndx,
		OpcodeGen:     c.Opcodes.CurrentGeneration(),
		UsingSnapshot: append([]UsingEntry{}, c.Using.stack...),
	}
}

// Expression is anything the dependency table can defer and later
// re-evaluate: a machine or CA expression tree produced by the expr
// package. Dependencies(c) lists the not-yet-defined dependants this
// expression currently needs; Evaluate attempts the computation and
// returns the resulting value once all dependencies are satisfied.
type Expression interface {
	Dependencies(c *Context) []Dependant
	Evaluate(c *Context, ec EvalContext) (Value, error)
}

type pendingDependency struct {
	target Dependant
	expr   Expression
	ec     EvalContext
	source source.Location
}

// DependencyTable is the forward-reference machinery of §4.8.
type DependencyTable struct {
	ctx *Context

	deps map[string]*pendingDependency // keyed by Dependant.String(); HLASM ids are unique per analysis so this is collision-free in practice

	postponed []postponedStatement

	// sourceLoc backs related-info: where each dependency came from,
	// keyed like deps.
	sourceLoc map[string]source.Location
}

type postponedStatement struct {
	targets []Dependant
	finish  func(c *Context) []diag.Diagnostic
}

func newDependencyTable(c *Context) *DependencyTable {
	return &DependencyTable{
		ctx:       c,
		deps:      make(map[string]*pendingDependency),
		sourceLoc: make(map[string]source.Location),
	}
}

// AddDependency registers a deferred resolution of target via expr,
// evaluated later with ec as its environment. If adding this dependency
// would close a cycle (target transitively depends on itself), the
// cycle is broken immediately: target is default-resolved and the
// returned ok is false, with diagnostics describing the break appended
// to diags.
func (d *DependencyTable) AddDependency(target Dependant, expr Expression, loc source.Location, ec EvalContext) (ok bool, diags []diag.Diagnostic) {
	if d.introducesCycle(target, expr) {
		diags = append(diags, d.breakCycle(target, loc))
		return false, diags
	}
	key := target.String()
	d.deps[key] = &pendingDependency{target: target, expr: expr, ec: ec, source: loc}
	d.sourceLoc[key] = loc
	return true, nil
}

// introducesCycle walks expr's current dependency set transitively,
// looking for target.
func (d *DependencyTable) introducesCycle(target Dependant, expr Expression) bool {
	visited := map[string]bool{target.String(): true}
	var walk func(e Expression) bool
	walk = func(e Expression) bool {
		for _, dep := range e.Dependencies(d.ctx) {
			key := dep.String()
			if visited[key] {
				return true
			}
			visited[key] = true
			if pending, ok := d.deps[key]; ok {
				if walk(pending.expr) {
					return true
				}
			}
		}
		return false
	}
	return walk(expr)
}

func (d *DependencyTable) breakCycle(target Dependant, loc source.Location) diag.Diagnostic {
	d.defaultResolve(target)
	code := diag.CodeDependencyCycle
	if target.Kind == DependantSpace {
		code = diag.CodeLoctrSpaceCycle
	}
	return diag.New(loc.URI, loc.Range, code, diag.SeverityError,
		"circular dependency involving %s broken by defaulting it", target)
}

// defaultResolve implements the §4.8 cycle-breaking defaults: length 1,
// scale 0, value 0, or a space resolved to length 1.
func (d *DependencyTable) defaultResolve(target Dependant) {
	delete(d.deps, target.String())
	switch target.Kind {
	case DependantSymbol:
		sym := d.ctx.Symbols.Declare(target.Symbol)
		if !sym.Defined {
			sym.Value = Abs32(0)
			sym.L, sym.S, sym.I, sym.T = 1, 0, 1, 'U'
			sym.Defined = true
		}
	case DependantSpace:
		if !target.Space.Resolved() {
			target.Space.ResolveToLength(1)
		}
	case DependantAttribute:
		sym := d.ctx.Symbols.Declare(target.Symbol)
		if !sym.Defined {
			sym.Value = Abs32(0)
			sym.L, sym.S, sym.I, sym.T = 1, 0, 1, 'U'
			sym.Defined = true
		}
	}
}

// AddDefined is called whenever a symbol becomes defined or a space
// becomes resolved. It sweeps pending dependencies to a fixpoint in BFS
// order, evaluating each exactly once as its dependency set empties out.
func (d *DependencyTable) AddDefined(changed []Dependant) []diag.Diagnostic {
	for {
		if len(d.sweepOnce()) == 0 {
			break
		}
	}
	return nil
}

func (d *DependencyTable) sweepOnce() []Dependant {
	var resolved []Dependant
	for key, pending := range d.deps {
		if len(pending.expr.Dependencies(d.ctx)) > 0 {
			continue
		}
		val, err := pending.expr.Evaluate(d.ctx, pending.ec)
		delete(d.deps, key)
		if err != nil {
			continue
		}
		switch pending.target.Kind {
		case DependantSymbol:
			sym := d.ctx.Symbols.Declare(pending.target.Symbol)
			if !sym.Defined {
				sym.Value = val
				sym.L, sym.S, sym.I, sym.T = 1, 0, 1, 'U'
				sym.Defined = true
				sym.DefLoc = pending.source
			}
		case DependantSpace:
			if !pending.target.Space.Resolved() {
				if val.Kind == ValueAbsolute {
					pending.target.Space.ResolveToLength(val.Abs)
				}
			}
		}
		resolved = append(resolved, pending.target)
	}
	return resolved
}

// CheckLoctrCycle detects strongly-connected components in the
// space-resolves-to-space graph and default-resolves every space in
// any cycle found, per §4.8.
func (d *DependencyTable) CheckLoctrCycle(spaces []*Space) []diag.Diagnostic {
	var diags []diag.Diagnostic
	index := make(map[*Space]int)
	for i, s := range spaces {
		index[s] = i
	}
	visited := make([]bool, len(spaces))
	onStack := make([]bool, len(spaces))
	var stack []int

	var visit func(i int) bool
	visit = func(i int) bool {
		visited[i] = true
		onStack[i] = true
		stack = append(stack, i)
		s := spaces[i]
		if s.Resolved() {
			for _, ptr := range s.ResolvedPtrs() {
				if j, ok := index[ptr.Space]; ok {
					if onStack[j] {
						return true
					}
					if !visited[j] && visit(j) {
						return true
					}
				}
			}
		}
		onStack[i] = false
		stack = stack[:len(stack)-1]
		return false
	}

	for i := range spaces {
		if !visited[i] && visit(i) {
			for _, idx := range stack {
				if !spaces[idx].Resolved() {
					spaces[idx].ResolveToLength(1)
				}
			}
			diags = append(diags, diag.New("", source.Range{}, diag.CodeLoctrSpaceCycle, diag.SeverityError,
				"circular location-counter space dependency broken by defaulting"))
		}
	}
	return diags
}

// CollectPostponed finalizes every statement still pending at analysis
// end: it default-resolves each statement's targets that are still
// pending, then runs the statement's finish callback to emit its
// diagnostics (§4.8, §4.10).
func (d *DependencyTable) CollectPostponed() []diag.Diagnostic {
	var diags []diag.Diagnostic
	for _, p := range d.postponed {
		for _, target := range p.targets {
			if _, pending := d.deps[target.String()]; pending {
				d.defaultResolve(target)
			}
		}
		diags = append(diags, p.finish(d.ctx)...)
	}
	d.postponed = nil
	return diags
}

// Postpone records a whole statement as pending, with targets naming
// every dependant it still needs and finish producing the statement's
// final diagnostics once those targets are resolved (immediately, or
// defaulted at CollectPostponed time).
func (d *DependencyTable) Postpone(targets []Dependant, finish func(c *Context) []diag.Diagnostic) {
	d.postponed = append(d.postponed, postponedStatement{targets: targets, finish: finish})
}

// Pending reports how many dependencies are still outstanding.
func (d *DependencyTable) Pending() int { return len(d.deps) }
