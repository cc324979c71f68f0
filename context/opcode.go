package context

import "github.com/eclipse-che4z/hlasm-analyzer-go/ids"

// OpcodeKind classifies what an mnemonic resolves to (§4.6).
type OpcodeKind int

const (
	OpcodeMachine OpcodeKind = iota
	OpcodeMnemonicAlias
	OpcodeAssemblerDirective
	OpcodeCADirective
	OpcodeMacro
	OpcodeOpsynAlias
)

// OpcodeBinding is one resolution of a mnemonic, valid from Generation
// onward until superseded by a later OPSYN rename of the same name.
type OpcodeBinding struct {
	Kind       OpcodeKind
	Target     ids.ID // for OpcodeOpsynAlias/OpcodeMnemonicAlias: the aliased name
	Generation int
}

// OpcodeTable resolves mnemonics honoring the opcode generation counter:
// OPSYN X,Y at time t creates a binding visible only to statements whose
// opcode_gen is >= t (§4.6). Deferred/postponed statements must resolve
// with the generation captured when they were deferred, not the current
// one, which is why Resolve takes an explicit generation parameter.
type OpcodeTable struct {
	// bindings[name] is ordered oldest-to-newest by Generation.
	bindings map[ids.ID][]OpcodeBinding
	builtins map[ids.ID]OpcodeBinding
	gen      int
}

func newOpcodeTable() *OpcodeTable {
	return &OpcodeTable{
		bindings: make(map[ids.ID][]OpcodeBinding),
		builtins: make(map[ids.ID]OpcodeBinding),
	}
}

// DefineBuiltin registers a machine instruction, mnemonic, or directive
// that is always visible (subject only to the active architecture
// filter, applied by the caller), independent of OPSYN generation.
func (t *OpcodeTable) DefineBuiltin(name ids.ID, kind OpcodeKind) {
	t.builtins[name] = OpcodeBinding{Kind: kind, Generation: -1}
}

// CurrentGeneration returns the generation counter to capture for a
// statement being deferred now.
func (t *OpcodeTable) CurrentGeneration() int { return t.gen }

// Opsyn renames alias to target's current resolution (or defines alias
// as a pure alias of target), bumping the generation counter so the
// rebinding is visible only to subsequent statements.
func (t *OpcodeTable) Opsyn(alias, target ids.ID) {
	t.gen++
	t.bindings[alias] = append(t.bindings[alias], OpcodeBinding{
		Kind:       OpcodeOpsynAlias,
		Target:     target,
		Generation: t.gen,
	})
}

// DefineMacro records that name now resolves to a user macro, effective
// from the current generation. A macro definition shadows any builtin.
func (t *OpcodeTable) DefineMacro(name ids.ID) {
	t.gen++
	t.bindings[name] = append(t.bindings[name], OpcodeBinding{Kind: OpcodeMacro, Generation: t.gen})
}

// Resolve looks up name as of the given generation: the most recent
// binding with Generation <= asOf, falling back to a builtin, per §4.6.
func (t *OpcodeTable) Resolve(name ids.ID, asOf int) (OpcodeBinding, bool) {
	if history, ok := t.bindings[name]; ok {
		for i := len(history) - 1; i >= 0; i-- {
			if history[i].Generation <= asOf {
				return history[i], true
			}
		}
	}
	if b, ok := t.builtins[name]; ok {
		return b, true
	}
	return OpcodeBinding{}, false
}

// ResolveCurrent resolves name as of the current generation.
func (t *OpcodeTable) ResolveCurrent(name ids.ID) (OpcodeBinding, bool) {
	return t.Resolve(name, t.gen)
}
