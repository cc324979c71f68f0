package library

import (
	"fmt"
	"strings"

	"github.com/eclipse-che4z/hlasm-analyzer-go/context"
	"github.com/eclipse-che4z/hlasm-analyzer-go/diag"
	"github.com/eclipse-che4z/hlasm-analyzer-go/source"
)

// Engine is the callback surface the resolver uses to turn a resolved
// member's raw text into a parsed shape. It is injected by the
// top-level wiring rather than imported directly, because turning text
// into statements (COPY bodies) or a full macro definition (prototype
// scan through MACRO/MEND) is the processing manager's job (C5), and
// the manager in turn calls into the resolver to find member text —
// library sits below processing in the dependency order, so the
// callback breaks what would otherwise be an import cycle.
type Engine interface {
	// ParseCopyMember turns a copy member's text into a cached
	// statement body, the same shape providers.CopyProvider replays.
	ParseCopyMember(uri source.URI, text string) ([]context.MacroStatement, error)
	// ParseMacroMember recursively runs the processing manager over a
	// macro member's text far enough to capture its prototype and body
	// (the "re-entrant invocation" §4.12 describes for macro autocall).
	ParseMacroMember(uri source.URI, text string) (*context.Macro, error)
}

type cachedCopy struct {
	body []context.MacroStatement
	err  error
}

type cachedMacro struct {
	macro *context.Macro
	err   error
}

// Resolver is the ordered library search (§4.12): directories are
// tried in configuration order, the first match wins, and both copy
// and macro lookups are cached by upper-cased member name until
// Refresh clears the cache (library content changed on disk).
type Resolver struct {
	Dirs   []*Directory
	Engine Engine

	copyCache  map[string]*cachedCopy
	macroCache map[string]*cachedMacro
	resolving  map[string]bool
}

// NewResolver builds a resolver over dirs, searched in order.
func NewResolver(engine Engine, dirs ...*Directory) *Resolver {
	return &Resolver{
		Dirs: dirs, Engine: engine,
		copyCache: make(map[string]*cachedCopy), macroCache: make(map[string]*cachedMacro),
		resolving: make(map[string]bool),
	}
}

// Refresh drops every cached member and re-lists every search
// directory, per §4.12.
func (r *Resolver) Refresh() {
	r.copyCache = make(map[string]*cachedCopy)
	r.macroCache = make(map[string]*cachedMacro)
	for _, d := range r.Dirs {
		d.Refresh()
	}
}

func (r *Resolver) find(name string) (source.URI, bool) {
	for _, d := range r.Dirs {
		if uri, ok := d.Has(name); ok {
			return uri, true
		}
	}
	return "", false
}

// Diagnostics collects directory-load diagnostics across every search
// path (not-found, name-conflict), for the engine to surface once per
// analysis rather than once per lookup.
func (r *Resolver) Diagnostics() (out []diag.Diagnostic) {
	for _, d := range r.Dirs {
		out = append(out, d.Diagnostics()...)
	}
	return out
}

// ResolveCopy implements processors.MemberResolver: the first call
// reads, parses, and caches the member; later calls in the same
// analysis return the cached body. A member that COPYs itself,
// directly or transitively, is reported rather than recursing forever.
func (r *Resolver) ResolveCopy(name string) ([]context.MacroStatement, error) {
	upper := strings.ToUpper(name)
	if c, ok := r.copyCache[upper]; ok {
		return c.body, c.err
	}
	if r.resolving[upper] {
		return nil, fmt.Errorf("circular COPY of member %s", upper)
	}

	uri, ok := r.find(upper)
	if !ok {
		err := fmt.Errorf("copy member %s not found in any library", upper)
		r.copyCache[upper] = &cachedCopy{err: err}
		return nil, err
	}

	r.resolving[upper] = true
	defer delete(r.resolving, upper)

	text, err := r.readerFor(uri)
	if err != nil {
		r.copyCache[upper] = &cachedCopy{err: err}
		return nil, err
	}
	body, err := r.Engine.ParseCopyMember(uri, text)
	r.copyCache[upper] = &cachedCopy{body: body, err: err}
	return body, err
}

// ResolveMacro resolves a macro member by autocall (§4.6): the member
// is not yet defined via MACRO/MEND in the current source, so the
// resolver finds it on the library search path and asks Engine to
// parse its prototype and body, caching the result like ResolveCopy.
func (r *Resolver) ResolveMacro(name string) (*context.Macro, error) {
	upper := strings.ToUpper(name)
	if c, ok := r.macroCache[upper]; ok {
		return c.macro, c.err
	}
	if r.resolving[upper] {
		return nil, fmt.Errorf("circular macro autocall of %s", upper)
	}

	uri, ok := r.find(upper)
	if !ok {
		err := fmt.Errorf("macro %s not found in any library", upper)
		r.macroCache[upper] = &cachedMacro{err: err}
		return nil, err
	}

	r.resolving[upper] = true
	defer delete(r.resolving, upper)

	text, err := r.readerFor(uri)
	if err != nil {
		r.macroCache[upper] = &cachedMacro{err: err}
		return nil, err
	}
	macro, err := r.Engine.ParseMacroMember(uri, text)
	r.macroCache[upper] = &cachedMacro{macro: macro, err: err}
	return macro, err
}

func (r *Resolver) readerFor(uri source.URI) (string, error) {
	for _, d := range r.Dirs {
		if text, err := d.Loader.ReadFile(uri); err == nil {
			return text, nil
		}
	}
	return "", fmt.Errorf("member content at %s could not be read", uri)
}
