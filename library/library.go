// Package library implements the library resolver (C12): a cached
// glob-pattern member search over one or more on-disk directories,
// generalized from the teacher's loader package (which validated and
// cached a loaded binary image before handing it to the VM) to text
// macro/copy members, and grounded on original_source's
// library_local.cpp for the exact search and conflict-resolution
// semantics (extension matching, shortest-URI-wins on collision,
// optional libraries that don't diagnose a missing directory).
package library

import (
	"sort"
	"strings"

	"github.com/eclipse-che4z/hlasm-analyzer-go/diag"
	"github.com/eclipse-che4z/hlasm-analyzer-go/source"
)

// ContentLoader abstracts the filesystem so tests can supply an
// in-memory member set without touching disk, mirroring the teacher's
// separation between the VM's Memory and the loader that populates it.
type ContentLoader interface {
	// ListDirectory returns the file names directly inside dir, or an
	// error if dir does not exist or is not a directory.
	ListDirectory(dir source.URI) ([]string, error)
	// ReadFile returns the full text of the file at uri.
	ReadFile(uri source.URI) (string, error)
}

// Options configures one local library directory (library_local_options
// in original_source).
type Options struct {
	// Extensions lists the file suffixes recognized as member files,
	// tried longest-first. An empty list means "match on the part of
	// the file name before the first dot" (original_source's
	// extensionless mode).
	Extensions []string
	// Optional suppresses the "directory not found" diagnostic: some
	// processor-group search paths are expected to be absent.
	Optional bool
}

func normalizeExtensions(exts []string) []string {
	out := make([]string, 0, len(exts))
	for _, e := range exts {
		if e == "" {
			continue
		}
		if !strings.HasPrefix(e, ".") {
			e = "." + e
		}
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool {
		if len(out[i]) != len(out[j]) {
			return len(out[i]) > len(out[j])
		}
		return out[i] < out[j]
	})
	return out
}

// Directory is one local search path: a directory listed and matched
// against Options, lazily loaded and cached until Refresh is called.
type Directory struct {
	Loader     ContentLoader
	Root       source.URI
	Opts       Options
	GroupLoc   source.URI // the processor-group definition that named this path, for diagnostics

	extensions []string
	files      map[string]source.URI // upper-cased member name -> file URI
	diags      []diag.Diagnostic
	loaded     bool
}

// NewDirectory creates a local library search path. GroupLoc is the
// location of the processor-group entry that configured it, attached to
// any "directory not found"/"name conflict" diagnostics this path raises.
func NewDirectory(loader ContentLoader, root source.URI, opts Options, groupLoc source.URI) *Directory {
	return &Directory{Loader: loader, Root: root, Opts: opts, GroupLoc: groupLoc, extensions: normalizeExtensions(opts.Extensions)}
}

// Refresh forces the next lookup to re-list the directory, per §4.12
// (library content may change between analysis runs).
func (d *Directory) Refresh() {
	d.loaded = false
	d.files = nil
	d.diags = nil
}

// Diagnostics returns the directory-load diagnostics (not-found,
// name-conflict) raised the last time files were listed.
func (d *Directory) Diagnostics() []diag.Diagnostic {
	d.ensureLoaded()
	return d.diags
}

// Has reports whether name resolves to a member file in this directory,
// returning its URI.
func (d *Directory) Has(name string) (source.URI, bool) {
	d.ensureLoaded()
	uri, ok := d.files[strings.ToUpper(name)]
	return uri, ok
}

// Names lists every member name visible in this directory.
func (d *Directory) Names() []string {
	d.ensureLoaded()
	names := make([]string, 0, len(d.files))
	for n := range d.files {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

func (d *Directory) ensureLoaded() {
	if d.loaded {
		return
	}
	d.loaded = true
	d.files = make(map[string]source.URI)

	entries, err := d.Loader.ListDirectory(d.Root)
	if err != nil {
		if !d.Opts.Optional {
			d.diags = append(d.diags, diag.New(d.GroupLoc, source.Range{}, diag.CodeLibraryNotFound, diag.SeverityError,
				"library directory %s could not be listed: %s", d.Root, err))
		}
		return
	}

	conflicts := map[string]int{}
	var conflictNames []string
	addConflict := func(name string) {
		if conflicts[name] == 0 {
			conflictNames = append(conflictNames, name)
		}
		conflicts[name]++
	}

	for _, fname := range entries {
		memberName, ok := d.matchExtension(fname)
		if !ok {
			continue
		}
		uri := source.URI(string(d.Root) + "/" + fname)
		upper := strings.ToUpper(memberName)
		if existing, found := d.files[upper]; found {
			addConflict(upper)
			// Keep the shortest URI (typically the extensionless match),
			// then the lexicographically smaller one, matching
			// library_local.cpp's tie-break.
			if preferred(string(uri), string(existing)) {
				d.files[upper] = uri
			}
			continue
		}
		d.files[upper] = uri
	}

	if len(conflictNames) > 0 {
		sort.Strings(conflictNames)
		shown := conflictNames
		suffix := ""
		const maxShown = 3
		if len(shown) > maxShown {
			shown = shown[:maxShown]
			suffix = " and others"
		}
		d.diags = append(d.diags, diag.New(d.GroupLoc, source.Range{}, diag.CodeLibraryConflict, diag.SeverityWarning,
			"ambiguous member name(s) in %s: %s%s", d.Root, strings.Join(shown, ", "), suffix))
	}
}

func preferred(candidate, existing string) bool {
	if len(candidate) != len(existing) {
		return len(candidate) < len(existing)
	}
	return candidate < existing
}

func (d *Directory) matchExtension(fname string) (string, bool) {
	if len(d.extensions) == 0 {
		// Extensionless mode: the member name is everything up to the
		// first '.' that is not the file name's own leading character,
		// so a dotfile like ".hidden" is kept whole rather than treated
		// as an extension with an empty name, matching
		// library_local.cpp's find_first_of('.', 1).
		if fname == "" {
			return "", false
		}
		if i := strings.IndexByte(fname[1:], '.'); i >= 0 {
			return fname[:i+1], true
		}
		return fname, true
	}
	for _, ext := range d.extensions {
		if len(fname) > len(ext) && strings.HasSuffix(fname, ext) {
			return fname[:len(fname)-len(ext)], true
		}
	}
	return "", false
}
