package library

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eclipse-che4z/hlasm-analyzer-go/context"
	"github.com/eclipse-che4z/hlasm-analyzer-go/source"
)

type fakeLoader struct {
	dirs  map[source.URI][]string
	files map[source.URI]string
}

func (f fakeLoader) ListDirectory(dir source.URI) ([]string, error) {
	names, ok := f.dirs[dir]
	if !ok {
		return nil, fmt.Errorf("no such directory: %s", dir)
	}
	return names, nil
}

func (f fakeLoader) ReadFile(uri source.URI) (string, error) {
	text, ok := f.files[uri]
	if !ok {
		return "", fmt.Errorf("no such file: %s", uri)
	}
	return text, nil
}

type fakeEngine struct{}

func (fakeEngine) ParseCopyMember(uri source.URI, text string) ([]context.MacroStatement, error) {
	return []context.MacroStatement{stubStatement(text)}, nil
}

func (fakeEngine) ParseMacroMember(uri source.URI, text string) (*context.Macro, error) {
	return &context.Macro{}, nil
}

type stubStatement string

func (s stubStatement) RawText() string             { return string(s) }
func (s stubStatement) Location() source.Location    { return source.Location{} }

func TestDirectoryMatchesExtensionlessMember(t *testing.T) {
	loader := fakeLoader{
		dirs:  map[source.URI][]string{"file:///lib": {"MYMAC.hlasm", "other.txt"}},
		files: map[source.URI]string{},
	}
	d := NewDirectory(loader, "file:///lib", Options{}, "file:///proc.json")

	uri, ok := d.Has("mymac")
	require.True(t, ok)
	assert.Equal(t, source.URI("file:///lib/MYMAC.hlasm"), uri)

	_, ok = d.Has("OTHER")
	assert.True(t, ok, "extensionless mode keys on the part before the first dot, case-insensitively")
}

func TestDirectoryMatchesConfiguredExtensions(t *testing.T) {
	loader := fakeLoader{dirs: map[source.URI][]string{"file:///lib": {"MYMAC.asm", "skip.me"}}}
	d := NewDirectory(loader, "file:///lib", Options{Extensions: []string{"asm"}}, "")

	uri, ok := d.Has("MYMAC")
	require.True(t, ok)
	assert.Contains(t, string(uri), "MYMAC.asm")

	_, ok = d.Has("SKIP")
	assert.False(t, ok)
}

func TestDirectoryMissingOptionalNoDiagnostic(t *testing.T) {
	loader := fakeLoader{dirs: map[source.URI][]string{}}
	d := NewDirectory(loader, "file:///gone", Options{Optional: true}, "file:///proc.json")

	_, ok := d.Has("X")
	assert.False(t, ok)
	assert.Empty(t, d.Diagnostics())
}

func TestDirectoryMissingRequiredDiagnoses(t *testing.T) {
	loader := fakeLoader{dirs: map[source.URI][]string{}}
	d := NewDirectory(loader, "file:///gone", Options{}, "file:///proc.json")

	_, ok := d.Has("X")
	assert.False(t, ok)
	require.Len(t, d.Diagnostics(), 1)
	assert.Equal(t, "L0002", string(d.Diagnostics()[0].Code))
}

func TestDirectoryNameConflictWarns(t *testing.T) {
	loader := fakeLoader{dirs: map[source.URI][]string{"file:///lib": {"A.asm", "A.mac"}}}
	d := NewDirectory(loader, "file:///lib", Options{Extensions: []string{"asm", "mac"}}, "file:///proc.json")

	d.Has("A")
	require.Len(t, d.Diagnostics(), 1)
	assert.Equal(t, "L0004", string(d.Diagnostics()[0].Code))
}

func TestResolverCopyCachesAndFindsInOrder(t *testing.T) {
	loader := fakeLoader{
		dirs:  map[source.URI][]string{"file:///a": {}, "file:///b": {"MEMB.cpy"}},
		files: map[source.URI]string{"file:///b/MEMB.cpy": "body text"},
	}
	d1 := NewDirectory(loader, "file:///a", Options{Extensions: []string{"cpy"}, Optional: true}, "")
	d2 := NewDirectory(loader, "file:///b", Options{Extensions: []string{"cpy"}}, "")
	r := NewResolver(fakeEngine{}, d1, d2)

	body, err := r.ResolveCopy("memb")
	require.NoError(t, err)
	require.Len(t, body, 1)
	assert.Equal(t, "body text", body[0].RawText())

	// second call must hit the cache, not ListDirectory/ReadFile again
	body2, err := r.ResolveCopy("MEMB")
	require.NoError(t, err)
	assert.Same(t, &body[0], &body2[0])
}

func TestResolverCopyNotFound(t *testing.T) {
	loader := fakeLoader{dirs: map[source.URI][]string{"file:///a": {}}}
	d := NewDirectory(loader, "file:///a", Options{}, "")
	r := NewResolver(fakeEngine{}, d)

	_, err := r.ResolveCopy("NOPE")
	assert.Error(t, err)
}
