package ids

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInternerCaseFoldsAndDedups(t *testing.T) {
	in := NewInterner()

	a := in.Intern("label1")
	b := in.Intern("LABEL1")

	assert.True(t, a.Equal(b), "case-insensitive names must intern to the same ID")
	assert.Equal(t, "LABEL1", a.String())
	assert.Equal(t, 1, in.Len())
}

func TestInternerDistinctNames(t *testing.T) {
	in := NewInterner()

	a := in.Intern("FOO")
	b := in.Intern("BAR")

	assert.False(t, a.Equal(b))
	assert.Equal(t, 2, in.Len())
}

func TestLookupDoesNotCreate(t *testing.T) {
	in := NewInterner()

	_, ok := in.Lookup("MISSING")
	assert.False(t, ok)
	assert.Equal(t, 0, in.Len())

	in.Intern("MISSING")
	got, ok := in.Lookup("missing")
	require.True(t, ok)
	assert.Equal(t, "MISSING", got.String())
}

func TestValidSymbolAlphabet(t *testing.T) {
	cases := map[string]bool{
		"LABEL":   true,
		"L1":      true,
		"#SYS":    true,
		"1BAD":    false,
		"":        false,
		"A.B":     false,
		"TOO" + string(make([]byte, 64)): false,
	}
	for name, want := range cases {
		assert.Equalf(t, want, Valid(name), "Valid(%q)", name)
	}
}
