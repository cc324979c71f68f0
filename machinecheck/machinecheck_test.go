package machinecheck

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eclipse-che4z/hlasm-analyzer-go/semantics"
)

func stmt(op, operands string) *semantics.Statement {
	return &semantics.Statement{
		Instruction: semantics.Instruction{Text: op},
		Operands:    semantics.OperandField{RawText: operands},
	}
}

func TestCheckRRValid(t *testing.T) {
	diags := Check(stmt("LR", "1,2"), Table["LR"])
	assert.Empty(t, diags)
}

func TestCheckRRWrongCount(t *testing.T) {
	diags := Check(stmt("LR", "1"), Table["LR"])
	require.Len(t, diags, 1)
	assert.Equal(t, "M010", string(diags[0].Code))
}

func TestCheckRRInvalidRegister(t *testing.T) {
	diags := Check(stmt("LR", "20,2"), Table["LR"])
	require.Len(t, diags, 1)
	assert.Equal(t, "M013", string(diags[0].Code))
}

func TestCheckRXValid(t *testing.T) {
	diags := Check(stmt("L", "3,4(5,6)"), Table["L"])
	assert.Empty(t, diags)
}

func TestCheckSSValid(t *testing.T) {
	diags := Check(stmt("MVC", "0(4,1),0(2)"), Table["MVC"])
	assert.Empty(t, diags)
}

func TestDelegateUnknownMnemonicNoOp(t *testing.T) {
	diags := Delegate(stmt("FROBNICATE", "1,2"))
	assert.Nil(t, diags)
}

func TestDelegateKnownMnemonicChecks(t *testing.T) {
	diags := Delegate(stmt("AR", "1"))
	require.Len(t, diags, 1)
	assert.Equal(t, "M010", string(diags[0].Code))
}
