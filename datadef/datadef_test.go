package datadef

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseOperandSimpleFullword(t *testing.T) {
	op, err := ParseOperand("F'123'", true)
	require.NoError(t, err)
	assert.Equal(t, TypeF, op.Type)
	assert.False(t, op.DupFactor.Present)
	assert.Equal(t, "'123'", op.Nominal)
}

func TestParseOperandFullFieldOrder(t *testing.T) {
	op, err := ParseOperand("10FDP(123)L(2*3)S(2*4)E(-12*2)'2.25'", true)
	require.NoError(t, err)
	assert.Equal(t, "10", op.DupFactor.Text)
	assert.Equal(t, TypeF, op.Type)
	assert.Equal(t, byte('D'), op.ProgramTyp)
	assert.Equal(t, "2*3", op.Length.Text)
	assert.Equal(t, "2*4", op.Scale.Text)
	assert.Equal(t, "-12*2", op.Exponent.Text)
	assert.Equal(t, "'2.25'", op.Nominal)
}

func TestParseOperandBitLength(t *testing.T) {
	op, err := ParseOperand("10FDP(123)L.(2*3)S6E(-12*2)'2.25'", true)
	require.NoError(t, err)
	assert.True(t, op.Length.BitLen)
	assert.Equal(t, "2*3", op.Length.Text)
	assert.Equal(t, "6", op.Scale.Text)
}

func TestParseOperandEscapedQuoteInNominal(t *testing.T) {
	op, err := ParseOperand("CL4'IT''S'", true)
	require.NoError(t, err)
	assert.Equal(t, TypeC, op.Type)
	assert.Equal(t, "4", op.Length.Text)
	assert.Equal(t, "'IT''S'", op.Nominal)
}

func TestParseOperandDSHasNoNominal(t *testing.T) {
	op, err := ParseOperand("0F", false)
	require.NoError(t, err)
	assert.Equal(t, "0", op.DupFactor.Text)
	assert.Equal(t, TypeF, op.Type)
	assert.Empty(t, op.Nominal)
}

func TestImplicitLengthTable(t *testing.T) {
	l, ok := ImplicitLength(TypeF)
	assert.True(t, ok)
	assert.Equal(t, 4, l)

	_, ok = ImplicitLength(TypeC)
	assert.False(t, ok)
}

func TestParseOperandAddressList(t *testing.T) {
	op, err := ParseOperand("A(SYM1,SYM2)", true)
	require.NoError(t, err)
	assert.Equal(t, TypeA, op.Type)
	assert.Equal(t, "(SYM1,SYM2)", op.Nominal)
}
