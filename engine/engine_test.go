package engine

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	hlasmcontext "github.com/eclipse-che4z/hlasm-analyzer-go/context"
	"github.com/eclipse-che4z/hlasm-analyzer-go/processing"
	"github.com/eclipse-che4z/hlasm-analyzer-go/semantics"
)

func TestAnalyzeOrdinaryProgramNoDiagnostics(t *testing.T) {
	src := "START    LR    1,2\n" +
		"         LR    3,4\n" +
		"         END   START\n"

	res, err := Analyze(context.Background(), "t://prog.hlasm", src, Options{})
	require.NoError(t, err)
	assert.Equal(t, processing.SuspendFinished, res.Suspension)
	assert.Empty(t, res.Diagnostics)
	assert.Equal(t, uint64(3), res.Stats.StatementCount)
}

func TestAnalyzeReportsMachineOperandError(t *testing.T) {
	src := "         LR    20,2\n"

	res, err := Analyze(context.Background(), "t://bad.hlasm", src, Options{})
	require.NoError(t, err)
	assert.NotEmpty(t, res.Diagnostics)
}

func TestAnalyzeIndexesLabelDefinition(t *testing.T) {
	src := "START    LR    1,2\n"

	res, err := Analyze(context.Background(), "t://labeled.hlasm", src, Options{})
	require.NoError(t, err)

	name := res.Ctx.Intern("START")
	loc, ok := res.Index.Definition(name)
	require.True(t, ok)
	assert.Equal(t, 0, loc.Range.Start.Line)
}

func TestAnalyzeInvokesAfterStatementHook(t *testing.T) {
	src := "         LR    1,2\n         LR    3,4\n"

	var seen int
	res, err := Analyze(context.Background(), "t://hook.hlasm", src, Options{
		AfterStatement: func(stmt *semantics.Statement, frame *hlasmcontext.Frame) bool {
			seen++
			return false
		},
	})
	require.NoError(t, err)
	assert.Equal(t, 2, seen)
}
