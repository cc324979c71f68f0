package preprocessor

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDB2StageExtractsHostVars(t *testing.T) {
	ResetVirtualCounter()
	in := LineStream{Lines: []Line{
		{Text: "       EXEC SQL", URI: "a.hlasm", Num: 0},
		{Text: "         SELECT COL INTO :WS-COL FROM T", URI: "a.hlasm", Num: 1},
		{Text: "       END-EXEC.", URI: "a.hlasm", Num: 2},
	}}
	out := DB2Stage{}.Process(in)
	require.Len(t, out.Lines, 1)
	assert.Contains(t, out.Lines[0].Text, "WS-COL")
	assert.Contains(t, string(out.Lines[0].URI), "hlasm://db2/")
}

func TestCICSStageGeneratesMacroCall(t *testing.T) {
	ResetVirtualCounter()
	in := LineStream{Lines: []Line{
		{Text: "       EXEC CICS SEND MAP('M')", URI: "a.hlasm"},
		{Text: "       END-EXEC.", URI: "a.hlasm"},
	}}
	out := CICSStage{}.Process(in)
	require.Len(t, out.Lines, 1)
	assert.Contains(t, out.Lines[0].Text, "DFHSEND")
}

type mapFetcher map[string][]string

func (m mapFetcher) Fetch(member string) ([]string, bool) {
	lines, ok := m[member]
	return lines, ok
}

func TestEndevorStageInlinesMember(t *testing.T) {
	ResetVirtualCounter()
	fetcher := mapFetcher{"MEMB": {"MEMB  DS    F"}}
	in := LineStream{Lines: []Line{{Text: "-INC MEMB", URI: "a.hlasm"}}}
	out := EndevorStage{Fetcher: fetcher}.Process(in)
	require.Len(t, out.Lines, 1)
	assert.Equal(t, "MEMB  DS    F", out.Lines[0].Text)
}

func TestChainRunsStagesInOrder(t *testing.T) {
	ResetVirtualCounter()
	chain := NewChain(DB2Stage{}, CICSStage{})
	in := LineStream{Lines: []Line{
		{Text: "       EXEC SQL", URI: "a.hlasm"},
		{Text: "         SELECT 1 INTO :X", URI: "a.hlasm"},
		{Text: "       END-EXEC.", URI: "a.hlasm"},
	}}
	out := chain.Run(in)
	require.Len(t, out.Lines, 1)
	assert.Contains(t, out.Lines[0].Text, "DSNHSTMT")
}
