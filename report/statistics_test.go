package report

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStatisticsRecordsAndReportsBreakdown(t *testing.T) {
	s := NewStatistics()
	s.Start()

	s.RecordStatement("ordinary")
	s.RecordStatement("ordinary")
	s.RecordStatement("macro-definition")
	s.RecordMacroCall("MYMAC")
	s.RecordMacroCall("MYMAC")
	s.RecordMacroCall("OTHER")
	s.RecordSysndx(12)
	s.RecordSysndx(7)

	assert.Equal(t, uint64(3), s.StatementCount)
	assert.Equal(t, 12, s.SysndxHighWaterMark)

	top := s.TopMacroCalls(1)
	require.Len(t, top, 1)
	assert.Equal(t, "MYMAC", top[0].Name)
	assert.Equal(t, uint64(2), top[0].Count)
}

func TestStatisticsDisabledSkipsRecording(t *testing.T) {
	s := NewStatistics()
	s.Enabled = false
	s.RecordStatement("ordinary")
	s.RecordMacroCall("MYMAC")
	assert.Zero(t, s.StatementCount)
	assert.Empty(t, s.MacroCalls)
}

func TestStatisticsExportJSON(t *testing.T) {
	s := NewStatistics()
	s.Start()
	s.RecordStatement("ordinary")

	var buf bytes.Buffer
	require.NoError(t, s.ExportJSON(&buf))
	assert.Contains(t, buf.String(), `"statement_count": 1`)
}

func TestStatisticsExportCSV(t *testing.T) {
	s := NewStatistics()
	s.Start()
	s.RecordMacroCall("MYMAC")

	var buf bytes.Buffer
	require.NoError(t, s.ExportCSV(&buf))
	out := buf.String()
	assert.True(t, strings.Contains(out, "Metric,Value"))
	assert.True(t, strings.Contains(out, "MYMAC,1"))
}

func TestStatisticsExportHTML(t *testing.T) {
	s := NewStatistics()
	s.Start()
	s.RecordMacroCall("MYMAC")

	var buf bytes.Buffer
	require.NoError(t, s.ExportHTML(&buf))
	assert.Contains(t, buf.String(), "MYMAC")
}
