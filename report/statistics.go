// Package report implements the analysis reporting expansion named in
// §4.12: macro invocation counts, SYSNDX high-water mark, per-processor
// statement counts, and postponed-statement resolution timings,
// exported as JSON/CSV/HTML. Grounded on the teacher's
// vm/statistics.go and vm/trace.go, repurposed from execution
// statistics for a running CPU to statement-processing statistics for
// one analysis run.
package report

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"html/template"
	"io"
	"sort"
	"time"
)

// MacroCallStats tracks how often one macro was invoked.
type MacroCallStats struct {
	Name  string
	Count uint64
}

// ProcessorStats tracks how many statements one processor-kind label
// (whatever string the caller passes to RecordStatement) consumed.
type ProcessorStats struct {
	Kind  string
	Count uint64
}

// Statistics accumulates analysis-run metrics, mirroring
// PerformanceStatistics's shape: a start/finalize pair around
// per-event recording methods, plus Export{JSON,CSV,HTML}.
type Statistics struct {
	Enabled bool

	StatementCount     uint64
	SysndxHighWaterMark int
	ExecutionTime      time.Duration

	MacroCalls      map[string]uint64
	ProcessorCounts map[string]uint64

	PostponedResolutions    uint64
	PostponedResolutionTime time.Duration

	startTime time.Time
}

// NewStatistics creates an enabled, empty statistics tracker.
func NewStatistics() *Statistics {
	return &Statistics{
		Enabled:         true,
		MacroCalls:      make(map[string]uint64),
		ProcessorCounts: make(map[string]uint64),
	}
}

// Start resets the tracker and begins timing.
func (s *Statistics) Start() {
	s.startTime = time.Now()
	s.StatementCount = 0
	s.SysndxHighWaterMark = 0
	s.MacroCalls = make(map[string]uint64)
	s.ProcessorCounts = make(map[string]uint64)
	s.PostponedResolutions = 0
	s.PostponedResolutionTime = 0
}

// RecordStatement records one statement processed by the named
// processor-kind label (the engine passes "ordinary" or "macro-model").
func (s *Statistics) RecordStatement(processorKind string) {
	if !s.Enabled {
		return
	}
	s.StatementCount++
	s.ProcessorCounts[processorKind]++
}

// RecordMacroCall records one macro invocation.
func (s *Statistics) RecordMacroCall(name string) {
	if !s.Enabled {
		return
	}
	s.MacroCalls[name]++
}

// RecordSysndx updates the SYSNDX high-water mark.
func (s *Statistics) RecordSysndx(sysndx int) {
	if sysndx > s.SysndxHighWaterMark {
		s.SysndxHighWaterMark = sysndx
	}
}

// RecordPostponedResolution records one dependency-table sweep
// resolving a postponed statement, and how long the sweep took.
func (s *Statistics) RecordPostponedResolution(d time.Duration) {
	if !s.Enabled {
		return
	}
	s.PostponedResolutions++
	s.PostponedResolutionTime += d
}

// Finalize stops timing. Call once analysis has finished (or
// suspended for the last time in a session).
func (s *Statistics) Finalize() {
	s.ExecutionTime = time.Since(s.startTime)
}

// TopMacroCalls returns the n most-invoked macros, most-called first.
// n <= 0 returns all of them.
func (s *Statistics) TopMacroCalls(n int) []MacroCallStats {
	out := make([]MacroCallStats, 0, len(s.MacroCalls))
	for name, count := range s.MacroCalls {
		out = append(out, MacroCallStats{Name: name, Count: count})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Count > out[j].Count })
	if n > 0 && n < len(out) {
		return out[:n]
	}
	return out
}

func (s *Statistics) processorBreakdown() []ProcessorStats {
	out := make([]ProcessorStats, 0, len(s.ProcessorCounts))
	for kind, count := range s.ProcessorCounts {
		out = append(out, ProcessorStats{Kind: kind, Count: count})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Count > out[j].Count })
	return out
}

// ExportJSON writes the statistics as a single JSON object.
func (s *Statistics) ExportJSON(w io.Writer) error {
	s.Finalize()
	data := map[string]any{
		"statement_count":           s.StatementCount,
		"sysndx_high_water_mark":    s.SysndxHighWaterMark,
		"execution_time_ms":         s.ExecutionTime.Milliseconds(),
		"postponed_resolutions":     s.PostponedResolutions,
		"postponed_resolution_ms":  s.PostponedResolutionTime.Milliseconds(),
		"macro_calls":               s.TopMacroCalls(0),
		"processor_breakdown":       s.processorBreakdown(),
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(data)
}

// ExportCSV writes a metric/value summary followed by the macro-call
// breakdown, matching PerformanceStatistics.ExportCSV's two-section shape.
func (s *Statistics) ExportCSV(w io.Writer) error {
	s.Finalize()
	cw := csv.NewWriter(w)
	defer cw.Flush()

	if err := cw.Write([]string{"Metric", "Value"}); err != nil {
		return err
	}
	rows := [][]string{
		{"Statement Count", fmt.Sprintf("%d", s.StatementCount)},
		{"SYSNDX High-Water Mark", fmt.Sprintf("%d", s.SysndxHighWaterMark)},
		{"Execution Time (ms)", fmt.Sprintf("%d", s.ExecutionTime.Milliseconds())},
		{"Postponed Resolutions", fmt.Sprintf("%d", s.PostponedResolutions)},
		{"Postponed Resolution Time (ms)", fmt.Sprintf("%d", s.PostponedResolutionTime.Milliseconds())},
	}
	for _, row := range rows {
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Write([]string{})
	cw.Write([]string{"Macro", "Call Count"})
	for _, m := range s.TopMacroCalls(0) {
		if err := cw.Write([]string{m.Name, fmt.Sprintf("%d", m.Count)}); err != nil {
			return err
		}
	}
	return nil
}

var htmlTemplate = template.Must(template.New("report").Parse(`<!DOCTYPE html>
<html><head><title>HLASM analysis report</title></head><body>
<h1>Analysis report</h1>
<table border="1">
<tr><td>Statement count</td><td>{{.StatementCount}}</td></tr>
<tr><td>SYSNDX high-water mark</td><td>{{.SysndxHighWaterMark}}</td></tr>
<tr><td>Execution time</td><td>{{.ExecutionTime}}</td></tr>
<tr><td>Postponed resolutions</td><td>{{.PostponedResolutions}}</td></tr>
</table>
<h2>Macro calls</h2>
<table border="1">
{{range .MacroCalls}}<tr><td>{{.Name}}</td><td>{{.Count}}</td></tr>
{{end}}
</table>
</body></html>
`))

// ExportHTML renders a minimal HTML report, matching
// PerformanceStatistics.ExportHTML's table-based shape.
func (s *Statistics) ExportHTML(w io.Writer) error {
	s.Finalize()
	data := struct {
		Statistics
		MacroCalls []MacroCallStats
	}{Statistics: *s, MacroCalls: s.TopMacroCalls(20)}
	return htmlTemplate.Execute(w, data)
}

func (s *Statistics) String() string {
	return fmt.Sprintf("statements=%d sysndx_hwm=%d macros=%d processors=%d",
		s.StatementCount, s.SysndxHighWaterMark, len(s.MacroCalls), len(s.ProcessorCounts))
}
