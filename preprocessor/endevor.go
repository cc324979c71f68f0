package preprocessor

import (
	"regexp"
	"strings"
)

var endevorIncRe = regexp.MustCompile(`(?i)^-INC\s+(\S+)`)

// MemberFetcher resolves an Endevor include member to its text, backed
// by the library resolver (C12) in production and a map in tests.
type MemberFetcher interface {
	Fetch(member string) ([]string, bool)
}

// EndevorStage expands "-INC member" directives inline, the Endevor
// source-control-managed equivalent of a COPY statement that runs
// before the parser ever sees a COPY instruction.
type EndevorStage struct {
	Fetcher MemberFetcher
}

func (EndevorStage) Name() string { return "endevor" }

func (e EndevorStage) Process(in LineStream) LineStream {
	var out []Line
	for _, l := range in.Lines {
		m := endevorIncRe.FindStringSubmatch(strings.TrimSpace(l.Text))
		if m == nil || e.Fetcher == nil {
			out = append(out, l)
			continue
		}
		lines, ok := e.Fetcher.Fetch(m[1])
		if !ok {
			out = append(out, l)
			continue
		}
		vuri := VirtualURI(l.URI, "endevor")
		for n, text := range lines {
			out = append(out, Line{Text: text, URI: vuri, Num: n})
		}
	}
	return LineStream{Lines: out}
}
