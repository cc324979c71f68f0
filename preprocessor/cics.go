package preprocessor

import (
	"regexp"
	"strings"
)

var execCICSRe = regexp.MustCompile(`(?i)^\s*EXEC\s+CICS\s+(\S+)`)
var endCICSRe = regexp.MustCompile(`(?i)END-EXEC\s*\.?\s*$`)

// CICSStage replaces each EXEC CICS command with a generated DFHxxxx
// macro call, the same substitution CICS translators perform, so macro
// expansion downstream treats the command as an ordinary macro call.
type CICSStage struct{}

func (CICSStage) Name() string { return "cics" }

func (CICSStage) Process(in LineStream) LineStream {
	var out []Line
	i := 0
	for i < len(in.Lines) {
		l := in.Lines[i]
		m := execCICSRe.FindStringSubmatch(l.Text)
		if m == nil {
			out = append(out, l)
			i++
			continue
		}
		command := strings.ToUpper(m[1])
		var body []string
		body = append(body, l.Text)
		for !endCICSRe.MatchString(in.Lines[i].Text) {
			i++
			if i >= len(in.Lines) {
				break
			}
			body = append(body, in.Lines[i].Text)
		}
		if i < len(in.Lines) {
			i++
		}
		vuri := VirtualURI(l.URI, "cics")
		out = append(out, Line{
			Text: "         DFH" + command,
			URI:  vuri,
		})
	}
	return LineStream{Lines: out}
}
