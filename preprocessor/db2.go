package preprocessor

import (
	"regexp"
	"strings"
)

// execSQLRe matches the opening of an "EXEC SQL ... END-EXEC." block,
// the only DB2 embedded-SQL form this stage recognizes (§4.2 Non-goals
// exclude full SQL parsing; the stage only needs to find the block's
// extent and host-variable references).
var execSQLRe = regexp.MustCompile(`(?i)^\s*EXEC\s+SQL\b`)
var endExecRe = regexp.MustCompile(`(?i)END-EXEC\s*\.?\s*$`)
var hostVarRe = regexp.MustCompile(`:([A-Za-z_][A-Za-z0-9_-]*)`)

// DB2Stage replaces each EXEC SQL...END-EXEC block with a generated
// DSNHSTMT-style macro call that references the block's host variables
// as operands, so the rest of the pipeline (macro expansion, symbol
// resolution) sees ordinary HLASM rather than embedded SQL.
type DB2Stage struct{}

func (DB2Stage) Name() string { return "db2" }

func (DB2Stage) Process(in LineStream) LineStream {
	var out []Line
	i := 0
	for i < len(in.Lines) {
		l := in.Lines[i]
		if !execSQLRe.MatchString(l.Text) {
			out = append(out, l)
			i++
			continue
		}
		start := i
		var body []string
		for i < len(in.Lines) {
			body = append(body, in.Lines[i].Text)
			if endExecRe.MatchString(in.Lines[i].Text) {
				i++
				break
			}
			i++
		}
		vuri := VirtualURI(l.URI, "db2")
		joined := strings.Join(body, " ")
		hostVars := dedupMatches(hostVarRe, joined)
		out = append(out, Line{
			Text: "         DSNHSTMT " + strings.Join(hostVars, ","),
			URI:  vuri,
			Num:  0,
		})
		_ = start
	}
	return LineStream{Lines: out}
}

func dedupMatches(re *regexp.Regexp, text string) []string {
	seen := map[string]bool{}
	var out []string
	for _, m := range re.FindAllStringSubmatch(text, -1) {
		name := m[1]
		if seen[name] {
			continue
		}
		seen[name] = true
		out = append(out, name)
	}
	return out
}
