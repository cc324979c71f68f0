package parser

import (
	"strings"

	"github.com/eclipse-che4z/hlasm-analyzer-go/lexer"
)

// physicalLine is one raw input line, not yet joined with any
// continuation.
type physicalLine struct {
	runes  []rune
	lineNo int // zero-based
}

func splitPhysicalLines(text string) []physicalLine {
	raw := strings.Split(text, "\n")
	out := make([]physicalLine, len(raw))
	for i, l := range raw {
		l = strings.TrimSuffix(l, "\r")
		out[i] = physicalLine{runes: []rune(l), lineNo: i}
	}
	return out
}

// logicalLine is one continuation-joined statement's code text: the
// column-Begin..column-(End-1) portion of its first physical line, with
// any continuation lines' column-Continuation..column-(End-1) portions
// appended directly (§4.1's column/continuation discipline).
type logicalLine struct {
	text         string
	startLine    int
	labelPresent bool // column Begin held a non-blank character
	comment      bool // column 1 held '*': the whole line is a remark
}

// joinLogicalLines splits text into physical lines and joins
// continuations per layout, skipping blank lines. A non-blank character
// in the indicator column (layout.End) marks a line as continued; the
// next physical line resumes at layout.Continuation.
//
// Limitation: a quoted string or parenthesized operand that itself
// spans a continuation boundary is joined as plain text concatenation,
// matching fixed-format HLASM continuation exactly only when the break
// falls on a field boundary (a comma or blank), which is how
// continuations are conventionally written; a break mid-token would
// need lookahead into the lexer to rejoin correctly and is not handled.
func joinLogicalLines(text string, layout lexer.ColumnLayout) []logicalLine {
	physical := splitPhysicalLines(text)
	var out []logicalLine

	beginIdx := layout.Begin - 1
	contIdx := layout.End - 1
	contStartIdx := layout.Continuation - 1

	i := 0
	for i < len(physical) {
		p := physical[i]
		if len(p.runes) == 0 {
			i++
			continue
		}
		if p.runes[0] == '*' {
			out = append(out, logicalLine{text: string(p.runes), startLine: p.lineNo, comment: true})
			i++
			continue
		}

		codeEnd := clamp(contIdx, 0, len(p.runes))
		codeStart := clamp(beginIdx, 0, codeEnd)
		labelPresent := beginIdx < len(p.runes) && p.runes[beginIdx] != ' '
		// Trailing blanks before the indicator column are fill, not
		// content: a continued field breaks at the last character the
		// programmer actually wrote, so they are trimmed before the
		// next segment is appended.
		code := strings.TrimRight(string(p.runes[codeStart:codeEnd]), " ")
		continued := contIdx < len(p.runes) && p.runes[contIdx] != ' '
		startLine := p.lineNo
		i++

		for continued && i < len(physical) {
			cp := physical[i]
			ceEnd := clamp(contIdx, 0, len(cp.runes))
			ceStart := clamp(contStartIdx, 0, ceEnd)
			code += strings.TrimRight(string(cp.runes[ceStart:ceEnd]), " ")
			continued = contIdx < len(cp.runes) && cp.runes[contIdx] != ' '
			i++
		}

		out = append(out, logicalLine{text: code, startLine: startLine, labelPresent: labelPresent})
	}
	return out
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
