package rules

import (
	"strings"

	"github.com/hazyhaar/doclint/docmodel"
	"github.com/hazyhaar/doclint/issue"
)

// SpacingRule flags missing spaces at script boundaries (CJK↔Latin,
// CJK↔digit), redundant whitespace and malformed spacing around
// half-width separators. Quoted spans, URL/e-mail tokens and inline
// code or formula delimiters are excluded by heuristic lookaround.
type SpacingRule struct{}

func (r *SpacingRule) ID() string               { return "spacing" }
func (r *SpacingRule) Category() issue.Category { return issue.CatSpacing }

func (r *SpacingRule) Execute(m *docmodel.Model) []issue.Diagnostic {
	var out []issue.Diagnostic
	spans := lineSpans(m.Buffer)

	blankStart := -1
	blankCount := 0
	for _, ln := range spans {
		text := m.Buffer.Slice(ln.start, ln.end)

		if strings.TrimSpace(text) == "" {
			if blankCount == 0 {
				blankStart = ln.start
			}
			blankCount++
			continue
		}
		if blankCount >= 2 {
			out = append(out, issue.New("spacing.blank", issue.CatSpacing, issue.SevInfo,
				blankStart, ln.start, "多个连续空行"))
		}
		blankCount = 0

		runes := []rune(text)
		excluded := excludedSpans(text)
		out = append(out, r.checkScriptBoundaries(runes, ln.start, excluded)...)
		out = append(out, r.checkWhitespace(runes, ln.start, excluded)...)
		out = append(out, r.checkSeparators(runes, ln.start, excluded)...)
	}
	return out
}

// checkScriptBoundaries reports each CJK↔Latin or CJK↔digit boundary
// that lacks a space, one diagnostic per boundary.
func (r *SpacingRule) checkScriptBoundaries(line []rune, base int, excluded []span) []issue.Diagnostic {
	var out []issue.Diagnostic
	for i := 1; i < len(line); i++ {
		if inSpans(excluded, i-1) || inSpans(excluded, i) {
			continue
		}
		prev, cur := line[i-1], line[i]
		var msg string
		switch {
		case isCJK(prev) && isLatinLetter(cur), isLatinLetter(prev) && isCJK(cur):
			msg = "中文与英文之间建议加空格"
		case isCJK(prev) && isASCIIDigit(cur), isASCIIDigit(prev) && isCJK(cur):
			msg = "中文与数字之间建议加空格"
		default:
			continue
		}
		d := issue.New("spacing.script", issue.CatSpacing, issue.SevWarning,
			base+i-1, base+i+1, msg)
		d.Suggestion = "在两种文字之间插入一个空格"
		out = append(out, d)
	}
	return out
}

// checkWhitespace reports multiple consecutive spaces and trailing
// whitespace. Cosmetic only.
func (r *SpacingRule) checkWhitespace(line []rune, base int, excluded []span) []issue.Diagnostic {
	var out []issue.Diagnostic
	i := 0
	for i < len(line) {
		if (line[i] != ' ' && line[i] != '\t') || inSpans(excluded, i) {
			i++
			continue
		}
		j := i
		for j < len(line) && (line[j] == ' ' || line[j] == '\t') {
			j++
		}
		switch {
		case j == len(line):
			out = append(out, issue.New("spacing.trailing", issue.CatSpacing, issue.SevInfo,
				base+i, base+j, "行尾存在多余空白"))
		case j-i > 1 && i > 0:
			out = append(out, issue.New("spacing.multiple", issue.CatSpacing, issue.SevInfo,
				base+i, base+j, "多个连续空格"))
		}
		i = j
	}
	return out
}

// checkSeparators reports half-width commas and semicolons jammed
// between Latin words.
func (r *SpacingRule) checkSeparators(line []rune, base int, excluded []span) []issue.Diagnostic {
	var out []issue.Diagnostic
	for i := 1; i < len(line)-1; i++ {
		if line[i] != ',' && line[i] != ';' {
			continue
		}
		if inSpans(excluded, i) {
			continue
		}
		// "word,word" wants a space; "1,000" does not.
		if isLatinLetter(line[i-1]) && isLatinLetter(line[i+1]) {
			d := issue.New("spacing.separator", issue.CatSpacing, issue.SevWarning,
				base+i, base+i+2, "半角逗号或分号后建议加空格")
			out = append(out, d)
		}
	}
	return out
}
