package rules

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/hazyhaar/doclint/docmodel"
	"github.com/hazyhaar/doclint/issue"
)

// PunctuationRule flags in-sentence mixing of full- and half-width
// punctuation, duplicated marks, missing sentence-ending punctuation
// and whitespace misplaced around punctuation.
type PunctuationRule struct {
	// TitleMaxRunes bounds the short-line part of the title heuristic.
	TitleMaxRunes int
}

func (r *PunctuationRule) ID() string               { return "punctuation" }
func (r *PunctuationRule) Category() issue.Category { return issue.CatPunctuation }

var titleKeywords = []string{
	"目录", "摘要", "附录", "前言", "引言", "结论", "致谢", "参考文献",
	"abstract", "contents", "appendix", "references",
}

func (r *PunctuationRule) Execute(m *docmodel.Model) []issue.Diagnostic {
	var out []issue.Diagnostic
	for _, ln := range lineSpans(m.Buffer) {
		text := m.Buffer.Slice(ln.start, ln.end)
		if strings.TrimSpace(text) == "" {
			continue
		}
		runes := []rune(text)
		excluded := excludedSpans(text)

		out = append(out, r.checkDuplicates(runes, ln.start, excluded)...)
		out = append(out, r.checkMixedWidth(runes, ln.start, excluded)...)
		out = append(out, r.checkSpaceAroundPunct(runes, ln.start, excluded)...)
		if d := r.checkTerminal(m, runes, ln.start); d != nil {
			out = append(out, *d)
		}
	}
	return out
}

// punctMark covers the marks the duplicate check watches.
func punctMark(r rune) bool {
	return fullWidthPunct(r) || halfWidthPunct(r) || r == '、'
}

// checkDuplicates reports consecutive identical punctuation marks.
// A run of exactly three dots passes as an intentional ellipsis.
func (r *PunctuationRule) checkDuplicates(line []rune, base int, excluded []span) []issue.Diagnostic {
	var out []issue.Diagnostic
	i := 0
	for i < len(line) {
		if !punctMark(line[i]) || inSpans(excluded, i) {
			i++
			continue
		}
		j := i + 1
		for j < len(line) && line[j] == line[i] {
			j++
		}
		if j-i > 1 && !(line[i] == '.' && j-i == 3) {
			d := issue.New("punct.duplicate", issue.CatPunctuation, issue.SevError,
				base+i, base+j, fmt.Sprintf("重复的标点符号“%s”", string(line[i:j])))
			d.Suggestion = fmt.Sprintf("保留一个“%c”", line[i])
			out = append(out, d)
		}
		i = j
	}
	return out
}

// checkMixedWidth reports sentences that mix full- and half-width
// punctuation, anchored at the first minority-width mark.
func (r *PunctuationRule) checkMixedWidth(line []rune, base int, excluded []span) []issue.Diagnostic {
	var out []issue.Diagnostic
	for _, s := range sentenceSpans(line) {
		full, half := 0, 0
		firstHalf, firstFull := -1, -1
		for i := s.start; i < s.end; i++ {
			if inSpans(excluded, i) {
				continue
			}
			switch {
			case fullWidthPunct(line[i]):
				full++
				if firstFull < 0 {
					firstFull = i
				}
			case halfWidthPunct(line[i]):
				half++
				if firstHalf < 0 {
					firstHalf = i
				}
			}
		}
		if full == 0 || half == 0 {
			continue
		}
		at := firstHalf
		if half > full {
			at = firstFull
		}
		d := issue.New("punct.mixed", issue.CatPunctuation, issue.SevWarning,
			base+at, base+at+1, "同一句内混用全角和半角标点")
		d.Suggestion = "统一使用全角或半角标点"
		out = append(out, d)
	}
	return out
}

// checkSpaceAroundPunct reports whitespace before punctuation and
// whitespace directly after full-width punctuation.
func (r *PunctuationRule) checkSpaceAroundPunct(line []rune, base int, excluded []span) []issue.Diagnostic {
	var out []issue.Diagnostic
	for i := 1; i < len(line); i++ {
		if inSpans(excluded, i) {
			continue
		}
		cur, prev := line[i], line[i-1]
		if (fullWidthPunct(cur) || halfWidthPunct(cur) || cur == '、') && (prev == ' ' || prev == '\t') {
			d := issue.New("punct.space", issue.CatPunctuation, issue.SevWarning,
				base+i-1, base+i+1, fmt.Sprintf("标点符号“%c”前不应有空格", cur))
			out = append(out, d)
		}
		if fullWidthPunct(prev) && cur == ' ' && i < len(line)-1 {
			d := issue.New("punct.space", issue.CatPunctuation, issue.SevInfo,
				base+i-1, base+i+1, fmt.Sprintf("全角标点“%c”后不需要空格", prev))
			out = append(out, d)
		}
	}
	return out
}

// checkTerminal reports a non-title line that lacks sentence-ending
// punctuation. Title-like lines are exempt: heading paragraphs, short
// lines without internal separators, numbered-prefix lines and
// keyword-bearing lines.
func (r *PunctuationRule) checkTerminal(m *docmodel.Model, line []rune, base int) *issue.Diagnostic {
	trimmed := strings.TrimRightFunc(string(line), unicode.IsSpace)
	if trimmed == "" {
		return nil
	}
	tr := []rune(trimmed)
	last := tr[len(tr)-1]
	if terminalPunct(last) {
		return nil
	}
	if r.isTitleLike(m, tr, base) {
		return nil
	}
	end := base + len(tr)
	d := issue.New("punct.terminal", issue.CatPunctuation, issue.SevWarning,
		end-1, end, "句末缺少结束标点")
	d.Suggestion = "在句末添加“。”"
	return &d
}

func (r *PunctuationRule) isTitleLike(m *docmodel.Model, line []rune, base int) bool {
	if p := m.ParagraphAt(base); p != nil && p.IsHeading {
		return true
	}
	if ordinalAt(string(line), base) != nil {
		return true
	}
	lower := strings.ToLower(string(line))
	for _, kw := range titleKeywords {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	if len(line) <= r.TitleMaxRunes {
		internal := false
		for _, ch := range line[:len(line)-1] {
			if ch == '。' || ch == '！' || ch == '？' || ch == '，' || ch == '；' {
				internal = true
				break
			}
		}
		if !internal {
			return true
		}
	}
	return false
}
