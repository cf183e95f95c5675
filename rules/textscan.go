package rules

import (
	"regexp"
	"unicode"

	"golang.org/x/text/width"

	"github.com/hazyhaar/doclint/docmodel"
)

// span is a half-open rune range, absolute or line-relative depending
// on context.
type span struct {
	start, end int
}

func (s span) contains(i int) bool { return i >= s.start && i < s.end }

// lineSpans splits the buffer on '\n' and returns the absolute rune
// range of each line, terminator excluded.
func lineSpans(buf *docmodel.TextBuffer) []span {
	runes := buf.Runes()
	var out []span
	start := 0
	for i, r := range runes {
		if r == '\n' {
			out = append(out, span{start, i})
			start = i + 1
		}
	}
	if start < len(runes) {
		out = append(out, span{start, len(runes)})
	}
	return out
}

func isCJK(r rune) bool {
	return unicode.Is(unicode.Han, r)
}

func isLatinLetter(r rune) bool {
	return (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z')
}

func isASCIIDigit(r rune) bool {
	return r >= '0' && r <= '9'
}

// isWide reports whether a rune renders full-width, which is how the
// punctuation rules tell 。，！ apart from their half-width versions.
func isWide(r rune) bool {
	switch width.LookupRune(r).Kind() {
	case width.EastAsianFullwidth, width.EastAsianWide:
		return true
	}
	return false
}

// fullWidthPunct and halfWidthPunct classify the marks the punctuation
// rules care about. Symbol-class runes like ￥ are deliberately out.
func fullWidthPunct(r rune) bool {
	return unicode.IsPunct(r) && isWide(r)
}

func halfWidthPunct(r rune) bool {
	switch r {
	case ',', '.', ';', ':', '!', '?':
		return true
	}
	return false
}

// terminalPunct reports whether a rune acceptably ends a sentence.
func terminalPunct(r rune) bool {
	switch r {
	case '。', '！', '？', '…', '.', '!', '?', '；', ';', '：', ':', '”', '"', '）', ')':
		return true
	}
	return false
}

var (
	urlPattern   = regexp.MustCompile(`(?:https?://|www\.)[^\s。，；]+`)
	emailPattern = regexp.MustCompile(`[A-Za-z0-9._%+-]+@[A-Za-z0-9.-]+\.[A-Za-z]{2,}`)
	codePattern  = regexp.MustCompile("`[^`\n]*`")
	mathPattern  = regexp.MustCompile(`\$[^$\n]+\$`)
)

// excludedSpans returns line-relative rune ranges that spacing and
// punctuation scans must not report inside: quoted spans, URL and
// e-mail tokens, inline code and formula delimiters. Heuristic
// lookaround, not full parsing.
func excludedSpans(line string) []span {
	var out []span
	for _, pat := range []*regexp.Regexp{urlPattern, emailPattern, codePattern, mathPattern} {
		for _, loc := range pat.FindAllStringIndex(line, -1) {
			out = append(out, span{runeIndex(line, loc[0]), runeIndex(line, loc[1])})
		}
	}
	out = append(out, quotedSpans(line)...)
	return out
}

// quotedSpans pairs up straight and curly quotes on one line. An
// unclosed quote excludes nothing.
func quotedSpans(line string) []span {
	var out []span
	open := -1
	var openR rune
	for i, r := range []rune(line) {
		switch {
		case open < 0 && (r == '"' || r == '“' || r == '\''):
			open, openR = i, r
		case open >= 0 && closesQuote(openR, r):
			out = append(out, span{open, i + 1})
			open = -1
		}
	}
	return out
}

func closesQuote(open, r rune) bool {
	switch open {
	case '"':
		return r == '"'
	case '“':
		return r == '”'
	case '\'':
		return r == '\''
	}
	return false
}

func inSpans(spans []span, i int) bool {
	for _, s := range spans {
		if s.contains(i) {
			return true
		}
	}
	return false
}

// runeIndex converts a byte offset in s to a rune offset.
func runeIndex(s string, byteOff int) int {
	n := 0
	for i := range s {
		if i >= byteOff {
			break
		}
		n++
	}
	return n
}

// sentenceSpans splits a line into sentence ranges (line-relative) on
// terminal marks; the trailing remainder forms the last sentence.
func sentenceSpans(line []rune) []span {
	var out []span
	start := 0
	for i, r := range line {
		switch r {
		case '。', '！', '？', '!', '?', '.':
			out = append(out, span{start, i + 1})
			start = i + 1
		}
	}
	if start < len(line) {
		out = append(out, span{start, len(line)})
	}
	return out
}
