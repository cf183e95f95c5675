// Package docmodel builds a positionally addressable text and structure
// model from the raw WordprocessingML parts of a .docx package.
//
// The model is the coordinate space every downstream component shares:
// all paragraph text is concatenated into one immutable TextBuffer and
// every paragraph, run and diagnostic addresses rune offsets into it.
//
// The pipeline: zip archive → document.xml + optional styles.xml /
// numbering.xml → ordered paragraph/run scan → {TextBuffer, Paragraphs,
// Headings}.
package docmodel

import "strings"

// TextBuffer is the immutable concatenation of all paragraph texts in
// document order. Each paragraph contributes its text plus a single
// '\n' terminator, so even an empty paragraph reserves one addressable
// position. All offsets are rune offsets.
type TextBuffer struct {
	runes []rune
}

func newTextBuffer(runes []rune) *TextBuffer {
	return &TextBuffer{runes: runes}
}

// Len returns the buffer length in runes.
func (b *TextBuffer) Len() int { return len(b.runes) }

// String returns the whole buffer.
func (b *TextBuffer) String() string { return string(b.runes) }

// Slice returns the text of the half-open rune range [start, end).
// Out-of-bounds ranges are clamped; an empty or inverted range yields "".
func (b *TextBuffer) Slice(start, end int) string {
	if start < 0 {
		start = 0
	}
	if end > len(b.runes) {
		end = len(b.runes)
	}
	if start >= end {
		return ""
	}
	return string(b.runes[start:end])
}

// Runes exposes the underlying rune slice for scanning rules.
// Callers must treat it as read-only; it is the buffer's own storage.
func (b *TextBuffer) Runes() []rune { return b.runes }

// Context returns a snippet around [start, end) padded by up to pad
// runes on each side, for human-readable diagnostic context.
func (b *TextBuffer) Context(start, end, pad int) string {
	s := start - pad
	e := end + pad
	if s < 0 {
		s = 0
	}
	if e > len(b.runes) {
		e = len(b.runes)
	}
	return strings.ReplaceAll(b.Slice(s, e), "\n", " ")
}

// Run is the smallest styled text span within a paragraph. Runs tile
// the paragraph's text span exactly; the paragraph terminator position
// belongs to the paragraph itself, not to any run.
type Run struct {
	Text      string
	Start     int // rune offset into the TextBuffer, inclusive
	End       int // exclusive
	Color     string // hex RGB without '#', "" for default/auto
	Bold      bool
	Italic    bool
	Underline bool
	Font      string
	SizeHalfPt int // font size in half-points, 0 when unset
}

// Paragraph is one block of the document. Its range [Start, End) spans
// the paragraph text plus one terminator position, so paragraph ranges
// tile [0, TextBuffer.Len()) without gaps or overlap.
type Paragraph struct {
	Text         string
	Runs         []Run
	Start        int
	End          int
	StyleID      string
	NumID        int // numbering definition id, -1 when not numbered
	ILvl         int // numbering level, -1 when not numbered
	NumberText   string // realized auto-number label, e.g. "1.2." or "三、"
	IsHeading    bool
	OutlineLevel int // 0-based outline level, -1 when none
}

// TextEnd returns the exclusive end of the paragraph's text span,
// excluding the terminator position.
func (p *Paragraph) TextEnd() int { return p.End - 1 }

// Heading is a paragraph flagged as a structural section title.
type Heading struct {
	Text   string
	Level  int    // 1-based
	Number string // realized numbering text, "" when unnumbered
	Path   string // full numbering path, e.g. "1.2.1"
	Start  int
}

// Model is the complete parse result handed to the rule engine and the
// projector. It is built once and thereafter immutable.
type Model struct {
	Buffer     *TextBuffer
	Paragraphs []Paragraph
	Headings   []Heading
	Styles     map[string]Style
	Numbering  map[int]NumberingDefinition
}

// ParagraphAt returns the paragraph whose range contains the given
// offset, or nil when out of range. Paragraph ranges tile the buffer,
// so a binary search over start offsets suffices.
func (m *Model) ParagraphAt(offset int) *Paragraph {
	lo, hi := 0, len(m.Paragraphs)-1
	for lo <= hi {
		mid := (lo + hi) / 2
		p := &m.Paragraphs[mid]
		switch {
		case offset < p.Start:
			hi = mid - 1
		case offset >= p.End:
			lo = mid + 1
		default:
			return p
		}
	}
	return nil
}
