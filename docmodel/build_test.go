package docmodel

import (
	"log/slog"
	"strings"
	"testing"
)

const wNS = `xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main"`

func wrapDoc(body string) string {
	return `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>` +
		`<w:document ` + wNS + `><w:body>` + body + `</w:body></w:document>`
}

func para(runs string) string { return "<w:p>" + runs + "</w:p>" }

func run(text string) string { return "<w:r><w:t>" + text + "</w:t></w:r>" }

func mustBuild(t *testing.T, body string, styles map[string]Style, numbering map[int]NumberingDefinition) *Model {
	t.Helper()
	m, err := Build(strings.NewReader(wrapDoc(body)), styles, numbering, slog.Default())
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	return m
}

func TestBuild_Offsets(t *testing.T) {
	// WHAT: Paragraph text concatenates with one terminator each and
	// offsets increase monotonically.
	m := mustBuild(t, para(run("第一段"))+para(run("second")), nil, nil)

	if got := m.Buffer.String(); got != "第一段\nsecond\n" {
		t.Fatalf("buffer = %q", got)
	}
	if len(m.Paragraphs) != 2 {
		t.Fatalf("paragraphs = %d, want 2", len(m.Paragraphs))
	}
	p0, p1 := m.Paragraphs[0], m.Paragraphs[1]
	if p0.Start != 0 || p0.End != 4 {
		t.Errorf("p0 range = [%d,%d), want [0,4)", p0.Start, p0.End)
	}
	if p1.Start != 4 || p1.End != 11 {
		t.Errorf("p1 range = [%d,%d), want [4,11)", p1.Start, p1.End)
	}
}

func TestBuild_ParagraphTiling(t *testing.T) {
	// WHAT: Paragraph ranges tile [0, Buffer.Len()) without gaps or overlap.
	m := mustBuild(t, para(run("中文"))+para("")+para(run("abc")+run("def")), nil, nil)

	offset := 0
	for i, p := range m.Paragraphs {
		if p.Start != offset {
			t.Errorf("paragraph %d starts at %d, want %d", i, p.Start, offset)
		}
		if p.End <= p.Start {
			t.Errorf("paragraph %d has empty range [%d,%d)", i, p.Start, p.End)
		}
		offset = p.End
	}
	if offset != m.Buffer.Len() {
		t.Errorf("paragraphs cover [0,%d), buffer length %d", offset, m.Buffer.Len())
	}
}

func TestBuild_RunTiling(t *testing.T) {
	// WHAT: Run ranges tile the paragraph's text span; the terminator
	// position belongs to the paragraph only.
	m := mustBuild(t, para(run("abc")+run("中文")+run("xyz")), nil, nil)

	p := m.Paragraphs[0]
	offset := p.Start
	for i, r := range p.Runs {
		if r.Start != offset {
			t.Errorf("run %d starts at %d, want %d", i, r.Start, offset)
		}
		offset = r.End
	}
	if offset != p.TextEnd() {
		t.Errorf("runs cover up to %d, text span ends at %d", offset, p.TextEnd())
	}
}

func TestBuild_EmptyParagraphReservesPosition(t *testing.T) {
	m := mustBuild(t, para("")+para(run("x")), nil, nil)

	p0 := m.Paragraphs[0]
	if p0.Text != "" || p0.End-p0.Start != 1 {
		t.Fatalf("empty paragraph range = [%d,%d), text %q", p0.Start, p0.End, p0.Text)
	}
	if m.Paragraphs[1].Start != 1 {
		t.Fatalf("following paragraph starts at %d, want 1", m.Paragraphs[1].Start)
	}
}

func TestBuild_RunFormatting(t *testing.T) {
	body := para(`<w:r><w:rPr><w:color w:val="ff0000"/><w:b/><w:sz w:val="28"/></w:rPr><w:t>red</w:t></w:r>`)
	m := mustBuild(t, body, nil, nil)

	r := m.Paragraphs[0].Runs[0]
	if r.Color != "FF0000" {
		t.Errorf("color = %q, want FF0000", r.Color)
	}
	if !r.Bold {
		t.Error("expected bold run")
	}
	if r.SizeHalfPt != 28 {
		t.Errorf("size = %d, want 28", r.SizeHalfPt)
	}
}

func TestBuild_ParagraphMarkPropsDoNotLeak(t *testing.T) {
	// WHAT: rPr inside pPr (paragraph mark formatting) must not color
	// the paragraph's runs.
	body := para(`<w:pPr><w:rPr><w:color w:val="00FF00"/></w:rPr></w:pPr>` + run("plain"))
	m := mustBuild(t, body, nil, nil)

	if c := m.Paragraphs[0].Runs[0].Color; c != "" {
		t.Fatalf("run color = %q, want default", c)
	}
}

func TestBuild_EscapedText(t *testing.T) {
	m := mustBuild(t, para(run("a &lt;b&gt; &amp; c")), nil, nil)
	if got := m.Paragraphs[0].Text; got != "a <b> & c" {
		t.Fatalf("text = %q", got)
	}
}

func TestBuild_BreakAndTab(t *testing.T) {
	m := mustBuild(t, para(`<w:r><w:t>a</w:t><w:br/><w:t>b</w:t><w:tab/><w:t>c</w:t></w:r>`), nil, nil)
	if got := m.Paragraphs[0].Text; got != "a\nb\tc" {
		t.Fatalf("text = %q", got)
	}
}

func TestBuild_MalformedTailKeepsContent(t *testing.T) {
	// WHAT: A truncated document keeps the paragraphs scanned so far.
	// WHY: One bad fragment must not abort the whole build.
	raw := `<?xml version="1.0"?><w:document ` + wNS + `><w:body>` +
		para(run("good")) + `<w:p><w:r><w:t>torn`
	m, err := Build(strings.NewReader(raw), nil, nil, slog.Default())
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if len(m.Paragraphs) < 1 || m.Paragraphs[0].Text != "good" {
		t.Fatalf("expected surviving paragraph, got %+v", m.Paragraphs)
	}
}

func TestBuild_HeadingFromStyle(t *testing.T) {
	styles := map[string]Style{
		"Heading1": {ID: "Heading1", Type: "paragraph", Name: "heading 1", OutlineLevel: 0, NumberingID: -1, IsHeading: true},
	}
	body := para(`<w:pPr><w:pStyle w:val="Heading1"/></w:pPr>` + run("绪论"))
	m := mustBuild(t, body, styles, nil)

	if !m.Paragraphs[0].IsHeading {
		t.Fatal("expected heading paragraph")
	}
	if len(m.Headings) != 1 || m.Headings[0].Level != 1 || m.Headings[0].Text != "绪论" {
		t.Fatalf("headings = %+v", m.Headings)
	}
}

func TestBuild_NumberingRealization(t *testing.T) {
	// WHAT: Auto-numbered paragraphs realize labels in document order,
	// deeper levels restarting after a shallower item.
	numbering := map[int]NumberingDefinition{
		1: {ID: 1, Levels: []NumberingLevel{
			{Level: 0, Format: "decimal", Pattern: "%1.", Start: 1},
			{Level: 1, Format: "decimal", Pattern: "%1.%2.", Start: 1},
		}},
	}
	numPara := func(ilvl int, text string) string {
		return para(`<w:pPr><w:numPr><w:ilvl w:val="`+itoa(ilvl)+`"/><w:numId w:val="1"/></w:numPr></w:pPr>` + run(text))
	}
	m := mustBuild(t, numPara(0, "one")+numPara(1, "one-one")+numPara(1, "one-two")+numPara(0, "two")+numPara(1, "two-one"), nil, numbering)

	want := []string{"1.", "1.1.", "1.2.", "2.", "2.1."}
	for i, w := range want {
		if got := m.Paragraphs[i].NumberText; got != w {
			t.Errorf("paragraph %d label = %q, want %q", i, got, w)
		}
	}
}

func itoa(n int) string {
	return string(rune('0' + n))
}
