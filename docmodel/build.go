package docmodel

import (
	"encoding/xml"
	"io"
	"log/slog"
	"strconv"
	"strings"
)

// Build scans the main document part in order and assembles the model:
// paragraph-level fragments outer, run-level fragments inner, text
// concatenated with monotonically increasing absolute rune offsets.
//
// A malformed fragment is skipped with a warning; the build never
// aborts on one bad fragment. Only a reader error before any content
// is a hard failure.
func Build(doc io.Reader, styles map[string]Style, numbering map[int]NumberingDefinition, logger *slog.Logger) (*Model, error) {
	if logger == nil {
		logger = slog.Default()
	}

	decoder := xml.NewDecoder(doc)
	decoder.Strict = false

	var (
		buf        []rune
		paragraphs []Paragraph

		inPara, inPPr, inRun, inRPr, inText bool

		para    Paragraph
		run     Run
		runText strings.Builder
	)

	beginParagraph := func() {
		para = Paragraph{Start: len(buf), NumID: -1, ILvl: -1, OutlineLevel: -1}
	}
	endRun := func() {
		run.End = len(buf)
		run.Text = runText.String()
		if run.End > run.Start {
			para.Runs = append(para.Runs, run)
		}
		runText.Reset()
		inRun, inRPr = false, false
	}
	endParagraph := func() {
		para.Text = string(buf[para.Start:])
		buf = append(buf, '\n') // paragraph terminator, reserves one position even when empty
		para.End = len(buf)
		paragraphs = append(paragraphs, para)
		inPara, inPPr = false, false
	}

	for {
		tok, err := decoder.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			// A broken tail should not discard what was already scanned.
			logger.Warn("document scan stopped on malformed fragment", "error", err, "paragraphs", len(paragraphs))
			if inRun {
				endRun()
			}
			if inPara {
				endParagraph()
			}
			break
		}

		switch t := tok.(type) {
		case xml.StartElement:
			switch t.Name.Local {
			case "p":
				if inPara {
					// Unclosed previous paragraph; close it rather than abort.
					logger.Warn("unterminated paragraph fragment, closing at next paragraph", "offset", len(buf))
					if inRun {
						endRun()
					}
					endParagraph()
				}
				inPara = true
				beginParagraph()
			case "pPr":
				if inPara {
					inPPr = true
				}
			case "pStyle":
				if inPPr {
					para.StyleID = attrVal(t, "val")
				}
			case "outlineLvl":
				if inPPr {
					if lvl, err := strconv.Atoi(attrVal(t, "val")); err == nil {
						para.OutlineLevel = lvl
					} else {
						logger.Warn("skipping malformed outline level", "val", attrVal(t, "val"))
					}
				}
			case "ilvl":
				if inPPr {
					if lvl, err := strconv.Atoi(attrVal(t, "val")); err == nil {
						para.ILvl = lvl
					}
				}
			case "numId":
				if inPPr {
					if id, err := strconv.Atoi(attrVal(t, "val")); err == nil {
						para.NumID = id
					} else {
						logger.Warn("skipping malformed numbering reference", "val", attrVal(t, "val"))
					}
				}
			case "r":
				if inPara && !inPPr {
					inRun = true
					run = Run{Start: len(buf)}
					runText.Reset()
				}
			case "rPr":
				if inRun {
					inRPr = true
				}
			case "color":
				if inRPr {
					run.Color = normalizeColor(attrVal(t, "val"))
				}
			case "b":
				if inRPr {
					run.Bold = onOffAttr(t)
				}
			case "i":
				if inRPr {
					run.Italic = onOffAttr(t)
				}
			case "u":
				if inRPr {
					run.Underline = attrVal(t, "val") != "none"
				}
			case "sz":
				if inRPr {
					if sz, err := strconv.Atoi(attrVal(t, "val")); err == nil {
						run.SizeHalfPt = sz
					}
				}
			case "rFonts":
				if inRPr {
					run.Font = attrVal(t, "eastAsia")
					if run.Font == "" {
						run.Font = attrVal(t, "ascii")
					}
				}
			case "t":
				if inRun {
					inText = true
				}
			case "br", "cr":
				if inRun {
					buf = append(buf, '\n')
					runText.WriteByte('\n')
				}
			case "tab":
				if inRun {
					buf = append(buf, '\t')
					runText.WriteByte('\t')
				}
			}

		case xml.CharData:
			if inText {
				for _, r := range string(t) {
					buf = append(buf, r)
					runText.WriteRune(r)
				}
			}

		case xml.EndElement:
			switch t.Name.Local {
			case "t":
				inText = false
			case "rPr":
				inRPr = false
			case "pPr":
				inPPr = false
			case "r":
				if inRun {
					endRun()
				}
			case "p":
				if inPara {
					endParagraph()
				}
			}
		}
	}

	m := &Model{
		Buffer:     newTextBuffer(buf),
		Paragraphs: paragraphs,
		Styles:     styles,
		Numbering:  numbering,
	}
	resolveParagraphs(m, logger)
	realizeNumbering(m)
	deriveHeadings(m)
	return m, nil
}

func attrVal(t xml.StartElement, name string) string {
	for _, a := range t.Attr {
		if a.Name.Local == name {
			return a.Value
		}
	}
	return ""
}

func onOffAttr(t xml.StartElement) bool {
	switch strings.ToLower(attrVal(t, "val")) {
	case "0", "false", "none", "off":
		return false
	}
	return true
}

// resolveParagraphs walks each paragraph's style chain and fills in
// heading status, outline level and numbering references the paragraph
// did not set directly.
func resolveParagraphs(m *Model, logger *slog.Logger) {
	for i := range m.Paragraphs {
		p := &m.Paragraphs[i]
		if p.StyleID == "" {
			continue
		}
		eff := ResolveStyle(m.Styles, p.StyleID)
		if eff.ID == DefaultStyle().ID && p.StyleID != eff.ID {
			if _, known := m.Styles[p.StyleID]; known {
				logger.Warn("style chain unresolvable, using default", "style", p.StyleID)
			}
		}
		if p.OutlineLevel < 0 {
			p.OutlineLevel = eff.OutlineLevel
		}
		if p.NumID < 0 && eff.NumberingID >= 0 {
			p.NumID = eff.NumberingID
			if p.ILvl < 0 {
				p.ILvl = 0
			}
		}
		if p.NumID >= 0 && p.ILvl < 0 {
			p.ILvl = 0
		}
		p.IsHeading = eff.IsHeading || p.OutlineLevel >= 0
	}
}

// realizeNumbering walks paragraphs in document order, advancing one
// counter set per numbering definition. An item at level L increments
// counter L and resets every deeper counter, so deeper levels restart
// whenever a shallower item appears.
func realizeNumbering(m *Model) {
	counters := make(map[int][]int)

	for i := range m.Paragraphs {
		p := &m.Paragraphs[i]
		if p.NumID < 0 {
			continue
		}
		def, ok := m.Numbering[p.NumID]
		if !ok || p.ILvl < 0 || p.ILvl > 8 {
			continue
		}
		cnt, ok := counters[p.NumID]
		if !ok {
			cnt = make([]int, 9)
			for lvl := 0; lvl < 9; lvl++ {
				cnt[lvl] = levelStart(&def, lvl) - 1
			}
			counters[p.NumID] = cnt
		}
		cnt[p.ILvl]++
		for d := p.ILvl + 1; d < 9; d++ {
			cnt[d] = levelStart(&def, d) - 1
		}
		p.NumberText = ResolveNumberingText(&def, p.ILvl, cnt)
	}
}

func levelStart(def *NumberingDefinition, ilvl int) int {
	if l := def.LevelFor(ilvl); l != nil {
		return l.Start
	}
	return 1
}

// deriveHeadings projects heading paragraphs into the flat heading
// list used for navigation.
func deriveHeadings(m *Model) {
	counters := make(map[int][]int)
	for i := range m.Paragraphs {
		p := &m.Paragraphs[i]
		if p.NumID >= 0 {
			// Track realized counter paths alongside, for heading paths.
			if def, ok := m.Numbering[p.NumID]; ok && p.ILvl >= 0 && p.ILvl <= 8 {
				cnt, ok := counters[p.NumID]
				if !ok {
					cnt = make([]int, 9)
					for lvl := 0; lvl < 9; lvl++ {
						cnt[lvl] = levelStart(&def, lvl) - 1
					}
					counters[p.NumID] = cnt
				}
				cnt[p.ILvl]++
				for d := p.ILvl + 1; d < 9; d++ {
					cnt[d] = levelStart(&def, d) - 1
				}
			}
		}
		if !p.IsHeading {
			continue
		}
		level := p.OutlineLevel + 1
		if level <= 0 {
			level = headingLevelFromStyle(p.StyleID, "")
			if level == 0 {
				level = 1
			}
		}
		h := Heading{
			Text:   strings.TrimSpace(p.Text),
			Level:  level,
			Number: p.NumberText,
			Start:  p.Start,
		}
		if p.NumID >= 0 && p.ILvl >= 0 {
			if cnt, ok := counters[p.NumID]; ok {
				parts := make([]string, 0, p.ILvl+1)
				for lvl := 0; lvl <= p.ILvl; lvl++ {
					parts = append(parts, strconv.Itoa(cnt[lvl]))
				}
				h.Path = strings.Join(parts, ".")
			}
		}
		m.Headings = append(m.Headings, h)
	}
}
