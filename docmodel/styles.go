package docmodel

import (
	"encoding/xml"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// Style is one entry of the style catalog. BasedOn forms a
// single-parent inheritance chain; chains in real documents are
// occasionally malformed (cycles, dangling ids), so resolution is
// bounded and falls back to the default style.
type Style struct {
	ID           string
	Type         string // "paragraph", "character", ...
	Name         string
	BasedOn      string
	Font         string
	Color        string
	SizeHalfPt   int
	Bold         bool
	Italic       bool
	Underline    bool
	OutlineLevel int // 0-based, -1 when none
	NumberingID  int // -1 when none
	IsHeading    bool
}

// maxStyleDepth bounds the basedOn chain walk.
const maxStyleDepth = 32

// DefaultStyle is what style resolution falls back to on cycles,
// overflow or unknown ids.
func DefaultStyle() Style {
	return Style{ID: "Normal", Type: "paragraph", Name: "Normal", OutlineLevel: -1, NumberingID: -1}
}

// XML mirror of word/styles.xml. encoding/xml matches local names, so
// the w: namespace needs no special handling.
type stylesXML struct {
	Styles []styleXML `xml:"style"`
}

type styleXML struct {
	Type    string   `xml:"type,attr"`
	StyleID string   `xml:"styleId,attr"`
	Name    valXML   `xml:"name"`
	BasedOn valXML   `xml:"basedOn"`
	PPr     *pPrXML  `xml:"pPr"`
	RPr     *rPrXML  `xml:"rPr"`
}

type valXML struct {
	Val string `xml:"val,attr"`
}

type pPrXML struct {
	OutlineLvl *valXML    `xml:"outlineLvl"`
	NumPr      *numPrXML  `xml:"numPr"`
}

type numPrXML struct {
	ILvl  *valXML `xml:"ilvl"`
	NumID *valXML `xml:"numId"`
}

type rPrXML struct {
	Fonts *struct {
		ASCII    string `xml:"ascii,attr"`
		EastAsia string `xml:"eastAsia,attr"`
	} `xml:"rFonts"`
	Color     *valXML `xml:"color"`
	Sz        *valXML `xml:"sz"`
	Bold      *valXML `xml:"b"`
	Italic    *valXML `xml:"i"`
	Underline *valXML `xml:"u"`
}

// ParseStyles decodes word/styles.xml into the style catalog. A nil
// reader (absent part) yields an empty catalog: the document degrades
// to default styling rather than failing.
func ParseStyles(r io.Reader) (map[string]Style, error) {
	styles := make(map[string]Style)
	if r == nil {
		return styles, nil
	}

	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read styles part: %w", err)
	}
	var doc stylesXML
	if err := xml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse styles part: %w", err)
	}

	for _, sx := range doc.Styles {
		if sx.StyleID == "" {
			continue
		}
		s := Style{
			ID:           sx.StyleID,
			Type:         sx.Type,
			Name:         sx.Name.Val,
			BasedOn:      sx.BasedOn.Val,
			OutlineLevel: -1,
			NumberingID:  -1,
		}
		if sx.PPr != nil {
			if sx.PPr.OutlineLvl != nil {
				if lvl, err := strconv.Atoi(sx.PPr.OutlineLvl.Val); err == nil {
					s.OutlineLevel = lvl
				}
			}
			if sx.PPr.NumPr != nil && sx.PPr.NumPr.NumID != nil {
				if id, err := strconv.Atoi(sx.PPr.NumPr.NumID.Val); err == nil {
					s.NumberingID = id
				}
			}
		}
		if sx.RPr != nil {
			if sx.RPr.Fonts != nil {
				s.Font = sx.RPr.Fonts.EastAsia
				if s.Font == "" {
					s.Font = sx.RPr.Fonts.ASCII
				}
			}
			if sx.RPr.Color != nil {
				s.Color = normalizeColor(sx.RPr.Color.Val)
			}
			if sx.RPr.Sz != nil {
				if sz, err := strconv.Atoi(sx.RPr.Sz.Val); err == nil {
					s.SizeHalfPt = sz
				}
			}
			s.Bold = toggleOn(sx.RPr.Bold)
			s.Italic = toggleOn(sx.RPr.Italic)
			s.Underline = sx.RPr.Underline != nil && sx.RPr.Underline.Val != "none"
		}
		s.IsHeading = headingLevelFromStyle(s.ID, s.Name) > 0 || (s.Type == "paragraph" && s.OutlineLevel >= 0)
		styles[s.ID] = s
	}
	return styles, nil
}

// toggleOn interprets OOXML on/off toggles: presence means on unless
// the val attribute explicitly disables it.
func toggleOn(v *valXML) bool {
	if v == nil {
		return false
	}
	switch strings.ToLower(v.Val) {
	case "0", "false", "none", "off":
		return false
	}
	return true
}

// normalizeColor upper-cases a hex color and maps "auto" to "".
func normalizeColor(v string) string {
	if v == "" || strings.EqualFold(v, "auto") {
		return ""
	}
	return strings.ToUpper(v)
}

// headingLevelFromStyle extracts a 1-based heading level from a style
// id or display name. Handles "Heading1", "heading 2", localized names
// ("标题 1", "Titre1") and the Title/Subtitle styles.
func headingLevelFromStyle(id, name string) int {
	for _, candidate := range []string{id, name} {
		lower := strings.ToLower(strings.TrimSpace(candidate))
		if lower == "title" {
			return 1
		}
		if lower == "subtitle" {
			return 2
		}
		for _, prefix := range []string{"heading", "titre", "überschrift", "标题"} {
			if strings.HasPrefix(lower, prefix) {
				rest := strings.TrimSpace(lower[len(prefix):])
				if n, err := strconv.Atoi(rest); err == nil && n >= 1 && n <= 9 {
					return n
				}
			}
		}
	}
	return 0
}

// ResolveStyle walks the basedOn chain of id and returns the effective
// style, with child settings overriding parent ones. The walk is
// bounded to maxStyleDepth and cycle-safe; on any malformation it
// returns the default style for the unresolved remainder.
func ResolveStyle(styles map[string]Style, id string) Style {
	chain := make([]Style, 0, 4)
	visited := make(map[string]bool)

	cur := id
	for depth := 0; cur != ""; depth++ {
		if depth >= maxStyleDepth || visited[cur] {
			// Cycle or overflow: discard what we walked so far.
			return DefaultStyle()
		}
		visited[cur] = true
		s, ok := styles[cur]
		if !ok {
			break
		}
		chain = append(chain, s)
		cur = s.BasedOn
	}
	if len(chain) == 0 {
		return DefaultStyle()
	}

	// Merge root-first so nearer styles override.
	eff := DefaultStyle()
	for i := len(chain) - 1; i >= 0; i-- {
		s := chain[i]
		eff.ID, eff.Type, eff.Name = s.ID, s.Type, s.Name
		if s.Font != "" {
			eff.Font = s.Font
		}
		if s.Color != "" {
			eff.Color = s.Color
		}
		if s.SizeHalfPt != 0 {
			eff.SizeHalfPt = s.SizeHalfPt
		}
		if s.Bold {
			eff.Bold = true
		}
		if s.Italic {
			eff.Italic = true
		}
		if s.Underline {
			eff.Underline = true
		}
		if s.OutlineLevel >= 0 {
			eff.OutlineLevel = s.OutlineLevel
		}
		if s.NumberingID >= 0 {
			eff.NumberingID = s.NumberingID
		}
		if s.IsHeading {
			eff.IsHeading = true
		}
	}
	return eff
}
