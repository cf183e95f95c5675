package docmodel

import (
	"encoding/xml"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// NumberingLevel describes automatic number formatting for one list
// level. Pattern is the literal level text with %N placeholders, e.g.
// "%1.%2." for a second-level "1.2." label.
type NumberingLevel struct {
	Level   int
	Format  string // decimal, upperRoman, lowerLetter, chineseCounting, ...
	Pattern string
	Start   int
	Suffix  string // tab, space, nothing
}

// NumberingDefinition is one concrete numbering instance (w:num),
// already joined with its abstract definition.
type NumberingDefinition struct {
	ID     int
	Levels []NumberingLevel
}

// LevelFor returns the definition for ilvl, or nil when undeclared.
func (d *NumberingDefinition) LevelFor(ilvl int) *NumberingLevel {
	for i := range d.Levels {
		if d.Levels[i].Level == ilvl {
			return &d.Levels[i]
		}
	}
	return nil
}

type numberingXML struct {
	AbstractNums []abstractNumXML `xml:"abstractNum"`
	Nums         []numXML         `xml:"num"`
}

type abstractNumXML struct {
	ID     string   `xml:"abstractNumId,attr"`
	Levels []lvlXML `xml:"lvl"`
}

type lvlXML struct {
	ILvl    string `xml:"ilvl,attr"`
	Start   valXML `xml:"start"`
	NumFmt  valXML `xml:"numFmt"`
	LvlText valXML `xml:"lvlText"`
	Suff    valXML `xml:"suff"`
}

type numXML struct {
	NumID       string `xml:"numId,attr"`
	AbstractRef valXML `xml:"abstractNumId"`
}

// ParseNumbering decodes word/numbering.xml into a numId-keyed catalog.
// A nil reader (absent part) yields an empty catalog: the document
// simply has no automatic numbering.
func ParseNumbering(r io.Reader) (map[int]NumberingDefinition, error) {
	defs := make(map[int]NumberingDefinition)
	if r == nil {
		return defs, nil
	}

	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read numbering part: %w", err)
	}
	var doc numberingXML
	if err := xml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse numbering part: %w", err)
	}

	abstract := make(map[string][]NumberingLevel)
	for _, an := range doc.AbstractNums {
		levels := make([]NumberingLevel, 0, len(an.Levels))
		for _, lx := range an.Levels {
			ilvl, err := strconv.Atoi(lx.ILvl)
			if err != nil {
				continue
			}
			start := 1
			if s, err := strconv.Atoi(lx.Start.Val); err == nil && s >= 0 {
				start = s
			}
			levels = append(levels, NumberingLevel{
				Level:   ilvl,
				Format:  lx.NumFmt.Val,
				Pattern: lx.LvlText.Val,
				Start:   start,
				Suffix:  lx.Suff.Val,
			})
		}
		abstract[an.ID] = levels
	}

	for _, nx := range doc.Nums {
		id, err := strconv.Atoi(nx.NumID)
		if err != nil {
			continue
		}
		defs[id] = NumberingDefinition{ID: id, Levels: abstract[nx.AbstractRef.Val]}
	}
	return defs, nil
}

// FormatNumber renders n in the given OOXML number format. Letter
// formats wrap past "Z" back to "A" (27 → "A"); Chinese counting spells
// out 1-99 and falls back to digits above.
func FormatNumber(format string, n int) string {
	if n < 1 {
		return strconv.Itoa(n)
	}
	switch format {
	case "decimal", "decimalZero", "":
		return strconv.Itoa(n)
	case "upperRoman":
		return toRoman(n)
	case "lowerRoman":
		return strings.ToLower(toRoman(n))
	case "upperLetter":
		return toLetter(n)
	case "lowerLetter":
		return strings.ToLower(toLetter(n))
	case "chineseCounting", "chineseCountingThousand", "ideographDigital",
		"chineseLegalSimplified", "japaneseCounting", "taiwaneseCountingThousand":
		return toChinese(n)
	case "bullet", "none":
		return ""
	default:
		return strconv.Itoa(n)
	}
}

var romanValues = []struct {
	value  int
	symbol string
}{
	{1000, "M"}, {900, "CM"}, {500, "D"}, {400, "CD"},
	{100, "C"}, {90, "XC"}, {50, "L"}, {40, "XL"},
	{10, "X"}, {9, "IX"}, {5, "V"}, {4, "IV"}, {1, "I"},
}

// toRoman renders n as classic subtractive upper-case Roman numerals.
func toRoman(n int) string {
	var sb strings.Builder
	for _, rv := range romanValues {
		for n >= rv.value {
			sb.WriteString(rv.symbol)
			n -= rv.value
		}
	}
	return sb.String()
}

// toLetter maps 1→A … 26→Z, wrapping above 26.
func toLetter(n int) string {
	return string(rune('A' + (n-1)%26))
}

var chineseDigits = []rune("零一二三四五六七八九")

// toChinese spells out 1-99 in Chinese counting numerals; larger values
// fall back to Arabic digits.
func toChinese(n int) string {
	if n < 1 || n > 99 {
		return strconv.Itoa(n)
	}
	if n < 10 {
		return string(chineseDigits[n])
	}
	tens, ones := n/10, n%10
	var sb strings.Builder
	if tens > 1 {
		sb.WriteRune(chineseDigits[tens])
	}
	sb.WriteRune('十')
	if ones > 0 {
		sb.WriteRune(chineseDigits[ones])
	}
	return sb.String()
}

// ResolveNumberingText substitutes the current counters into the
// pattern of the given level. Placeholders %1..%9 refer to the counter
// of each level, formatted per that level's declared format.
func ResolveNumberingText(def *NumberingDefinition, ilvl int, counters []int) string {
	lvl := def.LevelFor(ilvl)
	if lvl == nil {
		return ""
	}
	out := lvl.Pattern
	if out == "" {
		out = "%" + strconv.Itoa(ilvl+1) + "."
	}
	for i := 0; i < len(counters) && i < 9; i++ {
		placeholder := "%" + strconv.Itoa(i+1)
		if !strings.Contains(out, placeholder) {
			continue
		}
		format := "decimal"
		if l := def.LevelFor(i); l != nil {
			format = l.Format
		}
		out = strings.ReplaceAll(out, placeholder, FormatNumber(format, counters[i]))
	}
	return out
}
