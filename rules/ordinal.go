package rules

import (
	"regexp"
	"strconv"
	"strings"
)

// ordinalFamily distinguishes manual numbering styles so that "1、",
// "(1)" and "第一条" sequences are continuity-checked independently.
type ordinalFamily string

const (
	famDecimal       ordinalFamily = "decimal"        // 1. 1、 1)
	famDecimalPath   ordinalFamily = "decimal-path"   // 1.1, 2.3.1
	famParen         ordinalFamily = "paren"          // (1) （1）
	famChineseClause ordinalFamily = "chinese-clause" // 第一条 第二章 第三节
	famChineseEnum   ordinalFamily = "chinese-enum"   // 一、 二、
	famRoman         ordinalFamily = "roman"          // I. II、
	famUpperLetter   ordinalFamily = "upper-letter"   // A. B、
	famLowerLetter   ordinalFamily = "lower-letter"   // a) b.
)

// ordinalMarker is one manual numbering marker found at a line start.
type ordinalMarker struct {
	family ordinalFamily
	value  int // declared ordinal value; 0 when unparseable
	start  int // absolute rune offset of the marker
	end    int // exclusive
	raw    string
}

var (
	parenPattern         = regexp.MustCompile(`^[(（](\d{1,3})[)）]`)
	decimalPathPattern   = regexp.MustCompile(`^(\d{1,3}(?:\.\d{1,3})+)(?:[.\s、]|$)`)
	decimalPattern       = regexp.MustCompile(`^(\d{1,3})[.、．)）]`)
	chineseClausePattern = regexp.MustCompile(`^第([零一二三四五六七八九十百]{1,4})[条章节项款]`)
	chineseEnumPattern   = regexp.MustCompile(`^([一二三四五六七八九十]{1,3})[、.．]`)
	romanPattern         = regexp.MustCompile(`^([IVXLCDM]{1,7})[.、)]`)
	letterUpperPattern   = regexp.MustCompile(`^([A-Z])[.、)）]`)
	letterLowerPattern   = regexp.MustCompile(`^([a-z])[.、)）]`)
)

// ordinalAt detects a manual ordinal marker at the start of a line.
// base is the absolute rune offset of the line start. Returns nil when
// the line carries no marker.
func ordinalAt(line string, base int) *ordinalMarker {
	trimmed := strings.TrimLeft(line, " \t　")
	lead := runeIndex(line, len(line)-len(trimmed))

	mk := func(fam ordinalFamily, m []string, value int) *ordinalMarker {
		raw := m[0]
		return &ordinalMarker{
			family: fam,
			value:  value,
			start:  base + lead,
			end:    base + lead + len([]rune(raw)),
			raw:    raw,
		}
	}

	if m := parenPattern.FindStringSubmatch(trimmed); m != nil {
		v, _ := strconv.Atoi(m[1])
		return mk(famParen, m, v)
	}
	if m := decimalPathPattern.FindStringSubmatch(trimmed); m != nil {
		// Multi-level path like "1.1"; value is the deepest component.
		parts := strings.Split(m[1], ".")
		v, _ := strconv.Atoi(parts[len(parts)-1])
		out := mk(famDecimalPath, m, v)
		out.raw = m[1]
		out.end = out.start + len([]rune(m[1]))
		return out
	}
	if m := decimalPattern.FindStringSubmatch(trimmed); m != nil {
		v, _ := strconv.Atoi(m[1])
		return mk(famDecimal, m, v)
	}
	if m := chineseClausePattern.FindStringSubmatch(trimmed); m != nil {
		return mk(famChineseClause, m, parseChineseNumeral(m[1]))
	}
	if m := chineseEnumPattern.FindStringSubmatch(trimmed); m != nil {
		return mk(famChineseEnum, m, parseChineseNumeral(m[1]))
	}
	if m := romanPattern.FindStringSubmatch(trimmed); m != nil {
		// Lone C/D/L/M read better as letters; only I, V and X are
		// unambiguous single-letter romans.
		sym := m[1]
		if len(sym) > 1 || sym == "I" || sym == "V" || sym == "X" {
			if v := parseRoman(sym); v > 0 {
				return mk(famRoman, m, v)
			}
		}
	}
	if m := letterUpperPattern.FindStringSubmatch(trimmed); m != nil {
		return mk(famUpperLetter, m, int(m[1][0]-'A')+1)
	}
	if m := letterLowerPattern.FindStringSubmatch(trimmed); m != nil {
		return mk(famLowerLetter, m, int(m[1][0]-'a')+1)
	}
	return nil
}

var chineseValues = map[rune]int{
	'零': 0, '一': 1, '二': 2, '三': 3, '四': 4,
	'五': 5, '六': 6, '七': 7, '八': 8, '九': 9,
}

// parseChineseNumeral reads counting numerals 1-99 ("十一" → 11).
// Returns 0 on anything it cannot read.
func parseChineseNumeral(s string) int {
	runes := []rune(s)
	if len(runes) == 0 {
		return 0
	}
	// No 十: single digit only.
	tenIdx := -1
	for i, r := range runes {
		if r == '十' {
			tenIdx = i
			break
		}
	}
	if tenIdx < 0 {
		if len(runes) == 1 {
			return chineseValues[runes[0]]
		}
		return 0
	}
	tens := 1
	if tenIdx == 1 {
		tens = chineseValues[runes[0]]
	} else if tenIdx > 1 {
		return 0
	}
	ones := 0
	rest := runes[tenIdx+1:]
	if len(rest) == 1 {
		ones = chineseValues[rest[0]]
	} else if len(rest) > 1 {
		return 0
	}
	return tens*10 + ones
}

var romanRunes = map[rune]int{
	'I': 1, 'V': 5, 'X': 10, 'L': 50, 'C': 100, 'D': 500, 'M': 1000,
}

// parseRoman reads a subtractive Roman numeral; 0 when invalid.
func parseRoman(s string) int {
	total := 0
	prev := 0
	for i := len(s) - 1; i >= 0; i-- {
		v, ok := romanRunes[rune(s[i])]
		if !ok {
			return 0
		}
		if v < prev {
			total -= v
		} else {
			total += v
			prev = v
		}
	}
	return total
}
