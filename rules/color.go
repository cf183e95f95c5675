package rules

import (
	"fmt"
	"sort"

	"github.com/hazyhaar/doclint/docmodel"
	"github.com/hazyhaar/doclint/issue"
)

// ColorRule aggregates per-color character coverage and flags color
// misuse: too many distinct colors, differently colored runs close
// together, reserved low-contrast colors, and any single color
// covering too much of the document.
type ColorRule struct {
	MaxDistinctColors int
	Proximity         int     // rune distance between differently colored runs
	CoverageMax       float64 // single-color coverage ratio ceiling
}

func (r *ColorRule) ID() string               { return "color" }
func (r *ColorRule) Category() issue.Category { return issue.CatColor }

// lowContrastColors is the reserved palette that reads poorly on a
// white page.
var lowContrastColors = map[string]bool{
	"FFFFFF": true, "FFFF00": true, "C0C0C0": true,
	"D3D3D3": true, "E0E0E0": true, "F0F0F0": true,
	"EEEEEE": true, "FFFFCC": true,
}

func (r *ColorRule) Execute(m *docmodel.Model) []issue.Diagnostic {
	var out []issue.Diagnostic

	totalText := 0
	for i := range m.Paragraphs {
		p := &m.Paragraphs[i]
		totalText += p.TextEnd() - p.Start
	}
	if totalText == 0 {
		return nil
	}

	type colorUse struct {
		runes    int
		firstRun docmodel.Run
	}
	usage := make(map[string]*colorUse)
	var colored []docmodel.Run // non-default colored runs in order

	for i := range m.Paragraphs {
		for _, run := range m.Paragraphs[i].Runs {
			if run.Color == "" {
				continue
			}
			u, ok := usage[run.Color]
			if !ok {
				u = &colorUse{firstRun: run}
				usage[run.Color] = u
			}
			u.runes += run.End - run.Start
			colored = append(colored, run)
		}
	}
	if len(usage) == 0 {
		return nil
	}

	// Deterministic order for document-wide findings.
	colors := make([]string, 0, len(usage))
	for c := range usage {
		colors = append(colors, c)
	}
	sort.Slice(colors, func(i, j int) bool {
		return usage[colors[i]].firstRun.Start < usage[colors[j]].firstRun.Start
	})

	if len(colors) > r.MaxDistinctColors {
		over := usage[colors[r.MaxDistinctColors]].firstRun
		d := issue.New("color.count", issue.CatColor, issue.SevWarning,
			over.Start, over.End,
			fmt.Sprintf("文档使用了 %d 种非默认颜色，建议不超过 %d 种", len(colors), r.MaxDistinctColors))
		d.Suggestion = "减少文字颜色种类"
		out = append(out, d)
	}

	for i := 1; i < len(colored); i++ {
		prev, cur := colored[i-1], colored[i]
		if prev.Color != cur.Color && cur.Start-prev.End < r.Proximity {
			d := issue.New("color.proximity", issue.CatColor, issue.SevWarning,
				cur.Start, cur.End,
				fmt.Sprintf("相邻文字使用了不同颜色（%s 与 %s）", prev.Color, cur.Color))
			out = append(out, d)
		}
	}

	for _, c := range colors {
		u := usage[c]
		if lowContrastColors[c] {
			d := issue.New("color.palette", issue.CatColor, issue.SevWarning,
				u.firstRun.Start, u.firstRun.End,
				fmt.Sprintf("颜色 %s 对比度过低，正文中难以辨认", c))
			d.Suggestion = "换用对比度更高的颜色"
			out = append(out, d)
		}
		if ratio := float64(u.runes) / float64(totalText); ratio > r.CoverageMax {
			d := issue.New("color.coverage", issue.CatColor, issue.SevWarning,
				u.firstRun.Start, u.firstRun.End,
				fmt.Sprintf("颜色 %s 覆盖了 %.0f%% 的正文，超过 %.0f%% 上限", c, ratio*100, r.CoverageMax*100))
			d.Suggestion = "大面积文字应使用默认颜色"
			out = append(out, d)
		}
	}
	return out
}
