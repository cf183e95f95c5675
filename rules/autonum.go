package rules

import (
	"fmt"
	"strings"

	"github.com/hazyhaar/doclint/docmodel"
	"github.com/hazyhaar/doclint/issue"
)

// NumberingRule cross-checks declared automatic numbering against the
// realized text: manual markers duplicated on auto-numbered paragraphs,
// display mismatches between the two, and level jumps greater than one.
type NumberingRule struct{}

func (r *NumberingRule) ID() string               { return "numbering" }
func (r *NumberingRule) Category() issue.Category { return issue.CatNumbering }

func (r *NumberingRule) Execute(m *docmodel.Model) []issue.Diagnostic {
	var out []issue.Diagnostic
	prevLevel := make(map[int]int) // numId → last seen ilvl

	for i := range m.Paragraphs {
		p := &m.Paragraphs[i]
		if p.NumID < 0 || p.ILvl < 0 {
			continue
		}
		if _, declared := m.Numbering[p.NumID]; !declared {
			continue
		}

		if last, seen := prevLevel[p.NumID]; seen && p.ILvl > last+1 {
			d := issue.New("numbering.leveljump", issue.CatNumbering, issue.SevWarning,
				p.Start, p.Start+1,
				fmt.Sprintf("列表层级从 %d 跳到 %d，跳过了中间层级", last+1, p.ILvl+1))
			out = append(out, d)
		}
		prevLevel[p.NumID] = p.ILvl

		mk := ordinalAt(p.Text, p.Start)
		if mk == nil {
			continue
		}
		if labelsAgree(mk.raw, p.NumberText) {
			d := issue.New("numbering.conflict", issue.CatNumbering, issue.SevWarning,
				mk.start, mk.end,
				fmt.Sprintf("段落使用自动编号，文字中重复书写了编号“%s”", mk.raw))
			d.Suggestion = "删除手动编号，保留自动编号"
			out = append(out, d)
		} else {
			d := issue.New("numbering.mismatch", issue.CatNumbering, issue.SevWarning,
				mk.start, mk.end,
				fmt.Sprintf("手动编号“%s”与自动编号“%s”不一致", mk.raw, p.NumberText))
			out = append(out, d)
		}
	}
	return out
}

// labelsAgree compares a manual marker with the realized auto-number,
// ignoring separator punctuation.
func labelsAgree(manual, auto string) bool {
	if auto == "" {
		return false
	}
	return stripSeparators(manual) == stripSeparators(auto)
}

func stripSeparators(s string) string {
	return strings.TrimFunc(s, func(r rune) bool {
		switch r {
		case '.', '、', '．', ')', '）', '(', '（', ' ', '\t':
			return true
		}
		return false
	})
}
