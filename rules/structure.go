package rules

import (
	"fmt"
	"sort"
	"strings"

	"github.com/hazyhaar/doclint/docmodel"
	"github.com/hazyhaar/doclint/issue"
)

// StructureRule checks the continuity of manual ordinal markers. It
// collects markers per line, groups them by family, sorts each family
// by declared value and reports one diagnostic per gap plus one when a
// sequence does not start at 1.
type StructureRule struct{}

func (r *StructureRule) ID() string               { return "structure" }
func (r *StructureRule) Category() issue.Category { return issue.CatStructure }

func (r *StructureRule) Execute(m *docmodel.Model) []issue.Diagnostic {
	groups := make(map[ordinalFamily][]*ordinalMarker)
	for _, ln := range lineSpans(m.Buffer) {
		text := m.Buffer.Slice(ln.start, ln.end)
		mk := ordinalAt(text, ln.start)
		if mk == nil || mk.value <= 0 {
			continue
		}
		// Multi-level paths belong to the auto-numbering cross-check,
		// not to flat continuity analysis.
		if mk.family == famDecimalPath {
			continue
		}
		groups[mk.family] = append(groups[mk.family], mk)
	}

	var out []issue.Diagnostic
	for _, markers := range groups {
		// A lone marker is not a sequence.
		if len(markers) < 2 {
			continue
		}
		sort.SliceStable(markers, func(i, j int) bool { return markers[i].value < markers[j].value })

		if first := markers[0]; first.value != 1 {
			d := issue.New("structure.start", issue.CatStructure, issue.SevWarning,
				first.start, first.end,
				fmt.Sprintf("编号“%s”未从 1 开始", first.raw))
			out = append(out, d)
		}
		for i := 1; i < len(markers); i++ {
			prev, cur := markers[i-1], markers[i]
			if cur.value <= prev.value+1 {
				continue
			}
			missing := make([]string, 0, cur.value-prev.value-1)
			for v := prev.value + 1; v < cur.value; v++ {
				missing = append(missing, fmt.Sprintf("%d", v))
			}
			d := issue.New("structure.gap", issue.CatStructure, issue.SevWarning,
				cur.start, cur.end,
				fmt.Sprintf("编号不连续：缺少 %s", strings.Join(missing, "、")))
			d.Suggestion = "补齐缺失的编号或调整现有编号"
			out = append(out, d)
		}
	}
	return out
}
