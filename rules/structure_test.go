package rules

import (
	"strings"
	"testing"

	"github.com/hazyhaar/doclint/issue"
)

func execStructure(t *testing.T, paras ...string) []issue.Diagnostic {
	t.Helper()
	r := &StructureRule{}
	return r.Execute(buildModel(t, paras...))
}

func TestStructure_Gap(t *testing.T) {
	// WHAT: Ordinals 1,2,4,5 produce exactly one gap diagnostic
	// naming 3.
	diags := byRule(execStructure(t, "1、第一项", "2、第二项", "4、第四项", "5、第五项"), "structure.gap")
	if len(diags) != 1 {
		t.Fatalf("diagnostics = %+v, want one", diags)
	}
	if !strings.Contains(diags[0].Message, "3") {
		t.Fatalf("message should name 3: %q", diags[0].Message)
	}
}

func TestStructure_NoGap(t *testing.T) {
	diags := execStructure(t, "1、第一项", "2、第二项", "3、第三项", "4、第四项")
	if got := byRule(diags, "structure"); len(got) != 0 {
		t.Fatalf("continuous sequence flagged: %+v", got)
	}
}

func TestStructure_MultipleGaps(t *testing.T) {
	diags := byRule(execStructure(t, "1、一", "3、三", "5、五"), "structure.gap")
	if len(diags) != 2 {
		t.Fatalf("diagnostics = %d, want 2 (%+v)", len(diags), diags)
	}
}

func TestStructure_NotStartingAtOne(t *testing.T) {
	diags := byRule(execStructure(t, "2、第二项", "3、第三项"), "structure.start")
	if len(diags) != 1 {
		t.Fatalf("diagnostics = %+v, want one", diags)
	}
}

func TestStructure_GapEnumeratesAll(t *testing.T) {
	diags := byRule(execStructure(t, "1、一", "5、五"), "structure.gap")
	if len(diags) != 1 {
		t.Fatalf("diagnostics = %+v, want one", diags)
	}
	for _, v := range []string{"2", "3", "4"} {
		if !strings.Contains(diags[0].Message, v) {
			t.Errorf("message should enumerate %s: %q", v, diags[0].Message)
		}
	}
}

func TestStructure_FamiliesIndependent(t *testing.T) {
	// WHAT: "(1)(2)" and "一、二、" are separate sequences; neither has
	// a gap even though they interleave.
	diags := execStructure(t, "(1) 括号一", "一、中文一", "(2) 括号二", "二、中文二")
	if got := byRule(diags, "structure"); len(got) != 0 {
		t.Fatalf("independent families flagged: %+v", got)
	}
}

func TestStructure_ChineseClause(t *testing.T) {
	diags := byRule(execStructure(t, "第一条 总则", "第三条 附则"), "structure.gap")
	if len(diags) != 1 {
		t.Fatalf("diagnostics = %+v, want one", diags)
	}
}

func TestStructure_LoneMarkerIgnored(t *testing.T) {
	diags := execStructure(t, "3、只有这一个编号", "普通段落。")
	if got := byRule(diags, "structure"); len(got) != 0 {
		t.Fatalf("lone marker flagged: %+v", got)
	}
}
