package rules

import (
	"testing"

	"github.com/hazyhaar/doclint/issue"
)

func execSpacing(t *testing.T, paras ...string) []issue.Diagnostic {
	t.Helper()
	r := &SpacingRule{}
	return r.Execute(buildModel(t, paras...))
}

func TestSpacing_ScriptBoundaries(t *testing.T) {
	// WHAT: "这是hello测试" misses a space before and after the Latin
	// run: exactly two diagnostics.
	diags := byRule(execSpacing(t, "这是hello测试"), "spacing.script")
	if len(diags) != 2 {
		t.Fatalf("diagnostics = %d, want 2 (%+v)", len(diags), diags)
	}
	if diags[0].Start != 1 || diags[0].End != 3 {
		t.Errorf("first boundary = [%d,%d), want [1,3)", diags[0].Start, diags[0].End)
	}
	if diags[1].Start != 6 || diags[1].End != 8 {
		t.Errorf("second boundary = [%d,%d), want [6,8)", diags[1].Start, diags[1].End)
	}
}

func TestSpacing_ProperlySpaced(t *testing.T) {
	diags := byRule(execSpacing(t, "这是 hello 测试"), "spacing.script")
	if len(diags) != 0 {
		t.Fatalf("expected none, got %+v", diags)
	}
}

func TestSpacing_CJKDigit(t *testing.T) {
	diags := byRule(execSpacing(t, "共有3个苹果"), "spacing.script")
	if len(diags) != 2 {
		t.Fatalf("diagnostics = %d, want 2 (%+v)", len(diags), diags)
	}
}

func TestSpacing_ExcludesURLs(t *testing.T) {
	// WHAT: Script boundaries inside URL tokens are not reported.
	diags := byRule(execSpacing(t, "详见https://example.com/说明文档"), "spacing.script")
	for _, d := range diags {
		if d.Start > 2 {
			t.Fatalf("boundary inside URL flagged: %+v", d)
		}
	}
}

func TestSpacing_ExcludesInlineCode(t *testing.T) {
	diags := byRule(execSpacing(t, "运行`ls须知`命令"), "spacing.script")
	if len(diags) != 0 {
		t.Fatalf("code span should be excluded, got %+v", diags)
	}
}

func TestSpacing_MultipleSpaces(t *testing.T) {
	diags := byRule(execSpacing(t, "word  word"), "spacing.multiple")
	if len(diags) != 1 {
		t.Fatalf("diagnostics = %+v, want one", diags)
	}
}

func TestSpacing_Trailing(t *testing.T) {
	diags := byRule(execSpacing(t, "行尾有空白  "), "spacing.trailing")
	if len(diags) != 1 {
		t.Fatalf("diagnostics = %+v, want one", diags)
	}
	if diags[0].Severity != issue.SevInfo {
		t.Errorf("trailing whitespace is cosmetic, got %v", diags[0].Severity)
	}
}

func TestSpacing_BlankLines(t *testing.T) {
	diags := byRule(execSpacing(t, "第一段。", "", "", "第二段。"), "spacing.blank")
	if len(diags) != 1 {
		t.Fatalf("diagnostics = %+v, want one for the blank run", diags)
	}
}

func TestSpacing_Separators(t *testing.T) {
	diags := byRule(execSpacing(t, "alpha,beta"), "spacing.separator")
	if len(diags) != 1 {
		t.Fatalf("diagnostics = %+v, want one", diags)
	}
	// Thousands separators are fine.
	diags = byRule(execSpacing(t, "共计1,000元"), "spacing.separator")
	if len(diags) != 0 {
		t.Fatalf("number separator flagged: %+v", diags)
	}
}
