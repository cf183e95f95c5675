package rules

import (
	"bytes"
	"context"
	"encoding/xml"
	"log/slog"
	"strings"
	"testing"

	"github.com/hazyhaar/doclint/docmodel"
	"github.com/hazyhaar/doclint/issue"
)

const wNS = `xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main"`

// buildModel assembles a model from plain paragraph texts through the
// real document builder. Embedded "\n" become in-paragraph breaks.
func buildModel(t *testing.T, paras ...string) *docmodel.Model {
	t.Helper()
	var body strings.Builder
	for _, p := range paras {
		body.WriteString("<w:p><w:r>")
		for i, seg := range strings.Split(p, "\n") {
			if i > 0 {
				body.WriteString("<w:br/>")
			}
			body.WriteString(`<w:t xml:space="preserve">` + escapeXML(seg) + `</w:t>`)
		}
		body.WriteString("</w:r></w:p>")
	}
	raw := `<?xml version="1.0"?><w:document ` + wNS + `><w:body>` + body.String() + `</w:body></w:document>`
	m, err := docmodel.Build(strings.NewReader(raw), nil, nil, slog.Default())
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	return m
}

func escapeXML(s string) string {
	var buf bytes.Buffer
	xml.EscapeText(&buf, []byte(s))
	return buf.String()
}

// byRule filters diagnostics by rule id prefix.
func byRule(diags []issue.Diagnostic, prefix string) []issue.Diagnostic {
	var out []issue.Diagnostic
	for _, d := range diags {
		if strings.HasPrefix(d.RuleID, prefix) {
			out = append(out, d)
		}
	}
	return out
}

func TestRun_MergesAndSorts(t *testing.T) {
	m := buildModel(t, "这是hello测试", "1、条目一", "3、条目二")
	diags := Run(context.Background(), m, Default(Config{}), slog.Default())

	for i := 1; i < len(diags); i++ {
		if diags[i].Start < diags[i-1].Start {
			t.Fatalf("diagnostics not sorted by start: %d before %d", diags[i-1].Start, diags[i].Start)
		}
	}
	for _, d := range diags {
		if d.ID == "" || d.Context == "" {
			t.Fatalf("diagnostic missing id or context: %+v", d)
		}
	}
}

func TestRun_Deterministic(t *testing.T) {
	// WHAT: Re-running the rules on the same document yields identical
	// diagnostic ids and ranges.
	m := buildModel(t, "这是hello测试。", "结尾没有标点的很长的一句话确实是没有标点符号，而且句子内部还有分隔符号存在着")
	first := Run(context.Background(), m, Default(Config{}), slog.Default())
	second := Run(context.Background(), m, Default(Config{}), slog.Default())

	if len(first) == 0 {
		t.Fatal("expected diagnostics")
	}
	if len(first) != len(second) {
		t.Fatalf("run sizes differ: %d vs %d", len(first), len(second))
	}
	for i := range first {
		if first[i].ID != second[i].ID || first[i].Start != second[i].Start || first[i].End != second[i].End {
			t.Fatalf("run %d differs: %+v vs %+v", i, first[i], second[i])
		}
	}
}

type panicRule struct{}

func (panicRule) ID() string                                       { return "panic" }
func (panicRule) Category() issue.Category                         { return issue.CatStructure }
func (panicRule) Execute(*docmodel.Model) []issue.Diagnostic       { panic("boom") }

func TestRun_RecoversPanickingRule(t *testing.T) {
	// WHAT: A failing rule yields zero diagnostics; others proceed.
	m := buildModel(t, "这是hello测试")
	rules := append(Default(Config{}), panicRule{})
	diags := Run(context.Background(), m, rules, slog.Default())

	if len(byRule(diags, "spacing.script")) != 2 {
		t.Fatalf("surviving rules lost output: %+v", diags)
	}
}

func TestEndToEnd_MixedDocument(t *testing.T) {
	// WHAT: The two-paragraph scenario: a mixed-script sentence and a
	// manually numbered list with a gap.
	m := buildModel(t, "第一段中文text混排。", "1、条目一\n3、条目二")
	diags := Run(context.Background(), m, Default(Config{}), slog.Default())

	p1 := m.Paragraphs[0]
	spacing := byRule(diags, "spacing.script")
	if len(spacing) == 0 {
		t.Fatal("expected mixed-language spacing diagnostics")
	}
	for _, d := range spacing {
		if d.Start < p1.Start || d.End > p1.End {
			t.Fatalf("spacing diagnostic outside paragraph 1: %+v", d)
		}
	}

	p2 := m.Paragraphs[1]
	gaps := byRule(diags, "structure.gap")
	if len(gaps) != 1 {
		t.Fatalf("gap diagnostics = %d, want 1 (%+v)", len(gaps), gaps)
	}
	if !strings.Contains(gaps[0].Message, "2") {
		t.Fatalf("gap message should name 2: %q", gaps[0].Message)
	}
	if gaps[0].Start < p2.Start || gaps[0].End > p2.End {
		t.Fatalf("gap diagnostic outside paragraph 2: %+v", gaps[0])
	}

	if punct := byRule(diags, "punct"); len(punct) != 0 {
		t.Fatalf("expected zero punctuation diagnostics, got %+v", punct)
	}
}
