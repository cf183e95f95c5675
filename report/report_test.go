package report

import (
	"log/slog"
	"strings"
	"testing"

	"github.com/hazyhaar/doclint/docmodel"
	"github.com/hazyhaar/doclint/issue"
)

const docHeader = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main"><w:body>`

func testModel(t *testing.T, text string) *docmodel.Model {
	t.Helper()
	var b strings.Builder
	b.WriteString(docHeader)
	b.WriteString(`<w:p><w:r><w:t xml:space="preserve">`)
	b.WriteString(text)
	b.WriteString(`</w:t></w:r></w:p></w:body></w:document>`)
	m, err := docmodel.Build(strings.NewReader(b.String()), nil, nil, slog.Default())
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	return m
}

func diag(rule string, sev issue.Severity, start, end int) issue.Diagnostic {
	return issue.New(rule, issue.CatPunctuation, sev, start, end, "msg")
}

// WHAT: invalid diagnostics (bad range, out of buffer) are dropped.
func TestAggregate_DropsInvalid(t *testing.T) {
	m := testModel(t, "hello world")

	diags := []issue.Diagnostic{
		diag("a", issue.SevWarning, 0, 2),
		diag("b", issue.SevWarning, 5, 5),    // empty range
		diag("c", issue.SevWarning, 3, 2),    // inverted
		diag("d", issue.SevWarning, 0, 9999), // past buffer end
	}
	res := Aggregate(m, diags, slog.Default())
	if len(res.Active) != 1 {
		t.Fatalf("active = %d, want 1", len(res.Active))
	}
	if res.Dropped != 3 {
		t.Errorf("dropped = %d, want 3", res.Dropped)
	}
}

// WHAT: duplicates keyed (rule, start, end) collapse to the first
// occurrence, even when the input carries several copies.
func TestAggregate_Dedup(t *testing.T) {
	m := testModel(t, "hello world")

	first := diag("dup", issue.SevWarning, 1, 3)
	first.Message = "first"
	first.ComputeID()
	second := diag("dup", issue.SevWarning, 1, 3)
	second.Message = "second"
	second.ComputeID()

	res := Aggregate(m, []issue.Diagnostic{first, second, second, first}, nil)
	if len(res.Active) != 1 {
		t.Fatalf("active = %d, want 1", len(res.Active))
	}
	if res.Active[0].Message != "first" {
		t.Errorf("kept %q, want first occurrence", res.Active[0].Message)
	}
}

// WHAT: overall level follows error and warning counts.
func TestAggregate_OverallLevel(t *testing.T) {
	m := testModel(t, strings.Repeat("x", 50))

	mk := func(nErr, nWarn int) []issue.Diagnostic {
		var out []issue.Diagnostic
		for i := 0; i < nErr; i++ {
			out = append(out, diag("e", issue.SevError, i, i+1))
		}
		for i := 0; i < nWarn; i++ {
			out = append(out, diag("w", issue.SevWarning, 20+i, 21+i))
		}
		return out
	}

	cases := []struct {
		name string
		in   []issue.Diagnostic
		want Level
	}{
		{"clean", nil, LevelLow},
		{"few warnings", mk(0, 3), LevelLow},
		{"one error", mk(1, 0), LevelMedium},
		{"many warnings", mk(0, 11), LevelMedium},
		{"many errors", mk(6, 0), LevelHigh},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			res := Aggregate(m, tc.in, nil)
			if res.Overall != tc.want {
				t.Errorf("overall = %s, want %s", res.Overall, tc.want)
			}
		})
	}
}

// WHAT: counts cover only active diagnostics; ignored ones are listed
// separately and excluded from the level.
func TestAggregate_IgnoredSplit(t *testing.T) {
	m := testModel(t, "hello world")

	ign := diag("e", issue.SevError, 0, 2)
	ign.Ignored = true
	res := Aggregate(m, []issue.Diagnostic{ign, diag("w", issue.SevWarning, 3, 5)}, nil)

	if len(res.Active) != 1 || len(res.Ignored) != 1 {
		t.Fatalf("active/ignored = %d/%d, want 1/1", len(res.Active), len(res.Ignored))
	}
	if res.Overall != LevelLow {
		t.Errorf("overall = %s, want low (error is ignored)", res.Overall)
	}
	if res.BySeverity["error"] != 0 {
		t.Errorf("ignored error counted in BySeverity")
	}
}

// WHAT: SetIgnored moves a diagnostic between lists and keeps the
// summary in sync; unknown ids report false.
func TestSetIgnored(t *testing.T) {
	m := testModel(t, "hello world")
	res := Aggregate(m, []issue.Diagnostic{diag("e", issue.SevError, 0, 2)}, nil)
	id := res.Active[0].ID

	if !SetIgnored(res, id, true) {
		t.Fatal("SetIgnored returned false for known id")
	}
	if len(res.Active) != 0 || len(res.Ignored) != 1 {
		t.Fatalf("active/ignored = %d/%d after ignore", len(res.Active), len(res.Ignored))
	}
	if res.Overall != LevelLow {
		t.Errorf("overall = %s after ignoring only error", res.Overall)
	}
	if !SetIgnored(res, id, false) {
		t.Fatal("SetIgnored returned false on restore")
	}
	if res.Overall != LevelMedium {
		t.Errorf("overall = %s after restore, want medium", res.Overall)
	}
	if SetIgnored(res, "nope", true) {
		t.Error("SetIgnored returned true for unknown id")
	}
}

// WHAT: output ordering is positional regardless of input order.
func TestAggregate_Sorted(t *testing.T) {
	m := testModel(t, "hello world")
	res := Aggregate(m, []issue.Diagnostic{
		diag("b", issue.SevWarning, 6, 8),
		diag("a", issue.SevWarning, 1, 3),
	}, nil)
	if res.Active[0].Start != 1 {
		t.Errorf("first active starts at %d, want 1", res.Active[0].Start)
	}
}
