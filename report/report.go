// Package report aggregates raw rule diagnostics into the ranked
// result handed to the consumer: validated, de-duplicated, split by
// ignore state and summarized per category and severity.
package report

import (
	"fmt"
	"log/slog"

	"github.com/hazyhaar/doclint/docmodel"
	"github.com/hazyhaar/doclint/issue"
)

// Level is the overall assessment of a document.
type Level string

const (
	LevelLow    Level = "low"
	LevelMedium Level = "medium"
	LevelHigh   Level = "high"
)

// Result is the aggregated outcome of one detection pass. The
// aggregator owns the diagnostics until the result is handed over;
// the Ignored flag is the only mutation permitted afterwards.
type Result struct {
	Active     []issue.Diagnostic          `json:"active"`
	Ignored    []issue.Diagnostic          `json:"ignored"`
	ByCategory map[issue.Category]int      `json:"by_category"`
	BySeverity map[string]int              `json:"by_severity"`
	Overall    Level                       `json:"overall"`
	Dropped    int                         `json:"dropped"` // invalid diagnostics discarded
}

// Aggregate validates, de-duplicates and ranks diagnostics.
//
// Validation drops entries with missing fields or ranges outside
// [0, buffer length). De-duplication treats (rule id, start, end) as
// identity, first occurrence winning, and repeats until a pass finds
// nothing — merged inputs can carry chains of duplicates.
func Aggregate(m *docmodel.Model, diags []issue.Diagnostic, logger *slog.Logger) *Result {
	if logger == nil {
		logger = slog.Default()
	}

	res := &Result{
		ByCategory: make(map[issue.Category]int),
		BySeverity: make(map[string]int),
	}

	valid := make([]issue.Diagnostic, 0, len(diags))
	for _, d := range diags {
		if !d.Valid() || d.End > m.Buffer.Len() {
			res.Dropped++
			continue
		}
		valid = append(valid, d)
	}
	if res.Dropped > 0 {
		logger.Warn("dropped invalid diagnostics", "count", res.Dropped)
	}

	for changed := true; changed; {
		valid, changed = dedupPass(valid)
	}
	issue.Sort(valid)

	for _, d := range valid {
		if d.Ignored {
			res.Ignored = append(res.Ignored, d)
			continue
		}
		res.Active = append(res.Active, d)
	}
	res.summarize()
	return res
}

// summarize recomputes the per-category and per-severity counts and
// the overall level from the active list.
func (r *Result) summarize() {
	r.ByCategory = make(map[issue.Category]int)
	r.BySeverity = make(map[string]int)
	errors, warnings := 0, 0
	for _, d := range r.Active {
		r.ByCategory[d.Category]++
		r.BySeverity[d.Severity.String()]++
		switch d.Severity {
		case issue.SevError:
			errors++
		case issue.SevWarning:
			warnings++
		}
	}
	switch {
	case errors > 5:
		r.Overall = LevelHigh
	case errors >= 1 || warnings > 10:
		r.Overall = LevelMedium
	default:
		r.Overall = LevelLow
	}
}

func dedupPass(diags []issue.Diagnostic) ([]issue.Diagnostic, bool) {
	seen := make(map[string]bool, len(diags))
	out := diags[:0]
	changed := false
	for _, d := range diags {
		key := fmt.Sprintf("%s:%d:%d", d.RuleID, d.Start, d.End)
		if seen[key] {
			changed = true
			continue
		}
		seen[key] = true
		out = append(out, d)
	}
	return out, changed
}

// SetIgnored flips the ignore flag of the diagnostic with the given id
// and moves it between the active and ignored lists. Returns false
// when the id is unknown.
func SetIgnored(res *Result, id string, ignored bool) bool {
	from, to := &res.Active, &res.Ignored
	if !ignored {
		from, to = to, from
	}
	for i := range *from {
		if (*from)[i].ID != id {
			continue
		}
		d := (*from)[i]
		d.Ignored = ignored
		*from = append((*from)[:i], (*from)[i+1:]...)
		*to = append(*to, d)
		issue.Sort(*to)
		res.summarize()
		return true
	}
	return false
}
