// Package issue defines the diagnostic type shared by the rule engine,
// the aggregator and the projector.
//
// A Diagnostic addresses a half-open rune range [Start, End) inside the
// document text buffer. Its ID is a pure function of rule, range and
// message, so re-running the same rules on the same document always
// reproduces the same identifiers.
package issue

import (
	"crypto/sha256"
	"fmt"
	"sort"
)

// Severity defines the importance of a diagnostic.
type Severity uint8

const (
	SevInfo Severity = iota
	SevWarning
	SevError
)

func (s Severity) String() string {
	switch s {
	case SevInfo:
		return "info"
	case SevWarning:
		return "warning"
	case SevError:
		return "error"
	}
	return "unknown"
}

// Category groups diagnostics by the concern they report on.
type Category string

const (
	CatPunctuation Category = "punctuation"
	CatSpacing     Category = "spacing"
	CatColor       Category = "color"
	CatStructure   Category = "structure"
	CatNumbering   Category = "numbering"
)

// Diagnostic is one reported issue.
type Diagnostic struct {
	ID         string   `json:"id"`
	RuleID     string   `json:"rule_id"`
	Category   Category `json:"category"`
	Severity   Severity `json:"severity"`
	Message    string   `json:"message"`
	Suggestion string   `json:"suggestion,omitempty"`
	Start      int      `json:"start"` // rune offset, inclusive
	End        int      `json:"end"`   // rune offset, exclusive
	Context    string   `json:"context,omitempty"`
	Ignored    bool     `json:"ignored"`
}

// ComputeID derives the stable content hash for this diagnostic and
// stores it. The hash covers rule id, range and message only; context
// snippets and suggestions do not influence identity.
func (d *Diagnostic) ComputeID() {
	h := sha256.Sum256(fmt.Appendf(nil, "%s|%d|%d|%s", d.RuleID, d.Start, d.End, d.Message))
	d.ID = fmt.Sprintf("%x", h[:8])
}

// New builds a diagnostic with its ID already computed.
func New(ruleID string, cat Category, sev Severity, start, end int, msg string) Diagnostic {
	d := Diagnostic{
		RuleID:   ruleID,
		Category: cat,
		Severity: sev,
		Message:  msg,
		Start:    start,
		End:      end,
	}
	d.ComputeID()
	return d
}

// Valid reports whether the diagnostic carries every required field and
// a well-formed range. The upper bound is checked by the aggregator,
// which knows the buffer length.
func (d *Diagnostic) Valid() bool {
	return d.ID != "" && d.RuleID != "" && d.Category != "" &&
		d.Message != "" && d.Start >= 0 && d.Start < d.End
}

// Sort orders diagnostics by start, end, severity (descending) and rule
// id, for a stable, deterministic output order.
func Sort(diags []Diagnostic) {
	sort.SliceStable(diags, func(i, j int) bool {
		di, dj := diags[i], diags[j]
		if di.Start != dj.Start {
			return di.Start < dj.Start
		}
		if di.End != dj.End {
			return di.End < dj.End
		}
		if di.Severity != dj.Severity {
			return di.Severity > dj.Severity
		}
		return di.RuleID < dj.RuleID
	})
}
