// Package rules implements the detection rule engine.
//
// Each rule scans the immutable document model and emits
// offset-addressed diagnostics. Rules are pure over the model and have
// no cross-rule dependencies, so the engine runs them as independent
// concurrent tasks. There is no shared registry: callers construct the
// rule list explicitly and pass it in.
package rules

import (
	"context"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"github.com/hazyhaar/doclint/docmodel"
	"github.com/hazyhaar/doclint/issue"
)

// Rule is one independent detection over the document model.
type Rule interface {
	ID() string
	Category() issue.Category
	Execute(m *docmodel.Model) []issue.Diagnostic
}

// Config carries the thresholds the standard rules use.
type Config struct {
	// MaxDistinctColors is how many non-default text colors a document
	// may use before the color rule complains (default: 2).
	MaxDistinctColors int `json:"max_distinct_colors" yaml:"max_distinct_colors"`

	// ColorProximity is the rune distance under which two differently
	// colored runs are flagged (default: 50).
	ColorProximity int `json:"color_proximity" yaml:"color_proximity"`

	// ColorCoverageMax is the coverage ratio above which a single color
	// is flagged as overused (default: 0.30).
	ColorCoverageMax float64 `json:"color_coverage_max" yaml:"color_coverage_max"`

	// TitleMaxRunes is the length under which an unterminated line may
	// pass as a title (default: 30).
	TitleMaxRunes int `json:"title_max_runes" yaml:"title_max_runes"`
}

func (c *Config) defaults() {
	if c.MaxDistinctColors <= 0 {
		c.MaxDistinctColors = 2
	}
	if c.ColorProximity <= 0 {
		c.ColorProximity = 50
	}
	if c.ColorCoverageMax <= 0 {
		c.ColorCoverageMax = 0.30
	}
	if c.TitleMaxRunes <= 0 {
		c.TitleMaxRunes = 30
	}
}

// Default returns the standard rule set.
func Default(cfg Config) []Rule {
	cfg.defaults()
	return []Rule{
		&PunctuationRule{TitleMaxRunes: cfg.TitleMaxRunes},
		&SpacingRule{},
		&ColorRule{
			MaxDistinctColors: cfg.MaxDistinctColors,
			Proximity:         cfg.ColorProximity,
			CoverageMax:       cfg.ColorCoverageMax,
		},
		&StructureRule{},
		&NumberingRule{},
	}
}

// Run executes the rules concurrently and merges their diagnostics.
// A panic inside one rule is recovered and logged; that rule yields
// zero diagnostics while the others proceed unaffected.
func Run(ctx context.Context, m *docmodel.Model, rules []Rule, logger *slog.Logger) []issue.Diagnostic {
	if logger == nil {
		logger = slog.Default()
	}

	results := make([][]issue.Diagnostic, len(rules))
	g, ctx := errgroup.WithContext(ctx)
	for i, r := range rules {
		i, r := i, r
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			defer func() {
				if rec := recover(); rec != nil {
					logger.Error("rule panicked, dropping its diagnostics", "rule", r.ID(), "panic", rec)
				}
			}()
			results[i] = r.Execute(m)
			return nil
		})
	}
	// Rules return no errors; the group only propagates cancellation.
	if err := g.Wait(); err != nil {
		logger.Warn("rule execution cancelled", "error", err)
	}

	var diags []issue.Diagnostic
	for _, rs := range results {
		diags = append(diags, rs...)
	}
	for i := range diags {
		if diags[i].Context == "" {
			diags[i].Context = m.Buffer.Context(diags[i].Start, diags[i].End, 12)
		}
	}
	issue.Sort(diags)
	return diags
}
