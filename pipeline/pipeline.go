// Package pipeline wires the full check together: package extraction,
// model build, concurrent rule execution, aggregation and render
// projection, behind one Check call.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"golang.org/x/sync/errgroup"
	"gopkg.in/yaml.v3"

	"github.com/hazyhaar/doclint/anchor"
	"github.com/hazyhaar/doclint/docmodel"
	"github.com/hazyhaar/doclint/idgen"
	"github.com/hazyhaar/doclint/report"
	"github.com/hazyhaar/doclint/rules"
)

// ErrNoInput is returned when neither a path nor a reader was given.
var ErrNoInput = errors.New("pipeline: no document input")

// ErrFileTooLarge is returned when the document exceeds MaxFileSize.
var ErrFileTooLarge = errors.New("pipeline: document exceeds size limit")

// Config tunes the pipeline. The zero value is usable; defaults fill
// in anything unset.
type Config struct {
	// MaxFileSize caps the .docx size in bytes (default: 50 MiB).
	MaxFileSize int64 `json:"max_file_size" yaml:"max_file_size"`

	// Rules carries the detection thresholds.
	Rules rules.Config `json:"rules" yaml:"rules"`

	// Logger receives structured progress and skip logs.
	// Defaults to slog.Default().
	Logger *slog.Logger `json:"-" yaml:"-"`

	// IDGen produces run identifiers.
	// Defaults to "chk_"-prefixed UUIDv7.
	IDGen idgen.Generator `json:"-" yaml:"-"`
}

func (c *Config) defaults() {
	if c.MaxFileSize <= 0 {
		c.MaxFileSize = 50 << 20
	}
	if c.Logger == nil {
		c.Logger = slog.Default()
	}
	if c.IDGen == nil {
		c.IDGen = idgen.Prefixed("chk_", idgen.Default)
	}
}

// LoadConfig reads a YAML config file.
func LoadConfig(path string) (Config, error) {
	var cfg Config
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("read config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config %s: %w", path, err)
	}
	return cfg, nil
}

// Input selects the document and, optionally, its rendered HTML.
// Exactly one of DocxPath or DocxReader must be set; DocxSize
// accompanies DocxReader.
type Input struct {
	DocxPath   string
	DocxReader io.ReaderAt
	DocxSize   int64
	RenderHTML string
}

// Report is the outcome of one check run.
type Report struct {
	RunID          string
	Model          *docmodel.Model
	Result         *report.Result
	AnnotatedHTML  string // "" when no render was supplied
	AnchorsLocated int
	AnchorsDropped int
}

// Pipeline runs checks. Construct once, use from any goroutine.
type Pipeline struct {
	cfg   Config
	rules []rules.Rule
}

// New builds a pipeline with the standard rule set.
func New(cfg Config) *Pipeline {
	cfg.defaults()
	return &Pipeline{cfg: cfg, rules: rules.Default(cfg.Rules)}
}

// Check runs the full pass over one document. Model building and
// render preparation proceed concurrently; a hard failure of either
// aborts the run. An empty RenderHTML skips projection, the report is
// still produced.
func (p *Pipeline) Check(ctx context.Context, in Input) (*Report, error) {
	runID := p.cfg.IDGen()
	logger := p.cfg.Logger.With("run_id", runID)

	var (
		m    *docmodel.Model
		rend *anchor.Render
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if err := gctx.Err(); err != nil {
			return err
		}
		var err error
		m, err = p.buildModel(in, logger)
		return err
	})
	if in.RenderHTML != "" {
		g.Go(func() error {
			var err error
			rend, err = anchor.Prepare(in.RenderHTML)
			if err != nil {
				return fmt.Errorf("prepare render: %w", err)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	diags := rules.Run(ctx, m, p.rules, logger)
	res := report.Aggregate(m, diags, logger)

	rep := &Report{RunID: runID, Model: m, Result: res}
	if rend != nil {
		proj, err := rend.Apply(m, res.Active, logger)
		if err != nil {
			return nil, fmt.Errorf("project diagnostics: %w", err)
		}
		rep.AnnotatedHTML = proj.HTML
		rep.AnchorsLocated = proj.Located
		rep.AnchorsDropped = proj.Dropped
	}

	logger.Info("check complete",
		"active", len(res.Active), "ignored", len(res.Ignored),
		"overall", res.Overall)
	return rep, nil
}

func (p *Pipeline) buildModel(in Input, logger *slog.Logger) (*docmodel.Model, error) {
	pkg, err := p.open(in)
	if err != nil {
		return nil, err
	}

	styles, err := docmodel.ParseStyles(pkg.Styles())
	if err != nil {
		// Optional part; a broken styles catalog degrades to defaults.
		logger.Warn("styles part unusable", "error", err)
		styles = nil
	}
	numbering, err := docmodel.ParseNumbering(pkg.Numbering())
	if err != nil {
		logger.Warn("numbering part unusable", "error", err)
		numbering = nil
	}

	m, err := docmodel.Build(pkg.Document(), styles, numbering, logger)
	if err != nil {
		return nil, fmt.Errorf("build model: %w", err)
	}
	return m, nil
}

func (p *Pipeline) open(in Input) (*docmodel.Package, error) {
	switch {
	case in.DocxPath != "":
		info, err := os.Stat(in.DocxPath)
		if err != nil {
			return nil, fmt.Errorf("stat %s: %w", in.DocxPath, err)
		}
		if info.Size() > p.cfg.MaxFileSize {
			return nil, fmt.Errorf("%w: %d bytes", ErrFileTooLarge, info.Size())
		}
		return docmodel.OpenPackage(in.DocxPath)
	case in.DocxReader != nil:
		if in.DocxSize > p.cfg.MaxFileSize {
			return nil, fmt.Errorf("%w: %d bytes", ErrFileTooLarge, in.DocxSize)
		}
		return docmodel.OpenPackageReader(in.DocxReader, in.DocxSize)
	}
	return nil, ErrNoInput
}
