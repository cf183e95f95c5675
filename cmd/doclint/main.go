package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"

	"github.com/fatih/color"

	"github.com/hazyhaar/doclint/docmodel"
	"github.com/hazyhaar/doclint/issue"
	"github.com/hazyhaar/doclint/pipeline"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	switch os.Args[1] {
	case "check":
		cmdCheck(os.Args[2:])
	case "model":
		cmdModel(os.Args[2:])
	default:
		fmt.Fprintf(os.Stderr, "unknown command: %s\n", os.Args[1])
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Fprintf(os.Stderr, `doclint — quality checks for .docx documents

usage:
  doclint check [-config file.yaml] [-out annotated.html] <file.docx> [render.html]
  doclint model <file.docx>

check   Runs all detection rules and prints diagnostics. With a
        render.html argument, also writes annotated markup.
model   Prints the parsed paragraph and heading structure.
`)
}

func loadConfig(path string) pipeline.Config {
	if path == "" {
		return pipeline.Config{}
	}
	cfg, err := pipeline.LoadConfig(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}
	return cfg
}

func cmdCheck(args []string) {
	fs := flag.NewFlagSet("check", flag.ExitOnError)
	configPath := fs.String("config", "", "YAML config file")
	outPath := fs.String("out", "", "write annotated HTML to this file")
	verbose := fs.Bool("v", false, "debug logging")
	fs.Parse(args)

	if fs.NArg() < 1 {
		fmt.Fprintln(os.Stderr, "check requires a .docx path")
		os.Exit(1)
	}

	cfg := loadConfig(*configPath)
	level := slog.LevelWarn
	if *verbose {
		level = slog.LevelDebug
	}
	cfg.Logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	in := pipeline.Input{DocxPath: fs.Arg(0)}
	if fs.NArg() >= 2 {
		render, err := os.ReadFile(fs.Arg(1))
		if err != nil {
			fmt.Fprintf(os.Stderr, "read render: %v\n", err)
			os.Exit(1)
		}
		in.RenderHTML = string(render)
	}

	rep, err := pipeline.New(cfg).Check(context.Background(), in)
	if err != nil {
		fmt.Fprintf(os.Stderr, "check failed: %v\n", err)
		os.Exit(1)
	}

	for _, d := range rep.Result.Active {
		printDiagnostic(d)
	}
	fmt.Printf("\n%d issue(s), overall level: %s\n", len(rep.Result.Active), rep.Result.Overall)
	if in.RenderHTML != "" {
		fmt.Printf("anchors: %d located, %d dropped\n", rep.AnchorsLocated, rep.AnchorsDropped)
	}

	if *outPath != "" && rep.AnnotatedHTML != "" {
		if err := os.WriteFile(*outPath, []byte(rep.AnnotatedHTML), 0o644); err != nil {
			fmt.Fprintf(os.Stderr, "write annotated html: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("annotated html written to %s\n", *outPath)
	}

	if len(rep.Result.Active) > 0 {
		os.Exit(1)
	}
}

var (
	errorLabel = color.New(color.FgRed, color.Bold).SprintFunc()
	warnLabel  = color.New(color.FgYellow).SprintFunc()
	infoLabel  = color.New(color.FgCyan).SprintFunc()
	dimText    = color.New(color.Faint).SprintFunc()
)

func printDiagnostic(d issue.Diagnostic) {
	label := infoLabel("INFO ")
	switch d.Severity {
	case issue.SevError:
		label = errorLabel("ERROR")
	case issue.SevWarning:
		label = warnLabel("WARN ")
	}
	fmt.Printf("%s [%d:%d] %s %s\n", label, d.Start, d.End, d.Message, dimText("("+d.RuleID+")"))
	if d.Context != "" {
		fmt.Printf("      %s\n", dimText(d.Context))
	}
}

func cmdModel(args []string) {
	if len(args) < 1 {
		fmt.Fprintln(os.Stderr, "model requires a .docx path")
		os.Exit(1)
	}

	pkg, err := docmodel.OpenPackage(args[0])
	if err != nil {
		fmt.Fprintf(os.Stderr, "open: %v\n", err)
		os.Exit(1)
	}
	styles, err := docmodel.ParseStyles(pkg.Styles())
	if err != nil {
		fmt.Fprintf(os.Stderr, "styles: %v\n", err)
		styles = nil
	}
	numbering, err := docmodel.ParseNumbering(pkg.Numbering())
	if err != nil {
		fmt.Fprintf(os.Stderr, "numbering: %v\n", err)
		numbering = nil
	}
	m, err := docmodel.Build(pkg.Document(), styles, numbering, slog.Default())
	if err != nil {
		fmt.Fprintf(os.Stderr, "build: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("paragraphs: %d, headings: %d, buffer: %d runes\n\n",
		len(m.Paragraphs), len(m.Headings), m.Buffer.Len())
	for i, p := range m.Paragraphs {
		kind := "para"
		if p.IsHeading {
			kind = "head"
		}
		num := ""
		if p.NumberText != "" {
			num = " num=" + p.NumberText
		}
		fmt.Printf("%3d %s [%d:%d) style=%q%s %s\n",
			i, kind, p.Start, p.End, p.StyleID, num, truncate(p.Text, 40))
	}
	if len(m.Headings) > 0 {
		fmt.Println("\noutline:")
		for _, h := range m.Headings {
			indent := ""
			for i := 1; i < h.Level; i++ {
				indent += "  "
			}
			fmt.Printf("  %s%s %s\n", indent, h.Path, h.Text)
		}
	}
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "…"
}
