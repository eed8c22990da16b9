package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/tsmeta/tsmeta/internal/compiler"
	"github.com/tsmeta/tsmeta/internal/config"
	"github.com/tsmeta/tsmeta/internal/diagnostic"
	"github.com/tsmeta/tsmeta/internal/reflect"
)

// TimingReport collects timing data for each build pipeline phase.
type TimingReport struct {
	Config      time.Duration
	Program     time.Duration
	Diagnostics time.Duration
	Transform   time.Duration
	Reprogram   time.Duration
	Emit        time.Duration
	Total       time.Duration
}

// Print outputs the build timing breakdown to stderr.
func (t *TimingReport) Print() {
	fmt.Fprintf(os.Stderr, "\n--- timing ---\n")
	fmt.Fprintf(os.Stderr, "  config:        %s\n", t.Config.Round(time.Millisecond))
	fmt.Fprintf(os.Stderr, "  program:       %s\n", t.Program.Round(time.Millisecond))
	fmt.Fprintf(os.Stderr, "  diagnostics:   %s\n", t.Diagnostics.Round(time.Millisecond))
	fmt.Fprintf(os.Stderr, "  transform:     %s\n", t.Transform.Round(time.Millisecond))
	fmt.Fprintf(os.Stderr, "  reprogram:     %s\n", t.Reprogram.Round(time.Millisecond))
	fmt.Fprintf(os.Stderr, "  emit:          %s\n", t.Emit.Round(time.Millisecond))
	fmt.Fprintf(os.Stderr, "  total:         %s\n", t.Total.Round(time.Millisecond))
}

// commonOptions are the flags shared by build and dump.
type commonOptions struct {
	configPath   string
	tsconfigPath string
	strict       bool
	quiet        bool
}

func (o *commonOptions) register(fs *flag.FlagSet) {
	fs.StringVar(&o.configPath, "config", "", "Path to tsmeta config file (tsmeta.config.json)")
	fs.StringVar(&o.tsconfigPath, "project", "tsconfig.json", "Path to tsconfig.json (or use -p)")
	fs.StringVar(&o.tsconfigPath, "p", "tsconfig.json", "Path to tsconfig.json (shorthand for --project)")
	fs.BoolVar(&o.strict, "strict", false, "Treat warnings as errors")
	fs.BoolVar(&o.quiet, "quiet", false, "Suppress warnings and notes")
}

// ConfigResult holds the result of loading a tsmeta config file.
type ConfigResult struct {
	Config *config.Config
	Path   string // resolved absolute path to config file (empty if none found)
	Dir    string // directory containing the config file (defaults to cwd)
}

// loadOrDiscoverConfig loads a tsmeta config from the given path, or
// auto-discovers one in the working directory if configPath is empty.
// Without either, the defaults apply.
func loadOrDiscoverConfig(configPath, cwd string) (*ConfigResult, error) {
	cfg, path, err := config.LoadOrDefault(configPath, cwd)
	if err != nil {
		return nil, err
	}
	result := &ConfigResult{Config: cfg, Path: path, Dir: cwd}
	if path != "" {
		result.Dir = filepath.Dir(path)
	}
	return result, nil
}

// session is a loaded config and a transformed program, the shared front
// half of build and dump.
type session struct {
	cfg     *ConfigResult
	project *compiler.Project
	result  *reflect.Result
}

// transform loads the config and the project, refuses to continue on
// TypeScript errors, and transforms every selected file. Progress and
// problems go to stderr; a nil session means the command failed.
func transform(ctx context.Context, cwd string, o commonOptions, timing *TimingReport) *session {
	start := time.Now()
	cr, err := loadOrDiscoverConfig(o.configPath, cwd)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		return nil
	}
	if cr.Path != "" {
		fmt.Fprintf(os.Stderr, "loaded config from %s\n", relPath(cwd, cr.Path))
		cfgDiags := diagnostic.NewCollector(o.strict, o.quiet)
		for _, w := range cr.Config.ValidateDetailed().Warnings {
			cfgDiags.Warn(diagnostic.CategoryConfigInvalid, cr.Path, 0, 0, w)
		}
		printDiagnostics(os.Stderr, cwd, cfgDiags)
		if cfgDiags.HasErrors() {
			fmt.Fprintf(os.Stderr, "%s\n", cfgDiags.Summary())
			return nil
		}
	}
	timing.Config = time.Since(start)

	start = time.Now()
	project, diags, err := compiler.LoadFromDisk(cwd, o.tsconfigPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		return nil
	}
	if len(diags) > 0 {
		fmt.Fprint(os.Stderr, compiler.FormatDiagnostics(diags))
		return nil
	}
	timing.Program = time.Since(start)

	start = time.Now()
	tsDiags := project.Diagnostics(ctx, false)
	if compiler.CountErrors(tsDiags) > 0 {
		compiler.NewDiagnosticReporter(os.Stderr, cwd, compiler.IsPrettyOutput()).Report(tsDiags)
		return nil
	}
	timing.Diagnostics = time.Since(start)

	start = time.Now()
	opts := reflect.OptionsFromConfig(cr.Config, cr.Dir)
	opts.Strict = o.strict
	opts.Quiet = o.quiet
	result, err := reflect.TransformProgram(ctx, project, opts)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		return nil
	}
	timing.Transform = time.Since(start)

	printDiagnostics(os.Stderr, cwd, result.Diagnostics)
	if result.Diagnostics.HasErrors() {
		fmt.Fprintf(os.Stderr, "%s\n", result.Diagnostics.Summary())
		return nil
	}
	return &session{cfg: cr, project: project, result: result}
}

// printDiagnostics writes transform diagnostics with file paths relative
// to cwd.
func printDiagnostics(w io.Writer, cwd string, c *diagnostic.Collector) {
	for _, d := range c.Diagnostics() {
		if d.File != "" {
			d.File = relPath(cwd, d.File)
		}
		fmt.Fprintln(w, d.String())
	}
}

func relPath(cwd, path string) string {
	if rel, err := filepath.Rel(cwd, filepath.FromSlash(path)); err == nil {
		return rel
	}
	return path
}
