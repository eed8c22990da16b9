package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/tsmeta/tsmeta/internal/compiler"
	"github.com/tsmeta/tsmeta/internal/emit"
	"github.com/tsmeta/tsmeta/internal/watcher"
)

type buildOptions struct {
	commonOptions
	clean  bool
	watch  bool
	timing bool
}

// runBuild executes the build pipeline:
// config -> program -> diagnostics -> transform -> reprogram -> emit.
// Declarations are emitted from the original program, JavaScript from the
// rewritten one.
func runBuild(args []string) int {
	buildFlags := flag.NewFlagSet("build", flag.ExitOnError)

	var o buildOptions
	o.register(buildFlags)
	buildFlags.BoolVar(&o.clean, "clean", false, "Clean output directory before building")
	buildFlags.BoolVar(&o.watch, "watch", false, "Rebuild when sources change")
	buildFlags.BoolVar(&o.timing, "timing", false, "Print a per-phase timing breakdown")

	buildFlags.Usage = func() {
		fmt.Println("Usage: tsmeta build [flags]")
		fmt.Println()
		fmt.Println("Flags:")
		buildFlags.PrintDefaults()
	}

	buildFlags.Parse(args)

	cwd, err := os.Getwd()
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: could not get working directory: %v\n", err)
		return 1
	}

	if o.watch {
		return watchBuild(cwd, o)
	}
	if _, ok := build(context.Background(), cwd, o); !ok {
		return 1
	}
	return 0
}

// build runs the pipeline once. It returns the project's outDir ("" when
// unknown) and whether the build succeeded.
func build(ctx context.Context, cwd string, o buildOptions) (string, bool) {
	buildStart := time.Now()
	var timing TimingReport

	s := transform(ctx, cwd, o.commonOptions, &timing)
	if s == nil {
		return "", false
	}
	outDir := s.project.OutDir()

	if o.clean && outDir != "" {
		if err := cleanDir(outDir); err != nil {
			fmt.Fprintf(os.Stderr, "warning: clean: %v\n", err)
		}
	}

	reprogramStart := time.Now()
	var rewrittenProject *compiler.Project
	rewritten := s.result.Rewritten()
	if len(rewritten) > 0 {
		next, diags, err := s.project.WithSources(rewritten)
		if err != nil {
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
			return outDir, false
		}
		if len(diags) > 0 {
			fmt.Fprint(os.Stderr, compiler.FormatDiagnostics(diags))
			return outDir, false
		}
		// The splice must leave every file parseable.
		if syntax := next.Diagnostics(ctx, true); compiler.CountErrors(syntax) > 0 {
			fmt.Fprintln(os.Stderr, "error: transformed sources do not parse:")
			compiler.NewDiagnosticReporter(os.Stderr, cwd, false).Report(syntax)
			return outDir, false
		}
		rewrittenProject = next
	}
	fmt.Fprintf(os.Stderr, "replaced %d marker call(s) in %d file(s)\n", s.result.CallCount(), len(rewritten))
	timing.Reprogram = time.Since(reprogramStart)

	emitStart := time.Now()
	writer := emit.NewWriter(s.cfg.Config.Marker.Module)
	result := emit.Transformed(ctx, s.project, rewrittenProject, rewritten, writer)
	if len(result.Diagnostics) > 0 {
		compiler.NewDiagnosticReporter(os.Stderr, cwd, compiler.IsPrettyOutput()).Report(result.Diagnostics)
	}
	if result.EmitSkipped {
		fmt.Fprintln(os.Stderr, "error: emit skipped")
		return outDir, false
	}
	timing.Emit = time.Since(emitStart)

	if written := writer.Written(); len(written) > 0 {
		fmt.Fprintf(os.Stderr, "emitted %d file(s)\n", len(written))
	} else {
		fmt.Fprintln(os.Stderr, "no files emitted")
	}
	for _, f := range writer.Leftover() {
		fmt.Fprintf(os.Stderr, "warning: %s still imports %q; marker calls left in it throw at runtime\n",
			relPath(cwd, f), s.cfg.Config.Marker.Module)
	}

	timing.Total = time.Since(buildStart)
	if o.timing {
		timing.Print()
	}
	return outDir, true
}

// watchBuild builds once, then rebuilds on every batch of source changes
// until interrupted. Failed builds are reported and watching continues.
func watchBuild(cwd string, o buildOptions) int {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	outDir, _ := build(ctx, cwd, o)
	o.clean = false

	ignore := []string{"node_modules", ".git"}
	if outDir != "" {
		ignore = append(ignore, filepath.FromSlash(outDir))
	}

	w := watcher.New(watcher.Options{
		Dirs:       []string{cwd},
		Extensions: []string{".ts", ".tsx", ".mts", ".cts", ".json"},
		IgnoreDirs: ignore,
	}, func(events []watcher.Event) {
		if ctx.Err() != nil {
			return
		}
		fmt.Fprintf(os.Stderr, "\n%s changed (%d change(s)), rebuilding...\n", relPath(cwd, events[0].Path), len(events))
		build(ctx, cwd, o)
	})

	fmt.Fprintln(os.Stderr, "watching for changes...")
	if err := w.Watch(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		return 1
	}
	fmt.Fprintln(os.Stderr, "stopped watching")
	return 0
}

// cleanDir removes a directory after safety checks.
func cleanDir(outDir string) error {
	if outDir == "/" || outDir == "." || outDir == ".." {
		return fmt.Errorf("refusing to clean dangerous path: %s", outDir)
	}

	if _, err := os.Stat(outDir); os.IsNotExist(err) {
		return nil
	}

	fmt.Fprintf(os.Stderr, "cleaning output directory: %s\n", outDir)
	return os.RemoveAll(outDir)
}
