package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"slices"

	"github.com/go-json-experiment/json"
	"github.com/go-json-experiment/json/jsontext"
	"github.com/tsmeta/tsmeta/internal/reflect"
)

// runDump implements "tsmeta dump": transform without emitting and print
// every marker call with its descriptor as JSON to stdout.
func runDump(args []string) int {
	dumpFlags := flag.NewFlagSet("dump", flag.ExitOnError)

	var o commonOptions
	o.register(dumpFlags)

	dumpFlags.Usage = func() {
		fmt.Println("Usage: tsmeta dump [flags]")
		fmt.Println()
		fmt.Println("Flags:")
		dumpFlags.PrintDefaults()
	}

	dumpFlags.Parse(args)

	cwd, err := os.Getwd()
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: could not get working directory: %v\n", err)
		return 1
	}
	return dump(context.Background(), cwd, o, os.Stdout)
}

func dump(ctx context.Context, cwd string, o commonOptions, w io.Writer) int {
	var timing TimingReport
	s := transform(ctx, cwd, o, &timing)
	if s == nil {
		return 1
	}

	files := make([]*reflect.FileResult, 0, len(s.result.Files))
	for _, f := range s.result.Files {
		if len(f.Calls) == 0 {
			continue
		}
		rel := *f
		rel.FileName = relPath(cwd, f.FileName)
		rel.Diagnostics = slices.Clone(f.Diagnostics)
		for i := range rel.Diagnostics {
			rel.Diagnostics[i].File = relPath(cwd, rel.Diagnostics[i].File)
		}
		files = append(files, &rel)
	}

	if err := json.MarshalWrite(w, files, jsontext.WithIndent("  ")); err != nil {
		fmt.Fprintf(os.Stderr, "error encoding JSON: %v\n", err)
		return 1
	}
	fmt.Fprintln(w)
	return 0
}
