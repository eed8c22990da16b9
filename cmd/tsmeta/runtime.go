package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/tsmeta/tsmeta/internal/descriptor"
)

// runRuntime implements "tsmeta runtime <dir>": install the marker module
// sources so the type checker can resolve meta<T>().
func runRuntime(args []string) int {
	runtimeFlags := flag.NewFlagSet("runtime", flag.ExitOnError)
	runtimeFlags.Usage = func() {
		fmt.Println("Usage: tsmeta runtime <dir>")
		fmt.Println()
		fmt.Printf("Writes the %s module (index.ts, package.json) into <dir>.\n", descriptor.DefaultModule)
	}
	runtimeFlags.Parse(args)

	if runtimeFlags.NArg() != 1 {
		runtimeFlags.Usage()
		return 1
	}

	written, err := descriptor.WriteRuntime(runtimeFlags.Arg(0))
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		return 1
	}
	for _, path := range written {
		fmt.Fprintf(os.Stderr, "wrote %s\n", path)
	}
	return 0
}
