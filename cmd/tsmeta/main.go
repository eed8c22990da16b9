package main

import (
	"fmt"
	"os"
	"strings"
)

const version = "0.1.0-dev"

func main() {
	os.Exit(run())
}

func run() int {
	if len(os.Args) < 2 {
		return runBuild(os.Args[1:])
	}

	switch os.Args[1] {
	case "build":
		return runBuild(os.Args[2:])
	case "dump":
		return runDump(os.Args[2:])
	case "runtime":
		return runRuntime(os.Args[2:])
	case "--version", "-v":
		fmt.Println("tsmeta", version)
		return 0
	case "--help", "-h":
		printUsage()
		return 0
	default:
		// A leading flag means build.
		if strings.HasPrefix(os.Args[1], "-") {
			return runBuild(os.Args[1:])
		}
		fmt.Fprintf(os.Stderr, "unknown command: %s\n", os.Args[1])
		printUsage()
		return 1
	}
}

func printUsage() {
	fmt.Println("tsmeta - TypeScript compiler that replaces meta<T>() calls with type descriptors")
	fmt.Println()
	fmt.Println("Usage:")
	fmt.Println("  tsmeta [flags]                Build project (default)")
	fmt.Println("  tsmeta build [flags]          Transform marker calls and emit JavaScript")
	fmt.Println("  tsmeta dump [flags]           Print every marker call and its descriptor as JSON")
	fmt.Println("  tsmeta runtime <dir>          Write the marker module into <dir>")
	fmt.Println()
	fmt.Println("Global Flags:")
	fmt.Println("  --version, -v          Print version and exit")
	fmt.Println("  --help, -h             Print this help message")
	fmt.Println()
	fmt.Println("Build Flags:")
	fmt.Println("  --project, -p <path>   Path to tsconfig.json (default: tsconfig.json)")
	fmt.Println("  --config <path>        Path to tsmeta.config.json")
	fmt.Println("  --clean                Clean output directory before building")
	fmt.Println("  --watch                Rebuild when sources change")
	fmt.Println("  --timing               Print a per-phase timing breakdown")
	fmt.Println("  --strict               Treat warnings as errors")
	fmt.Println("  --quiet                Suppress warnings and notes")
	fmt.Println()
	fmt.Println("Examples:")
	fmt.Println("  tsmeta")
	fmt.Println("  tsmeta build --project tsconfig.build.json --clean")
	fmt.Println("  tsmeta build --watch")
	fmt.Println("  tsmeta dump > descriptors.json")
	fmt.Println("  tsmeta runtime node_modules/ts-transformer-meta")
	fmt.Println()
}
