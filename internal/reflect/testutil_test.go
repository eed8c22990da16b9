package reflect

import (
	"context"
	"fmt"
	"maps"
	"slices"
	"strings"
	"testing"

	"github.com/go-json-experiment/json"
	"github.com/microsoft/typescript-go/shim/ast"
	"github.com/microsoft/typescript-go/shim/tspath"
	"github.com/tsmeta/tsmeta/internal/compiler"
	"github.com/tsmeta/tsmeta/internal/descriptor"
	"github.com/tsmeta/tsmeta/internal/overlay"
)

const testFile = "src/test.ts"

// reflectEnv holds a program over inline sources and a transformer bound to
// its checker.
type reflectEnv struct {
	root    string
	project *compiler.Project
	tr      *Transformer
}

// setupProject creates a tsgo program from inline TypeScript sources keyed
// by path relative to a temporary project root. The marker module is
// installed under node_modules. The checker is released on test cleanup.
func setupProject(t *testing.T, files map[string]string, opts Options) *reflectEnv {
	t.Helper()
	return setupProjectWith(t, files, nil, opts)
}

// setupProjectWith is setupProject with extra compilerOptions merged over
// the defaults.
func setupProjectWith(t *testing.T, files map[string]string, compilerOptions map[string]any, opts Options) *reflectEnv {
	t.Helper()

	root := tspath.NormalizePath(t.TempDir())
	virtual := make(map[string]string)
	for name, src := range files {
		virtual[root+"/"+name] = src
	}
	for name, src := range descriptor.RuntimeFiles() {
		virtual[root+"/node_modules/ts-transformer-meta/"+name] = src
	}

	var rootFiles []string
	for _, name := range slices.Sorted(maps.Keys(files)) {
		if strings.HasSuffix(name, ".ts") {
			rootFiles = append(rootFiles, name)
		}
	}
	options := map[string]any{
		"target":           "es2020",
		"lib":              []string{"es2020"},
		"module":           "esnext",
		"moduleResolution": "bundler",
		"outDir":           "dist",
		"skipLibCheck":     true,
	}
	maps.Copy(options, compilerOptions)
	tsconfig, err := json.Marshal(map[string]any{
		"compilerOptions": options,
		"files":           rootFiles,
	})
	if err != nil {
		t.Fatal(err)
	}
	virtual[root+"/tsconfig.json"] = string(tsconfig)

	project, diags, err := compiler.Load(true, overlay.NewDefault(virtual), root, "tsconfig.json")
	if err != nil {
		t.Fatalf("loading project: %v", err)
	}
	if len(diags) > 0 {
		t.Fatalf("project diagnostics:\n%s", compiler.FormatDiagnostics(diags))
	}

	checker, release, err := project.Checker(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(release)

	if opts.Marker == (descriptor.Marker{}) {
		defaults := DefaultOptions()
		opts.Marker = defaults.Marker
		if opts.MaxDepth == 0 {
			opts.MaxDepth = defaults.MaxDepth
		}
	}
	opts.Root = root
	return &reflectEnv{root: root, project: project, tr: New(checker, project.FS, opts)}
}

// sourceFile returns the program's source file for a root-relative name.
func (env *reflectEnv) sourceFile(t *testing.T, name string) *ast.SourceFile {
	t.Helper()
	sf := env.project.Program.GetSourceFile(env.root + "/" + name)
	if sf == nil {
		t.Fatalf("source file %q not found in program", name)
	}
	return sf
}

// transformSource transforms a single-file project holding src.
func transformSource(t *testing.T, src string) *FileResult {
	t.Helper()
	env := setupProject(t, map[string]string{testFile: src}, Options{})
	result, err := env.tr.TransformFile(env.sourceFile(t, testFile))
	if err != nil {
		t.Fatalf("TransformFile: %v", err)
	}
	return result
}

// onlyCall returns the descriptor of the single marker call in r.
func onlyCall(t *testing.T, r *FileResult) *descriptor.Descriptor {
	t.Helper()
	if len(r.Calls) != 1 {
		t.Fatalf("expected 1 marker call, got %d", len(r.Calls))
	}
	d := r.Calls[0].Descriptor
	if d == nil {
		t.Fatal("marker call has no descriptor")
	}
	if err := d.Validate(); err != nil {
		t.Fatalf("descriptor breaks schema: %v", err)
	}
	return d
}

// findCircular reports whether d or any descendant is a circular placeholder.
func findCircular(d *descriptor.Descriptor) bool {
	if d.Circular {
		return true
	}
	for i := range d.Properties {
		if findCircular(&d.Properties[i].Value) {
			return true
		}
	}
	for i := range d.Types {
		if findCircular(&d.Types[i]) {
			return true
		}
	}
	return false
}

func propertyNames(d *descriptor.Descriptor) []string {
	var names []string
	for _, p := range d.Properties {
		names = append(names, p.Name)
	}
	return names
}

func values(ds []descriptor.Descriptor) []string {
	var out []string
	for _, d := range ds {
		out = append(out, fmt.Sprint(d.Value))
	}
	return out
}
