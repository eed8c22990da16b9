// Package reflect replaces calls of the marker function meta<T>() with object
// literals describing T, using the typescript-go checker to resolve types.
package reflect

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/microsoft/typescript-go/shim/ast"
	shimchecker "github.com/microsoft/typescript-go/shim/checker"
	"github.com/microsoft/typescript-go/shim/tspath"
	"github.com/microsoft/typescript-go/shim/vfs"
	"github.com/tsmeta/tsmeta/internal/compiler"
	"github.com/tsmeta/tsmeta/internal/config"
	"github.com/tsmeta/tsmeta/internal/descriptor"
	"github.com/tsmeta/tsmeta/internal/diagnostic"
	"github.com/tsmeta/tsmeta/internal/glob"
	"github.com/tsmeta/tsmeta/internal/literal"
)

var (
	// ErrUnresolvedType is returned when the checker yields no type for a
	// marker call's type argument.
	ErrUnresolvedType = errors.New("type argument could not be resolved")
	// ErrCircularType is returned for a self-referential type when cycles
	// are configured to fail.
	ErrCircularType = errors.New("circular type")
)

// Options configures a Transformer.
type Options struct {
	Marker descriptor.Marker
	// MarkerFiles are extra files whose marker-named function declarations
	// count as the marker regardless of package.json.
	MarkerFiles []string
	// MaxDepth bounds descriptor nesting; 0 disables the bound.
	MaxDepth    int
	FailOnCycle bool

	// Root is the directory that Files patterns are relative to.
	Root  string
	Files glob.Set

	Strict bool
	Quiet  bool
}

// DefaultOptions recognizes ts-transformer-meta#meta with the default depth.
func DefaultOptions() Options {
	return Options{
		Marker:   descriptor.DefaultMarker,
		MaxDepth: config.DefaultMaxDepth,
	}
}

// OptionsFromConfig derives transformer options from a loaded config. root
// is the project directory.
func OptionsFromConfig(cfg *config.Config, root string) Options {
	return Options{
		Marker:      cfg.MarkerID(),
		MarkerFiles: cfg.Marker.Files,
		MaxDepth:    cfg.Recursion.MaxDepth,
		FailOnCycle: cfg.Recursion.OnCycle == config.OnCycleError,
		Root:        root,
		Files:       glob.Set{Include: cfg.Include, Exclude: cfg.Exclude},
	}
}

// Transformer rewrites marker calls in source files of one program.
// It is not safe for concurrent use.
type Transformer struct {
	checker      *shimchecker.Checker
	fs           vfs.FS
	opts         Options
	markerFiles  map[string]bool
	packageNames map[string]string
}

// New creates a transformer that resolves types with checker and reads
// package.json files through fs.
func New(checker *shimchecker.Checker, fs vfs.FS, opts Options) *Transformer {
	tr := &Transformer{
		checker:      checker,
		fs:           fs,
		opts:         opts,
		markerFiles:  make(map[string]bool, len(opts.MarkerFiles)),
		packageNames: make(map[string]string),
	}
	for _, f := range opts.MarkerFiles {
		tr.markerFiles[tspath.NormalizePath(f)] = true
	}
	return tr
}

// Call is one replaced marker call.
type Call struct {
	Line   int `json:"line"`
	Column int `json:"column"`
	// TypeText is the source text of the type argument, "" when absent.
	TypeText   string                 `json:"type,omitzero"`
	Descriptor *descriptor.Descriptor `json:"descriptor,omitzero"`
}

// FileResult is the outcome of transforming one source file.
type FileResult struct {
	FileName    string                  `json:"file"`
	Text        string                  `json:"-"`
	Changed     bool                    `json:"-"`
	Calls       []Call                  `json:"calls"`
	Diagnostics []diagnostic.Diagnostic `json:"diagnostics,omitzero"`
}

// TransformFile rewrites every marker call in sf. A file without marker
// calls is returned with its text unchanged.
func (tr *Transformer) TransformFile(sf *ast.SourceFile) (*FileResult, error) {
	text := sf.Text()
	fileName := sf.FileName()
	diags := diagnostic.NewCollector(tr.opts.Strict, tr.opts.Quiet)
	result := &FileResult{FileName: fileName, Text: text}

	var edits []Edit
	err := Visit(sf.AsNode(), func(node *ast.Node) (bool, error) {
		if !tr.IsMarkerCall(node) {
			return false, nil
		}
		start := SkipTrivia(text, node.Pos())
		line, col := compiler.LineAndColumn(sf, start)
		call := Call{Line: line, Column: col}

		typeArgs := node.AsCallExpression().TypeArguments
		if typeArgs == nil || len(typeArgs.Nodes) == 0 {
			diags.Info(diagnostic.CategoryMissingTypeArgument, fileName, line, col,
				fmt.Sprintf("%s() called without a type argument; replaced with []", tr.opts.Marker.Name))
			edits = append(edits, Edit{Pos: node.Pos(), End: node.End(), Expr: literal.Arr()})
			result.Calls = append(result.Calls, call)
			return true, nil
		}

		typeNode := typeArgs.Nodes[0]
		call.TypeText = strings.TrimSpace(text[typeNode.Pos():typeNode.End()])

		t := shimchecker.Checker_getTypeFromTypeNode(tr.checker, typeNode)
		d, cut, err := tr.typeMeta(t)
		if err != nil {
			return false, fmt.Errorf("%s:%d:%d: %s<%s>(): %w", fileName, line, col, tr.opts.Marker.Name, call.TypeText, err)
		}
		for _, c := range cut {
			if c.depth {
				diags.WarnWithHint(diagnostic.CategoryDepthExceeded, fileName, line, col,
					fmt.Sprintf("descriptor of %s truncated at depth %d", call.TypeText, tr.opts.MaxDepth),
					"raise recursion.maxDepth in tsmeta.config.json")
			} else {
				diags.WarnWithHint(diagnostic.CategoryCircularType, fileName, line, col,
					fmt.Sprintf("%s refers to itself through %s; emitted a circular placeholder", call.TypeText, c.typeName),
					`set recursion.onCycle to "error" to fail instead`)
			}
		}

		call.Descriptor = d
		result.Calls = append(result.Calls, call)
		paren, stmt := needsParens(node)
		edits = append(edits, Edit{
			Pos:            node.Pos(),
			End:            node.End(),
			Expr:           d.Literal(),
			Paren:          paren,
			StatementStart: stmt,
		})
		return true, nil
	})
	if err != nil {
		return nil, err
	}

	if len(edits) > 0 {
		result.Text = Apply(text, edits)
		result.Changed = true
	}
	result.Diagnostics = diags.Diagnostics()
	return result, nil
}

// needsParens reports whether an object literal printed in place of node
// would be parsed as a block: when it starts an expression statement or an
// arrow function body.
func needsParens(node *ast.Node) (paren bool, statementStart bool) {
	child := node
	for parent := child.Parent; parent != nil; child, parent = parent, parent.Parent {
		switch parent.Kind {
		case ast.KindExpressionStatement:
			return true, true
		case ast.KindArrowFunction:
			return parent.AsArrowFunction().Body == child, false
		}
		if !startsWith(parent, child) {
			return false, false
		}
	}
	return false, false
}

// startsWith reports whether child is the leftmost part of parent, i.e.
// printing parent begins by printing child.
func startsWith(parent, child *ast.Node) bool {
	switch parent.Kind {
	case ast.KindPropertyAccessExpression:
		return parent.AsPropertyAccessExpression().Expression == child
	case ast.KindElementAccessExpression:
		return parent.AsElementAccessExpression().Expression == child
	case ast.KindCallExpression:
		return parent.AsCallExpression().Expression == child
	case ast.KindBinaryExpression:
		return parent.AsBinaryExpression().Left == child
	case ast.KindConditionalExpression:
		return parent.AsConditionalExpression().Condition == child
	case ast.KindAsExpression:
		return parent.AsAsExpression().Expression == child
	case ast.KindSatisfiesExpression:
		return parent.AsSatisfiesExpression().Expression == child
	case ast.KindNonNullExpression:
		return parent.AsNonNullExpression().Expression == child
	case ast.KindPostfixUnaryExpression:
		return parent.AsPostfixUnaryExpression().Operand == child
	case ast.KindTaggedTemplateExpression:
		return parent.AsTaggedTemplateExpression().Tag == child
	}
	return false
}

// Result is the outcome of transforming a whole program.
type Result struct {
	Files       []*FileResult
	Diagnostics *diagnostic.Collector
}

// Rewritten returns the new text of every changed file keyed by file name.
func (r *Result) Rewritten() map[string]string {
	out := make(map[string]string)
	for _, f := range r.Files {
		if f.Changed {
			out[f.FileName] = f.Text
		}
	}
	return out
}

// CallCount returns the number of replaced marker calls.
func (r *Result) CallCount() int {
	n := 0
	for _, f := range r.Files {
		n += len(f.Calls)
	}
	return n
}

// TransformProgram transforms every selected source file of project in
// program order. Declaration files and files under node_modules are never
// touched; the rest are filtered by Options.Files relative to Options.Root.
func TransformProgram(ctx context.Context, project *compiler.Project, opts Options) (*Result, error) {
	checker, release, err := project.Checker(ctx)
	if err != nil {
		return nil, err
	}
	defer release()

	tr := New(checker, project.FS, opts)
	result := &Result{Diagnostics: diagnostic.NewCollector(opts.Strict, opts.Quiet)}
	for _, sf := range project.SourceFiles() {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if !tr.selected(sf.FileName()) {
			continue
		}
		fr, err := tr.TransformFile(sf)
		if err != nil {
			return nil, err
		}
		for _, d := range fr.Diagnostics {
			result.Diagnostics.Add(d)
		}
		result.Files = append(result.Files, fr)
	}
	return result, nil
}

func (tr *Transformer) selected(fileName string) bool {
	if strings.Contains(fileName, "/node_modules/") {
		return false
	}
	rel := fileName
	if tr.opts.Root != "" {
		if r, err := filepath.Rel(tr.opts.Root, fileName); err == nil && !strings.HasPrefix(r, "..") {
			rel = r
		}
	}
	return tr.opts.Files.Matches(rel)
}
