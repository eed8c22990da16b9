package compiler

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/microsoft/typescript-go/shim/ast"
	shimchecker "github.com/microsoft/typescript-go/shim/checker"
	shimcompiler "github.com/microsoft/typescript-go/shim/compiler"
	"github.com/microsoft/typescript-go/shim/core"
	"github.com/microsoft/typescript-go/shim/tsoptions"
	"github.com/microsoft/typescript-go/shim/tspath"
	"github.com/microsoft/typescript-go/shim/vfs"
	"github.com/tsmeta/tsmeta/internal/overlay"
)

// ErrConfig is returned when the tsconfig cannot be found or parsed.
var ErrConfig = errors.New("invalid tsconfig")

// Diagnostic represents a compilation diagnostic message.
type Diagnostic struct {
	FilePath string
	Message  string
}

func (d Diagnostic) String() string {
	if d.FilePath != "" {
		return fmt.Sprintf("%s: %s", d.FilePath, d.Message)
	}
	return d.Message
}

// Project is a parsed tsconfig together with the program built from it.
type Project struct {
	Cwd          string
	ConfigPath   string
	FS           vfs.FS
	Host         shimcompiler.CompilerHost
	ParsedConfig *tsoptions.ParsedCommandLine
	Program      *shimcompiler.Program

	singleThreaded bool
}

// ParseTSConfig parses a tsconfig.json file using tsgo's native JSONC parser.
// Handles comments, trailing commas, and extends chains.
func ParseTSConfig(fs vfs.FS, cwd string, tsconfigPath string, host shimcompiler.CompilerHost) (*tsoptions.ParsedCommandLine, []Diagnostic, error) {
	resolved := tspath.ResolvePath(cwd, tsconfigPath)
	if !fs.FileExists(resolved) {
		return nil, nil, fmt.Errorf("%w: could not find tsconfig at %v", ErrConfig, resolved)
	}

	parsed, diagnostics := tsoptions.GetParsedCommandLineOfConfigFile(resolved, &core.CompilerOptions{}, nil, host, nil)
	if len(diagnostics) > 0 {
		return nil, convertDiagnostics(diagnostics), nil
	}
	if parsed != nil && len(parsed.Errors) > 0 {
		return nil, convertDiagnostics(parsed.Errors), nil
	}
	return parsed, nil, nil
}

func newProgram(singleThreaded bool, parsed *tsoptions.ParsedCommandLine, host shimcompiler.CompilerHost) (*shimcompiler.Program, []Diagnostic, error) {
	opts := shimcompiler.ProgramOptions{
		Config:                      parsed,
		SingleThreaded:              core.TSTrue,
		Host:                        host,
		UseSourceOfProjectReference: true,
	}
	if !singleThreaded {
		opts.SingleThreaded = core.TSFalse
	}

	program := shimcompiler.NewProgram(opts)
	if program == nil {
		return nil, nil, errors.New("failed to create program")
	}
	if diags := program.GetProgramDiagnostics(); len(diags) > 0 {
		return nil, convertDiagnostics(diags), nil
	}
	program.BindSourceFiles()
	return program, nil, nil
}

// Load parses tsconfigPath (relative to cwd) over fs and creates the program.
// Config and program diagnostics are returned without an error; the caller
// decides how to report them.
func Load(singleThreaded bool, fs vfs.FS, cwd string, tsconfigPath string) (*Project, []Diagnostic, error) {
	host := newHost(cwd, fs)
	parsed, diags, err := ParseTSConfig(fs, cwd, tsconfigPath, host)
	if err != nil || len(diags) > 0 {
		return nil, diags, err
	}
	program, diags, err := newProgram(singleThreaded, parsed, host)
	if err != nil || len(diags) > 0 {
		return nil, diags, err
	}
	return &Project{
		Cwd:            cwd,
		ConfigPath:     tspath.ResolvePath(cwd, tsconfigPath),
		FS:             fs,
		Host:           host,
		ParsedConfig:   parsed,
		Program:        program,
		singleThreaded: singleThreaded,
	}, nil, nil
}

// WithSources returns a new project whose program sees the given file
// contents (keyed by normalized absolute path) in place of what is on fs.
// The parsed tsconfig is reused, so the set of root files does not change.
func (p *Project) WithSources(sources map[string]string) (*Project, []Diagnostic, error) {
	fs := overlay.New(p.FS, sources)
	host := newHost(p.Cwd, fs)
	program, diags, err := newProgram(p.singleThreaded, p.ParsedConfig, host)
	if err != nil || len(diags) > 0 {
		return nil, diags, err
	}
	return &Project{
		Cwd:            p.Cwd,
		ConfigPath:     p.ConfigPath,
		FS:             fs,
		Host:           host,
		ParsedConfig:   p.ParsedConfig,
		Program:        program,
		singleThreaded: p.singleThreaded,
	}, nil, nil
}

// Checker acquires a type checker. The release function must be called when
// the caller is done with it.
func (p *Project) Checker(ctx context.Context) (*shimchecker.Checker, func(), error) {
	checker, release := shimcompiler.Program_GetTypeChecker(p.Program, ctx)
	if checker == nil {
		return nil, nil, errors.New("could not get type checker")
	}
	return checker, release, nil
}

// SourceFiles returns the program's source files, excluding declaration files.
func (p *Project) SourceFiles() []*ast.SourceFile {
	var files []*ast.SourceFile
	for _, f := range p.Program.GetSourceFiles() {
		if !f.IsDeclarationFile {
			files = append(files, f)
		}
	}
	return files
}

// OutDir returns the configured outDir, or "" when none is set.
func (p *Project) OutDir() string {
	return p.ParsedConfig.CompilerOptions().OutDir
}

// EmitResult wraps tsgo's EmitResult.
type EmitResult struct {
	EmittedFiles []string
	Diagnostics  []*ast.Diagnostic
	EmitSkipped  bool
}

// Emit writes the compiled JavaScript output using tsgo's emitter. If
// writeFile is non-nil, it replaces the host's WriteFile.
func (p *Project) Emit(ctx context.Context, writeFile shimcompiler.WriteFile) *EmitResult {
	return p.emit(ctx, shimcompiler.EmitOptions{WriteFile: writeFile})
}

// EmitJS emits JavaScript and its source maps only. A non-nil file limits
// the emit to that source file.
func (p *Project) EmitJS(ctx context.Context, file *ast.SourceFile, writeFile shimcompiler.WriteFile) *EmitResult {
	return p.emit(ctx, shimcompiler.EmitOptions{
		TargetSourceFile: file,
		EmitOnly:         shimcompiler.EmitOnlyJs,
		WriteFile:        writeFile,
	})
}

// EmitDeclarations emits declaration files and their maps only. Nothing is
// written unless the tsconfig enables declarations.
func (p *Project) EmitDeclarations(ctx context.Context, writeFile shimcompiler.WriteFile) *EmitResult {
	return p.emit(ctx, shimcompiler.EmitOptions{
		EmitOnly:  shimcompiler.EmitOnlyDts,
		WriteFile: writeFile,
	})
}

func (p *Project) emit(ctx context.Context, opts shimcompiler.EmitOptions) *EmitResult {
	result := p.Program.Emit(ctx, opts)
	return &EmitResult{
		EmittedFiles: result.EmittedFiles,
		Diagnostics:  result.Diagnostics,
		EmitSkipped:  result.EmitSkipped,
	}
}

// Merge folds other into r.
func (r *EmitResult) Merge(other *EmitResult) {
	r.EmittedFiles = append(r.EmittedFiles, other.EmittedFiles...)
	r.Diagnostics = append(r.Diagnostics, other.Diagnostics...)
	r.EmitSkipped = r.EmitSkipped || other.EmitSkipped
}

// Diagnostics collects all diagnostics using tsgo's GetDiagnosticsOfAnyProgram:
//
//	config → syntactic → program → bind → options → global → semantic → declaration
//
// When noCheck is true, only syntactic diagnostics are collected.
func (p *Project) Diagnostics(ctx context.Context, noCheck bool) []*ast.Diagnostic {
	if noCheck {
		return shimcompiler.Program_GetSyntacticDiagnostics(p.Program, ctx, nil)
	}
	return shimcompiler.GetDiagnosticsOfAnyProgram(
		ctx,
		p.Program,
		nil,
		false,
		// BindSourceFiles already ran.
		func(ctx context.Context, file *ast.SourceFile) []*ast.Diagnostic {
			return nil
		},
		func(ctx context.Context, file *ast.SourceFile) []*ast.Diagnostic {
			return shimcompiler.Program_GetSemanticDiagnostics(p.Program, ctx, file)
		},
	)
}

func convertDiagnostics(tsdiags []*ast.Diagnostic) []Diagnostic {
	diags := make([]Diagnostic, len(tsdiags))
	for i, d := range tsdiags {
		var filePath string
		if d.File() != nil {
			filePath = d.File().FileName()
		}
		diags[i] = Diagnostic{FilePath: filePath, Message: d.String()}
	}
	return diags
}

// FormatDiagnostics formats diagnostics into human-readable lines.
func FormatDiagnostics(diags []Diagnostic) string {
	var b strings.Builder
	for _, d := range diags {
		b.WriteString(d.String())
		b.WriteByte('\n')
	}
	return b.String()
}
