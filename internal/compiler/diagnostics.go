package compiler

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"unicode"

	"github.com/microsoft/typescript-go/shim/ast"
	shimscanner "github.com/microsoft/typescript-go/shim/scanner"
)

// DiagnosticCategory mirrors tsgo's diagnostics.Category.
// We redeclare here to avoid importing the internal diagnostics package directly.
type DiagnosticCategory int

const (
	CategoryWarning    DiagnosticCategory = 0
	CategoryError      DiagnosticCategory = 1
	CategorySuggestion DiagnosticCategory = 2
	CategoryMessage    DiagnosticCategory = 3
)

func (c DiagnosticCategory) Name() string {
	switch c {
	case CategoryError:
		return "error"
	case CategoryWarning:
		return "warning"
	case CategorySuggestion:
		return "suggestion"
	case CategoryMessage:
		return "message"
	}
	return "unknown"
}

// ANSI color constants matching tsgo's diagnosticwriter.
const (
	colorReset  = "\u001b[0m"
	colorRed    = "\u001b[91m"
	colorYellow = "\u001b[93m"
	colorBlue   = "\u001b[94m"
	colorCyan   = "\u001b[96m"
	colorGrey   = "\u001b[90m"
	colorGutter = "\u001b[7m"
)

func (c DiagnosticCategory) color() string {
	switch c {
	case CategoryError:
		return colorRed
	case CategoryWarning:
		return colorYellow
	case CategorySuggestion:
		return colorGrey
	case CategoryMessage:
		return colorBlue
	}
	return ""
}

func categoryOf(d *ast.Diagnostic) DiagnosticCategory {
	return DiagnosticCategory(ast.Diagnostic_Category(d))
}

// IsPrettyOutput determines if we should use colored output with code snippets.
// Mirrors tsgo's shouldBePretty logic: NO_COLOR, FORCE_COLOR, then isatty.
func IsPrettyOutput() bool {
	if os.Getenv("NO_COLOR") != "" {
		return false
	}
	if os.Getenv("FORCE_COLOR") != "" {
		return true
	}
	fi, err := os.Stderr.Stat()
	if err != nil {
		return false
	}
	return fi.Mode()&os.ModeCharDevice != 0
}

// LineAndColumn returns the 1-based line and column of pos in file.
func LineAndColumn(file *ast.SourceFile, pos int) (int, int) {
	line, char := shimscanner.GetECMALineAndCharacterOfPosition(file, pos)
	return line + 1, char + 1
}

// DiagnosticReporter writes TypeScript diagnostics in tsc style.
type DiagnosticReporter struct {
	w      io.Writer
	cwd    string
	pretty bool
}

// NewDiagnosticReporter creates a reporter. When pretty is true, output is
// colored and includes code snippets (like tsgo); otherwise each diagnostic
// is a single `file(line,col): category TScode: message` line.
func NewDiagnosticReporter(w io.Writer, cwd string, pretty bool) *DiagnosticReporter {
	return &DiagnosticReporter{w: w, cwd: cwd, pretty: pretty}
}

// Report writes all diagnostics followed by an error summary in pretty mode.
func (r *DiagnosticReporter) Report(diags []*ast.Diagnostic) {
	for _, d := range diags {
		if r.pretty {
			r.writePretty(d)
			fmt.Fprint(r.w, "\n")
		} else {
			r.writePlain(d)
		}
	}
	if r.pretty {
		r.writeSummary(diags)
	}
}

func (r *DiagnosticReporter) writePlain(d *ast.Diagnostic) {
	if d.File() != nil {
		line, col := LineAndColumn(d.File(), d.Pos())
		fmt.Fprintf(r.w, "%s(%d,%d): ", relativePath(d.File().FileName(), r.cwd), line, col)
	}
	fmt.Fprintf(r.w, "%s TS%d: %s\n", categoryOf(d).Name(), d.Code(), d.String())
}

func (r *DiagnosticReporter) writePretty(d *ast.Diagnostic) {
	cat := categoryOf(d)

	if d.File() != nil {
		line, col := LineAndColumn(d.File(), d.Pos())
		fmt.Fprintf(r.w, "%s%s%s:%s%d%s:%s%d%s - ",
			colorCyan, relativePath(d.File().FileName(), r.cwd), colorReset,
			colorYellow, line, colorReset,
			colorYellow, col, colorReset)
	}

	fmt.Fprintf(r.w, "%s%s%s %sTS%d:%s %s",
		cat.color(), cat.Name(), colorReset,
		colorGrey, d.Code(), colorReset,
		d.String())

	if d.File() != nil && d.Len() > 0 {
		fmt.Fprint(r.w, "\n")
		writeCodeSnippet(r.w, d.File(), d.Pos(), d.Len(), cat.color())
		fmt.Fprint(r.w, "\n")
	}
}

// writeCodeSnippet writes the source lines covered by [start, start+length)
// with a line-number gutter and squiggles under the span. Spans of five or
// more lines elide the middle.
func writeCodeSnippet(w io.Writer, file *ast.SourceFile, start int, length int, squiggleColor string) {
	firstLine, firstChar := shimscanner.GetECMALineAndCharacterOfPosition(file, start)
	lastLine, lastChar := shimscanner.GetECMALineAndCharacterOfPosition(file, start+length)
	if length == 0 {
		lastChar++
	}

	text := file.Text()
	lastLineOfFile := shimscanner.GetECMALineOfPosition(file, len(text))

	elide := lastLine-firstLine >= 4
	gutterWidth := max(len(strconv.Itoa(lastLine+1)), 0)
	if elide {
		gutterWidth = max(gutterWidth, len("..."))
	}

	for i := firstLine; i <= lastLine; i++ {
		if elide && firstLine+1 < i && i < lastLine-1 {
			fmt.Fprintf(w, "%s%*s%s \n", colorGutter, gutterWidth, "...", colorReset)
			i = lastLine - 1
		}

		lineStart := shimscanner.GetECMAPositionOfLineAndCharacter(file, i, 0)
		lineEnd := len(text)
		if i < lastLineOfFile {
			lineEnd = shimscanner.GetECMAPositionOfLineAndCharacter(file, i+1, 0)
		}
		content := strings.TrimRightFunc(text[lineStart:lineEnd], unicode.IsSpace)
		content = strings.ReplaceAll(content, "\t", " ")

		fmt.Fprintf(w, "%s%*d%s %s\n", colorGutter, gutterWidth, i+1, colorReset, content)
		fmt.Fprintf(w, "%s%*s%s %s", colorGutter, gutterWidth, "", colorReset, squiggleColor)

		switch i {
		case firstLine:
			end := lastChar
			if i != lastLine {
				end = len(content)
			}
			fmt.Fprint(w, strings.Repeat(" ", firstChar))
			fmt.Fprint(w, strings.Repeat("~", max(end-firstChar, 1)))
		case lastLine:
			fmt.Fprint(w, strings.Repeat("~", max(lastChar, 0)))
		default:
			fmt.Fprint(w, strings.Repeat("~", len(content)))
		}
		fmt.Fprint(w, colorReset)
	}
}

// writeSummary writes tsgo's "Found N errors" line. Only CategoryError
// diagnostics are counted.
func (r *DiagnosticReporter) writeSummary(diags []*ast.Diagnostic) {
	var first *ast.Diagnostic
	files := make(map[string]bool)
	count := 0
	for _, d := range diags {
		if categoryOf(d) != CategoryError {
			continue
		}
		count++
		if first == nil {
			first = d
		}
		if d.File() != nil {
			files[d.File().FileName()] = true
		}
	}
	if count == 0 {
		return
	}

	fmt.Fprint(r.w, "\n")
	var where string
	if first.File() != nil {
		line, _ := LineAndColumn(first.File(), first.Pos())
		where = fmt.Sprintf("%s%s:%d%s", relativePath(first.File().FileName(), r.cwd), colorGrey, line, colorReset)
	}
	switch {
	case count == 1 && where != "":
		fmt.Fprintf(r.w, "Found 1 error in %s\n", where)
	case count == 1:
		fmt.Fprintln(r.w, "Found 1 error.")
	case len(files) <= 1 && where != "":
		fmt.Fprintf(r.w, "Found %d errors in the same file, starting at: %s\n", count, where)
	case len(files) <= 1:
		fmt.Fprintf(r.w, "Found %d errors.\n", count)
	default:
		fmt.Fprintf(r.w, "Found %d errors in %d files.\n", count, len(files))
	}
	fmt.Fprint(r.w, "\n")
}

// CountErrors returns the number of CategoryError diagnostics.
func CountErrors(diags []*ast.Diagnostic) int {
	count := 0
	for _, d := range diags {
		if categoryOf(d) == CategoryError {
			count++
		}
	}
	return count
}

// relativePath converts an absolute path to relative if possible.
func relativePath(absPath string, cwd string) string {
	if cwd == "" {
		return absPath
	}
	rel, err := filepath.Rel(cwd, absPath)
	if err != nil {
		return absPath
	}
	return rel
}
