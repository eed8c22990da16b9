// Package emit writes compiler output to disk and flags JavaScript that
// still depends on the marker module after transformation.
package emit

import (
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"

	shimcompiler "github.com/microsoft/typescript-go/shim/compiler"
)

// Writer is a WriteFile callback for Program.Emit. It records every file it
// writes and every emitted script that still imports Module. Safe for
// concurrent use by the emitter.
type Writer struct {
	Module string

	mu       sync.Mutex
	written  []string
	leftover []string
}

// NewWriter creates a writer that watches for imports of module.
func NewWriter(module string) *Writer {
	return &Writer{Module: module}
}

// WriteFile returns the callback to pass to the emitter.
func (w *Writer) WriteFile() shimcompiler.WriteFile {
	return func(fileName string, text string, bom bool, data *shimcompiler.WriteFileData) error {
		stale := isScript(fileName) && ImportsModule(text, w.Module)
		if err := writeFileToDisk(fileName, text, bom); err != nil {
			return err
		}

		w.mu.Lock()
		defer w.mu.Unlock()
		w.written = append(w.written, fileName)
		if stale {
			w.leftover = append(w.leftover, fileName)
		}
		return nil
	}
}

// Written returns the written files in sorted order.
func (w *Writer) Written() []string {
	w.mu.Lock()
	defer w.mu.Unlock()
	return slices.Sorted(slices.Values(w.written))
}

// Leftover returns the emitted scripts that still import the marker module,
// in sorted order. Their marker calls would throw at runtime.
func (w *Writer) Leftover() []string {
	w.mu.Lock()
	defer w.mu.Unlock()
	return slices.Sorted(slices.Values(w.leftover))
}

func isScript(fileName string) bool {
	switch filepath.Ext(fileName) {
	case ".js", ".mjs", ".cjs", ".jsx":
		return true
	}
	return false
}

// writeFileToDisk writes a file, creating parent directories as needed.
// This replicates the default behavior of tsgo's host.WriteFile.
func writeFileToDisk(fileName string, text string, writeByteOrderMark bool) error {
	dir := filepath.Dir(fileName)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}

	content := text
	if writeByteOrderMark {
		content = "\xEF\xBB\xBF" + content
	}

	return os.WriteFile(fileName, []byte(content), 0644)
}

// ImportsModule reports whether any line of text imports, re-exports or
// requires module. Both quote styles are recognized.
func ImportsModule(text, module string) bool {
	specs := []string{`"` + module + `"`, `'` + module + `'`}
	for line := range strings.Lines(text) {
		trimmed := strings.TrimSpace(line)
		for _, spec := range specs {
			if !strings.Contains(trimmed, spec) {
				continue
			}
			// ESM: import { x } from "m"; import "m"; export { x } from "m";
			if (strings.HasPrefix(trimmed, "import ") || strings.HasPrefix(trimmed, "export ")) &&
				(strings.Contains(trimmed, "from "+spec) || strings.HasPrefix(trimmed, "import "+spec)) {
				return true
			}
			// CJS: const { x } = require("m"); require("m");
			if strings.Contains(trimmed, "require("+spec+")") {
				return true
			}
			// Dynamic: await import("m")
			if strings.Contains(trimmed, "import("+spec+")") {
				return true
			}
		}
	}
	return false
}
