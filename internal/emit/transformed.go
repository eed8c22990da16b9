package emit

import (
	"context"
	"strings"

	shimcompiler "github.com/microsoft/typescript-go/shim/compiler"
	"github.com/tsmeta/tsmeta/internal/compiler"
)

const sourceMappingURL = "//# sourceMappingURL="

// Transformed emits a build whose sources were rewritten. Declarations come
// from original, so exported values keep the marker's declared return type.
// JavaScript comes from rewritten, one source file at a time; the source
// maps of files listed in changed are dropped because their positions refer
// to the rewritten text.
func Transformed(ctx context.Context, original, rewritten *compiler.Project, changed map[string]string, w *Writer) *compiler.EmitResult {
	if rewritten == nil || len(changed) == 0 {
		return original.Emit(ctx, w.WriteFile())
	}

	result := &compiler.EmitResult{}
	if opts := original.ParsedConfig.CompilerOptions(); opts.Declaration.IsTrue() || opts.Composite.IsTrue() {
		result.Merge(original.EmitDeclarations(ctx, w.WriteFile()))
	}
	for _, sf := range rewritten.SourceFiles() {
		writeFile := w.WriteFile()
		if _, ok := changed[sf.FileName()]; ok {
			writeFile = w.WriteFileWithoutMaps()
		}
		result.Merge(rewritten.EmitJS(ctx, sf, writeFile))
	}
	return result
}

// WriteFileWithoutMaps is WriteFile for outputs whose source maps would
// point at the wrong lines: .map files are skipped and the
// sourceMappingURL comment is removed from scripts.
func (w *Writer) WriteFileWithoutMaps() shimcompiler.WriteFile {
	write := w.WriteFile()
	return func(fileName string, text string, bom bool, data *shimcompiler.WriteFileData) error {
		if strings.HasSuffix(fileName, ".map") {
			return nil
		}
		if isScript(fileName) {
			text = StripSourceMappingURL(text)
		}
		return write(fileName, text, bom, data)
	}
}

// StripSourceMappingURL removes a trailing sourceMappingURL comment,
// external or inline, from emitted JavaScript.
func StripSourceMappingURL(text string) string {
	i := strings.LastIndex(text, sourceMappingURL)
	if i < 0 || (i > 0 && text[i-1] != '\n') {
		return text
	}
	if nl := strings.IndexByte(text[i:], '\n'); nl >= 0 && strings.TrimSpace(text[i+nl:]) != "" {
		return text
	}
	return text[:i]
}
