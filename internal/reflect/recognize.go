package reflect

import (
	"github.com/go-json-experiment/json"
	"github.com/microsoft/typescript-go/shim/ast"
	"github.com/microsoft/typescript-go/shim/tspath"
)

// IsMarkerCall reports whether node is a call of the marker function.
//
// The call is resolved by the checker and the declaration of the resolved
// signature decides. It must be the only declaration of its symbol, a
// function declaration named after the marker, in a file that belongs to the
// marker module. Any callee that resolves there is recognized: renamed and
// namespace imports, `(meta)<T>()`, `tm["meta"]<T>()` and local aliases such
// as `const describe = meta`. A same-named function from anywhere else is not.
func (tr *Transformer) IsMarkerCall(node *ast.Node) bool {
	if node == nil || node.Kind != ast.KindCallExpression {
		return false
	}

	sig := tr.checker.GetResolvedSignature(node)
	if sig == nil {
		return false
	}
	decl := sig.Declaration()
	if decl == nil || decl.Kind != ast.KindFunctionDeclaration {
		return false
	}
	name := decl.AsFunctionDeclaration().Name()
	if name == nil || name.Text() != tr.opts.Marker.Name {
		return false
	}

	// Overloaded or merged declarations never qualify.
	sym := tr.checker.GetSymbolAtLocation(name)
	if sym == nil || len(sym.Declarations) != 1 {
		return false
	}

	sf := ast.GetSourceFileOfNode(decl)
	if sf == nil {
		return false
	}
	return tr.isMarkerFile(sf.FileName())
}

// isMarkerFile reports whether fileName is pinned in Options.MarkerFiles or
// belongs to the package named Options.Marker.Module.
func (tr *Transformer) isMarkerFile(fileName string) bool {
	fileName = tspath.NormalizePath(fileName)
	if tr.markerFiles[fileName] {
		return true
	}
	return tr.packageName(tspath.GetDirectoryPath(fileName)) == tr.opts.Marker.Module
}

// packageName returns the "name" of the nearest package.json at or above dir,
// or "" when there is none. Lookups are cached per directory.
func (tr *Transformer) packageName(dir string) string {
	var visited []string
	name := ""
	for {
		if cached, ok := tr.packageNames[dir]; ok {
			name = cached
			break
		}
		visited = append(visited, dir)
		if text, ok := tr.fs.ReadFile(tspath.CombinePaths(dir, "package.json")); ok {
			var pkg struct {
				Name string `json:"name"`
			}
			if err := json.Unmarshal([]byte(text), &pkg); err == nil {
				name = pkg.Name
			}
			break
		}
		parent := tspath.GetDirectoryPath(dir)
		if parent == dir || parent == "" {
			break
		}
		dir = parent
	}
	for _, d := range visited {
		tr.packageNames[d] = name
	}
	return name
}
