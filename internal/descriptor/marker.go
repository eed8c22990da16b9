package descriptor

import (
	"embed"
	"fmt"
	"io/fs"
	"maps"
	"os"
	"path/filepath"
	"slices"
)

// DefaultModule is the package name of the marker module.
const DefaultModule = "ts-transformer-meta"

// DefaultName is the reserved name of the marker function.
const DefaultName = "meta"

// NotTransformedMessage is the prefix of the error the marker function throws
// when a call survives to run time.
const NotTransformedMessage = "ts-transformer-meta: meta<T>() was called at run time"

// Marker identifies the marker function by the package that exports it and
// its exported name.
type Marker struct {
	Module string
	Name   string
}

// DefaultMarker is `meta` exported from `ts-transformer-meta`.
var DefaultMarker = Marker{Module: DefaultModule, Name: DefaultName}

// ID returns the canonical export path, e.g. "ts-transformer-meta#meta".
func (m Marker) ID() string {
	return m.Module + "#" + m.Name
}

func (m Marker) String() string {
	return m.ID()
}

//go:embed runtime/index.ts runtime/package.json
var runtimeFS embed.FS

// RuntimeFiles returns the marker module sources keyed by file name
// ("index.ts", "package.json").
func RuntimeFiles() map[string]string {
	files := make(map[string]string)
	entries, err := fs.ReadDir(runtimeFS, "runtime")
	if err != nil {
		panic(fmt.Sprintf("descriptor: reading embedded runtime: %v", err))
	}
	for _, e := range entries {
		data, err := runtimeFS.ReadFile("runtime/" + e.Name())
		if err != nil {
			panic(fmt.Sprintf("descriptor: reading embedded %s: %v", e.Name(), err))
		}
		files[e.Name()] = string(data)
	}
	return files
}

// WriteRuntime writes the marker module into dir, creating it if needed.
// Existing files are overwritten.
func WriteRuntime(dir string) ([]string, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("creating %s: %w", dir, err)
	}
	files := RuntimeFiles()
	var written []string
	for _, name := range slices.Sorted(maps.Keys(files)) {
		path := filepath.Join(dir, name)
		if err := os.WriteFile(path, []byte(files[name]), 0644); err != nil {
			return written, fmt.Errorf("writing %s: %w", path, err)
		}
		written = append(written, path)
	}
	return written, nil
}
