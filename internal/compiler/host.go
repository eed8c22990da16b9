package compiler

import (
	"github.com/microsoft/typescript-go/shim/bundled"
	shimcompiler "github.com/microsoft/typescript-go/shim/compiler"
	"github.com/microsoft/typescript-go/shim/vfs"
	"github.com/microsoft/typescript-go/shim/vfs/cachedvfs"
	"github.com/microsoft/typescript-go/shim/vfs/osvfs"
)

// OSFS returns the OS filesystem with tsgo's bundled lib files layered on
// top. Reads are cached for the lifetime of the FS, so each build in a
// watch loop needs a fresh one.
func OSFS() vfs.FS {
	return bundled.WrapFS(cachedvfs.From(osvfs.FS()))
}

// LoadFromDisk is Load over a fresh OSFS.
func LoadFromDisk(cwd string, tsconfigPath string) (*Project, []Diagnostic, error) {
	return Load(true, OSFS(), cwd, tsconfigPath)
}

func newHost(cwd string, fs vfs.FS) shimcompiler.CompilerHost {
	return shimcompiler.NewCompilerHost(cwd, fs, bundled.LibPath(), nil, nil)
}
