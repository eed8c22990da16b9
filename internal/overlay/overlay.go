// Package overlay provides a vfs.FS that serves in-memory file contents on
// top of another filesystem. The build pipeline uses it to feed rewritten
// sources back into the compiler, and tests use it to create tsgo programs
// from inline TypeScript.
package overlay

import (
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/microsoft/typescript-go/shim/bundled"
	"github.com/microsoft/typescript-go/shim/tspath"
	"github.com/microsoft/typescript-go/shim/vfs"
	"github.com/microsoft/typescript-go/shim/vfs/osvfs"
)

// FS wraps a base filesystem with in-memory files keyed by normalized
// absolute path. In-memory files take precedence over the base filesystem.
type FS struct {
	base  vfs.FS
	Files map[string]string
}

var _ vfs.FS = (*FS)(nil)

// New creates an overlay of files on top of base.
func New(base vfs.FS, files map[string]string) *FS {
	if files == nil {
		files = make(map[string]string)
	}
	return &FS{base: base, Files: files}
}

// NewDefault creates an overlay on top of the OS filesystem wrapped with the
// bundled TypeScript lib files.
func NewDefault(files map[string]string) *FS {
	return New(bundled.WrapFS(osvfs.FS()), files)
}

func (o *FS) UseCaseSensitiveFileNames() bool {
	return o.base.UseCaseSensitiveFileNames()
}

func (o *FS) FileExists(path string) bool {
	if _, ok := o.Files[path]; ok {
		return true
	}
	return o.base.FileExists(path)
}

func (o *FS) ReadFile(path string) (contents string, ok bool) {
	if src, ok := o.Files[path]; ok {
		return src, true
	}
	return o.base.ReadFile(path)
}

func (o *FS) DirectoryExists(path string) bool {
	dir := dirPrefix(path)
	for p := range o.Files {
		if strings.HasPrefix(p, dir) {
			return true
		}
	}
	return o.base.DirectoryExists(path)
}

func (o *FS) GetAccessibleEntries(path string) (result vfs.Entries) {
	result = o.base.GetAccessibleEntries(path)

	seenDirs := make(map[string]bool, len(result.Directories))
	for _, d := range result.Directories {
		seenDirs[d] = true
	}
	seenFiles := make(map[string]bool, len(result.Files))
	for _, f := range result.Files {
		seenFiles[f] = true
	}

	dir := dirPrefix(path)
	for p := range o.Files {
		rest, found := strings.CutPrefix(p, dir)
		if !found {
			continue
		}
		if sub, _, ok := strings.Cut(rest, "/"); ok {
			if !seenDirs[sub] {
				seenDirs[sub] = true
				result.Directories = append(result.Directories, sub)
			}
		} else if !seenFiles[rest] {
			seenFiles[rest] = true
			result.Files = append(result.Files, rest)
		}
	}
	return result
}

type fileInfo struct {
	mode fs.FileMode
	name string
	size int64
}

var (
	_ fs.FileInfo = (*fileInfo)(nil)
	_ fs.DirEntry = (*fileInfo)(nil)
)

func (fi *fileInfo) IsDir() bool                { return fi.mode.IsDir() }
func (fi *fileInfo) ModTime() time.Time         { return time.Time{} }
func (fi *fileInfo) Mode() fs.FileMode          { return fi.mode }
func (fi *fileInfo) Name() string               { return fi.name }
func (fi *fileInfo) Size() int64                { return fi.size }
func (fi *fileInfo) Sys() any                   { return nil }
func (fi *fileInfo) Info() (fs.FileInfo, error) { return fi, nil }
func (fi *fileInfo) Type() fs.FileMode          { return fi.mode.Type() }

func (o *FS) Stat(path string) vfs.FileInfo {
	if src, ok := o.Files[path]; ok {
		return &fileInfo{
			name: path,
			size: int64(len(src)),
		}
	}
	return o.base.Stat(path)
}

func (o *FS) WalkDir(root string, walkFn vfs.WalkDirFunc) error {
	return o.base.WalkDir(root, walkFn)
}

func (o *FS) Realpath(path string) string {
	if _, ok := o.Files[path]; ok {
		return path
	}
	return o.base.Realpath(path)
}

func (o *FS) WriteFile(path string, data string, writeByteOrderMark bool) error {
	if _, ok := o.Files[path]; ok {
		return fmt.Errorf("overlay: refusing to overwrite in-memory file %s", path)
	}
	return o.base.WriteFile(path, data, writeByteOrderMark)
}

func (o *FS) Remove(path string) error {
	if _, ok := o.Files[path]; ok {
		return fmt.Errorf("overlay: refusing to remove in-memory file %s", path)
	}
	return o.base.Remove(path)
}

func (o *FS) Chtimes(path string, aTime time.Time, mTime time.Time) error {
	if _, ok := o.Files[path]; ok {
		return fmt.Errorf("overlay: refusing to change times on in-memory file %s", path)
	}
	return o.base.Chtimes(path, aTime, mTime)
}

func dirPrefix(path string) string {
	p := tspath.NormalizePath(path)
	if !strings.HasSuffix(p, "/") {
		p += "/"
	}
	return p
}
