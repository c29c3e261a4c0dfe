package headers

import (
	"fmt"
	"io/fs"
	"path/filepath"
	"strings"

	"github.com/spf13/afero"
)

// Resolver finds the source behind a use target.
type Resolver struct {
	// FS backs all path lookups.
	FS afero.Fs
	// SourceDirs are extra roots tried for quoted targets after the
	// path as given.
	SourceDirs []string
	// HeaderDirs are searched first for angle bracket targets.
	HeaderDirs []string
	// Bundle is an optional prebuilt header set, searched after the
	// header dirs.
	Bundle *Bundle
	// Embedded is the built in standard library, the final fallback.
	Embedded fs.FS
}

// NewResolver returns a resolver reading through fsys; nil means the
// OS filesystem.
func NewResolver(fsys afero.Fs) *Resolver {
	if fsys == nil {
		fsys = afero.NewOsFs()
	}
	return &Resolver{FS: fsys}
}

// Resolve returns the source for name. std marks the angle bracket
// form, which searches the standard header locations; a quoted target
// resolves as a file path.
func (r *Resolver) Resolve(name string, std bool) (string, error) {
	if std {
		return r.resolveStd(name)
	}
	return r.resolvePath(name)
}

func (r *Resolver) resolvePath(name string) (string, error) {
	if src, err := r.readFile(name); err == nil {
		return src, nil
	}
	for _, dir := range r.SourceDirs {
		if src, err := r.readFile(filepath.Join(dir, name)); err == nil {
			return src, nil
		}
	}
	return "", fmt.Errorf("Failed to open file: %s", name)
}

func (r *Resolver) resolveStd(name string) (string, error) {
	file := name
	if filepath.Ext(file) == "" {
		file += ".ints"
	}
	for _, dir := range r.HeaderDirs {
		if src, err := r.readFile(filepath.Join(dir, file)); err == nil {
			return src, nil
		}
	}
	if r.Bundle != nil {
		if e, ok := r.Bundle.Entries[strings.TrimSuffix(file, ".ints")]; ok {
			return e.Source, nil
		}
	}
	if r.Embedded != nil {
		if data, err := fs.ReadFile(r.Embedded, file); err == nil {
			return string(data), nil
		}
	}
	return "", fmt.Errorf("Standard header <%s> not found", name)
}

func (r *Resolver) readFile(path string) (string, error) {
	data, err := afero.ReadFile(r.FS, path)
	if err != nil {
		return "", err
	}
	return string(data), nil
}
