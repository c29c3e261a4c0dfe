// Package manifest handles ints.toml project configuration.
package manifest

import (
	"fmt"
	"path/filepath"

	"github.com/BurntSushi/toml"
	"github.com/go-playground/validator/v10"
	"github.com/spf13/afero"
)

// Filename is the manifest file name looked for in project directories.
const Filename = "ints.toml"

var validate = validator.New(validator.WithRequiredStructEnabled())

// Manifest represents an ints.toml project configuration.
type Manifest struct {
	Project Project `toml:"project" validate:"required"`
	Source  Source  `toml:"source"`
	Headers Headers `toml:"headers"`

	// Dir is the directory containing the ints.toml file (set at load time).
	Dir string `toml:"-"`
}

// Project contains project metadata.
type Project struct {
	Name    string `toml:"name" validate:"required"`
	Version string `toml:"version" validate:"omitempty,semver"`
}

// Source configures where use "path" targets are searched.
type Source struct {
	Dirs []string `toml:"dirs" validate:"dive,required"`
}

// Headers configures standard header resolution.
type Headers struct {
	Dirs   []string `toml:"dirs" validate:"dive,required"`
	Bundle string   `toml:"bundle"`
}

// Load parses and validates an ints.toml file from the given directory.
func Load(fsys afero.Fs, dir string) (*Manifest, error) {
	path := filepath.Join(dir, Filename)
	data, err := afero.ReadFile(fsys, path)
	if err != nil {
		return nil, fmt.Errorf("cannot read %s: %w", path, err)
	}

	var m Manifest
	if err := toml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("parse error in %s: %w", path, err)
	}

	if err := validate.Struct(&m); err != nil {
		return nil, fmt.Errorf("invalid %s: %w", path, err)
	}

	m.Dir, err = filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("cannot resolve path %s: %w", dir, err)
	}

	// Defaults
	if len(m.Source.Dirs) == 0 {
		m.Source.Dirs = []string{"src"}
	}

	return &m, nil
}

// FindAndLoad walks up from startDir to find an ints.toml file, then
// loads and returns the manifest. Returns nil if no manifest is found.
func FindAndLoad(fsys afero.Fs, startDir string) (*Manifest, error) {
	dir, err := filepath.Abs(startDir)
	if err != nil {
		return nil, err
	}

	for {
		path := filepath.Join(dir, Filename)
		if _, err := fsys.Stat(path); err == nil {
			return Load(fsys, dir)
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			// Reached root
			return nil, nil
		}
		dir = parent
	}
}

// SourceDirPaths returns absolute paths for the configured source directories.
func (m *Manifest) SourceDirPaths() []string {
	var paths []string
	for _, d := range m.Source.Dirs {
		paths = append(paths, filepath.Join(m.Dir, d))
	}
	return paths
}

// HeaderDirPaths returns absolute paths for the configured header directories.
func (m *Manifest) HeaderDirPaths() []string {
	var paths []string
	for _, d := range m.Headers.Dirs {
		paths = append(paths, filepath.Join(m.Dir, d))
	}
	return paths
}

// BundlePath returns the absolute path of the configured header bundle,
// or "" when the manifest does not name one.
func (m *Manifest) BundlePath() string {
	if m.Headers.Bundle == "" {
		return ""
	}
	return filepath.Join(m.Dir, m.Headers.Bundle)
}
