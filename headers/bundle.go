// Package headers locates the source behind use declarations and
// implements the prebuilt header bundle format. Quoted targets resolve
// through the filesystem, while angle bracket targets search header
// directories, then a bundle, then the embedded standard library.
package headers

import (
	"crypto/sha256"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/fxamacker/cbor/v2"
	"github.com/spf13/afero"
)

// FormatVersion is the bundle format understood by this build.
const FormatVersion = 1

// Entry is one header in a bundle: source text plus the content hash
// the loader verifies.
type Entry struct {
	Source string   `cbor:"1,keyasint"`
	Hash   [32]byte `cbor:"2,keyasint"`
}

// Bundle is a prebuilt set of standard headers, keyed by header name
// without the .ints extension.
type Bundle struct {
	Version int              `cbor:"1,keyasint"`
	Entries map[string]Entry `cbor:"2,keyasint"`
}

var cborEncMode cbor.EncMode

func init() {
	em, err := cbor.CanonicalEncOptions().EncMode()
	if err != nil {
		panic(fmt.Sprintf("headers: failed to create CBOR enc mode: %v", err))
	}
	cborEncMode = em
}

// VersionError reports a bundle built for a format this build does not
// understand.
type VersionError struct {
	Version int
}

func (e *VersionError) Error() string {
	return fmt.Sprintf("headers: unsupported bundle version %d", e.Version)
}

// CorruptEntryError reports a bundle entry whose source does not match
// its recorded hash.
type CorruptEntryError struct {
	Name string
}

func (e *CorruptEntryError) Error() string {
	return fmt.Sprintf("headers: bundle entry %s failed hash verification", e.Name)
}

// NewBundle builds a bundle from header sources keyed by name.
func NewBundle(sources map[string]string) *Bundle {
	b := &Bundle{Version: FormatVersion, Entries: make(map[string]Entry, len(sources))}
	for name, src := range sources {
		b.Entries[name] = Entry{Source: src, Hash: sha256.Sum256([]byte(src))}
	}
	return b
}

// MarshalBundle serializes a bundle to canonical CBOR bytes.
func MarshalBundle(b *Bundle) ([]byte, error) {
	return cborEncMode.Marshal(b)
}

// UnmarshalBundle deserializes a bundle, rejecting unknown format
// versions and verifying every entry against its hash.
func UnmarshalBundle(data []byte) (*Bundle, error) {
	var b Bundle
	if err := cbor.Unmarshal(data, &b); err != nil {
		return nil, fmt.Errorf("headers: unmarshal bundle: %w", err)
	}
	if b.Version != FormatVersion {
		return nil, &VersionError{Version: b.Version}
	}
	for name, e := range b.Entries {
		if sha256.Sum256([]byte(e.Source)) != e.Hash {
			return nil, &CorruptEntryError{Name: name}
		}
	}
	return &b, nil
}

// LoadBundle reads and verifies the bundle at path.
func LoadBundle(fsys afero.Fs, path string) (*Bundle, error) {
	data, err := afero.ReadFile(fsys, path)
	if err != nil {
		return nil, fmt.Errorf("headers: read bundle %s: %w", path, err)
	}
	return UnmarshalBundle(data)
}

// CollectDirs gathers the *.ints sources under dirs into name to
// source, keyed by base name without the extension. A name appearing
// twice across the directories is an error.
func CollectDirs(fsys afero.Fs, dirs []string) (map[string]string, error) {
	sources := make(map[string]string)
	for _, dir := range dirs {
		infos, err := afero.ReadDir(fsys, dir)
		if err != nil {
			return nil, fmt.Errorf("headers: read dir %s: %w", dir, err)
		}
		for _, info := range infos {
			if info.IsDir() || !strings.HasSuffix(info.Name(), ".ints") {
				continue
			}
			name := strings.TrimSuffix(info.Name(), ".ints")
			if _, ok := sources[name]; ok {
				return nil, fmt.Errorf("headers: duplicate header %s", name)
			}
			data, err := afero.ReadFile(fsys, filepath.Join(dir, info.Name()))
			if err != nil {
				return nil, fmt.Errorf("headers: read %s: %w", info.Name(), err)
			}
			sources[name] = string(data)
		}
	}
	return sources, nil
}
