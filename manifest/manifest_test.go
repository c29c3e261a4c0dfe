package manifest

import (
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeManifest(t *testing.T, fsys afero.Fs, dir, content string) {
	t.Helper()
	require.NoError(t, fsys.MkdirAll(dir, 0o755))
	require.NoError(t, afero.WriteFile(fsys, dir+"/"+Filename, []byte(content), 0o644))
}

func TestLoadManifest(t *testing.T) {
	fsys := afero.NewMemMapFs()
	writeManifest(t, fsys, "/proj", `
[project]
name = "demo"
version = "0.1.0"

[source]
dirs = ["src", "scripts"]

[headers]
dirs = ["headers"]
bundle = "ints.bundle"
`)

	m, err := Load(fsys, "/proj")
	require.NoError(t, err)

	assert.Equal(t, "demo", m.Project.Name)
	assert.Equal(t, "0.1.0", m.Project.Version)
	assert.Equal(t, []string{"src", "scripts"}, m.Source.Dirs)
	assert.Equal(t, []string{"headers"}, m.Headers.Dirs)
	assert.Equal(t, "ints.bundle", m.Headers.Bundle)
	assert.Equal(t, "/proj", m.Dir)
}

func TestLoadManifestDefaults(t *testing.T) {
	fsys := afero.NewMemMapFs()
	writeManifest(t, fsys, "/proj", `
[project]
name = "minimal"
`)

	m, err := Load(fsys, "/proj")
	require.NoError(t, err)

	// Default source dir should be "src"
	assert.Equal(t, []string{"src"}, m.Source.Dirs)
	assert.Empty(t, m.Headers.Dirs)
	assert.Equal(t, "", m.BundlePath())
}

func TestLoadManifestValidation(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{
			name: "missing project name",
			content: `
[project]
version = "0.1.0"
`,
		},
		{
			name: "malformed version",
			content: `
[project]
name = "demo"
version = "not-a-version"
`,
		},
		{
			name: "empty source dir entry",
			content: `
[project]
name = "demo"

[source]
dirs = [""]
`,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fsys := afero.NewMemMapFs()
			writeManifest(t, fsys, "/proj", tt.content)

			_, err := Load(fsys, "/proj")
			require.Error(t, err)
			assert.Contains(t, err.Error(), "invalid /proj/"+Filename)
		})
	}
}

func TestFindAndLoad(t *testing.T) {
	fsys := afero.NewMemMapFs()
	writeManifest(t, fsys, "/proj", `
[project]
name = "found-project"
`)
	require.NoError(t, fsys.MkdirAll("/proj/a/b/c", 0o755))

	// Should find the manifest when starting from a deep subdirectory.
	m, err := FindAndLoad(fsys, "/proj/a/b/c")
	require.NoError(t, err)
	require.NotNil(t, m)
	assert.Equal(t, "found-project", m.Project.Name)
}

func TestFindAndLoadNotFound(t *testing.T) {
	fsys := afero.NewMemMapFs()
	require.NoError(t, fsys.MkdirAll("/empty", 0o755))

	m, err := FindAndLoad(fsys, "/empty")
	require.NoError(t, err)
	assert.Nil(t, m)
}

func TestManifestPaths(t *testing.T) {
	m := &Manifest{
		Dir:     "/app",
		Source:  Source{Dirs: []string{"src", "scripts"}},
		Headers: Headers{Dirs: []string{"headers"}, Bundle: "dist/ints.bundle"},
	}

	assert.Equal(t, []string{"/app/src", "/app/scripts"}, m.SourceDirPaths())
	assert.Equal(t, []string{"/app/headers"}, m.HeaderDirPaths())
	assert.Equal(t, "/app/dist/ints.bundle", m.BundlePath())
}
