package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/afero"

	"github.com/intslang/ints/headers"
)

func runBundler(t *testing.T, args ...string) (string, string, int) {
	t.Helper()
	var out, errOut bytes.Buffer
	code := run(args, &out, &errOut)
	return out.String(), errOut.String(), code
}

func writeHeader(t *testing.T, path, src string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("MkdirAll: %v", err)
	}
	if err := os.WriteFile(path, []byte(src), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
}

func TestBundlerPacksDirs(t *testing.T) {
	dir := t.TempDir()
	writeHeader(t, filepath.Join(dir, "hdr", "greet.ints"),
		`fn greet() -> [] { print("hi\n"); }`)
	writeHeader(t, filepath.Join(dir, "hdr", "bye.ints"),
		`fn bye() -> [] { print("bye\n"); }`)
	outPath := filepath.Join(dir, "std.bundle")

	out, errOut, code := runBundler(t, "-o", outPath, filepath.Join(dir, "hdr"))
	if code != 0 {
		t.Fatalf("code = %d, stderr = %q", code, errOut)
	}
	if !strings.Contains(out, "Bundled 2 headers") {
		t.Errorf("out = %q", out)
	}

	b, err := headers.LoadBundle(afero.NewOsFs(), outPath)
	if err != nil {
		t.Fatalf("LoadBundle: %v", err)
	}
	for _, name := range []string{"greet", "bye"} {
		if _, ok := b.Entries[name]; !ok {
			t.Errorf("%s missing from bundle", name)
		}
	}
}

func TestBundlerRejectsBrokenHeader(t *testing.T) {
	dir := t.TempDir()
	writeHeader(t, filepath.Join(dir, "hdr", "broken.ints"), `fn broken( {`)

	_, errOut, code := runBundler(t, "-o", filepath.Join(dir, "std.bundle"), filepath.Join(dir, "hdr"))
	if code != 1 {
		t.Errorf("code = %d, want 1", code)
	}
	if !strings.Contains(errOut, "broken") {
		t.Errorf("stderr = %q", errOut)
	}
}

func TestBundlerRequiresDirs(t *testing.T) {
	_, errOut, code := runBundler(t)
	if code != 1 {
		t.Errorf("code = %d, want 1", code)
	}
	if !strings.Contains(errOut, "Usage: ints-bundle") {
		t.Errorf("stderr = %q", errOut)
	}
}
