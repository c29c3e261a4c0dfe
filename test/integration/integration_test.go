package integration_test

import (
	"bytes"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/afero"

	"github.com/intslang/ints/argv"
	"github.com/intslang/ints/headers"
	"github.com/intslang/ints/interp"
	"github.com/intslang/ints/lib"
	"github.com/intslang/ints/manifest"
)

// ---------------------------------------------------------------------------
// Integration test helpers
// ---------------------------------------------------------------------------

// writeTree writes files into an in-memory filesystem.
func writeTree(t *testing.T, fsys afero.Fs, files map[string]string) {
	t.Helper()
	for path, src := range files {
		if err := afero.WriteFile(fsys, path, []byte(src), 0o644); err != nil {
			t.Fatalf("write %s: %v", path, err)
		}
	}
}

// runProject replicates the cmd/ints pipeline without flag handling:
// the operands travel through the argument buffer protocol, manifest
// discovery starts from the script's directory, header resolution runs
// over manifest dirs, bundle, and the embedded standard library, and
// then the interpreter runs the decoded file. args is the operand list,
// script name first.
func runProject(t *testing.T, fsys afero.Fs, stdin string, args ...string) (string, int, error) {
	t.Helper()
	script, residual, err := argv.Decode(argv.Encode(args))
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	scriptArgs, err := argv.DecodeAll(residual)
	if err != nil {
		t.Fatalf("DecodeAll: %v", err)
	}

	r := headers.NewResolver(fsys)
	r.Embedded = lib.Files
	m, err := manifest.FindAndLoad(fsys, filepath.Dir(script))
	if err != nil {
		t.Fatalf("FindAndLoad: %v", err)
	}
	if m != nil {
		r.SourceDirs = m.SourceDirPaths()
		r.HeaderDirs = m.HeaderDirPaths()
		if path := m.BundlePath(); path != "" {
			b, err := headers.LoadBundle(fsys, path)
			if err != nil {
				t.Fatalf("LoadBundle: %v", err)
			}
			r.Bundle = b
		}
	}

	var out bytes.Buffer
	in := interp.New(interp.Options{
		Stdin:    strings.NewReader(stdin),
		Stdout:   &out,
		FS:       fsys,
		Resolver: r,
	})
	code, err := in.Run(script, scriptArgs)
	return out.String(), code, err
}

// ---------------------------------------------------------------------------
// Full pipeline
// ---------------------------------------------------------------------------

func TestProjectResolvesAllHeaderSources(t *testing.T) {
	fsys := afero.NewMemMapFs()

	bundleData, err := headers.MarshalBundle(headers.NewBundle(map[string]string{
		"packed": `fn packed() -> [] { print("from bundle\n"); }`,
	}))
	if err != nil {
		t.Fatalf("MarshalBundle: %v", err)
	}

	writeTree(t, fsys, map[string]string{
		"/proj/ints.toml": strings.Join([]string{
			"[project]",
			`name = "demo"`,
			"",
			"[headers]",
			`dirs = ["hdr"]`,
			`bundle = "dist/std.bundle"`,
		}, "\n"),
		"/proj/dist/std.bundle": string(bundleData),
		"/proj/hdr/local.ints":  `fn local() -> [] { print("from header dir\n"); }`,
		"/proj/src/util.ints":   `fn util() -> [] { print("from source dir\n"); }`,
		"/proj/app.ints": strings.Join([]string{
			"use <local>",
			"use <packed>",
			`use "util.ints"`,
			"",
			"fn main(argc: [1], argv: [+]) -> [] {",
			"    local();",
			"    packed();",
			"    util();",
			"}",
		}, "\n"),
	})

	out, code, err := runProject(t, fsys, "", "/proj/app.ints")
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if code != 0 {
		t.Errorf("code = %d, want 0", code)
	}
	want := "from header dir\nfrom bundle\nfrom source dir\n"
	if out != want {
		t.Errorf("out = %q, want %q", out, want)
	}
}

func TestHeaderDirShadowsBundleAndEmbedded(t *testing.T) {
	fsys := afero.NewMemMapFs()

	bundleData, err := headers.MarshalBundle(headers.NewBundle(map[string]string{
		"args": `fn residual(argv: [+]) -> [] { print("never\n"); return []; }`,
	}))
	if err != nil {
		t.Fatalf("MarshalBundle: %v", err)
	}

	writeTree(t, fsys, map[string]string{
		"/proj/ints.toml": strings.Join([]string{
			"[project]",
			`name = "shadow"`,
			"",
			"[headers]",
			`dirs = ["hdr"]`,
			`bundle = "dist/std.bundle"`,
		}, "\n"),
		"/proj/dist/std.bundle": string(bundleData),
		"/proj/hdr/args.ints":   `fn residual(argv: [+]) -> [] { print("local wins\n"); return []; }`,
		"/proj/app.ints": strings.Join([]string{
			"use <args>",
			"",
			"fn main(argc: [1], argv: [+]) -> [] {",
			"    residual(argv);",
			"}",
		}, "\n"),
	})

	out, _, err := runProject(t, fsys, "", "/proj/app.ints")
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if out != "local wins\n" {
		t.Errorf("out = %q, want %q", out, "local wins\n")
	}
}

func TestStandardLibraryArgumentHelpers(t *testing.T) {
	fsys := afero.NewMemMapFs()
	writeTree(t, fsys, map[string]string{
		"/app.ints": strings.Join([]string{
			"use <args>",
			"use <ascii>",
			"",
			"fn main(argc: [1], argv: [+]) -> [] {",
			"    print(upper(fileName(argv)));",
			`    print("\n");`,
			"}",
		}, "\n"),
	})

	out, code, err := runProject(t, fsys, "", "/app.ints", "ints")
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if code != 0 {
		t.Errorf("code = %d, want 0", code)
	}
	if out != "INTS\n" {
		t.Errorf("out = %q, want %q", out, "INTS\n")
	}
}

func TestStandardLibraryMathHelpers(t *testing.T) {
	fsys := afero.NewMemMapFs()
	writeTree(t, fsys, map[string]string{
		"/app.ints": strings.Join([]string{
			"use <math>",
			"",
			"fn main(argc: [1], argv: [+]) -> [] {",
			"    if pow([2], [10]) == [1024] {",
			`        print("p");`,
			"    }",
			"    if sum([1, 2, 3]) == [6] {",
			`        print("s");`,
			"    }",
			"    if abs([-5]) == [5] {",
			`        print("a");`,
			"    }",
			"    if max(min([3], [7]), [2]) == [3] {",
			`        print("m");`,
			"    }",
			`    print("\n");`,
			"}",
		}, "\n"),
	})

	out, _, err := runProject(t, fsys, "", "/app.ints")
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if out != "psam\n" {
		t.Errorf("out = %q, want %q", out, "psam\n")
	}
}

func TestMissingStandardHeader(t *testing.T) {
	fsys := afero.NewMemMapFs()
	writeTree(t, fsys, map[string]string{
		"/app.ints": "use <mystery>\n\nfn main(argc: [1], argv: [+]) -> [] { }\n",
	})

	_, code, err := runProject(t, fsys, "", "/app.ints")
	if err == nil || err.Error() != "Standard header <mystery> not found" {
		t.Errorf("err = %v", err)
	}
	if code != 1 {
		t.Errorf("code = %d, want 1", code)
	}
}
