// Bundler for ints standard headers.
// Packs the .ints files from the given directories into a single
// verifiable bundle that the ints CLI loads with -bundle.
package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"sort"

	"github.com/spf13/afero"

	"github.com/intslang/ints/headers"
	"github.com/intslang/ints/syntax"
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr io.Writer) int {
	flags := flag.NewFlagSet("ints-bundle", flag.ContinueOnError)
	flags.SetOutput(stderr)
	out := flags.String("o", "headers.bundle", "Output bundle file")
	verbose := flags.Bool("v", false, "List bundled headers")
	flags.Usage = func() {
		fmt.Fprintf(stderr, "Usage: ints-bundle [-o FILE] DIR...\n\n")
		fmt.Fprintf(stderr, "Bundles every .ints file under the given directories.\n\nOptions:\n")
		flags.PrintDefaults()
	}
	if err := flags.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		return 2
	}

	dirs := flags.Args()
	if len(dirs) == 0 {
		flags.Usage()
		return 1
	}

	fsys := afero.NewOsFs()
	sources, err := headers.CollectDirs(fsys, dirs)
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}

	// A header that does not parse is caught here rather than at every
	// program start that uses it.
	names := make([]string, 0, len(sources))
	for name := range sources {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		if _, err := syntax.Parse(sources[name]); err != nil {
			fmt.Fprintf(stderr, "Error: %s: %v\n", name, err)
			return 1
		}
	}

	data, err := headers.MarshalBundle(headers.NewBundle(sources))
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}
	if err := afero.WriteFile(fsys, *out, data, 0o644); err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}

	if *verbose {
		for _, name := range names {
			fmt.Fprintf(stdout, "  %s\n", name)
		}
	}
	fmt.Fprintf(stdout, "Bundled %d headers into %s\n", len(sources), *out)
	return 0
}
