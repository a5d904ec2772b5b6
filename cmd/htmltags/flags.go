package main

import (
	"fmt"
	"os"

	flag "github.com/spf13/pflag"
)

// cliFlags holds all flags for the build command.
type cliFlags struct {
	out     string
	workers int
	watch   bool
	verbose bool
	version bool
}

// parseFlags parses command-line flags and returns positional args.
func parseFlags(args []string) (*cliFlags, []string, error) {
	fs := flag.NewFlagSet("htmltags", flag.ContinueOnError)
	f := &cliFlags{}

	fs.StringVarP(&f.out, "out", "o", "", "output directory (overrides config)")
	fs.IntVarP(&f.workers, "workers", "w", 0, "parallel workers (0 = auto)")
	fs.BoolVar(&f.watch, "watch", false, "rebuild when page sources change")
	fs.BoolVarP(&f.verbose, "verbose", "v", false, "show build progress")
	fs.BoolVar(&f.version, "version", false, "print version and exit")

	fs.Usage = func() { printUsage(os.Stderr, fs) }

	if err := fs.Parse(args[1:]); err != nil {
		return nil, nil, err
	}
	return f, fs.Args(), nil
}

// printUsage writes the usage banner and flag help.
func printUsage(w *os.File, fs *flag.FlagSet) {
	fmt.Fprintln(w, "usage: htmltags [flags] <config.yaml>")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Builds the HTML pages declared in the config file, injecting the")
	fmt.Fprintln(w, "configured link and script tags into every generated document.")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Flags:")
	fmt.Fprint(w, fs.FlagUsages())
}
