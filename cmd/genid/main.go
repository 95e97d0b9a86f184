package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/pflag"

	"github.com/nkiryanov/sup/internal/objectid"
)

func main() {
	if err := run(os.Stdout, os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "error while generating ids: %v\n", err)
		os.Exit(1)
	}
}

// Print identifiers suitable for '_id' field, one per line
func run(w io.Writer, args []string) error {
	fs := pflag.NewFlagSet("genid", pflag.ContinueOnError)
	n := fs.IntP("count", "n", 1, "How many ids to generate")

	if err := fs.Parse(args); err != nil {
		return err
	}
	if *n < 1 {
		return fmt.Errorf("count must be positive, got %d", *n)
	}

	for range *n {
		if _, err := fmt.Fprintln(w, objectid.New()); err != nil {
			return err
		}
	}

	return nil
}
