// Command vinctl checks, decodes and repairs VINs from the command line.
package main

import (
	"errors"
	"log/slog"
	"os"
)

func main() {
	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn})))

	root := newRootCmd(os.Stdin, os.Stdout)
	if err := root.Execute(); err != nil {
		if !errors.Is(err, errInvalid) {
			root.PrintErrln("error:", err)
		}
		os.Exit(1)
	}
}
