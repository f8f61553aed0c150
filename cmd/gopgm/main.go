// Command gopgm is a thin cobra CLI wrapping compiler.Console for
// scripted use: a JSON model description in, JSON out (the node dump, or
// per-step monitor statistics for extract) (spec.md §4.9). Grounded on the command-tree/zap-logging stack the
// rest of the retrieval pack's erigon-class binaries reach for
// (AKJUS-bsc-erigon/go.mod's cobra/pflag/zap require block) — no .go
// source in the pack exercises that stack directly, so the command
// wiring below follows cobra's own documented root/subcommand idiom
// rather than a specific file (see DESIGN.md).
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var logger *zap.Logger

func main() {
	var err error
	logger, err = zap.NewProduction()
	if err != nil {
		fmt.Fprintln(os.Stderr, "gopgm: failed to initialize logger:", err)
		os.Exit(1)
	}
	defer logger.Sync() //nolint:errcheck

	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "gopgm",
		Short: "Sequential Monte Carlo inference engine for Bayesian networks",
	}
	root.AddCommand(
		newCheckCmd(),
		newCompileCmd(),
		newRunCmd(),
		newDumpCmd(),
		newExtractCmd(),
	)
	return root
}
