// Command protobase-inspect is an offline, read-only diagnostic tool for
// an Object Space directory: it prints the current root pointer, dumps
// WAL records, and verifies that every record in every WAL decodes
// cleanly. It never writes to the space — no NewWAL, no UpdateRoot — in
// the spirit of the teacher's cmd/warren-migrate single-purpose admin
// binary, scaled up to cobra subcommands since it covers more than one
// operation.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var spaceDir string

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "protobase-inspect",
	Short: "Inspect a ProtoBase object space without modifying it",
	Long: `protobase-inspect reads an Object Space's on-disk state directly:
the current root pointer, the raw WAL records behind it, and whether
every record decodes without corruption.

It never acquires the root lock and never writes to the space; it is
safe to run against a space another process has open.`,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&spaceDir, "space-dir", "", "path to the object space directory (required)")
	rootCmd.MarkPersistentFlagRequired("space-dir")

	rootCmd.AddCommand(rootPointerCmd)
	rootCmd.AddCommand(walCmd)
	rootCmd.AddCommand(verifyCmd)
}
