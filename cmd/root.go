// Package cmd is the cpfile command-line explorer: a thin cobra
// wrapper over internal/cpfile and internal/blockstore for inspecting
// a checkpoint file without writing a custom host program.
package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	imagePath string
	verbose   bool
)

var rootCmd = &cobra.Command{
	Use:   "cpfile",
	Short: "Inspect a checkpoint file",
	Long: `cpfile is a read-only command-line tool for inspecting a NILFS2-style
checkpoint file: its aggregate counters, its checkpoint entries, and its
snapshot list.

Commands:
  stat              Print aggregate counters (cno, ncheckpoints, nsnapshots)
  list checkpoints  Enumerate checkpoint entries
  list snapshots    Walk the snapshot list`,
}

// Execute runs the root command, exiting non-zero on error.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "cpfile: %v\n", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&imagePath, "image", "cpfile.img", "path to the backing block-store image")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose output")
}
