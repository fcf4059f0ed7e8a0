package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

// flushCmd represents the flush command.
var flushCmd = &cobra.Command{
	Use:   "flush",
	Short: "Force every touched node to storage",
	Long: `Add and delete already flush automatically after every call; this
forces a sync point without performing a write, which is mostly useful
after a crash-recovery drill or before copying the data directory aside.

Example:
  bptreectl flush`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		tree, err := treeFromContext(cmd)
		if err != nil {
			return err
		}

		if err := tree.Flush(); err != nil {
			return fmt.Errorf("flush failed: %w", err)
		}

		fmt.Fprintln(cmd.OutOrStdout(), "flushed")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(flushCmd)
}
