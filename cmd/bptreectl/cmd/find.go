package cmd

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
)

// findCmd represents the find command.
var findCmd = &cobra.Command{
	Use:   "find <value>",
	Short: "Look up a value in the tree",
	Long: `Look up a value in the tree and report whether a live (not
deleted) key equal to it exists.

Example:
  bptreectl find 42`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		tree, err := treeFromContext(cmd)
		if err != nil {
			return err
		}

		v, err := strconv.ParseUint(args[0], 10, 64)
		if err != nil {
			return fmt.Errorf("invalid value %q: %w", args[0], err)
		}

		got, ok, err := tree.Find(v)
		if err != nil {
			return fmt.Errorf("find failed: %w", err)
		}
		if !ok {
			fmt.Fprintf(cmd.OutOrStdout(), "%d not found\n", v)
			return nil
		}

		fmt.Fprintf(cmd.OutOrStdout(), "%d\n", got)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(findCmd)
}
