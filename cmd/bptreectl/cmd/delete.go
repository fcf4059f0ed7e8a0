package cmd

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
)

// deleteCmd represents the delete command.
var deleteCmd = &cobra.Command{
	Use:   "delete <value> [values...]",
	Short: "Mark one or more values as deleted",
	Long: `Mark every live key equal to any of the given values as deleted
across the whole tree. Deletion is tombstone-only: the tree does not
rebalance or reclaim the slot, it is just skipped by find and iterate.

Example:
  bptreectl delete 42`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		tree, err := treeFromContext(cmd)
		if err != nil {
			return err
		}

		values := make([]uint64, len(args))
		for i, arg := range args {
			v, err := strconv.ParseUint(arg, 10, 64)
			if err != nil {
				return fmt.Errorf("invalid value %q: %w", arg, err)
			}
			values[i] = v
		}

		n, err := tree.Delete(values...)
		if err != nil {
			return fmt.Errorf("delete failed: %w", err)
		}

		fmt.Fprintf(cmd.OutOrStdout(), "deleted %d key(s)\n", n)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(deleteCmd)
}
