package cmd

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
)

// addCmd represents the add command.
var addCmd = &cobra.Command{
	Use:   "add <value> [values...]",
	Short: "Insert one or more values into the tree",
	Long: `Insert one or more uint64 values into the tree, splitting nodes
along the insertion path as needed, and flush the result to disk.

Example:
  bptreectl add 42 43 44`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		tree, err := treeFromContext(cmd)
		if err != nil {
			return err
		}

		for _, arg := range args {
			v, err := strconv.ParseUint(arg, 10, 64)
			if err != nil {
				return fmt.Errorf("invalid value %q: %w", arg, err)
			}
			if err := tree.Add(v); err != nil {
				return fmt.Errorf("failed to add %d: %w", v, err)
			}
		}

		fmt.Fprintf(cmd.OutOrStdout(), "added %d value(s)\n", len(args))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(addCmd)
}
