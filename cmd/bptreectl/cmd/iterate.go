package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

// iterateCmd represents the iterate command.
var iterateCmd = &cobra.Command{
	Use:   "iterate",
	Short: "Print every live value in ascending order",
	Long: `Walk the tree's in-order iterator from the first live key to the
last, printing one value per line.

Example:
  bptreectl iterate`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		tree, err := treeFromContext(cmd)
		if err != nil {
			return err
		}

		it, err := tree.Iterator()
		if err != nil {
			return fmt.Errorf("failed to start iterator: %w", err)
		}

		count := 0
		for {
			v, ok, err := it.Next()
			if err != nil {
				return fmt.Errorf("iteration failed: %w", err)
			}
			if !ok {
				break
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%d\n", v)
			count++
		}

		fmt.Fprintf(cmd.ErrOrStderr(), "%d value(s)\n", count)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(iterateCmd)
}
