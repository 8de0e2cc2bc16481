package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

func (c *command) initRootCmd() {
	c.root.AddCommand(&cobra.Command{
		Use:   "root FILE...",
		Short: "Print the root hash of a tree whose leaves are the given files",
		Long: `Print the root hash, in hex, of a tree whose leaves are the contents of the given files,
in the order given. The number of files must be a power of two.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			tree, err := c.buildTree(args)
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "%x\n", tree.Root())
			return nil
		},
	})
}
