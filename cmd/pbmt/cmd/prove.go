package cmd

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func (c *command) initProveCmd() {
	cmd := &cobra.Command{
		Use:   "prove --target FILE FILE...",
		Short: "Print the inclusion proof for one file among the leaves",
		Long: `Build a tree whose leaves are the contents of the given files,
and print the hex-encoded binary inclusion proof for the contents of --target.
If several leaves have the same contents, the first is proven.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			targetPath := c.config.GetString(optionNameTarget)
			if targetPath == "" {
				return errors.New("--" + optionNameTarget + " is required")
			}

			target, err := os.ReadFile(targetPath)
			if err != nil {
				return fmt.Errorf("failed to read target: %w", err)
			}

			tree, err := c.buildTree(args)
			if err != nil {
				return err
			}

			proof, ok := tree.Prove(target)
			if !ok {
				return fmt.Errorf("contents of %s do not match any leaf", targetPath)
			}

			b, err := proof.MarshalBinary()
			if err != nil {
				return fmt.Errorf("failed to encode proof: %w", err)
			}

			c.log.Debug("Proved leaf", "index", proof.LeafIndex(), "proof", proof.String())

			fmt.Fprintf(cmd.OutOrStdout(), "%x\n", b)
			return nil
		},
	}

	cmd.Flags().String(optionNameTarget, "", "file whose contents are to be proven")

	c.root.AddCommand(cmd)
}
