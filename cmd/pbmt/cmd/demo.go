package cmd

import (
	"fmt"

	"github.com/gordian-engine/pbmt"
	"github.com/spf13/cobra"
)

func (c *command) initDemoCmd() {
	cmd := &cobra.Command{
		Use:   "demo",
		Short: "Build a tree over example data and prove one leaf",
		Long: `Build a tree whose leaves are the single bytes 0x00, 0x01, and so on,
then print every node, the proof for the leaf at --index,
the root, and whether the proof verifies against the root.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			n := c.config.GetInt(optionNameLeaves)
			idx := c.config.GetInt(optionNameIndex)
			if n > maxExampleLeaves {
				return fmt.Errorf("--%s %d exceeds limit of %d", optionNameLeaves, n, maxExampleLeaves)
			}
			if idx < 0 || idx >= n {
				return fmt.Errorf("--%s %d out of range [0, %d)", optionNameIndex, idx, n)
			}

			cfg, err := c.treeConfig()
			if err != nil {
				return err
			}

			data := exampleData(n)
			tree, err := pbmt.NewTree(data, cfg)
			if err != nil {
				return fmt.Errorf("failed to build tree: %w", err)
			}

			out := cmd.OutOrStdout()
			for i, d := range data {
				fmt.Fprintf(out, "data %d: %x\n", i, d)
			}
			for i := range tree.NumNodes() {
				fmt.Fprintf(out, "node %d: %x\n", i, tree.Node(i))
			}

			sample := data[idx]
			proof, ok := tree.Prove(sample)
			if !ok {
				// Every example leaf is in the tree.
				panic(fmt.Errorf("BUG: example leaf %d not found in tree", idx))
			}

			root := tree.Root()
			fmt.Fprintf(out, "proof: %s\n", proof)
			fmt.Fprintf(out, "root: %x\n", root)
			fmt.Fprintf(out, "valid: %t\n", tree.VerifyProof(sample, proof, root))

			return nil
		},
	}

	cmd.Flags().Int(optionNameLeaves, 8, "number of example leaves; must be a power of two no greater than 256")
	cmd.Flags().Int(optionNameIndex, 2, "index of the example leaf to prove")

	c.root.AddCommand(cmd)
}

// Past this many leaves the example bytes would repeat,
// and Prove would find the earlier copy.
const maxExampleLeaves = 256

// exampleData returns n single-byte leaves: 0x00, 0x01, and so on.
func exampleData(n int) [][]byte {
	out := make([][]byte, n)
	for i := range out {
		out[i] = []byte{byte(i)}
	}
	return out
}
