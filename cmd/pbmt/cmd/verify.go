package cmd

import (
	"encoding/hex"
	"fmt"
	"os"

	"github.com/gordian-engine/pbmt"
	"github.com/spf13/cobra"
)

func (c *command) initVerifyCmd() {
	cmd := &cobra.Command{
		Use:   "verify --root HEX --proof HEX FILE",
		Short: "Check that a file is included under a root",
		Long: `Check that the contents of FILE, combined with the hex-encoded proof from "pbmt prove",
hash up to the given hex-encoded root. Prints true or false.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			root, err := hex.DecodeString(c.config.GetString(optionNameRoot))
			if err != nil {
				return fmt.Errorf("failed to decode --%s: %w", optionNameRoot, err)
			}

			proofBytes, err := hex.DecodeString(c.config.GetString(optionNameProof))
			if err != nil {
				return fmt.Errorf("failed to decode --%s: %w", optionNameProof, err)
			}

			var proof pbmt.Proof
			if err := proof.UnmarshalBinary(proofBytes); err != nil {
				return err
			}

			h, err := c.hasher()
			if err != nil {
				return err
			}

			if err := proof.Validate(h.Size()); err != nil {
				return err
			}

			data, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("failed to read data: %w", err)
			}

			ok := pbmt.VerifyProof(h, data, proof, root)
			if !ok {
				c.log.Debug("Proof did not verify", "file", args[0], "root", hex.EncodeToString(root))
			}

			fmt.Fprintf(cmd.OutOrStdout(), "%t\n", ok)
			return nil
		},
	}

	cmd.Flags().String(optionNameRoot, "", "expected root hash, in hex")
	cmd.Flags().String(optionNameProof, "", "proof from the prove command, in hex")

	c.root.AddCommand(cmd)
}
