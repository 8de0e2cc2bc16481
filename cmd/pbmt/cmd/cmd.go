// Package cmd contains the pbmt command line interface.
package cmd

import (
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/gordian-engine/pbmt"
	"github.com/gordian-engine/pbmt/pbhash"
	"github.com/gordian-engine/pbmt/pbhash/pbblake2b"
	"github.com/gordian-engine/pbmt/pbhash/pbkeccak"
	"github.com/gordian-engine/pbmt/pbhash/pbsha256"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

const (
	optionNameConfig    = "config"
	optionNameHasher    = "hasher"
	optionNameWorkers   = "workers"
	optionNameVerbosity = "verbosity"
	optionNameLeaves    = "leaves"
	optionNameIndex     = "index"
	optionNameTarget    = "target"
	optionNameRoot      = "root"
	optionNameProof     = "proof"
)

type command struct {
	root    *cobra.Command
	config  *viper.Viper
	log     *slog.Logger
	cfgFile string
}

type option func(*command)

func newCommand(opts ...option) (c *command, err error) {
	c = &command{
		root: &cobra.Command{
			Use:           "pbmt",
			Short:         "Build perfect binary Merkle trees and check inclusion proofs",
			SilenceErrors: true,
			SilenceUsage:  true,
		},
	}
	c.root.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		if err := c.initConfig(); err != nil {
			return err
		}
		if err := c.config.BindPFlags(cmd.Flags()); err != nil {
			return err
		}
		return c.initLogger(cmd)
	}

	c.initGlobalFlags()

	c.initDemoCmd()
	c.initRootCmd()
	c.initProveCmd()
	c.initVerifyCmd()

	// Options run after flag registration,
	// which would otherwise reset any field bound to a flag.
	for _, o := range opts {
		o(c)
	}

	return c, nil
}

func (c *command) Execute() (err error) {
	return c.root.Execute()
}

// Execute parses command line arguments and runs appropriate functions.
func Execute() (err error) {
	c, err := newCommand()
	if err != nil {
		return err
	}
	return c.Execute()
}

func (c *command) initGlobalFlags() {
	globalFlags := c.root.PersistentFlags()
	globalFlags.StringVar(&c.cfgFile, optionNameConfig, "", "optional config file")
	globalFlags.String(optionNameHasher, "sha256", "hash function: sha256, blake2b, or keccak256")
	globalFlags.Int(optionNameWorkers, 1, "goroutines used to hash each tree layer")
	globalFlags.String(optionNameVerbosity, "info", "log verbosity level: debug, info, warn, or error")
}

func (c *command) initConfig() (err error) {
	config := viper.New()

	// Environment
	config.SetEnvPrefix("pbmt")
	config.AutomaticEnv() // read in environment variables that match
	config.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))

	// Unlike the environment, an explicitly named config file must exist.
	if c.cfgFile != "" {
		config.SetConfigFile(c.cfgFile)
		if err := config.ReadInConfig(); err != nil {
			return fmt.Errorf("failed to read config file %q: %w", c.cfgFile, err)
		}
	}

	c.config = config
	return nil
}

func (c *command) initLogger(cmd *cobra.Command) error {
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.config.GetString(optionNameVerbosity))); err != nil {
		return fmt.Errorf("invalid %s: %w", optionNameVerbosity, err)
	}

	c.log = slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{
		Level: level,
	}))
	return nil
}

func (c *command) hasher() (pbhash.Hasher, error) {
	name := c.config.GetString(optionNameHasher)
	switch strings.ToLower(name) {
	case "sha256", "sha-256":
		return pbsha256.Hasher{}, nil
	case "blake2b", "blake2b-256":
		return pbblake2b.Hasher{}, nil
	case "keccak256", "keccak-256", "keccak":
		return pbkeccak.Hasher{}, nil
	default:
		return nil, fmt.Errorf("unknown hasher %q", name)
	}
}

func (c *command) treeConfig() (pbmt.TreeConfig, error) {
	h, err := c.hasher()
	if err != nil {
		return pbmt.TreeConfig{}, err
	}
	return pbmt.TreeConfig{
		Hasher:  h,
		Workers: c.config.GetInt(optionNameWorkers),
	}, nil
}

// readLeaves returns the contents of each file in paths, in order.
func (c *command) readLeaves(paths []string) ([][]byte, error) {
	leaves := make([][]byte, len(paths))
	for i, p := range paths {
		b, err := os.ReadFile(p)
		if err != nil {
			return nil, fmt.Errorf("failed to read leaf %d: %w", i, err)
		}
		leaves[i] = b
	}
	c.log.Debug("Read leaves", "n", len(leaves))
	return leaves, nil
}

// buildTree reads every file in paths and builds a tree over their contents.
func (c *command) buildTree(paths []string) (*pbmt.Tree, error) {
	cfg, err := c.treeConfig()
	if err != nil {
		return nil, err
	}

	leaves, err := c.readLeaves(paths)
	if err != nil {
		return nil, err
	}

	tree, err := pbmt.NewTree(leaves, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to build tree: %w", err)
	}

	c.log.Debug(
		"Built tree",
		"leaves", tree.NumLeaves(), "layers", tree.NumLayers(), "workers", cfg.Workers,
	)
	return tree, nil
}
