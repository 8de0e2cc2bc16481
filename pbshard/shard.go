// Package pbshard erasure-codes a payload into shards
// and commits to those shards with a [pbmt.Tree].
//
// The sending side calls [Split] and distributes each shard
// alongside its inclusion proof.
// The receiving side feeds shards into a [Collector],
// which rejects any shard that does not match the Merkle root,
// and reconstructs the payload once enough shards have arrived.
package pbshard

import (
	"errors"
	"fmt"

	"github.com/gordian-engine/pbmt"
	"github.com/gordian-engine/pbmt/pbhash"
	"github.com/gordian-engine/pbmt/pbhash/pbsha256"
	"github.com/klauspost/reedsolomon"
)

// The Reed-Solomon encoder works over GF(2^8),
// so data and parity shards together are limited to 256.
const maxShards = 256

// SplitConfig is the configuration for [Split].
type SplitConfig struct {
	// Number of shards the payload is split into.
	// Any DataShards shards are sufficient to reconstruct the payload.
	DataShards int

	// Number of additional parity shards.
	// Must be at least one,
	// and DataShards+ParityShards must be a power of two
	// so that the shards form a perfect Merkle tree.
	ParityShards int

	// How to hash shards into the Merkle tree.
	// If nil, [pbsha256.Hasher] is used.
	Hasher pbhash.Hasher

	// Passed through to [pbmt.TreeConfig.Workers].
	Workers int
}

func (c SplitConfig) validate() error {
	var err error

	if c.DataShards <= 0 {
		err = errors.Join(err, fmt.Errorf(
			"SplitConfig.DataShards must be positive (got %d)", c.DataShards,
		))
	}
	if c.ParityShards <= 0 {
		err = errors.Join(err, fmt.Errorf(
			"SplitConfig.ParityShards must be positive (got %d)", c.ParityShards,
		))
	}

	total := c.DataShards + c.ParityShards
	if total > maxShards {
		err = errors.Join(err, fmt.Errorf(
			"total shard count %d exceeds limit of %d", total, maxShards,
		))
	}
	if total > 0 && total&(total-1) != 0 {
		err = errors.Join(err, fmt.Errorf(
			"total shard count %d must be a power of two", total,
		))
	}

	return err
}

// Sharded is the value returned by [Split].
type Sharded struct {
	// Tree is the Merkle tree whose leaves are Shards.
	Tree *pbmt.Tree

	// The data shards followed by the parity shards.
	// Every shard has the same length.
	// Data shards may share memory with the payload passed to Split.
	Shards [][]byte

	NumData, NumParity int

	// The length of the original payload,
	// needed to strip padding when reconstructing.
	DataSize int
}

// Split erasure-codes data into cfg.DataShards data shards
// and cfg.ParityShards parity shards,
// then builds a Merkle tree over all of them.
func Split(data []byte, cfg SplitConfig) (*Sharded, error) {
	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("invalid split config: %w", err)
	}

	if len(data) == 0 {
		return nil, errors.New("cannot split empty data")
	}

	shardSize := (len(data) + cfg.DataShards - 1) / cfg.DataShards

	enc, err := reedsolomon.New(
		cfg.DataShards, cfg.ParityShards,
		reedsolomon.WithAutoGoroutines(shardSize),
	)
	if err != nil {
		return nil, fmt.Errorf(
			"failed to build Reed-Solomon encoder: %w", err,
		)
	}

	shards, err := enc.Split(data)
	if err != nil {
		return nil, fmt.Errorf(
			"failed to split data for sharding: %w", err,
		)
	}

	if err := enc.Encode(shards); err != nil {
		return nil, fmt.Errorf(
			"failed to erasure-code data: %w", err,
		)
	}

	h := cfg.Hasher
	if h == nil {
		h = pbsha256.Hasher{}
	}

	tree, err := pbmt.NewTree(shards, pbmt.TreeConfig{
		Hasher:  h,
		Workers: cfg.Workers,
	})
	if err != nil {
		// Validation guarantees a power of two, so this is a bug.
		panic(fmt.Errorf("BUG: failed to build tree over shards: %w", err))
	}

	return &Sharded{
		Tree:   tree,
		Shards: shards,

		NumData:   cfg.DataShards,
		NumParity: cfg.ParityShards,

		DataSize: len(data),
	}, nil
}

// Root returns the Merkle root committing to every shard.
func (s *Sharded) Root() []byte {
	return s.Tree.Root()
}

// Proof returns the inclusion proof for the shard at index idx.
// Shards are proven by index, not content,
// because distinct positions may hold identical bytes.
func (s *Sharded) Proof(idx int) pbmt.Proof {
	return s.Tree.ProveIndex(idx)
}

// CollectorConfig returns the configuration
// a receiver needs in order to collect these shards.
func (s *Sharded) CollectorConfig() CollectorConfig {
	return CollectorConfig{
		NumData:   s.NumData,
		NumParity: s.NumParity,
		DataSize:  s.DataSize,
		Root:      s.Root(),
		Hasher:    s.Tree.Hasher(),
	}
}
