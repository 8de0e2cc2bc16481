package pbshard

import (
	"bytes"
	"errors"
	"fmt"
	"log/slog"
	"math/bits"

	"github.com/bits-and-blooms/bitset"
	"github.com/gordian-engine/pbmt"
	"github.com/gordian-engine/pbmt/pbhash"
	"github.com/gordian-engine/pbmt/pbhash/pbsha256"
	"github.com/klauspost/reedsolomon"
)

var ErrShardOutOfRange = errors.New("shard index out of range")

var ErrAlreadyHaveShard = errors.New("already have shard at given index")

var ErrIncorrectShardData = errors.New("shard data did not match Merkle root")

var ErrInsufficientShards = errors.New("insufficient shards to reconstruct data")

// CollectorConfig contains all the details for [NewCollector].
// Senders can produce it with [*Sharded.CollectorConfig].
type CollectorConfig struct {
	NumData, NumParity int

	// Length of the original payload.
	DataSize int

	// The trusted Merkle root that every shard must prove into.
	Root []byte

	// Must match the hasher used by the sender.
	// If nil, [pbsha256.Hasher] is used.
	Hasher pbhash.Hasher
}

func (c CollectorConfig) validate() error {
	err := SplitConfig{
		DataShards:   c.NumData,
		ParityShards: c.NumParity,
	}.validate()

	if c.DataSize <= 0 {
		err = errors.Join(err, fmt.Errorf(
			"CollectorConfig.DataSize must be positive (got %d)", c.DataSize,
		))
	}

	hashSize := pbsha256.HashSize
	if c.Hasher != nil {
		hashSize = c.Hasher.Size()
	}
	if len(c.Root) != hashSize {
		err = errors.Join(err, fmt.Errorf(
			"CollectorConfig.Root must be %d bytes (got %d)", hashSize, len(c.Root),
		))
	}

	return err
}

// Collector gathers shards produced by [Split],
// verifying each against a trusted Merkle root,
// until there are enough to reconstruct the original payload.
//
// Collector is not safe for concurrent use.
type Collector struct {
	log *slog.Logger

	enc reedsolomon.Encoder

	hasher pbhash.Hasher
	root   []byte

	nData    int
	dataSize int
	proofLen int

	// Verified shard contents, nil where missing.
	shards [][]byte

	// Which shards have been verified and stored.
	have *bitset.BitSet
}

// NewCollector returns a Collector ready to accept shards.
func NewCollector(log *slog.Logger, cfg CollectorConfig) (*Collector, error) {
	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("invalid collector config: %w", err)
	}

	enc, err := reedsolomon.New(cfg.NumData, cfg.NumParity)
	if err != nil {
		return nil, fmt.Errorf(
			"failed to build Reed-Solomon encoder: %w", err,
		)
	}

	h := cfg.Hasher
	if h == nil {
		h = pbsha256.Hasher{}
	}

	total := cfg.NumData + cfg.NumParity

	return &Collector{
		log: log,

		enc: enc,

		hasher: h,
		root:   bytes.Clone(cfg.Root),

		nData:    cfg.NumData,
		dataSize: cfg.DataSize,

		// Total is a power of two, so this is log2(total).
		proofLen: bits.Len(uint(total)) - 1,

		shards: make([][]byte, total),

		have: bitset.MustNew(uint(total)),
	}, nil
}

// AddShard verifies that shard is the leaf at index idx
// of the tree with the collector's root, and stores a copy of it.
//
// If the collector already holds the shard, AddShard returns [ErrAlreadyHaveShard].
// If the proof does not connect the shard to the root at idx,
// AddShard returns an error wrapping [ErrIncorrectShardData].
func (c *Collector) AddShard(idx int, shard []byte, proof pbmt.Proof) error {
	if idx < 0 || idx >= len(c.shards) {
		return fmt.Errorf("%w: %d not in [0, %d)", ErrShardOutOfRange, idx, len(c.shards))
	}

	if c.have.Test(uint(idx)) {
		return ErrAlreadyHaveShard
	}

	if len(proof) != c.proofLen {
		c.log.Debug(
			"Rejecting shard with wrong proof length",
			"idx", idx, "got", len(proof), "want", c.proofLen,
		)
		return fmt.Errorf(
			"%w: proof has %d entries, expected %d",
			ErrIncorrectShardData, len(proof), c.proofLen,
		)
	}

	// Without this check, a valid shard could be replayed at another index.
	if proofIdx := proof.LeafIndex(); proofIdx != idx {
		c.log.Debug(
			"Rejecting shard whose proof is for a different index",
			"idx", idx, "proof_idx", proofIdx,
		)
		return fmt.Errorf(
			"%w: proof is for index %d, not %d",
			ErrIncorrectShardData, proofIdx, idx,
		)
	}

	if !pbmt.VerifyProof(c.hasher, shard, proof, c.root) {
		c.log.Debug("Rejecting shard that failed proof verification", "idx", idx)
		return fmt.Errorf("%w: index %d", ErrIncorrectShardData, idx)
	}

	c.shards[idx] = bytes.Clone(shard)
	c.have.Set(uint(idx))

	if c.have.Count() == uint(c.nData) {
		c.log.Info("Collected enough shards to reconstruct", "n_data", c.nData)
	}

	return nil
}

// HasShard reports whether the shard at idx has been verified and stored.
// It reports false if idx is out of range.
func (c *Collector) HasShard(idx int) bool {
	if idx < 0 {
		return false
	}
	return c.have.Test(uint(idx))
}

// Count returns the number of verified shards held.
func (c *Collector) Count() int {
	return int(c.have.Count())
}

// Ready reports whether enough shards are present to call [*Collector.Reconstruct].
func (c *Collector) Ready() bool {
	return c.have.Count() >= uint(c.nData)
}

// Missing returns the indices of shards not yet collected, in ascending order.
func (c *Collector) Missing() []int {
	missing := c.have.Complement()

	out := make([]int, 0, missing.Count())
	for u, ok := missing.NextSet(0); ok; u, ok = missing.NextSet(u + 1) {
		out = append(out, int(u))
	}
	return out
}

// Reconstruct rebuilds and returns the original payload.
// It returns [ErrInsufficientShards] if [*Collector.Ready] reports false.
func (c *Collector) Reconstruct() ([]byte, error) {
	if !c.Ready() {
		return nil, fmt.Errorf(
			"%w: have %d, need %d",
			ErrInsufficientShards, c.have.Count(), c.nData,
		)
	}

	// Only missing data shards are filled in; parity shards stay nil.
	// Reconstructed shards are not marked in c.have,
	// which only tracks shards that arrived with a valid proof.
	if err := c.enc.ReconstructData(c.shards); err != nil {
		return nil, fmt.Errorf("failed to reconstruct data shards: %w", err)
	}

	var buf bytes.Buffer
	buf.Grow(c.dataSize)
	if err := c.enc.Join(&buf, c.shards, c.dataSize); err != nil {
		return nil, fmt.Errorf("failed to join data shards: %w", err)
	}

	return buf.Bytes(), nil
}
