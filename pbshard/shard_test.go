package pbshard_test

import (
	"fmt"
	"testing"

	"github.com/gordian-engine/pbmt"
	"github.com/gordian-engine/pbmt/internal/pbtest"
	"github.com/gordian-engine/pbmt/pbhash/pbkeccak"
	"github.com/gordian-engine/pbmt/pbshard"
	"github.com/stretchr/testify/require"
)

func TestSplit(t *testing.T) {
	t.Parallel()

	data := pbtest.RandomDataForTest(t, 1000)

	s, err := pbshard.Split(data, pbshard.SplitConfig{
		DataShards:   6,
		ParityShards: 2,
	})
	require.NoError(t, err)

	require.Len(t, s.Shards, 8)
	require.Equal(t, 8, s.Tree.NumLeaves())
	require.Equal(t, 1000, s.DataSize)

	for i, shard := range s.Shards {
		require.Len(t, shard, len(s.Shards[0]))
		require.True(t, s.Tree.VerifyProof(shard, s.Proof(i), s.Root()), "shard %d", i)
	}
}

func TestSplit_invalidConfig(t *testing.T) {
	t.Parallel()

	data := []byte("some data")

	for _, cfg := range []pbshard.SplitConfig{
		{DataShards: 0, ParityShards: 4},
		{DataShards: 4, ParityShards: 0},
		{DataShards: 5, ParityShards: 2},
		{DataShards: 400, ParityShards: 112},
	} {
		t.Run(fmt.Sprintf("%d+%d", cfg.DataShards, cfg.ParityShards), func(t *testing.T) {
			t.Parallel()

			_, err := pbshard.Split(data, cfg)
			require.Error(t, err)
		})
	}

	_, err := pbshard.Split(nil, pbshard.SplitConfig{DataShards: 2, ParityShards: 2})
	require.Error(t, err)
}

func TestCollector_allShards(t *testing.T) {
	t.Parallel()

	data := pbtest.RandomDataForTest(t, 4096)

	s, err := pbshard.Split(data, pbshard.SplitConfig{
		DataShards:   12,
		ParityShards: 4,
		Workers:      4,
	})
	require.NoError(t, err)

	c, err := pbshard.NewCollector(pbtest.NewLogger(t), s.CollectorConfig())
	require.NoError(t, err)

	for i, shard := range s.Shards {
		require.NoError(t, c.AddShard(i, shard, s.Proof(i)))
		require.True(t, c.HasShard(i))
	}

	require.Equal(t, 16, c.Count())
	require.Empty(t, c.Missing())

	got, err := c.Reconstruct()
	require.NoError(t, err)
	require.Equal(t, data, got)
}

func TestCollector_reconstructsFromParity(t *testing.T) {
	t.Parallel()

	data := pbtest.RandomDataForTest(t, 777)

	s, err := pbshard.Split(data, pbshard.SplitConfig{
		DataShards:   5,
		ParityShards: 3,
		Hasher:       pbkeccak.Hasher{},
	})
	require.NoError(t, err)

	c, err := pbshard.NewCollector(pbtest.NewLogger(t), s.CollectorConfig())
	require.NoError(t, err)

	// Drop data shards 0, 2, and 4; keep the rest including all parity.
	for _, i := range []int{1, 3, 5, 6} {
		require.NoError(t, c.AddShard(i, s.Shards[i], s.Proof(i)))
	}
	require.False(t, c.Ready())
	require.Equal(t, []int{0, 2, 4, 7}, c.Missing())

	_, err = c.Reconstruct()
	require.ErrorIs(t, err, pbshard.ErrInsufficientShards)

	require.NoError(t, c.AddShard(7, s.Shards[7], s.Proof(7)))
	require.True(t, c.Ready())

	got, err := c.Reconstruct()
	require.NoError(t, err)
	require.Equal(t, data, got)
}

func TestCollector_AddShard_rejections(t *testing.T) {
	t.Parallel()

	data := pbtest.RandomDataForTest(t, 300)

	s, err := pbshard.Split(data, pbshard.SplitConfig{
		DataShards:   2,
		ParityShards: 2,
	})
	require.NoError(t, err)

	c, err := pbshard.NewCollector(pbtest.NewLogger(t), s.CollectorConfig())
	require.NoError(t, err)

	t.Run("out of range", func(t *testing.T) {
		require.ErrorIs(t, c.AddShard(-1, s.Shards[0], s.Proof(0)), pbshard.ErrShardOutOfRange)
		require.ErrorIs(t, c.AddShard(4, s.Shards[0], s.Proof(0)), pbshard.ErrShardOutOfRange)
	})

	t.Run("tampered shard", func(t *testing.T) {
		tampered := append([]byte(nil), s.Shards[1]...)
		tampered[0] ^= 1
		require.ErrorIs(t, c.AddShard(1, tampered, s.Proof(1)), pbshard.ErrIncorrectShardData)
		require.False(t, c.HasShard(1))
	})

	t.Run("replayed at another index", func(t *testing.T) {
		// The shard and proof are authentic, but for index 2.
		require.ErrorIs(t, c.AddShard(3, s.Shards[2], s.Proof(2)), pbshard.ErrIncorrectShardData)
		require.False(t, c.HasShard(3))
	})

	t.Run("truncated proof", func(t *testing.T) {
		require.ErrorIs(t, c.AddShard(0, s.Shards[0], s.Proof(0)[:1]), pbshard.ErrIncorrectShardData)
	})

	t.Run("foreign proof", func(t *testing.T) {
		other, err := pbmt.NewTree(pbtest.ExampleData(4), pbmt.TreeConfig{})
		require.NoError(t, err)
		require.ErrorIs(t, c.AddShard(0, []byte{0}, other.ProveIndex(0)), pbshard.ErrIncorrectShardData)
	})

	t.Run("duplicate", func(t *testing.T) {
		require.NoError(t, c.AddShard(0, s.Shards[0], s.Proof(0)))
		require.ErrorIs(t, c.AddShard(0, s.Shards[0], s.Proof(0)), pbshard.ErrAlreadyHaveShard)
	})

	require.Equal(t, 1, c.Count())
}

func TestCollector_copiesShards(t *testing.T) {
	t.Parallel()

	data := pbtest.RandomDataForTest(t, 64)

	s, err := pbshard.Split(data, pbshard.SplitConfig{
		DataShards:   2,
		ParityShards: 2,
	})
	require.NoError(t, err)

	c, err := pbshard.NewCollector(pbtest.NewLogger(t), s.CollectorConfig())
	require.NoError(t, err)

	for _, i := range []int{2, 3} {
		shard := append([]byte(nil), s.Shards[i]...)
		require.NoError(t, c.AddShard(i, shard, s.Proof(i)))

		// Clobbering the caller's slice must not affect the collector.
		for j := range shard {
			shard[j] = 0
		}
	}

	got, err := c.Reconstruct()
	require.NoError(t, err)
	require.Equal(t, data, got)
}

func TestNewCollector_invalidConfig(t *testing.T) {
	t.Parallel()

	log := pbtest.NewLogger(t)

	_, err := pbshard.NewCollector(log, pbshard.CollectorConfig{
		NumData:   3,
		NumParity: 1,
		DataSize:  10,
		Root:      make([]byte, 31),
	})
	require.Error(t, err)

	_, err = pbshard.NewCollector(log, pbshard.CollectorConfig{
		NumData:   3,
		NumParity: 1,
		DataSize:  0,
		Root:      make([]byte, 32),
	})
	require.Error(t, err)

	_, err = pbshard.NewCollector(log, pbshard.CollectorConfig{
		NumData:   3,
		NumParity: 2,
		DataSize:  10,
		Root:      make([]byte, 32),
	})
	require.Error(t, err)
}
