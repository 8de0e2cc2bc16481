package pbmt_test

import (
	"strings"
	"testing"

	"github.com/gordian-engine/pbmt"
	"github.com/gordian-engine/pbmt/internal/pbtest"
	"github.com/stretchr/testify/require"
)

func TestProof_LeafIndex(t *testing.T) {
	t.Parallel()

	tree, err := pbmt.NewTree(pbtest.ExampleData(32), pbmt.TreeConfig{})
	require.NoError(t, err)

	for i := range tree.NumLeaves() {
		require.Equal(t, i, tree.ProveIndex(i).LeafIndex())
	}
}

func TestProof_binary(t *testing.T) {
	t.Parallel()

	tree, err := pbmt.NewTree(pbtest.ExampleData(16), pbmt.TreeConfig{})
	require.NoError(t, err)

	p := tree.ProveIndex(11)

	b, err := p.MarshalBinary()
	require.NoError(t, err)
	require.Len(t, b, 2+4*(1+32))
	require.Equal(t, byte(4), b[0])
	require.Equal(t, byte(32), b[1])

	var decoded pbmt.Proof
	require.NoError(t, decoded.UnmarshalBinary(b))
	require.Equal(t, p, decoded)

	// The decoded proof must not alias the encoded bytes.
	b[3]++
	require.True(t, tree.VerifyProof([]byte{11}, decoded, tree.Root()))
}

func TestProof_binary_empty(t *testing.T) {
	t.Parallel()

	b, err := pbmt.Proof(nil).MarshalBinary()
	require.NoError(t, err)
	require.Equal(t, []byte{0, 0}, b)

	var decoded pbmt.Proof
	require.NoError(t, decoded.UnmarshalBinary(b))
	require.Empty(t, decoded)
}

func TestProof_UnmarshalBinary_malformed(t *testing.T) {
	t.Parallel()

	tree, err := pbmt.NewTree(pbtest.ExampleData(4), pbmt.TreeConfig{})
	require.NoError(t, err)

	valid, err := tree.ProveIndex(0).MarshalBinary()
	require.NoError(t, err)

	for name, in := range map[string][]byte{
		"nil":       nil,
		"header":    {2},
		"truncated": valid[:len(valid)-1],
		"trailing":  append(append([]byte(nil), valid...), 0),
		"direction": func() []byte {
			b := append([]byte(nil), valid...)
			b[2] = 2
			return b
		}(),
	} {
		var p pbmt.Proof
		err := p.UnmarshalBinary(in)
		require.ErrorIs(t, err, pbmt.ErrMalformedProof, "case %q", name)
		require.Nil(t, p, "case %q", name)
	}
}

func TestProof_MarshalBinary_mixedDigestSizes(t *testing.T) {
	t.Parallel()

	p := pbmt.Proof{
		{Direction: pbmt.Left, Digest: make([]byte, 32)},
		{Direction: pbmt.Right, Digest: make([]byte, 20)},
	}

	_, err := p.MarshalBinary()
	require.ErrorIs(t, err, pbmt.ErrMalformedProof)
}

func TestProof_Validate(t *testing.T) {
	t.Parallel()

	tree, err := pbmt.NewTree(pbtest.ExampleData(8), pbmt.TreeConfig{})
	require.NoError(t, err)

	p := tree.ProveIndex(3)
	require.NoError(t, p.Validate(32))
	require.ErrorIs(t, p.Validate(20), pbmt.ErrMalformedProof)

	p[2].Direction = 9
	require.ErrorIs(t, p.Validate(32), pbmt.ErrMalformedProof)
}

func TestProof_String(t *testing.T) {
	t.Parallel()

	p := pbmt.Proof{
		{Direction: pbmt.Right, Digest: []byte{0x0a, 0xbc}},
		{Direction: pbmt.Left, Digest: []byte{0xff}},
	}
	require.Equal(t, "right:0abc left:ff", p.String())

	tree, err := pbmt.NewTree(pbtest.ExampleData(4), pbmt.TreeConfig{})
	require.NoError(t, err)

	// Digests render as 64 lowercase hex characters.
	for _, part := range strings.Fields(tree.ProveIndex(0).String()) {
		_, digest, ok := strings.Cut(part, ":")
		require.True(t, ok)
		require.Len(t, digest, 64)
		require.Equal(t, strings.ToLower(digest), digest)
	}
}

func TestDirection_String(t *testing.T) {
	t.Parallel()

	require.Equal(t, "left", pbmt.Left.String())
	require.Equal(t, "right", pbmt.Right.String())
	require.Equal(t, "Direction(5)", pbmt.Direction(5).String())
}
