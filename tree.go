package pbmt

import (
	"bytes"
	"fmt"
	"math/bits"

	"github.com/gordian-engine/pbmt/pbhash"
	"github.com/gordian-engine/pbmt/pbhash/pbsha256"
	"golang.org/x/sync/errgroup"
)

// Tree is a perfect binary Merkle tree.
// All leaves have the same depth.
//
// Create a tree with [NewTree].
// A Tree is immutable, so it is safe for concurrent use.
type Tree struct {
	// View into the backing mem slice.
	// Layers are laid out bottom to top:
	// the first nLeaves entries are the leaves, and the final entry is the root.
	nodes [][]byte

	nLeaves int
	nLayers int

	hasher pbhash.Hasher
}

// TreeConfig is the configuration used for [NewTree].
// The zero value is ready to use.
type TreeConfig struct {
	// How to hash leaves and nodes.
	// If nil, [pbsha256.Hasher] is used.
	Hasher pbhash.Hasher

	// Workers bounds the number of goroutines
	// hashing the leaves or a single layer of the tree.
	// Zero or one means the tree is built on the calling goroutine.
	Workers int
}

// Layers with fewer hashes than this are always computed sequentially.
const minParallelWidth = 64

// NewTree hashes every data block in leaves
// and builds every layer of the tree up through the root.
//
// The number of leaves must be a positive power of two;
// otherwise NewTree returns an [InvalidLeafCountError].
// The tree does not retain any reference to leaves or their contents.
func NewTree(leaves [][]byte, cfg TreeConfig) (*Tree, error) {
	nLeaves := len(leaves)
	if nLeaves == 0 || nLeaves&(nLeaves-1) != 0 {
		return nil, InvalidLeafCountError{Count: nLeaves}
	}

	h := cfg.Hasher
	if h == nil {
		h = pbsha256.Hasher{}
	}

	t := newEmptyTree(nLeaves, h)

	forEach(nLeaves, cfg.Workers, func(i int) {
		h.Leaf(leaves[i], t.nodes[i][:0])
	})

	t.complete(cfg.Workers)

	return t, nil
}

// newEmptyTree returns a tree with memory allocated
// for nLeaves leaves and every node above them.
func newEmptyTree(nLeaves int, h pbhash.Hasher) *Tree {
	hashSize := h.Size()
	if hashSize <= 0 {
		panic(fmt.Errorf(
			"BUG: hash size must be positive (got %d)", hashSize,
		))
	}

	// Any tree where every non-leaf node has exactly two children
	// has this many nodes.
	nNodes := 2*nLeaves - 1

	// We know the exact number of nodes and the size of each hash,
	// so we back the entire tree with a single byte slice.
	mem := make([]byte, nNodes*hashSize)

	nodes := make([][]byte, nNodes)
	for i := range nNodes {
		start := i * hashSize
		end := start + hashSize

		// Cap each view so a misbehaving hasher cannot write into a neighbor.
		nodes[i] = mem[start:end:end]
	}

	return &Tree{
		nodes: nodes,

		nLeaves: nLeaves,
		nLayers: bits.Len(uint(nLeaves)),

		hasher: h,
	}
}

// complete reads each layer starting from the leaves,
// merging nodes pairwise, left to right,
// and writes the merged layer immediately after the layer it read.
func (t *Tree) complete(workers int) {
	readStartIdx := 0
	layerWidth := t.nLeaves

	for layerWidth > 1 {
		writeStartIdx := readStartIdx + layerWidth

		// Each pair writes to its own slot in the next layer,
		// so the pairs may be hashed in any order.
		forEach(layerWidth/2, workers, func(i int) {
			leftIdx := readStartIdx + 2*i
			t.hasher.Node(t.nodes[leftIdx], t.nodes[leftIdx+1], t.nodes[writeStartIdx+i][:0])
		})

		readStartIdx = writeStartIdx
		layerWidth >>= 1
	}
}

// forEach calls fn for every index in [0, n),
// splitting the range into contiguous chunks across at most workers goroutines.
// It returns once every call has returned.
func forEach(n, workers int, fn func(i int)) {
	if workers <= 1 || n < minParallelWidth {
		for i := range n {
			fn(i)
		}
		return
	}

	var g errgroup.Group
	g.SetLimit(workers)

	chunk := (n + workers - 1) / workers
	for start := 0; start < n; start += chunk {
		end := min(start+chunk, n)
		g.Go(func() error {
			for i := start; i < end; i++ {
				fn(i)
			}
			return nil
		})
	}

	// The chunk functions never fail.
	_ = g.Wait()
}

// NumLeaves returns the number of leaves the tree was built from.
func (t *Tree) NumLeaves() int { return t.nLeaves }

// NumLayers returns the number of layers in the tree,
// including the leaf layer and the root layer.
func (t *Tree) NumLayers() int { return t.nLayers }

// NumNodes returns the total number of hashes stored in the tree,
// which is always 2*NumLeaves()-1.
func (t *Tree) NumNodes() int { return len(t.nodes) }

// HashSize returns the size in bytes of every hash in the tree.
func (t *Tree) HashSize() int { return t.hasher.Size() }

// Hasher returns the hasher the tree was built with.
func (t *Tree) Hasher() pbhash.Hasher { return t.hasher }

// Root returns a copy of the root hash.
func (t *Tree) Root() []byte {
	return bytes.Clone(t.nodes[len(t.nodes)-1])
}

// Leaf returns a copy of the calculated hash for the leaf at the given index.
func (t *Tree) Leaf(idx int) []byte {
	if idx < 0 || idx >= t.nLeaves {
		panic(fmt.Errorf(
			"BUG: attempted to get leaf at index %d; must be in range [0, %d)",
			idx, t.nLeaves,
		))
	}

	return bytes.Clone(t.nodes[idx])
}

// Node returns a copy of the hash at the given index
// of the flat node sequence.
// Index 0 is the first leaf and index NumNodes()-1 is the root.
func (t *Tree) Node(idx int) []byte {
	if idx < 0 || idx >= len(t.nodes) {
		panic(fmt.Errorf(
			"BUG: attempted to get node at index %d; must be in range [0, %d)",
			idx, len(t.nodes),
		))
	}

	return bytes.Clone(t.nodes[idx])
}

// HasRoot reports whether root equals the tree's own root hash.
//
// HasRoot only compares against the root computed during [NewTree].
// To check that a particular data set produces a root, use [*Tree.Verify];
// to check that a single data block belongs under a root,
// use [*Tree.VerifyProof] or [VerifyProof].
func (t *Tree) HasRoot(root []byte) bool {
	return bytes.Equal(t.nodes[len(t.nodes)-1], root)
}

// Verify rebuilds a tree from leaves with t's hasher,
// and reports whether the rebuilt root equals root
// and root equals t's own root.
//
// Verify reports false if leaves cannot form a tree.
func (t *Tree) Verify(leaves [][]byte, root []byte) bool {
	if !t.HasRoot(root) {
		return false
	}

	rebuilt, err := NewTree(leaves, TreeConfig{Hasher: t.hasher})
	if err != nil {
		return false
	}

	return rebuilt.HasRoot(root)
}

// Prove returns the inclusion proof for the first leaf
// whose hash matches the hash of data.
// If no leaf matches, Prove returns false.
func (t *Tree) Prove(data []byte) (Proof, bool) {
	target := make([]byte, t.hasher.Size())
	t.hasher.Leaf(data, target[:0])

	for i, leaf := range t.nodes[:t.nLeaves] {
		if bytes.Equal(leaf, target) {
			return t.ProveIndex(i), true
		}
	}

	return nil, false
}

// ProveIndex returns the inclusion proof for the leaf at the given index.
//
// The proof holds its own copies of the sibling hashes,
// so it remains valid after t is discarded.
func (t *Tree) ProveIndex(idx int) Proof {
	if idx < 0 || idx >= t.nLeaves {
		panic(fmt.Errorf(
			"BUG: attempted to prove leaf at index %d; must be in range [0, %d)",
			idx, t.nLeaves,
		))
	}

	hashSize := t.hasher.Size()
	proofLen := t.nLayers - 1

	p := make(Proof, proofLen)

	// All the sibling hashes share one allocation.
	mem := make([]byte, proofLen*hashSize)

	layerStartIdx := 0
	layerWidth := t.nLeaves
	offset := idx // Position within the current layer.

	for i := range proofLen {
		// We already know (or can compute) the hash on our side of the pair,
		// so the proof only needs the other side.
		var siblingIdx int
		if offset&1 == 0 {
			siblingIdx = layerStartIdx + offset + 1
			p[i].Direction = Right
		} else {
			siblingIdx = layerStartIdx + offset - 1
			p[i].Direction = Left
		}

		start := i * hashSize
		end := start + hashSize
		p[i].Digest = mem[start:end:end]
		copy(p[i].Digest, t.nodes[siblingIdx])

		// The parent of this pair is now the known node.
		layerStartIdx += layerWidth
		layerWidth >>= 1
		offset >>= 1
	}

	return p
}

// VerifyProof reports whether proof shows data to be a leaf
// of a tree with the given root, using t's hasher.
//
// Unlike [VerifyProof], it also rejects proofs
// whose length does not match the height of t.
func (t *Tree) VerifyProof(data []byte, proof Proof, root []byte) bool {
	if len(proof) != t.nLayers-1 {
		return false
	}

	return VerifyProof(t.hasher, data, proof, root)
}

// VerifyProof recomputes a root by hashing data with h
// and then combining it with each proof entry in order,
// and reports whether the result equals root.
//
// A false result covers tampered data, a tampered proof, a wrong root,
// and any proof entry with an unknown direction or a wrongly sized digest.
func VerifyProof(h pbhash.Hasher, data []byte, proof Proof, root []byte) bool {
	hashSize := h.Size()
	if len(root) != hashSize {
		return false
	}

	// Alternate between two buffers so that Node never writes into its input.
	mem := make([]byte, 2*hashSize)
	cur := mem[:hashSize:hashSize]
	next := mem[hashSize:]

	h.Leaf(data, cur[:0])

	for _, e := range proof {
		if len(e.Digest) != hashSize {
			return false
		}

		switch e.Direction {
		case Left:
			h.Node(e.Digest, cur, next[:0])
		case Right:
			h.Node(cur, e.Digest, next[:0])
		default:
			return false
		}

		cur, next = next, cur
	}

	return bytes.Equal(cur, root)
}
