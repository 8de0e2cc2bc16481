// Package pbmt contains a perfect binary Merkle tree
// with compact inclusion proofs.
//
// The tree is binary: each non-leaf node has exactly two children.
// It is perfect: the leaf count must be a power of two,
// so every leaf sits at the same depth
// and every proof has the same length.
// Hashes are stored in one contiguous memory allocation,
// layer by layer from the leaves up to the root,
// and parent, child, and sibling relationships
// are derived from positions and layer widths.
//
// Build a tree with [NewTree], derive a [Proof] for a data block
// with [*Tree.Prove], and check a proof against a root with [VerifyProof],
// which does not require access to the tree.
//
// Proofs are positional.
// If two leaves hold identical data, [*Tree.Prove] proves the first of them;
// use [*Tree.ProveIndex] to prove a specific position.
package pbmt
