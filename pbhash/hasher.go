// Package pbhash defines the hashing interface used by the pbmt Merkle tree.
//
// Implementations live in subpackages:
// [github.com/gordian-engine/pbmt/pbhash/pbsha256] is the default,
// and pbblake2b and pbkeccak are drop-in alternatives.
package pbhash

// Hasher is the interface for hashing leaves and nodes of a Merkle tree.
// The tree passes raw data blocks to the Leaf method to create a leaf node,
// and it passes pairs of previously computed digests to the Node method.
//
// To be allocation-efficient, the Hasher implementation
// must append its hash output to dst, instead of creating a new byte slice.
// Callers pass a zero-length dst whose capacity is at least Size().
// Hasher must not retain references to dst or to any input slice.
//
// Node must hash the byte concatenation of left then right,
// using the same primitive as Leaf, with no prefix or suffix.
// Proofs record which side each sibling sits on
// precisely because Node(a, b) and Node(b, a) differ.
//
// Furthermore, Hasher methods must be safe to call concurrently.
type Hasher interface {
	Leaf(in []byte, dst []byte)
	Node(left, right []byte, dst []byte)

	// Size is the length in bytes of every digest the Hasher produces.
	Size() int
}
