package pbmt

import (
	"encoding/hex"
	"fmt"
	"strings"
)

// Direction indicates which side a sibling hash occupies
// when it is combined with the hash being carried up the tree.
type Direction uint8

const (
	// Left means the sibling is the left operand: Node(sibling, current).
	Left Direction = iota

	// Right means the sibling is the right operand: Node(current, sibling).
	Right
)

func (d Direction) String() string {
	switch d {
	case Left:
		return "left"
	case Right:
		return "right"
	default:
		return fmt.Sprintf("Direction(%d)", uint8(d))
	}
}

// ProofEntry is a single sibling hash in a [Proof].
type ProofEntry struct {
	Direction Direction
	Digest    []byte
}

// Proof is an inclusion proof:
// the sibling hashes along the path from a leaf to the root,
// ordered from the leaf's immediate sibling
// to the sibling that is a child of the root.
//
// A Proof names neither its leaf nor its root;
// it is only meaningful alongside the original data block and a claimed root.
// A proof for a single-leaf tree is empty.
type Proof []ProofEntry

// LeafIndex returns the position of the proven leaf,
// as implied by the directions in the proof.
// A sibling on the left at step i means the proven node
// was a right child, so bit i of the index is set.
func (p Proof) LeafIndex() int {
	var idx int
	for i, e := range p {
		if e.Direction == Left {
			idx |= 1 << i
		}
	}
	return idx
}

// Validate returns an error wrapping [ErrMalformedProof]
// if any entry has an unknown direction
// or a digest whose length is not hashSize.
func (p Proof) Validate(hashSize int) error {
	for i, e := range p {
		if e.Direction != Left && e.Direction != Right {
			return fmt.Errorf("%w: entry %d has unknown direction %d", ErrMalformedProof, i, e.Direction)
		}
		if len(e.Digest) != hashSize {
			return fmt.Errorf(
				"%w: entry %d has digest length %d, expected %d",
				ErrMalformedProof, i, len(e.Digest), hashSize,
			)
		}
	}
	return nil
}

// String renders each entry as direction:hex, separated by spaces.
func (p Proof) String() string {
	var sb strings.Builder
	for i, e := range p {
		if i > 0 {
			sb.WriteByte(' ')
		}
		sb.WriteString(e.Direction.String())
		sb.WriteByte(':')
		sb.WriteString(hex.EncodeToString(e.Digest))
	}
	return sb.String()
}

// Proofs are limited by their one-byte header fields.
const (
	maxProofEntries = 255
	maxDigestSize   = 255
)

// MarshalBinary encodes the proof as
// a one-byte entry count, a one-byte digest size,
// and then each entry as a one-byte direction followed by its digest.
//
// Every digest must have the same length.
func (p Proof) MarshalBinary() ([]byte, error) {
	if len(p) > maxProofEntries {
		return nil, fmt.Errorf("proof has %d entries; at most %d can be encoded", len(p), maxProofEntries)
	}

	var hashSize int
	if len(p) > 0 {
		hashSize = len(p[0].Digest)
	}
	if hashSize > maxDigestSize {
		return nil, fmt.Errorf("digest size %d too large; at most %d can be encoded", hashSize, maxDigestSize)
	}
	if err := p.Validate(hashSize); err != nil {
		return nil, err
	}

	out := make([]byte, 2, 2+len(p)*(1+hashSize))
	out[0] = byte(len(p))
	out[1] = byte(hashSize)

	for _, e := range p {
		out = append(out, byte(e.Direction))
		out = append(out, e.Digest...)
	}

	return out, nil
}

// UnmarshalBinary decodes a proof produced by [Proof.MarshalBinary].
// Every returned error wraps [ErrMalformedProof].
//
// The decoded digests do not reference b.
func (p *Proof) UnmarshalBinary(b []byte) error {
	if len(b) < 2 {
		return fmt.Errorf("%w: need at least 2 header bytes, got %d", ErrMalformedProof, len(b))
	}

	nEntries := int(b[0])
	hashSize := int(b[1])
	b = b[2:]

	if want := nEntries * (1 + hashSize); len(b) != want {
		return fmt.Errorf(
			"%w: %d entries of size %d need %d bytes, got %d",
			ErrMalformedProof, nEntries, hashSize, want, len(b),
		)
	}

	out := make(Proof, nEntries)
	mem := make([]byte, nEntries*hashSize)

	for i := range nEntries {
		d := Direction(b[0])
		if d != Left && d != Right {
			return fmt.Errorf("%w: entry %d has unknown direction %d", ErrMalformedProof, i, d)
		}

		start := i * hashSize
		end := start + hashSize
		out[i].Direction = d
		out[i].Digest = mem[start:end:end]
		copy(out[i].Digest, b[1:1+hashSize])

		b = b[1+hashSize:]
	}

	*p = out
	return nil
}
