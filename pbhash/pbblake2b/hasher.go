// Package pbblake2b provides a [pbhash.Hasher] backed by BLAKE2b-256.
package pbblake2b

import (
	"fmt"
	"hash"

	"github.com/gordian-engine/pbmt/pbhash"
	"golang.org/x/crypto/blake2b"
)

const HashSize = blake2b.Size256

// Hasher is an unkeyed BLAKE2b-256 [pbhash.Hasher].
type Hasher struct{}

var _ pbhash.Hasher = Hasher{}

func (Hasher) Leaf(in []byte, dst []byte) {
	h := newHash()
	_, _ = h.Write(in)
	h.Sum(dst)
}

func (Hasher) Node(left, right []byte, dst []byte) {
	h := newHash()
	_, _ = h.Write(left)
	_, _ = h.Write(right)
	h.Sum(dst)
}

func (Hasher) Size() int { return HashSize }

func newHash() hash.Hash {
	h, err := blake2b.New256(nil)
	if err != nil {
		// Only possible with a key longer than 64 bytes.
		panic(fmt.Errorf("BUG: failed to create BLAKE2b hash: %w", err))
	}
	return h
}
