// Package pbkeccak provides a [pbhash.Hasher] backed by legacy Keccak-256,
// the variant used throughout Ethereum (not the finalized SHA3-256).
package pbkeccak

import (
	"hash"
	"sync"

	"github.com/gordian-engine/pbmt/pbhash"
	"golang.org/x/crypto/sha3"
)

const HashSize = 32

// Hasher is a Keccak-256 [pbhash.Hasher].
type Hasher struct{}

var _ pbhash.Hasher = Hasher{}

var statePool = sync.Pool{New: func() any { return sha3.NewLegacyKeccak256() }}

func (Hasher) Leaf(in []byte, dst []byte) {
	h := statePool.Get().(hash.Hash)
	h.Reset()
	_, _ = h.Write(in)
	h.Sum(dst)
	statePool.Put(h)
}

func (Hasher) Node(left, right []byte, dst []byte) {
	h := statePool.Get().(hash.Hash)
	h.Reset()
	_, _ = h.Write(left)
	_, _ = h.Write(right)
	h.Sum(dst)
	statePool.Put(h)
}

func (Hasher) Size() int { return HashSize }
