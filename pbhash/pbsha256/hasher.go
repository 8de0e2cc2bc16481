// Package pbsha256 provides the default [pbhash.Hasher], backed by SHA-256.
package pbsha256

import (
	"github.com/gordian-engine/pbmt/pbhash"
	"github.com/minio/sha256-simd"
)

const HashSize = sha256.Size

// Hasher is a [pbhash.Hasher] backed by SHA-256 hashes.
// It uses SIMD acceleration where the CPU supports it.
type Hasher struct{}

var _ pbhash.Hasher = Hasher{}

func (Hasher) Leaf(in []byte, dst []byte) {
	h := sha256.New()
	_, _ = h.Write(in)
	h.Sum(dst)
}

func (Hasher) Node(left, right []byte, dst []byte) {
	h := sha256.New()
	_, _ = h.Write(left)
	_, _ = h.Write(right)
	h.Sum(dst)
}

func (Hasher) Size() int { return HashSize }
