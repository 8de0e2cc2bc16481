// Package pbtest contains helpers shared by tests across the module.
package pbtest

import (
	"crypto/sha256"
	"math/rand/v2"
	"testing"
)

// RandomDataForTest returns a byte slice of size sz
// containing pseudorandom data, derived from a seed based on the test name.
func RandomDataForTest(t *testing.T, sz int) []byte {
	// Sha256 happens to be the right size for the chacha8 seed,
	// and this fits well anyway since that means
	// we are not limited by the length of any particular test name.
	seed := sha256.Sum256([]byte(t.Name()))
	chacha := rand.NewChaCha8(seed)

	out := make([]byte, sz)

	if _, err := chacha.Read(out); err != nil {
		panic(err)
	}

	return out
}

// RandomLeavesForTest returns n distinct leaves of leafSize bytes each,
// backed by a single call to [RandomDataForTest].
func RandomLeavesForTest(t *testing.T, n, leafSize int) [][]byte {
	mem := RandomDataForTest(t, n*leafSize)

	leaves := make([][]byte, n)
	for i := range leaves {
		start := i * leafSize
		leaves[i] = mem[start : start+leafSize : start+leafSize]
	}
	return leaves
}

// ExampleData returns n single-byte leaves: 0x00, 0x01, and so on.
// The byte value wraps for n over 256.
func ExampleData(n int) [][]byte {
	out := make([][]byte, n)
	for i := range out {
		out[i] = []byte{byte(i)}
	}
	return out
}
