// Package pbhashtest contains a compliance suite
// that every [pbhash.Hasher] implementation should pass.
package pbhashtest

import (
	"sync"
	"testing"

	"github.com/gordian-engine/pbmt/pbhash"
	"github.com/stretchr/testify/require"
)

type HasherFactory func() pbhash.Hasher

func TestHasherCompliance(t *testing.T, f HasherFactory) {
	t.Run("size is positive", func(t *testing.T) {
		t.Parallel()

		require.Positive(t, f().Size())
	})

	t.Run("leaf is deterministic", func(t *testing.T) {
		t.Parallel()

		h := f()

		dst01 := make([]byte, 0, h.Size())
		h.Leaf([]byte("deterministic_data"), dst01)

		dst02 := make([]byte, 0, h.Size())
		h.Leaf([]byte("deterministic_data"), dst02)

		require.Equal(t, dst01[:h.Size()], dst02[:h.Size()])
	})

	t.Run("leaf writes into dst without reallocating", func(t *testing.T) {
		t.Parallel()

		h := f()

		// Sentinel bytes past the end must remain untouched.
		buf := make([]byte, h.Size()+2)
		buf[h.Size()] = 0xAA
		buf[h.Size()+1] = 0xBB

		h.Leaf([]byte("hello"), buf[:0:h.Size()])

		require.NotEqual(t, make([]byte, h.Size()), buf[:h.Size()])
		require.Equal(t, []byte{0xAA, 0xBB}, buf[h.Size():])
	})

	t.Run("leaf respects data", func(t *testing.T) {
		t.Parallel()

		h := f()

		dst01 := make([]byte, h.Size())
		h.Leaf([]byte("hello"), dst01[:0])

		dst02 := make([]byte, h.Size())
		h.Leaf([]byte("hellp"), dst02[:0])

		require.NotEqual(t, dst01, dst02)
	})

	t.Run("node is order sensitive", func(t *testing.T) {
		t.Parallel()

		h := f()

		a := make([]byte, h.Size())
		h.Leaf([]byte("a"), a[:0])
		b := make([]byte, h.Size())
		h.Leaf([]byte("b"), b[:0])

		ab := make([]byte, h.Size())
		h.Node(a, b, ab[:0])
		ba := make([]byte, h.Size())
		h.Node(b, a, ba[:0])

		require.NotEqual(t, ab, ba)
	})

	t.Run("node hashes the concatenation of its inputs", func(t *testing.T) {
		t.Parallel()

		h := f()

		left := []byte("left half.")
		right := []byte("right half.")

		node := make([]byte, h.Size())
		h.Node(left, right, node[:0])

		concat := make([]byte, h.Size())
		h.Leaf(append(append([]byte(nil), left...), right...), concat[:0])

		require.Equal(t, concat, node)
	})

	t.Run("concurrent use", func(t *testing.T) {
		t.Parallel()

		h := f()

		want := make([]byte, h.Size())
		h.Node([]byte("x"), []byte("y"), want[:0])

		const n = 16
		got := make([][]byte, n)

		var wg sync.WaitGroup
		for i := range n {
			wg.Add(1)
			go func() {
				defer wg.Done()
				dst := make([]byte, h.Size())
				h.Node([]byte("x"), []byte("y"), dst[:0])
				got[i] = dst
			}()
		}
		wg.Wait()

		for i := range n {
			require.Equal(t, want, got[i], "mismatch at goroutine %d", i)
		}
	})
}
