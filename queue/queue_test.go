package queue

import (
	"math/rand"
	"slices"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewBoundedMax(t *testing.T) {
	_, err := NewBoundedMax[struct{}](0)
	assert.ErrorIs(t, err, ErrInvalidCapacity)

	h, err := NewBoundedMax[struct{}](3)
	require.NoError(t, err)
	assert.Equal(t, 3, h.Cap())
	assert.Equal(t, 0, h.Len())

	_, ok := h.Max()
	assert.False(t, ok)
}

func TestBoundedMaxHeap(t *testing.T) {
	t.Run("PushUntilFull", func(t *testing.T) {
		h, _ := NewBoundedMax[string](2)

		assert.True(t, h.Push(Item[string]{ID: 1, Distance: 5, Value: "a"}))
		assert.True(t, h.Push(Item[string]{ID: 2, Distance: 9, Value: "b"}))
		assert.True(t, h.Full())

		top, ok := h.Max()
		require.True(t, ok)
		assert.Equal(t, uint64(2), top.ID)
	})

	t.Run("DiscardNotBetter", func(t *testing.T) {
		h, _ := NewBoundedMax[string](2)
		h.Push(Item[string]{ID: 1, Distance: 1})
		h.Push(Item[string]{ID: 2, Distance: 3})

		assert.False(t, h.Push(Item[string]{ID: 3, Distance: 4}))
		assert.False(t, h.Push(Item[string]{ID: 4, Distance: 3}))
		assert.Equal(t, 2, h.Len())
	})

	t.Run("EvictRoot", func(t *testing.T) {
		h, _ := NewBoundedMax[string](2)
		h.Push(Item[string]{ID: 1, Distance: 1})
		h.Push(Item[string]{ID: 2, Distance: 3})

		assert.True(t, h.Push(Item[string]{ID: 3, Distance: 2}))

		got := h.Drain()
		require.Len(t, got, 2)
		assert.Equal(t, uint64(1), got[0].ID)
		assert.Equal(t, uint64(3), got[1].ID)
		assert.Equal(t, 0, h.Len())
	})

	t.Run("TieBreakByID", func(t *testing.T) {
		h, _ := NewBoundedMax[string](2)
		h.Push(Item[string]{ID: 9, Distance: 1})
		h.Push(Item[string]{ID: 7, Distance: 1})
		h.Push(Item[string]{ID: 3, Distance: 1})

		got := h.Drain()
		require.Len(t, got, 2)
		assert.Equal(t, uint64(3), got[0].ID)
		assert.Equal(t, uint64(7), got[1].ID)
	})

	t.Run("ShortResultNotPadded", func(t *testing.T) {
		h, _ := NewBoundedMax[string](5)
		h.Push(Item[string]{ID: 1, Distance: 2})
		h.Push(Item[string]{ID: 2, Distance: 1})

		got := h.Drain()
		require.Len(t, got, 2)
		assert.Equal(t, uint64(2), got[0].ID)
	})
}

func TestBoundedMaxHeapMatchesSort(t *testing.T) {
	rng := rand.New(rand.NewSource(4711))

	for _, k := range []int{1, 3, 10, 64} {
		items := make([]Item[int], 500)
		for i := range items {
			// Coarse distances force plenty of ties.
			items[i] = Item[int]{ID: uint64(i), Distance: float64(rng.Intn(50)), Value: i}
		}
		rng.Shuffle(len(items), func(i, j int) { items[i], items[j] = items[j], items[i] })

		h, err := NewBoundedMax[int](k)
		require.NoError(t, err)
		for _, it := range items {
			h.Push(it)
		}

		want := slices.Clone(items)
		slices.SortFunc(want, func(a, b Item[int]) int {
			if a.Distance != b.Distance {
				if a.Distance < b.Distance {
					return -1
				}
				return 1
			}
			if a.ID < b.ID {
				return -1
			}
			return 1
		})

		assert.Equal(t, want[:k], h.Drain())
	}
}
