package sdr

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewIndices(t *testing.T) {
	t.Run("sorts_and_deduplicates", func(t *testing.T) {
		indices, err := NewIndices([]int{5, 1, 3, 1, 5}, 10)
		require.NoError(t, err)
		assert.Equal(t, Indices{1, 3, 5}, indices)
	})

	t.Run("rejects_out_of_range", func(t *testing.T) {
		_, err := NewIndices([]int{0, 10}, 10)
		assert.Error(t, err)

		_, err = NewIndices([]int{-1}, 10)
		assert.Error(t, err)
	})

	t.Run("rejects_non_positive_width", func(t *testing.T) {
		_, err := NewIndices(nil, 0)
		assert.Error(t, err)
	})

	t.Run("empty_is_valid", func(t *testing.T) {
		indices, err := NewIndices(nil, 10)
		require.NoError(t, err)
		assert.Empty(t, indices)
	})
}

func TestContains(t *testing.T) {
	indices := Indices{2, 5, 9}

	assert.True(t, indices.Contains(2))
	assert.True(t, indices.Contains(5))
	assert.True(t, indices.Contains(9))
	assert.False(t, indices.Contains(0))
	assert.False(t, indices.Contains(4))
	assert.False(t, indices.Contains(10))
	assert.False(t, Indices(nil).Contains(1))
}

func TestOverlap(t *testing.T) {
	a := Indices{1, 3, 5, 7}
	b := Indices{3, 4, 7, 9}

	assert.Equal(t, 2, a.Overlap(b))
	assert.Equal(t, 2, b.Overlap(a))
	assert.Equal(t, 4, a.Overlap(a))
	assert.Equal(t, 0, a.Overlap(nil))
}

func TestIsSorted(t *testing.T) {
	assert.True(t, Indices{1, 2, 3}.IsSorted())
	assert.True(t, Indices{}.IsSorted())
	assert.False(t, Indices{1, 1, 2}.IsSorted())
	assert.False(t, Indices{3, 1}.IsSorted())
}

func TestSparsity(t *testing.T) {
	assert.InDelta(t, 0.02, Indices(make([]int, 41)).Sparsity(2048), 0.001)
	assert.Equal(t, 0.0, Indices{1}.Sparsity(0))
}

func TestClone(t *testing.T) {
	original := Indices{1, 2}
	clone := original.Clone()
	clone[0] = 9
	assert.Equal(t, Indices{1, 2}, original)
	assert.Nil(t, Indices(nil).Clone())
}
