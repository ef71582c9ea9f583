package batch_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rshade/batchrun/pkg/batch"
)

func seq(n int) []int {
	items := make([]int, n)
	for i := range items {
		items[i] = i + 1
	}
	return items
}

// TestPartition_Totality checks group count, group sizes and concatenation
// for a range of lengths and sizes.
func TestPartition_Totality(t *testing.T) {
	for n := 0; n <= 23; n++ {
		for size := 1; size <= 7; size++ {
			items := seq(n)
			groups, err := batch.Partition(items, size)
			require.NoError(t, err)

			wantGroups := (n + size - 1) / size
			require.Len(t, groups, wantGroups, "n=%d size=%d", n, size)

			var joined []int
			for i, g := range groups {
				if i < len(groups)-1 {
					assert.Len(t, g, size, "n=%d size=%d group=%d", n, size, i)
				} else {
					assert.LessOrEqual(t, len(g), size)
					assert.NotEmpty(t, g)
				}
				joined = append(joined, g...)
			}
			if n == 0 {
				assert.Empty(t, joined)
			} else {
				assert.Equal(t, items, joined)
			}
		}
	}
}

func TestPartition_Empty(t *testing.T) {
	groups, err := batch.Partition([]string{}, 3)
	require.NoError(t, err)
	assert.NotNil(t, groups)
	assert.Empty(t, groups)

	groups, err = batch.Partition[string](nil, 1)
	require.NoError(t, err)
	assert.Empty(t, groups)
}

func TestPartition_InvalidSize(t *testing.T) {
	tests := []struct {
		name string
		size int
	}{
		{name: "zero", size: 0},
		{name: "negative", size: -1},
		{name: "very negative", size: -100},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			groups, err := batch.Partition(seq(5), tt.size)
			require.Error(t, err)
			assert.Nil(t, groups)
			assert.ErrorIs(t, err, batch.ErrInvalidConfiguration)
			assert.Contains(t, err.Error(), "batch size must be a positive integer")
		})
	}
}

func TestPartition_GroupsDoNotAlias(t *testing.T) {
	items := seq(6)
	groups, err := batch.Partition(items, 2)
	require.NoError(t, err)

	_ = append(groups[0], 99)
	assert.Equal(t, 3, items[2], "appending to a group must not overwrite the next item")
}

func TestBounds(t *testing.T) {
	bounds := batch.Bounds(25, 10)
	require.Len(t, bounds, 3)
	assert.Equal(t, [2]int{0, 10}, bounds[0])
	assert.Equal(t, [2]int{10, 20}, bounds[1])
	assert.Equal(t, [2]int{20, 25}, bounds[2])

	assert.Empty(t, batch.Bounds(0, 10))
	assert.Equal(t, 0, batch.GroupCount(10, 0))
	assert.Equal(t, 1, batch.GroupCount(1, 10))
}
