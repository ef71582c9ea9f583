package batch

import "fmt"

// Partition splits items into consecutive groups of size elements; the last
// group may be shorter. Empty input yields zero groups.
//
// Groups share the caller's backing array but have their capacity capped, so
// appending to a group never overwrites a neighbouring item.
func Partition[T any](items []T, size int) ([][]T, error) {
	if size < 1 {
		return nil, fmt.Errorf("%w: got %d", ErrInvalidConfiguration, size)
	}

	bounds := Bounds(len(items), size)
	groups := make([][]T, len(bounds))
	for i, b := range bounds {
		groups[i] = items[b[0]:b[1]:b[1]]
	}
	return groups, nil
}

// GroupCount returns how many groups n items form at the given size.
// It returns 0 when size is not positive.
func GroupCount(n, size int) int {
	if size < 1 || n <= 0 {
		return 0
	}
	groups := n / size
	if n%size > 0 {
		groups++
	}
	return groups
}

// Bounds returns the [start, end) index pair of every group.
func Bounds(n, size int) [][2]int {
	total := GroupCount(n, size)
	bounds := make([][2]int, total)

	for i := range total {
		start := i * size
		end := start + size
		if end > n {
			end = n
		}
		bounds[i] = [2]int{start, end}
	}

	return bounds
}
