package harness

import "fmt"

// RangeSet is the implicit integer interval [0, n). Membership is a
// bounds check.
type RangeSet struct {
	n int
}

// Contains reports whether v lies in [0, n).
func (r *RangeSet) Contains(v int) bool {
	return v >= 0 && v < r.n
}

// Len returns the number of members.
func (r *RangeSet) Len() int {
	return r.n
}

// MapSet is a hash-keyed set whose keys are [0, n).
type MapSet map[int]struct{}

// Contains reports whether v is a key of the map.
func (m MapSet) Contains(v int) bool {
	_, ok := m[v]

	return ok
}

// Build creates the two structures under test, each holding exactly
// elements members. The range is O(1) to build; the map materializes
// every key.
func Build(elements int) (*RangeSet, MapSet, error) {
	if elements <= 0 {
		return nil, nil, fmt.Errorf(
			"%w: elements must be > 0, got %d",
			ErrInvalidConfiguration, elements,
		)
	}

	m := make(MapSet, elements)
	for i := 0; i < elements; i++ {
		m[i] = struct{}{}
	}

	return &RangeSet{n: elements}, m, nil
}
