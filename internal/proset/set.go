package proset

import "math/bits"

// IsValidSet reports whether the values form a set: at least three cards
// whose XOR reduction is zero. Order never matters, and a value appearing
// an even number of times cancels itself out.
func IsValidSet(values []Value) bool {
	if len(values) < 3 {
		return false
	}
	var x Value
	for _, v := range values {
		x ^= v
	}
	return x == 0
}

// FindAllSets returns every subset of size >= 3 whose values XOR to zero,
// as index lists in ascending bitmask order. With at most 7 table cards
// this scans under 128 masks.
func FindAllSets(values []Value) [][]int {
	var sets [][]int
	n := len(values)
	for mask := 1; mask < 1<<n; mask++ {
		if bits.OnesCount(uint(mask)) < 3 {
			continue
		}
		var x Value
		for i := 0; i < n; i++ {
			if mask&(1<<i) != 0 {
				x ^= values[i]
			}
		}
		if x == 0 {
			sets = append(sets, maskIndices(mask, n))
		}
	}
	return sets
}

// HasValidSet is FindAllSets short-circuited on the first hit. Whenever 7
// distinct nonzero values are on the table this is guaranteed true (the
// Fano-plane property), so a full 7-card table always has a set.
func HasValidSet(values []Value) bool {
	n := len(values)
	for mask := 1; mask < 1<<n; mask++ {
		if bits.OnesCount(uint(mask)) < 3 {
			continue
		}
		var x Value
		for i := 0; i < n; i++ {
			if mask&(1<<i) != 0 {
				x ^= values[i]
			}
		}
		if x == 0 {
			return true
		}
	}
	return false
}

// FindSetContaining returns the smallest valid set that includes all the
// required indices, searching subset sizes upward from max(3, len(required)).
func FindSetContaining(values []Value, required []int) ([]int, bool) {
	n := len(values)
	base := 0
	for _, i := range required {
		if i < 0 || i >= n {
			return nil, false
		}
		base |= 1 << i
	}
	minSize := len(required)
	if minSize < 3 {
		minSize = 3
	}
	for size := minSize; size <= n; size++ {
		for mask := 1; mask < 1<<n; mask++ {
			if mask&base != base || bits.OnesCount(uint(mask)) != size {
				continue
			}
			var x Value
			for i := 0; i < n; i++ {
				if mask&(1<<i) != 0 {
					x ^= values[i]
				}
			}
			if x == 0 {
				return maskIndices(mask, n), true
			}
		}
	}
	return nil, false
}

func maskIndices(mask, n int) []int {
	idx := make([]int, 0, bits.OnesCount(uint(mask)))
	for i := 0; i < n; i++ {
		if mask&(1<<i) != 0 {
			idx = append(idx, i)
		}
	}
	return idx
}
