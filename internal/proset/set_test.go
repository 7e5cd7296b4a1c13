package proset

import "testing"

func TestIsValidSet(t *testing.T) {
	cases := []struct {
		name   string
		values []Value
		want   bool
	}{
		{name: "1 2 3 xors to zero", values: []Value{1, 2, 3}, want: true},
		{name: "1 2 4 does not", values: []Value{1, 2, 4}, want: false},
		{name: "17 5 20 xors to zero", values: []Value{17, 5, 20}, want: true},
		{name: "permutation independent", values: []Value{20, 17, 5}, want: true},
		{name: "two cards never a set", values: []Value{7, 7}, want: false},
		{name: "empty", values: nil, want: false},
		{name: "even repeats cancel", values: []Value{7, 7, 3, 2, 1}, want: true},
		{name: "four card set", values: []Value{1, 2, 4, 7}, want: true},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := IsValidSet(tc.values); got != tc.want {
				t.Fatalf("IsValidSet(%v) = %v, want %v", tc.values, got, tc.want)
			}
		})
	}
}

func TestFindAllSets_EverySubsetXorsToZero(t *testing.T) {
	values := []Value{1, 2, 3, 4, 5, 6, 7}
	sets := FindAllSets(values)
	if len(sets) == 0 {
		t.Fatalf("expected at least one set among %v", values)
	}
	prevMask := 0
	for _, idx := range sets {
		if len(idx) < 3 {
			t.Fatalf("set %v smaller than 3", idx)
		}
		var x Value
		mask := 0
		for _, i := range idx {
			x ^= values[i]
			mask |= 1 << i
		}
		if x != 0 {
			t.Fatalf("set %v xors to %d, want 0", idx, x)
		}
		if mask <= prevMask {
			t.Fatalf("sets not in ascending mask order: %d after %d", mask, prevMask)
		}
		prevMask = mask
	}
}

func TestHasValidSet_SevenDistinctAlwaysHasOne(t *testing.T) {
	// Spot-check the Fano guarantee on a few arbitrary 7-card tables.
	tables := [][]Value{
		{1, 2, 3, 4, 5, 6, 7},
		{9, 18, 27, 36, 45, 54, 63},
		{1, 2, 4, 8, 16, 32, 63},
		{11, 13, 17, 19, 23, 29, 31},
	}
	for _, values := range tables {
		if !HasValidSet(values) {
			t.Fatalf("expected a set among %v", values)
		}
	}
}

func TestHasValidSet_None(t *testing.T) {
	if HasValidSet([]Value{1, 4, 16}) {
		t.Fatalf("1 4 16 should contain no set")
	}
}

func TestFindSetContaining(t *testing.T) {
	values := []Value{1, 2, 3, 4, 5}

	idx, ok := FindSetContaining(values, []int{0})
	if !ok {
		t.Fatalf("expected a set containing index 0")
	}
	if len(idx) != 3 || idx[0] != 0 || idx[1] != 1 || idx[2] != 2 {
		t.Fatalf("want smallest superset [0 1 2], got %v", idx)
	}

	idx, ok = FindSetContaining(values, []int{3})
	if !ok || len(idx) != 3 {
		t.Fatalf("expected a 3-card set containing index 3, got %v ok=%v", idx, ok)
	}

	if _, ok := FindSetContaining([]Value{1, 4, 16}, []int{0}); ok {
		t.Fatalf("no superset should exist in 1 4 16")
	}
}
