package qn

import "sort"

// Domain helpers. All constructors return sorted ascending slices so that
// search order over a domain is deterministic.

// HalvesDomain enumerates 0, 1/2, 1, ... up to and including max (a doubled
// value), in half steps.
func HalvesDomain(max Value) []Value {
	out := make([]Value, 0, max+1)
	for v := Value(0); v <= max; v++ {
		out = append(out, v)
	}
	return out
}

// WholeDomain enumerates 0, 1, 2, ... maxWhole as doubled values. Used for
// orbital angular momentum, which is always integral.
func WholeDomain(maxWhole int) []Value {
	out := make([]Value, 0, maxWhole+1)
	for j := 0; j <= maxWhole; j++ {
		out = append(out, Whole(j))
	}
	return out
}

// IntDomain enumerates min..max inclusive.
func IntDomain(min, max Value) []Value {
	out := make([]Value, 0, max-min+1)
	for v := min; v <= max; v++ {
		out = append(out, v)
	}
	return out
}

// ParityDomain is the domain of a defined parity.
func ParityDomain() []Value { return []Value{-1, +1} }

// OptionalParityDomain additionally allows the undefined parity (0), used
// for C- and G-parity where charged states carry no eigenvalue.
func OptionalParityDomain() []Value { return []Value{-1, 0, +1} }

// ExtendNegative mirrors every positive value of a magnitude domain into the
// negatives, producing a projection domain.
func ExtendNegative(magnitudes []Value) []Value {
	seen := make(map[Value]struct{}, 2*len(magnitudes))
	for _, v := range magnitudes {
		seen[v] = struct{}{}
		if v > 0 {
			seen[-v] = struct{}{}
		}
	}
	out := make([]Value, 0, len(seen))
	for v := range seen {
		out = append(out, v)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
