package data

import "sort"

// Vector maps named dimensions, like moods, to weights.
type Vector map[string]float64

// Clamp returns a copy with every weight limited to [lo, hi].
func (this Vector) Clamp(lo, hi float64) Vector {
	result := make(Vector, len(this))
	for k, v := range this {
		switch {
		case v < lo:
			v = lo
		case v > hi:
			v = hi
		}
		result[k] = v
	}
	return result
}

// Multiply returns a copy with every weight scaled by scalar.
func (this Vector) Multiply(scalar float64) Vector {
	result := make(Vector, len(this))
	for k, v := range this {
		result[k] = v * scalar
	}
	return result
}

// Add returns a copy with delta's weights added. Dimensions that are only
// in delta are dropped.
func (this Vector) Add(delta Vector) Vector {
	result := make(Vector, len(this))
	for k, v := range this {
		result[k] = v + delta[k]
	}
	return result
}

// Top returns the n heaviest dimensions, heaviest first. Ties sort by name.
func (this Vector) Top(n int) []string {
	keys := make([]string, 0, len(this))
	for k := range this {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if this[keys[i]] != this[keys[j]] {
			return this[keys[i]] > this[keys[j]]
		}
		return keys[i] < keys[j]
	})
	if n < len(keys) {
		keys = keys[:n]
	}
	return keys
}
