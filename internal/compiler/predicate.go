package compiler

// Predicate is a compiled query tree: a pure boolean test over T.
type Predicate[T any] func(T) bool

// Filter returns the items that satisfy p, preserving order.
func (p Predicate[T]) Filter(items []T) []T {
	out := make([]T, 0, len(items))
	for _, item := range items {
		if p(item) {
			out = append(out, item)
		}
	}
	return out
}

// Count returns the number of items that satisfy p.
func (p Predicate[T]) Count(items []T) int {
	n := 0
	for _, item := range items {
		if p(item) {
			n++
		}
	}
	return n
}
