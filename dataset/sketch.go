package dataset

// Sketch is an associative, distributable aggregate over partitions of type
// T producing results of type R. Implementations must satisfy:
//
//   - Add(Zero(), r) == r and Add(r, Zero()) == r for every reachable r;
//   - Add is associative up to the sketch's own approximation semantics, so
//     combining partials in any order consistent with the tree's child
//     ordering yields results whose guaranteed bounds remain valid.
//
// Create computes a partial from one partition only; Add combines two
// partials into one representing the union of their source rows and must
// accept partials from partitions of any size, including empty ones. Both
// always return freshly allocated results and never mutate their inputs, so
// sibling combines need no locking.
type Sketch[T, R any] interface {
	Zero() R
	Create(partition T) (R, error)
	Add(left, right R) (R, error)
}
