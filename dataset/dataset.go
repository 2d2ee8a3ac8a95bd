// Package dataset models a distributed dataset as a tree of partitions and
// runs associative sketch computations over it with a fork-join reduction.
package dataset

import (
	"github.com/cockroachdb/errors"
)

// ErrShapeMismatch marks zips of trees whose shapes differ.
var ErrShapeMismatch = errors.New("dataset shape mismatch")

// ErrPartitionFailure marks a sketch or map that failed while processing one
// partition; the wrapped message identifies the leaf path.
var ErrPartitionFailure = errors.New("partition failure")

// DataSet is a node of the partition tree: either a leaf owning exactly one
// partition value, or an internal node owning an ordered sequence of
// children. The shape is fixed once built and the tree is read-only shared
// state: any number of sketches may run over it concurrently.
type DataSet[T any] struct {
	leaf     *T
	children []*DataSet[T]
}

// NewLeaf builds a single-partition dataset.
func NewLeaf[T any](partition T) *DataSet[T] {
	return &DataSet[T]{leaf: &partition}
}

// NewParallel builds an internal node over the given children, in order.
func NewParallel[T any](children ...*DataSet[T]) *DataSet[T] {
	return &DataSet[T]{children: children}
}

func (d *DataSet[T]) IsLeaf() bool {
	return d.leaf != nil
}

// NumLeaves counts the partitions under this node.
func (d *DataSet[T]) NumLeaves() int {
	if d.leaf != nil {
		return 1
	}
	n := 0
	for _, c := range d.children {
		n += c.NumLeaves()
	}
	return n
}

// sameShape reports whether two trees are structurally isomorphic.
func sameShape[T, U any](a *DataSet[T], b *DataSet[U]) bool {
	if (a.leaf != nil) != (b.leaf != nil) {
		return false
	}
	if len(a.children) != len(b.children) {
		return false
	}
	for i := range a.children {
		if !sameShape(a.children[i], b.children[i]) {
			return false
		}
	}
	return true
}

// Pair is the leaf type of a zipped dataset.
type Pair[T, U any] struct {
	First  T
	Second U
}

// Zip pairs leaves positionally between two trees of identical shape. It is
// used to combine results of prior computations over the same partitioning.
func Zip[T, U any](a *DataSet[T], b *DataSet[U]) (*DataSet[Pair[T, U]], error) {
	if !sameShape(a, b) {
		return nil, errors.Mark(
			errors.New("cannot zip datasets of different shapes"),
			ErrShapeMismatch)
	}
	return zip(a, b), nil
}

func zip[T, U any](a *DataSet[T], b *DataSet[U]) *DataSet[Pair[T, U]] {
	if a.leaf != nil {
		return NewLeaf(Pair[T, U]{First: *a.leaf, Second: *b.leaf})
	}
	children := make([]*DataSet[Pair[T, U]], len(a.children))
	for i := range a.children {
		children[i] = zip(a.children[i], b.children[i])
	}
	return &DataSet[Pair[T, U]]{children: children}
}
