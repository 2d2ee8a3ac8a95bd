package dataset

import (
	"context"
	"fmt"
	"runtime"

	"github.com/cockroachdb/errors"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"
)

// Transform produces a new partition value from one leaf's partition.
// Transforms run in parallel across leaves and must not share mutable state.
type Transform[T, U any] func(ctx context.Context, partition T) (U, error)

// Map applies the transform independently to every leaf, producing a new
// tree with identical shape. A transform error fails the whole call,
// identifying the failing partition.
func Map[T, U any](ctx context.Context, d *DataSet[T], tf Transform[T, U]) (*DataSet[U], error) {
	sem := newLeafPool()
	g, ctx := errgroup.WithContext(ctx)
	out := mapNode(ctx, g, sem, d, tf, "")
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

func mapNode[T, U any](
	ctx context.Context,
	g *errgroup.Group,
	sem *semaphore.Weighted,
	d *DataSet[T],
	tf Transform[T, U],
	path string,
) *DataSet[U] {
	out := &DataSet[U]{}
	if d.leaf != nil {
		partition := *d.leaf
		g.Go(func() error {
			if err := sem.Acquire(ctx, 1); err != nil {
				return err
			}
			defer sem.Release(1)
			mapped, err := tf(ctx, partition)
			if err != nil {
				return partitionError(err, path)
			}
			out.leaf = &mapped
			return nil
		})
		return out
	}
	out.children = make([]*DataSet[U], len(d.children))
	for i, c := range d.children {
		out.children[i] = mapNode(ctx, g, sem, c, tf, childPath(path, i))
	}
	return out
}

// RunSketch evaluates sk.Create at every leaf in parallel, then combines
// sibling results pairwise with sk.Add in post-order up to the root. Empty
// subtrees fold to sk.Zero(). The first partition or combine error cancels
// all in-flight work and fails the call; partials already computed are
// discarded. Cancelling ctx stops the run at the next leaf or combine
// boundary.
func RunSketch[T, R any](ctx context.Context, d *DataSet[T], sk Sketch[T, R]) (R, error) {
	sem := newLeafPool()
	return runSketch(ctx, d, sk, sem, "")
}

func runSketch[T, R any](
	ctx context.Context,
	d *DataSet[T],
	sk Sketch[T, R],
	sem *semaphore.Weighted,
	path string,
) (R, error) {
	var zero R
	if d.leaf != nil {
		if err := sem.Acquire(ctx, 1); err != nil {
			return zero, err
		}
		defer sem.Release(1)
		r, err := sk.Create(*d.leaf)
		if err != nil {
			return zero, partitionError(err, path)
		}
		return r, nil
	}
	if len(d.children) == 0 {
		return sk.Zero(), nil
	}

	results := make([]R, len(d.children))
	g, gctx := errgroup.WithContext(ctx)
	for i, c := range d.children {
		i, c := i, c
		g.Go(func() error {
			r, err := runSketch(gctx, c, sk, sem, childPath(path, i))
			if err != nil {
				return err
			}
			results[i] = r
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return zero, err
	}

	acc := results[0]
	for _, r := range results[1:] {
		if err := ctx.Err(); err != nil {
			return zero, err
		}
		combined, err := sk.Add(acc, r)
		if err != nil {
			return zero, err
		}
		acc = combined
	}
	return acc, nil
}

// newLeafPool bounds concurrent per-partition work to the available cores.
// The reduction itself stays unbounded: an internal node only runs after its
// children finish, so there are never more live combines than partitions.
func newLeafPool() *semaphore.Weighted {
	return semaphore.NewWeighted(int64(runtime.GOMAXPROCS(0)))
}

func childPath(path string, i int) string {
	if path == "" {
		return fmt.Sprintf("%d", i)
	}
	return fmt.Sprintf("%s.%d", path, i)
}

func partitionError(err error, path string) error {
	if path == "" {
		path = "root"
	}
	return errors.Mark(errors.Wrapf(err, "partition %s", path), ErrPartitionFailure)
}
