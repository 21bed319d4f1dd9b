package artifact

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/teranos/loom/errors"
)

// Root is the single top-level artifact of one generation run.
type Root struct {
	*Artifact
	workers int
}

// NewRoot creates the root artifact for a run.
func NewRoot(name string) *Root {
	r := &Root{Artifact: New(KindRoot, name), workers: 1}
	r.Artifact.root = r
	return r
}

// SetWorkers bounds the number of artifacts materialized concurrently
// within one tree level. Values below one are ignored.
func (r *Root) SetWorkers(n int) {
	if n > 0 {
		r.workers = n
	}
}

// Generate materializes the tree by invoking every Materializer decorator.
//
// The tree is processed one depth level at a time so that a parent's output
// (e.g. its directory) exists before any child is materialized. Within a level
// artifacts run concurrently, bounded by SetWorkers; decorators on one artifact
// run in attach order. The first error cancels the remaining work.
func (r *Root) Generate(ctx context.Context) error {
	level := []*Artifact{r.Artifact}
	depth := 0
	for len(level) > 0 {
		if err := ctx.Err(); err != nil {
			return err
		}

		g, gctx := errgroup.WithContext(ctx)
		g.SetLimit(r.workers)
		for _, a := range level {
			g.Go(func() error {
				return materialize(gctx, a)
			})
		}
		if err := g.Wait(); err != nil {
			return errors.WithDetail(err, fmt.Sprintf("Tree depth: %d", depth))
		}

		var next []*Artifact
		for _, a := range level {
			next = append(next, a.children...)
		}
		level = next
		depth++
	}
	return nil
}

func materialize(ctx context.Context, a *Artifact) error {
	for _, d := range a.Decorators() {
		m, ok := d.(Materializer)
		if !ok {
			continue
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := m.Materialize(ctx, a); err != nil {
			err = errors.Wrapf(err, "materialize %s", a)
			return errors.WithDetail(err, fmt.Sprintf("Decorator: %s", d.Key()))
		}
	}
	return nil
}
