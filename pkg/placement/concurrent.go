package placement

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/chazu/detgeo/pkg/kernel"
	"github.com/chazu/detgeo/pkg/volume"
)

// Job is one independent tree to place.
type Job struct {
	Name    string
	Tree    *volume.Tree
	Mother  string
	Backend kernel.Backend
}

// PlaceAll places every job in its own pass, concurrently. Each job must
// have its own backend. Results are returned in job order; the first
// failure cancels jobs that have not started.
func PlaceAll(ctx context.Context, jobs []Job, opts ...Option) ([]*Result, error) {
	for i, j := range jobs {
		if j.Backend == nil {
			return nil, fmt.Errorf("placement: job %d (%s): nil backend", i, j.Name)
		}
		for k := range jobs[:i] {
			if jobs[k].Backend == j.Backend {
				return nil, fmt.Errorf("placement: jobs %s and %s share a backend", jobs[k].Name, j.Name)
			}
		}
	}

	results := make([]*Result, len(jobs))
	g, ctx := errgroup.WithContext(ctx)
	for i, j := range jobs {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			res, err := New(j.Backend, opts...).Place(j.Tree, j.Mother)
			if err != nil {
				return fmt.Errorf("%s: %w", j.Name, err)
			}
			results[i] = res
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}
