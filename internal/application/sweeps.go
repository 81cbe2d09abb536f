package application

import (
	"context"

	"golang.org/x/sync/errgroup"
)

// RunSweeps runs both scheduled reconciliation sweeps concurrently. The
// sweeps share no state; the first failure cancels the join and propagates.
func RunSweeps(ctx context.Context, ci *CISweep, review *ReviewSweep) error {
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return ci.Run(gctx) })
	g.Go(func() error { return review.Run(gctx) })
	return g.Wait()
}
