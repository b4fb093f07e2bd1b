package engine

import (
    "context"
    "fmt"
    "runtime"

    "golang.org/x/sync/errgroup"

    "carriercost/internal/rule"
    "carriercost/internal/shipment"
    "carriercost/internal/zone"
)

// EvaluateBatch validates, supplements, and evaluates a batch. Rows are
// fully independent, so the batch is sharded across workers with no
// coordination; output order matches input order and re-running the same
// batch against the same rule set version is byte-identical.
//
// Any schema or lookup error aborts the whole batch, per the propagation
// policy: those are configuration problems, not per-row conditions.
func EvaluateBatch(ctx context.Context, set *rule.Set, resolver zone.Resolver, shipments []shipment.Shipment, workers int) ([]Result, error) {
    if workers <= 0 {
        workers = runtime.GOMAXPROCS(0)
    }
    results := make([]Result, len(shipments))

    g, ctx := errgroup.WithContext(ctx)
    g.SetLimit(workers)
    for i := range shipments {
        i := i
        g.Go(func() error {
            if err := ctx.Err(); err != nil {
                return err
            }
            sup, err := shipment.Supplement(shipments[i], resolver, set.Dim)
            if err != nil {
                return fmt.Errorf("shipment %d: %w", i, err)
            }
            res, err := Evaluate(set, sup)
            if err != nil {
                return fmt.Errorf("shipment %d: %w", i, err)
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
