// Federated aggregation across storefronts. One fetch task is launched per
// storefront (bounded by Limit), completed results are merged as they arrive
// and deduplicated by item ID. When the same ID shows up in several
// storefronts with diverging fields (localised genre names, for example) the
// first completed fetch wins, so the chosen entry can differ between runs.
// That non-determinism is intentional; only the ID set is stable.
package catalog

import (
	"context"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

// DefaultLimit caps concurrent storefront fetches when Aggregator.Limit is
// unset. The storefront directory currently lists ~175 regions; fetching them
// all at once is a good way to get rate limited.
const DefaultLimit = 20

// FailurePolicy controls how the aggregator reacts to a failing storefront.
type FailurePolicy int

const (
	// BestEffort records per-storefront failures and keeps going. A single
	// regional outage should not deny results from a hundred other regions.
	BestEffort FailurePolicy = iota
	// FailFast cancels all outstanding fetches on the first failure and
	// returns that error alone, tagged with its storefront.
	FailFast
)

// State is the terminal state of one aggregation call.
type State int

const (
	Done State = iota
	DoneWithFailures
	Failed
)

func (s State) String() string {
	switch s {
	case Done:
		return "done"
	case DoneWithFailures:
		return "done-with-partial-failures"
	case Failed:
		return "failed"
	}
	return "unknown"
}

// Result is the outcome of one aggregation call. Items holds the deduplicated
// union of every successful storefront fetch; Failures lists the storefronts
// that could not be fetched (always empty under FailFast, which reports its
// single failure through the returned error instead).
type Result struct {
	Items    []Item
	Failures []*StorefrontError
	State    State
}

// Aggregator fans a catalog request out across every storefront and merges
// the results. The zero value is not usable; Service must be set. Limit,
// Policy and Timeout are optional.
type Aggregator struct {
	Service Service
	// Limit caps simultaneous in-flight fetches. DefaultLimit when <= 0.
	Limit int
	// Policy selects the failure behaviour. Defaults to BestEffort.
	Policy FailurePolicy
	// Timeout bounds the whole call when > 0. On expiry the call fails
	// with a TimeoutError regardless of policy.
	Timeout time.Duration
	// Log receives per-storefront failure warnings under BestEffort. Nil
	// disables logging.
	Log logrus.FieldLogger
}

// Aggregate fetches the given resource kind from every storefront and returns
// the merged, ID-deduplicated result. The storefront directory is listed once
// per call; regions added or removed while the call runs are not observed.
func (a Aggregator) Aggregate(ctx context.Context, kind ItemKind) (Result, error) {
	if a.Service == nil {
		return Result{State: Failed}, &ConfigError{Op: "aggregate", Detail: "no service configured"}
	}
	if !kind.Valid() {
		return Result{State: Failed}, &ConfigError{Op: "aggregate", Detail: "unknown item kind " + string(kind)}
	}
	if a.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, a.Timeout)
		defer cancel()
	}

	storefronts, err := a.Service.Storefronts(ctx)
	if err != nil {
		return Result{State: Failed}, err
	}
	if len(storefronts) == 0 {
		// Nothing to fetch; no tasks are spawned.
		return Result{State: Done}, nil
	}

	limit := a.Limit
	if limit <= 0 {
		limit = DefaultLimit
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(limit)

	// The merge set is the only shared mutable state. All inserts happen
	// under mu so completed fetches fold in one at a time, in completion
	// order.
	var (
		mu        sync.Mutex
		seen      = make(map[string]struct{})
		merged    []Item
		failures  []*StorefrontError
		succeeded int
	)

	for _, sf := range storefronts {
		sf := sf
		g.Go(func() error {
			if gctx.Err() != nil {
				// A sibling already failed under FailFast (or the
				// caller gave up). Don't start another fetch.
				return nil
			}
			items, err := a.Service.Items(gctx, sf, kind)
			if err != nil {
				tagged := &StorefrontError{Storefront: sf, Err: err}
				if a.Policy == FailFast {
					return tagged
				}
				if a.Log != nil {
					a.Log.WithFields(logrus.Fields{
						"storefront": sf,
						"kind":       kind,
					}).WithError(err).Warn("storefront fetch failed")
				}
				mu.Lock()
				failures = append(failures, tagged)
				mu.Unlock()
				return nil
			}
			mu.Lock()
			succeeded++
			for _, it := range items {
				if _, ok := seen[it.ID]; !ok {
					seen[it.ID] = struct{}{}
					merged = append(merged, it)
				}
			}
			mu.Unlock()
			return nil
		})
	}

	waitErr := g.Wait()

	// Deadline expiry trumps everything else, including partial progress.
	if ctxErr := ctx.Err(); ctxErr != nil {
		if ctxErr == context.DeadlineExceeded && a.Timeout > 0 {
			return Result{State: Failed}, &TimeoutError{Limit: a.Timeout}
		}
		return Result{State: Failed}, ctxErr
	}
	if waitErr != nil {
		// FailFast: in-flight siblings were allowed to finish but their
		// results are discarded along with the partial merge.
		return Result{State: Failed}, waitErr
	}
	if succeeded == 0 && len(failures) > 0 {
		// Every storefront failed. An empty result would be
		// indistinguishable from an empty catalog, so surface the first
		// failure instead.
		return Result{Failures: failures, State: Failed}, failures[0]
	}
	state := Done
	if len(failures) > 0 {
		state = DoneWithFailures
	}
	return Result{Items: merged, Failures: failures, State: state}, nil
}

// AllGenres is a convenience wrapper that aggregates the genre catalog across
// every storefront using the default limit and best-effort policy.
func AllGenres(ctx context.Context, svc Service) ([]Item, error) {
	res, err := Aggregator{Service: svc}.Aggregate(ctx, KindGenres)
	if err != nil {
		return nil, err
	}
	return res.Items, nil
}
