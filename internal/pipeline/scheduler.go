package pipeline

import (
	"context"
	"sync"
	"sync/atomic"

	"golang.org/x/sync/semaphore"

	"github.com/tcgforge/tcgforge/internal/tcg"
)

// TaskFunc runs one card's download task.
type TaskFunc func(ctx context.Context, card tcg.CardRef) Result

// RunAll executes fn for every card with at most limit tasks in flight. A task
// holds its permit for its whole lifetime (download, validate, process).
// Completion order is unconstrained; results come back indexed by input
// position. onDone, if non-nil, is invoked exactly once per completed task
// with the running completion count.
func RunAll(ctx context.Context, cards []tcg.CardRef, limit int64, fn TaskFunc, onDone func(done, total int)) []Result {
	if limit < 1 {
		limit = 1
	}
	var (
		sem       = semaphore.NewWeighted(limit)
		wg        sync.WaitGroup
		completed atomic.Int64
		results   = make([]Result, len(cards))
	)
	for i := range cards {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			defer func() {
				n := completed.Add(1)
				if onDone != nil {
					onDone(int(n), len(cards))
				}
			}()
			if err := sem.Acquire(ctx, 1); err != nil {
				results[i] = Result{Card: cards[i], Outcome: OutcomeFailed, Err: err}
				return
			}
			defer sem.Release(1)
			results[i] = fn(ctx, cards[i])
		}(i)
	}
	wg.Wait()
	return results
}
