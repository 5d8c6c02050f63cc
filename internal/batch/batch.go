// Package batch runs independent tasks in fixed-size concurrent batches with a
// pause between batches, to stay under external API rate limits.
package batch

import (
	"context"
	"sync"
	"time"
)

// Process calls fn for every index in [0, total), size tasks at a time. Tasks
// within a batch run concurrently; Process waits for the whole batch before
// sleeping pause and starting the next one. Cancellation is checked between
// batches, never mid-task.
func Process(ctx context.Context, total, size int, pause time.Duration, fn func(i int)) error {
	if size <= 0 {
		size = 1
	}

	for start := 0; start < total; start += size {
		end := start + size
		if end > total {
			end = total
		}

		var wg sync.WaitGroup
		for i := start; i < end; i++ {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				fn(i)
			}(i)
		}
		wg.Wait()

		if end >= total {
			break
		}

		if pause > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(pause):
			}
		} else if err := ctx.Err(); err != nil {
			return err
		}
	}

	return nil
}
