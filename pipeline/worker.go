package pipeline

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/pkg/errors"
)

// worker is a goroutine that receives image paths, processes them, and sends
// every outcome to the results channel.
func worker(
	ctx context.Context,
	wg *sync.WaitGroup,
	jobs <-chan string,
	results chan<- Outcome,
	processed *int64,
	process func(context.Context, string) Outcome,
) {
	defer wg.Done()
	for path := range jobs {
		results <- process(ctx, path)
		atomic.AddInt64(processed, 1)
	}
}

// isContextErr reports whether err comes from a cancelled or expired context.
func isContextErr(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}
