package annotate

import (
	"context"
	"time"
)

// DefaultWait bounds how long a page region is waited for before the
// annotator gives up on this view. Not finding a region is the common
// case on a shifting host page, so the timeout resolves to "not found"
// rather than an error.
const DefaultWait = 4 * time.Second

// WaitFor re-runs probe at interval until it reports found or ctx
// expires. This replaces busy polling with a bounded appearance wait.
func WaitFor[T any](ctx context.Context, interval time.Duration, probe func(context.Context) (T, bool)) (T, bool) {
	var zero T
	if interval <= 0 {
		interval = 250 * time.Millisecond
	}

	for {
		if v, ok := probe(ctx); ok {
			return v, true
		}
		select {
		case <-time.After(interval):
		case <-ctx.Done():
			return zero, false
		}
	}
}
