package mongo

import (
	"context"
	"time"
)

// OpTimeout caps every item/group repository operation so a slow Mongo
// node cannot hold a board request open indefinitely.
const OpTimeout = 5 * time.Second

// WithRepoTimeout bounds ctx by d unless the caller already carries a
// deadline at least as strict, or is already done; in those cases ctx
// comes back unchanged. The cancel func is never nil, so repositories
// can write:
//
//	ctx, cancel := WithRepoTimeout(ctx, OpTimeout)
//	defer cancel()
//
// without branching on which case applied.
func WithRepoTimeout(ctx context.Context, d time.Duration) (context.Context, context.CancelFunc) {
	if err := ctx.Err(); err != nil {
		return ctx, func() {}
	}
	if dl, ok := ctx.Deadline(); ok && time.Until(dl) <= d {
		// The existing deadline wins.
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, d)
}
