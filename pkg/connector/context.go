package connector

import (
	"context"
	"time"
)

// OpContext derives the per-operation context from the descriptor's timeout.
// A zero timeout means the operation is bounded only by the caller's ctx.
func OpContext(ctx context.Context, timeoutSeconds int) (context.Context, context.CancelFunc) {
	if timeoutSeconds <= 0 {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, time.Duration(timeoutSeconds)*time.Second)
}
