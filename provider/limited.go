package provider

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/time/rate"

	agent "github.com/FarhanAliRaza/Mardown-rs"
)

// limitedClient paces Complete calls of the wrapped client.
type limitedClient struct {
	inner   agent.ModelClient
	limiter *rate.Limiter
}

// Limited wraps client so that every Complete call first waits on limiter.
// A nil limiter returns client unchanged.
func Limited(client agent.ModelClient, limiter *rate.Limiter) agent.ModelClient {
	if limiter == nil {
		return client
	}
	return &limitedClient{inner: client, limiter: limiter}
}

// PerMinute returns a limiter allowing n calls per minute, or nil when n is
// not positive.
func PerMinute(n int) *rate.Limiter {
	if n <= 0 {
		return nil
	}
	return rate.NewLimiter(rate.Every(time.Minute/time.Duration(n)), 1)
}

func (c *limitedClient) Name() string { return c.inner.Name() }

func (c *limitedClient) Complete(ctx context.Context, req agent.ModelRequest) (agent.ModelResponse, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return agent.ModelResponse{}, ctxErr
		}
		// The wait would outlast the context deadline.
		return agent.ModelResponse{}, fmt.Errorf("%w: %v", agent.ErrRateLimited, err)
	}
	return c.inner.Complete(ctx, req)
}
