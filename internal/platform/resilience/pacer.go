package resilience

import (
	"context"
	"time"

	"golang.org/x/time/rate"
)

// Pacer enforces a minimum spacing between calls to one provider. Each
// provider owns its own pacer; two providers never throttle each other.
type Pacer struct {
	limiter *rate.Limiter
}

func NewPacer(minInterval time.Duration) *Pacer {
	if minInterval <= 0 {
		return &Pacer{limiter: rate.NewLimiter(rate.Inf, 1)}
	}
	return &Pacer{limiter: rate.NewLimiter(rate.Every(minInterval), 1)}
}

func (p *Pacer) Wait(ctx context.Context) error {
	if p == nil || p.limiter == nil {
		return nil
	}
	return p.limiter.Wait(ctx)
}
