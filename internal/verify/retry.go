package verify

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// fetchBalances reads the source, retrying up to maxRetries times with a
// doubling delay.
func (v *Verifier) fetchBalances(ctx context.Context) (Balances, error) {
	delay := v.retryBackoff
	if delay <= 0 {
		delay = 100 * time.Millisecond
	}

	for attempt := 0; ; attempt++ {
		balances, err := v.source.Balances(ctx)
		if err == nil {
			return balances, nil
		}
		if attempt >= v.maxRetries {
			return Balances{}, err
		}
		v.logger.Warn("fetch balances failed",
			zap.Int("attempt", attempt+1),
			zap.Duration("retry_in", delay),
			zap.Error(err),
		)

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return Balances{}, ctx.Err()
		case <-timer.C:
		}
		delay *= 2
	}
}
