package usecase

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/vitos/crypto_bulk_orders/internal/domain"
)

// PollTicker fetches the pair's ticker on a fixed interval and delivers
// each successful snapshot to sink, until ctx is cancelled. Every call
// owns its own goroutine and schedule, so cancelling one poll never
// affects another. A failed fetch skips that tick and the polling
// continues. A non-positive interval is clamped to one second.
func (s *TradingService) PollTicker(ctx context.Context, pair domain.CurrencyPair, interval time.Duration, sink func(*domain.Ticker)) {
	if interval <= 0 {
		interval = time.Second
	}
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				s.logger.Debug("ticker poll stopped", zap.String("pair", pair.String()))
				return
			case <-ticker.C:
				if t := s.GetTicker(ctx, pair); t != nil {
					sink(t)
				}
			}
		}
	}()
}
