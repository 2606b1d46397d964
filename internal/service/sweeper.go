package service

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

// RunSweepers reclaims expired rate-limit windows and confirmations until ctx is done.
func (s *Service) RunSweepers(ctx context.Context) {
	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		s.runSweeper(ctx, "rate_limit", s.config.RateLimitSweep, s.limiter.Sweep)
	}()
	go func() {
		defer wg.Done()
		s.runSweeper(ctx, "confirmation", s.config.ConfirmationSweep, s.confirmations.Sweep)
	}()
	wg.Wait()
}

func (s *Service) runSweeper(ctx context.Context, name string, every time.Duration, sweep func(context.Context) (int, error)) {
	if every <= 0 {
		every = time.Minute
	}
	ticker := time.NewTicker(every)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.sweepOnce(ctx, name, sweep)
		}
	}
}

func (s *Service) sweepOnce(ctx context.Context, name string, sweep func(context.Context) (int, error)) {
	sweepCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	n, err := sweep(sweepCtx)
	if err != nil {
		s.logger.Warn("sweep failed", zap.String("sweeper", name), zap.Error(err))
		return
	}
	if n > 0 {
		s.logger.Debug("sweep reclaimed entries", zap.String("sweeper", name), zap.Int("count", n))
	}
}
