package sched

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"cabin-rental-billing/internal/infra/metrics"
	"cabin-rental-billing/internal/usecase"
)

// ExpiryWorker periodically runs the lapsed-period sweep via the use case.
type ExpiryWorker struct {
	interval time.Duration
	batch    int
	sweepUC  usecase.SweepUseCase
	log      *zerolog.Logger
}

func NewExpiryWorker(interval time.Duration, batch int, sweepUC usecase.SweepUseCase, logger *zerolog.Logger) *ExpiryWorker {
	exprLog := logger.With().Str("component", "ExpiryWorker").Logger()
	return &ExpiryWorker{
		interval: interval,
		batch:    batch,
		sweepUC:  sweepUC,
		log:      &exprLog,
	}
}

func (w *ExpiryWorker) Run(ctx context.Context) error {
	w.log.Info().Msg("Starting expiry worker")
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			w.log.Info().Msg("Stopping expiry worker")
			return ctx.Err()
		case <-ticker.C:
			n, err := w.sweepUC.SweepLapsed(ctx, time.Now(), w.batch)
			if err != nil {
				w.log.Error().Err(err).Msg("expiry sweep error")
			}
			if n > 0 {
				metrics.IncSweepExpired(n)
				w.log.Info().Int("count", n).Msg("lapsed subscriptions expired")
			}
		}
	}
}
