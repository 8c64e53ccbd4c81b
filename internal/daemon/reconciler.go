package daemon

import (
	"context"
	"time"

	"github.com/rs/zerolog"
)

// ReconcileFunc performs one pass and returns the ids it cleaned up.
type ReconcileFunc func(ctx context.Context) ([]string, error)

// ReconcilerConfig holds configuration for the reconciler.
type ReconcilerConfig struct {
	Interval time.Duration
	Logger   zerolog.Logger
}

// Reconciler periodically drops palettes whose native surfaces were
// destroyed behind the engine's back.
type Reconciler struct {
	interval time.Duration
	pass     ReconcileFunc
	logger   zerolog.Logger
}

// NewReconciler creates a reconciler running pass every interval.
func NewReconciler(cfg ReconcilerConfig, pass ReconcileFunc) *Reconciler {
	interval := cfg.Interval
	if interval <= 0 {
		interval = 5 * time.Second
	}
	return &Reconciler{
		interval: interval,
		pass:     pass,
		logger:   cfg.Logger.With().Str("component", "reconciler").Logger(),
	}
}

// Run starts the reconciliation loop. Blocks until context is cancelled.
func (r *Reconciler) Run(ctx context.Context) error {
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	r.logger.Debug().Dur("interval", r.interval).Msg("reconciler started")
	for {
		select {
		case <-ctx.Done():
			r.logger.Debug().Msg("reconciler stopped")
			return nil
		case <-ticker.C:
			r.reconcile(ctx)
		}
	}
}

// reconcile performs a single reconciliation pass.
func (r *Reconciler) reconcile(ctx context.Context) (removed []string) {
	defer func() {
		if err := recover(); err != nil {
			r.logger.Error().Interface("panic", err).Msg("reconciler panic recovered")
		}
	}()

	removed, err := r.pass(ctx)
	if err != nil {
		if ctx.Err() == nil {
			r.logger.Warn().Err(err).Msg("reconcile pass failed")
		}
		return nil
	}
	if len(removed) > 0 {
		r.logger.Info().Strs("windows", removed).Msg("reconciler removed orphaned palettes")
	}
	return removed
}

// ReconcileNow triggers an immediate reconciliation pass.
func (r *Reconciler) ReconcileNow(ctx context.Context) []string {
	return r.reconcile(ctx)
}
