package jobs

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog/log"
)

// TokenPruner is the part of the account service the pruner needs.
type TokenPruner interface {
	PruneExpiredTokens(ctx context.Context) (int64, error)
}

// Pruner periodically removes expired tokens from every session ledger so
// the ledgers do not grow without bound.
type Pruner struct {
	svc     TokenPruner
	cron    *cron.Cron
	timeout time.Duration
}

// NewPruner creates a Pruner that runs on the standard cron spec.
func NewPruner(svc TokenPruner, spec string) (*Pruner, error) {
	p := &Pruner{
		svc:     svc,
		cron:    cron.New(),
		timeout: 30 * time.Second,
	}
	if _, err := p.cron.AddFunc(spec, p.RunOnce); err != nil {
		return nil, fmt.Errorf("invalid prune schedule %q: %w", spec, err)
	}
	return p, nil
}

// Start runs one pass immediately, then schedules the rest.
func (p *Pruner) Start() {
	log.Info().Msg("Starting expired-token pruner...")
	p.RunOnce()
	p.cron.Start()
}

// Stop halts the schedule and waits for a running pass to finish.
func (p *Pruner) Stop() {
	<-p.cron.Stop().Done()
	log.Info().Msg("Stopped expired-token pruner.")
}

// RunOnce performs a single pruning pass.
func (p *Pruner) RunOnce() {
	ctx, cancel := context.WithTimeout(context.Background(), p.timeout)
	defer cancel()

	n, err := p.svc.PruneExpiredTokens(ctx)
	if err != nil {
		log.Error().Err(err).Msg("Pruner: failed to prune expired tokens")
		return
	}
	if n > 0 {
		log.Info().Int64("removed", n).Msg("Pruner: removed expired tokens")
	}
}
