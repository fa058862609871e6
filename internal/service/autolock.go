package service

import (
	"context"
	"time"

	"github.com/atinyakov/WalletKeeper/internal/models"
	"go.uber.org/zap"
)

// StartAutoLock locks an unlocked wallet once it has been idle for longer
// than timeout, checking every interval. A zero timeout disables it.
func StartAutoLock(
	ctx context.Context,
	p *Provider,
	timeout time.Duration,
	interval time.Duration,
	log *zap.Logger,
) {
	if timeout <= 0 {
		return
	}
	if interval <= 0 {
		interval = timeout / 10
	}
	ticker := time.NewTicker(interval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if p.Status() != models.Unlocked {
					continue
				}
				if idle := p.IdleFor(); idle >= timeout {
					p.TriggerAutoLock(false)
					log.Info("wallet locked after inactivity", zap.Duration("idle", idle))
				}
			}
		}
	}()
}
