package app

import (
	"context"
	"time"

	"github.com/garyellow/storebot/internal/config"
)

// startBackgroundJobs starts all background goroutines tracked by wg.
func (a *Application) startBackgroundJobs(ctx context.Context) {
	a.wg.Go(func() {
		a.updateConversationGauge(ctx)
	})
	if a.snapshots != nil && a.cfg.R2.SnapshotInterval > 0 {
		a.wg.Go(func() {
			a.logger.WithField("interval", a.cfg.R2.SnapshotInterval.String()).Info("Snapshot job started")
			a.snapshots.Run(ctx, a.db, a.cfg.R2.SnapshotInterval)
			a.logger.Debug("Snapshot job stopped")
		})
	}
}

// updateConversationGauge periodically records the stored conversation count.
func (a *Application) updateConversationGauge(ctx context.Context) {
	a.logger.Debug("Conversation gauge job started")
	defer a.logger.Debug("Conversation gauge job stopped")

	a.recordConversationCount(ctx)

	ticker := time.NewTicker(config.ConversationGaugeInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			a.recordConversationCount(ctx)
		}
	}
}

func (a *Application) recordConversationCount(ctx context.Context) {
	if a.metrics == nil {
		return
	}
	count, err := a.db.CountConversations(ctx)
	if err != nil {
		a.logger.WithError(err).Warn("Failed to count conversations")
		return
	}
	a.metrics.SetConversations(count)
}
