package workers

import (
	"context"
	"time"

	"dial2tech_backend/internal/logger"
	"dial2tech_backend/internal/repositories"
)

const notificationRetention = 90 * 24 * time.Hour

// CleanupWorker prunes read notifications older than the retention window.
type CleanupWorker struct {
	notificationRepo repositories.NotificationRepository
}

func NewCleanupWorker(notificationRepo repositories.NotificationRepository) *CleanupWorker {
	return &CleanupWorker{notificationRepo: notificationRepo}
}

func (w *CleanupWorker) Start(ctx context.Context) {
	go w.run(ctx)
}

func (w *CleanupWorker) run(ctx context.Context) {
	ticker := time.NewTicker(24 * time.Hour)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			logger.Info("cleanup worker stopped")
			return
		case <-ticker.C:
			removed, err := w.notificationRepo.CleanOld(time.Now().Add(-notificationRetention))
			logger.WorkerLog("cleanup", "notifications", err)
			if err == nil && removed > 0 {
				logger.Info("old notifications removed", "count", removed)
			}
		}
	}
}
