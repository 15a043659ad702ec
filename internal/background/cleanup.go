package background

import (
	"context"
	"log/slog"
	"time"

	"github.com/LeVanAnhDuc/api-web-store-apps-sub000/internal/repositories"
)

// CleanupManager periodically removes expired login history rows from the database
type CleanupManager struct {
	historyRepo *repositories.LoginHistoryRepository
	logger      *slog.Logger
	interval    time.Duration
	stopCh      chan struct{}
}

// NewCleanupManager creates a new cleanup manager
func NewCleanupManager(
	historyRepo *repositories.LoginHistoryRepository,
	logger *slog.Logger,
	interval time.Duration,
) *CleanupManager {
	return &CleanupManager{
		historyRepo: historyRepo,
		logger:      logger,
		interval:    interval,
		stopCh:      make(chan struct{}),
	}
}

// Start begins the periodic cleanup task
func (cm *CleanupManager) Start(ctx context.Context) {
	ticker := time.NewTicker(cm.interval)
	defer ticker.Stop()

	// Run immediately on startup
	cm.runCleanup(ctx)

	for {
		select {
		case <-ticker.C:
			cm.runCleanup(ctx)
		case <-cm.stopCh:
			cm.logger.Info("cleanup manager stopped")
			return
		case <-ctx.Done():
			cm.logger.Info("cleanup manager context cancelled")
			return
		}
	}
}

// runCleanup removes login history rows past their retention window
func (cm *CleanupManager) runCleanup(ctx context.Context) {
	cleanupCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	rowsDeleted, err := cm.historyRepo.DeleteExpired(cleanupCtx, time.Now())
	if err != nil {
		cm.logger.Error("failed to cleanup expired login history", slog.Any("error", err))
		return
	}

	if rowsDeleted > 0 {
		cm.logger.Info("login history cleanup completed", slog.Int64("rows_deleted", rowsDeleted))
	}
}

// Stop signals the cleanup manager to stop
func (cm *CleanupManager) Stop() {
	close(cm.stopCh)
}
