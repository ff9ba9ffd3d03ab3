package cron

import (
	"context"
	"fmt"
	"time"

	"github.com/sahilchouksey/educa-api/model"
)

// cronLogRetention is how long job runs stay in cron_job_logs
const cronLogRetention = 30 * 24 * time.Hour

// CleanupExpiredTokens drops blacklist rows whose tokens have expired anyway
func (m *CronManager) CleanupExpiredTokens(ctx context.Context) (string, error) {
	removed, err := m.blacklist.CleanupExpiredTokens(ctx)
	if err != nil {
		return "", fmt.Errorf("failed to cleanup token blacklist: %w", err)
	}
	return fmt.Sprintf("Removed %d expired blacklist entries", removed), nil
}

// WarmCatalogCache reloads the cached subject listing
func (m *CronManager) WarmCatalogCache(ctx context.Context) (string, error) {
	if m.catalog == nil {
		return "Catalog not configured", nil
	}
	n, err := m.catalog.Warm(ctx)
	if err != nil {
		return "", fmt.Errorf("failed to warm catalog: %w", err)
	}
	return fmt.Sprintf("Cached %d subjects", n), nil
}

// PruneCronLogs deletes job runs older than the retention window
func (m *CronManager) PruneCronLogs(ctx context.Context) (string, error) {
	cutoff := time.Now().Add(-cronLogRetention)
	result := m.db.WithContext(ctx).
		Where("started_at < ?", cutoff).
		Delete(&model.CronJobLog{})
	if result.Error != nil {
		return "", fmt.Errorf("failed to prune cron logs: %w", result.Error)
	}
	return fmt.Sprintf("Pruned %d cron log entries", result.RowsAffected), nil
}
