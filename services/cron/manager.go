package cron

import (
	"context"
	"log"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/sahilchouksey/educa-api/model"
	"github.com/sahilchouksey/educa-api/services"
	"github.com/sahilchouksey/educa-api/utils/auth"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Job statuses recorded in cron_job_logs
const (
	StatusRunning   = "running"
	StatusCompleted = "completed"
	StatusFailed    = "failed"
)

// jobFunc does one unit of scheduled work and returns a summary line
type jobFunc func(ctx context.Context) (string, error)

// CronManager manages all scheduled cron jobs
type CronManager struct {
	cron      *cron.Cron
	db        *gorm.DB
	catalog   *services.CatalogService
	blacklist *auth.BlacklistService
	timeout   time.Duration
}

// NewCronManager creates a new cron manager
func NewCronManager(db *gorm.DB, catalog *services.CatalogService) *CronManager {
	return &CronManager{
		cron:      cron.New(cron.WithSeconds()),
		db:        db,
		catalog:   catalog,
		blacklist: auth.NewBlacklistService(db),
		timeout:   5 * time.Minute,
	}
}

// Start registers the jobs and starts the scheduler
func (m *CronManager) Start() error {
	log.Println("Starting cron jobs...")

	if err := m.registerJobs(); err != nil {
		return err
	}
	m.cron.Start()

	log.Println("Cron jobs started successfully")
	return nil
}

// Stop stops the scheduler and waits for running jobs
func (m *CronManager) Stop() {
	log.Println("Stopping cron jobs...")
	ctx := m.cron.Stop()
	<-ctx.Done()
	log.Println("Cron jobs stopped")
}

func (m *CronManager) registerJobs() error {
	schedule := []struct {
		spec string
		name string
		job  jobFunc
	}{
		// hourly
		{"0 0 * * * *", "cleanup_expired_tokens", m.CleanupExpiredTokens},
		// every 10 minutes
		{"0 */10 * * * *", "warm_catalog_cache", m.WarmCatalogCache},
		// daily at 3 AM
		{"0 0 3 * * *", "prune_cron_logs", m.PruneCronLogs},
	}

	for _, entry := range schedule {
		entry := entry
		if _, err := m.cron.AddFunc(entry.spec, func() { m.Run(entry.name, entry.job) }); err != nil {
			return err
		}
	}

	log.Println("All cron jobs registered successfully")
	return nil
}

// Run executes one job and records it in cron_job_logs
func (m *CronManager) Run(jobName string, job jobFunc) {
	ctx, cancel := context.WithTimeout(context.Background(), m.timeout)
	defer cancel()

	entry := m.logJobStart(jobName)
	message, err := job(ctx)
	if err != nil {
		m.logJobError(entry, err)
		return
	}
	m.logJobComplete(entry, message)
}

func (m *CronManager) logJobStart(jobName string) *model.CronJobLog {
	log.Printf("[CRON] Starting job: %s at %s", jobName, time.Now().Format(time.RFC3339))

	entry := &model.CronJobLog{
		JobName:   jobName,
		Status:    StatusRunning,
		StartedAt: time.Now(),
		Metadata:  datatypes.JSON("{}"),
	}
	if err := m.db.Create(entry).Error; err != nil {
		log.Printf("[CRON] Failed to record start of %s: %v", jobName, err)
	}
	return entry
}

func (m *CronManager) logJobComplete(entry *model.CronJobLog, message string) {
	log.Printf("[CRON] Completed job: %s - %s", entry.JobName, message)
	m.finish(entry, map[string]interface{}{
		"status":       StatusCompleted,
		"completed_at": time.Now(),
		"message":      message,
	})
}

func (m *CronManager) logJobError(entry *model.CronJobLog, err error) {
	log.Printf("[CRON] Error in job: %s - %v", entry.JobName, err)
	m.finish(entry, map[string]interface{}{
		"status":       StatusFailed,
		"completed_at": time.Now(),
		"error_msg":    err.Error(),
	})
}

func (m *CronManager) finish(entry *model.CronJobLog, updates map[string]interface{}) {
	if entry.ID == 0 {
		return
	}
	if err := m.db.Model(entry).Updates(updates).Error; err != nil {
		log.Printf("[CRON] Failed to record end of %s: %v", entry.JobName, err)
	}
}
