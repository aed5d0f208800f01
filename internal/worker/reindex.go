package worker

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/robfig/cron/v3"

	"github.com/serviceinfo/serviceinfo/internal/domain/search"
	"github.com/serviceinfo/serviceinfo/internal/pkg/logger"
)

// Reindexer rebuilds the search index on a cron schedule
type Reindexer struct {
	search   search.Service
	schedule string
	logger   *logger.Logger

	mu        sync.Mutex
	scheduler *cron.Cron
}

// NewReindexer validates schedule and creates a reindex worker. A schedule of "" or
// "off" yields a worker whose Start is a no-op.
func NewReindexer(svc search.Service, schedule string, log *logger.Logger) (*Reindexer, error) {
	schedule = strings.TrimSpace(schedule)
	if schedule == "off" {
		schedule = ""
	}
	if schedule != "" {
		if _, err := cron.ParseStandard(schedule); err != nil {
			return nil, fmt.Errorf("invalid reindex schedule %q: %w", schedule, err)
		}
	}
	return &Reindexer{search: svc, schedule: schedule, logger: log}, nil
}

// Enabled reports whether a schedule is configured
func (r *Reindexer) Enabled() bool {
	return r.schedule != ""
}

// Start schedules periodic rebuilds
func (r *Reindexer) Start(ctx context.Context) error {
	if !r.Enabled() {
		r.logger.Info("Scheduled search reindex disabled")
		return nil
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if r.scheduler != nil {
		return fmt.Errorf("reindexer is already running")
	}

	r.scheduler = cron.New()
	if _, err := r.scheduler.AddFunc(r.schedule, func() { r.RunOnce(ctx) }); err != nil {
		r.scheduler = nil
		return fmt.Errorf("failed to schedule reindex: %w", err)
	}
	r.scheduler.Start()

	r.logger.WithFields(map[string]interface{}{
		"schedule": r.schedule,
	}).Info("Search reindex scheduler started")
	return nil
}

// RunOnce rebuilds the index immediately
func (r *Reindexer) RunOnce(ctx context.Context) {
	n, err := r.search.Rebuild(ctx)
	if err != nil {
		r.logger.ErrorWithErr(err, "Scheduled search reindex failed")
		return
	}
	r.logger.WithFields(map[string]interface{}{
		"entries": n,
	}).Info("Search index rebuilt")
}

// Stop stops the scheduler and waits for a running rebuild to finish
func (r *Reindexer) Stop() {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.scheduler == nil {
		return
	}
	<-r.scheduler.Stop().Done()
	r.scheduler = nil
	r.logger.Info("Search reindex scheduler stopped")
}
