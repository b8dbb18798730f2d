package jobs

import (
	"fmt"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// Evicter is anything with expirable entries to sweep
type Evicter interface {
	Evict() int
}

// CacheSweepJob periodically evicts expired entries from the process-wide
// TTL caches. Eviction is hygiene, not correctness; reads already ignore
// expired entries.
type CacheSweepJob struct {
	caches []Evicter
	cron   *cron.Cron
	spec   string
	logger *zap.Logger
}

// NewCacheSweepJob creates a sweep job over the given caches
func NewCacheSweepJob(interval string, logger *zap.Logger, caches ...Evicter) *CacheSweepJob {
	return &CacheSweepJob{
		caches: caches,
		cron:   cron.New(),
		spec:   fmt.Sprintf("@every %s", interval),
		logger: logger,
	}
}

// Start schedules the sweep
func (j *CacheSweepJob) Start() error {
	_, err := j.cron.AddFunc(j.spec, func() {
		removed := 0
		for _, c := range j.caches {
			removed += c.Evict()
		}
		if removed > 0 {
			j.logger.Debug("Cache sweep evicted entries", zap.Int("removed", removed))
		}
	})
	if err != nil {
		return err
	}

	j.cron.Start()
	j.logger.Info("Cache sweep job started", zap.String("schedule", j.spec))
	return nil
}

// Stop stops the sweep
func (j *CacheSweepJob) Stop() {
	j.cron.Stop()
}
