// Package maintenance runs periodic housekeeping against the metadata store.
package maintenance

import (
	"context"
	"github.com/roylee0704/gron"
	"sync"
	"time"
	"workdiary/internal/maintenance/interfaces"
	"workdiary/internal/providers"
	"workdiary/internal/store"
	"workdiary/internal/structures"
)

const defaultInterval = time.Hour

type Scheduler struct {
	config  *structures.Config
	logger  providers.Logger
	store   store.Store
	metrics providers.MetricsProviderInterface
	cron    *gron.Cron
	opsMu   sync.Mutex
}

func (s *Scheduler) Init() {
	interval := s.config.Maintenance.Interval
	if interval <= 0 {
		interval = defaultInterval
	}

	s.cron = gron.New()
	s.cron.AddFunc(gron.Every(interval), func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
		defer cancel()
		if err := s.RunOnce(ctx); err != nil {
			s.logger.Errorf(providers.TypeApp, "Maintenance failed: %s", err)
		}
	})
	s.cron.Start()
}

func (s *Scheduler) Stop() {
	if s.cron != nil {
		s.cron.Stop()
	}
}

// RunOnce refreshes the planner statistics and the entries gauge.
func (s *Scheduler) RunOnce(ctx context.Context) error {
	s.opsMu.Lock()
	defer s.opsMu.Unlock()

	if err := s.store.Optimize(ctx); err != nil {
		return err
	}
	count, err := s.store.Count(ctx)
	if err != nil {
		return err
	}
	s.metrics.SetEntriesTotal(count)
	s.logger.Debugf(providers.TypeApp, "Maintenance done, %d entries", count)
	return nil
}

func NewScheduler(config *structures.Config, logger providers.Logger, st store.Store, metrics providers.MetricsProviderInterface) interfaces.SchedulerInterface {
	return &Scheduler{
		config:  config,
		logger:  logger,
		store:   st,
		metrics: metrics,
	}
}
