package scheduler

import (
	"context"
	"time"

	"lookout/internal/logging"
	"lookout/internal/recommend"
	"lookout/internal/store"
)

// Scheduler drives periodic recommendation engine runs. Each tick it only
// visits tenants that produced feedback since their last run, so idle
// tenants cost nothing.
type Scheduler struct {
	logger   logging.Logger
	ledger   *store.FeedbackLedger
	engine   *recommend.Engine
	interval time.Duration
	ticker   *time.Ticker
	stopChan chan bool
}

// NewScheduler creates a scheduler that runs the engine every interval.
func NewScheduler(ledger *store.FeedbackLedger, engine *recommend.Engine, interval time.Duration, logger logging.Logger) *Scheduler {
	return &Scheduler{
		logger:   logger,
		ledger:   ledger,
		engine:   engine,
		interval: interval,
		stopChan: make(chan bool),
	}
}

// Start begins the periodic runs.
func (s *Scheduler) Start() {
	s.logger.WithFields(logging.Fields{
		"interval": s.interval,
	}).Info("Starting recommendation scheduler")

	s.ticker = time.NewTicker(s.interval)
	go s.runLoop()

	// Run once shortly after startup to pick up feedback accumulated while
	// the service was down.
	go func() {
		time.Sleep(10 * time.Second)
		s.runOnce()
	}()
}

// Stop stops the scheduled runs.
func (s *Scheduler) Stop() {
	s.logger.Info("Stopping recommendation scheduler")

	if s.ticker != nil {
		s.ticker.Stop()
	}

	close(s.stopChan)
}

func (s *Scheduler) runLoop() {
	for {
		select {
		case <-s.ticker.C:
			s.runOnce()
		case <-s.stopChan:
			s.logger.Info("Stopping recommendation run loop")
			return
		}
	}
}

func (s *Scheduler) runOnce() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	tenants, err := s.ledger.TenantsWithFeedbackSince(ctx)
	if err != nil {
		s.logger.WithError(err).Error("Failed to list tenants with recent feedback")
		return
	}
	if len(tenants) == 0 {
		return
	}

	s.logger.WithField("tenants", len(tenants)).Info("Running scheduled recommendation pass")

	for _, tenantID := range tenants {
		if _, err := s.engine.Run(ctx, tenantID); err != nil {
			s.logger.WithError(err).WithField("tenant_id", tenantID).Error("Recommendation run failed")
		}
	}
}
