package services

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"

	"github.com/jstittsworth/fpl-predictor/internal/pipeline"
)

// SchedulerService re-runs the prediction pipeline on a fixed interval so
// the served artifact tracks team news and fixture changes. Exactly one
// run is in flight at a time; overlapping triggers are dropped.
type SchedulerService struct {
	pipe        *pipeline.Pipeline
	cache       *CacheService
	logger      *logrus.Logger
	cron        *cron.Cron
	runInterval time.Duration

	mu        sync.Mutex
	isRunning bool
	inFlight  bool
}

func NewSchedulerService(pipe *pipeline.Pipeline, cache *CacheService, logger *logrus.Logger, runInterval time.Duration) *SchedulerService {
	return &SchedulerService{
		pipe:        pipe,
		cache:       cache,
		logger:      logger,
		cron:        cron.New(),
		runInterval: runInterval,
	}
}

// Start begins scheduled pipeline runs. When skipInitial is false an
// immediate run fires in the background.
func (s *SchedulerService) Start(skipInitial bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.isRunning {
		return fmt.Errorf("scheduler is already running")
	}

	schedule := fmt.Sprintf("@every %s", s.runInterval.String())
	if _, err := s.cron.AddFunc(schedule, s.runOnce); err != nil {
		return fmt.Errorf("failed to schedule pipeline runs: %w", err)
	}

	s.cron.Start()
	s.isRunning = true

	if !skipInitial {
		go s.runOnce()
	}

	s.logger.Infof("Prediction scheduler started (every %s)", s.runInterval)
	return nil
}

// Stop halts scheduled runs, waiting for an in-flight run to finish.
// The mutex must not be held while waiting: the in-flight run needs it
// to clear its flag before it can complete.
func (s *SchedulerService) Stop() {
	s.mu.Lock()
	if !s.isRunning {
		s.mu.Unlock()
		return
	}
	s.isRunning = false
	s.mu.Unlock()

	ctx := s.cron.Stop()
	<-ctx.Done()

	s.logger.Info("Prediction scheduler stopped")
}

// RunOnDemand triggers a background run, used by the refresh endpoint.
// Returns false when a run is already in flight.
func (s *SchedulerService) RunOnDemand() bool {
	s.mu.Lock()
	if s.inFlight {
		s.mu.Unlock()
		return false
	}
	s.mu.Unlock()

	go s.runOnce()
	return true
}

func (s *SchedulerService) runOnce() {
	s.mu.Lock()
	if s.inFlight {
		s.mu.Unlock()
		s.logger.Debug("Skipping pipeline run: previous run still in flight")
		return
	}
	s.inFlight = true
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		s.inFlight = false
		s.mu.Unlock()
	}()

	result, err := s.pipe.Run(context.Background())
	if err != nil {
		s.logger.Errorf("Scheduled prediction run failed: %v", err)
		return
	}

	// A new artifact invalidates the served table.
	if s.cache != nil {
		if err := s.cache.Delete(context.Background(), LatestTableCacheKey()); err != nil {
			s.logger.Warnf("Failed to invalidate prediction cache: %v", err)
		}
	}

	s.logger.Infof("Scheduled run produced gameweek %d artifact with %d players", result.Gameweek, result.PlayersScored)
}
