package services

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
)

// BatchTrainer is the part of TrainingService the scheduler drives
type BatchTrainer interface {
	TrainAll(ctx context.Context, req TrainAllRequest) (*TrainAllReport, error)
}

// RetrainScheduler retrains every model on a cron schedule. Runs never overlap.
type RetrainScheduler struct {
	trainer   BatchTrainer
	schedule  string
	request   func() TrainAllRequest
	logger    *logrus.Logger
	cron      *cron.Cron
	mu        sync.Mutex
	isRunning bool
	runMu     sync.Mutex
	lastMu    sync.Mutex
	lastRun   *TrainAllReport
}

// NewRetrainScheduler creates a scheduler. request is called at each run so the
// season can roll over without a restart.
func NewRetrainScheduler(trainer BatchTrainer, schedule string, request func() TrainAllRequest, logger *logrus.Logger) *RetrainScheduler {
	return &RetrainScheduler{
		trainer:  trainer,
		schedule: schedule,
		request:  request,
		logger:   logger,
		cron:     cron.New(),
	}
}

// Start begins the scheduled retraining
func (s *RetrainScheduler) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.isRunning {
		return fmt.Errorf("retrain scheduler is already running")
	}

	_, err := s.cron.AddFunc(s.schedule, func() {
		if _, err := s.RunOnce(context.Background()); err != nil {
			s.logger.WithError(err).Error("Scheduled retrain failed")
		}
	})
	if err != nil {
		return fmt.Errorf("failed to schedule retrain job: %w", err)
	}

	s.cron.Start()
	s.isRunning = true

	s.logger.WithField("schedule", s.schedule).Info("Retrain scheduler started")
	return nil
}

// Stop halts the scheduler and waits for a running job to finish
func (s *RetrainScheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.isRunning {
		return
	}

	ctx := s.cron.Stop()
	<-ctx.Done()

	s.isRunning = false
	s.logger.Info("Retrain scheduler stopped")
}

// RunOnce runs a retrain immediately. It returns an error if a run is already
// in progress.
func (s *RetrainScheduler) RunOnce(ctx context.Context) (*TrainAllReport, error) {
	if !s.runMu.TryLock() {
		s.logger.Warn("Retrain already in progress, skipping")
		return nil, fmt.Errorf("retrain already in progress")
	}
	defer s.runMu.Unlock()

	start := time.Now()
	s.logger.Info("Starting scheduled retrain")

	report, err := s.trainer.TrainAll(ctx, s.request())
	if err != nil {
		return nil, err
	}

	s.lastMu.Lock()
	s.lastRun = report
	s.lastMu.Unlock()

	s.logger.WithFields(logrus.Fields{
		"trained":     report.Trained,
		"failed":      report.Failed,
		"duration_ms": time.Since(start).Milliseconds(),
	}).Info("Completed scheduled retrain")
	return report, nil
}

// LastRun returns the report of the most recent completed run
func (s *RetrainScheduler) LastRun() *TrainAllReport {
	s.lastMu.Lock()
	defer s.lastMu.Unlock()
	return s.lastRun
}
