// Package cron runs the storefront maintenance jobs on a shared tick.
package cron

import (
	"context"
	"fmt"
	"time"

	"github.com/angelmondragon/storefront-backend/pkg/logger"
)

const defaultTick = time.Minute

type runRecorder interface {
	ObserveRun(job, outcome string, took time.Duration)
}

// ServiceParams configure the cron service.
type ServiceParams struct {
	Logger   *logger.Logger
	Registry *Registry
	Lock     Lock
	Metrics  runRecorder
	Tick     time.Duration
}

// Service checks every tick which jobs are due and runs them under the cluster lock.
type Service struct {
	logg     *logger.Logger
	registry *Registry
	lock     Lock
	metrics  runRecorder
	tick     time.Duration
	lastRun  map[string]time.Time
	now      func() time.Time
}

func NewService(params ServiceParams) (*Service, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.Lock == nil {
		return nil, fmt.Errorf("lock required")
	}
	registry := params.Registry
	if registry == nil {
		registry = NewRegistry()
	}
	tick := params.Tick
	if tick <= 0 {
		tick = defaultTick
	}
	return &Service{
		logg:     params.Logger,
		registry: registry,
		lock:     params.Lock,
		metrics:  params.Metrics,
		tick:     tick,
		lastRun:  map[string]time.Time{},
		now:      time.Now,
	}, nil
}

// Run evaluates due jobs immediately and then on every tick until ctx is canceled.
func (s *Service) Run(ctx context.Context) error {
	s.runDue(ctx)
	ticker := time.NewTicker(s.tick)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.logg.Info(ctx, "cron service context canceled")
			return ctx.Err()
		case <-ticker.C:
			s.runDue(ctx)
		}
	}
}

func (s *Service) runDue(ctx context.Context) {
	now := s.now()
	for _, job := range s.registry.Jobs() {
		if last, ok := s.lastRun[job.Name()]; ok && now.Sub(last) < job.Interval() {
			continue
		}
		s.lastRun[job.Name()] = now
		s.runJob(ctx, job)
	}
}

func (s *Service) runJob(ctx context.Context, job Job) {
	jobCtx := s.logg.WithFields(ctx, map[string]any{
		"job":   job.Name(),
		"event": "cron.job",
	})

	claimed, err := s.lock.Acquire(jobCtx, job.Name(), job.Interval())
	if err != nil {
		s.logg.Error(jobCtx, "lock acquire failed", err)
		s.record(job.Name(), "failure", 0)
		return
	}
	if !claimed {
		s.logg.Info(jobCtx, "job ran recently on another instance; skipping")
		s.record(job.Name(), "skipped", 0)
		return
	}

	start := s.now()
	err = job.Run(jobCtx)
	took := s.now().Sub(start)
	jobCtx = s.logg.WithField(jobCtx, "duration_ms", took.Milliseconds())
	if err != nil {
		s.logg.Error(jobCtx, "job failed", err)
		s.record(job.Name(), "failure", took)
		if relErr := s.lock.Release(ctx, job.Name()); relErr != nil {
			s.logg.Error(jobCtx, "failed to release cron lock", relErr)
		}
		return
	}
	s.logg.Info(jobCtx, "job completed")
	s.record(job.Name(), "success", took)
}

func (s *Service) record(job, outcome string, took time.Duration) {
	if s.metrics == nil {
		return
	}
	s.metrics.ObserveRun(job, outcome, took)
}
