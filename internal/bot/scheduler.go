package bot

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/go-co-op/gocron/v2"

	"github.com/derogab/summarygram/internal/bot/tasks"
	"github.com/derogab/summarygram/internal/config"
	"github.com/derogab/summarygram/internal/logger"
)

// Scheduler manages scheduled tasks using the gocron library.
type Scheduler struct {
	scheduler gocron.Scheduler
	logger    *slog.Logger
	cfg       *config.SchedulerConfig
	taskMap   map[string]tasks.ScheduledTaskFunc
	mu        sync.Mutex
	running   bool
}

// NewScheduler creates a scheduler running in the configured timezone.
func NewScheduler(baseLogger *slog.Logger, cfg *config.SchedulerConfig, taskMap map[string]tasks.ScheduledTaskFunc) (*Scheduler, error) {
	if baseLogger == nil {
		baseLogger = slog.Default()
	}
	log := baseLogger.With("component", "scheduler")

	loc := time.UTC
	if cfg != nil && cfg.Timezone != "" {
		var err error
		loc, err = time.LoadLocation(cfg.Timezone)
		if err != nil {
			return nil, fmt.Errorf("invalid scheduler timezone %q: %w", cfg.Timezone, err)
		}
	}

	s, err := gocron.NewScheduler(
		gocron.WithLocation(loc),
		gocron.WithLogger(logger.NewGocronLogger(log)),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create gocron scheduler: %w", err)
	}

	return &Scheduler{
		scheduler: s,
		logger:    log,
		cfg:       cfg,
		taskMap:   taskMap,
	}, nil
}

// Start schedules every enabled task and starts the scheduler. Tasks run with
// ctx, so cancelling it aborts in-flight runs.
func (s *Scheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running {
		return errors.New("scheduler is already running")
	}

	s.logger.Debug("Configuring scheduler jobs...")

	scheduledCount := 0
	for _, taskName := range s.taskNames() {
		taskConfig := s.cfg.Tasks[taskName]
		if !taskConfig.Enabled {
			s.logger.Info("Skipping disabled task", "task_name", taskName)
			continue
		}

		taskFunc, exists := s.taskMap[taskName]
		if !exists {
			s.logger.Warn("Scheduled task configured but not found in registry, skipping", "task_name", taskName)
			continue
		}

		schedule, err := config.NormalizeSchedule(taskConfig.Schedule)
		if err != nil {
			s.logger.Error("Invalid task schedule, skipping", "task_name", taskName, "schedule", taskConfig.Schedule, "error", err)
			continue
		}
		if schedule == "" {
			s.logger.Info("Task schedule set to never, skipping", "task_name", taskName)
			continue
		}

		name := taskName
		_, err = s.scheduler.NewJob(
			gocron.CronJob(schedule, true),
			gocron.NewTask(func() {
				s.runTask(ctx, name, taskFunc)
			}),
			gocron.WithName(name),
			gocron.WithSingletonMode(gocron.LimitModeReschedule),
		)
		if err != nil {
			s.logger.Error("Failed to schedule task", "task_name", taskName, "schedule", schedule, "error", err)
			continue
		}

		s.logger.Info("Scheduled task", "task_name", taskName, "schedule", schedule)
		scheduledCount++
	}

	s.scheduler.Start()
	s.running = true
	s.logger.Info("Scheduler initialized and started", "tasks_scheduled", scheduledCount)

	return nil
}

func (s *Scheduler) taskNames() []string {
	if s.cfg == nil || len(s.cfg.Tasks) == 0 {
		s.logger.Warn("No scheduler tasks configured.")
		return nil
	}
	names := make([]string, 0, len(s.cfg.Tasks))
	for name := range s.cfg.Tasks {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (s *Scheduler) runTask(ctx context.Context, name string, taskFunc tasks.ScheduledTaskFunc) {
	if ctx.Err() != nil {
		return
	}

	s.logger.Info("Running scheduled task", "task_name", name)
	startTime := time.Now()
	if err := taskFunc(ctx); err != nil {
		s.logger.Error("Scheduled task failed", "task_name", name, "error", err)
	}
	s.logger.Info("Finished scheduled task", "task_name", name, "duration", time.Since(startTime))
}

// JobNames returns the names of the scheduled jobs.
func (s *Scheduler) JobNames() []string {
	jobs := s.scheduler.Jobs()
	names := make([]string, 0, len(jobs))
	for _, j := range jobs {
		names = append(names, j.Name())
	}
	sort.Strings(names)
	return names
}

// Stop gracefully stops the scheduler, waiting for running jobs to complete.
func (s *Scheduler) Stop() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.running {
		s.logger.Info("Scheduler is not running, nothing to stop.")
		return nil
	}

	s.logger.Debug("Stopping scheduler gracefully (waiting for jobs)...")
	err := s.scheduler.Shutdown()
	if err != nil {
		s.logger.Error("Error during scheduler shutdown", "error", err)
	} else {
		s.logger.Info("Scheduler stopped gracefully.")
	}

	s.running = false
	return err
}
