package jobs

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"superteam-earn/internal/metrics"
	"superteam-earn/internal/services"
)

// Job names, also used as cron endpoint names
const (
	DeadlineSweep  = "deadline-sweep"
	MonthlyCredits = "monthly-credits"
	KYCExpiry      = "kyc-expiry"
)

var ErrUnknownJob = errors.New("unknown job")

// Task runs one job as of now and reports how many records it touched
type Task func(ctx context.Context, now time.Time) (int64, error)

type job struct {
	schedule string
	task     Task
}

// Scheduler runs the periodic maintenance jobs in UTC
type Scheduler struct {
	cron    *cron.Cron
	jobs    map[string]job
	timeout time.Duration
	now     func() time.Time
}

func NewScheduler(listings *services.ListingService, credits *services.CreditService, kyc *services.KYCService) *Scheduler {
	logger := cronLogger{zap.S().Named("cron")}
	s := &Scheduler{
		cron: cron.New(
			cron.WithLocation(time.UTC),
			cron.WithLogger(logger),
			cron.WithChain(cron.Recover(logger), cron.SkipIfStillRunning(logger)),
		),
		timeout: 10 * time.Minute,
		now:     func() time.Time { return time.Now().UTC() },
	}

	s.jobs = map[string]job{
		DeadlineSweep: {
			schedule: "*/15 * * * *",
			task:     listings.SweepDeadlines,
		},
		MonthlyCredits: {
			schedule: "5 0 1 * *",
			task: func(ctx context.Context, now time.Time) (int64, error) {
				n, err := credits.AllocateMonthly(ctx, now)
				return int64(n), err
			},
		},
		KYCExpiry: {
			schedule: "30 2 * * *",
			task:     kyc.ExpireStale,
		},
	}
	return s
}

// Start registers every job with cron and starts it
func (s *Scheduler) Start() error {
	for _, name := range s.Names() {
		name := name
		if _, err := s.cron.AddFunc(s.jobs[name].schedule, func() {
			ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
			defer cancel()
			_, _ = s.Run(ctx, name)
		}); err != nil {
			return fmt.Errorf("failed to schedule %s: %w", name, err)
		}
	}
	s.cron.Start()
	zap.L().Info("scheduler started", zap.Strings("jobs", s.Names()))
	return nil
}

// Stop stops scheduling and waits for running jobs until ctx expires
func (s *Scheduler) Stop(ctx context.Context) {
	done := s.cron.Stop()
	select {
	case <-done.Done():
	case <-ctx.Done():
		zap.L().Warn("scheduler stop timed out with jobs still running")
	}
}

// Names lists the registered jobs in a stable order
func (s *Scheduler) Names() []string {
	names := make([]string, 0, len(s.jobs))
	for name := range s.jobs {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Run executes a job immediately
func (s *Scheduler) Run(ctx context.Context, name string) (int64, error) {
	j, ok := s.jobs[name]
	if !ok {
		return 0, fmt.Errorf("%w: %s", ErrUnknownJob, name)
	}

	start := time.Now()
	affected, err := j.task(ctx, s.now())
	metrics.RecordJob(name, err)

	if err != nil {
		zap.L().Error("job failed", zap.String("job", name), zap.Error(err))
		return affected, err
	}
	zap.L().Info("job finished",
		zap.String("job", name),
		zap.Int64("affected", affected),
		zap.Duration("took", time.Since(start)))
	return affected, nil
}

// cronLogger adapts zap to cron.Logger
type cronLogger struct {
	log *zap.SugaredLogger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.log.Debugw(msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.log.Errorw(msg, append(keysAndValues, "error", err)...)
}
