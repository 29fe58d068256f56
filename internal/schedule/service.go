// Package schedule runs background jobs on cron timers.
package schedule

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/robfig/cron/v3"
)

type Service struct {
	logger *slog.Logger
	cron   *cron.Cron
	parser cron.Parser
}

// NewService builds a cron runner in the given timezone. Patterns use the
// seconds-optional format (e.g. "0 0 18 * * *" for 6pm daily).
func NewService(log *slog.Logger, location *time.Location) *Service {
	if location == nil {
		location = time.Local
	}
	parser := cron.NewParser(cron.SecondOptional | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor)
	return &Service{
		logger: log.With(slog.String("service", "schedule")),
		cron:   cron.New(cron.WithParser(parser), cron.WithLocation(location)),
		parser: parser,
	}
}

// Add registers a job under the given cron pattern. Job failures are logged,
// not propagated; the next tick runs regardless. Overlapping runs of the same
// job are not prevented.
func (s *Service) Add(pattern, name string, job func(ctx context.Context) error) error {
	if _, err := s.parser.Parse(pattern); err != nil {
		return fmt.Errorf("invalid cron pattern %q: %w", pattern, err)
	}
	_, err := s.cron.AddFunc(pattern, func() {
		log := s.logger.With(slog.String("job", name), slog.String("run_id", uuid.NewString()))
		log.Info("running scheduled job")
		if err := job(context.Background()); err != nil {
			log.Error("scheduled job failed", slog.Any("error", err))
			return
		}
		log.Info("scheduled job finished")
	})
	if err != nil {
		return fmt.Errorf("schedule %q: %w", name, err)
	}
	return nil
}

// Start begins firing scheduled jobs.
func (s *Service) Start() {
	s.cron.Start()
}

// Stop halts the timer and waits for in-flight jobs, bounded by ctx.
func (s *Service) Stop(ctx context.Context) error {
	done := s.cron.Stop().Done()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
