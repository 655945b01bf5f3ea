package jobs

import (
	"context"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/stemhub-africa/stemhub-service/internal/events"
	"github.com/stemhub-africa/stemhub-service/internal/models"
)

// BacklogRefresher recounts pending review items and refreshes the cached summary
type BacklogRefresher interface {
	RefreshBacklog(ctx context.Context) (*models.ReviewSummary, error)
}

type Scheduler struct {
	cron      *cron.Cron
	schedule  string
	refresher BacklogRefresher
	publisher events.EventPublisher
	logger    *slog.Logger
	timeout   time.Duration
}

func NewScheduler(schedule string, refresher BacklogRefresher, publisher events.EventPublisher, logger *slog.Logger) *Scheduler {
	return &Scheduler{
		cron:      cron.New(cron.WithSeconds()),
		schedule:  schedule,
		refresher: refresher,
		publisher: publisher,
		logger:    logger,
		timeout:   30 * time.Second,
	}
}

func (s *Scheduler) Start() error {
	if s.schedule == "" {
		return nil
	}

	if _, err := s.cron.AddFunc(s.schedule, s.refreshBacklog); err != nil {
		return err
	}

	s.cron.Start()
	s.logger.Info("Scheduler started", "backlog_schedule", s.schedule)
	return nil
}

// Stop waits for a running job to finish or ctx to expire
func (s *Scheduler) Stop(ctx context.Context) {
	done := s.cron.Stop()
	select {
	case <-done.Done():
	case <-ctx.Done():
		s.logger.Warn("Scheduler stop timed out")
	}
}

func (s *Scheduler) refreshBacklog() {
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()
	s.RunBacklog(ctx)
}

// RunBacklog refreshes the pending counts once and announces them
func (s *Scheduler) RunBacklog(ctx context.Context) {
	summary, err := s.refresher.RefreshBacklog(ctx)
	if err != nil {
		s.logger.Error("Backlog refresh failed", "error", err)
		return
	}

	event := events.NewEvent(events.TypeReviewBacklog, events.ReviewBacklogEvent{
		Notes:      summary.Notes,
		Quizzes:    summary.Quizzes,
		PastPapers: summary.PastPapers,
		Total:      summary.Total,
	})
	if err := s.publisher.Publish(ctx, event); err != nil {
		s.logger.Warn("Failed to publish backlog event", "error", err)
	}

	s.logger.Info("Review backlog refreshed", "pending_total", summary.Total)
}
