package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/stemhub-africa/stemhub-service/internal/cache"
	"github.com/stemhub-africa/stemhub-service/internal/events"
	"github.com/stemhub-africa/stemhub-service/internal/models"
	"github.com/stemhub-africa/stemhub-service/internal/repositories"
	"github.com/stemhub-africa/stemhub-service/internal/validator"
)

type reviewService struct {
	repo         repositories.Repository
	cacheManager *cache.CacheManager
	publisher    events.EventPublisher
	logger       *slog.Logger
	validator    *validator.Validator
	now          func() time.Time
}

func NewReviewService(repo repositories.Repository, cacheManager *cache.CacheManager, publisher events.EventPublisher, logger *slog.Logger, validator *validator.Validator) ReviewService {
	return &reviewService{
		repo:         repo,
		cacheManager: cacheManager,
		publisher:    publisher,
		logger:       logger,
		validator:    validator,
		now:          func() time.Time { return time.Now().UTC() },
	}
}

// ===== DECISIONS =====

func (s *reviewService) Approve(ctx context.Context, actor *models.User, contentType models.ContentType, contentID string) (*models.ContentItem, error) {
	if err := requireAdmin(actor, contentID, "content", "approve"); err != nil {
		return nil, err
	}
	contentType, err := normalizeContentType(contentType)
	if err != nil {
		return nil, err
	}

	now := s.now()
	update := repositories.ReviewUpdate{
		Status:      models.ContentStatusPublished,
		ReviewedBy:  actor.ID,
		ReviewedAt:  now,
		PublishedAt: &now,
	}
	return s.decide(ctx, contentType, contentID, update)
}

func (s *reviewService) Reject(ctx context.Context, actor *models.User, contentType models.ContentType, contentID, feedback string) (*models.ContentItem, error) {
	if err := requireAdmin(actor, contentID, "content", "reject"); err != nil {
		return nil, err
	}
	contentType, err := normalizeContentType(contentType)
	if err != nil {
		return nil, err
	}

	feedback = strings.TrimSpace(feedback)
	if errs := s.validator.GetBusinessValidator().ValidateRejectFeedback(feedback); len(errs) > 0 {
		return nil, errs
	}

	update := repositories.ReviewUpdate{
		Status:     models.ContentStatusRejected,
		Feedback:   &feedback,
		ReviewedBy: actor.ID,
		ReviewedAt: s.now(),
	}
	return s.decide(ctx, contentType, contentID, update)
}

// decide performs the pending -> terminal compare-and-swap
func (s *reviewService) decide(ctx context.Context, contentType models.ContentType, contentID string, update repositories.ReviewUpdate) (*models.ContentItem, error) {
	if errs := s.validator.GetBusinessValidator().ValidateReviewTransition(models.ContentStatusPending, update.Status); len(errs) > 0 {
		return nil, errs
	}

	err := s.repo.Content().Transition(ctx, contentType, contentID, models.ContentStatusPending, update)
	switch {
	case errors.Is(err, repositories.ErrNotFound):
		return nil, ErrContentNotFound
	case errors.Is(err, repositories.ErrConflict):
		s.logger.Info("Review lost to a concurrent decision",
			"content_type", contentType,
			"content_id", contentID,
			"reviewer_id", update.ReviewedBy)
		return nil, ErrContentAlreadyReviewed
	case err != nil:
		return nil, fmt.Errorf("failed to review content: %w", err)
	}

	item, err := s.repo.Content().GetItem(ctx, contentType, contentID)
	if err != nil {
		return nil, fmt.Errorf("failed to reload reviewed content: %w", err)
	}

	cache.InvalidateReviewCache(ctx, s.cacheManager, string(contentType), item.Owner)

	s.publish(ctx, events.NewEvent(events.TypeContentReviewed, events.ContentReviewedEvent{
		ContentType: string(contentType),
		ContentID:   item.ID,
		OwnerID:     item.Owner,
		Status:      string(update.Status),
		Feedback:    update.Feedback,
		ReviewedBy:  update.ReviewedBy,
		ReviewedAt:  update.ReviewedAt,
	}))

	s.logger.Info("Content reviewed",
		"content_type", contentType,
		"content_id", contentID,
		"status", update.Status,
		"reviewer_id", update.ReviewedBy)

	return item, nil
}

// ===== QUEUES =====

func (s *reviewService) ListQueue(ctx context.Context, actor *models.User, contentType models.ContentType, page, size int) (*models.ContentListResponse, error) {
	if err := requireAdmin(actor, "", "review_queue", "list"); err != nil {
		return nil, err
	}
	contentType, err := normalizeContentType(contentType)
	if err != nil {
		return nil, err
	}

	page, size = normalizePage(page, size)
	pending := models.ContentStatusPending
	items, total, err := s.repo.Content().List(ctx, models.ContentFilters{
		Type:   contentType,
		Status: &pending,
		Limit:  size,
		Offset: (page - 1) * size,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list review queue: %w", err)
	}

	return &models.ContentListResponse{Items: items, Total: total, Page: page, Size: size}, nil
}

func (s *reviewService) Summary(ctx context.Context, actor *models.User) (*models.ReviewSummary, error) {
	if err := requireAdmin(actor, "", "review_queue", "summary"); err != nil {
		return nil, err
	}

	var summary models.ReviewSummary
	err := s.cacheManager.Review.CacheOrExecute(ctx, cache.ReviewSummaryKey, &summary, cache.ReviewCacheConfig.TTL, func() (interface{}, error) {
		return s.countPending(ctx)
	})
	if err != nil {
		return nil, err
	}
	return &summary, nil
}

func (s *reviewService) RefreshBacklog(ctx context.Context) (*models.ReviewSummary, error) {
	summary, err := s.countPending(ctx)
	if err != nil {
		return nil, err
	}
	cache.SafeSet(ctx, s.cacheManager.Review, cache.ReviewSummaryKey, summary, cache.ReviewCacheConfig.TTL)
	return summary, nil
}

func (s *reviewService) countPending(ctx context.Context) (*models.ReviewSummary, error) {
	summary := &models.ReviewSummary{CachedAt: s.now()}
	for _, contentType := range models.AllContentTypes {
		counts, err := s.repo.Content().CountByStatus(ctx, contentType, nil)
		if err != nil {
			return nil, fmt.Errorf("failed to count pending %s: %w", contentType, err)
		}
		summary.Set(contentType, counts.Pending)
	}
	return summary, nil
}

func (s *reviewService) publish(ctx context.Context, event events.Event) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.Publish(ctx, event); err != nil {
		s.logger.Warn("Failed to publish event", "event_type", event.Type, "error", err)
	}
}

// ===== HELPERS =====

func requireAdmin(actor *models.User, resourceID, resource, action string) error {
	if actor == nil {
		return NewPermissionError("", resourceID, resource, action, "not authenticated")
	}
	if actor.Role != models.RoleAdmin {
		return NewPermissionError(actor.ID, resourceID, resource, action, "admin role required")
	}
	return nil
}

func normalizeContentType(contentType models.ContentType) (models.ContentType, error) {
	parsed, ok := models.ParseContentType(string(contentType))
	if !ok {
		return "", ValidationErrors{{
			Field:   "content_type",
			Message: fmt.Sprintf("must be one of %v", models.AllContentTypes),
			Value:   contentType,
			Rule:    "content_type",
		}}
	}
	return parsed, nil
}

func normalizePage(page, size int) (int, int) {
	if page < 1 {
		page = 1
	}
	if size < 1 {
		size = 20
	}
	if size > 100 {
		size = 100
	}
	return page, size
}
