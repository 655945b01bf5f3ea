package services

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"
	"gorm.io/datatypes"

	"github.com/stemhub-africa/stemhub-service/internal/cache"
	"github.com/stemhub-africa/stemhub-service/internal/events"
	"github.com/stemhub-africa/stemhub-service/internal/models"
	"github.com/stemhub-africa/stemhub-service/internal/repositories"
	"github.com/stemhub-africa/stemhub-service/internal/storage"
	"github.com/stemhub-africa/stemhub-service/internal/validator"
)

type contentService struct {
	repo         repositories.Repository
	cacheManager *cache.CacheManager
	presigner    storage.Presigner
	publisher    events.EventPublisher
	logger       *slog.Logger
	validator    *validator.Validator
}

// NewContentService builds the contributor and catalogue service. presigner may
// be nil when object storage is not configured; uploads are then refused.
func NewContentService(repo repositories.Repository, cacheManager *cache.CacheManager, presigner storage.Presigner, publisher events.EventPublisher, logger *slog.Logger, validator *validator.Validator) ContentService {
	return &contentService{
		repo:         repo,
		cacheManager: cacheManager,
		presigner:    presigner,
		publisher:    publisher,
		logger:       logger,
		validator:    validator,
	}
}

// ===== SUBMISSIONS =====

func (s *contentService) CreateNote(ctx context.Context, actor *models.User, req *models.NoteCreateRequest) (*models.Note, error) {
	if err := requireContributor(actor, "note", "create"); err != nil {
		return nil, err
	}
	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}

	note := &models.Note{
		ID:           uuid.New().String(),
		Title:        strings.TrimSpace(req.Title),
		Subject:      strings.TrimSpace(req.Subject),
		Level:        req.Level,
		Body:         req.Body,
		CreatedBy:    actor.ID,
		ReviewFields: models.ReviewFields{Status: models.ContentStatusPending},
	}
	if err := s.repo.Content().CreateNote(ctx, note); err != nil {
		return nil, fmt.Errorf("failed to create note: %w", err)
	}

	s.submitted(ctx, models.ContentTypeNote, note.ID, note.Title, actor.ID)
	return note, nil
}

func (s *contentService) CreateQuiz(ctx context.Context, actor *models.User, req *models.QuizCreateRequest) (*models.Quiz, error) {
	if err := requireContributor(actor, "quiz", "create"); err != nil {
		return nil, err
	}
	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}

	var questions []json.RawMessage
	if err := json.Unmarshal(req.Questions, &questions); err != nil || len(questions) == 0 {
		return nil, ValidationErrors{*NewValidationError("questions", "must be a non-empty array", nil)}
	}

	quiz := &models.Quiz{
		ID:           uuid.New().String(),
		Title:        strings.TrimSpace(req.Title),
		Subject:      strings.TrimSpace(req.Subject),
		Description:  req.Description,
		Questions:    datatypes.JSON(req.Questions),
		CreatedBy:    actor.ID,
		ReviewFields: models.ReviewFields{Status: models.ContentStatusPending},
	}
	if err := s.repo.Content().CreateQuiz(ctx, quiz); err != nil {
		return nil, fmt.Errorf("failed to create quiz: %w", err)
	}

	s.submitted(ctx, models.ContentTypeQuiz, quiz.ID, quiz.Title, actor.ID)
	return quiz, nil
}

func (s *contentService) CreatePastPaper(ctx context.Context, actor *models.User, req *models.PastPaperCreateRequest) (*models.PastPaper, error) {
	if err := requireContributor(actor, "past_paper", "create"); err != nil {
		return nil, err
	}
	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}
	if !storage.OwnsKey(actor.ID, req.ObjectKey) {
		return nil, ValidationErrors{*NewValidationError("object_key", "was not issued to this user", req.ObjectKey)}
	}
	if s.presigner != nil {
		exists, err := s.presigner.Exists(ctx, req.ObjectKey)
		if err != nil {
			return nil, fmt.Errorf("failed to check upload: %w", err)
		}
		if !exists {
			return nil, ValidationErrors{*NewValidationError("object_key", "upload not found", req.ObjectKey)}
		}
	}

	paper := &models.PastPaper{
		ID:           uuid.New().String(),
		Title:        strings.TrimSpace(req.Title),
		Subject:      strings.TrimSpace(req.Subject),
		ExamBoard:    strings.TrimSpace(req.ExamBoard),
		Year:         req.Year,
		ObjectKey:    req.ObjectKey,
		UploadedBy:   actor.ID,
		ReviewFields: models.ReviewFields{Status: models.ContentStatusPending},
	}
	if err := s.repo.Content().CreatePastPaper(ctx, paper); err != nil {
		return nil, fmt.Errorf("failed to create past paper: %w", err)
	}

	s.submitted(ctx, models.ContentTypePastPaper, paper.ID, paper.Title, actor.ID)
	return paper, nil
}

func (s *contentService) UploadURL(ctx context.Context, actor *models.User, req *models.UploadURLRequest) (*models.UploadURLResponse, error) {
	if err := requireContributor(actor, "past_paper", "upload"); err != nil {
		return nil, err
	}
	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}
	if s.presigner == nil {
		return nil, NewBusinessRuleError("uploads_disabled", "file uploads are not configured")
	}

	key, url, expiresAt, err := s.presigner.PresignUpload(ctx, actor.ID, req.FileName)
	if err != nil {
		return nil, fmt.Errorf("failed to presign upload: %w", err)
	}
	return &models.UploadURLResponse{ObjectKey: key, UploadURL: url, ExpiresAt: expiresAt}, nil
}

func (s *contentService) submitted(ctx context.Context, contentType models.ContentType, id, title, ownerID string) {
	cache.InvalidateReviewCache(ctx, s.cacheManager, string(contentType), ownerID)
	s.logger.Info("Content submitted", "content_type", contentType, "content_id", id, "owner_id", ownerID)

	if s.publisher == nil {
		return
	}
	event := events.NewEvent(events.TypeContentSubmitted, events.ContentSubmittedEvent{
		ContentType: string(contentType),
		ContentID:   id,
		OwnerID:     ownerID,
		Title:       title,
	})
	if err := s.publisher.Publish(ctx, event); err != nil {
		s.logger.Warn("Failed to publish event", "event_type", event.Type, "error", err)
	}
}

// ===== LISTINGS =====

// ListOwn lists the actor's items with their review feedback, newest first.
// Without a type it spans every content type.
func (s *contentService) ListOwn(ctx context.Context, actor *models.User, contentType *models.ContentType, status *models.ContentStatus, page, size int) (*models.ContentListResponse, error) {
	if err := requireContributor(actor, "content", "list"); err != nil {
		return nil, err
	}
	if status != nil && !status.IsValid() {
		return nil, ValidationErrors{*NewValidationError("status", fmt.Sprintf("must be one of %v", models.AllContentStatuses), *status)}
	}
	page, size = normalizePage(page, size)
	owner := actor.ID

	filters := models.ContentFilters{
		Status: status, Owner: &owner, NewestFirst: true, Limit: size, Offset: (page - 1) * size,
	}
	if contentType != nil {
		t, err := normalizeContentType(*contentType)
		if err != nil {
			return nil, err
		}
		filters.Type = t
	}

	items, total, err := s.repo.Content().List(ctx, filters)
	if err != nil {
		return nil, fmt.Errorf("failed to list content: %w", err)
	}
	return &models.ContentListResponse{Items: items, Total: total, Page: page, Size: size}, nil
}

func (s *contentService) Stats(ctx context.Context, actor *models.User) (*models.ContributorStats, error) {
	if err := requireContributor(actor, "content", "stats"); err != nil {
		return nil, err
	}

	var stats models.ContributorStats
	err := s.cacheManager.Stats.CacheOrExecute(ctx, "contributor:"+actor.ID, &stats, cache.StatsCacheConfig.TTL, func() (interface{}, error) {
		owner := actor.ID
		result := &models.ContributorStats{}
		for _, t := range models.AllContentTypes {
			counts, err := s.repo.Content().CountByStatus(ctx, t, &owner)
			if err != nil {
				return nil, fmt.Errorf("failed to count %s: %w", t, err)
			}
			switch t {
			case models.ContentTypeNote:
				result.Notes = counts
			case models.ContentTypeQuiz:
				result.Quizzes = counts
			case models.ContentTypePastPaper:
				result.PastPapers = counts
			}
			result.Total.Pending += counts.Pending
			result.Total.Published += counts.Published
			result.Total.Rejected += counts.Rejected
		}
		return result, nil
	})
	if err != nil {
		return nil, err
	}
	return &stats, nil
}

func (s *contentService) ListPublished(ctx context.Context, contentType models.ContentType, page, size int) (*models.ContentListResponse, error) {
	contentType, err := normalizeContentType(contentType)
	if err != nil {
		return nil, err
	}
	page, size = normalizePage(page, size)

	published := models.ContentStatusPublished
	items, total, err := s.repo.Content().List(ctx, models.ContentFilters{
		Type: contentType, Status: &published, Limit: size, Offset: (page - 1) * size,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list published content: %w", err)
	}
	return &models.ContentListResponse{Items: items, Total: total, Page: page, Size: size}, nil
}

// requireContributor admits contributors and admins
func requireContributor(actor *models.User, resource, action string) error {
	if actor == nil {
		return NewPermissionError("", "", resource, action, "not authenticated")
	}
	if actor.Role != models.RoleContributor && actor.Role != models.RoleAdmin {
		return NewPermissionError(actor.ID, "", resource, action, "contributor role required")
	}
	return nil
}
