package repositories

import (
	"context"

	"github.com/stemhub-africa/stemhub-service/internal/models"
)

// ContentRepository covers notes, quizzes and past papers through a single
// type-agnostic surface for reads and review transitions.
type ContentRepository interface {
	CreateNote(ctx context.Context, note *models.Note) error
	CreateQuiz(ctx context.Context, quiz *models.Quiz) error
	CreatePastPaper(ctx context.Context, paper *models.PastPaper) error

	GetItem(ctx context.Context, contentType models.ContentType, id string) (*models.ContentItem, error)
	List(ctx context.Context, filters models.ContentFilters) ([]models.ContentItem, int64, error)
	CountByStatus(ctx context.Context, contentType models.ContentType, owner *string) (models.StatusCounts, error)

	// Transition applies update only while the row is in status from.
	// Missing rows yield ErrNotFound, rows in any other status yield ErrConflict.
	Transition(ctx context.Context, contentType models.ContentType, id string, from models.ContentStatus, update ReviewUpdate) error
}

// IdentityRepository talks to the external identity provider
type IdentityRepository interface {
	VerifyToken(ctx context.Context, token string) (*models.Identity, error)
	SignInWithPassword(ctx context.Context, email, password string) (*models.IdentityToken, error)
	ExchangeCode(ctx context.Context, code string) (*models.IdentityToken, error)
	AuthorizeURL(state string) string

	GetByEmail(ctx context.Context, email string) (*models.Identity, error)
	Create(ctx context.Context, identity *models.Identity, password string) (*models.Identity, error)
	Delete(ctx context.Context, id string) error
	SetPassword(ctx context.Context, id, oldPassword, newPassword string) error
}
