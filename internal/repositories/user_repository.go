package repositories

import (
	"context"

	"github.com/stemhub-africa/stemhub-service/internal/models"
)

// UserRepository persists platform user records keyed by identity id
type UserRepository interface {
	GetByID(ctx context.Context, id string) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	List(ctx context.Context, filters UserFilters) ([]*models.User, int64, error)

	// Create fails with ErrDuplicate when the id or email is taken
	Create(ctx context.Context, user *models.User) error
	// CreateIfNotExists inserts the row unless one with the same id exists.
	// It reports whether this call inserted it.
	CreateIfNotExists(ctx context.Context, user *models.User) (bool, error)

	UpdateOnboarding(ctx context.Context, id string, step int, completed bool) error
	SetMustChangePassword(ctx context.Context, id string, value bool) error
	Delete(ctx context.Context, id string) error
}

// ProfileRepository persists the per-role profile rows
type ProfileRepository interface {
	GetStudentProfile(ctx context.Context, userID string) (*models.StudentProfile, error)
	UpsertStudentProfile(ctx context.Context, profile *models.StudentProfile) error
	CreateStudentProfileIfNotExists(ctx context.Context, profile *models.StudentProfile) error

	GetContributorProfile(ctx context.Context, userID string) (*models.ContributorProfile, error)
	CreateContributorProfileIfNotExists(ctx context.Context, profile *models.ContributorProfile) error

	DeleteByUser(ctx context.Context, userID string) error
}
