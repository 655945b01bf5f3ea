package services

import (
	"context"
	"time"

	"github.com/stemhub-africa/stemhub-service/internal/models"
)

// ===== SESSION RELATED DTOs =====

// BootstrapResult is the outcome of ensuring a platform user exists for an identity
type BootstrapResult struct {
	User        *models.User
	Destination string
	Created     bool
}

// SessionResult is returned by sign-in entry points that also yield a provider token
type SessionResult struct {
	AccessToken string
	ExpiresAt   time.Time
	User        *models.User
	Destination string
	Created     bool
}

// ===== SERVICE INTERFACES =====

type SessionService interface {
	// Bootstrap ensures a user row exists for an authenticated identity and resolves where it lands
	Bootstrap(ctx context.Context, identity *models.Identity) (*BootstrapResult, error)
	// Authenticate verifies a provider token and returns the bootstrapped user
	Authenticate(ctx context.Context, token string) (*models.User, error)

	SignIn(ctx context.Context, req *models.LoginRequest) (*SessionResult, error)
	SignUp(ctx context.Context, req *models.SignupRequest) (*SessionResult, error)
	StartOAuth(ctx context.Context, redirect string) (string, error)
	CompleteOAuth(ctx context.Context, code, state string) (*SessionResult, error)

	Me(ctx context.Context, userID string) (*models.SessionResponse, error)
	ChangePassword(ctx context.Context, userID string, req *models.ChangePasswordRequest) (*models.SessionResponse, error)
}

type ReviewService interface {
	Approve(ctx context.Context, actor *models.User, contentType models.ContentType, contentID string) (*models.ContentItem, error)
	Reject(ctx context.Context, actor *models.User, contentType models.ContentType, contentID, feedback string) (*models.ContentItem, error)

	ListQueue(ctx context.Context, actor *models.User, contentType models.ContentType, page, size int) (*models.ContentListResponse, error)
	Summary(ctx context.Context, actor *models.User) (*models.ReviewSummary, error)
	ExportQueue(ctx context.Context, actor *models.User, contentType models.ContentType) ([]byte, error)

	// RefreshBacklog recounts pending items and overwrites the cached summary
	RefreshBacklog(ctx context.Context) (*models.ReviewSummary, error)
}

type InviteService interface {
	Invite(ctx context.Context, actor *models.User, req *models.InviteUserRequest) (*models.InviteUserResponse, error)
}

type OnboardingService interface {
	GetState(ctx context.Context, user *models.User) (*models.OnboardingStateResponse, error)
	SaveStep(ctx context.Context, user *models.User, step string, req *models.OnboardingStepRequest) (*models.OnboardingStateResponse, error)
}

type ContentService interface {
	CreateNote(ctx context.Context, actor *models.User, req *models.NoteCreateRequest) (*models.Note, error)
	CreateQuiz(ctx context.Context, actor *models.User, req *models.QuizCreateRequest) (*models.Quiz, error)
	CreatePastPaper(ctx context.Context, actor *models.User, req *models.PastPaperCreateRequest) (*models.PastPaper, error)
	UploadURL(ctx context.Context, actor *models.User, req *models.UploadURLRequest) (*models.UploadURLResponse, error)

	ListOwn(ctx context.Context, actor *models.User, contentType *models.ContentType, status *models.ContentStatus, page, size int) (*models.ContentListResponse, error)
	Stats(ctx context.Context, actor *models.User) (*models.ContributorStats, error)
	ListPublished(ctx context.Context, contentType models.ContentType, page, size int) (*models.ContentListResponse, error)
}

type ServiceManager interface {
	Session() SessionService
	Review() ReviewService
	Invite() InviteService
	Onboarding() OnboardingService
	Content() ContentService

	Initialize(ctx context.Context) error
	Shutdown(ctx context.Context) error
	Health(ctx context.Context) error
}
