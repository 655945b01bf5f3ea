package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"time"

	"github.com/stemhub-africa/stemhub-service/internal/events"
	"github.com/stemhub-africa/stemhub-service/internal/models"
	"github.com/stemhub-africa/stemhub-service/internal/repositories"
	"github.com/stemhub-africa/stemhub-service/internal/security"
	"github.com/stemhub-africa/stemhub-service/internal/validator"
)

// SessionConfig controls first-login provisioning and the OAuth state
type SessionConfig struct {
	AdminEmails       []string
	ContributorEmails []string
	MaxAttempts       int
	BaseDelay         time.Duration
	StateSecret       string
	StateTTL          time.Duration
}

type sessionService struct {
	repo      repositories.Repository
	publisher events.EventPublisher
	logger    *slog.Logger
	validator *validator.Validator
	config    SessionConfig
}

func NewSessionService(repo repositories.Repository, publisher events.EventPublisher, logger *slog.Logger, validator *validator.Validator, config SessionConfig) SessionService {
	if config.MaxAttempts < 1 {
		config.MaxAttempts = 3
	}
	if config.BaseDelay <= 0 {
		config.BaseDelay = 250 * time.Millisecond
	}
	config.AdminEmails = normalizeEmails(config.AdminEmails)
	config.ContributorEmails = normalizeEmails(config.ContributorEmails)
	return &sessionService{
		repo:      repo,
		publisher: publisher,
		logger:    logger,
		validator: validator,
		config:    config,
	}
}

// ===== BOOTSTRAP =====

func (s *sessionService) Bootstrap(ctx context.Context, identity *models.Identity) (*BootstrapResult, error) {
	if identity == nil || identity.ID == "" {
		return nil, fmt.Errorf("%w: identity has no id", ErrAuthenticationFailed)
	}

	for attempt := 1; ; attempt++ {
		user, err := s.repo.User().GetByID(ctx, identity.ID)
		if err == nil {
			return &BootstrapResult{
				User:        user,
				Destination: ResolveDestination(user.RoutingState()),
			}, nil
		}

		if repositories.IsNotFoundError(err) {
			return s.provision(ctx, identity)
		}

		s.logger.Warn("User lookup failed during bootstrap",
			"user_id", identity.ID,
			"attempt", attempt,
			"max_attempts", s.config.MaxAttempts,
			"error", err)

		if attempt >= s.config.MaxAttempts {
			return nil, fmt.Errorf("%w: user lookup failed after %d attempts: %v", ErrAuthenticationFailed, attempt, err)
		}

		if err := sleepContext(ctx, time.Duration(attempt)*s.config.BaseDelay); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrAuthenticationFailed, err)
		}
	}
}

// provision creates the user and its profile. Concurrent calls for the same
// identity converge on the row written by whichever insert lands first.
func (s *sessionService) provision(ctx context.Context, identity *models.Identity) (*BootstrapResult, error) {
	email := strings.ToLower(strings.TrimSpace(identity.Email))
	role := s.roleForEmail(email)

	user := &models.User{
		ID:                  identity.ID,
		Email:               email,
		FullName:            displayName(identity),
		Role:                role,
		OnboardingCompleted: role != models.RoleStudent,
		OnboardingStep:      0,
	}

	created := false
	err := s.repo.WithTransaction(ctx, func(tx repositories.Repository) error {
		inserted, err := tx.User().CreateIfNotExists(ctx, user)
		if err != nil {
			return err
		}
		created = inserted
		if !inserted {
			return nil
		}
		return createProfile(ctx, tx, user)
	})
	if err != nil {
		s.logger.Error("Failed to provision user", "user_id", identity.ID, "error", err)
		return nil, fmt.Errorf("%w: provisioning failed: %v", ErrAuthenticationFailed, err)
	}

	stored, err := s.repo.User().GetByID(ctx, identity.ID)
	if err != nil {
		return nil, fmt.Errorf("%w: reading provisioned user: %v", ErrAuthenticationFailed, err)
	}

	if created {
		s.logger.Info("User provisioned", "user_id", stored.ID, "role", stored.Role)
		s.publish(ctx, events.NewEvent(events.TypeUserProvisioned, events.UserProvisionedEvent{
			UserID: stored.ID,
			Email:  stored.Email,
			Role:   string(stored.Role),
		}))
	}

	return &BootstrapResult{
		User:        stored,
		Destination: ResolveDestination(stored.RoutingState()),
		Created:     created,
	}, nil
}

// roleForEmail applies the static allow-lists; admin wins over contributor
func (s *sessionService) roleForEmail(email string) models.UserRole {
	if slices.Contains(s.config.AdminEmails, email) {
		return models.RoleAdmin
	}
	if slices.Contains(s.config.ContributorEmails, email) {
		return models.RoleContributor
	}
	return models.RoleStudent
}

// normalizeEmails lower-cases and trims an allow-list, dropping blanks
func normalizeEmails(emails []string) []string {
	normalized := make([]string, 0, len(emails))
	for _, email := range emails {
		if email = strings.ToLower(strings.TrimSpace(email)); email != "" {
			normalized = append(normalized, email)
		}
	}
	return normalized
}

// ===== SIGN-IN ENTRY POINTS =====

func (s *sessionService) Authenticate(ctx context.Context, token string) (*models.User, error) {
	identity, err := s.repo.Identity().VerifyToken(ctx, token)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrAuthenticationFailed, err)
	}

	result, err := s.Bootstrap(ctx, identity)
	if err != nil {
		return nil, err
	}
	return result.User, nil
}

func (s *sessionService) SignIn(ctx context.Context, req *models.LoginRequest) (*SessionResult, error) {
	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}

	token, err := s.repo.Identity().SignInWithPassword(ctx, strings.ToLower(req.Email), req.Password)
	if err != nil {
		if errors.Is(err, repositories.ErrInvalidCredentials) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("%w: %v", ErrAuthenticationFailed, err)
	}

	return s.completeSignIn(ctx, token, req.Redirect)
}

func (s *sessionService) SignUp(ctx context.Context, req *models.SignupRequest) (*SessionResult, error) {
	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}

	email := strings.ToLower(strings.TrimSpace(req.Email))
	if _, err := s.repo.Identity().GetByEmail(ctx, email); err == nil {
		return nil, ErrEmailTaken
	} else if !repositories.IsNotFoundError(err) {
		return nil, fmt.Errorf("failed to check existing identity: %w", err)
	}

	if _, err := s.repo.Identity().Create(ctx, &models.Identity{Email: email, DisplayName: strings.TrimSpace(req.FullName)}, req.Password); err != nil {
		if errors.Is(err, repositories.ErrDuplicate) {
			return nil, ErrEmailTaken
		}
		return nil, fmt.Errorf("failed to create identity: %w", err)
	}

	token, err := s.repo.Identity().SignInWithPassword(ctx, email, req.Password)
	if err != nil {
		return nil, fmt.Errorf("%w: sign-in after sign-up: %v", ErrAuthenticationFailed, err)
	}

	return s.completeSignIn(ctx, token, "")
}

func (s *sessionService) StartOAuth(ctx context.Context, redirect string) (string, error) {
	if !validator.IsSafeRedirect(redirect) {
		redirect = ""
	}

	state, err := security.GenerateState(s.config.StateSecret, redirect, s.config.StateTTL)
	if err != nil {
		return "", err
	}
	return s.repo.Identity().AuthorizeURL(state), nil
}

func (s *sessionService) CompleteOAuth(ctx context.Context, code, state string) (*SessionResult, error) {
	claims, err := security.ParseState(state, s.config.StateSecret)
	if err != nil {
		return nil, ErrInvalidOAuthState
	}
	if strings.TrimSpace(code) == "" {
		return nil, ErrInvalidCredentials
	}

	token, err := s.repo.Identity().ExchangeCode(ctx, code)
	if err != nil {
		if errors.Is(err, repositories.ErrInvalidCredentials) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("%w: %v", ErrAuthenticationFailed, err)
	}

	return s.completeSignIn(ctx, token, claims.Redirect)
}

func (s *sessionService) completeSignIn(ctx context.Context, token *models.IdentityToken, redirect string) (*SessionResult, error) {
	result, err := s.Bootstrap(ctx, token.Identity)
	if err != nil {
		return nil, err
	}

	return &SessionResult{
		AccessToken: token.AccessToken,
		ExpiresAt:   token.ExpiresAt,
		User:        result.User,
		Destination: ResolveWithRedirect(result.User.RoutingState(), redirect, validator.IsSafeRedirect),
		Created:     result.Created,
	}, nil
}

// ===== ACCOUNT =====

func (s *sessionService) Me(ctx context.Context, userID string) (*models.SessionResponse, error) {
	user, err := s.repo.User().GetByID(ctx, userID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return &models.SessionResponse{
		User:        user,
		Destination: ResolveDestination(user.RoutingState()),
	}, nil
}

func (s *sessionService) ChangePassword(ctx context.Context, userID string, req *models.ChangePasswordRequest) (*models.SessionResponse, error) {
	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}

	if err := s.repo.Identity().SetPassword(ctx, userID, req.CurrentPassword, req.NewPassword); err != nil {
		if errors.Is(err, repositories.ErrInvalidCredentials) {
			return nil, ValidationErrors{*NewValidationError("current_password", "is incorrect", nil)}
		}
		return nil, fmt.Errorf("failed to change password: %w", err)
	}

	if err := s.repo.User().SetMustChangePassword(ctx, userID, false); err != nil {
		return nil, fmt.Errorf("failed to clear password change flag: %w", err)
	}

	s.logger.Info("Password changed", "user_id", userID)
	return s.Me(ctx, userID)
}

// ===== HELPERS =====

func (s *sessionService) publish(ctx context.Context, event events.Event) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.Publish(ctx, event); err != nil {
		s.logger.Warn("Failed to publish event", "event_type", event.Type, "error", err)
	}
}

func createProfile(ctx context.Context, repo repositories.Repository, user *models.User) error {
	switch user.Role {
	case models.RoleStudent:
		return repo.Profile().CreateStudentProfileIfNotExists(ctx, &models.StudentProfile{UserID: user.ID})
	case models.RoleContributor:
		return repo.Profile().CreateContributorProfileIfNotExists(ctx, &models.ContributorProfile{UserID: user.ID})
	}
	return nil
}

func displayName(identity *models.Identity) string {
	if name := strings.TrimSpace(identity.DisplayName); name != "" {
		return name
	}
	if name := strings.TrimSpace(identity.Name); name != "" {
		return name
	}
	local, _, _ := strings.Cut(identity.Email, "@")
	return local
}

// sleepContext waits for d or until ctx is done
func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
