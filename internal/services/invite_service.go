package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/stemhub-africa/stemhub-service/internal/events"
	"github.com/stemhub-africa/stemhub-service/internal/models"
	"github.com/stemhub-africa/stemhub-service/internal/repositories"
	"github.com/stemhub-africa/stemhub-service/internal/security"
	"github.com/stemhub-africa/stemhub-service/internal/validator"
)

const temporaryPasswordLength = 16

type inviteService struct {
	repo      repositories.Repository
	publisher events.EventPublisher
	logger    *slog.Logger
	validator *validator.Validator
}

func NewInviteService(repo repositories.Repository, publisher events.EventPublisher, logger *slog.Logger, validator *validator.Validator) InviteService {
	return &inviteService{
		repo:      repo,
		publisher: publisher,
		logger:    logger,
		validator: validator,
	}
}

// Invite creates an identity and a platform user with a one-time password.
// Each external step that succeeded is undone when a later one fails.
func (s *inviteService) Invite(ctx context.Context, actor *models.User, req *models.InviteUserRequest) (*models.InviteUserResponse, error) {
	if err := requireAdmin(actor, "", "user", "invite"); err != nil {
		return nil, err
	}
	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}

	email := strings.ToLower(strings.TrimSpace(req.Email))
	fullName := strings.TrimSpace(req.FullName)

	existing, err := s.repo.User().GetByEmail(ctx, email)
	switch {
	case err == nil && existing.Role == req.Role:
		return nil, ValidationErrors{*NewValidationError("email", fmt.Sprintf("user already has role %s", existing.Role), email)}
	case err == nil:
		s.logger.Info("Invite refused role change", "user_id", existing.ID, "current_role", existing.Role, "requested_role", req.Role)
		return nil, ErrRoleChangeRefused
	case !repositories.IsNotFoundError(err):
		return nil, fmt.Errorf("failed to check existing user: %w", err)
	}

	if _, err := s.repo.Identity().GetByEmail(ctx, email); err == nil {
		return nil, ErrIdentityExists
	} else if !repositories.IsNotFoundError(err) {
		return nil, fmt.Errorf("failed to check existing identity: %w", err)
	}

	password, err := security.GenerateTemporaryPassword(temporaryPasswordLength)
	if err != nil {
		return nil, err
	}

	identity, err := s.repo.Identity().Create(ctx, &models.Identity{Email: email, DisplayName: fullName}, password)
	if err != nil {
		if errors.Is(err, repositories.ErrDuplicate) {
			return nil, ErrIdentityExists
		}
		return nil, fmt.Errorf("failed to create identity: %w", err)
	}

	user := &models.User{
		ID:                  identity.ID,
		Email:               email,
		FullName:            fullName,
		Role:                req.Role,
		OnboardingCompleted: req.Role != models.RoleStudent,
		MustChangePassword:  true,
	}
	if err := s.repo.User().Create(ctx, user); err != nil {
		s.compensate(ctx, identity.ID, "")
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	if err := createProfile(ctx, s.repo, user); err != nil {
		s.compensate(ctx, identity.ID, user.ID)
		return nil, fmt.Errorf("failed to create profile: %w", err)
	}

	s.logger.Info("User invited", "user_id", user.ID, "role", user.Role, "invited_by", actor.ID)
	if s.publisher != nil {
		event := events.NewEvent(events.TypeUserInvited, events.UserInvitedEvent{
			UserID:    user.ID,
			Email:     user.Email,
			Role:      string(user.Role),
			InvitedBy: actor.ID,
		})
		if err := s.publisher.Publish(ctx, event); err != nil {
			s.logger.Warn("Failed to publish event", "event_type", event.Type, "error", err)
		}
	}

	return &models.InviteUserResponse{User: user, TemporaryPassword: password}, nil
}

// compensate undoes the steps of a failed invite. Failures are logged only so
// the caller still sees the original error.
func (s *inviteService) compensate(ctx context.Context, identityID, userID string) {
	if userID != "" {
		if err := s.repo.User().Delete(ctx, userID); err != nil && !repositories.IsNotFoundError(err) {
			s.logger.Error("Invite compensation: failed to delete user", "user_id", userID, "error", err)
		}
	}
	if err := s.repo.Identity().Delete(ctx, identityID); err != nil && !repositories.IsNotFoundError(err) {
		s.logger.Error("Invite compensation: failed to delete identity", "identity_id", identityID, "error", err)
	}
}
