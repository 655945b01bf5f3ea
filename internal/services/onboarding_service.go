package services

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"gorm.io/datatypes"

	"github.com/stemhub-africa/stemhub-service/internal/cache"
	"github.com/stemhub-africa/stemhub-service/internal/models"
	"github.com/stemhub-africa/stemhub-service/internal/repositories"
	"github.com/stemhub-africa/stemhub-service/internal/validator"
)

type onboardingService struct {
	repo         repositories.Repository
	cacheManager *cache.CacheManager
	logger       *slog.Logger
	validator    *validator.Validator
}

func NewOnboardingService(repo repositories.Repository, cacheManager *cache.CacheManager, logger *slog.Logger, validator *validator.Validator) OnboardingService {
	return &onboardingService{
		repo:         repo,
		cacheManager: cacheManager,
		logger:       logger,
		validator:    validator,
	}
}

func (s *onboardingService) GetState(ctx context.Context, user *models.User) (*models.OnboardingStateResponse, error) {
	if user == nil {
		return nil, NewPermissionError("", "", "onboarding", "read", "not authenticated")
	}

	var profile *models.StudentProfile
	if user.Role == models.RoleStudent {
		p, err := s.repo.Profile().GetStudentProfile(ctx, user.ID)
		switch {
		case err == nil:
			profile = p
		case repositories.IsNotFoundError(err):
			profile = &models.StudentProfile{UserID: user.ID}
		default:
			return nil, fmt.Errorf("failed to load student profile: %w", err)
		}
	}

	return &models.OnboardingStateResponse{
		Profile:     profile,
		Step:        user.OnboardingStep,
		Completed:   user.OnboardingCompleted,
		Destination: ResolveDestination(user.RoutingState()),
	}, nil
}

// SaveStep stores one wizard page and advances the checkpoint. The checkpoint
// never moves backwards; saving goals completes onboarding.
func (s *onboardingService) SaveStep(ctx context.Context, user *models.User, step string, req *models.OnboardingStepRequest) (*models.OnboardingStateResponse, error) {
	if user == nil {
		return nil, NewPermissionError("", "", "onboarding", "update", "not authenticated")
	}
	if user.Role != models.RoleStudent {
		return nil, NewPermissionError(user.ID, user.ID, "onboarding", "update", "only students onboard")
	}
	if user.OnboardingCompleted {
		return nil, NewBusinessRuleError("onboarding_completed", "onboarding is already completed")
	}
	if errs := s.validator.GetBusinessValidator().ValidateOnboardingStep(step, req); len(errs) > 0 {
		return nil, errs
	}

	next := validator.OnboardingSteps[step]
	completed := next > models.MaxOnboardingStep
	newStep := max(user.OnboardingStep, min(next, models.MaxOnboardingStep))

	var profile *models.StudentProfile
	err := s.repo.WithTransaction(ctx, func(tx repositories.Repository) error {
		existing, err := tx.Profile().GetStudentProfile(ctx, user.ID)
		if err != nil {
			if !repositories.IsNotFoundError(err) {
				return err
			}
			existing = &models.StudentProfile{UserID: user.ID}
		}

		if err := applyStep(existing, step, req); err != nil {
			return err
		}
		if err := tx.Profile().UpsertStudentProfile(ctx, existing); err != nil {
			return err
		}
		profile = existing

		return tx.User().UpdateOnboarding(ctx, user.ID, newStep, completed)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to save onboarding step %s: %w", step, err)
	}
	cache.InvalidateUserCache(ctx, s.cacheManager, user.ID)

	updated := *user
	updated.OnboardingStep = newStep
	updated.OnboardingCompleted = completed

	s.logger.Info("Onboarding step saved", "user_id", user.ID, "step", step, "checkpoint", newStep, "completed", completed)

	return &models.OnboardingStateResponse{
		Profile:     profile,
		Step:        newStep,
		Completed:   completed,
		Destination: ResolveDestination(updated.RoutingState()),
	}, nil
}

func applyStep(profile *models.StudentProfile, step string, req *models.OnboardingStepRequest) error {
	switch step {
	case "location":
		profile.Country = trimmed(req.Country)
		profile.Region = trimmed(req.Region)
		profile.Location = trimmed(req.Location)
	case "school":
		profile.School = trimmed(req.School)
	case "exam-board":
		profile.ExamBoard = trimmed(req.ExamBoard)
	case "subjects":
		data, err := json.Marshal(req.Subjects)
		if err != nil {
			return err
		}
		profile.Subjects = datatypes.JSON(data)
	case "goals":
		data, err := json.Marshal(req.Goals)
		if err != nil {
			return err
		}
		profile.Goals = datatypes.JSON(data)
	}
	return nil
}

func trimmed(s *string) string {
	if s == nil {
		return ""
	}
	return strings.TrimSpace(*s)
}
