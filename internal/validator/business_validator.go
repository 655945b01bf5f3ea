package validator

import (
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/stemhub-africa/stemhub-service/internal/models"
)

// OnboardingSteps maps each wizard step name to the checkpoint it records once saved
var OnboardingSteps = map[string]int{
	"location":   2,
	"school":     3,
	"exam-board": 4,
	"subjects":   5,
	"goals":      models.MaxOnboardingStep + 1,
}

// BusinessValidator handles business rule validation
type BusinessValidator struct {
	validate *validator.Validate
}

// NewBusinessValidator creates a new business validator
func NewBusinessValidator() *BusinessValidator {
	validate := validator.New()

	bv := &BusinessValidator{validate: validate}
	bv.registerBusinessRules()

	return bv
}

// Validate validates business rules for any struct
func (bv *BusinessValidator) Validate(s interface{}) ValidationErrors {
	err := bv.validate.Struct(s)
	if err != nil {
		return ToValidationErrors(err)
	}
	return nil
}

// ValidateReviewTransition checks that a content item may move from current to next
func (bv *BusinessValidator) ValidateReviewTransition(current, next models.ContentStatus) ValidationErrors {
	allowedTransitions := map[models.ContentStatus][]models.ContentStatus{
		models.ContentStatusPending:   {models.ContentStatusPublished, models.ContentStatusRejected},
		models.ContentStatusPublished: {},
		models.ContentStatusRejected:  {},
	}

	for _, allowed := range allowedTransitions[current] {
		if next == allowed {
			return nil
		}
	}

	return ValidationErrors{{
		Field:   "status",
		Message: fmt.Sprintf("cannot transition from %s to %s", current, next),
		Value:   next,
		Rule:    "status_transition",
	}}
}

// ValidateRejectFeedback requires non-blank feedback for a rejection
func (bv *BusinessValidator) ValidateRejectFeedback(feedback string) ValidationErrors {
	if strings.TrimSpace(feedback) == "" {
		return ValidationErrors{{
			Field:   "feedback",
			Message: "is required when rejecting content",
			Rule:    "required",
		}}
	}
	return nil
}

// ValidateOnboardingStep checks the payload carries the fields its step collects
func (bv *BusinessValidator) ValidateOnboardingStep(step string, req *models.OnboardingStepRequest) ValidationErrors {
	errors := bv.Validate(req)

	if _, ok := OnboardingSteps[step]; !ok {
		return append(errors, ValidationError{
			Field:   "step",
			Message: "is not a known onboarding step",
			Value:   step,
			Rule:    "onboarding_step",
		})
	}

	missing := func(field string) {
		errors = append(errors, ValidationError{Field: field, Message: "is required", Rule: "required"})
	}

	switch step {
	case "location":
		if isBlank(req.Country) {
			missing("country")
		}
	case "school":
		if isBlank(req.School) {
			missing("school")
		}
	case "exam-board":
		if isBlank(req.ExamBoard) {
			missing("exam_board")
		}
	case "subjects":
		if len(req.Subjects) == 0 {
			missing("subjects")
		}
	case "goals":
		if len(req.Goals) == 0 {
			missing("goals")
		}
	}

	return errors
}

// registerBusinessRules registers custom business rule validators
func (bv *BusinessValidator) registerBusinessRules() {
	bv.validate.RegisterValidation("user_role", func(fl validator.FieldLevel) bool {
		return models.UserRole(fl.Field().String()).IsValid()
	})

	bv.validate.RegisterValidation("content_type", func(fl validator.FieldLevel) bool {
		_, ok := models.ParseContentType(fl.Field().String())
		return ok
	})

	bv.validate.RegisterValidation("onboarding_step", func(fl validator.FieldLevel) bool {
		_, ok := OnboardingSteps[fl.Field().String()]
		return ok
	})

	bv.validate.RegisterValidation("safe_redirect", func(fl validator.FieldLevel) bool {
		return IsSafeRedirect(fl.Field().String())
	})
}

// IsSafeRedirect reports whether path is a same-site relative path
func IsSafeRedirect(path string) bool {
	if path == "" || !strings.HasPrefix(path, "/") {
		return false
	}
	// protocol-relative or backslash tricks
	if strings.HasPrefix(path, "//") || strings.HasPrefix(path, "/\\") || strings.Contains(path, "\\") {
		return false
	}
	return !strings.ContainsAny(path, "\r\n")
}

func isBlank(s *string) bool {
	return s == nil || strings.TrimSpace(*s) == ""
}
