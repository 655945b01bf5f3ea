package models

import (
	"encoding/json"
	"time"
)

// ===== AUTH DTOs =====

type SignupRequest struct {
	Email           string `json:"email" validate:"required,email,max=255"`
	FullName        string `json:"full_name" validate:"required,min=1,max=100"`
	Password        string `json:"password" validate:"required,min=8,max=128"`
	ConfirmPassword string `json:"confirm_password" validate:"required,eqfield=Password"`
}

type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
	Redirect string `json:"redirect" validate:"omitempty,safe_redirect"`
}

type ChangePasswordRequest struct {
	CurrentPassword string `json:"current_password" validate:"required"`
	NewPassword     string `json:"new_password" validate:"required,min=8,max=128,nefield=CurrentPassword"`
	ConfirmPassword string `json:"confirm_password" validate:"required,eqfield=NewPassword"`
}

// SessionResponse is returned by every sign-in entry point
type SessionResponse struct {
	User        *User  `json:"user"`
	Destination string `json:"destination"`
	Created     bool   `json:"created"`
}

// ===== ONBOARDING DTOs =====

type OnboardingStepRequest struct {
	Country   *string  `json:"country" validate:"omitempty,max=100"`
	Region    *string  `json:"region" validate:"omitempty,max=100"`
	Location  *string  `json:"location" validate:"omitempty,max=200"`
	School    *string  `json:"school" validate:"omitempty,max=200"`
	ExamBoard *string  `json:"exam_board" validate:"omitempty,max=100"`
	Subjects  []string `json:"subjects" validate:"omitempty,max=20,dive,required,max=100"`
	Goals     []string `json:"goals" validate:"omitempty,max=10,dive,required,max=200"`
}

type OnboardingStateResponse struct {
	Profile     *StudentProfile `json:"profile"`
	Step        int             `json:"step"`
	Completed   bool            `json:"completed"`
	Destination string          `json:"destination"`
}

// ===== CONTENT DTOs =====

type NoteCreateRequest struct {
	Title   string  `json:"title" validate:"required,min=1,max=200"`
	Subject string  `json:"subject" validate:"required,max=100"`
	Level   *string `json:"level" validate:"omitempty,max=50"`
	Body    string  `json:"body" validate:"required"`
}

type QuizCreateRequest struct {
	Title       string          `json:"title" validate:"required,min=1,max=200"`
	Subject     string          `json:"subject" validate:"required,max=100"`
	Description *string         `json:"description" validate:"omitempty,max=1000"`
	Questions   json.RawMessage `json:"questions" validate:"required"`
}

type PastPaperCreateRequest struct {
	Title     string `json:"title" validate:"required,min=1,max=200"`
	Subject   string `json:"subject" validate:"required,max=100"`
	ExamBoard string `json:"exam_board" validate:"required,max=100"`
	Year      int    `json:"year" validate:"required,min=1950,max=2100"`
	ObjectKey string `json:"object_key" validate:"required,max=255"`
}

type UploadURLRequest struct {
	FileName    string `json:"file_name" validate:"required,max=255"`
	ContentType string `json:"content_type" validate:"omitempty,max=100"`
}

type UploadURLResponse struct {
	ObjectKey string    `json:"object_key"`
	UploadURL string    `json:"upload_url"`
	ExpiresAt time.Time `json:"expires_at"`
}

// ContributorStats groups status counts per content type
type ContributorStats struct {
	Notes      StatusCounts `json:"notes"`
	Quizzes    StatusCounts `json:"quizzes"`
	PastPapers StatusCounts `json:"past_papers"`
	Total      StatusCounts `json:"total"`
}

// ===== REVIEW DTOs =====

type ReviewDecisionRequest struct {
	ContentType ContentType `json:"contentType" validate:"required,content_type"`
	ContentID   string      `json:"contentId" validate:"required,max=36"`
	Feedback    string      `json:"feedback" validate:"max=2000"`
}

type ReviewSummary struct {
	Notes      int64     `json:"notes"`
	Quizzes    int64     `json:"quizzes"`
	PastPapers int64     `json:"past_papers"`
	Total      int64     `json:"total"`
	CachedAt   time.Time `json:"cached_at"`
}

func (s *ReviewSummary) Set(t ContentType, n int64) {
	switch t {
	case ContentTypeNote:
		s.Notes = n
	case ContentTypeQuiz:
		s.Quizzes = n
	case ContentTypePastPaper:
		s.PastPapers = n
	}
	s.Total = s.Notes + s.Quizzes + s.PastPapers
}

// ===== ADMIN DTOs =====

type InviteUserRequest struct {
	Email    string   `json:"email" validate:"required,email,max=255"`
	FullName string   `json:"full_name" validate:"required,min=1,max=100"`
	Role     UserRole `json:"role" validate:"required,user_role"`
}

type InviteUserResponse struct {
	User              *User  `json:"user"`
	TemporaryPassword string `json:"temporary_password"`
}

// ===== LIST RESPONSES =====

type ContentListResponse struct {
	Items []ContentItem `json:"items"`
	Total int64         `json:"total"`
	Page  int           `json:"page"`
	Size  int           `json:"size"`
}

// ===== ERROR RESPONSES =====

type ValidationErrorResponse struct {
	Field   string `json:"field"`
	Message string `json:"message"`
	Code    string `json:"code"`
}

type ErrorResponse struct {
	Message          string                    `json:"message"`
	Details          interface{}               `json:"details,omitempty"`
	ValidationErrors []ValidationErrorResponse `json:"validation_errors,omitempty"`
}

type SuccessResponse struct {
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}
