package repositories

import (
	"time"

	"github.com/stemhub-africa/stemhub-service/internal/models"
)

// ===== SHARED FILTER STRUCTS =====

type UserFilters struct {
	Role   *models.UserRole `json:"role"`
	Query  string           `json:"query"`
	Limit  int              `json:"limit"`
	Offset int              `json:"offset"`
}

// ===== SHARED HELPER STRUCTS =====

// ReviewUpdate carries the columns written by a review decision
type ReviewUpdate struct {
	Status      models.ContentStatus
	Feedback    *string
	ReviewedBy  string
	ReviewedAt  time.Time
	PublishedAt *time.Time
}
