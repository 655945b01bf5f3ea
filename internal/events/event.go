package events

import (
	"context"
	"time"

	"github.com/google/uuid"
)

const (
	EventSource  = "stemhub-service"
	EventVersion = "1.0"
)

// Event types
const (
	TypeContentSubmitted = "content.submitted"
	TypeContentReviewed  = "content.reviewed"
	TypeReviewBacklog    = "review.backlog"
	TypeUserProvisioned  = "user.provisioned"
	TypeUserInvited      = "user.invited"
)

// Event is the envelope published for every domain event
type Event struct {
	ID        string      `json:"id"`
	Type      string      `json:"type"`
	Source    string      `json:"source"`
	Version   string      `json:"version"`
	Timestamp time.Time   `json:"timestamp"`
	Data      interface{} `json:"data"`
}

func NewEvent(eventType string, data interface{}) Event {
	return Event{
		ID:        uuid.New().String(),
		Type:      eventType,
		Source:    EventSource,
		Version:   EventVersion,
		Timestamp: time.Now().UTC(),
		Data:      data,
	}
}

// EventPublisher publishes domain events. Publishing is best effort; callers
// log failures instead of failing the operation that produced the event.
type EventPublisher interface {
	Publish(ctx context.Context, event Event) error
	Close() error
}

type ContentSubmittedEvent struct {
	ContentType string `json:"content_type"`
	ContentID   string `json:"content_id"`
	OwnerID     string `json:"owner_id"`
	Title       string `json:"title"`
}

type ContentReviewedEvent struct {
	ContentType string    `json:"content_type"`
	ContentID   string    `json:"content_id"`
	OwnerID     string    `json:"owner_id"`
	Status      string    `json:"status"`
	Feedback    *string   `json:"feedback,omitempty"`
	ReviewedBy  string    `json:"reviewed_by"`
	ReviewedAt  time.Time `json:"reviewed_at"`
}

type ReviewBacklogEvent struct {
	Notes      int64 `json:"notes"`
	Quizzes    int64 `json:"quizzes"`
	PastPapers int64 `json:"past_papers"`
	Total      int64 `json:"total"`
}

type UserProvisionedEvent struct {
	UserID string `json:"user_id"`
	Email  string `json:"email"`
	Role   string `json:"role"`
}

type UserInvitedEvent struct {
	UserID    string `json:"user_id"`
	Email     string `json:"email"`
	Role      string `json:"role"`
	InvitedBy string `json:"invited_by"`
}
