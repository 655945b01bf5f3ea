package models

import (
	"time"

	"gorm.io/datatypes"
)

type ContentType string

const (
	ContentTypeNote      ContentType = "note"
	ContentTypeQuiz      ContentType = "quiz"
	ContentTypePastPaper ContentType = "past_paper"
)

// AllContentTypes lists the reviewable content types in display order
var AllContentTypes = []ContentType{ContentTypeNote, ContentTypeQuiz, ContentTypePastPaper}

func (t ContentType) IsValid() bool {
	switch t {
	case ContentTypeNote, ContentTypeQuiz, ContentTypePastPaper:
		return true
	}
	return false
}

// ParseContentType accepts the singular, plural and dashed spellings used in URLs
func ParseContentType(s string) (ContentType, bool) {
	switch s {
	case "note", "notes":
		return ContentTypeNote, true
	case "quiz", "quizzes":
		return ContentTypeQuiz, true
	case "past_paper", "past_papers", "past-paper", "past-papers":
		return ContentTypePastPaper, true
	}
	return "", false
}

type ContentStatus string

const (
	ContentStatusPending   ContentStatus = "pending"
	ContentStatusPublished ContentStatus = "published"
	ContentStatusRejected  ContentStatus = "rejected"
)

var AllContentStatuses = []ContentStatus{ContentStatusPending, ContentStatusPublished, ContentStatusRejected}

func (s ContentStatus) IsValid() bool {
	switch s {
	case ContentStatusPending, ContentStatusPublished, ContentStatusRejected:
		return true
	}
	return false
}

// ReviewFields are shared by every reviewable table
type ReviewFields struct {
	Status      ContentStatus `json:"status" gorm:"type:varchar(20);not null;default:pending;index"`
	Feedback    *string       `json:"feedback" gorm:"type:text"`
	ReviewedBy  *string       `json:"reviewed_by" gorm:"size:255"`
	ReviewedAt  *time.Time    `json:"reviewed_at"`
	PublishedAt *time.Time    `json:"published_at"`
}

type Note struct {
	ID        string  `json:"id" gorm:"primaryKey;size:36"`
	Title     string  `json:"title" gorm:"not null;size:200"`
	Subject   string  `json:"subject" gorm:"not null;size:100;index"`
	Level     *string `json:"level" gorm:"size:50"`
	Body      string  `json:"body" gorm:"type:text;not null"`
	CreatedBy string  `json:"created_by" gorm:"not null;index;size:255"`
	ReviewFields

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (Note) TableName() string {
	return "notes"
}

type Quiz struct {
	ID          string         `json:"id" gorm:"primaryKey;size:36"`
	Title       string         `json:"title" gorm:"not null;size:200"`
	Subject     string         `json:"subject" gorm:"not null;size:100;index"`
	Description *string        `json:"description" gorm:"type:text"`
	Questions   datatypes.JSON `json:"questions" gorm:"type:jsonb;not null"`
	CreatedBy   string         `json:"created_by" gorm:"not null;index;size:255"`
	ReviewFields

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (Quiz) TableName() string {
	return "quizzes"
}

type PastPaper struct {
	ID         string `json:"id" gorm:"primaryKey;size:36"`
	Title      string `json:"title" gorm:"not null;size:200"`
	Subject    string `json:"subject" gorm:"not null;size:100;index"`
	ExamBoard  string `json:"exam_board" gorm:"not null;size:100"`
	Year       int    `json:"year" gorm:"not null"`
	ObjectKey  string `json:"object_key" gorm:"not null;size:255"`
	UploadedBy string `json:"uploaded_by" gorm:"not null;index;size:255"`
	ReviewFields

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (PastPaper) TableName() string {
	return "past_papers"
}

// ContentItem is the type-agnostic projection used by review queues and
// contributor listings. Owner maps to created_by or uploaded_by.
type ContentItem struct {
	ID          string        `json:"id"`
	Type        ContentType   `json:"content_type" gorm:"-"`
	Title       string        `json:"title"`
	Subject     string        `json:"subject"`
	Owner       string        `json:"owner"`
	Status      ContentStatus `json:"status"`
	Feedback    *string       `json:"feedback"`
	ReviewedBy  *string       `json:"reviewed_by"`
	ReviewedAt  *time.Time    `json:"reviewed_at"`
	PublishedAt *time.Time    `json:"published_at"`
	CreatedAt   time.Time     `json:"created_at"`
}

// StatusCounts holds the number of items per review status
type StatusCounts struct {
	Pending   int64 `json:"pending"`
	Published int64 `json:"published"`
	Rejected  int64 `json:"rejected"`
}

func (c StatusCounts) Total() int64 {
	return c.Pending + c.Published + c.Rejected
}

// ContentFilters selects content items. An empty Type spans every content type.
type ContentFilters struct {
	Type        ContentType
	Status      *ContentStatus
	Owner       *string
	NewestFirst bool
	Limit       int
	Offset      int
}
