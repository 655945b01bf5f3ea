package models

import (
	"time"

	"gorm.io/datatypes"
)

// StudentProfile holds the answers collected by the onboarding wizard
type StudentProfile struct {
	UserID    string         `json:"user_id" gorm:"primaryKey;size:255"`
	Country   string         `json:"country" gorm:"size:100"`
	Region    string         `json:"region" gorm:"size:100"`
	Location  string         `json:"location" gorm:"size:200"`
	School    string         `json:"school" gorm:"size:200"`
	ExamBoard string         `json:"exam_board" gorm:"size:100"`
	Subjects  datatypes.JSON `json:"subjects" gorm:"type:jsonb"`
	Goals     datatypes.JSON `json:"goals" gorm:"type:jsonb"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (StudentProfile) TableName() string {
	return "student_profiles"
}

type ContributorProfile struct {
	UserID    string         `json:"user_id" gorm:"primaryKey;size:255"`
	Bio       *string        `json:"bio" gorm:"size:1000"`
	Expertise datatypes.JSON `json:"expertise" gorm:"type:jsonb"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (ContributorProfile) TableName() string {
	return "contributor_profiles"
}
