package models

import (
	"time"
)

type UserRole string

const (
	RoleStudent     UserRole = "student"
	RoleContributor UserRole = "contributor"
	RoleAdmin       UserRole = "admin"
	RoleTeacher     UserRole = "teacher"
	RoleParent      UserRole = "parent"
)

// AllRoles lists every role a user may hold
var AllRoles = []UserRole{RoleStudent, RoleContributor, RoleAdmin, RoleTeacher, RoleParent}

func (r UserRole) IsValid() bool {
	for _, role := range AllRoles {
		if r == role {
			return true
		}
	}
	return false
}

// MaxOnboardingStep is the last checkpoint of the student onboarding wizard
const MaxOnboardingStep = 5

type User struct {
	ID       string   `json:"id" gorm:"primaryKey;size:255"`
	Email    string   `json:"email" gorm:"uniqueIndex;not null;size:255"`
	FullName string   `json:"full_name" gorm:"not null;size:100"`
	Role     UserRole `json:"role" gorm:"type:varchar(20);not null;default:student;index"`

	// Onboarding
	OnboardingCompleted bool `json:"onboarding_completed" gorm:"not null;default:false"`
	OnboardingStep      int  `json:"onboarding_step" gorm:"not null;default:0"`
	MustChangePassword  bool `json:"must_change_password" gorm:"not null;default:false"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (User) TableName() string {
	return "users"
}

// RoutingState is the subset of a user that decides where a sign-in lands
type RoutingState struct {
	Role                UserRole
	OnboardingCompleted bool
	OnboardingStep      int
	MustChangePassword  bool
}

func (u *User) RoutingState() RoutingState {
	return RoutingState{
		Role:                u.Role,
		OnboardingCompleted: u.OnboardingCompleted,
		OnboardingStep:      u.OnboardingStep,
		MustChangePassword:  u.MustChangePassword,
	}
}

// Identity is an account record held by the external identity provider
type Identity struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Email       string `json:"email"`
	DisplayName string `json:"display_name"`
}

// IdentityToken is the result of a successful sign-in at the identity provider
type IdentityToken struct {
	AccessToken string    `json:"access_token"`
	ExpiresAt   time.Time `json:"expires_at"`
	Identity    *Identity `json:"identity"`
}
