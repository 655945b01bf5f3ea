package services

import (
	"github.com/stemhub-africa/stemhub-service/internal/models"
)

const (
	PathChangePassword = "/change-password"
	PathAdminHome      = "/admin"
	PathContributor    = "/contributor"
	PathDashboard      = "/dashboard"
	PathLearn          = "/learn"
)

// onboardingPaths is indexed by the stored onboarding checkpoint. Steps 0 and 1
// both land on the first page.
var onboardingPaths = [...]string{
	"/onboarding/location",
	"/onboarding/location",
	"/onboarding/school",
	"/onboarding/exam-board",
	"/onboarding/subjects",
	"/onboarding/goals",
}

var roleHomes = map[models.UserRole]string{
	models.RoleAdmin:       PathAdminHome,
	models.RoleContributor: PathContributor,
	models.RoleTeacher:     PathDashboard,
	models.RoleParent:      PathDashboard,
	models.RoleStudent:     PathLearn,
}

// RoleHome returns the landing page of a role. Unknown roles fall back to the student home.
func RoleHome(role models.UserRole) string {
	if home, ok := roleHomes[role]; ok {
		return home
	}
	return PathLearn
}

// OnboardingPath returns the wizard page for a checkpoint, clamping anything out of range to the first page
func OnboardingPath(step int) string {
	if step < 0 || step >= len(onboardingPaths) {
		return onboardingPaths[0]
	}
	return onboardingPaths[step]
}

// ResolveDestination picks the single page a signed-in user is sent to.
// It is total and has no side effects.
func ResolveDestination(state models.RoutingState) string {
	if state.MustChangePassword {
		return PathChangePassword
	}
	if state.Role == models.RoleStudent && !state.OnboardingCompleted {
		return OnboardingPath(state.OnboardingStep)
	}
	return RoleHome(state.Role)
}

// ResolveWithRedirect honours a requested post-login page only when the user
// would otherwise land on their role home
func ResolveWithRedirect(state models.RoutingState, redirect string, safe func(string) bool) string {
	destination := ResolveDestination(state)
	if redirect == "" || !safe(redirect) {
		return destination
	}
	if destination != RoleHome(state.Role) {
		return destination
	}
	return redirect
}
