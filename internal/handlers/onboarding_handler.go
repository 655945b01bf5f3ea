package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/stemhub-africa/stemhub-service/internal/models"
	"github.com/stemhub-africa/stemhub-service/internal/services"
	"github.com/stemhub-africa/stemhub-service/internal/utils"
)

type OnboardingHandler struct {
	BaseHandler
	onboardingService services.OnboardingService
}

func NewOnboardingHandler(onboardingService services.OnboardingService, logger utils.Logger) *OnboardingHandler {
	return &OnboardingHandler{
		BaseHandler:       NewBaseHandler(logger),
		onboardingService: onboardingService,
	}
}

// GetState returns the saved answers and the current wizard page
// @Summary Onboarding state
// @Tags onboarding
// @Produce json
// @Success 200 {object} models.OnboardingStateResponse
// @Router /onboarding [get]
func (h *OnboardingHandler) GetState(c *gin.Context) {
	user, ok := h.currentUser(c)
	if !ok {
		return
	}

	state, err := h.onboardingService.GetState(c.Request.Context(), user)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, state)
}

// SaveStep stores one wizard page
// @Summary Save onboarding step
// @Tags onboarding
// @Accept json
// @Produce json
// @Param step path string true "location, school, exam-board, subjects or goals"
// @Param body body models.OnboardingStepRequest true "Answers"
// @Success 200 {object} models.OnboardingStateResponse
// @Failure 400 {object} ErrorResponse
// @Failure 403 {object} ErrorResponse
// @Failure 422 {object} ErrorResponse
// @Router /onboarding/{step} [post]
func (h *OnboardingHandler) SaveStep(c *gin.Context) {
	user, ok := h.currentUser(c)
	if !ok {
		return
	}

	var req models.OnboardingStepRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.RespondWithError(c, http.StatusBadRequest, "Invalid request payload", err)
		return
	}

	step := c.Param("step")
	h.LogRequest(c, "Saving onboarding step", "step", step)

	state, err := h.onboardingService.SaveStep(c.Request.Context(), user, step, &req)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, state)
}
