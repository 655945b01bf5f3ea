package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/stemhub-africa/stemhub-service/internal/models"
	"github.com/stemhub-africa/stemhub-service/internal/services"
	"github.com/stemhub-africa/stemhub-service/internal/utils"
)

type ContributorHandler struct {
	BaseHandler
	contentService services.ContentService
}

func NewContributorHandler(contentService services.ContentService, logger utils.Logger) *ContributorHandler {
	return &ContributorHandler{
		BaseHandler:    NewBaseHandler(logger),
		contentService: contentService,
	}
}

// CreateNote submits a note for review
// @Summary Submit note
// @Tags contributor
// @Accept json
// @Produce json
// @Param body body models.NoteCreateRequest true "Note"
// @Success 201 {object} models.Note
// @Failure 400 {object} ErrorResponse
// @Router /contributor/notes [post]
func (h *ContributorHandler) CreateNote(c *gin.Context) {
	user, ok := h.currentUser(c)
	if !ok {
		return
	}

	var req models.NoteCreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.RespondWithError(c, http.StatusBadRequest, "Invalid request payload", err)
		return
	}

	note, err := h.contentService.CreateNote(c.Request.Context(), user, &req)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, note)
}

// CreateQuiz submits a quiz for review
// @Summary Submit quiz
// @Tags contributor
// @Accept json
// @Produce json
// @Param body body models.QuizCreateRequest true "Quiz"
// @Success 201 {object} models.Quiz
// @Failure 400 {object} ErrorResponse
// @Router /contributor/quizzes [post]
func (h *ContributorHandler) CreateQuiz(c *gin.Context) {
	user, ok := h.currentUser(c)
	if !ok {
		return
	}

	var req models.QuizCreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.RespondWithError(c, http.StatusBadRequest, "Invalid request payload", err)
		return
	}

	quiz, err := h.contentService.CreateQuiz(c.Request.Context(), user, &req)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, quiz)
}

// CreatePastPaper submits an uploaded past paper for review
// @Summary Submit past paper
// @Tags contributor
// @Accept json
// @Produce json
// @Param body body models.PastPaperCreateRequest true "Past paper"
// @Success 201 {object} models.PastPaper
// @Failure 400 {object} ErrorResponse
// @Router /contributor/past-papers [post]
func (h *ContributorHandler) CreatePastPaper(c *gin.Context) {
	user, ok := h.currentUser(c)
	if !ok {
		return
	}

	var req models.PastPaperCreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.RespondWithError(c, http.StatusBadRequest, "Invalid request payload", err)
		return
	}

	paper, err := h.contentService.CreatePastPaper(c.Request.Context(), user, &req)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, paper)
}

// UploadURL issues a presigned PUT URL for a past paper file
// @Summary Past paper upload URL
// @Tags contributor
// @Accept json
// @Produce json
// @Param body body models.UploadURLRequest true "File"
// @Success 200 {object} models.UploadURLResponse
// @Failure 422 {object} ErrorResponse
// @Router /contributor/past-papers/upload-url [post]
func (h *ContributorHandler) UploadURL(c *gin.Context) {
	user, ok := h.currentUser(c)
	if !ok {
		return
	}

	var req models.UploadURLRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.RespondWithError(c, http.StatusBadRequest, "Invalid request payload", err)
		return
	}

	resp, err := h.contentService.UploadURL(c.Request.Context(), user, &req)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// ListOwn lists the caller's submissions with review feedback
// @Summary My content
// @Tags contributor
// @Produce json
// @Param content_type query string false "note, quiz or past_paper"
// @Param status query string false "pending, published or rejected"
// @Param page query int false "Page number (default: 1)"
// @Param size query int false "Page size (default: 20, max: 100)"
// @Success 200 {object} models.ContentListResponse
// @Router /contributor/content [get]
func (h *ContributorHandler) ListOwn(c *gin.Context) {
	user, ok := h.currentUser(c)
	if !ok {
		return
	}

	var contentType *models.ContentType
	if raw := c.Query("content_type"); raw != "" {
		t := models.ContentType(raw)
		contentType = &t
	}
	var status *models.ContentStatus
	if raw := c.Query("status"); raw != "" {
		s := models.ContentStatus(raw)
		status = &s
	}

	resp, err := h.contentService.ListOwn(c.Request.Context(), user, contentType, status, h.parseIntQuery(c, "page", 1), h.parseIntQuery(c, "size", 20))
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Stats returns the caller's counts by status per type
// @Summary My content stats
// @Tags contributor
// @Produce json
// @Success 200 {object} models.ContributorStats
// @Router /contributor/stats [get]
func (h *ContributorHandler) Stats(c *gin.Context) {
	user, ok := h.currentUser(c)
	if !ok {
		return
	}

	stats, err := h.contentService.Stats(c.Request.Context(), user)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, stats)
}
