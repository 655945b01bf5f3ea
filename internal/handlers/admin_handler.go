package handlers

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/stemhub-africa/stemhub-service/internal/models"
	"github.com/stemhub-africa/stemhub-service/internal/services"
	"github.com/stemhub-africa/stemhub-service/internal/utils"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

type AdminHandler struct {
	BaseHandler
	reviewService services.ReviewService
	inviteService services.InviteService
}

func NewAdminHandler(reviewService services.ReviewService, inviteService services.InviteService, logger utils.Logger) *AdminHandler {
	return &AdminHandler{
		BaseHandler:   NewBaseHandler(logger),
		reviewService: reviewService,
		inviteService: inviteService,
	}
}

// Approve publishes a pending content item
// @Summary Approve content
// @Tags admin
// @Accept json
// @Produce json
// @Param body body models.ReviewDecisionRequest true "Content reference"
// @Success 200 {object} models.ContentItem
// @Failure 400 {object} ErrorResponse
// @Failure 403 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Failure 409 {object} ErrorResponse
// @Router /admin/review/approve [post]
func (h *AdminHandler) Approve(c *gin.Context) {
	user, ok := h.currentUser(c)
	if !ok {
		return
	}

	var req models.ReviewDecisionRequest
	if !h.bindDecision(c, &req) {
		return
	}

	h.LogRequest(c, "Approving content", "content_type", req.ContentType, "content_id", req.ContentID)

	item, err := h.reviewService.Approve(c.Request.Context(), user, req.ContentType, req.ContentID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, item)
}

// Reject rejects a pending content item with feedback for its owner
// @Summary Reject content
// @Tags admin
// @Accept json
// @Produce json
// @Param body body models.ReviewDecisionRequest true "Content reference and feedback"
// @Success 200 {object} models.ContentItem
// @Failure 400 {object} ErrorResponse
// @Failure 403 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Failure 409 {object} ErrorResponse
// @Router /admin/review/reject [post]
func (h *AdminHandler) Reject(c *gin.Context) {
	user, ok := h.currentUser(c)
	if !ok {
		return
	}

	var req models.ReviewDecisionRequest
	if !h.bindDecision(c, &req) {
		return
	}

	h.LogRequest(c, "Rejecting content", "content_type", req.ContentType, "content_id", req.ContentID)

	item, err := h.reviewService.Reject(c.Request.Context(), user, req.ContentType, req.ContentID, req.Feedback)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, item)
}

func (h *AdminHandler) bindDecision(c *gin.Context, req *models.ReviewDecisionRequest) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		h.RespondWithError(c, http.StatusBadRequest, "Invalid request payload", err)
		return false
	}
	if req.ContentID == "" || req.ContentType == "" {
		c.JSON(http.StatusBadRequest, ErrorResponse{Message: "contentType and contentId are required"})
		return false
	}
	return true
}

// ListQueue lists pending items of one type, oldest first
// @Summary Review queue
// @Tags admin
// @Produce json
// @Param content_type path string true "note, quiz or past_paper"
// @Param page query int false "Page number (default: 1)"
// @Param size query int false "Page size (default: 20, max: 100)"
// @Success 200 {object} models.ContentListResponse
// @Router /admin/review/{content_type} [get]
func (h *AdminHandler) ListQueue(c *gin.Context) {
	user, ok := h.currentUser(c)
	if !ok {
		return
	}
	contentType, ok := h.parseContentTypeParam(c, "content_type")
	if !ok {
		return
	}

	resp, err := h.reviewService.ListQueue(c.Request.Context(), user, contentType, h.parseIntQuery(c, "page", 1), h.parseIntQuery(c, "size", 20))
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Summary returns pending counts per content type
// @Summary Review summary
// @Tags admin
// @Produce json
// @Success 200 {object} models.ReviewSummary
// @Router /admin/review/summary [get]
func (h *AdminHandler) Summary(c *gin.Context) {
	user, ok := h.currentUser(c)
	if !ok {
		return
	}

	summary, err := h.reviewService.Summary(c.Request.Context(), user)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, summary)
}

// ExportQueue downloads the pending queue of one type as a spreadsheet
// @Summary Export review queue
// @Tags admin
// @Produce application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Param content_type path string true "note, quiz or past_paper"
// @Success 200 {file} file
// @Router /admin/review/{content_type}/export [get]
func (h *AdminHandler) ExportQueue(c *gin.Context) {
	user, ok := h.currentUser(c)
	if !ok {
		return
	}
	contentType, ok := h.parseContentTypeParam(c, "content_type")
	if !ok {
		return
	}

	h.LogRequest(c, "Exporting review queue", "content_type", contentType)

	data, err := h.reviewService.ExportQueue(c.Request.Context(), user, contentType)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	filename := fmt.Sprintf("pending-%s-%s.xlsx", contentType, time.Now().UTC().Format("20060102"))
	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, filename))
	c.Data(http.StatusOK, xlsxContentType, data)
}

// InviteUser creates an account with a one-time password
// @Summary Invite user
// @Tags admin
// @Accept json
// @Produce json
// @Param body body models.InviteUserRequest true "Invitee"
// @Success 201 {object} models.InviteUserResponse
// @Failure 400 {object} ErrorResponse
// @Failure 409 {object} ErrorResponse
// @Router /admin/invite-user [post]
func (h *AdminHandler) InviteUser(c *gin.Context) {
	user, ok := h.currentUser(c)
	if !ok {
		return
	}

	var req models.InviteUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.RespondWithError(c, http.StatusBadRequest, "Invalid request payload", err)
		return
	}

	h.LogRequest(c, "Inviting user", "email", req.Email, "role", req.Role)

	resp, err := h.inviteService.Invite(c.Request.Context(), user, &req)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, resp)
}
