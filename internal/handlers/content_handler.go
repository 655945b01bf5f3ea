package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/stemhub-africa/stemhub-service/internal/services"
	"github.com/stemhub-africa/stemhub-service/internal/utils"
)

type ContentHandler struct {
	BaseHandler
	contentService services.ContentService
}

func NewContentHandler(contentService services.ContentService, logger utils.Logger) *ContentHandler {
	return &ContentHandler{
		BaseHandler:    NewBaseHandler(logger),
		contentService: contentService,
	}
}

// ListPublished lists the published catalogue of one type
// @Summary Published content
// @Tags content
// @Produce json
// @Param content_type path string true "note, quiz or past_paper"
// @Param page query int false "Page number (default: 1)"
// @Param size query int false "Page size (default: 20, max: 100)"
// @Success 200 {object} models.ContentListResponse
// @Router /content/{content_type} [get]
func (h *ContentHandler) ListPublished(c *gin.Context) {
	contentType, ok := h.parseContentTypeParam(c, "content_type")
	if !ok {
		return
	}

	resp, err := h.contentService.ListPublished(c.Request.Context(), contentType, h.parseIntQuery(c, "page", 1), h.parseIntQuery(c, "size", 20))
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}
