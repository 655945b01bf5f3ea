package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/stemhub-africa/stemhub-service/internal/models"
	"github.com/stemhub-africa/stemhub-service/internal/services"
	"github.com/stemhub-africa/stemhub-service/internal/utils"
)

type ErrorResponse = models.ErrorResponse
type SuccessResponse = models.SuccessResponse

// BaseHandler carries the helpers shared by every handler
type BaseHandler struct {
	logger utils.Logger
}

func NewBaseHandler(logger utils.Logger) BaseHandler {
	return BaseHandler{logger: logger}
}

func (h *BaseHandler) log(c *gin.Context) utils.Logger {
	return utils.LoggerFromContext(c, h.logger)
}

func (h *BaseHandler) LogRequest(c *gin.Context, message string, args ...any) {
	args = append(args, "method", c.Request.Method, "path", c.Request.URL.Path)
	if userID := c.GetString("user_id"); userID != "" {
		args = append(args, "user_id", userID)
	}
	h.log(c).Info(message, args...)
}

func (h *BaseHandler) LogError(c *gin.Context, err error, message string, args ...any) {
	args = append(args, "error", err, "path", c.Request.URL.Path)
	h.log(c).Error(message, args...)
}

func (h *BaseHandler) RespondWithError(c *gin.Context, status int, message string, err error) {
	resp := ErrorResponse{Message: message}
	if err != nil {
		resp.Details = err.Error()
	}
	c.JSON(status, resp)
}

// currentUser returns the user stored by the auth middleware, answering 401 when absent
func (h *BaseHandler) currentUser(c *gin.Context) (*models.User, bool) {
	user, err := GetUserFromContext(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Message: "User not authenticated"})
		return nil, false
	}
	return user, true
}

func (h *BaseHandler) parseIntQuery(c *gin.Context, key string, defaultValue int) int {
	raw := c.Query(key)
	if raw == "" {
		return defaultValue
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		return defaultValue
	}
	return value
}

// parseContentTypeParam reads a content type path parameter, answering 400 when unknown
func (h *BaseHandler) parseContentTypeParam(c *gin.Context, name string) (models.ContentType, bool) {
	contentType, ok := models.ParseContentType(c.Param(name))
	if !ok {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Unknown content type",
			Details: c.Param(name),
		})
		return "", false
	}
	return contentType, true
}

func (h *BaseHandler) handleServiceError(c *gin.Context, err error) {
	var validationErrors services.ValidationErrors
	if errors.As(err, &validationErrors) {
		resp := ErrorResponse{Message: "Validation failed"}
		for _, ve := range validationErrors {
			resp.ValidationErrors = append(resp.ValidationErrors, models.ValidationErrorResponse{
				Field:   ve.Field,
				Message: ve.Message,
				Code:    ve.Rule,
			})
		}
		c.JSON(http.StatusBadRequest, resp)
		return
	}

	var businessRuleError *services.BusinessRuleError
	if errors.As(err, &businessRuleError) {
		c.JSON(http.StatusUnprocessableEntity, ErrorResponse{
			Message: businessRuleError.Message,
			Details: map[string]interface{}{"rule": businessRuleError.Rule},
		})
		return
	}

	var permissionError *services.PermissionError
	if errors.As(err, &permissionError) {
		c.JSON(http.StatusForbidden, ErrorResponse{
			Message: "Access denied",
			Details: map[string]interface{}{
				"resource": permissionError.Resource,
				"action":   permissionError.Action,
				"reason":   permissionError.Reason,
			},
		})
		return
	}

	switch {
	case errors.Is(err, services.ErrInvalidCredentials):
		c.JSON(http.StatusUnauthorized, ErrorResponse{Message: "Invalid email or password"})
	case errors.Is(err, services.ErrAuthenticationFailed):
		h.LogError(c, err, "Authentication failed")
		c.JSON(http.StatusUnauthorized, ErrorResponse{Message: "Authentication failed"})
	case errors.Is(err, services.ErrInvalidOAuthState):
		c.JSON(http.StatusBadRequest, ErrorResponse{Message: "Sign-in request expired or was tampered with"})
	case errors.Is(err, services.ErrUserNotFound):
		c.JSON(http.StatusNotFound, ErrorResponse{Message: "User not found"})
	case errors.Is(err, services.ErrContentNotFound):
		c.JSON(http.StatusNotFound, ErrorResponse{Message: "Content not found"})
	case errors.Is(err, services.ErrContentAlreadyReviewed):
		c.JSON(http.StatusConflict, ErrorResponse{Message: "Content has already been reviewed"})
	case errors.Is(err, services.ErrEmailTaken),
		errors.Is(err, services.ErrIdentityExists),
		errors.Is(err, services.ErrRoleChangeRefused):
		c.JSON(http.StatusConflict, ErrorResponse{Message: err.Error()})
	default:
		h.LogError(c, err, "Unexpected service error")
		c.JSON(http.StatusInternalServerError, ErrorResponse{Message: "Internal server error"})
	}
}
