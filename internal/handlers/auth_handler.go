package handlers

import (
	"errors"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/stemhub-africa/stemhub-service/internal/models"
	"github.com/stemhub-africa/stemhub-service/internal/services"
	"github.com/stemhub-africa/stemhub-service/internal/utils"
)

// SessionCookieConfig controls the HTTP-only cookie carrying the provider token
type SessionCookieConfig struct {
	Name   string
	MaxAge time.Duration
	Secure bool
}

type AuthHandler struct {
	BaseHandler
	sessionService services.SessionService
	cookie         SessionCookieConfig
	appBaseURL     string
}

func NewAuthHandler(sessionService services.SessionService, cookie SessionCookieConfig, appBaseURL string, logger utils.Logger) *AuthHandler {
	return &AuthHandler{
		BaseHandler:    NewBaseHandler(logger),
		sessionService: sessionService,
		cookie:         cookie,
		appBaseURL:     strings.TrimRight(appBaseURL, "/"),
	}
}

type sessionPayload struct {
	models.SessionResponse
	AccessToken string    `json:"access_token"`
	ExpiresAt   time.Time `json:"expires_at"`
}

// SignUp registers a password account
// @Summary Sign up
// @Tags auth
// @Accept json
// @Produce json
// @Param body body models.SignupRequest true "Sign-up data"
// @Success 201 {object} sessionPayload
// @Failure 400 {object} ErrorResponse
// @Failure 409 {object} ErrorResponse
// @Router /auth/signup [post]
func (h *AuthHandler) SignUp(c *gin.Context) {
	var req models.SignupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.RespondWithError(c, http.StatusBadRequest, "Invalid request payload", err)
		return
	}

	h.LogRequest(c, "Signing up", "email", req.Email)

	result, err := h.sessionService.SignUp(c.Request.Context(), &req)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	h.startSession(c, http.StatusCreated, result)
}

// Login signs in with email and password
// @Summary Log in
// @Tags auth
// @Accept json
// @Produce json
// @Param body body models.LoginRequest true "Credentials"
// @Success 200 {object} sessionPayload
// @Failure 400 {object} ErrorResponse
// @Failure 401 {object} ErrorResponse
// @Router /auth/login [post]
func (h *AuthHandler) Login(c *gin.Context) {
	var req models.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.RespondWithError(c, http.StatusBadRequest, "Invalid request payload", err)
		return
	}

	result, err := h.sessionService.SignIn(c.Request.Context(), &req)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	h.startSession(c, http.StatusOK, result)
}

// StartOAuth redirects the browser to the identity provider
// @Summary Start OAuth sign-in
// @Tags auth
// @Param redirect query string false "Page to return to after sign-in"
// @Success 302
// @Router /auth/oauth/start [get]
func (h *AuthHandler) StartOAuth(c *gin.Context) {
	authURL, err := h.sessionService.StartOAuth(c.Request.Context(), c.Query("redirect"))
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.Redirect(http.StatusFound, authURL)
}

// Callback completes the OAuth sign-in and sends the browser to its destination
// @Summary OAuth callback
// @Tags auth
// @Param code query string true "Authorization code"
// @Param state query string true "Signed state"
// @Success 302
// @Router /auth/callback [get]
func (h *AuthHandler) Callback(c *gin.Context) {
	result, err := h.sessionService.CompleteOAuth(c.Request.Context(), c.Query("code"), c.Query("state"))
	if err != nil {
		h.LogError(c, err, "OAuth callback failed")
		c.Redirect(http.StatusFound, h.appBaseURL+"/login?error="+url.QueryEscape(callbackErrorCode(err)))
		return
	}

	h.setSessionCookie(c, result.AccessToken, result.ExpiresAt)
	c.Redirect(http.StatusFound, h.appBaseURL+result.Destination)
}

// Logout clears the session cookie
// @Summary Log out
// @Tags auth
// @Success 200 {object} SuccessResponse
// @Router /auth/logout [post]
func (h *AuthHandler) Logout(c *gin.Context) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(h.cookie.Name, "", -1, "/", "", h.cookie.Secure, true)
	c.JSON(http.StatusOK, SuccessResponse{Message: "Logged out"})
}

// Me returns the signed-in user and where they belong
// @Summary Current user
// @Tags auth
// @Produce json
// @Success 200 {object} models.SessionResponse
// @Failure 401 {object} ErrorResponse
// @Router /auth/me [get]
func (h *AuthHandler) Me(c *gin.Context) {
	user, ok := h.currentUser(c)
	if !ok {
		return
	}

	resp, err := h.sessionService.Me(c.Request.Context(), user.ID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// ChangePassword replaces the password and clears the forced-change flag
// @Summary Change password
// @Tags auth
// @Accept json
// @Produce json
// @Param body body models.ChangePasswordRequest true "Passwords"
// @Success 200 {object} models.SessionResponse
// @Failure 400 {object} ErrorResponse
// @Router /auth/change-password [post]
func (h *AuthHandler) ChangePassword(c *gin.Context) {
	user, ok := h.currentUser(c)
	if !ok {
		return
	}

	var req models.ChangePasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.RespondWithError(c, http.StatusBadRequest, "Invalid request payload", err)
		return
	}

	h.LogRequest(c, "Changing password")

	resp, err := h.sessionService.ChangePassword(c.Request.Context(), user.ID, &req)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *AuthHandler) startSession(c *gin.Context, status int, result *services.SessionResult) {
	h.setSessionCookie(c, result.AccessToken, result.ExpiresAt)
	c.JSON(status, sessionPayload{
		SessionResponse: models.SessionResponse{
			User:        result.User,
			Destination: result.Destination,
			Created:     result.Created,
		},
		AccessToken: result.AccessToken,
		ExpiresAt:   result.ExpiresAt,
	})
}

func (h *AuthHandler) setSessionCookie(c *gin.Context, token string, expiresAt time.Time) {
	maxAge := h.cookie.MaxAge
	if !expiresAt.IsZero() {
		if untilExpiry := time.Until(expiresAt); untilExpiry > 0 && (maxAge <= 0 || untilExpiry < maxAge) {
			maxAge = untilExpiry
		}
	}
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(h.cookie.Name, token, int(maxAge.Seconds()), "/", "", h.cookie.Secure, true)
}

func callbackErrorCode(err error) string {
	switch {
	case errors.Is(err, services.ErrInvalidOAuthState):
		return "expired"
	case errors.Is(err, services.ErrInvalidCredentials):
		return "denied"
	}
	return "failed"
}
