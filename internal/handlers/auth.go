package handlers

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
	"github.com/yukikurage/coaching-plans-api/internal/constants"
	"github.com/yukikurage/coaching-plans-api/internal/dto"
	apierrors "github.com/yukikurage/coaching-plans-api/internal/errors"
	"github.com/yukikurage/coaching-plans-api/internal/middleware"
	"github.com/yukikurage/coaching-plans-api/internal/services"
	"github.com/yukikurage/coaching-plans-api/internal/utils"
)

// AuthHandler coordinates authentication-related HTTP handlers.
type AuthHandler struct {
	authService  *services.AuthService
	oauthService *services.OAuthService
	frontendURL  string
}

// NewAuthHandler creates a new AuthHandler. oauthService may be nil when
// social sign-in is not configured.
func NewAuthHandler(authService *services.AuthService, oauthService *services.OAuthService, frontendURL string) *AuthHandler {
	return &AuthHandler{
		authService:  authService,
		oauthService: oauthService,
		frontendURL:  strings.TrimRight(frontendURL, "/"),
	}
}

// Signup registers a new user.
func (h *AuthHandler) Signup(c *gin.Context) {
	type SignupRequest struct {
		Email    string `json:"email" binding:"required,email"`
		Password string `json:"password" binding:"required"`
		Name     string `json:"name"`
	}

	var req SignupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequestWithDetails(c, "Invalid request body", validationDetails(err))
		return
	}

	user, token, err := h.authService.Signup(c.Request.Context(), services.SignupInput{
		Email:    req.Email,
		Password: req.Password,
		Name:     req.Name,
	})
	if err != nil {
		respondAuthError(c, err)
		return
	}

	c.JSON(http.StatusCreated, dto.AuthResponse{
		Token: token,
		User:  dto.ToUserDTO(*user),
	})
}

// Login authenticates a user and returns a token.
func (h *AuthHandler) Login(c *gin.Context) {
	type LoginRequest struct {
		Email    string `json:"email" binding:"required"`
		Password string `json:"password" binding:"required"`
	}

	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, "Invalid request body")
		return
	}

	user, token, err := h.authService.Login(c.Request.Context(), services.LoginInput{
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		respondAuthError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.AuthResponse{
		Token: token,
		User:  dto.ToUserDTO(*user),
	})
}

// GetCurrentUser returns the authenticated user.
func (h *AuthHandler) GetCurrentUser(c *gin.Context) {
	userID, exists := middleware.GetUserID(c)
	if !exists {
		apierrors.Unauthorized(c, "Not authenticated")
		return
	}

	user, err := h.authService.GetUser(c.Request.Context(), userID)
	if err != nil {
		respondAuthError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToUserDTO(*user))
}

// GoogleLogin redirects to the Google consent screen. The state is kept in
// the session and checked on callback.
func (h *AuthHandler) GoogleLogin(c *gin.Context) {
	if h.oauthService == nil {
		apierrors.ServiceUnavailable(c, "Google sign-in is not configured")
		return
	}

	state, err := utils.GenerateOAuthState()
	if err != nil {
		apierrors.InternalError(c, "Failed to start sign-in")
		return
	}

	session := sessions.Default(c)
	session.Set(constants.SessionKeyOAuthState, state)
	if err := session.Save(); err != nil {
		apierrors.InternalError(c, "Failed to save session")
		return
	}

	c.Redirect(http.StatusFound, h.oauthService.AuthURL(state))
}

// GoogleCallback finishes sign-in and hands the token to the frontend.
func (h *AuthHandler) GoogleCallback(c *gin.Context) {
	if h.oauthService == nil {
		apierrors.ServiceUnavailable(c, "Google sign-in is not configured")
		return
	}

	session := sessions.Default(c)
	expected, _ := session.Get(constants.SessionKeyOAuthState).(string)
	session.Delete(constants.SessionKeyOAuthState)
	_ = session.Save()

	state := c.Query("state")
	if expected == "" || state != expected {
		apierrors.BadRequest(c, "Invalid OAuth state")
		return
	}

	code := c.Query("code")
	if code == "" {
		apierrors.BadRequest(c, "Missing authorization code")
		return
	}

	_, token, err := h.oauthService.HandleCallback(c.Request.Context(), code)
	if err != nil {
		if errors.Is(err, services.ErrOAuthExchange) {
			slog.WarnContext(c.Request.Context(), "google sign-in failed", "error", err)
			apierrors.BadGateway(c, "Google sign-in failed")
			return
		}
		respondAuthError(c, err)
		return
	}

	c.Redirect(http.StatusFound, h.frontendURL+"/oauth-success?token="+url.QueryEscape(token))
}

func respondAuthError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, services.ErrEmailRequired):
		apierrors.BadRequest(c, "Email is required")
	case errors.Is(err, services.ErrPasswordTooShort):
		apierrors.BadRequest(c, fmt.Sprintf("Password must be at least %d characters", constants.MinPasswordLength))
	case errors.Is(err, services.ErrEmailTaken):
		apierrors.Conflict(c, "Email already in use")
	case errors.Is(err, services.ErrInvalidCredentials):
		apierrors.InvalidCredentials(c, "Invalid email or password")
	case errors.Is(err, services.ErrUserNotFound):
		apierrors.NotFound(c, "User not found")
	case errors.Is(err, services.ErrFailedToHashPassword),
		errors.Is(err, services.ErrFailedToCreateUser):
		apierrors.InternalError(c, err.Error())
	default:
		apierrors.InternalError(c, "Internal server error")
	}
}
