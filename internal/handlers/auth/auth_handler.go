// internal/handlers/auth/auth_handler.go
package auth

import (
	"net/http"
	"time"

	"neusentra-service/internal/domain/auth"
	"neusentra-service/internal/middleware"
	xerrors "neusentra-service/internal/pkg/errors"
	"neusentra-service/internal/pkg/response"
	authUsecase "neusentra-service/internal/service/auth"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const (
	refreshCookieName = "refreshToken"
	refreshCookiePath = "/v1/auth/refresh-token"
)

type AuthHandler struct {
	authService *authUsecase.Service
	refreshTTL  time.Duration
	logger      *zap.Logger
}

func NewAuthHandler(authService *authUsecase.Service, refreshTTL time.Duration, logger *zap.Logger) *AuthHandler {
	return &AuthHandler{
		authService: authService,
		refreshTTL:  refreshTTL,
		logger:      logger,
	}
}

// setRefreshCookie stores the refresh token in an HTTP-only cookie scoped
// to the refresh endpoint so it never rides along on other requests.
func (h *AuthHandler) setRefreshCookie(c *gin.Context, refreshToken string) {
	c.SetSameSite(http.SameSiteStrictMode)
	c.SetCookie(refreshCookieName, refreshToken, int(h.refreshTTL.Seconds()), refreshCookiePath, "", true, true)
}

func (h *AuthHandler) clearRefreshCookie(c *gin.Context) {
	c.SetSameSite(http.SameSiteStrictMode)
	c.SetCookie(refreshCookieName, "", -1, refreshCookiePath, "", true, true)
}

// ========== Initialization ==========

// InitializationStatus reports whether the one-time setup has completed
// (public endpoint, polled by the setup wizard).
func (h *AuthHandler) InitializationStatus(c *gin.Context) {
	initialized, err := h.authService.CheckInitializationStatus(c.Request.Context())
	if err != nil {
		h.logger.Error("initialization status check failed", zap.Error(err))
		response.Error(c, http.StatusInternalServerError, "failed to check initialization status", nil)
		return
	}

	response.Success(c, http.StatusOK, "initialization status", auth.InitializationStatus{Initialized: initialized})
}

// Initialize creates the superadmin account (public, one-shot endpoint).
func (h *AuthHandler) Initialize(c *gin.Context) {
	var req auth.InitializeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "invalid request", err)
		return
	}

	result, err := h.authService.InitializeSuperAdmin(c.Request.Context(), req.Fullname, req.Username, req.Password)
	if err != nil {
		h.logger.Error("initialization failed",
			zap.String("username", req.Username),
			zap.Error(err),
		)
		switch {
		case xerrors.Is(err, xerrors.ErrWeakPassword):
			response.Error(c, http.StatusBadRequest, "password does not meet strength requirements", nil)
		case xerrors.Is(err, xerrors.ErrAlreadyBootstrapped), xerrors.Is(err, xerrors.ErrSuperAdminExists):
			response.Error(c, http.StatusBadRequest, "system is already initialized", nil)
		default:
			response.Error(c, http.StatusInternalServerError, "initialization failed", nil)
		}
		return
	}

	h.logger.Info("superadmin created", zap.String("username", req.Username))

	h.setRefreshCookie(c, result.Pair.RefreshToken)
	response.Success(c, http.StatusCreated, "superadmin created", auth.AuthResponse{
		AccessToken: result.Pair.AccessToken,
		Permissions: result.Permissions,
	})
}

// ========== Login ==========

func (h *AuthHandler) Login(c *gin.Context) {
	var req auth.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "invalid request", err)
		return
	}

	result, err := h.authService.Login(c.Request.Context(), req.Username, req.Password)
	if err != nil {
		h.logger.Warn("login failed",
			zap.String("username", req.Username),
			zap.String("ip", c.ClientIP()),
			zap.Error(err),
		)
		// One message for every failure mode so callers cannot probe
		// which usernames exist.
		response.Error(c, http.StatusUnauthorized, "invalid username or password", nil)
		return
	}

	h.logger.Info("user logged in",
		zap.String("username", req.Username),
		zap.String("login_id", result.LoginID),
	)

	h.setRefreshCookie(c, result.Pair.RefreshToken)
	response.Success(c, http.StatusOK, "login successful", auth.AuthResponse{
		AccessToken: result.Pair.AccessToken,
		Permissions: result.Permissions,
	})
}

// ========== Token Refresh ==========

// Refresh rotates the token pair using the refresh cookie. Every failure
// collapses to the same 401 so the cookie's validity cannot be probed.
func (h *AuthHandler) Refresh(c *gin.Context) {
	refreshToken, err := c.Cookie(refreshCookieName)
	if err != nil || refreshToken == "" {
		response.Error(c, http.StatusUnauthorized, "refresh failed", nil)
		return
	}

	result, err := h.authService.RefreshAccessToken(c.Request.Context(), refreshToken)
	if err != nil {
		h.logger.Warn("token refresh failed", zap.Error(err))
		h.clearRefreshCookie(c)
		response.Error(c, http.StatusUnauthorized, "refresh failed", nil)
		return
	}

	h.setRefreshCookie(c, result.Pair.RefreshToken)
	response.Success(c, http.StatusOK, "token refreshed", auth.RefreshResponse{
		AccessToken: result.Pair.AccessToken,
	})
}

// ========== Logout ==========

// Logout closes the login session and drops it from the cache (requires auth).
func (h *AuthHandler) Logout(c *gin.Context) {
	loginID := middleware.MustGetLoginID(c)

	if err := h.authService.Logout(c.Request.Context(), loginID); err != nil {
		h.logger.Error("logout failed",
			zap.String("login_id", loginID),
			zap.Error(err),
		)
		response.Error(c, http.StatusInternalServerError, "logout failed", nil)
		return
	}

	h.clearRefreshCookie(c)
	response.Success(c, http.StatusOK, "logout successful", nil)
}
