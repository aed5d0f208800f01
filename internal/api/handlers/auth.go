package handlers

import (
	"net/http"
	"time"

	"github.com/serviceinfo/serviceinfo/internal/api/dto"
	"github.com/serviceinfo/serviceinfo/internal/api/middleware"
	"github.com/serviceinfo/serviceinfo/internal/auth"
	"github.com/serviceinfo/serviceinfo/internal/config"
	"github.com/serviceinfo/serviceinfo/internal/domain/user"
	"github.com/serviceinfo/serviceinfo/internal/pkg/errors"
	"github.com/serviceinfo/serviceinfo/internal/pkg/logger"
	"github.com/serviceinfo/serviceinfo/internal/pkg/utils"
	"github.com/serviceinfo/serviceinfo/internal/pkg/validator"
)

const refreshTokenCookie = "refreshToken"

// AuthHandler handles authentication-related requests
type AuthHandler struct {
	userService user.Service
	config      *config.Config
	urls        dto.URLs
	logger      *logger.Logger
	validator   *validator.Validator
}

// NewAuthHandler creates a new auth handler
func NewAuthHandler(
	userService user.Service,
	cfg *config.Config,
	log *logger.Logger,
	val *validator.Validator,
) *AuthHandler {
	return &AuthHandler{
		userService: userService,
		config:      cfg,
		urls:        dto.NewURLs(cfg.Server.BaseURL),
		logger:      log,
		validator:   val,
	}
}

// Login handles user login
// @Summary User login
// @Description Authenticate with email and password. Returns a JWT pair and the user's API token.
// @Tags Auth
// @Accept json
// @Produce json
// @Param request body dto.LoginRequest true "Login credentials"
// @Success 200 {object} dto.AuthResponse "Successfully authenticated"
// @Failure 400 {object} utils.ErrorResponse "Invalid request"
// @Failure 401 {object} utils.ErrorResponse "Invalid credentials"
// @Failure 403 {object} utils.ErrorResponse "Account not activated"
// @Router /auth/login [post]
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req dto.LoginRequest
	if !decodeAndValidate(w, r, h.validator, &req) {
		return
	}

	u, err := h.userService.Authenticate(r.Context(), req.Email, req.Password)
	if err != nil {
		h.logger.WithFields(map[string]interface{}{
			"email": req.Email,
		}).Warn("Authentication failed")
		utils.WriteErr(w, err, "Authentication failed")
		return
	}

	h.issue(w, r, u)
}

// Refresh exchanges a refresh token for a new token pair
// @Summary Refresh tokens
// @Tags Auth
// @Accept json
// @Produce json
// @Param request body dto.RefreshTokenRequest false "Refresh token; the refreshToken cookie is used when omitted"
// @Success 200 {object} dto.AuthResponse
// @Failure 401 {object} utils.ErrorResponse "Invalid refresh token"
// @Router /auth/refresh [post]
func (h *AuthHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	var token string
	if c, err := r.Cookie(refreshTokenCookie); err == nil {
		token = c.Value
	}
	if token == "" {
		var req dto.RefreshTokenRequest
		if !decodeAndValidate(w, r, h.validator, &req) {
			return
		}
		token = req.RefreshToken
	}

	claims, err := auth.ParseRefresh(token, h.config.Auth.JWTSecret)
	if err != nil {
		utils.WriteError(w, errors.Unauthorized("Invalid or expired refresh token"))
		return
	}

	u, err := h.userService.GetByID(r.Context(), claims.UserID)
	if err != nil || !u.IsActive {
		utils.WriteError(w, errors.Unauthorized("User inactive or deleted"))
		return
	}

	h.issue(w, r, u)
}

// Logout clears the session cookies
// @Summary User logout
// @Tags Auth
// @Success 200 {object} utils.SuccessResponse
// @Router /auth/logout [post]
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	for _, name := range []string{middleware.AccessTokenCookie, refreshTokenCookie} {
		http.SetCookie(w, &http.Cookie{
			Name:     name,
			Value:    "",
			Path:     "/",
			HttpOnly: true,
			MaxAge:   -1,
			Expires:  time.Unix(0, 0),
		})
	}
	utils.WriteSuccessWithMessage(w, http.StatusOK, "Logged out", nil)
}

func (h *AuthHandler) issue(w http.ResponseWriter, r *http.Request, u *user.User) {
	tokens, err := auth.MintTokens(
		u.ID,
		u.Email,
		u.IsStaff,
		h.config.Auth.JWTSecret,
		h.config.Auth.AccessTokenExpiry,
		h.config.Auth.RefreshTokenExpiry,
	)
	if err != nil {
		h.logger.ErrorWithErr(err, "Failed to generate tokens")
		utils.WriteError(w, errors.Internal("Failed to generate tokens", err))
		return
	}

	apiToken, err := h.userService.Token(r.Context(), u.ID)
	if err != nil {
		utils.WriteErr(w, err, "Failed to load API token")
		return
	}

	secure := h.config.Server.Environment == "production"
	http.SetCookie(w, &http.Cookie{
		Name:     middleware.AccessTokenCookie,
		Value:    tokens.AccessToken,
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteStrictMode,
		Path:     "/",
		MaxAge:   int(h.config.Auth.AccessTokenExpiry.Seconds()),
	})
	http.SetCookie(w, &http.Cookie{
		Name:     refreshTokenCookie,
		Value:    tokens.RefreshToken,
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteStrictMode,
		Path:     "/api/auth/",
		MaxAge:   int(h.config.Auth.RefreshTokenExpiry.Seconds()),
	})

	h.logger.WithFields(map[string]interface{}{
		"user_id": u.ID,
	}).Info("User logged in")

	utils.WriteSuccess(w, http.StatusOK, dto.AuthResponse{
		AccessToken:  tokens.AccessToken,
		RefreshToken: tokens.RefreshToken,
		Token:        apiToken.Key,
		User:         dto.NewUserResponse(u, h.urls),
	})
}
