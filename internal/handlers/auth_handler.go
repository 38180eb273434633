package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/httprate"
	"github.com/yowaacademy/backend/internal/apperrors"
	"github.com/yowaacademy/backend/internal/models"
	"github.com/yowaacademy/backend/internal/services"
	"go.uber.org/zap"
)

// AuthService is the interface that wraps methods for authentication business logic.
type AuthService interface {
	// Method Register validates the request, creates a user and signs it in.
	//
	// "req" parameter contains name, email, password and an optional role (Student or Instructor).
	//
	// If the email is taken an AlreadyExists error is returned, if the request is invalid a Validation error is returned.
	Register(ctx context.Context, req *models.RegisterRequest) (*models.AuthResponse, error)
	// Method Login checks credentials and returns the user with a fresh token pair.
	//
	// If credentials do not match, an Unauthenticated error is returned.
	Login(ctx context.Context, req *models.LoginRequest) (*models.AuthResponse, error)
	// Method Refresh rotates a refresh token.
	//
	// If the token is invalid, expired or unknown, an error is returned.
	Refresh(ctx context.Context, refreshToken string) (*models.AuthResponse, error)
	// Method Logout revokes a refresh token.
	Logout(ctx context.Context, refreshToken string) error
	// Method Me returns the user with the list of enrolled course ids.
	Me(ctx context.Context, userID int) (*models.User, error)
	// Method UpdateAvatar stores a new avatar image for the user and removes the previous one.
	UpdateAvatar(ctx context.Context, user *models.User, file *services.FileUpload) (*models.User, error)
}

// AuthHandler handles authentication-related HTTP requests
type AuthHandler struct {
	BaseHandler
	authService        AuthService
	accessTokenMaxAge  int
	refreshTokenMaxAge int
}

// NewAuthHandler creates a new auth handler.
// Cookie lifetimes follow the token expiries.
func NewAuthHandler(
	authService AuthService,
	accessExpiry, refreshExpiry time.Duration,
	logger *zap.Logger,
) *AuthHandler {
	return &AuthHandler{
		BaseHandler:        BaseHandler{Logger: logger},
		authService:        authService,
		accessTokenMaxAge:  int(accessExpiry.Seconds()),
		refreshTokenMaxAge: int(refreshExpiry.Seconds()),
	}
}

// RegisterRoutes registers all auth handler routes
func (h *AuthHandler) RegisterRoutes(r chi.Router, guards Guards) {
	// credentials endpoints get a stricter limit than the global one
	credentialsLimit := httprate.LimitByIP(10, time.Minute)

	r.Route("/auth", func(r chi.Router) {
		r.With(credentialsLimit).Post("/register", h.Register)
		r.With(credentialsLimit).Post("/login", h.Login)
		r.Post("/refresh", h.Refresh)
		r.Post("/logout", h.Logout)

		r.Group(func(r chi.Router) {
			r.Use(guards.Auth)
			r.Get("/me", h.Me)
			r.Put("/profile/avatar", h.UpdateAvatar)
		})
	})
}

// Register handles POST /auth/register
// @Summary Register a new user
// @Description Create an account with name, email, password and optional role (Student or Instructor). Returns the user and a token pair, tokens are also set as HTTP-only cookies.
// @Tags auth
// @Accept json
// @Produce json
// @Param request body models.RegisterRequest true "Registration request"
// @Success 201 {object} models.AuthResponse
// @Failure 400 {object} map[string]string "Invalid request or user already exists"
// @Failure 429 {object} map[string]string "Too many requests"
// @Failure 500 {object} map[string]string "Internal server error"
// @Router /auth/register [post]
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req models.RegisterRequest
	if err := h.DecodeJSON(r, &req); err != nil {
		h.RespondServiceError(w, r, err)
		return
	}

	resp, err := h.authService.Register(r.Context(), &req)
	if err != nil {
		h.RespondServiceError(w, r, err)
		return
	}

	h.setTokenCookies(w, resp.Token, resp.RefreshToken)
	h.RespondJSON(w, http.StatusCreated, resp)
}

// Login handles POST /auth/login
// @Summary Login user
// @Description Authenticate with email and password. Returns the user and a token pair.
// @Tags auth
// @Accept json
// @Produce json
// @Param request body models.LoginRequest true "Login request"
// @Success 200 {object} models.AuthResponse
// @Failure 400 {object} map[string]string "Invalid request body"
// @Failure 401 {object} map[string]string "Invalid credentials"
// @Failure 429 {object} map[string]string "Too many requests"
// @Router /auth/login [post]
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req models.LoginRequest
	if err := h.DecodeJSON(r, &req); err != nil {
		h.RespondServiceError(w, r, err)
		return
	}

	resp, err := h.authService.Login(r.Context(), &req)
	if err != nil {
		h.RespondServiceError(w, r, err)
		return
	}

	h.setTokenCookies(w, resp.Token, resp.RefreshToken)
	h.RespondJSON(w, http.StatusOK, resp)
}

// Refresh handles POST /auth/refresh
// @Summary Refresh access token
// @Description Rotate the refresh token. The token can be provided in the request body or as the refresh_token cookie.
// @Tags auth
// @Accept json
// @Produce json
// @Param request body models.RefreshRequest false "Refresh token request (optional if using cookie)"
// @Success 200 {object} models.AuthResponse
// @Failure 400 {object} map[string]string "Refresh token required"
// @Failure 401 {object} map[string]string "Invalid or expired refresh token"
// @Router /auth/refresh [post]
func (h *AuthHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	resp, err := h.authService.Refresh(r.Context(), refreshTokenFrom(r))
	if err != nil {
		h.RespondServiceError(w, r, err)
		return
	}

	h.setTokenCookies(w, resp.Token, resp.RefreshToken)
	h.RespondJSON(w, http.StatusOK, resp)
}

// Logout handles POST /auth/logout
// @Summary Logout user
// @Description Revoke the refresh token and clear the token cookies.
// @Tags auth
// @Accept json
// @Produce json
// @Param request body models.RefreshRequest false "Refresh token request (optional if using cookie)"
// @Success 200 {object} map[string]string "Logged out"
// @Failure 400 {object} map[string]string "Refresh token required"
// @Router /auth/logout [post]
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	if err := h.authService.Logout(r.Context(), refreshTokenFrom(r)); err != nil {
		h.RespondServiceError(w, r, err)
		return
	}

	h.clearTokenCookies(w)
	h.RespondMessage(w, http.StatusOK, "logged out successfully")
}

// Me handles GET /auth/me
// @Summary Get current user
// @Description Return the authenticated user together with enrolled course ids.
// @Tags auth
// @Produce json
// @Security BearerAuth
// @Success 200 {object} models.User
// @Failure 401 {object} map[string]string "Unauthorized"
// @Router /auth/me [get]
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	user, err := h.authService.Me(r.Context(), currentUser(r).ID)
	if err != nil {
		h.RespondServiceError(w, r, err)
		return
	}
	h.RespondJSON(w, http.StatusOK, user)
}

// UpdateAvatar handles PUT /auth/profile/avatar
// @Summary Update avatar
// @Description Upload a new avatar image (jpeg, png, gif or webp, up to 5MB). The previous file is removed.
// @Tags auth
// @Accept multipart/form-data
// @Produce json
// @Security BearerAuth
// @Param avatar formData file true "Avatar image"
// @Success 200 {object} models.User
// @Failure 400 {object} map[string]string "Invalid file"
// @Failure 401 {object} map[string]string "Unauthorized"
// @Router /auth/profile/avatar [put]
func (h *AuthHandler) UpdateAvatar(w http.ResponseWriter, r *http.Request) {
	if err := parseMultipart(r); err != nil {
		h.RespondServiceError(w, r, err)
		return
	}

	file, closeFile, err := formFile(r, "avatar")
	if err != nil {
		h.RespondServiceError(w, r, err)
		return
	}
	defer closeFile()
	if file == nil {
		h.RespondServiceError(w, r, apperrors.Validation("avatar file is required"))
		return
	}

	user, err := h.authService.UpdateAvatar(r.Context(), currentUser(r), file)
	if err != nil {
		h.RespondServiceError(w, r, err)
		return
	}
	h.RespondJSON(w, http.StatusOK, user)
}

// refreshTokenFrom reads the refresh token from the JSON body or the refresh_token cookie
func refreshTokenFrom(r *http.Request) string {
	var req models.RefreshRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err == nil && req.RefreshToken != "" {
		return req.RefreshToken
	}
	if cookie, err := r.Cookie("refresh_token"); err == nil {
		return cookie.Value
	}
	return ""
}

// setTokenCookies sets access and refresh tokens as HTTP-only cookies
func (h *AuthHandler) setTokenCookies(w http.ResponseWriter, accessToken, refreshToken string) {
	http.SetCookie(w, tokenCookie("access_token", accessToken, h.accessTokenMaxAge))
	http.SetCookie(w, tokenCookie("refresh_token", refreshToken, h.refreshTokenMaxAge))
}

func (h *AuthHandler) clearTokenCookies(w http.ResponseWriter) {
	http.SetCookie(w, tokenCookie("access_token", "", -1))
	http.SetCookie(w, tokenCookie("refresh_token", "", -1))
}

func tokenCookie(name, value string, maxAge int) *http.Cookie {
	return &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		MaxAge:   maxAge,
		HttpOnly: true,
		Secure:   true,
		SameSite: http.SameSiteLaxMode,
	}
}
