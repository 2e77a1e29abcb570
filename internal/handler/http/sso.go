package http

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/ilKhr/simple-phone-and-email-auth/pkg/httputil"
	"github.com/ilKhr/simple-phone-and-email-auth/pkg/middleware"
	"github.com/ilKhr/simple-phone-and-email-auth/pkg/validator"

	apperrors "github.com/ilKhr/simple-phone-and-email-auth/pkg/errors"

	"github.com/ilKhr/simple-phone-and-email-auth/internal/repository"
	"github.com/ilKhr/simple-phone-and-email-auth/internal/session"
	"github.com/ilKhr/simple-phone-and-email-auth/internal/sso"
)

// SsoHandler handles HTTP requests for sign-in and sign-up endpoints.
type SsoHandler struct {
	service *sso.Service
	users   repository.UserRepository
	logger  *slog.Logger
}

// NewSsoHandler creates a new sso HTTP handler.
func NewSsoHandler(svc *sso.Service, users repository.UserRepository, logger *slog.Logger) *SsoHandler {
	return &SsoHandler{service: svc, users: users, logger: logger}
}

// --- Request DTOs ---

// SignInRequest is the JSON request body for authentication.
type SignInRequest struct {
	Method   string `json:"method" validate:"required"`
	Identity string `json:"identity" validate:"required,max=255"`
	Secret   string `json:"secret" validate:"required,max=255"`
}

// VerifyRequest is the JSON request body for the pre-flight verify step of
// both sign-in and sign-up.
type VerifyRequest struct {
	Method   string `json:"method" validate:"required"`
	Identity string `json:"identity" validate:"required,max=255"`
}

// SignUpRequest is the JSON request body for completing a registration.
type SignUpRequest struct {
	Method    string `json:"method" validate:"required"`
	Identity  string `json:"identity" validate:"required,max=255"`
	Password  string `json:"password" validate:"required,min=8,max=255"`
	Code      string `json:"code" validate:"required,max=16"`
	FirstName string `json:"first_name" validate:"omitempty,max=100"`
	LastName  string `json:"last_name" validate:"omitempty,max=100"`
}

// LogoutRequest is the JSON request body for session revocation.
type LogoutRequest struct {
	RefreshToken string `json:"refresh_token" validate:"required"`
}

// --- Response types ---

// AuthResponse wraps user data with tokens.
type AuthResponse struct {
	User   any `json:"user"`
	Tokens any `json:"tokens"`
}

// --- Handlers ---

// SignIn handles POST /api/v1/auth/sign-in
func (h *SsoHandler) SignIn(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20) // 1MB limit

	var req SignInRequest
	if err := validator.DecodeAndValidate(r, &req); err != nil {
		httputil.WriteValidationError(w, err)
		return
	}

	method, err := sso.ParseMethod(req.Method)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	creds := sso.Credentials{Identity: req.Identity, Secret: req.Secret}
	device := session.Device{IPAddress: clientIP(r)}

	user, tokens, err := h.service.SignIn(r.Context(), method, creds, device)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{
		Data: AuthResponse{
			User:   user,
			Tokens: tokens,
		},
	})
}

// SignInVerify handles POST /api/v1/auth/sign-in/verify
func (h *SsoHandler) SignInVerify(w http.ResponseWriter, r *http.Request) {
	h.verify(w, r, h.service.SignInVerify)
}

// SignUpVerify handles POST /api/v1/auth/sign-up/verify
func (h *SsoHandler) SignUpVerify(w http.ResponseWriter, r *http.Request) {
	h.verify(w, r, h.service.SignUpVerify)
}

// SignUp handles POST /api/v1/auth/sign-up
func (h *SsoHandler) SignUp(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20) // 1MB limit

	var req SignUpRequest
	if err := validator.DecodeAndValidate(r, &req); err != nil {
		httputil.WriteValidationError(w, err)
		return
	}

	method, err := sso.ParseMethod(req.Method)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	input := sso.RegisterInput{
		Identity:  req.Identity,
		Password:  req.Password,
		Code:      req.Code,
		FirstName: req.FirstName,
		LastName:  req.LastName,
	}
	device := session.Device{IPAddress: clientIP(r)}

	user, tokens, err := h.service.SignUp(r.Context(), method, input, device)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusCreated, httputil.Response{
		Data: AuthResponse{
			User:   user,
			Tokens: tokens,
		},
	})
}

// Logout handles POST /api/v1/auth/logout
func (h *SsoHandler) Logout(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20) // 1MB limit

	var req LogoutRequest
	if err := validator.DecodeAndValidate(r, &req); err != nil {
		httputil.WriteValidationError(w, err)
		return
	}

	if err := h.service.Logout(r.Context(), req.RefreshToken); err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{
		Data: map[string]string{"status": "logged out"},
	})
}

// Me handles GET /api/v1/auth/me
func (h *SsoHandler) Me(w http.ResponseWriter, r *http.Request) {
	subject := middleware.UserIDFromContext(r.Context())
	id, err := strconv.ParseInt(subject, 10, 64)
	if err != nil {
		httputil.WriteError(w, r, apperrors.Unauthorized("invalid token subject"), h.logger)
		return
	}

	user, err := h.users.GetByID(r.Context(), id)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: user})
}

// verify is the shared body of the two verify endpoints.
func (h *SsoHandler) verify(w http.ResponseWriter, r *http.Request, do func(ctx context.Context, method sso.Method, identity string) error) {
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20) // 1MB limit

	var req VerifyRequest
	if err := validator.DecodeAndValidate(r, &req); err != nil {
		httputil.WriteValidationError(w, err)
		return
	}

	method, err := sso.ParseMethod(req.Method)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	if err := do(r.Context(), method, req.Identity); err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{
		Data: map[string]string{"status": "ok"},
	})
}
