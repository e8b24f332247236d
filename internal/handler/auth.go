// Package handler maps the named RPC operations onto the account service.
// Each handler decodes a typed request, validates it at the boundary, and
// delegates; no business rules live here.
package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"regexp"

	"github.com/medibook/auth-service/internal/apperror"
	"github.com/medibook/auth-service/internal/auth"
	"github.com/medibook/auth-service/internal/model"
	"github.com/medibook/auth-service/internal/service"
)

// minPasswordLength mirrors the gateway's published contract.
const minPasswordLength = 6

var emailPattern = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)

// AuthHandler serves the credential operations: register, login, token
// refresh/validation, password recovery, and Google sign-in.
type AuthHandler struct {
	service *service.AccountService
	google  *auth.GoogleProvider
	logger  *slog.Logger
}

func NewAuthHandler(svc *service.AccountService, google *auth.GoogleProvider, logger *slog.Logger) *AuthHandler {
	return &AuthHandler{
		service: svc,
		google:  google,
		logger:  logger,
	}
}

// decode reads a JSON request body into dst. A malformed body is a
// BadRequest before anything else runs.
func decode(r *http.Request, dst any) error {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return apperror.BadRequest("Invalid request payload")
	}
	return nil
}

// RegisterRequest is the register operation payload. It accepts both
// roles' field sets; the service keeps only the ones matching the
// declared role.
type RegisterRequest struct {
	Email       string `json:"email"`
	Password    string `json:"password"`
	FullName    string `json:"full_name"`
	Role        string `json:"role"`
	Phone       string `json:"phone"`
	Address     string `json:"address"`
	DateOfBirth string `json:"date_of_birth"`
	BloodGroup  string `json:"blood_group"`
	Age         int    `json:"age"`
	Gender      string `json:"gender"`
	Education   string `json:"education"`
	Experience  int    `json:"experience"`
}

// HandleRegister — POST /rpc/register
func (h *AuthHandler) HandleRegister(w http.ResponseWriter, r *http.Request) {
	var req RegisterRequest
	if err := decode(r, &req); err != nil {
		writeError(w, h.logger, err)
		return
	}

	if !emailPattern.MatchString(req.Email) {
		writeError(w, h.logger, apperror.BadRequest("Invalid email address"))
		return
	}
	if len(req.Password) < minPasswordLength {
		writeError(w, h.logger, apperror.BadRequest("Password must be at least 6 characters"))
		return
	}
	role := model.Role(req.Role)
	if req.Role != "" && !role.Valid() {
		writeError(w, h.logger, apperror.BadRequest("Unknown role"))
		return
	}

	result, err := h.service.Register(r.Context(), service.RegisterInput{
		Email:       req.Email,
		Password:    req.Password,
		FullName:    req.FullName,
		Role:        role,
		Phone:       req.Phone,
		Address:     req.Address,
		DateOfBirth: req.DateOfBirth,
		BloodGroup:  req.BloodGroup,
		Age:         req.Age,
		Gender:      req.Gender,
		Education:   req.Education,
		Experience:  req.Experience,
	})
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	writeSuccess(w, result, "Registration successful")
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// HandleLogin — POST /rpc/login
func (h *AuthHandler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := decode(r, &req); err != nil {
		writeError(w, h.logger, err)
		return
	}

	if !emailPattern.MatchString(req.Email) {
		writeError(w, h.logger, apperror.BadRequest("Invalid email address"))
		return
	}
	if req.Password == "" {
		writeError(w, h.logger, apperror.BadRequest("Password is required"))
		return
	}

	result, err := h.service.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	writeSuccess(w, result, "Login successful")
}

type TokenRequest struct {
	Token string `json:"token"`
}

// HandleRefreshToken — POST /rpc/refreshToken
func (h *AuthHandler) HandleRefreshToken(w http.ResponseWriter, r *http.Request) {
	var req TokenRequest
	if err := decode(r, &req); err != nil {
		writeError(w, h.logger, err)
		return
	}
	if req.Token == "" {
		writeError(w, h.logger, apperror.BadRequest("Token is required"))
		return
	}

	result, err := h.service.RefreshToken(r.Context(), req.Token)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	writeSuccess(w, result, "Token refreshed")
}

// HandleValidateToken — POST /rpc/validateToken
func (h *AuthHandler) HandleValidateToken(w http.ResponseWriter, r *http.Request) {
	var req TokenRequest
	if err := decode(r, &req); err != nil {
		writeError(w, h.logger, err)
		return
	}
	if req.Token == "" {
		writeError(w, h.logger, apperror.BadRequest("Token is required"))
		return
	}

	claims, err := h.service.ValidateToken(req.Token)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	writeSuccess(w, map[string]any{
		"valid":   true,
		"decoded": claims,
	}, "Token is valid")
}

type ForgotPasswordRequest struct {
	Email string `json:"email"`
}

// HandleForgotPassword — POST /rpc/forgotPassword
func (h *AuthHandler) HandleForgotPassword(w http.ResponseWriter, r *http.Request) {
	var req ForgotPasswordRequest
	if err := decode(r, &req); err != nil {
		writeError(w, h.logger, err)
		return
	}
	if !emailPattern.MatchString(req.Email) {
		writeError(w, h.logger, apperror.BadRequest("Invalid email address"))
		return
	}

	if err := h.service.ForgotPassword(r.Context(), req.Email); err != nil {
		writeError(w, h.logger, err)
		return
	}

	writeSuccess(w, nil, "Reset link sent to email")
}

type ResetPasswordRequest struct {
	Token       string `json:"token"`
	NewPassword string `json:"new_password"`
}

// HandleResetPassword — POST /rpc/resetPassword
func (h *AuthHandler) HandleResetPassword(w http.ResponseWriter, r *http.Request) {
	var req ResetPasswordRequest
	if err := decode(r, &req); err != nil {
		writeError(w, h.logger, err)
		return
	}
	if req.Token == "" {
		writeError(w, h.logger, apperror.BadRequest("Token is required"))
		return
	}
	if len(req.NewPassword) < minPasswordLength {
		writeError(w, h.logger, apperror.BadRequest("Password must be at least 6 characters"))
		return
	}

	if err := h.service.ResetPassword(r.Context(), req.Token, req.NewPassword); err != nil {
		writeError(w, h.logger, err)
		return
	}

	writeSuccess(w, nil, "Password reset successful")
}

type GoogleAuthURLRequest struct {
	State string `json:"state"`
}

// HandleGoogleAuthURL — POST /rpc/googleAuthURL
//
// Returns the Google authorization URL for the gateway to redirect the
// user to. The state value is the gateway's CSRF token; it is opaque here
// and must be verified by the gateway on callback.
func (h *AuthHandler) HandleGoogleAuthURL(w http.ResponseWriter, r *http.Request) {
	var req GoogleAuthURLRequest
	if err := decode(r, &req); err != nil {
		writeError(w, h.logger, err)
		return
	}
	if req.State == "" {
		writeError(w, h.logger, apperror.BadRequest("State is required"))
		return
	}

	writeSuccess(w, map[string]string{"url": h.google.AuthURL(req.State)}, "")
}

// ValidateGoogleRequest covers both sign-in paths the gateway uses: a raw
// authorization code for a server-side exchange, or an assertion the
// gateway already verified against Google.
type ValidateGoogleRequest struct {
	Code string `json:"code"`

	GoogleID string `json:"google_id"`
	Email    string `json:"email"`
	FullName string `json:"full_name"`
	Picture  string `json:"picture"`
}

// HandleValidateGoogle — POST /rpc/validateExternalIdentity
//
// The exchange fails closed: no verified email, no session — there is no
// partial success.
func (h *AuthHandler) HandleValidateGoogle(w http.ResponseWriter, r *http.Request) {
	var req ValidateGoogleRequest
	if err := decode(r, &req); err != nil {
		writeError(w, h.logger, err)
		return
	}

	var identity *auth.GoogleIdentity
	switch {
	case req.Code != "":
		exchanged, err := h.google.Exchange(r.Context(), req.Code)
		if err != nil {
			h.logger.Warn("google exchange rejected", slog.String("error", err.Error()))
			writeError(w, h.logger, apperror.Unauthorized("Failed to authenticate with Google"))
			return
		}
		identity = exchanged

	case req.GoogleID != "" && req.Email != "":
		identity = &auth.GoogleIdentity{
			Subject:  req.GoogleID,
			Email:    req.Email,
			FullName: req.FullName,
			Picture:  req.Picture,
		}

	default:
		writeError(w, h.logger, apperror.BadRequest("Authorization code or verified Google profile required"))
		return
	}

	result, err := h.service.LoginWithGoogle(r.Context(), identity)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	writeSuccess(w, result, "Google login successful")
}
