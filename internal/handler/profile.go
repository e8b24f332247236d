package handler

import (
	"encoding/base64"
	"log/slog"
	"net/http"

	"github.com/medibook/auth-service/internal/apperror"
	"github.com/medibook/auth-service/internal/auth"
	"github.com/medibook/auth-service/internal/model"
	"github.com/medibook/auth-service/internal/service"
)

// ProfileHandler serves the profile operations. The profile routes run
// under auth.RequireAuth, so every handler here acts on the session's
// subject — the gateway cannot read or mutate someone else's profile.
type ProfileHandler struct {
	service *service.AccountService
	logger  *slog.Logger
}

func NewProfileHandler(svc *service.AccountService, logger *slog.Logger) *ProfileHandler {
	return &ProfileHandler{
		service: svc,
		logger:  logger,
	}
}

func (h *ProfileHandler) subject(w http.ResponseWriter, r *http.Request) (string, bool) {
	claims, ok := auth.ClaimsFromContext(r.Context())
	if !ok {
		// Unreachable behind RequireAuth, but don't bank on route wiring.
		writeError(w, h.logger, apperror.Unauthorized("Invalid token"))
		return "", false
	}
	return claims.Subject, true
}

// HandleGetProfile — POST /rpc/getProfile
func (h *ProfileHandler) HandleGetProfile(w http.ResponseWriter, r *http.Request) {
	id, ok := h.subject(w, r)
	if !ok {
		return
	}

	profile, err := h.service.GetProfile(r.Context(), id)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	writeSuccess(w, profile, "")
}

// HandleUpdateProfile — POST /rpc/updateProfile
func (h *ProfileHandler) HandleUpdateProfile(w http.ResponseWriter, r *http.Request) {
	id, ok := h.subject(w, r)
	if !ok {
		return
	}

	var patch model.ProfilePatch
	if err := decode(r, &patch); err != nil {
		writeError(w, h.logger, err)
		return
	}

	profile, err := h.service.UpdateProfile(r.Context(), id, &patch)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	writeSuccess(w, profile, "Profile updated successfully")
}

// UploadPhotoRequest carries the photo as base64 so it can ride the same
// JSON envelope as every other operation.
type UploadPhotoRequest struct {
	ContentType string `json:"content_type"`
	Data        string `json:"data"`
}

// HandleUploadPhoto — POST /rpc/uploadProfilePhoto
func (h *ProfileHandler) HandleUploadPhoto(w http.ResponseWriter, r *http.Request) {
	id, ok := h.subject(w, r)
	if !ok {
		return
	}

	var req UploadPhotoRequest
	if err := decode(r, &req); err != nil {
		writeError(w, h.logger, err)
		return
	}

	data, err := base64.StdEncoding.DecodeString(req.Data)
	if err != nil {
		writeError(w, h.logger, apperror.BadRequest("Photo payload is not valid base64"))
		return
	}

	result, err := h.service.UploadProfilePhoto(r.Context(), id, req.ContentType, data)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	writeSuccess(w, result, "Profile photo updated successfully")
}

// HandleGetAllPatients — POST /rpc/getAllPatients
func (h *ProfileHandler) HandleGetAllPatients(w http.ResponseWriter, r *http.Request) {
	h.listByRole(w, r, model.RolePatient)
}

// HandleGetAllDoctors — POST /rpc/getAllDoctors
func (h *ProfileHandler) HandleGetAllDoctors(w http.ResponseWriter, r *http.Request) {
	h.listByRole(w, r, model.RoleDoctor)
}

func (h *ProfileHandler) listByRole(w http.ResponseWriter, r *http.Request, role model.Role) {
	profiles, err := h.service.ListByRole(r.Context(), role)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	writeSuccess(w, profiles, "")
}
