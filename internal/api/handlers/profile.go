package handlers

import (
	"errors"
	"io"
	"net/http"

	"github.com/dom/noteshare/internal/api/middleware"
	"github.com/dom/noteshare/internal/domain"
	"github.com/dom/noteshare/internal/service"
	"github.com/dom/noteshare/internal/storage"
)

// multipartOverhead is the slack allowed on top of the avatar cap for the
// multipart envelope.
const multipartOverhead = 64 << 10

type ProfileHandler struct {
	profileService *service.ProfileService
	maxAvatarBytes int64
}

func NewProfileHandler(profileService *service.ProfileService, maxAvatarBytes int64) *ProfileHandler {
	return &ProfileHandler{
		profileService: profileService,
		maxAvatarBytes: maxAvatarBytes,
	}
}

type UpdateProfileRequest struct {
	Username        *string `json:"username"`
	Email           *string `json:"email"`
	CurrentPassword *string `json:"currentPassword"`
	NewPassword     *string `json:"newPassword"`
	Avatar          *string `json:"avatar"`
}

type AvatarResponse struct {
	AvatarURL string       `json:"avatarUrl"`
	User      *domain.User `json:"user"`
}

func (h *ProfileHandler) GetProfile(w http.ResponseWriter, r *http.Request) {
	user, err := h.profileService.GetOwnProfile(r.Context(), middleware.GetClaims(r.Context()))
	if err != nil {
		writeError(w, "profile.GetProfile", err)
		return
	}

	writeJSON(w, http.StatusOK, user)
}

func (h *ProfileHandler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserID(r.Context())
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	var req UpdateProfileRequest
	if err := decodeJSON(w, r, &req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	user, err := h.profileService.UpdateProfile(r.Context(), middleware.GetClaims(r.Context()), userID, service.UpdateProfileInput{
		Username:        req.Username,
		Email:           req.Email,
		CurrentPassword: req.CurrentPassword,
		NewPassword:     req.NewPassword,
		Avatar:          req.Avatar,
	})
	if err != nil {
		writeError(w, "profile.UpdateProfile", err)
		return
	}

	writeJSON(w, http.StatusOK, user)
}

func (h *ProfileHandler) UploadAvatar(w http.ResponseWriter, r *http.Request) {
	if r.ContentLength > h.maxAvatarBytes+multipartOverhead {
		writeError(w, "profile.UploadAvatar", storage.ErrAvatarTooLarge)
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, h.maxAvatarBytes+multipartOverhead)
	if err := r.ParseMultipartForm(h.maxAvatarBytes + multipartOverhead); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, "profile.UploadAvatar", storage.ErrAvatarTooLarge)
			return
		}
		http.Error(w, "Invalid multipart form", http.StatusBadRequest)
		return
	}
	defer r.MultipartForm.RemoveAll()

	file, header, err := r.FormFile("avatar")
	if err != nil {
		http.Error(w, "Avatar file is required", http.StatusBadRequest)
		return
	}
	defer file.Close()

	// One byte past the cap is enough to know it is too large.
	data, err := io.ReadAll(io.LimitReader(file, h.maxAvatarBytes+1))
	if err != nil {
		http.Error(w, "Failed to read avatar", http.StatusBadRequest)
		return
	}

	user, err := h.profileService.UploadAvatar(r.Context(), middleware.GetClaims(r.Context()), data, header.Header.Get("Content-Type"))
	if err != nil {
		writeError(w, "profile.UploadAvatar", err)
		return
	}

	writeJSON(w, http.StatusOK, AvatarResponse{AvatarURL: user.Avatar, User: user})
}
