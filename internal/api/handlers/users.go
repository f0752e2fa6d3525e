package handlers

import (
	"net/http"

	"github.com/dom/noteshare/internal/service"
)

type UserHandler struct {
	profileService *service.ProfileService
	noteService    *service.NoteService
}

func NewUserHandler(profileService *service.ProfileService, noteService *service.NoteService) *UserHandler {
	return &UserHandler{profileService: profileService, noteService: noteService}
}

func (h *UserHandler) GetProfile(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, "users.GetProfile", err)
		return
	}

	profile, err := h.profileService.GetPublicProfile(r.Context(), id)
	if err != nil {
		writeError(w, "users.GetProfile", err)
		return
	}

	writeJSON(w, http.StatusOK, profile)
}

func (h *UserHandler) ListNotes(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, "users.ListNotes", err)
		return
	}

	notes, err := h.noteService.ListPublicByAuthor(r.Context(), id)
	if err != nil {
		writeError(w, "users.ListNotes", err)
		return
	}

	writeJSON(w, http.StatusOK, NoteListResponse{Notes: notes})
}
