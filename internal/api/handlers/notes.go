package handlers

import (
	"net/http"
	"strconv"

	"github.com/dom/noteshare/internal/api/middleware"
	"github.com/dom/noteshare/internal/domain"
	"github.com/dom/noteshare/internal/service"
)

type NoteHandler struct {
	noteService *service.NoteService
}

func NewNoteHandler(noteService *service.NoteService) *NoteHandler {
	return &NoteHandler{noteService: noteService}
}

type CreateNoteRequest struct {
	Title    string `json:"title"`
	Content  string `json:"content"`
	IsPublic *bool  `json:"isPublic"`
}

type UpdateNoteRequest struct {
	Title    *string `json:"title"`
	Content  *string `json:"content"`
	IsPublic *bool   `json:"isPublic"`
}

type NoteListResponse struct {
	Notes []*domain.NoteView `json:"notes"`
}

func (h *NoteHandler) List(w http.ResponseWriter, r *http.Request) {
	limit := queryInt(r, "limit", 0)
	offset := queryInt(r, "offset", 0)

	notes, err := h.noteService.ListPublic(r.Context(), limit, offset)
	if err != nil {
		writeError(w, "notes.List", err)
		return
	}

	writeJSON(w, http.StatusOK, NoteListResponse{Notes: notes})
}

func (h *NoteHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, "notes.Get", err)
		return
	}

	note, err := h.noteService.Get(r.Context(), middleware.GetClaims(r.Context()), id)
	if err != nil {
		writeError(w, "notes.Get", err)
		return
	}

	writeJSON(w, http.StatusOK, note)
}

func (h *NoteHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req CreateNoteRequest
	if err := decodeJSON(w, r, &req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	note, err := h.noteService.Create(r.Context(), middleware.GetClaims(r.Context()), service.CreateNoteInput{
		Title:    req.Title,
		Content:  req.Content,
		IsPublic: req.IsPublic,
	})
	if err != nil {
		writeError(w, "notes.Create", err)
		return
	}

	writeJSON(w, http.StatusCreated, note)
}

func (h *NoteHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, "notes.Update", err)
		return
	}

	var req UpdateNoteRequest
	if err := decodeJSON(w, r, &req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	note, err := h.noteService.Update(r.Context(), middleware.GetClaims(r.Context()), id, service.UpdateNoteInput{
		Title:    req.Title,
		Content:  req.Content,
		IsPublic: req.IsPublic,
	})
	if err != nil {
		writeError(w, "notes.Update", err)
		return
	}

	writeJSON(w, http.StatusOK, note)
}

func (h *NoteHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, "notes.Delete", err)
		return
	}

	if err := h.noteService.Delete(r.Context(), middleware.GetClaims(r.Context()), id); err != nil {
		writeError(w, "notes.Delete", err)
		return
	}

	writeJSON(w, http.StatusOK, messageResponse{Message: "Note deleted"})
}

func (h *NoteHandler) ListMine(w http.ResponseWriter, r *http.Request) {
	notes, err := h.noteService.ListMine(r.Context(), middleware.GetClaims(r.Context()))
	if err != nil {
		writeError(w, "notes.ListMine", err)
		return
	}

	writeJSON(w, http.StatusOK, NoteListResponse{Notes: notes})
}

func queryInt(r *http.Request, key string, fallback int) int {
	v, err := strconv.Atoi(r.URL.Query().Get(key))
	if err != nil {
		return fallback
	}
	return v
}
