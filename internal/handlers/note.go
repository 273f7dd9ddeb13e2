package handlers

import (
	"context"
	"io"
	"net/http"

	"studynotes-backend/internal/middleware"
	"studynotes-backend/internal/models"
	"studynotes-backend/internal/services"
)

type noteService interface {
	Create(ctx context.Context, userID int64, req models.CreateNoteRequest) (*models.Note, error)
	Get(ctx context.Context, userID, noteID int64) (*models.Note, error)
	List(ctx context.Context, userID int64) ([]models.Note, error)
	Update(ctx context.Context, userID, noteID int64, req models.UpdateNoteRequest) (*models.Note, error)
	Delete(ctx context.Context, userID, noteID int64) error
	ImportFile(ctx context.Context, userID int64, filename string, data []byte) (*models.Note, error)
	ImportYouTube(ctx context.Context, userID int64, url string) (*models.Note, error)
}

type NoteHandler struct {
	noteService noteService
}

func NewNoteHandler(noteService noteService) *NoteHandler {
	return &NoteHandler{noteService: noteService}
}

func (h *NoteHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req models.CreateNoteRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	note, err := h.noteService.Create(r.Context(), middleware.GetUserID(r.Context()), req)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, note)
}

func (h *NoteHandler) List(w http.ResponseWriter, r *http.Request) {
	notes, err := h.noteService.List(r.Context(), middleware.GetUserID(r.Context()))
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"notes": notes})
}

func (h *NoteHandler) Get(w http.ResponseWriter, r *http.Request) {
	noteID, ok := idParam(w, r, "noteId")
	if !ok {
		return
	}

	note, err := h.noteService.Get(r.Context(), middleware.GetUserID(r.Context()), noteID)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, note)
}

func (h *NoteHandler) Update(w http.ResponseWriter, r *http.Request) {
	noteID, ok := idParam(w, r, "noteId")
	if !ok {
		return
	}
	var req models.UpdateNoteRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	note, err := h.noteService.Update(r.Context(), middleware.GetUserID(r.Context()), noteID, req)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, note)
}

func (h *NoteHandler) Delete(w http.ResponseWriter, r *http.Request) {
	noteID, ok := idParam(w, r, "noteId")
	if !ok {
		return
	}

	if err := h.noteService.Delete(r.Context(), middleware.GetUserID(r.Context()), noteID); err != nil {
		handleServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "Note deleted successfully."})
}

func (h *NoteHandler) ImportFile(w http.ResponseWriter, r *http.Request) {
	if r.ContentLength > services.MaxUploadBytes {
		writeJSON(w, http.StatusRequestEntityTooLarge, errorResp("FILE_TOO_LARGE", "File size exceeds 10MB limit", r))
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, services.MaxUploadBytes+1<<20)

	file, header, err := r.FormFile("file")
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "No file provided", r))
		return
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, services.MaxUploadBytes+1))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Could not read uploaded file", r))
		return
	}
	if len(data) > services.MaxUploadBytes {
		writeJSON(w, http.StatusRequestEntityTooLarge, errorResp("FILE_TOO_LARGE", "File size exceeds 10MB limit", r))
		return
	}

	note, err := h.noteService.ImportFile(r.Context(), middleware.GetUserID(r.Context()), header.Filename, data)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, note)
}

func (h *NoteHandler) ImportYouTube(w http.ResponseWriter, r *http.Request) {
	var req models.ImportYouTubeRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	note, err := h.noteService.ImportYouTube(r.Context(), middleware.GetUserID(r.Context()), req.URL)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, note)
}
