package handlers

import (
	"context"
	"net/http"

	"studynotes-backend/internal/middleware"
	"studynotes-backend/internal/models"
)

type llmService interface {
	GenerateSummary(ctx context.Context, userID, noteID int64) (*models.SummaryResult, error)
	GenerateFlashcards(ctx context.Context, userID, noteID int64) ([]models.Flashcard, error)
	CheckAnswer(ctx context.Context, req models.CheckAnswerRequest) (*models.Evaluation, error)
}

type LLMHandler struct {
	llmService llmService
}

func NewLLMHandler(llmService llmService) *LLMHandler {
	return &LLMHandler{llmService: llmService}
}

func (h *LLMHandler) GenerateSummary(w http.ResponseWriter, r *http.Request) {
	noteID, ok := idParam(w, r, "noteId")
	if !ok {
		return
	}

	result, err := h.llmService.GenerateSummary(r.Context(), middleware.GetUserID(r.Context()), noteID)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (h *LLMHandler) GenerateFlashcards(w http.ResponseWriter, r *http.Request) {
	noteID, ok := idParam(w, r, "noteId")
	if !ok {
		return
	}

	cards, err := h.llmService.GenerateFlashcards(r.Context(), middleware.GetUserID(r.Context()), noteID)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]interface{}{"flashcards": cards})
}

func (h *LLMHandler) CheckAnswer(w http.ResponseWriter, r *http.Request) {
	var req models.CheckAnswerRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	evaluation, err := h.llmService.CheckAnswer(r.Context(), req)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, evaluation)
}
