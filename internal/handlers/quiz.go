package handlers

import (
	"context"
	"net/http"

	"studynotes-backend/internal/middleware"
	"studynotes-backend/internal/models"
)

type quizService interface {
	StartQuiz(ctx context.Context, userID, noteID int64) ([]models.QuizCard, error)
	SubmitAnswer(ctx context.Context, userID, cardID int64, answer string) (*models.SubmitAnswerResult, error)
	GetProgress(ctx context.Context, userID, noteID int64) (*models.Progress, error)
	NextFlashcard(ctx context.Context, userID, noteID int64) (*models.QuizCard, error)
	History(ctx context.Context, userID, noteID int64) ([]models.QuizAttempt, error)
}

type QuizHandler struct {
	quizService quizService
}

func NewQuizHandler(quizService quizService) *QuizHandler {
	return &QuizHandler{quizService: quizService}
}

func (h *QuizHandler) Start(w http.ResponseWriter, r *http.Request) {
	noteID, ok := idParam(w, r, "noteId")
	if !ok {
		return
	}

	cards, err := h.quizService.StartQuiz(r.Context(), middleware.GetUserID(r.Context()), noteID)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"flashcards": cards})
}

func (h *QuizHandler) Answer(w http.ResponseWriter, r *http.Request) {
	cardID, ok := idParam(w, r, "cardId")
	if !ok {
		return
	}
	var req models.SubmitAnswerRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	result, err := h.quizService.SubmitAnswer(r.Context(), middleware.GetUserID(r.Context()), cardID, req.Answer)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (h *QuizHandler) Next(w http.ResponseWriter, r *http.Request) {
	noteID, ok := idParam(w, r, "noteId")
	if !ok {
		return
	}

	card, err := h.quizService.NextFlashcard(r.Context(), middleware.GetUserID(r.Context()), noteID)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"flashcard": card,
		"completed": card == nil,
	})
}

func (h *QuizHandler) Progress(w http.ResponseWriter, r *http.Request) {
	noteID, ok := idParam(w, r, "noteId")
	if !ok {
		return
	}

	progress, err := h.quizService.GetProgress(r.Context(), middleware.GetUserID(r.Context()), noteID)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, progress)
}

func (h *QuizHandler) History(w http.ResponseWriter, r *http.Request) {
	noteID, ok := idParam(w, r, "noteId")
	if !ok {
		return
	}

	attempts, err := h.quizService.History(r.Context(), middleware.GetUserID(r.Context()), noteID)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"attempts": attempts})
}
