package services

import (
	"context"
	"errors"
	"strings"

	"github.com/jackc/pgx/v5"
	"go.opentelemetry.io/otel/attribute"

	"studynotes-backend/internal/logger"
	"studynotes-backend/internal/metrics"
	"studynotes-backend/internal/models"
	"studynotes-backend/internal/tracing"
)

// QuizService runs a quiz over a note's flashcards. Quiz state per (user, note)
// is derived from the attempt log: not started, in progress, or completed
// once every card has an answered attempt.
type QuizService struct {
	notes      NoteStore
	flashcards FlashcardStore
	attempts   AttemptStore
	grader     Grader
	progress   *ProgressCalculator
	publisher  UpdatePublisher
	log        *logger.Logger
}

func NewQuizService(
	notes NoteStore,
	flashcards FlashcardStore,
	attempts AttemptStore,
	grader Grader,
	publisher UpdatePublisher,
	log *logger.Logger,
) *QuizService {
	return &QuizService{
		notes:      notes,
		flashcards: flashcards,
		attempts:   attempts,
		grader:     grader,
		progress:   NewProgressCalculator(flashcards, attempts),
		publisher:  publisher,
		log:        log,
	}
}

func (s *QuizService) requireNote(ctx context.Context, userID, noteID int64) (*models.Note, error) {
	note, err := s.notes.GetByIDForUser(ctx, noteID, userID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, &NotFoundError{Message: MsgNoteNotFound}
		}
		return nil, &PersistenceError{Op: "load note", Err: err}
	}
	return note, nil
}

func toQuizCards(cards []models.Flashcard) []models.QuizCard {
	out := make([]models.QuizCard, len(cards))
	for i, c := range cards {
		out[i] = models.QuizCard{CardID: c.ID, Question: c.Question}
		if c.Type != nil {
			out[i].Type = *c.Type
		}
	}
	return out
}

// StartQuiz returns the note's cards without their answers.
func (s *QuizService) StartQuiz(ctx context.Context, userID, noteID int64) ([]models.QuizCard, error) {
	if _, err := s.requireNote(ctx, userID, noteID); err != nil {
		return nil, err
	}

	cards, err := s.flashcards.ListByNote(ctx, noteID, userID)
	if err != nil {
		return nil, &PersistenceError{Op: "list flashcards", Err: err}
	}
	if len(cards) == 0 {
		return nil, &NotFoundError{Message: MsgNoFlashcards}
	}

	return toQuizCards(cards), nil
}

// SubmitAnswer grades the answer and appends it to the attempt log. Nothing is
// written when grading fails.
func (s *QuizService) SubmitAnswer(ctx context.Context, userID, cardID int64, answer string) (*models.SubmitAnswerResult, error) {
	if strings.TrimSpace(answer) == "" {
		return nil, &ValidationError{Fields: map[string]string{"answer": MsgFieldRequired}}
	}

	ctx, span := tracing.Start(ctx, "quiz.submit_answer",
		attribute.Int64("user_id", userID),
		attribute.Int64("card_id", cardID),
	)
	defer span.End()

	card, err := s.flashcards.GetByID(ctx, cardID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, &NotFoundError{Message: MsgFlashcardNotFound}
		}
		return nil, &PersistenceError{Op: "load flashcard", Err: err}
	}

	if card.OwnerID != userID {
		return nil, &PermissionError{Message: MsgCardPermissionDenied}
	}

	eval, err := s.grader.Grade(ctx, card.Question, card.Answer, answer, card.Language())
	if err != nil {
		return nil, err
	}

	attempt := &models.QuizAttempt{
		UserID:     userID,
		CardID:     card.ID,
		Answer:     answer,
		AIFeedback: eval.Evaluation,
		Verdict:    eval.Verdict,
	}
	if err := s.attempts.RecordAttempt(ctx, attempt); err != nil {
		return nil, &PersistenceError{Op: "record attempt", Err: err}
	}
	metrics.AnswersSubmitted.WithLabelValues(eval.Verdict).Inc()
	span.SetAttributes(attribute.String("quiz.verdict", eval.Verdict))

	progress, err := s.progress.GetProgress(ctx, userID, card.NoteID)
	if err != nil {
		return nil, err
	}

	s.publishProgress(ctx, userID, &models.QuizProgressEvent{
		NoteID:    card.NoteID,
		CardID:    card.ID,
		Verdict:   eval.Verdict,
		Progress:  progress,
		Completed: progress.Completed(),
	})

	return &models.SubmitAnswerResult{
		AttemptID:  attempt.ID,
		Evaluation: eval.Evaluation,
		Verdict:    eval.Verdict,
		Progress:   progress,
	}, nil
}

func (s *QuizService) publishProgress(ctx context.Context, userID int64, event *models.QuizProgressEvent) {
	if s.publisher == nil {
		return
	}
	msg := models.WSMessage{Type: models.WSTypeQuizProgress, Payload: event}
	if err := s.publisher.PublishUpdate(ctx, userID, msg); err != nil {
		s.log.Warn("failed to publish quiz progress", "user_id", userID, "note_id", event.NoteID, "error", err)
	}
}

func (s *QuizService) GetProgress(ctx context.Context, userID, noteID int64) (*models.Progress, error) {
	if _, err := s.requireNote(ctx, userID, noteID); err != nil {
		return nil, err
	}
	return s.progress.GetProgress(ctx, userID, noteID)
}

// NextFlashcard returns the first card with no answered attempt, or nil once
// the quiz is complete.
func (s *QuizService) NextFlashcard(ctx context.Context, userID, noteID int64) (*models.QuizCard, error) {
	if _, err := s.requireNote(ctx, userID, noteID); err != nil {
		return nil, err
	}

	cards, err := s.flashcards.ListByNote(ctx, noteID, userID)
	if err != nil {
		return nil, &PersistenceError{Op: "list flashcards", Err: err}
	}
	if len(cards) == 0 {
		return nil, &NotFoundError{Message: MsgNoFlashcards}
	}

	answered, err := s.attempts.AnsweredCardIDs(ctx, userID, noteID)
	if err != nil {
		return nil, &PersistenceError{Op: "list answered flashcards", Err: err}
	}

	for _, qc := range toQuizCards(cards) {
		if _, done := answered[qc.CardID]; !done {
			next := qc
			return &next, nil
		}
	}
	return nil, nil
}

func (s *QuizService) History(ctx context.Context, userID, noteID int64) ([]models.QuizAttempt, error) {
	if _, err := s.requireNote(ctx, userID, noteID); err != nil {
		return nil, err
	}

	attempts, err := s.attempts.ListAttempts(ctx, userID, noteID)
	if err != nil {
		return nil, &PersistenceError{Op: "list attempts", Err: err}
	}
	return attempts, nil
}
