package services

import (
	"context"

	"studynotes-backend/internal/models"
)

// Storage contracts. The repository package provides the PostgreSQL
// implementations; tests use in-memory fakes.

type UserStore interface {
	Create(ctx context.Context, user *models.User) error
	GetByID(ctx context.Context, id int64) (*models.User, error)
	GetByUsername(ctx context.Context, username string) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	Update(ctx context.Context, user *models.User) error
	UpdatePassword(ctx context.Context, userID int64, passwordHash string) error
	Delete(ctx context.Context, userID int64) error
}

type NoteStore interface {
	Create(ctx context.Context, n *models.Note) error
	GetByIDForUser(ctx context.Context, noteID, userID int64) (*models.Note, error)
	ListByUser(ctx context.Context, userID int64) ([]models.Note, error)
	Update(ctx context.Context, n *models.Note) error
	UpdateSummary(ctx context.Context, noteID int64, summary, language string) error
	Delete(ctx context.Context, noteID, userID int64) error
}

type FlashcardStore interface {
	ListByNote(ctx context.Context, noteID, userID int64) ([]models.Flashcard, error)
	ListByUser(ctx context.Context, userID int64) ([]models.Flashcard, error)
	ReplaceForNote(ctx context.Context, noteID int64, cards []models.FlashcardInput) ([]models.Flashcard, error)
	DeleteForNote(ctx context.Context, noteID int64) error
	GetByID(ctx context.Context, cardID int64) (*models.OwnedFlashcard, error)
	CountByNote(ctx context.Context, noteID int64) (int, error)
}

type AttemptStore interface {
	RecordAttempt(ctx context.Context, a *models.QuizAttempt) error
	CountAnsweredCards(ctx context.Context, userID, noteID int64) (int, error)
	AnsweredCardIDs(ctx context.Context, userID, noteID int64) (map[int64]struct{}, error)
	ListAttempts(ctx context.Context, userID, noteID int64) ([]models.QuizAttempt, error)
}

// Grader evaluates one free-text answer.
type Grader interface {
	Grade(ctx context.Context, question, correctAnswer, userAnswer, language string) (*models.Evaluation, error)
}

// UpdatePublisher delivers a message to every live connection of a user.
type UpdatePublisher interface {
	PublishUpdate(ctx context.Context, userID int64, msg models.WSMessage) error
}
