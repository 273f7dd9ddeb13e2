package services

import (
	"context"
	"math"

	"studynotes-backend/internal/models"
)

type ProgressCalculator struct {
	flashcards FlashcardStore
	attempts   AttemptStore
}

func NewProgressCalculator(flashcards FlashcardStore, attempts AttemptStore) *ProgressCalculator {
	return &ProgressCalculator{flashcards: flashcards, attempts: attempts}
}

// GetProgress reads the current counts; nothing is cached.
func (p *ProgressCalculator) GetProgress(ctx context.Context, userID, noteID int64) (*models.Progress, error) {
	total, err := p.flashcards.CountByNote(ctx, noteID)
	if err != nil {
		return nil, &PersistenceError{Op: "count flashcards", Err: err}
	}

	answered, err := p.attempts.CountAnsweredCards(ctx, userID, noteID)
	if err != nil {
		return nil, &PersistenceError{Op: "count answered flashcards", Err: err}
	}

	return computeProgress(total, answered), nil
}

func computeProgress(total, answered int) *models.Progress {
	if answered > total {
		answered = total
	}
	if answered < 0 {
		answered = 0
	}

	var percent float64
	if total > 0 {
		percent = math.Round(float64(answered)/float64(total)*100*100) / 100
	}

	return &models.Progress{
		TotalFlashcards:    total,
		AnsweredFlashcards: answered,
		ProgressPercent:    percent,
	}
}
