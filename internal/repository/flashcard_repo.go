package repository

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"studynotes-backend/internal/models"
)

type FlashcardRepo struct {
	pool *pgxpool.Pool
}

func NewFlashcardRepo(pool *pgxpool.Pool) *FlashcardRepo {
	return &FlashcardRepo{pool: pool}
}

const flashcardColumns = `f.card_id, f.note_id, f.question, f.answer, f.type, f.learned,
	f.last_studied, f.times_reviewed, f.created_at`

func scanFlashcard(row pgx.Row, c *models.Flashcard, extra ...any) error {
	dest := []any{
		&c.ID, &c.NoteID, &c.Question, &c.Answer, &c.Type, &c.Learned,
		&c.LastStudied, &c.TimesReviewed, &c.CreatedAt,
	}
	return row.Scan(append(dest, extra...)...)
}

func collectFlashcards(rows pgx.Rows) ([]models.Flashcard, error) {
	defer rows.Close()

	cards := make([]models.Flashcard, 0)
	for rows.Next() {
		var c models.Flashcard
		if err := scanFlashcard(rows, &c); err != nil {
			return nil, err
		}
		cards = append(cards, c)
	}
	return cards, rows.Err()
}

// ListByNote returns the note's flashcards in creation order. Only the note's
// owner sees them; any other user gets an empty slice.
func (r *FlashcardRepo) ListByNote(ctx context.Context, noteID, userID int64) ([]models.Flashcard, error) {
	query := `SELECT ` + flashcardColumns + `
		FROM flashcards f
		JOIN notes n ON n.note_id = f.note_id
		WHERE f.note_id = $1 AND n.user_id = $2
		ORDER BY f.card_id ASC`

	rows, err := r.pool.Query(ctx, query, noteID, userID)
	if err != nil {
		return nil, err
	}
	return collectFlashcards(rows)
}

func (r *FlashcardRepo) ListByUser(ctx context.Context, userID int64) ([]models.Flashcard, error) {
	query := `SELECT ` + flashcardColumns + `
		FROM flashcards f
		JOIN notes n ON n.note_id = f.note_id
		WHERE n.user_id = $1
		ORDER BY f.note_id ASC, f.card_id ASC`

	rows, err := r.pool.Query(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	return collectFlashcards(rows)
}

// ReplaceForNote swaps the note's whole flashcard set in one transaction.
func (r *FlashcardRepo) ReplaceForNote(ctx context.Context, noteID int64, cards []models.FlashcardInput) ([]models.Flashcard, error) {
	stored := make([]models.Flashcard, 0, len(cards))

	err := pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, "DELETE FROM flashcards WHERE note_id = $1", noteID); err != nil {
			return err
		}

		for _, in := range cards {
			var cardType *string
			if in.Type != "" {
				t := in.Type
				cardType = &t
			}

			c := models.Flashcard{
				NoteID:   noteID,
				Question: in.Question,
				Answer:   in.Answer,
				Type:     cardType,
			}
			err := tx.QueryRow(ctx,
				`INSERT INTO flashcards (note_id, question, answer, type, learned, times_reviewed)
				 VALUES ($1, $2, $3, $4, FALSE, 0)
				 RETURNING card_id, created_at`,
				noteID, in.Question, in.Answer, cardType,
			).Scan(&c.ID, &c.CreatedAt)
			if err != nil {
				return err
			}
			stored = append(stored, c)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return stored, nil
}

func (r *FlashcardRepo) DeleteForNote(ctx context.Context, noteID int64) error {
	_, err := r.pool.Exec(ctx, "DELETE FROM flashcards WHERE note_id = $1", noteID)
	return err
}

// GetByID returns pgx.ErrNoRows when the card does not exist.
func (r *FlashcardRepo) GetByID(ctx context.Context, cardID int64) (*models.OwnedFlashcard, error) {
	c := &models.OwnedFlashcard{}
	query := `SELECT ` + flashcardColumns + `, n.user_id, n.language
		FROM flashcards f
		JOIN notes n ON n.note_id = f.note_id
		WHERE f.card_id = $1`

	if err := scanFlashcard(r.pool.QueryRow(ctx, query, cardID), &c.Flashcard, &c.OwnerID, &c.NoteLanguage); err != nil {
		return nil, err
	}
	return c, nil
}

func (r *FlashcardRepo) CountByNote(ctx context.Context, noteID int64) (int, error) {
	var count int
	err := r.pool.QueryRow(ctx, "SELECT COUNT(*) FROM flashcards WHERE note_id = $1", noteID).Scan(&count)
	return count, err
}
