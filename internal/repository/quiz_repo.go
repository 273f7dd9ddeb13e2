package repository

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"studynotes-backend/internal/models"
)

type QuizRepo struct {
	pool *pgxpool.Pool
}

func NewQuizRepo(pool *pgxpool.Pool) *QuizRepo {
	return &QuizRepo{pool: pool}
}

// RecordAttempt appends the attempt and updates the card's review state
// atomically. a.ID and a.CreatedAt are filled in on success.
func (r *QuizRepo) RecordAttempt(ctx context.Context, a *models.QuizAttempt) error {
	a.Answered = true
	if a.Verdict == "" {
		a.Verdict = models.VerdictUnknown
	}

	return pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		err := tx.QueryRow(ctx,
			`INSERT INTO quiz_attempts (user_id, card_id, answer, ai_feedback, verdict, answered)
			 VALUES ($1, $2, $3, $4, $5, $6)
			 RETURNING attempt_id, created_at`,
			a.UserID, a.CardID, a.Answer, a.AIFeedback, a.Verdict, a.Answered,
		).Scan(&a.ID, &a.CreatedAt)
		if err != nil {
			return err
		}

		_, err = tx.Exec(ctx,
			`UPDATE flashcards
			 SET times_reviewed = times_reviewed + 1,
			     last_studied = NOW(),
			     learned = learned OR $2
			 WHERE card_id = $1`,
			a.CardID, a.Verdict == models.VerdictCorrect,
		)
		return err
	})
}

// CountAnsweredCards counts distinct cards of the note, not attempts.
func (r *QuizRepo) CountAnsweredCards(ctx context.Context, userID, noteID int64) (int, error) {
	var count int
	err := r.pool.QueryRow(ctx,
		`SELECT COUNT(DISTINCT qa.card_id)
		 FROM quiz_attempts qa
		 JOIN flashcards f ON f.card_id = qa.card_id
		 WHERE qa.user_id = $1 AND f.note_id = $2 AND qa.answered = TRUE`,
		userID, noteID,
	).Scan(&count)
	return count, err
}

func (r *QuizRepo) AnsweredCardIDs(ctx context.Context, userID, noteID int64) (map[int64]struct{}, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT DISTINCT qa.card_id
		 FROM quiz_attempts qa
		 JOIN flashcards f ON f.card_id = qa.card_id
		 WHERE qa.user_id = $1 AND f.note_id = $2 AND qa.answered = TRUE`,
		userID, noteID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	ids := make(map[int64]struct{})
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids[id] = struct{}{}
	}
	return ids, rows.Err()
}

func (r *QuizRepo) ListAttempts(ctx context.Context, userID, noteID int64) ([]models.QuizAttempt, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT qa.attempt_id, qa.user_id, qa.card_id, qa.answer, COALESCE(qa.ai_feedback, ''),
		        qa.verdict, qa.answered, qa.created_at
		 FROM quiz_attempts qa
		 JOIN flashcards f ON f.card_id = qa.card_id
		 WHERE qa.user_id = $1 AND f.note_id = $2
		 ORDER BY qa.created_at DESC, qa.attempt_id DESC`,
		userID, noteID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	attempts := make([]models.QuizAttempt, 0)
	for rows.Next() {
		var a models.QuizAttempt
		if err := rows.Scan(&a.ID, &a.UserID, &a.CardID, &a.Answer, &a.AIFeedback, &a.Verdict, &a.Answered, &a.CreatedAt); err != nil {
			return nil, err
		}
		attempts = append(attempts, a)
	}
	return attempts, rows.Err()
}
