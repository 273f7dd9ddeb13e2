package repository

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"studynotes-backend/internal/models"
)

type NoteRepo struct {
	pool *pgxpool.Pool
}

func NewNoteRepo(pool *pgxpool.Pool) *NoteRepo {
	return &NoteRepo{pool: pool}
}

const noteColumns = `note_id, user_id, title, original, ai_summary, language, created_at`

func scanNote(row pgx.Row, n *models.Note) error {
	return row.Scan(&n.ID, &n.UserID, &n.Title, &n.Original, &n.AISummary, &n.Language, &n.CreatedAt)
}

func (r *NoteRepo) Create(ctx context.Context, n *models.Note) error {
	query := `INSERT INTO notes (user_id, title, original)
		VALUES ($1, $2, $3)
		RETURNING note_id, language, created_at`

	return r.pool.QueryRow(ctx, query, n.UserID, n.Title, n.Original).Scan(&n.ID, &n.Language, &n.CreatedAt)
}

// GetByIDForUser returns pgx.ErrNoRows when the note is absent or owned by someone else.
func (r *NoteRepo) GetByIDForUser(ctx context.Context, noteID, userID int64) (*models.Note, error) {
	n := &models.Note{}
	query := `SELECT ` + noteColumns + ` FROM notes WHERE note_id = $1 AND user_id = $2`

	if err := scanNote(r.pool.QueryRow(ctx, query, noteID, userID), n); err != nil {
		return nil, err
	}
	return n, nil
}

func (r *NoteRepo) ListByUser(ctx context.Context, userID int64) ([]models.Note, error) {
	query := `SELECT ` + noteColumns + ` FROM notes WHERE user_id = $1 ORDER BY created_at DESC, note_id DESC`

	rows, err := r.pool.Query(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	notes := make([]models.Note, 0)
	for rows.Next() {
		var n models.Note
		if err := scanNote(rows, &n); err != nil {
			return nil, err
		}
		notes = append(notes, n)
	}
	return notes, rows.Err()
}

func (r *NoteRepo) Update(ctx context.Context, n *models.Note) error {
	tag, err := r.pool.Exec(ctx,
		"UPDATE notes SET title = $1, original = $2 WHERE note_id = $3 AND user_id = $4",
		n.Title, n.Original, n.ID, n.UserID,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *NoteRepo) UpdateSummary(ctx context.Context, noteID int64, summary, language string) error {
	_, err := r.pool.Exec(ctx,
		"UPDATE notes SET ai_summary = $1, language = $2 WHERE note_id = $3",
		summary, language, noteID,
	)
	return err
}

// Delete removes the note; its flashcards and their attempts cascade.
func (r *NoteRepo) Delete(ctx context.Context, noteID, userID int64) error {
	tag, err := r.pool.Exec(ctx, "DELETE FROM notes WHERE note_id = $1 AND user_id = $2", noteID, userID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}
