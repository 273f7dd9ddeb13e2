package repository

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"studynotes-backend/internal/database"
	"studynotes-backend/internal/logger"
	"studynotes-backend/internal/models"
)

// These tests run against a real PostgreSQL database and are skipped unless
// TEST_DATABASE_URL is set.
func testPool(t *testing.T) *pgxpool.Pool {
	t.Helper()

	url := os.Getenv("TEST_DATABASE_URL")
	if url == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}

	pool, err := database.NewPostgresPool(url)
	if err != nil {
		t.Fatalf("connect: %v", err)
	}
	t.Cleanup(pool.Close)

	if err := database.RunMigrations(pool, filepath.Join("..", "..", "migrations"), logger.Nop()); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return pool
}

type fixture struct {
	users      *UserRepo
	notes      *NoteRepo
	flashcards *FlashcardRepo
	quiz       *QuizRepo
}

func newFixture(t *testing.T) *fixture {
	pool := testPool(t)
	return &fixture{
		users:      NewUserRepo(pool),
		notes:      NewNoteRepo(pool),
		flashcards: NewFlashcardRepo(pool),
		quiz:       NewQuizRepo(pool),
	}
}

func (f *fixture) createUser(t *testing.T) *models.User {
	t.Helper()
	suffix := uuid.NewString()[:8]
	u := &models.User{
		Username:     "user_" + suffix,
		Email:        suffix + "@example.com",
		PasswordHash: "hash",
	}
	if err := f.users.Create(context.Background(), u); err != nil {
		t.Fatalf("create user: %v", err)
	}
	t.Cleanup(func() { _ = f.users.Delete(context.Background(), u.ID) })
	return u
}

func (f *fixture) createNote(t *testing.T, userID int64) *models.Note {
	t.Helper()
	title := "Cell biology"
	n := &models.Note{UserID: userID, Title: &title, Original: "Mitochondria produce ATP."}
	if err := f.notes.Create(context.Background(), n); err != nil {
		t.Fatalf("create note: %v", err)
	}
	return n
}

func threeCards() []models.FlashcardInput {
	return []models.FlashcardInput{
		{Question: "What produces ATP?", Answer: "Mitochondria", Type: "definition"},
		{Question: "What is ATP?", Answer: "Energy currency", Type: "concept"},
		{Question: "Where is DNA stored?", Answer: "Nucleus"},
	}
}

func TestFlashcardRepo_ReplaceForNoteIsIdempotent(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	user := f.createUser(t)
	note := f.createNote(t, user.ID)

	for i := 0; i < 2; i++ {
		if _, err := f.flashcards.ReplaceForNote(ctx, note.ID, threeCards()); err != nil {
			t.Fatalf("replace #%d: %v", i+1, err)
		}
	}

	cards, err := f.flashcards.ListByNote(ctx, note.ID, user.ID)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(cards) != 3 {
		t.Fatalf("expected 3 cards after two replaces, got %d", len(cards))
	}
	for _, c := range cards {
		if c.Learned || c.TimesReviewed != 0 || c.LastStudied != nil {
			t.Fatalf("expected default review state, got %+v", c)
		}
	}
	if cards[2].Type != nil {
		t.Fatalf("expected nil type for untyped card, got %q", *cards[2].Type)
	}
}

func TestFlashcardRepo_ListByNoteHidesOtherUsersCards(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	owner := f.createUser(t)
	other := f.createUser(t)
	note := f.createNote(t, owner.ID)

	if _, err := f.flashcards.ReplaceForNote(ctx, note.ID, threeCards()); err != nil {
		t.Fatalf("replace: %v", err)
	}

	cards, err := f.flashcards.ListByNote(ctx, note.ID, other.ID)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if cards == nil || len(cards) != 0 {
		t.Fatalf("expected empty non-nil slice, got %v", cards)
	}
}

func TestFlashcardRepo_GetByIDCarriesOwnerAndLanguage(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	user := f.createUser(t)
	note := f.createNote(t, user.ID)
	if err := f.notes.UpdateSummary(ctx, note.ID, "summary", "de"); err != nil {
		t.Fatalf("update summary: %v", err)
	}

	stored, err := f.flashcards.ReplaceForNote(ctx, note.ID, threeCards()[:1])
	if err != nil {
		t.Fatalf("replace: %v", err)
	}

	card, err := f.flashcards.GetByID(ctx, stored[0].ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if card.OwnerID != user.ID {
		t.Fatalf("expected owner %d, got %d", user.ID, card.OwnerID)
	}
	if card.Language() != "de" {
		t.Fatalf("expected language de, got %s", card.Language())
	}

	if _, err := f.flashcards.GetByID(ctx, -1); !errors.Is(err, pgx.ErrNoRows) {
		t.Fatalf("expected pgx.ErrNoRows, got %v", err)
	}
}

func TestQuizRepo_CountsDistinctAnsweredCards(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	user := f.createUser(t)
	note := f.createNote(t, user.ID)

	cards, err := f.flashcards.ReplaceForNote(ctx, note.ID, threeCards())
	if err != nil {
		t.Fatalf("replace: %v", err)
	}

	for _, verdict := range []string{models.VerdictIncorrect, models.VerdictCorrect} {
		a := &models.QuizAttempt{UserID: user.ID, CardID: cards[0].ID, Answer: "Mitochondria", AIFeedback: "ok", Verdict: verdict}
		if err := f.quiz.RecordAttempt(ctx, a); err != nil {
			t.Fatalf("record: %v", err)
		}
		if a.ID == 0 || !a.Answered {
			t.Fatalf("expected stored answered attempt, got %+v", a)
		}
	}

	count, err := f.quiz.CountAnsweredCards(ctx, user.ID, note.ID)
	if err != nil {
		t.Fatalf("count: %v", err)
	}
	if count != 1 {
		t.Fatalf("expected 1 distinct answered card, got %d", count)
	}

	ids, err := f.quiz.AnsweredCardIDs(ctx, user.ID, note.ID)
	if err != nil {
		t.Fatalf("ids: %v", err)
	}
	if _, ok := ids[cards[0].ID]; !ok || len(ids) != 1 {
		t.Fatalf("unexpected answered ids %v", ids)
	}

	card, err := f.flashcards.GetByID(ctx, cards[0].ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if card.TimesReviewed != 2 || !card.Learned || card.LastStudied == nil {
		t.Fatalf("expected review bookkeeping to be updated, got %+v", card.Flashcard)
	}

	history, err := f.quiz.ListAttempts(ctx, user.ID, note.ID)
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	if len(history) != 2 || history[0].Verdict != models.VerdictCorrect {
		t.Fatalf("expected newest-first history, got %+v", history)
	}
}

func TestNoteRepo_DeleteCascades(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	user := f.createUser(t)
	note := f.createNote(t, user.ID)

	if _, err := f.flashcards.ReplaceForNote(ctx, note.ID, threeCards()); err != nil {
		t.Fatalf("replace: %v", err)
	}
	if err := f.notes.Delete(ctx, note.ID, user.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}

	count, err := f.flashcards.CountByNote(ctx, note.ID)
	if err != nil {
		t.Fatalf("count: %v", err)
	}
	if count != 0 {
		t.Fatalf("expected cascade delete, %d cards remain", count)
	}

	if err := f.notes.Delete(ctx, note.ID, user.ID); !errors.Is(err, pgx.ErrNoRows) {
		t.Fatalf("expected pgx.ErrNoRows on second delete, got %v", err)
	}
}
