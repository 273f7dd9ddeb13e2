package services

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/jackc/pgx/v5"

	"studynotes-backend/internal/models"
)

// memStore is an in-memory stand-in for the PostgreSQL repositories.
type memStore struct {
	mu       sync.Mutex
	nextID   int64
	users    map[int64]*models.User
	notes    map[int64]*models.Note
	cards    map[int64]*models.Flashcard
	attempts []models.QuizAttempt

	failRecord error
	failCount  error
}

func newMemStore() *memStore {
	return &memStore{
		users: make(map[int64]*models.User),
		notes: make(map[int64]*models.Note),
		cards: make(map[int64]*models.Flashcard),
	}
}

func (m *memStore) id() int64 {
	m.nextID++
	return m.nextID
}

// users

type memUsers struct{ *memStore }

func (m memUsers) Create(_ context.Context, u *models.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	u.ID = m.id()
	u.CreatedAt = time.Now()
	cp := *u
	m.users[u.ID] = &cp
	return nil
}

func (m memUsers) GetByID(_ context.Context, id int64) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	cp := *u
	return &cp, nil
}

func (m memUsers) find(match func(*models.User) bool) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if match(u) {
			cp := *u
			return &cp, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (m memUsers) GetByUsername(_ context.Context, username string) (*models.User, error) {
	return m.find(func(u *models.User) bool { return u.Username == username })
}

func (m memUsers) GetByEmail(_ context.Context, email string) (*models.User, error) {
	return m.find(func(u *models.User) bool { return u.Email == email })
}

func (m memUsers) Update(_ context.Context, u *models.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *u
	m.users[u.ID] = &cp
	return nil
}

func (m memUsers) UpdatePassword(_ context.Context, id int64, hash string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.users[id].PasswordHash = hash
	return nil
}

func (m memUsers) Delete(_ context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.users, id)
	return nil
}

// notes

type memNotes struct{ *memStore }

func (m memNotes) Create(_ context.Context, n *models.Note) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	n.ID = m.id()
	n.CreatedAt = time.Now()
	cp := *n
	m.notes[n.ID] = &cp
	return nil
}

func (m memNotes) GetByIDForUser(_ context.Context, noteID, userID int64) (*models.Note, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	n, ok := m.notes[noteID]
	if !ok || n.UserID != userID {
		return nil, pgx.ErrNoRows
	}
	cp := *n
	return &cp, nil
}

func (m memNotes) ListByUser(_ context.Context, userID int64) ([]models.Note, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]models.Note, 0)
	for _, n := range m.notes {
		if n.UserID == userID {
			out = append(out, *n)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out, nil
}

func (m memNotes) Update(_ context.Context, n *models.Note) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if existing, ok := m.notes[n.ID]; !ok || existing.UserID != n.UserID {
		return pgx.ErrNoRows
	}
	cp := *n
	m.notes[n.ID] = &cp
	return nil
}

func (m memNotes) UpdateSummary(_ context.Context, noteID int64, summary, language string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := m.notes[noteID]
	n.AISummary = &summary
	n.Language = &language
	return nil
}

func (m memNotes) Delete(_ context.Context, noteID, userID int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	n, ok := m.notes[noteID]
	if !ok || n.UserID != userID {
		return pgx.ErrNoRows
	}
	delete(m.notes, noteID)
	for id, c := range m.cards {
		if c.NoteID == noteID {
			delete(m.cards, id)
		}
	}
	return nil
}

// flashcards

type memFlashcards struct{ *memStore }

func (m memFlashcards) sorted(match func(*models.Flashcard) bool) []models.Flashcard {
	out := make([]models.Flashcard, 0)
	for _, c := range m.cards {
		if match(c) {
			out = append(out, *c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (m memFlashcards) ListByNote(_ context.Context, noteID, userID int64) ([]models.Flashcard, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	n, ok := m.notes[noteID]
	if !ok || n.UserID != userID {
		return []models.Flashcard{}, nil
	}
	return m.sorted(func(c *models.Flashcard) bool { return c.NoteID == noteID }), nil
}

func (m memFlashcards) ListByUser(_ context.Context, userID int64) ([]models.Flashcard, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.sorted(func(c *models.Flashcard) bool {
		n, ok := m.notes[c.NoteID]
		return ok && n.UserID == userID
	}), nil
}

func (m memFlashcards) ReplaceForNote(_ context.Context, noteID int64, cards []models.FlashcardInput) ([]models.Flashcard, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for id, c := range m.cards {
		if c.NoteID == noteID {
			delete(m.cards, id)
		}
	}
	out := make([]models.Flashcard, 0, len(cards))
	for _, in := range cards {
		c := &models.Flashcard{ID: m.id(), NoteID: noteID, Question: in.Question, Answer: in.Answer, CreatedAt: time.Now()}
		if in.Type != "" {
			t := in.Type
			c.Type = &t
		}
		m.cards[c.ID] = c
		out = append(out, *c)
	}
	return out, nil
}

func (m memFlashcards) DeleteForNote(_ context.Context, noteID int64) error {
	_, err := m.ReplaceForNote(context.Background(), noteID, nil)
	return err
}

func (m memFlashcards) GetByID(_ context.Context, cardID int64) (*models.OwnedFlashcard, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.cards[cardID]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	n := m.notes[c.NoteID]
	return &models.OwnedFlashcard{Flashcard: *c, OwnerID: n.UserID, NoteLanguage: n.Language}, nil
}

func (m memFlashcards) CountByNote(_ context.Context, noteID int64) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failCount != nil {
		return 0, m.failCount
	}
	return len(m.sorted(func(c *models.Flashcard) bool { return c.NoteID == noteID })), nil
}

// attempts

type memAttempts struct{ *memStore }

func (m memAttempts) RecordAttempt(_ context.Context, a *models.QuizAttempt) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failRecord != nil {
		return m.failRecord
	}
	a.ID = m.id()
	a.Answered = true
	a.CreatedAt = time.Now()
	m.attempts = append(m.attempts, *a)
	if c, ok := m.cards[a.CardID]; ok {
		c.TimesReviewed++
		now := time.Now()
		c.LastStudied = &now
		c.Learned = c.Learned || a.Verdict == models.VerdictCorrect
	}
	return nil
}

func (m memAttempts) answered(userID, noteID int64) map[int64]struct{} {
	ids := make(map[int64]struct{})
	for _, a := range m.attempts {
		c, ok := m.cards[a.CardID]
		if ok && a.UserID == userID && c.NoteID == noteID && a.Answered {
			ids[a.CardID] = struct{}{}
		}
	}
	return ids
}

func (m memAttempts) CountAnsweredCards(_ context.Context, userID, noteID int64) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.answered(userID, noteID)), nil
}

func (m memAttempts) AnsweredCardIDs(_ context.Context, userID, noteID int64) (map[int64]struct{}, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.answered(userID, noteID), nil
}

func (m memAttempts) ListAttempts(_ context.Context, userID, noteID int64) ([]models.QuizAttempt, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]models.QuizAttempt, 0)
	for i := len(m.attempts) - 1; i >= 0; i-- {
		a := m.attempts[i]
		if c, ok := m.cards[a.CardID]; ok && a.UserID == userID && c.NoteID == noteID {
			out = append(out, a)
		}
	}
	return out, nil
}

func (m *memStore) attemptCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.attempts)
}

// stubGenerator returns a canned reply and records every call.
type stubGenerator struct {
	mu     sync.Mutex
	reply  string
	err    error
	calls  int
	system []string
	prompt []string
}

func (g *stubGenerator) Generate(_ context.Context, systemInstruction, prompt string) (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.calls++
	g.system = append(g.system, systemInstruction)
	g.prompt = append(g.prompt, prompt)
	return g.reply, g.err
}

type recordingPublisher struct {
	mu   sync.Mutex
	msgs []models.WSMessage
	err  error
}

func (p *recordingPublisher) PublishUpdate(_ context.Context, _ int64, msg models.WSMessage) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.msgs = append(p.msgs, msg)
	return p.err
}

// memTokens is an in-memory TokenStore that ignores TTLs.
type memTokens struct {
	mu   sync.Mutex
	data map[string]string
}

func newMemTokens() *memTokens {
	return &memTokens{data: make(map[string]string)}
}

func (t *memTokens) Set(_ context.Context, key, value string, _ time.Duration) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.data[key] = value
	return nil
}

func (t *memTokens) Get(_ context.Context, key string) (string, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	v, ok := t.data[key]
	if !ok {
		return "", ErrTokenNotFound
	}
	return v, nil
}

func (t *memTokens) Del(_ context.Context, key string) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.data, key)
	return nil
}

var errBoom = errors.New("boom")
