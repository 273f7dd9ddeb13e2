package models

import "time"

type Flashcard struct {
	ID            int64      `json:"card_id"`
	NoteID        int64      `json:"note_id"`
	Question      string     `json:"question"`
	Answer        string     `json:"answer"`
	Type          *string    `json:"type"`
	Learned       bool       `json:"learned"`
	LastStudied   *time.Time `json:"last_studied"`
	TimesReviewed int        `json:"times_reviewed"`
	CreatedAt     time.Time  `json:"created_at"`
}

// FlashcardInput is one generated question/answer pair before it is stored.
type FlashcardInput struct {
	Question string `json:"question"`
	Answer   string `json:"answer"`
	Type     string `json:"type"`
}

// OwnedFlashcard is a flashcard joined with the note fields needed to grade it.
type OwnedFlashcard struct {
	Flashcard
	OwnerID      int64
	NoteLanguage *string
}

// Language returns the owning note's language, or DefaultLanguage.
func (c *OwnedFlashcard) Language() string {
	if c.NoteLanguage == nil || *c.NoteLanguage == "" {
		return DefaultLanguage
	}
	return *c.NoteLanguage
}
