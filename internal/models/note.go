package models

import "time"

// DefaultLanguage is assumed for notes whose language was never detected.
const DefaultLanguage = "en"

type Note struct {
	ID        int64     `json:"note_id"`
	UserID    int64     `json:"user_id"`
	Title     *string   `json:"title"`
	Original  string    `json:"original"`
	AISummary *string   `json:"ai_summary"`
	Language  *string   `json:"language"`
	CreatedAt time.Time `json:"created_at"`
}

// LanguageOrDefault returns the detected language, falling back to DefaultLanguage.
func (n *Note) LanguageOrDefault() string {
	if n == nil || n.Language == nil || *n.Language == "" {
		return DefaultLanguage
	}
	return *n.Language
}

type CreateNoteRequest struct {
	Title   string `json:"title"`
	Content string `json:"content"`
}

type UpdateNoteRequest struct {
	Title   *string `json:"title"`
	Content *string `json:"content"`
}

type ImportYouTubeRequest struct {
	URL string `json:"url"`
}

type SummaryResult struct {
	Summary  string `json:"ai_summary"`
	Language string `json:"language"`
}
