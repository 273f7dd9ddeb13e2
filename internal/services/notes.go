package services

import (
	"context"
	"errors"
	"path/filepath"
	"strings"

	"github.com/jackc/pgx/v5"

	"studynotes-backend/internal/models"
)

const maxTitleLength = 200

type NoteService struct {
	notes       NoteStore
	extractor   *FileExtractService
	transcripts TranscriptFetcher
}

func NewNoteService(notes NoteStore, extractor *FileExtractService, transcripts TranscriptFetcher) *NoteService {
	return &NoteService{
		notes:       notes,
		extractor:   extractor,
		transcripts: transcripts,
	}
}

func notFoundOr(err error, op string) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return &NotFoundError{Message: MsgNoteNotFound}
	}
	return &PersistenceError{Op: op, Err: err}
}

func (s *NoteService) Create(ctx context.Context, userID int64, req models.CreateNoteRequest) (*models.Note, error) {
	title := strings.TrimSpace(req.Title)
	content := strings.TrimSpace(req.Content)

	fieldErrors := make(map[string]string)
	if title == "" {
		fieldErrors["title"] = "Title is required."
	} else if len([]rune(title)) > maxTitleLength {
		fieldErrors["title"] = "Title must be at most 200 characters."
	}
	if content == "" {
		fieldErrors["content"] = MsgEmptyNoteContent
	}
	if len(fieldErrors) > 0 {
		return nil, &ValidationError{Fields: fieldErrors}
	}

	return s.create(ctx, userID, title, content)
}

func (s *NoteService) create(ctx context.Context, userID int64, title, content string) (*models.Note, error) {
	note := &models.Note{UserID: userID, Original: content}
	if title != "" {
		if runes := []rune(title); len(runes) > maxTitleLength {
			title = string(runes[:maxTitleLength])
		}
		note.Title = &title
	}
	if err := s.notes.Create(ctx, note); err != nil {
		return nil, &PersistenceError{Op: "create note", Err: err}
	}
	return note, nil
}

func (s *NoteService) Get(ctx context.Context, userID, noteID int64) (*models.Note, error) {
	note, err := s.notes.GetByIDForUser(ctx, noteID, userID)
	if err != nil {
		return nil, notFoundOr(err, "load note")
	}
	return note, nil
}

func (s *NoteService) List(ctx context.Context, userID int64) ([]models.Note, error) {
	notes, err := s.notes.ListByUser(ctx, userID)
	if err != nil {
		return nil, &PersistenceError{Op: "list notes", Err: err}
	}
	return notes, nil
}

// Update changes title and/or content. A content change keeps the stored
// summary and flashcards until they are regenerated.
func (s *NoteService) Update(ctx context.Context, userID, noteID int64, req models.UpdateNoteRequest) (*models.Note, error) {
	if req.Title == nil && req.Content == nil {
		return nil, &ValidationError{Fields: map[string]string{"title": "Provide a title or content to update."}}
	}

	note, err := s.Get(ctx, userID, noteID)
	if err != nil {
		return nil, err
	}

	fieldErrors := make(map[string]string)
	if req.Title != nil {
		title := strings.TrimSpace(*req.Title)
		if title == "" {
			fieldErrors["title"] = "Title is required."
		} else if len([]rune(title)) > maxTitleLength {
			fieldErrors["title"] = "Title must be at most 200 characters."
		}
		note.Title = &title
	}
	if req.Content != nil {
		content := strings.TrimSpace(*req.Content)
		if content == "" {
			fieldErrors["content"] = MsgEmptyNoteContent
		}
		note.Original = content
	}
	if len(fieldErrors) > 0 {
		return nil, &ValidationError{Fields: fieldErrors}
	}

	if err := s.notes.Update(ctx, note); err != nil {
		return nil, notFoundOr(err, "update note")
	}
	return note, nil
}

func (s *NoteService) Delete(ctx context.Context, userID, noteID int64) error {
	if err := s.notes.Delete(ctx, noteID, userID); err != nil {
		return notFoundOr(err, "delete note")
	}
	return nil
}

// ImportFile creates a note from an uploaded document, titled after the file.
func (s *NoteService) ImportFile(ctx context.Context, userID int64, filename string, data []byte) (*models.Note, error) {
	text, err := s.extractor.ExtractText(filename, data)
	if err != nil {
		return nil, err
	}

	base := filepath.Base(filename)
	title := strings.TrimSpace(strings.TrimSuffix(base, filepath.Ext(base)))
	if title == "" {
		title = "Imported file"
	}
	return s.create(ctx, userID, title, text)
}

// ImportYouTube creates a note from a video's captions.
func (s *NoteService) ImportYouTube(ctx context.Context, userID int64, url string) (*models.Note, error) {
	if strings.TrimSpace(url) == "" {
		return nil, &ValidationError{Fields: map[string]string{"url": MsgFieldRequired}}
	}

	transcript, err := s.transcripts.FetchTranscript(ctx, url)
	if err != nil {
		return nil, err
	}

	title := transcript.Title
	if title == "" {
		title = "YouTube video " + transcript.VideoID
	}
	return s.create(ctx, userID, title, transcript.Text)
}
