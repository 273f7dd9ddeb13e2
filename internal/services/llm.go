package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"

	"studynotes-backend/internal/logger"
	"studynotes-backend/internal/metrics"
	"studynotes-backend/internal/models"
)

const (
	maxFlashcards        = 30
	maxSummaryInputRunes = 60000
)

const summaryInstruction = `You are an expert study assistant. Summarize the student's notes so they can revise from the summary alone.
Keep the key definitions, facts and relationships. Write the summary in the same language as the notes.
CRITICAL: Return ONLY a valid JSON object, no markdown, no backticks:
{"summary": "string", "language": "ISO 639-1 code of the notes, e.g. en"}`

const flashcardInstruction = `You are an expert flashcard creator. Turn the study summary into flashcards.
CRITICAL: Return ONLY a valid JSON array, no preamble, no markdown, no backticks.
Rules:
- At most %d cards, no two cards test the same concept
- Question is a real question, answer is short and self-contained
- Write both in the language with code: %s
JSON schema per card:
{"question": "string", "answer": "string", "type": "definition"|"concept"|"fact"|"application"}`

// LLMService owns the text-generation features on notes.
type LLMService struct {
	notes      NoteStore
	flashcards FlashcardStore
	gen        TextGenerator
	grader     Grader
	log        *logger.Logger
}

func NewLLMService(notes NoteStore, flashcards FlashcardStore, gen TextGenerator, grader Grader, log *logger.Logger) *LLMService {
	return &LLMService{
		notes:      notes,
		flashcards: flashcards,
		gen:        gen,
		grader:     grader,
		log:        log,
	}
}

func (s *LLMService) loadNote(ctx context.Context, userID, noteID int64) (*models.Note, error) {
	note, err := s.notes.GetByIDForUser(ctx, noteID, userID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, &NotFoundError{Message: MsgNoteNotFound}
		}
		return nil, &PersistenceError{Op: "load note", Err: err}
	}
	return note, nil
}

func (s *LLMService) generate(ctx context.Context, operation, instruction, prompt string) (string, error) {
	start := time.Now()
	text, err := s.gen.Generate(ctx, instruction, prompt)
	metrics.ObserveLLMCall(operation, start, err)
	if err != nil {
		s.log.Error("text generation failed", "operation", operation, "error", err)
		return "", &ExternalServiceError{Service: operation, Fallback: "The AI service is unavailable. Please try again later.", Err: err}
	}
	return text, nil
}

// GenerateSummary summarizes the note, detects its language and stores both.
func (s *LLMService) GenerateSummary(ctx context.Context, userID, noteID int64) (*models.SummaryResult, error) {
	note, err := s.loadNote(ctx, userID, noteID)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(note.Original) == "" {
		return nil, &ValidationError{Fields: map[string]string{"content": MsgEmptyNoteContent}}
	}

	content := note.Original
	if runes := []rune(content); len(runes) > maxSummaryInputRunes {
		content = string(runes[:maxSummaryInputRunes])
	}

	raw, err := s.generate(ctx, "generate_summary", summaryInstruction, "---NOTES---\n"+content+"\n---END---")
	if err != nil {
		return nil, err
	}

	result, err := parseSummary(raw)
	if err != nil {
		s.log.Warn("summary response was not valid JSON", "note_id", noteID, "error", err)
		return nil, &ExternalServiceError{Service: "generate_summary", Fallback: "The AI service returned an unusable summary.", Err: err}
	}

	if err := s.notes.UpdateSummary(ctx, noteID, result.Summary, result.Language); err != nil {
		return nil, &PersistenceError{Op: "store summary", Err: err}
	}
	return result, nil
}

func parseSummary(raw string) (*models.SummaryResult, error) {
	raw = extractJSON(stripCodeFence(raw), '{', '}')

	var out struct {
		Summary  string `json:"summary"`
		Language string `json:"language"`
	}
	if err := json.Unmarshal([]byte(raw), &out); err != nil {
		return nil, err
	}

	out.Summary = strings.TrimSpace(out.Summary)
	if out.Summary == "" {
		return nil, fmt.Errorf("summary is empty")
	}

	lang := strings.ToLower(strings.TrimSpace(out.Language))
	if len(lang) < 2 || len(lang) > 8 {
		lang = models.DefaultLanguage
	}
	return &models.SummaryResult{Summary: out.Summary, Language: lang}, nil
}

// GenerateFlashcards replaces the note's cards with a fresh set built from its summary.
func (s *LLMService) GenerateFlashcards(ctx context.Context, userID, noteID int64) ([]models.Flashcard, error) {
	note, err := s.loadNote(ctx, userID, noteID)
	if err != nil {
		return nil, err
	}
	if note.AISummary == nil || strings.TrimSpace(*note.AISummary) == "" {
		return nil, &NotFoundError{Message: MsgNoSummaryAvailable}
	}

	instruction := fmt.Sprintf(flashcardInstruction, maxFlashcards, note.LanguageOrDefault())
	raw, err := s.generate(ctx, "generate_flashcards", instruction, "---SUMMARY---\n"+*note.AISummary+"\n---END---")
	if err != nil {
		return nil, err
	}

	cards := validateFlashcards(parseFlashcards(raw))
	if len(cards) == 0 {
		return nil, &ExternalServiceError{
			Service:  "generate_flashcards",
			Fallback: "The AI service returned no usable flashcards.",
			Err:      fmt.Errorf("no valid flashcards in response"),
		}
	}

	stored, err := s.flashcards.ReplaceForNote(ctx, noteID, cards)
	if err != nil {
		return nil, &PersistenceError{Op: "replace flashcards", Err: err}
	}
	return stored, nil
}

func parseFlashcards(raw string) []models.FlashcardInput {
	raw = stripCodeFence(raw)

	var cards []models.FlashcardInput
	if err := json.Unmarshal([]byte(raw), &cards); err != nil {
		cards = nil
		_ = json.Unmarshal([]byte(extractJSON(raw, '[', ']')), &cards)
	}
	return cards
}

// validateFlashcards drops incomplete and duplicate cards and caps the set.
func validateFlashcards(cards []models.FlashcardInput) []models.FlashcardInput {
	seen := make(map[string]struct{})
	var valid []models.FlashcardInput
	for _, c := range cards {
		c.Question = strings.TrimSpace(c.Question)
		c.Answer = strings.TrimSpace(c.Answer)
		c.Type = strings.ToLower(strings.TrimSpace(c.Type))
		if c.Question == "" || c.Answer == "" {
			continue
		}
		key := strings.ToLower(c.Question)
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		if len(c.Type) > 50 {
			c.Type = c.Type[:50]
		}
		valid = append(valid, c)
		if len(valid) == maxFlashcards {
			break
		}
	}
	return valid
}

// CheckAnswer grades an answer that is not tied to a stored card.
func (s *LLMService) CheckAnswer(ctx context.Context, req models.CheckAnswerRequest) (*models.Evaluation, error) {
	if strings.TrimSpace(req.Language) == "" {
		req.Language = models.DefaultLanguage
	}
	return s.grader.Grade(ctx, req.Question, req.CorrectAnswer, req.UserAnswer, req.Language)
}
