package models

import "time"

const (
	VerdictCorrect          = "correct"
	VerdictIncorrect        = "incorrect"
	VerdictPartiallyCorrect = "partially_correct"
	VerdictUnknown          = "unknown"
)

// QuizAttempt is one graded answer submission. Attempts are append-only.
type QuizAttempt struct {
	ID         int64     `json:"attempt_id"`
	UserID     int64     `json:"user_id"`
	CardID     int64     `json:"card_id"`
	Answer     string    `json:"answer"`
	AIFeedback string    `json:"ai_feedback"`
	Verdict    string    `json:"verdict"`
	Answered   bool      `json:"answered"`
	CreatedAt  time.Time `json:"created_at"`
}

// QuizCard is the client-facing view of a flashcard during a quiz; it never carries the answer.
type QuizCard struct {
	CardID   int64  `json:"card_id"`
	Question string `json:"question"`
	Type     string `json:"type"`
}

type Evaluation struct {
	Evaluation string `json:"evaluation"`
	Verdict    string `json:"verdict"`
}

type Progress struct {
	TotalFlashcards    int     `json:"total_flashcards"`
	AnsweredFlashcards int     `json:"answered_flashcards"`
	ProgressPercent    float64 `json:"progress_percent"`
}

// Completed reports whether every flashcard has an answered attempt.
func (p *Progress) Completed() bool {
	return p.TotalFlashcards > 0 && p.AnsweredFlashcards >= p.TotalFlashcards
}

type SubmitAnswerRequest struct {
	Answer string `json:"answer"`
}

type SubmitAnswerResult struct {
	AttemptID  int64     `json:"attempt_id"`
	Evaluation string    `json:"evaluation"`
	Verdict    string    `json:"verdict"`
	Progress   *Progress `json:"progress"`
}

type CheckAnswerRequest struct {
	Question      string `json:"question"`
	CorrectAnswer string `json:"correct_answer"`
	UserAnswer    string `json:"user_answer"`
	Language      string `json:"language"`
}

type QuizProgressEvent struct {
	NoteID    int64     `json:"note_id"`
	CardID    int64     `json:"card_id"`
	Verdict   string    `json:"verdict"`
	Progress  *Progress `json:"progress"`
	Completed bool      `json:"completed"`
}
