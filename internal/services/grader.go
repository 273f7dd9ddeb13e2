package services

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"time"

	"studynotes-backend/internal/logger"
	"studynotes-backend/internal/metrics"
	"studynotes-backend/internal/models"
)

const gradingInstruction = `You are a strict but fair tutor grading a student's answer to a flashcard.
Start your reply with exactly one verdict word: CORRECT, INCORRECT or PARTIALLY_CORRECT.
Then give a short explanation of why, in at most three sentences.
An answer that only repeats the question nearly word for word is INCORRECT.
A bare abbreviation that is not explained is INCORRECT.
Respond in the language with code: %s.`

var verdictPattern = regexp.MustCompile(`(?i)^\W*(PARTIALLY[_ ]CORRECT|INCORRECT|CORRECT)\b`)

// parseVerdict maps the leading verdict token of a grading reply.
func parseVerdict(evaluation string) string {
	m := verdictPattern.FindStringSubmatch(evaluation)
	if m == nil {
		return models.VerdictUnknown
	}
	switch strings.ToUpper(strings.ReplaceAll(m[1], " ", "_")) {
	case "CORRECT":
		return models.VerdictCorrect
	case "INCORRECT":
		return models.VerdictIncorrect
	case "PARTIALLY_CORRECT":
		return models.VerdictPartiallyCorrect
	}
	return models.VerdictUnknown
}

// AnswerGrader asks the text generator whether a free-text answer is right.
// It has no side effects.
type AnswerGrader struct {
	gen TextGenerator
	log *logger.Logger
}

func NewAnswerGrader(gen TextGenerator, log *logger.Logger) *AnswerGrader {
	return &AnswerGrader{gen: gen, log: log}
}

func (g *AnswerGrader) Grade(ctx context.Context, question, correctAnswer, userAnswer, language string) (*models.Evaluation, error) {
	fieldErrors := make(map[string]string)
	for field, value := range map[string]string{
		"question":       question,
		"correct_answer": correctAnswer,
		"user_answer":    userAnswer,
		"language":       language,
	} {
		if strings.TrimSpace(value) == "" {
			fieldErrors[field] = MsgFieldRequired
		}
	}
	if len(fieldErrors) > 0 {
		return nil, &ValidationError{Fields: fieldErrors}
	}

	prompt := fmt.Sprintf("Question: %s\nCorrect answer: %s\nStudent answer: %s", question, correctAnswer, userAnswer)

	start := time.Now()
	evaluation, err := g.gen.Generate(ctx, fmt.Sprintf(gradingInstruction, language), prompt)
	metrics.ObserveLLMCall("grade_answer", start, err)
	if err != nil {
		metrics.GradingFailures.Inc()
		g.log.Error("answer grading failed", "error", err, "language", language)
		return nil, &ExternalServiceError{Service: "answer grading", Fallback: MsgGradingFallback, Err: err}
	}

	return &models.Evaluation{
		Evaluation: evaluation,
		Verdict:    parseVerdict(evaluation),
	}, nil
}
