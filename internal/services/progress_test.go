package services

import (
	"context"
	"errors"
	"testing"
)

func TestComputeProgress(t *testing.T) {
	tests := []struct {
		name     string
		total    int
		answered int
		percent  float64
		clamped  int
	}{
		{"no cards", 0, 0, 0, 0},
		{"none answered", 3, 0, 0, 0},
		{"one of three", 3, 1, 33.33, 1},
		{"two of three", 3, 2, 66.67, 2},
		{"all answered", 3, 3, 100, 3},
		{"stale count is clamped", 2, 5, 100, 2},
		{"orphan attempts with no cards", 0, 4, 0, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := computeProgress(tt.total, tt.answered)
			if p.ProgressPercent != tt.percent {
				t.Fatalf("expected percent %v, got %v", tt.percent, p.ProgressPercent)
			}
			if p.AnsweredFlashcards != tt.clamped {
				t.Fatalf("expected answered %d, got %d", tt.clamped, p.AnsweredFlashcards)
			}
			if p.TotalFlashcards != tt.total {
				t.Fatalf("expected total %d, got %d", tt.total, p.TotalFlashcards)
			}
		})
	}
}

func TestProgressCalculator_StoreFailureIsPersistenceError(t *testing.T) {
	store := newMemStore()
	store.failCount = errBoom
	calc := NewProgressCalculator(memFlashcards{store}, memAttempts{store})

	_, err := calc.GetProgress(context.Background(), 1, 1)

	var pErr *PersistenceError
	if !errors.As(err, &pErr) {
		t.Fatalf("expected PersistenceError, got %v", err)
	}
}
