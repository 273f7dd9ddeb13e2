package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"

	"studynotes-backend/internal/middleware"
	"studynotes-backend/internal/models"
)

// newRequest builds a request carrying an authenticated user and chi URL params.
func newRequest(method, target string, body io.Reader, userID int64, params map[string]string) *http.Request {
	req := httptest.NewRequest(method, target, body)
	req.Header.Set("Content-Type", "application/json")

	ctx := req.Context()
	if userID != 0 {
		ctx = middleware.WithUserID(ctx, userID)
	}
	if len(params) > 0 {
		rctx := chi.NewRouteContext()
		for k, v := range params {
			rctx.URLParams.Add(k, v)
		}
		ctx = context.WithValue(ctx, chi.RouteCtxKey, rctx)
	}
	return req.WithContext(ctx)
}

func jsonBody(t *testing.T, v interface{}) *bytes.Reader {
	t.Helper()
	data, err := json.Marshal(v)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	return bytes.NewReader(data)
}

func decodeError(t *testing.T, rr *httptest.ResponseRecorder) models.APIError {
	t.Helper()
	var resp models.ErrorResponse
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatalf("decode error response: %v", err)
	}
	return resp.Error
}

type stubQuizService struct {
	start    func(userID, noteID int64) ([]models.QuizCard, error)
	submit   func(userID, cardID int64, answer string) (*models.SubmitAnswerResult, error)
	progress func(userID, noteID int64) (*models.Progress, error)
	next     func(userID, noteID int64) (*models.QuizCard, error)
	history  func(userID, noteID int64) ([]models.QuizAttempt, error)
}

func (s *stubQuizService) StartQuiz(ctx context.Context, userID, noteID int64) ([]models.QuizCard, error) {
	return s.start(userID, noteID)
}

func (s *stubQuizService) SubmitAnswer(ctx context.Context, userID, cardID int64, answer string) (*models.SubmitAnswerResult, error) {
	return s.submit(userID, cardID, answer)
}

func (s *stubQuizService) GetProgress(ctx context.Context, userID, noteID int64) (*models.Progress, error) {
	return s.progress(userID, noteID)
}

func (s *stubQuizService) NextFlashcard(ctx context.Context, userID, noteID int64) (*models.QuizCard, error) {
	return s.next(userID, noteID)
}

func (s *stubQuizService) History(ctx context.Context, userID, noteID int64) ([]models.QuizAttempt, error) {
	return s.history(userID, noteID)
}

type stubNoteService struct {
	created    *models.CreateNoteRequest
	importName string
	importData []byte
	importURL  string
	err        error
}

func (s *stubNoteService) note(userID int64) *models.Note {
	title := "Biology"
	return &models.Note{ID: 7, UserID: userID, Title: &title, Original: "cells"}
}

func (s *stubNoteService) Create(ctx context.Context, userID int64, req models.CreateNoteRequest) (*models.Note, error) {
	s.created = &req
	if s.err != nil {
		return nil, s.err
	}
	return s.note(userID), nil
}

func (s *stubNoteService) Get(ctx context.Context, userID, noteID int64) (*models.Note, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.note(userID), nil
}

func (s *stubNoteService) List(ctx context.Context, userID int64) ([]models.Note, error) {
	if s.err != nil {
		return nil, s.err
	}
	return []models.Note{*s.note(userID)}, nil
}

func (s *stubNoteService) Update(ctx context.Context, userID, noteID int64, req models.UpdateNoteRequest) (*models.Note, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.note(userID), nil
}

func (s *stubNoteService) Delete(ctx context.Context, userID, noteID int64) error {
	return s.err
}

func (s *stubNoteService) ImportFile(ctx context.Context, userID int64, filename string, data []byte) (*models.Note, error) {
	s.importName = filename
	s.importData = data
	if s.err != nil {
		return nil, s.err
	}
	return s.note(userID), nil
}

func (s *stubNoteService) ImportYouTube(ctx context.Context, userID int64, url string) (*models.Note, error) {
	s.importURL = url
	if s.err != nil {
		return nil, s.err
	}
	return s.note(userID), nil
}
