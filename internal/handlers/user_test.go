package handlers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"studynotes-backend/internal/models"
	"studynotes-backend/internal/services"
)

type stubUserService struct {
	gotUserID int64
	pwdReq    *models.ChangePasswordRequest
	pwdErr    error
}

func (s *stubUserService) GetUser(ctx context.Context, userID int64) (*models.User, error) {
	s.gotUserID = userID
	return &models.User{ID: userID, Username: "alice"}, nil
}

func (s *stubUserService) UpdateUser(ctx context.Context, userID int64, req models.UpdateUserRequest) (*models.User, error) {
	return &models.User{ID: userID, Username: *req.Username}, nil
}

func (s *stubUserService) DeleteUser(ctx context.Context, userID int64) error { return nil }

func (s *stubUserService) ChangePassword(ctx context.Context, userID int64, req models.ChangePasswordRequest) error {
	s.pwdReq = &req
	return s.pwdErr
}

func (s *stubUserService) ListFlashcards(ctx context.Context, userID int64) ([]models.Flashcard, error) {
	return []models.Flashcard{}, nil
}

func TestGetMe_UsesContextUser(t *testing.T) {
	svc := &stubUserService{}
	h := NewUserHandler(svc)

	req := newRequest(http.MethodGet, "/api/v1/user/me", nil, 42, nil)
	rr := httptest.NewRecorder()
	h.GetMe(rr, req)

	if rr.Code != http.StatusOK || svc.gotUserID != 42 {
		t.Fatalf("expected 200 for user 42, got %d for %d", rr.Code, svc.gotUserID)
	}
}

func TestChangePassword_WrongCurrent(t *testing.T) {
	svc := &stubUserService{pwdErr: &services.ValidationError{Fields: map[string]string{"current_password": services.MsgPasswordIncorrect}}}
	h := NewUserHandler(svc)

	body := jsonBody(t, models.ChangePasswordRequest{CurrentPassword: "bad", NewPassword: "N3wPassword"})
	req := newRequest(http.MethodPut, "/api/v1/user/password", body, 42, nil)
	rr := httptest.NewRecorder()
	h.ChangePassword(rr, req)

	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rr.Code)
	}
	if apiErr := decodeError(t, rr); apiErr.Fields["current_password"] == "" {
		t.Fatalf("expected current_password field error, got %+v", apiErr)
	}
}
