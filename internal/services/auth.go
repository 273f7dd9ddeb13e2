package services

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
	"unicode"

	"github.com/jackc/pgx/v5"
	"golang.org/x/crypto/bcrypt"

	"studynotes-backend/internal/logger"
	"studynotes-backend/internal/middleware"
	"studynotes-backend/internal/models"
)

const (
	refreshTokenTTL  = 7 * 24 * time.Hour
	passwordResetTTL = time.Hour
	bcryptCost       = 12
)

type AuthService struct {
	users      UserStore
	flashcards FlashcardStore
	tokens     TokenStore
	jwt        *middleware.JWTAuth
	mailer     PasswordResetMailer
	log        *logger.Logger
}

func NewAuthService(users UserStore, flashcards FlashcardStore, tokens TokenStore, jwt *middleware.JWTAuth, mailer PasswordResetMailer, log *logger.Logger) *AuthService {
	return &AuthService{
		users:      users,
		flashcards: flashcards,
		tokens:     tokens,
		jwt:        jwt,
		mailer:     mailer,
		log:        log,
	}
}

var (
	emailRegex    = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)
	usernameRegex = regexp.MustCompile(`^[a-zA-Z0-9_.-]{3,50}$`)
)

func (s *AuthService) Register(ctx context.Context, req models.RegisterRequest) (*models.User, error) {
	req.Username = strings.TrimSpace(req.Username)
	req.Email = strings.TrimSpace(req.Email)

	// Validate all fields at once
	fieldErrors := make(map[string]string)
	if !usernameRegex.MatchString(req.Username) {
		fieldErrors["username"] = "Username must be 3-50 letters, digits, '.', '_' or '-'"
	}
	if !emailRegex.MatchString(req.Email) {
		fieldErrors["email"] = "Invalid email format"
	}
	if err := validatePassword(req.Password); err != nil {
		fieldErrors["password"] = err.Error()
	}
	if len(fieldErrors) > 0 {
		return nil, &ValidationError{Fields: fieldErrors}
	}

	if err := s.ensureUnique(ctx, 0, req.Username, req.Email); err != nil {
		return nil, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcryptCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := &models.User{
		Username:     req.Username,
		Email:        req.Email,
		PasswordHash: string(hash),
	}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, &PersistenceError{Op: "create user", Err: err}
	}

	s.log.Info("user registered", "user_id", user.ID)
	return user, nil
}

// ensureUnique rejects a username or email already used by a user other than selfID.
func (s *AuthService) ensureUnique(ctx context.Context, selfID int64, username, email string) error {
	if username != "" {
		existing, err := s.users.GetByUsername(ctx, username)
		if err == nil && existing.ID != selfID {
			return &ConflictError{Message: MsgUsernameTaken}
		}
		if err != nil && !errors.Is(err, pgx.ErrNoRows) {
			return &PersistenceError{Op: "lookup username", Err: err}
		}
	}
	if email != "" {
		existing, err := s.users.GetByEmail(ctx, email)
		if err == nil && existing.ID != selfID {
			return &ConflictError{Message: MsgEmailTaken}
		}
		if err != nil && !errors.Is(err, pgx.ErrNoRows) {
			return &PersistenceError{Op: "lookup email", Err: err}
		}
	}
	return nil
}

func (s *AuthService) Login(ctx context.Context, req models.LoginRequest) (*models.AuthTokens, error) {
	if strings.TrimSpace(req.Username) == "" || req.Password == "" {
		return nil, &ValidationError{Fields: map[string]string{"username": "Username and password are required."}}
	}

	user, err := s.users.GetByUsername(ctx, strings.TrimSpace(req.Username))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, &UnauthorizedError{Message: MsgInvalidCredentials}
		}
		return nil, &PersistenceError{Op: "lookup user", Err: err}
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		return nil, &UnauthorizedError{Message: MsgInvalidCredentials}
	}

	return s.issueTokens(ctx, user)
}

func (s *AuthService) RefreshToken(ctx context.Context, refreshToken string) (*models.AuthTokens, error) {
	userIDStr, err := s.tokens.Get(ctx, "refresh:"+refreshToken)
	if err != nil {
		return nil, &UnauthorizedError{Message: "Invalid or expired refresh token. Please log in again."}
	}

	userID, err := strconv.ParseInt(userIDStr, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid user ID in refresh token: %w", err)
	}

	// Delete old token (rotation)
	if err := s.tokens.Del(ctx, "refresh:"+refreshToken); err != nil {
		s.log.Warn("failed to delete rotated refresh token", "error", err)
	}

	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, &UnauthorizedError{Message: MsgUserNotFound}
		}
		return nil, &PersistenceError{Op: "load user", Err: err}
	}

	return s.issueTokens(ctx, user)
}

func (s *AuthService) Logout(ctx context.Context, refreshToken string) error {
	return s.tokens.Del(ctx, "refresh:"+refreshToken)
}

func (s *AuthService) issueTokens(ctx context.Context, user *models.User) (*models.AuthTokens, error) {
	accessToken, err := s.jwt.GenerateAccessToken(user.ID, user.Username)
	if err != nil {
		return nil, fmt.Errorf("failed to generate access token: %w", err)
	}

	refreshToken, err := generateToken(64)
	if err != nil {
		return nil, err
	}

	if err := s.tokens.Set(ctx, "refresh:"+refreshToken, strconv.FormatInt(user.ID, 10), refreshTokenTTL); err != nil {
		return nil, fmt.Errorf("failed to store refresh token: %w", err)
	}

	return &models.AuthTokens{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		ExpiresIn:    int(middleware.AccessTokenTTL.Seconds()),
	}, nil
}

func (s *AuthService) GetUser(ctx context.Context, userID int64) (*models.User, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, &NotFoundError{Message: MsgUserNotFound}
		}
		return nil, &PersistenceError{Op: "load user", Err: err}
	}
	return user, nil
}

func (s *AuthService) UpdateUser(ctx context.Context, userID int64, req models.UpdateUserRequest) (*models.User, error) {
	user, err := s.GetUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	fieldErrors := make(map[string]string)
	var username, email string
	if req.Username != nil {
		username = strings.TrimSpace(*req.Username)
		if !usernameRegex.MatchString(username) {
			fieldErrors["username"] = "Username must be 3-50 letters, digits, '.', '_' or '-'"
		}
	}
	if req.Email != nil {
		email = strings.TrimSpace(*req.Email)
		if !emailRegex.MatchString(email) {
			fieldErrors["email"] = "Invalid email format"
		}
	}
	if len(fieldErrors) > 0 {
		return nil, &ValidationError{Fields: fieldErrors}
	}

	if err := s.ensureUnique(ctx, userID, username, email); err != nil {
		return nil, err
	}

	if username != "" {
		user.Username = username
	}
	if email != "" {
		user.Email = email
	}
	if err := s.users.Update(ctx, user); err != nil {
		return nil, &PersistenceError{Op: "update user", Err: err}
	}
	return user, nil
}

func (s *AuthService) DeleteUser(ctx context.Context, userID int64) error {
	if _, err := s.GetUser(ctx, userID); err != nil {
		return err
	}
	if err := s.users.Delete(ctx, userID); err != nil {
		return &PersistenceError{Op: "delete user", Err: err}
	}
	return nil
}

func (s *AuthService) ChangePassword(ctx context.Context, userID int64, req models.ChangePasswordRequest) error {
	if req.CurrentPassword == "" || req.NewPassword == "" {
		return &ValidationError{Fields: map[string]string{"new_password": "Current password and new password are required."}}
	}
	if err := validatePassword(req.NewPassword); err != nil {
		return &ValidationError{Fields: map[string]string{"new_password": err.Error()}}
	}

	user, err := s.GetUser(ctx, userID)
	if err != nil {
		return err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.CurrentPassword)); err != nil {
		return &ValidationError{Fields: map[string]string{"current_password": MsgPasswordIncorrect}}
	}

	return s.setPassword(ctx, userID, req.NewPassword)
}

func (s *AuthService) setPassword(ctx context.Context, userID int64, password string) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcryptCost)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}
	if err := s.users.UpdatePassword(ctx, userID, string(hash)); err != nil {
		return &PersistenceError{Op: "update password", Err: err}
	}
	return nil
}

// ListFlashcards returns every flashcard across the user's notes.
func (s *AuthService) ListFlashcards(ctx context.Context, userID int64) ([]models.Flashcard, error) {
	if _, err := s.GetUser(ctx, userID); err != nil {
		return nil, err
	}
	cards, err := s.flashcards.ListByUser(ctx, userID)
	if err != nil {
		return nil, &PersistenceError{Op: "list flashcards", Err: err}
	}
	return cards, nil
}

// RequestPasswordReset stores a one-hour token and mails the reset link.
func (s *AuthService) RequestPasswordReset(ctx context.Context, email string) error {
	email = strings.TrimSpace(email)
	if email == "" {
		return &ValidationError{Fields: map[string]string{"email": "Email is required."}}
	}

	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return &NotFoundError{Message: MsgUserNotFound}
		}
		return &PersistenceError{Op: "lookup email", Err: err}
	}

	token, err := generateToken(32)
	if err != nil {
		return err
	}
	if err := s.tokens.Set(ctx, "password_reset:"+token, strconv.FormatInt(user.ID, 10), passwordResetTTL); err != nil {
		return fmt.Errorf("failed to store reset token: %w", err)
	}

	go func() {
		if err := s.mailer.SendPasswordResetEmail(user.Email, token); err != nil {
			s.log.Error("failed to send password reset email", "user_id", user.ID, "error", err)
		}
	}()
	return nil
}

func (s *AuthService) ResetPassword(ctx context.Context, req models.PasswordResetConfirm) error {
	if req.Token == "" || req.NewPassword == "" || req.ConfirmPassword == "" {
		return &ValidationError{Fields: map[string]string{"token": "Token and both password fields are required"}}
	}
	if req.NewPassword != req.ConfirmPassword {
		return &ValidationError{Fields: map[string]string{"confirm_password": MsgPasswordMismatch}}
	}
	if err := validatePassword(req.NewPassword); err != nil {
		return &ValidationError{Fields: map[string]string{"new_password": err.Error()}}
	}

	key := "password_reset:" + req.Token
	userIDStr, err := s.tokens.Get(ctx, key)
	if err != nil {
		return &ValidationError{Fields: map[string]string{"token": MsgExpiredInvalidToken}}
	}
	userID, err := strconv.ParseInt(userIDStr, 10, 64)
	if err != nil {
		return &ValidationError{Fields: map[string]string{"token": MsgExpiredInvalidToken}}
	}

	if _, err := s.GetUser(ctx, userID); err != nil {
		return err
	}
	if err := s.setPassword(ctx, userID, req.NewPassword); err != nil {
		return err
	}

	if err := s.tokens.Del(ctx, key); err != nil {
		s.log.Warn("failed to delete used reset token", "error", err)
	}
	return nil
}

func generateToken(bytes int) (string, error) {
	b := make([]byte, bytes)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("failed to generate token: %w", err)
	}
	return hex.EncodeToString(b), nil
}

func validatePassword(pw string) error {
	if len(pw) < 8 {
		return fmt.Errorf("Password must be at least 8 characters")
	}
	for _, ch := range pw {
		if unicode.IsDigit(ch) {
			return nil
		}
	}
	return fmt.Errorf("Password must contain at least one number")
}
