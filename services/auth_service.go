package services

import (
	"log/slog"
	"time"

	"chat-core/auth"
	"chat-core/domain"
	apperrors "chat-core/errors"

	"github.com/google/uuid"
)

// UserStore is the account persistence the auth service needs.
type UserStore interface {
	CreateUser(user domain.User) error
	GetUserByUsername(username string) (domain.User, error)
	UpdateLastSeen(username string, at time.Time) error
}

// AuthService handles account registration and login. It never sees a
// stored plain-text password.
type AuthService struct {
	log    *slog.Logger
	users  UserStore
	tokens *auth.TokenManager
}

func NewAuthService(log *slog.Logger, users UserStore, tokens *auth.TokenManager) *AuthService {
	return &AuthService{log: log, users: users, tokens: tokens}
}

func (s *AuthService) Register(req auth.RegisterRequest) (domain.User, error) {
	if err := auth.ValidateRegister(req); err != nil {
		return domain.User{}, err
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		return domain.User{}, err
	}

	user := domain.User{
		ID:           uuid.New(),
		Username:     req.Username,
		PasswordHash: hash,
		CreatedAt:    time.Now().UTC(),
	}
	if err := s.users.CreateUser(user); err != nil {
		return domain.User{}, err
	}

	s.log.Info("Account registered", "username", user.Username)
	return user, nil
}

// Login verifies the credentials and returns a signed session token.
// Unknown user and wrong password are indistinguishable to the caller.
func (s *AuthService) Login(req auth.LoginRequest) (string, domain.User, error) {
	if err := auth.ValidateLogin(req); err != nil {
		return "", domain.User{}, err
	}

	user, err := s.users.GetUserByUsername(req.Username)
	if err != nil {
		return "", domain.User{}, apperrors.ErrInvalidCredentials
	}

	ok, err := auth.ComparePassword(req.Password, user.PasswordHash)
	if err != nil || !ok {
		return "", domain.User{}, apperrors.ErrInvalidCredentials
	}

	token, err := s.tokens.Generate(user.ID.String(), user.Username)
	if err != nil {
		return "", domain.User{}, err
	}

	if err := s.users.UpdateLastSeen(user.Username, time.Now().UTC()); err != nil {
		s.log.Warn("Last seen update failed", "username", user.Username, "error", err)
	}

	s.log.Info("Login succeeded", "username", user.Username)
	return token, user, nil
}
