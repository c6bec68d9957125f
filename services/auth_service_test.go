package services

import (
	"log/slog"
	"testing"
	"time"

	"chat-core/auth"
	"chat-core/domain"
	apperrors "chat-core/errors"

	"github.com/mama165/sdk-go/logs"
	"github.com/stretchr/testify/require"
)

type memoryUserStore struct {
	users map[string]domain.User
}

func newMemoryUserStore() *memoryUserStore {
	return &memoryUserStore{users: make(map[string]domain.User)}
}

func (s *memoryUserStore) CreateUser(user domain.User) error {
	if _, exists := s.users[user.Username]; exists {
		return apperrors.ErrUserAlreadyExists
	}
	s.users[user.Username] = user
	return nil
}

func (s *memoryUserStore) GetUserByUsername(username string) (domain.User, error) {
	user, ok := s.users[username]
	if !ok {
		return domain.User{}, apperrors.ErrInvalidCredentials
	}
	return user, nil
}

func (s *memoryUserStore) UpdateLastSeen(username string, at time.Time) error {
	user := s.users[username]
	user.LastSeenAt = at
	s.users[username] = user
	return nil
}

func newAuthService(t *testing.T) (*AuthService, *memoryUserStore) {
	t.Helper()
	store := newMemoryUserStore()
	tokens := auth.NewTokenManager("test-secret", time.Hour)
	return NewAuthService(logs.GetLoggerFromLevel(slog.LevelError), store, tokens), store
}

func TestAuthService_RegisterAndLogin(t *testing.T) {
	req := require.New(t)
	svc, store := newAuthService(t)

	user, err := svc.Register(auth.RegisterRequest{Username: "alice", Password: "Str0ng!Pass"})
	req.NoError(err)
	req.Equal("alice", user.Username)
	req.NotEqual("Str0ng!Pass", store.users["alice"].PasswordHash)

	token, logged, err := svc.Login(auth.LoginRequest{Username: "alice", Password: "Str0ng!Pass"})
	req.NoError(err)
	req.NotEmpty(token)
	req.Equal(user.ID, logged.ID)
	req.False(store.users["alice"].LastSeenAt.IsZero())
}

func TestAuthService_Register_DuplicateUsername(t *testing.T) {
	req := require.New(t)
	svc, _ := newAuthService(t)

	_, err := svc.Register(auth.RegisterRequest{Username: "alice", Password: "Str0ng!Pass"})
	req.NoError(err)

	_, err = svc.Register(auth.RegisterRequest{Username: "alice", Password: "An0ther!Pass"})
	req.ErrorIs(err, apperrors.ErrUserAlreadyExists)
}

func TestAuthService_Register_WeakPassword(t *testing.T) {
	req := require.New(t)
	svc, _ := newAuthService(t)

	_, err := svc.Register(auth.RegisterRequest{Username: "alice", Password: "alllowercase"})
	req.ErrorIs(err, apperrors.ErrInvalidPassword)
}

func TestAuthService_Login_WrongPassword(t *testing.T) {
	req := require.New(t)
	svc, _ := newAuthService(t)

	_, err := svc.Register(auth.RegisterRequest{Username: "alice", Password: "Str0ng!Pass"})
	req.NoError(err)

	_, _, err = svc.Login(auth.LoginRequest{Username: "alice", Password: "Wr0ng!Pass1"})
	req.ErrorIs(err, apperrors.ErrInvalidCredentials)
}

func TestAuthService_Login_UnknownUser(t *testing.T) {
	req := require.New(t)
	svc, _ := newAuthService(t)

	_, _, err := svc.Login(auth.LoginRequest{Username: "ghost", Password: "Str0ng!Pass"})
	req.ErrorIs(err, apperrors.ErrInvalidCredentials)
}
