package auth

import (
	"testing"
	"time"

	apperrors "chat-core/errors"

	"github.com/stretchr/testify/require"
)

func TestHashAndComparePassword(t *testing.T) {
	req := require.New(t)

	hash, err := HashPassword("Correct-Horse-7")
	req.NoError(err)
	req.Contains(hash, "$argon2id$")

	ok, err := ComparePassword("Correct-Horse-7", hash)
	req.NoError(err)
	req.True(ok)

	ok, err = ComparePassword("wrong-password", hash)
	req.NoError(err)
	req.False(ok)
}

func TestComparePassword_MalformedHash(t *testing.T) {
	req := require.New(t)

	_, err := ComparePassword("whatever", "not-a-hash")
	req.ErrorIs(err, apperrors.ErrInvalidCredentials)
}

func TestHashPassword_UniqueSalts(t *testing.T) {
	req := require.New(t)

	first, err := HashPassword("Correct-Horse-7")
	req.NoError(err)
	second, err := HashPassword("Correct-Horse-7")
	req.NoError(err)

	// Same password, different salt, different hash
	req.NotEqual(first, second)
}

func TestTokenManager_GenerateAndValidate(t *testing.T) {
	req := require.New(t)
	manager := NewTokenManager("test-secret-key", time.Hour)

	token, err := manager.Generate("user-1", "alice")
	req.NoError(err)
	req.NotEmpty(token)

	claims, err := manager.Validate(token)
	req.NoError(err)
	req.Equal("user-1", claims.UserID)
	req.Equal("alice", claims.Username)
	req.Equal(tokenIssuer, claims.Issuer)
}

func TestTokenManager_RejectsExpiredToken(t *testing.T) {
	req := require.New(t)
	manager := NewTokenManager("test-secret-key", -time.Minute)

	token, err := manager.Generate("user-1", "alice")
	req.NoError(err)

	_, err = manager.Validate(token)
	req.Error(err)
}

func TestTokenManager_RejectsForeignSignature(t *testing.T) {
	req := require.New(t)
	issuer := NewTokenManager("secret-a", time.Hour)
	verifier := NewTokenManager("secret-b", time.Hour)

	token, err := issuer.Generate("user-1", "alice")
	req.NoError(err)

	_, err = verifier.Validate(token)
	req.Error(err)
}

func TestValidateRegister(t *testing.T) {
	tests := []struct {
		name    string
		req     RegisterRequest
		wantErr bool
	}{
		{"valid", RegisterRequest{Username: "alice", Password: "Str0ng!Pass"}, false},
		{"empty username", RegisterRequest{Username: "", Password: "Str0ng!Pass"}, true},
		{"username too long", RegisterRequest{Username: "abcdefghijklmnopqrstu", Password: "Str0ng!Pass"}, true},
		{"password too short", RegisterRequest{Username: "alice", Password: "S1!a"}, true},
		{"password lacks complexity", RegisterRequest{Username: "alice", Password: "alllowercase"}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateRegister(tt.req)
			if tt.wantErr {
				require.Error(t, err)
			} else {
				require.NoError(t, err)
			}
		})
	}
}

func TestValidateLogin(t *testing.T) {
	require.NoError(t, ValidateLogin(LoginRequest{Username: "alice", Password: "Str0ng!Pass"}))
	require.Error(t, ValidateLogin(LoginRequest{Username: "", Password: "Str0ng!Pass"}))
	require.Error(t, ValidateLogin(LoginRequest{Username: "alice", Password: "short"}))
}
