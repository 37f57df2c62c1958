package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/capsule-closet/capsule-be/internal/models"
)

func TestGenerateVerify(t *testing.T) {
	tm := NewTokenManager("secret", "capsule-test", time.Minute)

	token, err := tm.Generate(models.User{ID: 42, Username: "ada"})
	require.NoError(t, err)

	id, err := tm.Verify(token)
	require.NoError(t, err)
	assert.Equal(t, int64(42), id)
}

func TestVerifyRejects(t *testing.T) {
	tm := NewTokenManager("secret", "capsule-test", time.Minute)
	token, err := tm.Generate(models.User{ID: 1})
	require.NoError(t, err)

	tests := []struct {
		name  string
		tm    *TokenManager
		token string
	}{
		{"wrong secret", NewTokenManager("other", "capsule-test", time.Minute), token},
		{"wrong issuer", NewTokenManager("secret", "someone-else", time.Minute), token},
		{"garbage", tm, "not-a-jwt"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := tt.tm.Verify(tt.token)
			assert.ErrorIs(t, err, ErrInvalidToken)
		})
	}
}

func TestVerifyExpired(t *testing.T) {
	tm := NewTokenManager("secret", "capsule-test", -time.Minute)
	token, err := tm.Generate(models.User{ID: 1})
	require.NoError(t, err)

	_, err = tm.Verify(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}
