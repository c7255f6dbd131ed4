package token

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIssueAndVerify(t *testing.T) {
	manager := NewManager("test-secret", time.Hour)

	issued, err := manager.Issue(42)
	require.NoError(t, err)
	require.NotEmpty(t, issued)

	userID, err := manager.Verify(issued)
	require.NoError(t, err)
	assert.Equal(t, int64(42), userID)
}

func TestVerifyExpired(t *testing.T) {
	manager := NewManager("test-secret", -time.Minute)

	issued, err := manager.Issue(42)
	require.NoError(t, err)

	_, err = manager.Verify(issued)
	assert.ErrorIs(t, err, ErrExpiredToken)
}

func TestVerifyGarbage(t *testing.T) {
	manager := NewManager("test-secret", time.Hour)

	_, err := manager.Verify("not-a-token")
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestVerifyWrongSecret(t *testing.T) {
	issued, err := NewManager("secret-a", time.Hour).Issue(7)
	require.NoError(t, err)

	_, err = NewManager("secret-b", time.Hour).Verify(issued)
	assert.ErrorIs(t, err, ErrInvalidToken)
}
