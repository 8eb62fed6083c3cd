package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateValidate(t *testing.T) {
	svc := NewJWTService("secret", 1)
	tok, err := svc.Generate(42, "fb-uid", "a@b.test")
	require.NoError(t, err)

	claims, err := svc.Validate(tok)
	require.NoError(t, err)
	assert.Equal(t, int64(42), claims.UserID)
	assert.Equal(t, "fb-uid", claims.FirebaseUID)
	assert.Equal(t, "a@b.test", claims.Email)
	assert.NotEmpty(t, claims.ID)
}

func TestValidateRejects(t *testing.T) {
	svc := NewJWTService("secret", 1)
	tok, err := svc.Generate(1, "u", "e")
	require.NoError(t, err)

	_, err = NewJWTService("other", 1).Validate(tok)
	assert.ErrorIs(t, err, ErrInvalidToken)

	_, err = svc.Validate("not-a-token")
	assert.ErrorIs(t, err, ErrInvalidToken)

	expired := NewJWTService("secret", 1)
	expired.now = func() time.Time { return time.Now().Add(-2 * time.Hour) }
	old, err := expired.Generate(1, "u", "e")
	require.NoError(t, err)
	_, err = svc.Validate(old)
	assert.ErrorIs(t, err, ErrInvalidToken)
}
