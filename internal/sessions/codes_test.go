package sessions

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"partymatch/internal/models"
)

func setupTestRedis(t *testing.T) (*redis.Client, *miniredis.Miniredis) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return client, mr
}

func TestGenerateAndValidateCode(t *testing.T) {
	client, _ := setupTestRedis(t)
	cs := NewCodeService(client)

	code, err := cs.GenerateCode(context.Background(), "session-abc")
	require.NoError(t, err)
	assert.Len(t, code, 6)
	assert.Regexp(t, "^[0-9A-F]{6}$", code)

	sessionID, err := cs.ValidateCode(context.Background(), code)
	require.NoError(t, err)
	assert.Equal(t, "session-abc", sessionID)
}

func TestValidateCodeCaseInsensitive(t *testing.T) {
	client, _ := setupTestRedis(t)
	cs := NewCodeService(client)

	code, err := cs.GenerateCode(context.Background(), "session-abc")
	require.NoError(t, err)

	lower := make([]byte, len(code))
	for i := range code {
		c := code[i]
		if c >= 'A' && c <= 'Z' {
			c += 'a' - 'A'
		}
		lower[i] = c
	}

	sessionID, err := cs.ValidateCode(context.Background(), string(lower))
	require.NoError(t, err)
	assert.Equal(t, "session-abc", sessionID)
}

func TestValidateUnknownCode(t *testing.T) {
	client, _ := setupTestRedis(t)
	cs := NewCodeService(client)

	_, err := cs.ValidateCode(context.Background(), "ZZZZZZ")
	assert.ErrorIs(t, err, models.ErrCodeNotFound)
}

func TestCodeExpires(t *testing.T) {
	client, mr := setupTestRedis(t)
	cs := NewCodeService(client)

	code, err := cs.GenerateCode(context.Background(), "session-abc")
	require.NoError(t, err)

	mr.FastForward(24*time.Hour + time.Minute)

	_, err = cs.ValidateCode(context.Background(), code)
	assert.ErrorIs(t, err, models.ErrCodeNotFound)
}
