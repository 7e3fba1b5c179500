package sessions

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"partymatch/internal/models"
)

const (
	codeKeyPrefix = "code:"
	codeTTL       = 24 * time.Hour
)

// CodeService maps short join codes to session ids. Codes live in
// Redis with a TTL, so expiry needs no sweep of its own.
type CodeService struct {
	rdb *redis.Client
}

func NewCodeService(rdb *redis.Client) *CodeService {
	return &CodeService{rdb: rdb}
}

// GenerateCode issues a 6-character uppercase code valid for 24 hours.
func (cs *CodeService) GenerateCode(ctx context.Context, sessionID string) (string, error) {
	buf := make([]byte, 3)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("failed to generate game code: %w", err)
	}
	code := strings.ToUpper(hex.EncodeToString(buf))

	if err := cs.rdb.Set(ctx, codeKeyPrefix+code, sessionID, codeTTL).Err(); err != nil {
		return "", fmt.Errorf("failed to store game code: %w", err)
	}
	return code, nil
}

// ValidateCode resolves a code to its session id. Missing and expired
// codes are indistinguishable: both are not-found.
func (cs *CodeService) ValidateCode(ctx context.Context, code string) (string, error) {
	sessionID, err := cs.rdb.Get(ctx, codeKeyPrefix+strings.ToUpper(code)).Result()
	if err == redis.Nil {
		return "", models.ErrCodeNotFound
	}
	if err != nil {
		return "", fmt.Errorf("failed to look up game code: %w", err)
	}
	return sessionID, nil
}
