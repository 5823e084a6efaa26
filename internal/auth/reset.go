package auth

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"time"

	"github.com/redis/go-redis/v9"
)

var (
	// ErrCodeExpired is returned when no code is stored for the email
	ErrCodeExpired = errors.New("verification code expired or never issued")

	// ErrCodeMismatch is returned when the submitted code is wrong
	ErrCodeMismatch = errors.New("verification code does not match")
)

// ResetCodeStore keeps short-lived password-reset verification codes in
// Redis, keyed by email.
type ResetCodeStore struct {
	client *redis.Client
	ttl    time.Duration
}

// NewResetCodeStore creates a store with the given code lifetime.
func NewResetCodeStore(client *redis.Client, ttl time.Duration) *ResetCodeStore {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &ResetCodeStore{client: client, ttl: ttl}
}

func resetKey(email string) string {
	return "reset_code:" + email
}

// Issue generates a 4-digit code for the email and stores it with a TTL,
// replacing any previous code.
func (s *ResetCodeStore) Issue(ctx context.Context, email string) (string, error) {
	if s.client == nil {
		return "", errors.New("auth: reset store not configured")
	}
	n, err := rand.Int(rand.Reader, big.NewInt(9000))
	if err != nil {
		return "", fmt.Errorf("auth: generate code: %w", err)
	}
	code := fmt.Sprintf("%04d", n.Int64()+1000)
	if err := s.client.Set(ctx, resetKey(email), code, s.ttl).Err(); err != nil {
		return "", fmt.Errorf("auth: store code: %w", err)
	}
	return code, nil
}

// Verify checks the submitted code and consumes it on success so a code can
// only be used once.
func (s *ResetCodeStore) Verify(ctx context.Context, email, code string) error {
	if s.client == nil {
		return errors.New("auth: reset store not configured")
	}
	stored, err := s.client.Get(ctx, resetKey(email)).Result()
	if errors.Is(err, redis.Nil) {
		return ErrCodeExpired
	}
	if err != nil {
		return fmt.Errorf("auth: read code: %w", err)
	}
	if stored != code {
		return ErrCodeMismatch
	}
	if err := s.client.Del(ctx, resetKey(email)).Err(); err != nil {
		return fmt.Errorf("auth: consume code: %w", err)
	}
	return nil
}
