package identity

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"strings"
	"sync"

	"roamly/internal/app/policies"
)

// TokenResolver maps opaque bearer tokens to callers. Tokens are
// issued out of band; this core only verifies them.
type TokenResolver struct {
	mu     sync.RWMutex
	tokens map[string]policies.Caller
}

func NewTokenResolver() *TokenResolver {
	return &TokenResolver{tokens: make(map[string]policies.Caller)}
}

// Issue registers a caller and returns a fresh opaque token for them.
func (r *TokenResolver) Issue(caller policies.Caller) (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("identity: entropy read failed: %w", err)
	}
	token := base64.RawURLEncoding.EncodeToString(buf)
	r.mu.Lock()
	r.tokens[token] = caller
	r.mu.Unlock()
	return token, nil
}

// Register binds a known token to a caller. Used for seeded fixtures.
func (r *TokenResolver) Register(token string, caller policies.Caller) {
	if token == "" {
		return
	}
	r.mu.Lock()
	r.tokens[token] = caller
	r.mu.Unlock()
}

func (r *TokenResolver) Resolve(ctx context.Context, token string) (policies.Caller, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return policies.Caller{}, policies.ErrUnauthenticated
	}
	r.mu.RLock()
	caller, ok := r.tokens[token]
	r.mu.RUnlock()
	if !ok {
		return policies.Caller{}, policies.ErrUnauthenticated
	}
	return caller, nil
}
