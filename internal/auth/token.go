// Package auth keeps the bearer token in client-local storage. Obtaining the
// token (OAuth redirect) happens outside this client; the CLI receives it as-is.
package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/dharsanguruparan/picktoss/internal/storage"
)

// TokenStore reads and writes the token under a fixed key.
type TokenStore struct {
	store storage.Store
	key   string
}

// NewTokenStore constructs a TokenStore.
func NewTokenStore(store storage.Store, key string) *TokenStore {
	return &TokenStore{store: store, key: key}
}

// Token returns the stored token, or "" when none is stored.
func (t *TokenStore) Token(ctx context.Context) (string, error) {
	v, err := t.store.Get(ctx, t.key)
	if errors.Is(err, storage.ErrNotFound) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return v, nil
}

// Save persists token after trimming an optional "Bearer " prefix.
func (t *TokenStore) Save(ctx context.Context, token string) error {
	token = strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(token), "Bearer "))
	if token == "" {
		return errors.New("empty token")
	}
	return t.store.Set(ctx, t.key, token)
}

// Clear forgets the token.
func (t *TokenStore) Clear(ctx context.Context) error {
	return t.store.Delete(ctx, t.key)
}

// Claims is what the CLI can tell about a token without verifying it.
type Claims struct {
	Subject   string
	ExpiresAt time.Time
}

// Expired reports whether the token expiry has passed at now. Tokens without
// an expiry never expire.
func (c Claims) Expired(now time.Time) bool {
	return !c.ExpiresAt.IsZero() && now.After(c.ExpiresAt)
}

// Inspect decodes token claims without verifying the signature; the server is
// the authority, this only powers `auth status`.
func Inspect(token string) (Claims, error) {
	parsed, _, err := jwt.NewParser().ParseUnverified(token, jwt.MapClaims{})
	if err != nil {
		return Claims{}, fmt.Errorf("parse token: %w", err)
	}
	var out Claims
	if sub, err := parsed.Claims.GetSubject(); err == nil {
		out.Subject = sub
	}
	if exp, err := parsed.Claims.GetExpirationTime(); err == nil && exp != nil {
		out.ExpiresAt = exp.Time
	}
	return out, nil
}
