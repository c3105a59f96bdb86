// Package identity issues and verifies the signing keys behind access tokens
// and hashes user passwords.
package identity

import (
	"context"
	"crypto/ed25519"
	"crypto/rand"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// KeySet signs tokens with its active key and verifies tokens signed by any
// key it still holds.
type KeySet interface {
	Sign(ctx context.Context, claims jwt.Claims) (string, error)
	KeyFunc() jwt.Keyfunc
}

// maxRetainedKeys bounds how many rotated Ed25519 keys stay verifiable.
const maxRetainedKeys = 10

// InMemoryKeySet holds Ed25519 keys in memory. Tokens do not survive a
// restart.
type InMemoryKeySet struct {
	mu         sync.RWMutex
	currentKID string
	keys       map[string]ed25519.PrivateKey
	order      []string
	seq        int
}

// NewInMemoryKeySet creates a key set with one fresh key.
func NewInMemoryKeySet() (*InMemoryKeySet, error) {
	ks := &InMemoryKeySet{keys: make(map[string]ed25519.PrivateKey)}
	if err := ks.Rotate(); err != nil {
		return nil, err
	}
	return ks, nil
}

// Rotate generates a new active key. The oldest key is dropped once more
// than maxRetainedKeys are held.
func (ks *InMemoryKeySet) Rotate() error {
	_, privateKey, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		return fmt.Errorf("failed to generate key: %w", err)
	}

	ks.mu.Lock()
	defer ks.mu.Unlock()
	ks.seq++
	kid := fmt.Sprintf("key-%d-%d", time.Now().Unix(), ks.seq)
	ks.keys[kid] = privateKey
	ks.order = append(ks.order, kid)
	ks.currentKID = kid

	for len(ks.order) > maxRetainedKeys {
		delete(ks.keys, ks.order[0])
		ks.order = ks.order[1:]
	}
	return nil
}

func (ks *InMemoryKeySet) Sign(_ context.Context, claims jwt.Claims) (string, error) {
	ks.mu.RLock()
	key := ks.keys[ks.currentKID]
	kid := ks.currentKID
	ks.mu.RUnlock()

	if key == nil {
		return "", errors.New("no active key")
	}
	token := jwt.NewWithClaims(jwt.SigningMethodEdDSA, claims)
	token.Header["kid"] = kid
	return token.SignedString(key)
}

func (ks *InMemoryKeySet) KeyFunc() jwt.Keyfunc {
	return func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodEd25519); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		kid, ok := token.Header["kid"].(string)
		if !ok {
			return nil, errors.New("missing kid in header")
		}

		ks.mu.RLock()
		defer ks.mu.RUnlock()
		key, exists := ks.keys[kid]
		if !exists {
			return nil, fmt.Errorf("key not found: %s", kid)
		}
		return key.Public(), nil
	}
}

// SecretKeySet signs with HS256 using a shared secret, so tokens stay valid
// across restarts and replicas.
type SecretKeySet struct {
	secret []byte
}

// MinSecretLength is the shortest accepted JWT secret.
const MinSecretLength = 32

// NewSecretKeySet creates an HMAC key set.
func NewSecretKeySet(secret string) (*SecretKeySet, error) {
	if len(secret) < MinSecretLength {
		return nil, fmt.Errorf("jwt secret must be at least %d bytes", MinSecretLength)
	}
	return &SecretKeySet{secret: []byte(secret)}, nil
}

func (ks *SecretKeySet) Sign(_ context.Context, claims jwt.Claims) (string, error) {
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(ks.secret)
}

func (ks *SecretKeySet) KeyFunc() jwt.Keyfunc {
	return func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return ks.secret, nil
	}
}

// NewKeySet returns a SecretKeySet when secret is set and an in-memory
// Ed25519 set otherwise.
func NewKeySet(secret string) (KeySet, error) {
	if secret != "" {
		return NewSecretKeySet(secret)
	}
	return NewInMemoryKeySet()
}
