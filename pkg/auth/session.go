package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/NiltonFilhoprofessionalDEV/indicadores-medmais-sub000/pkg/identity"
	"github.com/NiltonFilhoprofessionalDEV/indicadores-medmais-sub000/pkg/store"
)

var (
	// ErrInvalidCredentials is returned for an unknown email or a wrong
	// password. The two cases are not distinguished.
	ErrInvalidCredentials = errors.New("invalid email or password")
	// ErrInactiveUser is returned when the account has been deactivated.
	ErrInactiveUser = errors.New("user is inactive")
	// ErrInvalidRefreshToken is returned when a refresh token is rejected.
	ErrInvalidRefreshToken = errors.New("invalid refresh token")
)

// Session is an authenticated session. It is immutable: reauthenticating
// yields a new Session.
type Session struct {
	userID           string
	role             string
	accessToken      string
	refreshToken     string
	expiresAt        time.Time
	refreshExpiresAt time.Time
}

func (s Session) UserID() string              { return s.userID }
func (s Session) Role() string                { return s.role }
func (s Session) AccessToken() string         { return s.accessToken }
func (s Session) RefreshToken() string        { return s.refreshToken }
func (s Session) ExpiresAt() time.Time        { return s.expiresAt }
func (s Session) RefreshExpiresAt() time.Time { return s.refreshExpiresAt }

// Expired reports whether the access token has expired at now.
func (s Session) Expired(now time.Time) bool {
	return !now.Before(s.expiresAt)
}

type sessionJSON struct {
	UserID           string    `json:"user_id"`
	Role             string    `json:"role"`
	TokenType        string    `json:"token_type"`
	AccessToken      string    `json:"access_token"`
	RefreshToken     string    `json:"refresh_token"`
	ExpiresAt        time.Time `json:"expires_at"`
	RefreshExpiresAt time.Time `json:"refresh_expires_at"`
}

func (s Session) MarshalJSON() ([]byte, error) {
	return json.Marshal(sessionJSON{
		UserID:           s.userID,
		Role:             s.role,
		TokenType:        "Bearer",
		AccessToken:      s.accessToken,
		RefreshToken:     s.refreshToken,
		ExpiresAt:        s.expiresAt,
		RefreshExpiresAt: s.refreshExpiresAt,
	})
}

// ProfileStore is the account lookup used by the Authenticator.
type ProfileStore interface {
	GetProfile(ctx context.Context, id string) (store.Profile, error)
	GetProfileByEmail(ctx context.Context, email string) (store.Profile, error)
}

// Authenticator performs email/password login and token refresh.
type Authenticator struct {
	profiles   ProfileStore
	keys       identity.KeySet
	validator  *JWTValidator
	accessTTL  time.Duration
	refreshTTL time.Duration
	now        func() time.Time
}

// NewAuthenticator creates an Authenticator.
func NewAuthenticator(profiles ProfileStore, keys identity.KeySet, accessTTL, refreshTTL time.Duration) *Authenticator {
	return &Authenticator{
		profiles:   profiles,
		keys:       keys,
		validator:  NewJWTValidator(keys),
		accessTTL:  accessTTL,
		refreshTTL: refreshTTL,
		now:        time.Now,
	}
}

// Validator returns the validator for tokens this Authenticator issues.
func (a *Authenticator) Validator() *JWTValidator {
	return a.validator
}

// Login checks credentials and opens a session.
func (a *Authenticator) Login(ctx context.Context, email, password string) (Session, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || password == "" {
		return Session{}, ErrInvalidCredentials
	}

	profile, err := a.profiles.GetProfileByEmail(ctx, email)
	if errors.Is(err, store.ErrNotFound) {
		return Session{}, ErrInvalidCredentials
	}
	if err != nil {
		return Session{}, fmt.Errorf("login: %w", err)
	}
	if err := identity.CheckPassword(profile.PasswordHash, password); err != nil {
		return Session{}, ErrInvalidCredentials
	}
	if !profile.Active {
		return Session{}, ErrInactiveUser
	}
	return a.issue(ctx, profile)
}

// Reauthenticate exchanges a refresh token for a new Session. The profile is
// reloaded so role and base changes take effect.
func (a *Authenticator) Reauthenticate(ctx context.Context, refreshToken string) (Session, error) {
	claims, err := a.validator.Validate(refreshToken, TokenRefresh)
	if err != nil {
		return Session{}, fmt.Errorf("%w: %v", ErrInvalidRefreshToken, err)
	}

	profile, err := a.profiles.GetProfile(ctx, claims.Subject)
	if errors.Is(err, store.ErrNotFound) {
		return Session{}, ErrInvalidRefreshToken
	}
	if err != nil {
		return Session{}, fmt.Errorf("reauthenticate: %w", err)
	}
	if !profile.Active {
		return Session{}, ErrInactiveUser
	}
	return a.issue(ctx, profile)
}

func (a *Authenticator) issue(ctx context.Context, p store.Profile) (Session, error) {
	now := a.now()
	expires := now.Add(a.accessTTL)
	refreshExpires := now.Add(a.refreshTTL)

	access := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   p.ID,
			Issuer:    issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expires),
		},
		Use:              TokenAccess,
		Email:            p.Email,
		Role:             p.Role,
		BaseID:           p.BaseID,
		TeamID:           p.TeamID,
		SCIManagerAccess: p.SCIManagerAccess,
	}
	accessToken, err := a.keys.Sign(ctx, access)
	if err != nil {
		return Session{}, fmt.Errorf("sign access token: %w", err)
	}

	refresh := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   p.ID,
			Issuer:    issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(refreshExpires),
		},
		Use: TokenRefresh,
	}
	refreshToken, err := a.keys.Sign(ctx, refresh)
	if err != nil {
		return Session{}, fmt.Errorf("sign refresh token: %w", err)
	}

	return Session{
		userID:           p.ID,
		role:             p.Role,
		accessToken:      accessToken,
		refreshToken:     refreshToken,
		expiresAt:        expires,
		refreshExpiresAt: refreshExpires,
	}, nil
}
