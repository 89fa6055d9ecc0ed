package canchannels

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

// ErrInvalidCredentials is returned for a wrong email/password pair.
var ErrInvalidCredentials = errors.New("invalid email or password")

// ErrNoSession is returned when a token does not resolve to a live session.
var ErrNoSession = errors.New("no active session")

// Session is an issued, revocable sign-in.
type Session struct {
	Token     string    `json:"token"`
	ActorID   string    `json:"actor_id"`
	ExpiresAt time.Time `json:"expires_at"`
}

// IdentityStore is the identity/session collaborator the gate consumes.
type IdentityStore interface {
	SignIn(ctx context.Context, email, password string) (Session, error)
	SignOut(ctx context.Context, token string) error
	CurrentSession(ctx context.Context, token string) (Session, error)
	// CreateAccount registers credentials and materializes a profile row for
	// the new actor, returning the actor id.
	CreateAccount(ctx context.Context, email, password string) (string, error)
}

type tokenClaims struct {
	jwt.RegisteredClaims
}

// LocalIdentityStore implements IdentityStore on the SQLite store. Passwords
// are bcrypt-hashed; session tokens are signed JWTs whose token id must also
// match a live row in the sessions table, so sign-out genuinely revokes.
type LocalIdentityStore struct {
	store  *Store
	secret []byte
	ttl    time.Duration
}

// NewLocalIdentityStore wires an identity store over the record store.
func NewLocalIdentityStore(store *Store, secret string, ttl time.Duration) *LocalIdentityStore {
	return &LocalIdentityStore{store: store, secret: []byte(secret), ttl: ttl}
}

// SignIn validates credentials and issues a new session.
func (s *LocalIdentityStore) SignIn(ctx context.Context, email, password string) (Session, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	actorID, hash, err := s.store.GetAccountByEmail(email)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return Session{}, ErrInvalidCredentials
		}
		return Session{}, fmt.Errorf("load account: %w", err)
	}
	if bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) != nil {
		return Session{}, ErrInvalidCredentials
	}

	tokenID := uuid.NewString()
	expiresAt := time.Now().Add(s.ttl)
	claims := tokenClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        tokenID,
			Subject:   actorID,
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return Session{}, fmt.Errorf("sign token: %w", err)
	}
	if err := s.store.CreateSession(tokenID, actorID); err != nil {
		return Session{}, fmt.Errorf("record session: %w", err)
	}
	return Session{Token: token, ActorID: actorID, ExpiresAt: expiresAt}, nil
}

// SignOut revokes the session behind token. Unparseable or already-revoked
// tokens are not an error: sign-out is unconditional.
func (s *LocalIdentityStore) SignOut(ctx context.Context, token string) error {
	claims, err := s.parseToken(token)
	if err != nil {
		return nil
	}
	return s.store.DeleteSession(claims.ID)
}

// CurrentSession resolves a token to its live session, or ErrNoSession.
func (s *LocalIdentityStore) CurrentSession(ctx context.Context, token string) (Session, error) {
	if token == "" {
		return Session{}, ErrNoSession
	}
	claims, err := s.parseToken(token)
	if err != nil {
		return Session{}, ErrNoSession
	}
	actorID, err := s.store.SessionActor(claims.ID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return Session{}, ErrNoSession
		}
		return Session{}, fmt.Errorf("load session: %w", err)
	}
	if actorID != claims.Subject {
		return Session{}, ErrNoSession
	}
	return Session{Token: token, ActorID: actorID, ExpiresAt: claims.ExpiresAt.Time}, nil
}

// CreateAccount registers credentials and materializes the actor's profile
// row with no role; role and permissions are assigned by the caller.
func (s *LocalIdentityStore) CreateAccount(ctx context.Context, email, password string) (string, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || password == "" {
		return "", fmt.Errorf("%w: email and password are required", ErrValidation)
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	actorID := uuid.NewString()
	if err := s.store.CreateAccount(actorID, email, string(hash)); err != nil {
		return "", fmt.Errorf("create account: %w", err)
	}
	profile := Profile{
		ID:        actorID,
		Email:     email,
		CreatedAt: time.Now().UTC(),
	}
	if err := s.store.SaveProfile(profile); err != nil {
		return "", fmt.Errorf("materialize profile: %w", err)
	}
	return actorID, nil
}

func (s *LocalIdentityStore) parseToken(token string) (*tokenClaims, error) {
	parsed, err := jwt.ParseWithClaims(token, &tokenClaims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return s.secret, nil
	})
	if err != nil {
		return nil, err
	}
	claims, ok := parsed.Claims.(*tokenClaims)
	if !ok || !parsed.Valid {
		return nil, ErrNoSession
	}
	return claims, nil
}
