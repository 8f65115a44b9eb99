// Package service provides business logic for the application.
package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/accountd/accountd/internal/auth"
	"github.com/accountd/accountd/internal/metrics"
	"github.com/accountd/accountd/internal/model"
	"github.com/accountd/accountd/internal/repository"
)

// Service errors. These form the contract the handlers translate to
// HTTP status codes; anything else is an infrastructure fault.
var (
	ErrUserNotFound      = errors.New("user not found")
	ErrEmailExists       = errors.New("a user with this email already exists")
	ErrIncorrectPassword = errors.New("incorrect password")
	ErrInvalidToken      = errors.New("could not validate credentials")
	ErrTokenRevoked      = errors.New("token has been revoked")
	ErrTokenIDMissing    = errors.New("token id not found")
)

// UserStore is the user persistence the service depends on.
// Implemented by *repository.Repository.
type UserStore interface {
	CreateUser(ctx context.Context, user *model.User) error
	GetUserByEmail(ctx context.Context, email string) (*model.User, error)
	UpdateUserByEmail(ctx context.Context, email string, upd repository.UserUpdate) (*model.User, error)
	DeleteUserByEmail(ctx context.Context, email string) error
	ListUsers(ctx context.Context) ([]*model.User, error)
}

// RevocationStore is the persistent token blacklist.
// Implemented by *repository.Repository.
type RevocationStore interface {
	AddRevokedToken(ctx context.Context, tokenID string, expiresAt time.Time) error
	IsTokenRevoked(ctx context.Context, tokenID string) (bool, error)
}

// RevocationCache caches positive revocation verdicts.
// Implemented by *cache.Cache; may be nil to disable caching.
type RevocationCache interface {
	MarkRevoked(ctx context.Context, tokenID string, expiresAt time.Time) error
	IsRevoked(ctx context.Context, tokenID string) (bool, error)
}

// AccountService handles signup, login, authentication and profile
// operations.
type AccountService struct {
	users       UserStore
	revocations RevocationStore
	revCache    RevocationCache
	hasher      *auth.Hasher
	codec       *auth.TokenCodec
	metrics     metrics.Recorder
}

// NewAccountService creates a new AccountService.
// revCache may be nil; revocation checks then always hit the store.
func NewAccountService(
	users UserStore,
	revocations RevocationStore,
	revCache RevocationCache,
	hasher *auth.Hasher,
	codec *auth.TokenCodec,
	recorder metrics.Recorder,
) *AccountService {
	if recorder == nil {
		recorder = metrics.NewNoop()
	}
	return &AccountService{
		users:       users,
		revocations: revocations,
		revCache:    revCache,
		hasher:      hasher,
		codec:       codec,
		metrics:     recorder,
	}
}

// NormalizeEmail lowercases and trims an email address. All storage and
// lookups go through this so uniqueness is case-insensitive.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// SignupInput defines input for creating an account.
type SignupInput struct {
	Name     string
	Email    string
	PhoneNo  *int64
	Password string
}

// Signup creates a new account with a hashed password.
func (s *AccountService) Signup(ctx context.Context, input SignupInput) (*model.User, error) {
	hash, err := s.hasher.Hash(input.Password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	now := time.Now().UTC()
	user := &model.User{
		ID:           ulid.Make().String(),
		Name:         input.Name,
		Email:        NormalizeEmail(input.Email),
		PhoneNo:      input.PhoneNo,
		PasswordHash: hash,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := s.users.CreateUser(ctx, user); err != nil {
		if errors.Is(err, repository.ErrEmailExists) {
			return nil, ErrEmailExists
		}
		return nil, err
	}

	s.metrics.IncSignup()
	return user, nil
}

// Login verifies credentials and issues a bearer token.
func (s *AccountService) Login(ctx context.Context, email, password string) (string, error) {
	user, err := s.users.GetUserByEmail(ctx, NormalizeEmail(email))
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			s.metrics.IncLoginFailure(metrics.ReasonUnknownEmail)
			return "", ErrUserNotFound
		}
		return "", err
	}

	if !s.hasher.Verify(password, user.PasswordHash) {
		s.metrics.IncLoginFailure(metrics.ReasonBadPassword)
		return "", ErrIncorrectPassword
	}

	token, err := s.codec.Issue(user.Email)
	if err != nil {
		return "", fmt.Errorf("issue token: %w", err)
	}

	s.metrics.IncTokenIssued()
	s.metrics.IncLoginSuccess()
	return token, nil
}

// Authenticate resolves a raw bearer token to an authenticated identity.
//
// The gate fails closed at every step:
//  1. signature/structure  -> ErrInvalidToken
//  2. claim completeness   -> ErrInvalidToken
//  3. expiry               -> ErrInvalidToken (indistinguishable from 1-2)
//  4. revocation           -> ErrTokenRevoked
//  5. user lookup          -> ErrUserNotFound (the token was valid, the
//     account is gone)
//
// Store failures during step 4-5 propagate as wrapped infrastructure
// errors, never as an authentication failure.
func (s *AccountService) Authenticate(ctx context.Context, rawToken string) (*model.Identity, error) {
	start := time.Now()
	defer func() {
		s.metrics.ObserveAuthDuration(time.Since(start))
	}()

	claims, err := s.codec.Decode(rawToken)
	if err != nil {
		s.metrics.IncAuthFailure(metrics.ReasonInvalidToken)
		return nil, ErrInvalidToken
	}

	if !claims.Complete() {
		s.metrics.IncAuthFailure(metrics.ReasonInvalidToken)
		return nil, ErrInvalidToken
	}

	if time.Now().After(claims.Expiry()) {
		// Same error as a bad signature so callers can't tell why the
		// token was rejected.
		s.metrics.IncAuthFailure(metrics.ReasonExpired)
		return nil, ErrInvalidToken
	}

	revoked, err := s.checkRevoked(ctx, claims.TokenID(), claims.Expiry())
	if err != nil {
		return nil, fmt.Errorf("check revocation: %w", err)
	}
	if revoked {
		s.metrics.IncAuthFailure(metrics.ReasonRevoked)
		return nil, ErrTokenRevoked
	}

	user, err := s.users.GetUserByEmail(ctx, NormalizeEmail(claims.Email))
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			s.metrics.IncAuthFailure(metrics.ReasonUserGone)
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("resolve identity: %w", err)
	}

	s.metrics.IncAuthSuccess()
	return &model.Identity{
		User:      user,
		Token:     rawToken,
		TokenID:   claims.TokenID(),
		ExpiresAt: claims.Expiry(),
	}, nil
}

// checkRevoked consults the cache first, then the store. Only the store
// can answer "not revoked": the cache holds positive verdicts alone, so
// a cache outage degrades to store lookups instead of un-revoking
// tokens.
func (s *AccountService) checkRevoked(ctx context.Context, tokenID string, expiresAt time.Time) (bool, error) {
	if s.revCache != nil {
		hit, err := s.revCache.IsRevoked(ctx, tokenID)
		if err == nil && hit {
			s.metrics.IncRevocationCacheHit()
			return true, nil
		}
		s.metrics.IncRevocationCacheMiss()
	}

	revoked, err := s.revocations.IsTokenRevoked(ctx, tokenID)
	if err != nil {
		return false, err
	}

	if revoked && s.revCache != nil {
		// Backfill; best effort.
		_ = s.revCache.MarkRevoked(ctx, tokenID, expiresAt)
	}

	return revoked, nil
}

// Logout revokes the token carried by the identity. A second logout
// with the same token yields ErrTokenRevoked, indistinguishable from
// presenting an already-revoked token.
func (s *AccountService) Logout(ctx context.Context, identity *model.Identity) error {
	if identity == nil || identity.TokenID == "" {
		return ErrTokenIDMissing
	}

	if err := s.revocations.AddRevokedToken(ctx, identity.TokenID, identity.ExpiresAt); err != nil {
		if errors.Is(err, repository.ErrTokenAlreadyRevoked) {
			return ErrTokenRevoked
		}
		return err
	}

	if s.revCache != nil {
		// Best effort; the store row is authoritative.
		_ = s.revCache.MarkRevoked(ctx, identity.TokenID, identity.ExpiresAt)
	}

	s.metrics.IncTokenRevoked()
	return nil
}

// UpdateProfileInput defines a partial profile update.
type UpdateProfileInput struct {
	Name     *string
	PhoneNo  *int64
	Password *string
}

// UpdateProfile applies a partial update to the user's profile.
// A new password is hashed before it reaches the store.
func (s *AccountService) UpdateProfile(ctx context.Context, email string, input UpdateProfileInput) (*model.User, error) {
	upd := repository.UserUpdate{
		Name:    input.Name,
		PhoneNo: input.PhoneNo,
	}

	if input.Password != nil {
		hash, err := s.hasher.Hash(*input.Password)
		if err != nil {
			return nil, fmt.Errorf("hash password: %w", err)
		}
		upd.PasswordHash = &hash
	}

	user, err := s.users.UpdateUserByEmail(ctx, NormalizeEmail(email), upd)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}

	return user, nil
}

// DeleteAccount removes the user's record.
func (s *AccountService) DeleteAccount(ctx context.Context, email string) error {
	if err := s.users.DeleteUserByEmail(ctx, NormalizeEmail(email)); err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return ErrUserNotFound
		}
		return err
	}
	return nil
}

// ListUsers returns all registered users.
func (s *AccountService) ListUsers(ctx context.Context) ([]*model.User, error) {
	return s.users.ListUsers(ctx)
}
