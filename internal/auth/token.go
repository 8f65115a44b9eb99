package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// DefaultTokenTTL is the token lifetime used when none is configured.
const DefaultTokenTTL = 15 * time.Minute

// ErrInvalidToken indicates a token that is structurally malformed or
// whose signature does not verify.
var ErrInvalidToken = errors.New("invalid token")

// Claims is the claim set embedded in issued bearer tokens.
// The registered claims carry the token id (jti), expiry and issue time.
type Claims struct {
	Email string `json:"email"`
	jwt.RegisteredClaims
}

// TokenID returns the unique token identifier (jti).
func (c *Claims) TokenID() string {
	return c.ID
}

// Expiry returns the expiry timestamp, or the zero time if absent.
func (c *Claims) Expiry() time.Time {
	if c.ExpiresAt == nil {
		return time.Time{}
	}
	return c.ExpiresAt.Time
}

// Complete reports whether subject, token id and expiry are all present.
func (c *Claims) Complete() bool {
	return c.Email != "" && c.ID != "" && c.ExpiresAt != nil
}

// TokenCodec issues and decodes HMAC-signed bearer tokens.
// Issue and Decode are pure CPU-bound operations and safe for
// concurrent use.
type TokenCodec struct {
	secret []byte
	ttl    time.Duration
}

// NewTokenCodec creates a codec signing with the given secret.
// A non-positive ttl falls back to DefaultTokenTTL.
func NewTokenCodec(secret string, ttl time.Duration) *TokenCodec {
	if ttl <= 0 {
		ttl = DefaultTokenTTL
	}
	return &TokenCodec{
		secret: []byte(secret),
		ttl:    ttl,
	}
}

// TTL returns the configured token lifetime.
func (c *TokenCodec) TTL() time.Duration {
	return c.ttl
}

// Issue signs a new token for the given subject email.
// Every call embeds a freshly generated jti (UUID v4), so two tokens
// issued for the same subject are never interchangeable for revocation.
func (c *TokenCodec) Issue(email string) (string, error) {
	now := time.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		Email: email,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(c.ttl)),
		},
	})

	signed, err := token.SignedString(c.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}

	return signed, nil
}

// Decode verifies the token signature and returns the embedded claims.
// It does NOT check expiry or revocation; those are business checks that
// belong to the authentication gate. Any structural or cryptographic
// failure yields ErrInvalidToken.
func (c *TokenCodec) Decode(tokenString string) (*Claims, error) {
	claims := &Claims{}

	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithoutClaimsValidation(),
	)

	token, err := parser.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		return c.secret, nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrInvalidToken, err)
	}
	if !token.Valid {
		return nil, ErrInvalidToken
	}

	return claims, nil
}
