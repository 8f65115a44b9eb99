// Package auth provides credential hashing and bearer-token primitives.
package auth

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/argon2"
)

// HashParams holds argon2id cost parameters.
type HashParams struct {
	Time    uint32
	Memory  uint32 // KiB
	Threads uint8
}

// DefaultHashParams are the OWASP recommended minimums for argon2id.
var DefaultHashParams = HashParams{
	Time:    3,
	Memory:  64 * 1024, // 64 MB
	Threads: 4,
}

const (
	hashKeyLen  = 32
	hashSaltLen = 16
)

// ErrInvalidHash indicates the stored hash is not a parseable argon2id
// PHC string.
var ErrInvalidHash = errors.New("invalid hash format")

// Hasher produces and verifies one-way password digests.
type Hasher struct {
	params HashParams
}

// NewHasher creates a Hasher with the given cost parameters.
// Zero-value fields fall back to DefaultHashParams.
func NewHasher(params HashParams) *Hasher {
	if params.Time == 0 {
		params.Time = DefaultHashParams.Time
	}
	if params.Memory == 0 {
		params.Memory = DefaultHashParams.Memory
	}
	if params.Threads == 0 {
		params.Threads = DefaultHashParams.Threads
	}
	return &Hasher{params: params}
}

// Hash creates an argon2id digest of the given password with a fresh
// random salt. Returns the digest in PHC string format:
// $argon2id$v=19$m=65536,t=3,p=4$<salt>$<hash>
func (h *Hasher) Hash(password string) (string, error) {
	salt := make([]byte, hashSaltLen)
	if _, err := rand.Read(salt); err != nil {
		return "", fmt.Errorf("generate salt: %w", err)
	}

	digest := argon2.IDKey(
		[]byte(password),
		salt,
		h.params.Time,
		h.params.Memory,
		h.params.Threads,
		hashKeyLen,
	)

	b64Salt := base64.RawStdEncoding.EncodeToString(salt)
	b64Hash := base64.RawStdEncoding.EncodeToString(digest)

	return fmt.Sprintf(
		"$argon2id$v=%d$m=%d,t=%d,p=%d$%s$%s",
		argon2.Version,
		h.params.Memory,
		h.params.Time,
		h.params.Threads,
		b64Salt,
		b64Hash,
	), nil
}

// Verify reports whether the password matches the stored hash.
// A malformed hash never propagates as an error: it verifies false.
// Comparison of the derived keys is constant time.
func (h *Hasher) Verify(password, encodedHash string) bool {
	match, err := compareHash(password, encodedHash)
	if err != nil {
		return false
	}
	return match
}

// compareHash parses the PHC string, re-derives the key with the
// parameters embedded in the hash, and compares in constant time.
func compareHash(password, encodedHash string) (bool, error) {
	parts := strings.Split(encodedHash, "$")
	if len(parts) != 6 {
		return false, ErrInvalidHash
	}

	if parts[1] != "argon2id" {
		return false, ErrInvalidHash
	}

	var version int
	if _, err := fmt.Sscanf(parts[2], "v=%d", &version); err != nil {
		return false, ErrInvalidHash
	}
	if version != argon2.Version {
		return false, ErrInvalidHash
	}

	var memory, time uint32
	var threads uint8
	if _, err := fmt.Sscanf(parts[3], "m=%d,t=%d,p=%d", &memory, &time, &threads); err != nil {
		return false, ErrInvalidHash
	}

	salt, err := base64.RawStdEncoding.DecodeString(parts[4])
	if err != nil {
		return false, ErrInvalidHash
	}

	expected, err := base64.RawStdEncoding.DecodeString(parts[5])
	if err != nil {
		return false, ErrInvalidHash
	}

	computed := argon2.IDKey(
		[]byte(password),
		salt,
		time,
		memory,
		threads,
		uint32(len(expected)),
	)

	return subtle.ConstantTimeCompare(computed, expected) == 1, nil
}
