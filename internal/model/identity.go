package model

import "time"

// Identity is the result of a successful authentication check.
// Downstream handlers consume TokenID from here instead of re-decoding
// the raw token.
type Identity struct {
	User      *User
	Token     string
	TokenID   string
	ExpiresAt time.Time
}
