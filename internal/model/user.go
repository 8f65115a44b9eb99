// Package model defines domain entities for the application.
package model

import "time"

// User represents a registered account.
// Email is stored lowercased and is unique at the storage layer.
type User struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	PhoneNo      *int64    `json:"phone_no,omitempty"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}
