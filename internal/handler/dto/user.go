// Package dto provides Data Transfer Objects for API requests and responses.
package dto

import (
	"time"

	"github.com/accountd/accountd/internal/model"
)

// SignupRequest represents the request body for creating an account.
type SignupRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	PhoneNo  *int64 `json:"phone_no,omitempty"`
	Password string `json:"password"`
}

// LoginRequest represents the request body for logging in.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// UpdateUserRequest represents a partial profile update.
// Nil fields are left unchanged.
type UpdateUserRequest struct {
	Name     *string `json:"name,omitempty"`
	PhoneNo  *int64  `json:"phone_no,omitempty"`
	Password *string `json:"password,omitempty"`
}

// UserResponse represents a user in API responses.
// The password hash never leaves the server.
type UserResponse struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	PhoneNo   *int64    `json:"phone_no,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// UserListResponse represents a list of users.
type UserListResponse struct {
	Data []UserResponse `json:"data"`
}

// LoginResponse carries a freshly issued bearer token.
type LoginResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
}

// MessageResponse is a plain acknowledgement.
type MessageResponse struct {
	Message string `json:"message"`
}

// ErrorResponse represents an API error.
type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

// ToUserResponse converts a User model to UserResponse DTO.
func ToUserResponse(user *model.User) *UserResponse {
	return &UserResponse{
		ID:        user.ID,
		Name:      user.Name,
		Email:     user.Email,
		PhoneNo:   user.PhoneNo,
		CreatedAt: user.CreatedAt,
		UpdatedAt: user.UpdatedAt,
	}
}

// ToUserListResponse converts a slice of User models to UserListResponse.
func ToUserListResponse(users []*model.User) *UserListResponse {
	responses := make([]UserResponse, len(users))
	for i, user := range users {
		responses[i] = *ToUserResponse(user)
	}
	return &UserListResponse{Data: responses}
}
