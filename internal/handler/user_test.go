package handler

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/accountd/accountd/internal/auth"
	"github.com/accountd/accountd/internal/handler/dto"
	"github.com/accountd/accountd/internal/model"
	"github.com/accountd/accountd/internal/service"
)

// fakeAccountService implements AccountService with overridable funcs.
type fakeAccountService struct {
	signupFunc  func(ctx context.Context, input service.SignupInput) (*model.User, error)
	loginFunc   func(ctx context.Context, email, password string) (string, error)
	logoutFunc  func(ctx context.Context, identity *model.Identity) error
	updateFunc  func(ctx context.Context, email string, input service.UpdateProfileInput) (*model.User, error)
	deleteFunc  func(ctx context.Context, email string) error
	listFunc    func(ctx context.Context) ([]*model.User, error)
}

func (f *fakeAccountService) Signup(ctx context.Context, input service.SignupInput) (*model.User, error) {
	return f.signupFunc(ctx, input)
}

func (f *fakeAccountService) Login(ctx context.Context, email, password string) (string, error) {
	return f.loginFunc(ctx, email, password)
}

func (f *fakeAccountService) Logout(ctx context.Context, identity *model.Identity) error {
	return f.logoutFunc(ctx, identity)
}

func (f *fakeAccountService) UpdateProfile(ctx context.Context, email string, input service.UpdateProfileInput) (*model.User, error) {
	return f.updateFunc(ctx, email, input)
}

func (f *fakeAccountService) DeleteAccount(ctx context.Context, email string) error {
	return f.deleteFunc(ctx, email)
}

func (f *fakeAccountService) ListUsers(ctx context.Context) ([]*model.User, error) {
	return f.listFunc(ctx)
}

func testUser() *model.User {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	return &model.User{
		ID:           "01J0000000000000000000TEST",
		Name:         "Alice",
		Email:        "alice@example.com",
		PasswordHash: "$argon2id$v=19$m=65536,t=3,p=4$c2FsdA$aGFzaA",
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}

func newTestUserHandler(svc AccountService) *UserHandler {
	return NewUserHandler(svc, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func authedRequest(method, target, body string, user *model.User) *http.Request {
	var rd io.Reader
	if body != "" {
		rd = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, rd)
	identity := &model.Identity{
		User:      user,
		Token:     "raw-token",
		TokenID:   "c4b86962-4e2e-4a53-9e54-3f2ad77b23a1",
		ExpiresAt: time.Now().Add(15 * time.Minute),
	}
	return req.WithContext(auth.ContextWithIdentity(req.Context(), identity))
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) dto.ErrorResponse {
	t.Helper()
	var resp dto.ErrorResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode error response: %v", err)
	}
	return resp
}

func TestUserHandler_Signup(t *testing.T) {
	svc := &fakeAccountService{
		signupFunc: func(ctx context.Context, input service.SignupInput) (*model.User, error) {
			u := testUser()
			u.Name = input.Name
			u.Email = input.Email
			return u, nil
		},
	}
	h := newTestUserHandler(svc)

	body := `{"name":"Alice","email":"alice@example.com","password":"s3cretpass"}`
	req := httptest.NewRequest(http.MethodPost, "/api/users/signup", strings.NewReader(body))
	rec := httptest.NewRecorder()

	h.Signup(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("expected status 201, got %d: %s", rec.Code, rec.Body.String())
	}

	var resp dto.UserResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}

	if resp.Email != "alice@example.com" {
		t.Errorf("email = %q, want alice@example.com", resp.Email)
	}
	if resp.ID == "" {
		t.Error("expected non-empty user id")
	}
}

func TestUserHandler_Signup_NeverLeaksPasswordHash(t *testing.T) {
	svc := &fakeAccountService{
		signupFunc: func(ctx context.Context, input service.SignupInput) (*model.User, error) {
			return testUser(), nil
		},
	}
	h := newTestUserHandler(svc)

	body := `{"name":"Alice","email":"alice@example.com","password":"s3cretpass"}`
	req := httptest.NewRequest(http.MethodPost, "/api/users/signup", strings.NewReader(body))
	rec := httptest.NewRecorder()

	h.Signup(rec, req)

	if strings.Contains(rec.Body.String(), "argon2id") {
		t.Error("response body contains the password hash")
	}
	if strings.Contains(rec.Body.String(), "password") {
		t.Errorf("response body mentions password: %s", rec.Body.String())
	}
}

func TestUserHandler_Signup_Validation(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"invalid json", `{not json`},
		{"missing email", `{"name":"Alice","password":"s3cretpass"}`},
		{"malformed email", `{"name":"Alice","email":"not-an-email","password":"s3cretpass"}`},
		{"missing password", `{"name":"Alice","email":"alice@example.com"}`},
		{"short password", `{"name":"Alice","email":"alice@example.com","password":"short"}`},
		{"missing name", `{"email":"alice@example.com","password":"s3cretpass"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := &fakeAccountService{
				signupFunc: func(ctx context.Context, input service.SignupInput) (*model.User, error) {
					t.Fatal("service must not be called for invalid input")
					return nil, nil
				},
			}
			h := newTestUserHandler(svc)

			req := httptest.NewRequest(http.MethodPost, "/api/users/signup", strings.NewReader(tt.body))
			rec := httptest.NewRecorder()

			h.Signup(rec, req)

			if rec.Code != http.StatusBadRequest {
				t.Errorf("status = %d, want 400", rec.Code)
			}
		})
	}
}

func TestUserHandler_Signup_DuplicateEmail(t *testing.T) {
	svc := &fakeAccountService{
		signupFunc: func(ctx context.Context, input service.SignupInput) (*model.User, error) {
			return nil, service.ErrEmailExists
		},
	}
	h := newTestUserHandler(svc)

	body := `{"name":"Alice","email":"alice@example.com","password":"s3cretpass"}`
	req := httptest.NewRequest(http.MethodPost, "/api/users/signup", strings.NewReader(body))
	rec := httptest.NewRecorder()

	h.Signup(rec, req)

	if rec.Code != http.StatusConflict {
		t.Fatalf("status = %d, want 409", rec.Code)
	}

	resp := decodeError(t, rec)
	if resp.Code != "EMAIL_EXISTS" {
		t.Errorf("code = %q, want EMAIL_EXISTS", resp.Code)
	}
}

func TestUserHandler_Login(t *testing.T) {
	svc := &fakeAccountService{
		loginFunc: func(ctx context.Context, email, password string) (string, error) {
			return "issued.bearer.token", nil
		},
	}
	h := newTestUserHandler(svc)

	body := `{"email":"alice@example.com","password":"s3cretpass"}`
	req := httptest.NewRequest(http.MethodPost, "/api/users/login", strings.NewReader(body))
	rec := httptest.NewRecorder()

	h.Login(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200: %s", rec.Code, rec.Body.String())
	}

	var resp dto.LoginResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}

	if resp.AccessToken != "issued.bearer.token" {
		t.Errorf("access_token = %q", resp.AccessToken)
	}
	if resp.TokenType != "bearer" {
		t.Errorf("token_type = %q, want bearer", resp.TokenType)
	}
}

func TestUserHandler_Login_UnknownEmail(t *testing.T) {
	svc := &fakeAccountService{
		loginFunc: func(ctx context.Context, email, password string) (string, error) {
			return "", service.ErrUserNotFound
		},
	}
	h := newTestUserHandler(svc)

	body := `{"email":"ghost@example.com","password":"s3cretpass"}`
	req := httptest.NewRequest(http.MethodPost, "/api/users/login", strings.NewReader(body))
	rec := httptest.NewRecorder()

	h.Login(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", rec.Code)
	}

	resp := decodeError(t, rec)
	if resp.Error != "User not found" {
		t.Errorf("error = %q, want %q", resp.Error, "User not found")
	}
}

func TestUserHandler_Login_IncorrectPassword(t *testing.T) {
	svc := &fakeAccountService{
		loginFunc: func(ctx context.Context, email, password string) (string, error) {
			return "", service.ErrIncorrectPassword
		},
	}
	h := newTestUserHandler(svc)

	body := `{"email":"alice@example.com","password":"wrongpassword"}`
	req := httptest.NewRequest(http.MethodPost, "/api/users/login", strings.NewReader(body))
	rec := httptest.NewRecorder()

	h.Login(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", rec.Code)
	}

	resp := decodeError(t, rec)
	if resp.Error != "Incorrect password" {
		t.Errorf("error = %q, want %q", resp.Error, "Incorrect password")
	}
}

func TestUserHandler_Login_MissingFields(t *testing.T) {
	svc := &fakeAccountService{
		loginFunc: func(ctx context.Context, email, password string) (string, error) {
			t.Fatal("service must not be called for invalid input")
			return "", nil
		},
	}
	h := newTestUserHandler(svc)

	req := httptest.NewRequest(http.MethodPost, "/api/users/login", strings.NewReader(`{"email":"alice@example.com"}`))
	rec := httptest.NewRecorder()

	h.Login(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}

func TestUserHandler_Logout(t *testing.T) {
	var gotTokenID string
	svc := &fakeAccountService{
		logoutFunc: func(ctx context.Context, identity *model.Identity) error {
			gotTokenID = identity.TokenID
			return nil
		},
	}
	h := newTestUserHandler(svc)

	req := authedRequest(http.MethodPost, "/api/users/logout", "", testUser())
	rec := httptest.NewRecorder()

	h.Logout(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}

	if gotTokenID == "" {
		t.Error("expected identity token id to reach the service")
	}

	var resp dto.MessageResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp.Message != "Successfully logged out" {
		t.Errorf("message = %q", resp.Message)
	}
}

func TestUserHandler_Logout_AlreadyRevoked(t *testing.T) {
	svc := &fakeAccountService{
		logoutFunc: func(ctx context.Context, identity *model.Identity) error {
			return service.ErrTokenRevoked
		},
	}
	h := newTestUserHandler(svc)

	req := authedRequest(http.MethodPost, "/api/users/logout", "", testUser())
	rec := httptest.NewRecorder()

	h.Logout(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", rec.Code)
	}

	resp := decodeError(t, rec)
	if resp.Error != "Token has been revoked" {
		t.Errorf("error = %q, want %q", resp.Error, "Token has been revoked")
	}
}

func TestUserHandler_Logout_TokenIDMissing(t *testing.T) {
	svc := &fakeAccountService{
		logoutFunc: func(ctx context.Context, identity *model.Identity) error {
			return service.ErrTokenIDMissing
		},
	}
	h := newTestUserHandler(svc)

	req := authedRequest(http.MethodPost, "/api/users/logout", "", testUser())
	rec := httptest.NewRecorder()

	h.Logout(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}

	resp := decodeError(t, rec)
	if resp.Code != "TOKEN_ID_MISSING" {
		t.Errorf("code = %q, want TOKEN_ID_MISSING", resp.Code)
	}
}

func TestUserHandler_Me(t *testing.T) {
	h := newTestUserHandler(&fakeAccountService{})

	req := authedRequest(http.MethodGet, "/api/users/me", "", testUser())
	rec := httptest.NewRecorder()

	h.Me(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}

	var resp dto.UserResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}

	if resp.Email != "alice@example.com" {
		t.Errorf("email = %q, want alice@example.com", resp.Email)
	}
	if strings.Contains(rec.Body.String(), "argon2id") {
		t.Error("response body contains the password hash")
	}
}

func TestUserHandler_Update(t *testing.T) {
	svc := &fakeAccountService{
		updateFunc: func(ctx context.Context, email string, input service.UpdateProfileInput) (*model.User, error) {
			u := testUser()
			if input.Name != nil {
				u.Name = *input.Name
			}
			return u, nil
		},
	}
	h := newTestUserHandler(svc)

	req := authedRequest(http.MethodPatch, "/api/users/me", `{"name":"Alice B"}`, testUser())
	rec := httptest.NewRecorder()

	h.Update(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200: %s", rec.Code, rec.Body.String())
	}

	var resp dto.UserResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}

	if resp.Name != "Alice B" {
		t.Errorf("name = %q, want Alice B", resp.Name)
	}
}

func TestUserHandler_Update_NoFields(t *testing.T) {
	svc := &fakeAccountService{
		updateFunc: func(ctx context.Context, email string, input service.UpdateProfileInput) (*model.User, error) {
			t.Fatal("service must not be called for empty update")
			return nil, nil
		},
	}
	h := newTestUserHandler(svc)

	req := authedRequest(http.MethodPatch, "/api/users/me", `{}`, testUser())
	rec := httptest.NewRecorder()

	h.Update(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}

func TestUserHandler_Update_ShortPassword(t *testing.T) {
	svc := &fakeAccountService{
		updateFunc: func(ctx context.Context, email string, input service.UpdateProfileInput) (*model.User, error) {
			t.Fatal("service must not be called for invalid password")
			return nil, nil
		},
	}
	h := newTestUserHandler(svc)

	req := authedRequest(http.MethodPatch, "/api/users/me", `{"password":"short"}`, testUser())
	rec := httptest.NewRecorder()

	h.Update(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}

func TestUserHandler_Delete(t *testing.T) {
	var gotEmail string
	svc := &fakeAccountService{
		deleteFunc: func(ctx context.Context, email string) error {
			gotEmail = email
			return nil
		},
	}
	h := newTestUserHandler(svc)

	req := authedRequest(http.MethodDelete, "/api/users/me", "", testUser())
	rec := httptest.NewRecorder()

	h.Delete(rec, req)

	if rec.Code != http.StatusNoContent {
		t.Fatalf("status = %d, want 204", rec.Code)
	}
	if gotEmail != "alice@example.com" {
		t.Errorf("deleted email = %q, want alice@example.com", gotEmail)
	}
}

func TestUserHandler_List(t *testing.T) {
	svc := &fakeAccountService{
		listFunc: func(ctx context.Context) ([]*model.User, error) {
			second := testUser()
			second.ID = "01J0000000000000000000TWO0"
			second.Email = "bob@example.com"
			return []*model.User{testUser(), second}, nil
		},
	}
	h := newTestUserHandler(svc)

	req := authedRequest(http.MethodGet, "/api/users", "", testUser())
	rec := httptest.NewRecorder()

	h.List(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}

	var resp dto.UserListResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}

	if len(resp.Data) != 2 {
		t.Errorf("len(data) = %d, want 2", len(resp.Data))
	}
}

func TestUserHandler_InternalErrorDoesNotLeakDetail(t *testing.T) {
	svc := &fakeAccountService{
		loginFunc: func(ctx context.Context, email, password string) (string, error) {
			return "", errors.New("pgx: connection refused on 10.0.0.3:5432")
		},
	}
	h := newTestUserHandler(svc)

	body := `{"email":"alice@example.com","password":"s3cretpass"}`
	req := httptest.NewRequest(http.MethodPost, "/api/users/login", strings.NewReader(body))
	rec := httptest.NewRecorder()

	h.Login(rec, req)

	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d, want 500", rec.Code)
	}
	if strings.Contains(rec.Body.String(), "10.0.0.3") {
		t.Error("response body leaks infrastructure detail")
	}
}
