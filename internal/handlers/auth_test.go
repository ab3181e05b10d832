package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/vidgate/backend/internal/auth"
	"github.com/vidgate/backend/internal/models"
	"github.com/vidgate/backend/internal/repositories"
)

type userStoreStub struct {
	created   models.User
	users     map[string]models.User
	createErr error
	findErr   error
}

func (s *userStoreStub) Create(_ context.Context, user models.User) error {
	s.created = user
	return s.createErr
}

func (s *userStoreStub) FindByEmail(_ context.Context, email string) (models.User, error) {
	if s.findErr != nil {
		return models.User{}, s.findErr
	}
	user, ok := s.users[email]
	if !ok {
		return models.User{}, repositories.ErrNotFound
	}
	return user, nil
}

func hashPassword(t *testing.T, password string) string {
	t.Helper()
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("hash password: %v", err)
	}
	return string(hashed)
}

func TestAuthHandlerLoginSuccess(t *testing.T) {
	store := &userStoreStub{users: map[string]models.User{
		"alice@example.com": {ID: "user-1", Email: "alice@example.com", Password: hashPassword(t, "password123")},
	}}
	sessions := sessionManagerStub{issued: models.SessionTokens{
		AccessToken:  "access",
		RefreshToken: "refresh",
	}}
	handler := AuthHandler{Users: store, Sessions: sessions}

	body := bytes.NewBufferString(`{"email":"Alice@Example.com","password":"password123"}`)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/login", body)
	rec := httptest.NewRecorder()

	handler.Login(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", rec.Code)
	}

	var resp authResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp.Tokens.AccessToken != "access" || resp.Tokens.RefreshToken != "refresh" {
		t.Fatalf("unexpected tokens: %+v", resp.Tokens)
	}
}

func TestAuthHandlerLoginFailures(t *testing.T) {
	store := &userStoreStub{users: map[string]models.User{
		"alice@example.com": {ID: "user-1", Email: "alice@example.com", Password: hashPassword(t, "password123")},
	}}

	cases := []struct {
		name       string
		body       string
		wantStatus int
	}{
		{"badJSON", "{", http.StatusBadRequest},
		{"missingFields", `{"email":"","password":""}`, http.StatusBadRequest},
		{"unknownUser", `{"email":"bob@example.com","password":"password123"}`, http.StatusUnauthorized},
		{"wrongPassword", `{"email":"alice@example.com","password":"nope"}`, http.StatusUnauthorized},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			handler := AuthHandler{Users: store, Sessions: sessionManagerStub{}}
			req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/login", bytes.NewBufferString(tc.body))
			rec := httptest.NewRecorder()

			handler.Login(rec, req)

			if rec.Code != tc.wantStatus {
				t.Fatalf("expected %d got %d", tc.wantStatus, rec.Code)
			}
		})
	}
}

func TestAuthHandlerSignUpSuccess(t *testing.T) {
	store := &userStoreStub{users: map[string]models.User{}}
	handler := AuthHandler{
		Users:    store,
		Sessions: sessionManagerStub{issued: models.SessionTokens{AccessToken: "access"}},
		NowFunc: func() time.Time {
			return time.Date(2026, time.February, 1, 12, 0, 0, 0, time.UTC)
		},
	}

	body := bytes.NewBufferString(`{"email":"new@example.com","password":"password123"}`)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/signup", body)
	rec := httptest.NewRecorder()

	handler.SignUp(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201 got %d", rec.Code)
	}
	if store.created.Email != "new@example.com" {
		t.Fatalf("unexpected user: %+v", store.created)
	}
	if store.created.Password == "password123" {
		t.Fatal("password stored unhashed")
	}
	if err := bcrypt.CompareHashAndPassword([]byte(store.created.Password), []byte("password123")); err != nil {
		t.Fatalf("stored hash does not match password: %v", err)
	}
}

func TestAuthHandlerSignUpFailures(t *testing.T) {
	cases := []struct {
		name       string
		store      *userStoreStub
		body       string
		wantStatus int
	}{
		{"badJSON", &userStoreStub{users: map[string]models.User{}}, "{", http.StatusBadRequest},
		{"invalidEmail", &userStoreStub{users: map[string]models.User{}}, `{"email":"not-an-email","password":"password123"}`, http.StatusBadRequest},
		{"shortPassword", &userStoreStub{users: map[string]models.User{}}, `{"email":"new@example.com","password":"short"}`, http.StatusBadRequest},
		{"existingAccount", &userStoreStub{users: map[string]models.User{
			"taken@example.com": {ID: "user-1", Email: "taken@example.com"},
		}}, `{"email":"taken@example.com","password":"password123"}`, http.StatusConflict},
		{"createConflict", &userStoreStub{users: map[string]models.User{}, createErr: repositories.ErrConflict}, `{"email":"new@example.com","password":"password123"}`, http.StatusConflict},
		{"lookupDown", &userStoreStub{findErr: errors.New("db down")}, `{"email":"new@example.com","password":"password123"}`, http.StatusInternalServerError},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			handler := AuthHandler{Users: tc.store, Sessions: sessionManagerStub{}}
			req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/signup", bytes.NewBufferString(tc.body))
			rec := httptest.NewRecorder()

			handler.SignUp(rec, req)

			if rec.Code != tc.wantStatus {
				t.Fatalf("expected %d got %d", tc.wantStatus, rec.Code)
			}
		})
	}
}

func TestAuthHandlerRefresh(t *testing.T) {
	cases := []struct {
		name       string
		sessions   sessionManagerStub
		body       string
		wantStatus int
	}{
		{"success", sessionManagerStub{refreshed: models.SessionTokens{AccessToken: "next"}}, `{"refreshToken":"tok"}`, http.StatusOK},
		{"missingToken", sessionManagerStub{}, `{"refreshToken":""}`, http.StatusBadRequest},
		{"expired", sessionManagerStub{refreshErr: auth.ErrRefreshTokenExpired}, `{"refreshToken":"tok"}`, http.StatusUnauthorized},
		{"unknown", sessionManagerStub{refreshErr: auth.ErrSessionNotFound}, `{"refreshToken":"tok"}`, http.StatusUnauthorized},
		{"storeDown", sessionManagerStub{refreshErr: errors.New("db down")}, `{"refreshToken":"tok"}`, http.StatusInternalServerError},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			handler := AuthHandler{Sessions: tc.sessions}
			req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/refresh", bytes.NewBufferString(tc.body))
			rec := httptest.NewRecorder()

			handler.Refresh(rec, req)

			if rec.Code != tc.wantStatus {
				t.Fatalf("expected %d got %d", tc.wantStatus, rec.Code)
			}
		})
	}
}

func TestAuthHandlerMissingDeps(t *testing.T) {
	handler := AuthHandler{}

	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/login", bytes.NewBufferString(`{}`))
	rec := httptest.NewRecorder()
	handler.Login(rec, req)
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500 got %d", rec.Code)
	}
}
