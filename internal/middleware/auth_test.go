package middleware

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/eyeson-app/eyeson/internal/auth"
	"github.com/eyeson-app/eyeson/internal/model"
)

type fakeResolver struct {
	users map[string]*model.User
	err   error
}

func (f *fakeResolver) GetByID(id string) (*model.User, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.users[id], nil
}

func TestRequireAuthResolvesUser(t *testing.T) {
	resolver := &fakeResolver{users: map[string]*model.User{
		"u1": {ID: "u1", IsModerator: true},
	}}

	var gotUser *model.User
	handler := RequireAuth(resolver)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUser, _ = auth.FromContext(r.Context())
	}))

	w := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodGet, "/api/reports", nil)
	r.Header.Set("Authorization", "Bearer u1")
	handler.ServeHTTP(w, r)

	if w.Code != http.StatusOK {
		t.Fatalf("status %d, want 200", w.Code)
	}
	if gotUser == nil || gotUser.ID != "u1" {
		t.Errorf("user in context = %+v, want u1", gotUser)
	}
	if !gotUser.IsModerator {
		t.Error("expected moderator flag carried into context")
	}
}

func TestRequireAuthMissingToken(t *testing.T) {
	handler := RequireAuth(&fakeResolver{})(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("handler must not run without a token")
	}))

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/reports", nil))

	if w.Code != http.StatusUnauthorized {
		t.Errorf("status %d, want 401", w.Code)
	}
}

func TestRequireAuthUnknownUser(t *testing.T) {
	handler := RequireAuth(&fakeResolver{})(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("handler must not run for an unknown user")
	}))

	w := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodGet, "/api/reports", nil)
	r.Header.Set("Authorization", "Bearer nobody")
	handler.ServeHTTP(w, r)

	if w.Code != http.StatusUnauthorized {
		t.Errorf("status %d, want 401", w.Code)
	}
}

func TestRequireAuthResolverError(t *testing.T) {
	resolver := &fakeResolver{err: errors.New("database locked")}
	handler := RequireAuth(resolver)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("handler must not run when resolution fails")
	}))

	w := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodGet, "/api/reports", nil)
	r.Header.Set("Authorization", "Bearer u1")
	handler.ServeHTTP(w, r)

	if w.Code != http.StatusInternalServerError {
		t.Errorf("status %d, want 500", w.Code)
	}
}

func TestBearerToken(t *testing.T) {
	tests := []struct {
		header string
		want   string
	}{
		{"Bearer abc", "abc"},
		{"Bearer  abc ", "abc"},
		{"bearer abc", ""},
		{"Basic abc", ""},
		{"", ""},
	}
	for _, tt := range tests {
		r := httptest.NewRequest(http.MethodGet, "/", nil)
		if tt.header != "" {
			r.Header.Set("Authorization", tt.header)
		}
		if got := bearerToken(r); got != tt.want {
			t.Errorf("bearerToken(%q) = %q, want %q", tt.header, got, tt.want)
		}
	}
}
