package casdoor

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stemhub-africa/stemhub-service/internal/cache"
	"github.com/stemhub-africa/stemhub-service/internal/repositories"
)

func TestAccountName(t *testing.T) {
	id := "0123abcd-0000-4000-8000-000000000000"

	tests := []struct {
		email string
		want  string
	}{
		{"ama.owusu@example.com", "ama-owusu-0123abcd"},
		{"kofi+stem@example.com", "kofi-stem-0123abcd"},
		{"@example.com", "user-0123abcd"},
	}

	for _, tt := range tests {
		if got := accountName(tt.email, id); got != tt.want {
			t.Errorf("accountName(%q) = %q, want %q", tt.email, got, tt.want)
		}
	}
}

func TestAuthorizeURLCarriesState(t *testing.T) {
	repo := NewIdentityCasdoor(CasdoorConfig{
		Endpoint:         "https://auth.example.com/",
		ClientID:         "client",
		ClientSecret:     "secret",
		OrganizationName: "stemhub",
		ApplicationName:  "stemhub-web",
		RedirectURL:      "https://app.example.com/api/auth/callback",
	}, cache.NewCacheManager(nil))

	got := repo.AuthorizeURL("signed-state")
	if !strings.HasPrefix(got, "https://auth.example.com/login/oauth/authorize?") {
		t.Fatalf("unexpected authorize url %q", got)
	}
	if !strings.Contains(got, "state=signed-state") || !strings.Contains(got, "client_id=client") {
		t.Errorf("authorize url missing parameters: %q", got)
	}
}

func TestVerifyPasswordSeparatesRejectionFromOutage(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseForm(); err != nil {
			t.Errorf("parse form: %v", err)
		}
		w.Header().Set("Content-Type", "application/json")
		if r.PostForm.Get("password") != "correct-horse" {
			w.WriteHeader(http.StatusBadRequest)
			_, _ = w.Write([]byte(`{"error":"invalid_grant","error_description":"invalid username or password"}`))
			return
		}
		_, _ = w.Write([]byte(`{"access_token":"tok","token_type":"Bearer","expires_in":3600}`))
	}))

	repo := NewIdentityCasdoor(CasdoorConfig{
		Endpoint:     server.URL,
		ClientID:     "client",
		ClientSecret: "secret",
	}, cache.NewCacheManager(nil)).(*IdentityCasdoor)
	ctx := context.Background()

	if err := repo.verifyPassword(ctx, "ama", "correct-horse"); err != nil {
		t.Errorf("valid password: unexpected error %v", err)
	}

	if err := repo.verifyPassword(ctx, "ama", "wrong"); !errors.Is(err, repositories.ErrInvalidCredentials) {
		t.Errorf("rejected password: expected ErrInvalidCredentials, got %v", err)
	}

	server.Close()
	err := repo.verifyPassword(ctx, "ama", "correct-horse")
	if err == nil {
		t.Fatal("unreachable provider: expected an error")
	}
	if errors.Is(err, repositories.ErrInvalidCredentials) {
		t.Errorf("unreachable provider reported as bad credentials: %v", err)
	}
}
