package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"gatherly/internal/models"
)

func testIssuer(t *testing.T, now time.Time) *TokenIssuer {
	t.Helper()
	issuer, err := NewTokenIssuer("test-secret")
	if err != nil {
		t.Fatalf("NewTokenIssuer returned error: %v", err)
	}
	issuer.now = func() time.Time { return now }
	return issuer
}

func TestIssueVerifyRoundTrip(t *testing.T) {
	issuer := testIssuer(t, time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC))

	token, err := issuer.Issue("user-1", models.RoleUser)
	if err != nil {
		t.Fatalf("Issue returned error: %v", err)
	}

	userID, role, err := issuer.Verify(token)
	if err != nil {
		t.Fatalf("Verify returned error: %v", err)
	}
	if userID != "user-1" {
		t.Errorf("userID = %q, want %q", userID, "user-1")
	}
	if role != models.RoleUser {
		t.Errorf("role = %q, want %q", role, models.RoleUser)
	}
}

func TestVerifyRejectsGarbage(t *testing.T) {
	issuer := testIssuer(t, time.Now())
	if _, _, err := issuer.Verify("not-a-token"); err != ErrInvalidToken {
		t.Fatalf("expected ErrInvalidToken, got %v", err)
	}
}

func TestVerifyRejectsWrongSecret(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	issuer := testIssuer(t, now)
	token, err := issuer.Issue("user-1", models.RoleUser)
	if err != nil {
		t.Fatalf("Issue returned error: %v", err)
	}

	other, err := NewTokenIssuer("different-secret")
	if err != nil {
		t.Fatalf("NewTokenIssuer returned error: %v", err)
	}
	other.now = func() time.Time { return now }
	if _, _, err := other.Verify(token); err != ErrInvalidToken {
		t.Fatalf("expected ErrInvalidToken, got %v", err)
	}
}

func TestVerifyRejectsExpired(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	issuer := testIssuer(t, now)
	token, err := issuer.Issue("user-1", models.RoleUser)
	if err != nil {
		t.Fatalf("Issue returned error: %v", err)
	}

	issuer.now = func() time.Time { return now.Add(25 * time.Hour) }
	if _, _, err := issuer.Verify(token); err != ErrInvalidToken {
		t.Fatalf("expected ErrInvalidToken, got %v", err)
	}
}

func TestNewTokenIssuerRequiresSecret(t *testing.T) {
	if _, err := NewTokenIssuer(""); err == nil {
		t.Fatal("expected an error for an empty secret")
	}
}

func TestRequireAuth(t *testing.T) {
	issuer := testIssuer(t, time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC))
	token, err := issuer.Issue("user-1", models.RoleAdmin)
	if err != nil {
		t.Fatalf("Issue returned error: %v", err)
	}

	var gotUserID string
	var gotRole models.Role
	handler := RequireAuth(issuer, func(w http.ResponseWriter, r *http.Request) {
		gotUserID = UserID(r.Context())
		gotRole = RoleFrom(r.Context())
		w.WriteHeader(http.StatusOK)
	})

	tests := []struct {
		name       string
		header     string
		wantStatus int
	}{
		{"valid token", "Bearer " + token, http.StatusOK},
		{"missing header", "", http.StatusUnauthorized},
		{"not bearer", "Basic abc123", http.StatusUnauthorized},
		{"bad token", "Bearer bogus", http.StatusUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/events", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()
			handler(rec, req)
			if rec.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d", rec.Code, tt.wantStatus)
			}
		})
	}

	if gotUserID != "user-1" {
		t.Errorf("context userID = %q, want %q", gotUserID, "user-1")
	}
	if gotRole != models.RoleAdmin {
		t.Errorf("context role = %q, want %q", gotRole, models.RoleAdmin)
	}
}
