package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

func serveAdmin(t *testing.T, secret, header string) (*httptest.ResponseRecorder, bool) {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, "/admin/bookings", nil)
	if header != "" {
		req.Header.Set("Authorization", header)
	}
	rec := httptest.NewRecorder()
	called := false
	AdminJWT(secret)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
		claims, ok := AdminClaimsFromContext(r.Context())
		if !ok || claims.Subject != "ops-user" {
			t.Fatalf("expected admin claims in context, got %+v", claims)
		}
		w.WriteHeader(http.StatusOK)
	})).ServeHTTP(rec, req)
	return rec, called
}

func TestAdminJWTRejects(t *testing.T) {
	cases := []struct {
		name   string
		secret string
		header string
		status int
	}{
		{name: "auth disabled", secret: "", header: "Bearer " + signedAdminToken(t, "secret", AdminRole, time.Minute), status: http.StatusUnauthorized},
		{name: "missing header", secret: "secret", status: http.StatusUnauthorized},
		{name: "not bearer", secret: "secret", header: "Basic abc", status: http.StatusUnauthorized},
		{name: "wrong secret", secret: "secret", header: "Bearer " + signedAdminToken(t, "wrong", AdminRole, time.Minute), status: http.StatusUnauthorized},
		{name: "expired", secret: "secret", header: "Bearer " + signedAdminToken(t, "secret", AdminRole, -time.Minute), status: http.StatusUnauthorized},
		{name: "no expiry", secret: "secret", header: "Bearer " + signedAdminToken(t, "secret", AdminRole, 0), status: http.StatusUnauthorized},
		{name: "wrong role", secret: "secret", header: "Bearer " + signedAdminToken(t, "secret", "viewer", time.Minute), status: http.StatusForbidden},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec, called := serveAdmin(t, tc.secret, tc.header)
			if called {
				t.Fatalf("handler should not be called")
			}
			if rec.Code != tc.status {
				t.Fatalf("expected status %d, got %d", tc.status, rec.Code)
			}
		})
	}
}

func TestAdminJWTValidToken(t *testing.T) {
	rec, called := serveAdmin(t, "secret", "Bearer "+signedAdminToken(t, "secret", AdminRole, 5*time.Minute))
	if !called {
		t.Fatalf("expected handler to be called")
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, rec.Code)
	}
}

func signedAdminToken(t *testing.T, secret, role string, ttl time.Duration) string {
	t.Helper()
	claims := AdminClaims{
		Role:             role,
		RegisteredClaims: jwt.RegisteredClaims{Subject: "ops-user"},
	}
	if ttl != 0 {
		claims.ExpiresAt = jwt.NewNumericDate(time.Now().Add(ttl))
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return signed
}
