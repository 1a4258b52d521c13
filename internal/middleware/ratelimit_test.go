package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"

	"github.com/vns-shanshan/cineverse-api/internal/config"
)

func rateCtx(t *testing.T, authz string) echo.Context {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/movies", nil)
	if authz != "" {
		req.Header.Set("Authorization", authz)
	}
	return e.NewContext(req, httptest.NewRecorder())
}

// The limiter is installed ahead of the auth middleware, so the user
// dimension of the key must come from the bearer token itself, not from a
// context identity that has not been stored yet.
func TestBuildRateKeyUserDimension(t *testing.T) {
	cfg := config.RateLimitConfig{Prefix: "rl", KeyStrategy: "user"}

	k7 := buildRateKey(cfg, rateCtx(t, bearer(t, testSecret, 7, "alice")), testSecret)
	k9 := buildRateKey(cfg, rateCtx(t, bearer(t, testSecret, 9, "bob")), testSecret)
	if k7 != "rl:user:7" {
		t.Fatalf("key = %q, want rl:user:7", k7)
	}
	if k9 != "rl:user:9" {
		t.Fatalf("key = %q, want rl:user:9", k9)
	}
	if k7 == k9 {
		t.Fatal("distinct users share a bucket")
	}
}

func TestBuildRateKeyGuestAndForgedTokens(t *testing.T) {
	cfg := config.RateLimitConfig{Prefix: "rl", KeyStrategy: "user"}

	if k := buildRateKey(cfg, rateCtx(t, ""), testSecret); k != "rl:user:anon" {
		t.Fatalf("guest key = %q, want rl:user:anon", k)
	}
	// A token signed with the wrong secret must not buy its own bucket.
	forged := bearer(t, "other-secret", 7, "mallory")
	if k := buildRateKey(cfg, rateCtx(t, forged), testSecret); k != "rl:user:anon" {
		t.Fatalf("forged-token key = %q, want rl:user:anon", k)
	}
}
