package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/angelmondragon/autoparts-backend/pkg/config"
	pkgerrors "github.com/angelmondragon/autoparts-backend/pkg/errors"
)

type fakeRateLimiter struct {
	mu     sync.Mutex
	counts map[string]int64
	err    error
}

func newFakeRateLimiter() *fakeRateLimiter {
	return &fakeRateLimiter{counts: map[string]int64{}}
}

func (f *fakeRateLimiter) FixedWindowAllow(_ context.Context, scope string, limit int64, _ time.Duration) (bool, int64, error) {
	if f.err != nil {
		return false, 0, f.err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.counts[scope]++
	return f.counts[scope] <= limit, f.counts[scope], nil
}

func loginRequest(email, ip string) *http.Request {
	req := httptest.NewRequest(http.MethodPost, "/api/auth/login", strings.NewReader(`{"email":"`+email+`","password":"secret"}`))
	req.RemoteAddr = ip + ":5678"
	return req
}

func TestAuthRateLimit_AllowsUnderLimitAndKeepsBody(t *testing.T) {
	limiter := newFakeRateLimiter()
	policy := NewAuthRateLimitPolicy("login", time.Minute, 2, 2)
	handler := AuthRateLimit(policy, limiter, nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, err := io.ReadAll(r.Body)
		if err != nil {
			t.Fatalf("read body: %v", err)
		}
		if !strings.Contains(string(body), `"email":"tester@example.com"`) {
			t.Fatalf("unexpected body: %s", string(body))
		}
		w.WriteHeader(http.StatusOK)
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, loginRequest("tester@example.com", "1.2.3.4"))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	for scope := range limiter.counts {
		if strings.Contains(scope, "tester@example.com") {
			t.Fatalf("raw email leaked into limiter scope %q", scope)
		}
	}
}

func TestAuthRateLimit_EmailLimitTriggersAcrossCase(t *testing.T) {
	policy := NewAuthRateLimitPolicy("login", time.Minute, 0, 2)
	handler := AuthRateLimit(policy, newFakeRateLimiter(), nil)(http.HandlerFunc(okHandler))

	emails := []string{"blocked@example.com", "Blocked@Example.com", " blocked@example.com"}
	for i, email := range emails {
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, loginRequest(email, "1.2.3.4"))

		if i < 2 {
			if rec.Code != http.StatusOK {
				t.Fatalf("expected success before limit, got %d", rec.Code)
			}
			continue
		}
		if rec.Code != http.StatusTooManyRequests {
			t.Fatalf("expected 429, got %d", rec.Code)
		}
		if rec.Header().Get("Retry-After") != "60" {
			t.Fatalf("expected Retry-After 60, got %q", rec.Header().Get("Retry-After"))
		}
		var payload struct {
			Error struct {
				Code string `json:"code"`
			} `json:"error"`
		}
		if err := json.Unmarshal(rec.Body.Bytes(), &payload); err != nil {
			t.Fatalf("decode error: %v", err)
		}
		if payload.Error.Code != string(pkgerrors.CodeRateLimit) {
			t.Fatalf("unexpected code: %s", payload.Error.Code)
		}
	}
}

func TestAuthRateLimit_IPLimitTriggers(t *testing.T) {
	policy := NewAuthRateLimitPolicy("register", time.Minute, 1, 0)
	handler := AuthRateLimit(policy, newFakeRateLimiter(), nil)(http.HandlerFunc(okHandler))

	first := httptest.NewRecorder()
	handler.ServeHTTP(first, loginRequest("a@example.com", "5.6.7.8"))
	second := httptest.NewRecorder()
	handler.ServeHTTP(second, loginRequest("b@example.com", "5.6.7.8"))
	other := httptest.NewRecorder()
	handler.ServeHTTP(other, loginRequest("c@example.com", "9.9.9.9"))

	if first.Code != http.StatusOK || second.Code != http.StatusTooManyRequests || other.Code != http.StatusOK {
		t.Fatalf("unexpected statuses %d %d %d", first.Code, second.Code, other.Code)
	}
}

func TestAuthRateLimit_StoreFailureIsDependencyError(t *testing.T) {
	limiter := newFakeRateLimiter()
	limiter.err = errors.New("redis down")
	handler := AuthRateLimit(NewAuthRateLimitPolicy("login", time.Minute, 1, 1), limiter, nil)(http.HandlerFunc(okHandler))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, loginRequest("a@example.com", "1.2.3.4"))
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d", rec.Code)
	}
}

func TestAuthRateLimit_DisabledPolicyPassesThrough(t *testing.T) {
	handler := AuthRateLimit(NewAuthRateLimitPolicy("login", 0, 1, 1), newFakeRateLimiter(), nil)(http.HandlerFunc(okHandler))
	for i := 0; i < 3; i++ {
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, loginRequest("a@example.com", "1.2.3.4"))
		if rec.Code != http.StatusOK {
			t.Fatalf("expected pass through, got %d", rec.Code)
		}
	}
}

func TestPoliciesFromConfig(t *testing.T) {
	policies := PoliciesFromConfig(config.AuthRateLimitConfig{
		LoginWindow:      time.Minute,
		LoginIPLimit:     20,
		LoginEmailLimit:  5,
		ResendWindow:     10 * time.Minute,
		ResendEmailLimit: 5,
	})
	if policies.Login.normalizedName() != "login" || policies.Login.emailLimit != 5 || policies.Login.ipLimit != 20 {
		t.Fatalf("unexpected login policy %+v", policies.Login)
	}
	if policies.Register.enabled() {
		t.Fatal("register policy without a window should be disabled")
	}
	if !policies.Resend.enabled() {
		t.Fatal("resend policy should be enabled")
	}
}

func TestClientIPIgnoresForwardedHeaderWithoutTrustedProxies(t *testing.T) {
	req := loginRequest("a@example.com", "203.0.113.9")
	req.Header.Set("X-Forwarded-For", "1.1.1.1")
	req.Header.Set("X-Real-IP", "2.2.2.2")
	if got := clientIP(req, 0); got != "203.0.113.9" {
		t.Fatalf("expected peer address, got %q", got)
	}
}

func TestClientIPTakesEntryAppendedByTrustedProxy(t *testing.T) {
	req := loginRequest("a@example.com", "10.0.0.2")
	req.Header.Set("X-Forwarded-For", "6.6.6.6, 198.51.100.7")
	if got := clientIP(req, 1); got != "198.51.100.7" {
		t.Fatalf("expected last hop, got %q", got)
	}

	req.Header.Set("X-Forwarded-For", "6.6.6.6, 198.51.100.7, 10.0.0.1")
	if got := clientIP(req, 2); got != "198.51.100.7" {
		t.Fatalf("expected client behind two proxies, got %q", got)
	}
	if got := clientIP(req, 5); got != "6.6.6.6" {
		t.Fatalf("expected first entry when hops exceed entries, got %q", got)
	}

	req.Header.Del("X-Forwarded-For")
	if got := clientIP(req, 1); got != "10.0.0.2" {
		t.Fatalf("expected peer address without header, got %q", got)
	}
}

func TestAuthRateLimit_SpoofedForwardedForDoesNotRotateIP(t *testing.T) {
	policy := NewAuthRateLimitPolicy("login", time.Minute, 1, 0).WithTrustedProxyHops(1)
	handler := AuthRateLimit(policy, newFakeRateLimiter(), nil)(http.HandlerFunc(okHandler))

	var codes []int
	for _, spoofed := range []string{"1.1.1.1", "2.2.2.2"} {
		req := loginRequest("a@example.com", "10.0.0.2")
		req.Header.Set("X-Forwarded-For", spoofed+", 198.51.100.7")
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		codes = append(codes, rec.Code)
	}
	if codes[0] != http.StatusOK || codes[1] != http.StatusTooManyRequests {
		t.Fatalf("unexpected statuses %v", codes)
	}
}

func TestPoliciesFromConfigVerify(t *testing.T) {
	policies := PoliciesFromConfig(config.AuthRateLimitConfig{
		VerifyWindow:     10 * time.Minute,
		VerifyEmailLimit: 5,
		VerifyIPLimit:    30,
		TrustedProxyHops: 1,
	})
	if !policies.Verify.enabled() || policies.Verify.normalizedName() != "verify" {
		t.Fatalf("unexpected verify policy %+v", policies.Verify)
	}
	if policies.Verify.emailLimit != 5 || policies.Verify.ipLimit != 30 || policies.Verify.proxyHops != 1 {
		t.Fatalf("unexpected verify limits %+v", policies.Verify)
	}
}
