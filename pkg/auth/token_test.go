package auth

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/angelmondragon/autoparts-backend/pkg/config"
	"github.com/angelmondragon/autoparts-backend/pkg/enums"
)

var testNow = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func newTestService(t *testing.T) *TokenService {
	t.Helper()
	svc, err := NewTokenService(config.SessionConfig{
		Secret:     "test-secret",
		Issuer:     "autoparts",
		TTL:        7 * 24 * time.Hour,
		CookieName: "apsession",
	})
	if err != nil {
		t.Fatalf("NewTokenService: %v", err)
	}
	return svc.WithClock(func() time.Time { return testNow })
}

func sampleIdentity() Identity {
	sellerID := uuid.New()
	return Identity{
		ID:       uuid.New(),
		Name:     "Ada Parts",
		Email:    "ada@example.com",
		Role:     enums.UserRoleSeller,
		SellerID: &sellerID,
	}
}

func TestIssueVerifyRoundTrip(t *testing.T) {
	svc := newTestService(t)
	identity := sampleIdentity()

	token, err := svc.Issue(identity, 0)
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}

	got, ok := svc.Verify(token)
	if !ok {
		t.Fatal("expected token to verify")
	}
	if got.ID != identity.ID || got.Name != identity.Name || got.Email != identity.Email || got.Role != identity.Role {
		t.Fatalf("identity mismatch: got %+v want %+v", got, identity)
	}
	if got.SellerID == nil || *got.SellerID != *identity.SellerID {
		t.Fatalf("seller id mismatch: got %v want %v", got.SellerID, identity.SellerID)
	}
}

func TestVerifyRejectsExpiredToken(t *testing.T) {
	svc := newTestService(t)
	token, err := svc.Issue(sampleIdentity(), time.Hour)
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}

	svc.WithClock(func() time.Time { return testNow.Add(59 * time.Minute) })
	if _, ok := svc.Verify(token); !ok {
		t.Fatal("token should still be valid before expiry")
	}

	svc.WithClock(func() time.Time { return testNow.Add(time.Hour + time.Second) })
	if _, ok := svc.Verify(token); ok {
		t.Fatal("expired token must not verify")
	}
}

func TestDefaultTTLIsSevenDays(t *testing.T) {
	svc := newTestService(t)
	token, err := svc.Issue(sampleIdentity(), 0)
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}

	svc.WithClock(func() time.Time { return testNow.Add(7*24*time.Hour - time.Minute) })
	if _, ok := svc.Verify(token); !ok {
		t.Fatal("token should be valid just before 7 days")
	}
	svc.WithClock(func() time.Time { return testNow.Add(7*24*time.Hour + time.Minute) })
	if _, ok := svc.Verify(token); ok {
		t.Fatal("token should expire after 7 days")
	}
}

func TestVerifyRejectsTamperedTokens(t *testing.T) {
	svc := newTestService(t)
	token, err := svc.Issue(sampleIdentity(), 0)
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}

	parts := strings.Split(token, ".")
	if len(parts) != 3 {
		t.Fatalf("expected 3 segments, got %d", len(parts))
	}

	// Positions inside each segment, away from the final character whose low
	// bits may be padding.
	positions := []int{
		len(parts[0]) / 2,
		len(parts[0]) + 1 + len(parts[1])/2,
		len(parts[0]) + 1 + len(parts[1]) + 1 + 1,
	}
	for _, pos := range positions {
		tampered := []byte(token)
		if tampered[pos] == 'A' {
			tampered[pos] = 'B'
		} else {
			tampered[pos] = 'A'
		}
		if _, ok := svc.Verify(string(tampered)); ok {
			t.Fatalf("tampered token at byte %d verified", pos)
		}
	}
}

func TestVerifyRejectsForeignTokens(t *testing.T) {
	svc := newTestService(t)
	identity := sampleIdentity()

	other, err := NewTokenService(config.SessionConfig{Secret: "other-secret", Issuer: "autoparts", TTL: time.Hour})
	if err != nil {
		t.Fatalf("NewTokenService: %v", err)
	}
	foreign, err := other.WithClock(func() time.Time { return testNow }).Issue(identity, 0)
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}

	hs512 := signClaims(t, jwt.SigningMethodHS512, "test-secret", jwt.MapClaims{
		"user": map[string]any{"id": identity.ID.String(), "role": "customer"},
		"exp":  testNow.Add(time.Hour).Unix(),
	})
	wrongIssuer := signClaims(t, jwt.SigningMethodHS256, "test-secret", jwt.MapClaims{
		"user": map[string]any{"id": identity.ID.String(), "role": "customer"},
		"iss":  "someone-else",
		"exp":  testNow.Add(time.Hour).Unix(),
	})
	noExpiry := signClaims(t, jwt.SigningMethodHS256, "test-secret", jwt.MapClaims{
		"user": map[string]any{"id": identity.ID.String(), "role": "customer"},
	})
	noSubject := signClaims(t, jwt.SigningMethodHS256, "test-secret", jwt.MapClaims{
		"user": map[string]any{"name": "ghost"},
		"exp":  testNow.Add(time.Hour).Unix(),
	})

	cases := map[string]string{
		"empty":        "",
		"garbage":      "not-a-token",
		"other secret": foreign,
		"hs512":        hs512,
		"wrong issuer": wrongIssuer,
		"no expiry":    noExpiry,
		"no subject":   noSubject,
	}
	for name, token := range cases {
		if _, ok := svc.Verify(token); ok {
			t.Fatalf("%s: expected verification failure", name)
		}
	}
}

func TestVerifyAcceptsFlatLegacyShape(t *testing.T) {
	svc := newTestService(t)
	id := uuid.New()
	sellerID := uuid.New()

	for _, key := range []string{"userId", "id", "_id"} {
		token := signClaims(t, jwt.SigningMethodHS256, "test-secret", jwt.MapClaims{
			key:        id.String(),
			"name":     "Flat User",
			"email":    "Flat@Example.com",
			"role":     "seller",
			"sellerId": sellerID.String(),
			"exp":      testNow.Add(time.Hour).Unix(),
		})

		got, ok := svc.Verify(token)
		if !ok {
			t.Fatalf("%s: flat token should verify", key)
		}
		if got.ID != id || got.Role != enums.UserRoleSeller || got.Email != "flat@example.com" {
			t.Fatalf("%s: unexpected identity %+v", key, got)
		}
		if got.SellerID == nil || *got.SellerID != sellerID {
			t.Fatalf("%s: expected seller id", key)
		}
	}
}

func TestVerifyNormalizesUnknownRole(t *testing.T) {
	svc := newTestService(t)
	id := uuid.New()
	token := signClaims(t, jwt.SigningMethodHS256, "test-secret", jwt.MapClaims{
		"user": map[string]any{"id": id.String(), "role": "superuser"},
		"exp":  testNow.Add(time.Hour).Unix(),
	})

	got, ok := svc.Verify(token)
	if !ok {
		t.Fatal("expected token to verify")
	}
	if got.Role != enums.UserRoleCustomer {
		t.Fatalf("expected customer role, got %q", got.Role)
	}
	if got.SellerID != nil {
		t.Fatalf("expected no seller id, got %v", got.SellerID)
	}
}

func TestIssueRejectsIncompleteIdentity(t *testing.T) {
	svc := newTestService(t)
	if _, err := svc.Issue(Identity{Role: enums.UserRoleCustomer}, 0); err == nil {
		t.Fatal("expected error for missing id")
	}
	if _, err := svc.Issue(Identity{ID: uuid.New(), Role: "owner"}, 0); err == nil {
		t.Fatal("expected error for invalid role")
	}
}

func TestNewTokenServiceRequiresSecret(t *testing.T) {
	if _, err := NewTokenService(config.SessionConfig{TTL: time.Hour}); err == nil {
		t.Fatal("expected error for empty secret")
	}
	if _, err := NewTokenService(config.SessionConfig{Secret: "s"}); err == nil {
		t.Fatal("expected error for zero ttl")
	}
}

func TestSessionCookies(t *testing.T) {
	svc := newTestService(t)

	c := svc.SessionCookie("tok", true)
	if c.Name != "apsession" || c.Value != "tok" || !c.HttpOnly || !c.Secure || c.Path != "/" {
		t.Fatalf("unexpected cookie %+v", c)
	}
	if c.SameSite != http.SameSiteLaxMode {
		t.Fatalf("expected lax same-site, got %v", c.SameSite)
	}
	if c.MaxAge != 7*24*60*60 {
		t.Fatalf("expected 7 day max age, got %d", c.MaxAge)
	}

	cleared := svc.ClearSessionCookie(false)
	if cleared.Value != "" || cleared.MaxAge >= 0 || cleared.Secure {
		t.Fatalf("unexpected cleared cookie %+v", cleared)
	}
}

func TestTokenFromRequest(t *testing.T) {
	svc := newTestService(t)

	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.AddCookie(&http.Cookie{Name: "apsession", Value: "from-cookie"})
	r.Header.Set("Authorization", "Bearer from-header")
	if got := svc.TokenFromRequest(r); got != "from-cookie" {
		t.Fatalf("cookie should win, got %q", got)
	}

	r = httptest.NewRequest(http.MethodGet, "/", nil)
	r.Header.Set("Authorization", "bearer from-header")
	if got := svc.TokenFromRequest(r); got != "from-header" {
		t.Fatalf("expected bearer fallback, got %q", got)
	}

	r = httptest.NewRequest(http.MethodGet, "/", nil)
	if got := svc.TokenFromRequest(r); got != "" {
		t.Fatalf("expected empty token, got %q", got)
	}
}

func signClaims(t *testing.T, method jwt.SigningMethod, secret string, claims jwt.MapClaims) string {
	t.Helper()
	signed, err := jwt.NewWithClaims(method, claims).SignedString([]byte(secret))
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	return signed
}
