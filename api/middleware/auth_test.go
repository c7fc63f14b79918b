package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"

	pkgAuth "github.com/angelmondragon/autoparts-backend/pkg/auth"
	"github.com/angelmondragon/autoparts-backend/pkg/config"
	"github.com/angelmondragon/autoparts-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/autoparts-backend/pkg/errors"
)

func newTokens(t *testing.T) *pkgAuth.TokenService {
	t.Helper()
	tokens, err := pkgAuth.NewTokenService(config.SessionConfig{
		Secret:     "secret",
		Issuer:     "autoparts",
		TTL:        time.Hour,
		CookieName: "apsession",
	})
	if err != nil {
		t.Fatalf("token service: %v", err)
	}
	return tokens
}

func mintTestToken(t *testing.T, tokens *pkgAuth.TokenService, role enums.UserRole) (string, pkgAuth.Identity) {
	t.Helper()
	identity := pkgAuth.Identity{ID: uuid.New(), Name: "Ana", Email: "ana@example.com", Role: role}
	token, err := tokens.Issue(identity, 0)
	if err != nil {
		t.Fatalf("issue token: %v", err)
	}
	return token, identity
}

func okHandler(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusOK) }

func TestAuthRejectsMissingToken(t *testing.T) {
	handler := Auth(newTokens(t), nil)(http.HandlerFunc(okHandler))

	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/api/cart", nil))
	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 got %d", resp.Code)
	}
	var payload struct {
		Error struct {
			Code    string `json:"code"`
			Message string `json:"message"`
		} `json:"error"`
	}
	if err := json.Unmarshal(resp.Body.Bytes(), &payload); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if payload.Error.Code != string(pkgerrors.CodeUnauthorized) || payload.Error.Message != "please log in" {
		t.Fatalf("unexpected error payload %+v", payload.Error)
	}
}

func TestAuthRejectsInvalidToken(t *testing.T) {
	handler := Auth(newTokens(t), nil)(http.HandlerFunc(okHandler))

	req := httptest.NewRequest(http.MethodGet, "/api/cart", nil)
	req.Header.Set("Authorization", "Bearer invalid")
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)
	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 got %d", resp.Code)
	}
}

func TestAuthAcceptsCookieAndSeedsContext(t *testing.T) {
	tokens := newTokens(t)
	token, identity := mintTestToken(t, tokens, enums.UserRoleSeller)

	var seen pkgAuth.Identity
	handler := Auth(tokens, nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got, ok := IdentityFromContext(r.Context())
		if !ok {
			t.Fatal("expected identity in context")
		}
		seen = got
		if UserIDFromContext(r.Context()) != identity.ID.String() {
			t.Fatalf("unexpected user id %q", UserIDFromContext(r.Context()))
		}
		if RoleFromContext(r.Context()) != enums.UserRoleSeller {
			t.Fatalf("unexpected role %q", RoleFromContext(r.Context()))
		}
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/cart", nil)
	req.AddCookie(&http.Cookie{Name: "apsession", Value: token})
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}
	if seen.ID != identity.ID {
		t.Fatalf("identity mismatch: %+v", seen)
	}
}

func TestOptionalAuthPassesAnonymous(t *testing.T) {
	tokens := newTokens(t)
	token, _ := mintTestToken(t, tokens, enums.UserRoleCustomer)

	var authenticated []bool
	handler := OptionalAuth(tokens, nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, ok := IdentityFromContext(r.Context())
		authenticated = append(authenticated, ok)
		w.WriteHeader(http.StatusOK)
	}))

	anon := httptest.NewRequest(http.MethodGet, "/api/parts/x", nil)
	handler.ServeHTTP(httptest.NewRecorder(), anon)

	signed := httptest.NewRequest(http.MethodGet, "/api/parts/x", nil)
	signed.Header.Set("Authorization", "Bearer "+token)
	handler.ServeHTTP(httptest.NewRecorder(), signed)

	if len(authenticated) != 2 || authenticated[0] || !authenticated[1] {
		t.Fatalf("unexpected auth states %v", authenticated)
	}
}

func TestRequireRole(t *testing.T) {
	tokens := newTokens(t)
	customerToken, _ := mintTestToken(t, tokens, enums.UserRoleCustomer)
	sellerToken, _ := mintTestToken(t, tokens, enums.UserRoleSeller)

	handler := Auth(tokens, nil)(RequireRole(nil, enums.UserRoleSeller, enums.UserRoleAdmin)(http.HandlerFunc(okHandler)))

	cases := map[string]int{customerToken: http.StatusForbidden, sellerToken: http.StatusOK}
	for token, want := range cases {
		req := httptest.NewRequest(http.MethodPost, "/api/parts", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		resp := httptest.NewRecorder()
		handler.ServeHTTP(resp, req)
		if resp.Code != want {
			t.Fatalf("expected %d got %d", want, resp.Code)
		}
	}

	bare := httptest.NewRecorder()
	RequireRole(nil, enums.UserRoleSeller)(http.HandlerFunc(okHandler)).ServeHTTP(bare, httptest.NewRequest(http.MethodGet, "/", nil))
	if bare.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without identity, got %d", bare.Code)
	}
}
