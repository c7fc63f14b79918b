package controllers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/angelmondragon/autoparts-backend/api/middleware"
	pkgAuth "github.com/angelmondragon/autoparts-backend/pkg/auth"
	"github.com/angelmondragon/autoparts-backend/pkg/config"
	"github.com/angelmondragon/autoparts-backend/pkg/enums"
)

func newTestTokens(t *testing.T) *pkgAuth.TokenService {
	t.Helper()
	tokens, err := pkgAuth.NewTokenService(config.SessionConfig{
		Secret:     "controller-test-secret",
		Issuer:     "autoparts",
		TTL:        time.Hour,
		CookieName: pkgAuth.DefaultCookieName,
	})
	if err != nil {
		t.Fatalf("token service: %v", err)
	}
	return tokens
}

func customerIdentity() pkgAuth.Identity {
	return pkgAuth.Identity{ID: uuid.New(), Name: "Jo", Email: "jo@example.com", Role: enums.UserRoleCustomer}
}

func jsonRequest(method, target, body string) *http.Request {
	req := httptest.NewRequest(method, target, bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	return req
}

func withIdentity(req *http.Request, identity pkgAuth.Identity) *http.Request {
	return req.WithContext(middleware.WithIdentity(req.Context(), identity))
}

func sessionCookie(resp *httptest.ResponseRecorder) *http.Cookie {
	for _, c := range resp.Result().Cookies() {
		if c.Name == pkgAuth.DefaultCookieName {
			return c
		}
	}
	return nil
}

type errorEnvelope struct {
	Error struct {
		Code    string         `json:"code"`
		Message string         `json:"message"`
		Details map[string]any `json:"details"`
	} `json:"error"`
}

func decodeError(t *testing.T, resp *httptest.ResponseRecorder) errorEnvelope {
	t.Helper()
	var env errorEnvelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		t.Fatalf("decode error envelope: %v", err)
	}
	return env
}

func decodeData(t *testing.T, resp *httptest.ResponseRecorder, dest any) {
	t.Helper()
	envelope := struct {
		Data any `json:"data"`
	}{Data: dest}
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		t.Fatalf("decode data envelope: %v", err)
	}
}
