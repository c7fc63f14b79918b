package security

import (
	"strings"
	"testing"

	"golang.org/x/crypto/bcrypt"

	"github.com/angelmondragon/autoparts-backend/pkg/config"
)

func testPasswordConfig() config.PasswordConfig {
	return config.PasswordConfig{
		ArgonMemoryKB:    64,
		ArgonTime:        1,
		ArgonParallelism: 1,
		ArgonSaltLen:     16,
		ArgonKeyLen:      32,
	}
}

func TestHashAndVerifyPassword(t *testing.T) {
	hash, err := HashPassword("Secr3t!pass", testPasswordConfig())
	if err != nil {
		t.Fatalf("HashPassword: %v", err)
	}
	if !strings.HasPrefix(hash, "$argon2id$v=19$m=64,t=1,p=1$") {
		t.Fatalf("unexpected hash format %q", hash)
	}

	ok, err := VerifyPassword("Secr3t!pass", hash)
	if err != nil || !ok {
		t.Fatalf("expected match, ok=%v err=%v", ok, err)
	}
	ok, err = VerifyPassword("wrong", hash)
	if err != nil || ok {
		t.Fatalf("expected mismatch, ok=%v err=%v", ok, err)
	}

	other, err := HashPassword("Secr3t!pass", testPasswordConfig())
	if err != nil {
		t.Fatalf("HashPassword: %v", err)
	}
	if other == hash {
		t.Fatal("hashes must be salted")
	}
}

func TestHashPasswordRejectsEmpty(t *testing.T) {
	if _, err := HashPassword("", testPasswordConfig()); err == nil {
		t.Fatal("expected error for empty password")
	}
}

func TestVerifyPasswordLegacyBcrypt(t *testing.T) {
	legacy, err := bcrypt.GenerateFromPassword([]byte("OldPass1!"), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("bcrypt: %v", err)
	}
	if !IsLegacyHash(string(legacy)) {
		t.Fatal("expected bcrypt hash to be detected as legacy")
	}

	ok, err := VerifyPassword("OldPass1!", string(legacy))
	if err != nil || !ok {
		t.Fatalf("expected legacy match, ok=%v err=%v", ok, err)
	}
	ok, err = VerifyPassword("nope", string(legacy))
	if err != nil || ok {
		t.Fatalf("expected legacy mismatch, ok=%v err=%v", ok, err)
	}
}

func TestVerifyPasswordBadHash(t *testing.T) {
	for _, encoded := range []string{
		"",
		"plain",
		"$argon2i$v=19$m=64,t=1,p=1$c2FsdA$aGFzaA",
		"$argon2id$v=19$m=x,t=1,p=1$c2FsdA$aGFzaA",
		"$argon2id$v=19$m=64,t=1,p=1$!!!$aGFzaA",
		"$2a$10$short",
	} {
		if _, err := VerifyPassword("pw", encoded); err == nil {
			t.Fatalf("expected error for %q", encoded)
		}
	}
}

func TestRandomDigitsUniqueness(t *testing.T) {
	seen := map[string]bool{}
	for i := 0; i < 50; i++ {
		code, err := RandomDigits(6)
		if err != nil {
			t.Fatalf("RandomDigits: %v", err)
		}
		if len(code) != 6 {
			t.Fatalf("expected 6 digits, got %q", code)
		}
		for _, r := range code {
			if r < '0' || r > '9' {
				t.Fatalf("non digit in %q", code)
			}
		}
		seen[code] = true
	}
	if len(seen) < 45 {
		t.Fatalf("codes look non-random: %d unique of 50", len(seen))
	}
	if _, err := RandomDigits(0); err == nil {
		t.Fatal("expected error for zero length")
	}
}

func TestEqualConstantTimeMismatch(t *testing.T) {
	if !EqualConstantTime("123456", "123456") {
		t.Fatal("expected equal")
	}
	if EqualConstantTime("123456", "123457") || EqualConstantTime("123456", "12345") {
		t.Fatal("expected unequal")
	}
}
