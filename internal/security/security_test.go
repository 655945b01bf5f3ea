package security

import (
	"errors"
	"strings"
	"testing"
	"time"
)

func TestStateRoundTrip(t *testing.T) {
	state, err := GenerateState("secret", "/learn/physics", time.Minute)
	if err != nil {
		t.Fatalf("GenerateState: %v", err)
	}

	claims, err := ParseState(state, "secret")
	if err != nil {
		t.Fatalf("ParseState: %v", err)
	}
	if claims.Redirect != "/learn/physics" {
		t.Errorf("redirect = %q", claims.Redirect)
	}
	if claims.Nonce == "" {
		t.Error("expected nonce")
	}
}

func TestStateRejectsTamperingAndExpiry(t *testing.T) {
	state, _ := GenerateState("secret", "/admin", time.Minute)
	if _, err := ParseState(state, "other-secret"); !errors.Is(err, ErrInvalidState) {
		t.Errorf("expected ErrInvalidState for wrong secret, got %v", err)
	}

	expired, _ := GenerateState("secret", "/admin", -time.Minute)
	if _, err := ParseState(expired, "secret"); !errors.Is(err, ErrInvalidState) {
		t.Errorf("expected ErrInvalidState for expired state, got %v", err)
	}

	if _, err := ParseState("not-a-jwt", "secret"); !errors.Is(err, ErrInvalidState) {
		t.Errorf("expected ErrInvalidState for garbage, got %v", err)
	}
}

func TestGenerateTemporaryPassword(t *testing.T) {
	seen := map[string]bool{}
	for i := 0; i < 20; i++ {
		pw, err := GenerateTemporaryPassword(16)
		if err != nil {
			t.Fatalf("GenerateTemporaryPassword: %v", err)
		}
		if len(pw) != 16 {
			t.Fatalf("len = %d", len(pw))
		}
		for _, set := range []string{lowerChars, upperChars, digitChars, symbolChars} {
			if !strings.ContainsAny(pw, set) {
				t.Errorf("password %q misses class %q", pw, set)
			}
		}
		seen[pw] = true
	}
	if len(seen) != 20 {
		t.Errorf("expected unique passwords, got %d distinct", len(seen))
	}

	short, _ := GenerateTemporaryPassword(4)
	if len(short) != 12 {
		t.Errorf("short length should be raised to 12, got %d", len(short))
	}
}
