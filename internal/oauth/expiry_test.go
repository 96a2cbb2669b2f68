package oauth

import (
	"encoding/base64"
	"fmt"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// signedToken builds a real HS256-signed JWT with the given claims. The
// expiry check never verifies the signature, but a structurally valid
// token keeps the tests honest.
func signedToken(t *testing.T, claims jwt.MapClaims) string {
	t.Helper()

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("test-key"))
	if err != nil {
		t.Fatalf("failed to sign test token: %v", err)
	}
	return token
}

// rawToken assembles a three-segment token from an arbitrary payload.
func rawToken(payload string) string {
	header := base64.RawURLEncoding.EncodeToString([]byte(`{"alg":"HS256","typ":"JWT"}`))
	return fmt.Sprintf("%s.%s.%s", header, payload, "sig")
}

func TestIsExpired_ValidToken(t *testing.T) {
	now := time.Now()

	t.Run("well in the future", func(t *testing.T) {
		token := signedToken(t, jwt.MapClaims{"exp": now.Add(time.Hour).Unix()})
		if isExpiredAt(token, now) {
			t.Error("token expiring in an hour reported expired")
		}
	})

	t.Run("inside the safety margin", func(t *testing.T) {
		token := signedToken(t, jwt.MapClaims{"exp": now.Add(30 * time.Second).Unix()})
		if !isExpiredAt(token, now) {
			t.Error("token expiring within the margin not reported expired")
		}
	})

	t.Run("already past", func(t *testing.T) {
		token := signedToken(t, jwt.MapClaims{"exp": now.Add(-time.Minute).Unix()})
		if !isExpiredAt(token, now) {
			t.Error("expired token not reported expired")
		}
	})

	t.Run("just beyond the margin", func(t *testing.T) {
		token := signedToken(t, jwt.MapClaims{"exp": now.Add(ExpiryMargin + 5*time.Second).Unix()})
		if isExpiredAt(token, now) {
			t.Error("token beyond the margin reported expired")
		}
	})
}

func TestIsExpired_FailClosed(t *testing.T) {
	now := time.Now()

	cases := []struct {
		name  string
		token string
	}{
		{"empty", ""},
		{"two segments", "aaaa.bbbb"},
		{"four segments", "aaaa.bbbb.cccc.dddd"},
		{"payload not base64url", rawToken("!!!not-base64!!!")},
		{"payload not JSON", rawToken(base64.RawURLEncoding.EncodeToString([]byte("plain text")))},
		{"missing exp claim", signedToken(t, jwt.MapClaims{"sub": "user-1"})},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if !isExpiredAt(tc.token, now) {
				t.Errorf("malformed token %q not treated as expired", tc.name)
			}
		})
	}
}

func TestExpiryTime(t *testing.T) {
	exp := time.Now().Add(time.Hour).Truncate(time.Second)

	token := signedToken(t, jwt.MapClaims{"exp": exp.Unix()})
	got, ok := ExpiryTime(token)
	if !ok {
		t.Fatal("ExpiryTime returned !ok for a valid token")
	}
	if !got.Equal(exp) {
		t.Errorf("ExpiryTime = %v, want %v", got, exp)
	}

	if _, ok := ExpiryTime("not-a-jwt"); ok {
		t.Error("ExpiryTime returned ok for a malformed token")
	}
}
