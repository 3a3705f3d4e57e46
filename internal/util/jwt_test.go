package util

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

func TestGenerateAndParseToken(t *testing.T) {
	token, err := GenerateToken("secret", "trackfinance", "user-1", "session-1", time.Hour)
	if err != nil {
		t.Fatalf("GenerateToken: %v", err)
	}

	claims, err := ParseToken("secret", token)
	if err != nil {
		t.Fatalf("ParseToken: %v", err)
	}
	if claims.UserID != "user-1" || claims.ID != "session-1" {
		t.Errorf("claims = %+v", claims)
	}
	if claims.Issuer != "trackfinance" {
		t.Errorf("issuer = %q", claims.Issuer)
	}
}

func TestParseToken_WrongSecret(t *testing.T) {
	token, _ := GenerateToken("secret", "", "user-1", "session-1", time.Hour)
	if _, err := ParseToken("other", token); err == nil {
		t.Error("expected signature error")
	}
}

func TestParseToken_Expired(t *testing.T) {
	claims := &Claims{
		UserID: "user-1",
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        "session-1",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Minute)),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("secret"))
	if err != nil {
		t.Fatal(err)
	}
	if _, err := ParseToken("secret", token); err == nil {
		t.Error("expected expired token to be rejected")
	}
}

func TestParseToken_MissingSession(t *testing.T) {
	token, _ := GenerateToken("secret", "", "user-1", "", time.Hour)
	if _, err := ParseToken("secret", token); err == nil {
		t.Error("token without session id should be rejected")
	}
	if _, err := ParseToken("secret", "not.a.token"); err == nil {
		t.Error("expected error for garbage token")
	}
}
