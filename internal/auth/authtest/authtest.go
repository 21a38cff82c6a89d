// Package authtest signs access tokens the way the identity service does, for
// tests that exercise authenticated routes.
package authtest

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/nekogravitycat/service-booking-backend/internal/auth"
)

// Secret is the signing secret test routers are built with.
const Secret = "test-secret"

// Token returns an HS256 token for userID valid for one hour.
func Token(t testing.TB, userID, email string) string {
	t.Helper()
	return sign(t, userID, email, time.Now().Add(time.Hour))
}

// ExpiredToken returns a token that expired an hour ago.
func ExpiredToken(t testing.TB, userID, email string) string {
	t.Helper()
	return sign(t, userID, email, time.Now().Add(-time.Hour))
}

func sign(t testing.TB, userID, email string, exp time.Time) string {
	t.Helper()
	claims := auth.Claims{
		Email: email,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(exp.Add(-time.Hour)),
			ExpiresAt: jwt.NewNumericDate(exp),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(Secret))
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return signed
}
