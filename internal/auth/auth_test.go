package auth_test

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nekogravitycat/service-booking-backend/internal/auth"
	"github.com/nekogravitycat/service-booking-backend/internal/auth/authtest"
)

func signWith(t *testing.T, method jwt.SigningMethod, key any, claims jwt.Claims) string {
	t.Helper()
	s, err := jwt.NewWithClaims(method, claims).SignedString(key)
	require.NoError(t, err)
	return s
}

func TestVerifier_Verify(t *testing.T) {
	v := auth.NewVerifier(authtest.Secret)
	later := jwt.NewNumericDate(time.Now().Add(time.Hour))

	t.Run("Valid token", func(t *testing.T) {
		id, err := v.Verify(authtest.Token(t, "user-1", "alice@example.com"))
		require.NoError(t, err)
		assert.Equal(t, &auth.Identity{UserID: "user-1", Email: "alice@example.com"}, id)
	})

	tests := []struct {
		name  string
		token string
	}{
		{"Expired", authtest.ExpiredToken(t, "user-1", "")},
		{"Wrong secret", signWith(t, jwt.SigningMethodHS256, []byte("other"), auth.Claims{
			RegisteredClaims: jwt.RegisteredClaims{Subject: "user-1", ExpiresAt: later},
		})},
		{"Other HMAC algorithm", signWith(t, jwt.SigningMethodHS512, []byte(authtest.Secret), auth.Claims{
			RegisteredClaims: jwt.RegisteredClaims{Subject: "user-1", ExpiresAt: later},
		})},
		{"Unsigned", signWith(t, jwt.SigningMethodNone, jwt.UnsafeAllowNoneSignatureType, auth.Claims{
			RegisteredClaims: jwt.RegisteredClaims{Subject: "user-1", ExpiresAt: later},
		})},
		{"No expiry", signWith(t, jwt.SigningMethodHS256, []byte(authtest.Secret), auth.Claims{
			RegisteredClaims: jwt.RegisteredClaims{Subject: "user-1"},
		})},
		{"No subject", signWith(t, jwt.SigningMethodHS256, []byte(authtest.Secret), auth.Claims{
			RegisteredClaims: jwt.RegisteredClaims{ExpiresAt: later},
		})},
		{"Garbage", "not-a-jwt"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := v.Verify(tt.token)
			assert.ErrorIs(t, err, auth.ErrInvalidToken)
		})
	}
}

func TestAuthRequired(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/me", auth.AuthRequired(auth.NewVerifier(authtest.Secret)), func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"id": auth.GetUserID(c), "email": auth.GetUserEmail(c)})
	})

	do := func(header string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodGet, "/me", nil)
		if header != "" {
			req.Header.Set("Authorization", header)
		}
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		return w
	}

	t.Run("Sets identity", func(t *testing.T) {
		w := do("Bearer " + authtest.Token(t, "user-1", "alice@example.com"))
		require.Equal(t, http.StatusOK, w.Code)
		assert.JSONEq(t, `{"id":"user-1","email":"alice@example.com"}`, w.Body.String())
	})

	t.Run("Scheme is case insensitive", func(t *testing.T) {
		w := do("bearer " + authtest.Token(t, "user-1", ""))
		assert.Equal(t, http.StatusOK, w.Code)
	})

	for name, header := range map[string]string{
		"Missing header": "",
		"Wrong scheme":   "Basic dXNlcjpwdw==",
		"Empty token":    "Bearer ",
		"Expired":        "Bearer " + authtest.ExpiredToken(t, "user-1", ""),
	} {
		t.Run(name, func(t *testing.T) {
			w := do(header)
			assert.Equal(t, http.StatusUnauthorized, w.Code)
			assert.Contains(t, w.Body.String(), `"kind":"unauthorized"`)
		})
	}
}
