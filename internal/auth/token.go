package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// ErrInvalidToken is returned for any bearer token that fails verification.
var ErrInvalidToken = errors.New("invalid or expired token")

// Claims is the subset of the identity provider's access token this service reads.
type Claims struct {
	Email string `json:"email"`
	jwt.RegisteredClaims
}

// Identity is the caller a verified token speaks for.
type Identity struct {
	UserID string
	Email  string
}

// Verifier checks HS256 access tokens issued by the external identity service.
// It never issues tokens.
type Verifier struct {
	secret []byte
	parser *jwt.Parser
}

func NewVerifier(secret string) *Verifier {
	return &Verifier{
		secret: []byte(secret),
		parser: jwt.NewParser(
			jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
			jwt.WithExpirationRequired(),
			jwt.WithLeeway(30*time.Second),
		),
	}
}

// Verify parses the token and returns the caller's identity. Tokens without a
// subject or an expiry are rejected.
func (v *Verifier) Verify(tokenStr string) (*Identity, error) {
	claims := &Claims{}
	_, err := v.parser.ParseWithClaims(tokenStr, claims, func(*jwt.Token) (any, error) {
		return v.secret, nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if claims.Subject == "" {
		return nil, fmt.Errorf("%w: missing subject", ErrInvalidToken)
	}
	return &Identity{UserID: claims.Subject, Email: claims.Email}, nil
}
