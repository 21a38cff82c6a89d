package auth

import (
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/nekogravitycat/service-booking-backend/internal/pkg/apperror"
	"github.com/nekogravitycat/service-booking-backend/internal/pkg/response"
)

var (
	errMissingHeader = apperror.New(apperror.KindUnauthorized, "missing Authorization header")
	errBadHeader     = apperror.New(apperror.KindUnauthorized, "invalid Authorization header format")
	errBadToken      = apperror.New(apperror.KindUnauthorized, "invalid or expired token")
)

// AuthRequired rejects requests without a valid bearer token and stores the
// caller's identity on the context.
func AuthRequired(v *Verifier) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" {
			abort(c, errMissingHeader)
			return
		}

		scheme, tokenStr, ok := strings.Cut(header, " ")
		if !ok || !strings.EqualFold(scheme, "bearer") || tokenStr == "" {
			abort(c, errBadHeader)
			return
		}

		id, err := v.Verify(tokenStr)
		if err != nil {
			abort(c, errBadToken.WithCause(err))
			return
		}

		setIdentity(c, id)
		c.Next()
	}
}

func abort(c *gin.Context, err error) {
	response.Error(c, err)
	c.Abort()
}
