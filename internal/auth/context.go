package auth

import "github.com/gin-gonic/gin"

const (
	userIDKey    = "auth.userID"
	userEmailKey = "auth.userEmail"
)

func setIdentity(c *gin.Context, id *Identity) {
	c.Set(userIDKey, id.UserID)
	c.Set(userEmailKey, id.Email)
}

// GetUserID returns the authenticated user's ID, or "" outside AuthRequired.
func GetUserID(c *gin.Context) string {
	return c.GetString(userIDKey)
}

// GetUserEmail returns the email claim of the caller's token, which may be empty.
func GetUserEmail(c *gin.Context) string {
	return c.GetString(userEmailKey)
}
