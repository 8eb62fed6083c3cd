package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/pitstop-trips/backend/internal/auth"
	"github.com/pitstop-trips/backend/pkg/response"
)

const (
	// ContextUserID is the key for the PITSTOP user id in gin context.
	ContextUserID = "user_id"
	// ContextFirebaseUID is the key for the Firebase uid in gin context.
	ContextFirebaseUID = "firebase_uid"
	// ContextUserEmail is the key for user email in gin context.
	ContextUserEmail = "user_email"
)

// JWT returns a middleware that requires a valid bearer token and sets user claims in context.
func JWT(jwtService *auth.JWTService) gin.HandlerFunc {
	return authenticate(jwtService, true)
}

// OptionalJWT sets user claims when a bearer token is present. Requests without one pass through;
// requests with a bad one are rejected.
func OptionalJWT(jwtService *auth.JWTService) gin.HandlerFunc {
	return authenticate(jwtService, false)
}

func authenticate(jwtService *auth.JWTService, required bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" {
			if required {
				response.Unauthorized(c, "missing authorization header")
				c.Abort()
				return
			}
			c.Next()
			return
		}
		parts := strings.SplitN(header, " ", 2)
		if len(parts) != 2 || parts[0] != "Bearer" {
			response.Unauthorized(c, "invalid authorization header")
			c.Abort()
			return
		}
		claims, err := jwtService.Validate(parts[1])
		if err != nil {
			response.Unauthorized(c, "invalid or expired token")
			c.Abort()
			return
		}
		c.Set(ContextUserID, claims.UserID)
		c.Set(ContextFirebaseUID, claims.FirebaseUID)
		c.Set(ContextUserEmail, claims.Email)
		c.Next()
	}
}

// UserID returns the authenticated user id, if any.
func UserID(c *gin.Context) (int64, bool) {
	v, ok := c.Get(ContextUserID)
	if !ok {
		return 0, false
	}
	id, ok := v.(int64)
	return id, ok
}

// ActingAs rejects the request with 403 when a session is present for a different user than
// claimed. It reports whether the handler may continue.
func ActingAs(c *gin.Context, userID int64) bool {
	if id, ok := UserID(c); ok && id != userID {
		response.Forbidden(c, "token does not match user")
		return false
	}
	return true
}
