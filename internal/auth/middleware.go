package auth

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

// TeacherIDKey is the gin context key the middleware stores the
// authenticated teacher's id under.
const TeacherIDKey = "teacher_id"

// TeacherAuth enforces bearer JWT tokens signed with HS256 and puts
// the teacher id on the request context.
func TeacherAuth(signingKey, issuer string) gin.HandlerFunc {
	return func(c *gin.Context) {
		authz := c.GetHeader("Authorization")
		if authz == "" || !strings.HasPrefix(strings.ToLower(authz), "bearer ") {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing bearer token"})
			return
		}
		tokenStr := strings.TrimSpace(authz[len("bearer "):])
		claims, err := Parse(tokenStr, signingKey, issuer)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
			return
		}
		if claims.Role != RoleTeacher {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "teacher access required"})
			return
		}
		c.Set(TeacherIDKey, claims.Subject)
		c.Next()
	}
}

// TeacherID returns the authenticated teacher's id from the context.
func TeacherID(c *gin.Context) string {
	return c.GetString(TeacherIDKey)
}
