package middleware

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
)

// ContextKeyEmail is the gin context key holding the authenticated identity.
const ContextKeyEmail = "email"

// Claims are the claims the game backend puts in its bearer tokens. The
// email claim is the identity every relay operation authorizes against.
type Claims struct {
	Email string `json:"email"`
	jwt.RegisteredClaims
}

// BearerAuth validates the Authorization header and stores the authenticated
// email in the request context. Requests without a resolvable identity never
// reach a handler.
func BearerAuth(jwtSecret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error": "Authorization header required",
			})
			return
		}

		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || parts[0] != "Bearer" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error": "Invalid authorization header format",
			})
			return
		}

		token, err := jwt.ParseWithClaims(parts[1], &Claims{}, func(token *jwt.Token) (interface{}, error) {
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
			}
			return []byte(jwtSecret), nil
		})
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error": "Invalid token",
			})
			return
		}

		claims, ok := token.Claims.(*Claims)
		if !ok || !token.Valid || claims.Email == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error": "Invalid token claims",
			})
			return
		}

		c.Set(ContextKeyEmail, claims.Email)
		c.Next()
	}
}

// Identity returns the authenticated email stashed by BearerAuth.
func Identity(c *gin.Context) (string, bool) {
	email, ok := c.Get(ContextKeyEmail)
	if !ok {
		return "", false
	}
	s, ok := email.(string)
	return s, ok && s != ""
}
