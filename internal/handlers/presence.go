package handlers

import (
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rollhouse/voice-relay/internal/middleware"
	"github.com/rollhouse/voice-relay/internal/redis"
)

// Heartbeat handles POST /voice/presence. It marks the authenticated
// identity online until the presence TTL lapses; clients re-post on a cadence
// shorter than that.
func Heartbeat(ttl time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		caller, ok := middleware.Identity(c)
		if !ok {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Not authenticated"})
			return
		}

		if err := redis.MarkOnline(caller, ttl); err != nil {
			log.Printf("Failed to record presence for %s: %v", caller, err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal error"})
			return
		}

		c.JSON(http.StatusOK, gin.H{"success": true})
	}
}

// CheckPresence handles GET /voice/presence?email=. Lets a caller see
// whether a peer is reachable before posting an offer.
func CheckPresence() gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, ok := middleware.Identity(c); !ok {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Not authenticated"})
			return
		}

		identity := c.Query("email")
		if identity == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "email query parameter required"})
			return
		}

		online, err := redis.IsOnline(identity)
		if err != nil {
			log.Printf("Failed to check presence for %s: %v", identity, err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal error"})
			return
		}

		c.JSON(http.StatusOK, gin.H{"email": identity, "online": online})
	}
}
