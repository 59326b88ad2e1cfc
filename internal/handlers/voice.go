package handlers

import (
	"errors"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rollhouse/voice-relay/internal/middleware"
	"github.com/rollhouse/voice-relay/internal/models"
	"github.com/rollhouse/voice-relay/internal/relay"
)

// SubmitSignal handles POST /voice/signal.
func SubmitSignal(rl *relay.Relay) gin.HandlerFunc {
	return func(c *gin.Context) {
		caller, ok := middleware.Identity(c)
		if !ok {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Not authenticated"})
			return
		}

		var req models.SubmitSignalRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
			return
		}

		if err := rl.Submit(c.Request.Context(), req, caller); err != nil {
			respondRelayError(c, err)
			return
		}

		c.JSON(http.StatusOK, gin.H{"success": true})
	}
}

// FetchSignals handles GET /voice/signals?email=. The read is destructive:
// the returned signals are removed from the queue.
func FetchSignals(rl *relay.Relay) gin.HandlerFunc {
	return func(c *gin.Context) {
		caller, ok := middleware.Identity(c)
		if !ok {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Not authenticated"})
			return
		}

		identity := c.Query("email")
		if identity == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "email query parameter required"})
			return
		}

		signals, err := rl.FetchPending(identity, caller)
		if err != nil {
			respondRelayError(c, err)
			return
		}

		c.JSON(http.StatusOK, signals)
	}
}

// StartCall handles POST /voice/start.
func StartCall(rl *relay.Relay) gin.HandlerFunc {
	return func(c *gin.Context) {
		caller, ok := middleware.Identity(c)
		if !ok {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Not authenticated"})
			return
		}

		var req models.CallRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
			return
		}

		if err := rl.StartCall(c.Request.Context(), req.From, req.To, req.Timestamp, caller); err != nil {
			respondRelayError(c, err)
			return
		}

		c.JSON(http.StatusOK, gin.H{"success": true})
	}
}

// EndCall handles POST /voice/end. Ending an unknown call is a success.
func EndCall(rl *relay.Relay) gin.HandlerFunc {
	return func(c *gin.Context) {
		caller, ok := middleware.Identity(c)
		if !ok {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Not authenticated"})
			return
		}

		var req models.CallRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
			return
		}

		if err := rl.EndCall(c.Request.Context(), req.From, req.To, req.Timestamp, caller); err != nil {
			respondRelayError(c, err)
			return
		}

		c.JSON(http.StatusOK, gin.H{"success": true})
	}
}

// respondRelayError maps relay errors onto the HTTP error taxonomy.
// Authorization failures are terminal: the relay guarantees no queue append
// or audit record happened once any check failed.
func respondRelayError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, relay.ErrForbiddenSender),
		errors.Is(err, relay.ErrForbidden),
		errors.Is(err, relay.ErrNotRelated):
		c.JSON(http.StatusForbidden, gin.H{"error": err.Error()})
	case errors.Is(err, relay.ErrInvalidType),
		errors.Is(err, relay.ErrSelfSignal):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	default:
		// Friend lookup or audit sink failure. Never acknowledge a signal
		// the audit trail did not see.
		log.Printf("Relay request failed: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal error"})
	}
}
