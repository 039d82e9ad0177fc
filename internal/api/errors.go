package api

import (
	"errors"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/lucap2714-svg/fisiostudio/internal/domain"
)

// Validation codes reported as 409 Conflict: the request was well formed but
// clashes with the current state.
var conflictCodes = map[string]bool{
	"SESSION_FULL":       true,
	"ALREADY_BOOKED":     true,
	"SESSION_EXISTS":     true,
	"INVALID_TRANSITION": true,
	"RECORD_FINALIZED":   true,
	"WAITLISTED":         true,
}

// respondWithError maps service errors to HTTP responses.
func respondWithError(c *gin.Context, err error) {
	var de *domain.Error
	if !errors.As(err, &de) {
		log.Printf("ERROR: %s %s: %v", c.Request.Method, c.FullPath(), err)
		abortWithError(c, http.StatusInternalServerError, "Internal server error.")
		return
	}

	status := http.StatusInternalServerError
	switch de.Kind {
	case domain.KindValidation:
		status = http.StatusBadRequest
		if conflictCodes[de.Code] {
			status = http.StatusConflict
		}
	case domain.KindNotFound:
		status = http.StatusNotFound
	case domain.KindStoreUnavailable, domain.KindNotInitialized:
		status = http.StatusServiceUnavailable
	}
	if status >= http.StatusInternalServerError {
		log.Printf("ERROR: %s %s: %v", c.Request.Method, c.FullPath(), err)
	}

	body := gin.H{"error": de.Message, "kind": de.Kind}
	if de.Code != "" {
		body["code"] = de.Code
	}
	c.AbortWithStatusJSON(status, body)
}
