package api

import (
	"errors"
	"log"
	"net/http"

	"triage-flows/internal/flow"

	"github.com/gin-gonic/gin"
)

type statusError interface {
	HTTPStatus() int
}

// respondError maps domain errors to their status. Validation failures carry
// the full violation list.
func respondError(c *gin.Context, err error) {
	var verr *flow.ValidationError
	if errors.As(err, &verr) {
		c.JSON(verr.HTTPStatus(), gin.H{"error": "validation failed", "violations": verr.Violations})
		return
	}

	var serr statusError
	if errors.As(err, &serr) {
		status := serr.HTTPStatus()
		if status >= http.StatusInternalServerError {
			log.Printf("[API] %s %s: %v", c.Request.Method, c.Request.URL.Path, err)
		}
		c.JSON(status, gin.H{"error": err.Error()})
		return
	}

	log.Printf("[API] %s %s: %v", c.Request.Method, c.Request.URL.Path, err)
	c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
}
