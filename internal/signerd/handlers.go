package signerd

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/rekonmarkets/rekon-go/builder"
)

// signRequest is the body of POST /sign. Body is optional (GET-shaped trade
// requests have none); method and path are not.
type signRequest struct {
	Method string `json:"method"`
	Path   string `json:"path"`
	Body   string `json:"body"`
}

type signResponse struct {
	Headers builder.AttributionHeaders `json:"headers"`
}

func (s *Server) handleLiveness(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":    "ok",
		"service":   ServiceName,
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

func (s *Server) handleSign(c *gin.Context) {
	var req signRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request",
			"message": "body must be JSON with method and path fields",
		})
		return
	}

	// Validate before any signature work happens
	if req.Method == "" || req.Path == "" {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request",
			"message": "method and path are required",
		})
		return
	}

	headers, err := builder.Headers(s.creds, s.now(), req.Method, req.Path, req.Body)
	if err != nil {
		s.log.WithError(err).Error("attribution signing failed")
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "Signing failed",
			"message": "could not compute attribution signature",
		})
		return
	}

	c.JSON(http.StatusOK, signResponse{Headers: *headers})
}
