package server

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/ifuryst/scriptforge/internal/models"
	"github.com/ifuryst/scriptforge/internal/service"
)

func (s *Server) handleSubmit(c *gin.Context) {
	var req service.SubmitRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}
	req.ClientIP = c.ClientIP()

	resp, err := s.services.Gateway.Submit(c.Request.Context(), req)
	if err != nil {
		s.writeError(c, err, "Not found")
		return
	}

	c.JSON(http.StatusOK, resp)
}

func (s *Server) handleStatus(c *gin.Context) {
	status, err := s.services.Status.Resolve(c.Request.Context(), c.Param("jobId"))
	if err != nil {
		s.writeError(c, err, "Job not found")
		return
	}

	c.JSON(http.StatusOK, status)
}

func (s *Server) handleScript(c *gin.Context) {
	sc, err := s.services.Scripts.Fetch(c.Request.Context(), c.Param("scriptId"))
	if err != nil {
		s.writeError(c, err, "Script not found")
		return
	}

	c.JSON(http.StatusOK, sc)
}

func (s *Server) handleHelp(c *gin.Context) {
	var req service.HelpRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	reply, err := s.services.Help.Forward(c.Request.Context(), req)
	if err != nil {
		s.writeError(c, err, "Not found")
		return
	}

	c.Data(reply.StatusCode, "application/json; charset=utf-8", reply.Body)
}

// writeError maps service errors onto status codes. notFound is the 404 body.
func (s *Server) writeError(c *gin.Context, err error, notFound string) {
	_ = c.Error(err)

	var verr *models.ValidationError
	switch {
	case errors.As(err, &verr):
		c.JSON(http.StatusBadRequest, gin.H{"error": verr.Error()})
	case errors.Is(err, models.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": notFound})
	case errors.Is(err, models.ErrRateLimited):
		c.JSON(http.StatusTooManyRequests, gin.H{"error": s.rateLimitMessage()})
	case errors.Is(err, models.ErrWorkflowNotConfigured):
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Workflow webhook not configured"})
	case errors.Is(err, service.ErrHelpNotConfigured):
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Help webhook not configured"})
	default:
		// The cause is recorded by the access log; store errors may carry
		// hosts or DSN fragments.
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
	}
}

func (s *Server) rateLimitMessage() string {
	return fmt.Sprintf("Rate limit: Max %d submissions per %s. Please try again later.",
		s.Config.RateLimit.MaxSubmissions, windowPhrase(s.Config.RateLimit.Window))
}

// windowPhrase renders a rate limit window as "hour", "30 minutes", "2 days".
// A zero window reads as the default hour.
func windowPhrase(window time.Duration) string {
	units := []struct {
		size time.Duration
		name string
	}{
		{24 * time.Hour, "day"},
		{time.Hour, "hour"},
		{time.Minute, "minute"},
		{time.Second, "second"},
	}
	if window <= 0 {
		window = time.Hour
	}
	for _, u := range units {
		if window%u.size != 0 {
			continue
		}
		n := int64(window / u.size)
		if n == 1 {
			return u.name
		}
		return fmt.Sprintf("%d %ss", n, u.name)
	}
	return window.String()
}
