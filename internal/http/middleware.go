package http

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"account-api/internal/domain"
)

const (
	requestIDHeader = "X-Request-ID"
	requestIDKey    = "request_id"
	currentUserKey  = "current_user"
)

// requestLogger tags each request with an id and logs it once it completes.
func requestLogger(log logrus.FieldLogger, metrics *Metrics) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		id := c.GetHeader(requestIDHeader)
		if _, err := uuid.Parse(id); err != nil {
			id = uuid.NewString()
		}
		c.Set(requestIDKey, id)
		c.Header(requestIDHeader, id)

		c.Next()

		latency := time.Since(start)
		status := c.Writer.Status()
		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		if metrics != nil {
			metrics.RequestDuration.
				WithLabelValues(c.Request.Method, route, strconv.Itoa(status)).
				Observe(latency.Seconds())
		}

		entry := log.WithFields(logrus.Fields{
			requestIDKey: id,
			"method":     c.Request.Method,
			"path":       c.Request.URL.Path,
			"status":     status,
			"latency":    latency,
		})
		if len(c.Errors) > 0 && status >= http.StatusInternalServerError {
			entry.WithError(c.Errors.Last()).Error("request failed")
			return
		}
		entry.Info("request")
	}
}

// requireSession resolves the session token header to a user or aborts with 401.
func (h *Handler) requireSession() gin.HandlerFunc {
	return func(c *gin.Context) {
		user, err := h.guard.Authenticate(c.Request.Context(), c.GetHeader(h.tokenHeader))
		h.metrics.SessionChecks.WithLabelValues(result(err)).Inc()
		if err != nil {
			respondServiceError(c, err)
			return
		}
		c.Set(currentUserKey, user)
		c.Next()
	}
}

func currentUser(c *gin.Context) *domain.User {
	if v, ok := c.Get(currentUserKey); ok {
		if u, ok := v.(*domain.User); ok {
			return u
		}
	}
	return nil
}

func corsMiddleware(tokenHeader string) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, PATCH, OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Origin, Content-Type, Accept, "+tokenHeader)
		c.Writer.Header().Set("Access-Control-Expose-Headers", requestIDHeader)
		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}
