package api

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	apperrors "score-handler/internal/common/errors"
)

const (
	headerRequestID = "X-Request-ID"
	ctxRequestID    = "requestId"
)

// requestID keeps a caller-supplied X-Request-ID or assigns a new one.
func (s *Server) requestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(headerRequestID)
		if id == "" {
			id = uuid.New().String()
		}
		c.Set(ctxRequestID, id)
		c.Header(headerRequestID, id)
		c.Next()
	}
}

// cors sets the CORS headers on every response and answers preflights.
func (s *Server) cors() gin.HandlerFunc {
	allowed := s.cfg.AllowedOrigins
	return func(c *gin.Context) {
		origin := "*"
		if len(allowed) > 0 && !(len(allowed) == 1 && allowed[0] == "*") {
			origin = ""
			reqOrigin := c.GetHeader("Origin")
			for _, o := range allowed {
				if strings.EqualFold(o, reqOrigin) {
					origin = reqOrigin
					break
				}
			}
			c.Header("Vary", "Origin")
		}
		if origin != "" {
			c.Header("Access-Control-Allow-Origin", origin)
		}
		c.Header("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Content-Type, Authorization, X-Request-ID")

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	}
}

func (s *Server) accessLog() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		fields := map[string]interface{}{
			"method":     c.Request.Method,
			"path":       c.FullPath(),
			"status":     c.Writer.Status(),
			"durationMs": time.Since(start).Milliseconds(),
			"requestId":  c.GetString(ctxRequestID),
		}
		if c.FullPath() == "" {
			fields["path"] = c.Request.URL.Path
		}
		switch {
		case c.Writer.Status() >= http.StatusInternalServerError:
			s.logger.Error("request failed", fields)
		case c.Request.URL.Path == "/health" || c.Request.URL.Path == "/metrics":
			s.logger.Debug("request", fields)
		default:
			s.logger.Info("request", fields)
		}
	}
}

// rateLimit rejects requests over the shared token bucket with 429.
func (s *Server) rateLimit() gin.HandlerFunc {
	return func(c *gin.Context) {
		if s.limiter != nil && !s.limiter.Allow() {
			s.writeError(c, apperrors.NewRateLimitedError(), nil)
			c.Abort()
			return
		}
		c.Next()
	}
}

// timeout bounds the request context with http.request_timeout.
func (s *Server) timeout() gin.HandlerFunc {
	d := millis(s.cfg.RequestTimeout, 30*time.Second)
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), d)
		defer cancel()
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}
