// Package middleware carries the gin middleware for the local development
// server. The deployed stack gets the same behavior from the gateway and the
// token authorizer; these handlers emulate that in front of the same pipeline.
package middleware

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"lambdakit/internal/auth"
	"lambdakit/pkg/lambda"
	"lambdakit/pkg/logctx"
	"lambdakit/pkg/problem"
)

// CorrelationIDKey is the gin context key holding the request's correlation ID.
const CorrelationIDKey = "correlation_id"

// WithLogger attaches logger to every request context so downstream records
// go through it.
func WithLogger(logger *logrus.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Request = c.Request.WithContext(logctx.WithLogger(c.Request.Context(), logger))
		c.Next()
	}
}

// Correlation assigns each request a correlation ID, taken from the
// X-Correlation-ID header when the caller sent one. The ID is echoed back in
// the response and bound into the ambient log context.
func Correlation() gin.HandlerFunc {
	return func(c *gin.Context) {
		correlationID := c.GetHeader("X-Correlation-ID")
		if correlationID == "" {
			correlationID = uuid.New().String()
		}

		c.Set(CorrelationIDKey, correlationID)
		c.Header("X-Correlation-ID", correlationID)

		ctx := logctx.Bind(c.Request.Context(), logrus.Fields{"correlation_id": correlationID})
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}

// RequestLog emits one structured record per request with method, path,
// status, and latency. The record level follows the response status.
func RequestLog() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		raw := c.Request.URL.RawQuery

		c.Next()

		fields := logrus.Fields{
			"method":      c.Request.Method,
			"path":        path,
			"status_code": c.Writer.Status(),
			"latency_ms":  float64(time.Since(start).Nanoseconds()) / 1e6,
			"client_ip":   c.ClientIP(),
		}
		if raw != "" {
			fields["query"] = raw
		}

		entry := logctx.Logger(c.Request.Context()).WithFields(fields)
		switch {
		case c.Writer.Status() >= 500:
			entry.Error("server error")
		case c.Writer.Status() >= 400:
			entry.Warn("client error")
		default:
			entry.Info("request completed")
		}
	}
}

// CORS answers preflight requests and marks every response for cross-origin
// use, which local frontends need when talking to the emulator.
func CORS() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Origin, Content-Type, Content-Length, Accept-Encoding, Authorization, X-Correlation-ID")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}

// Authenticated validates the bearer token on each request the way the
// deployed token authorizer does and stores the claims for later handlers.
func Authenticated(service *auth.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			AbortProblem(c, problem.New(http.StatusUnauthorized, "Authorization header is required"))
			return
		}

		tokenParts := strings.Split(authHeader, " ")
		if len(tokenParts) != 2 || tokenParts[0] != "Bearer" {
			AbortProblem(c, problem.New(http.StatusUnauthorized, "Authorization header must be: Bearer <token>"))
			return
		}

		claims, err := service.ValidateToken(tokenParts[1])
		if err != nil {
			logctx.Logger(c.Request.Context()).WithError(err).WithField("path", c.Request.URL.Path).Warn("token rejected")
			AbortProblem(c, problem.New(http.StatusUnauthorized, "Invalid or expired token"))
			return
		}

		c.Set("claims", claims)

		ctx := logctx.Bind(c.Request.Context(), logrus.Fields{
			"user_id":  claims.UserID,
			"username": claims.Username,
		})
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}

// RequireRole rejects authenticated requests whose claims carry none of the
// given roles. It must run after Authenticated.
func RequireRole(roles ...auth.UserRole) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims := ClaimsFromContext(c)
		if claims == nil {
			AbortProblem(c, problem.New(http.StatusUnauthorized, "Authentication required"))
			return
		}

		for _, role := range roles {
			if claims.HasRole(string(role)) {
				c.Next()
				return
			}
		}

		logctx.Logger(c.Request.Context()).WithFields(logrus.Fields{
			"user_roles": claims.Roles,
			"path":       c.Request.URL.Path,
		}).Warn("insufficient permissions")
		AbortProblem(c, problem.New(http.StatusForbidden, "Insufficient permissions"))
	}
}

// ClaimsFromContext returns the claims stored by Authenticated, or nil when
// the request is unauthenticated.
func ClaimsFromContext(c *gin.Context) *auth.Claims {
	value, exists := c.Get("claims")
	if !exists {
		return nil
	}
	claims, ok := value.(*auth.Claims)
	if !ok {
		return nil
	}
	return claims
}

// AbortProblem stops the request with a problem+json document, the same wire
// shape the deployed gateway produces.
func AbortProblem(c *gin.Context, p *problem.Problem) {
	n := p.Normalized()
	body, err := json.Marshal(n)
	if err != nil {
		c.AbortWithStatus(http.StatusInternalServerError)
		return
	}
	c.Data(n.Status, lambda.ContentTypeProblem, body)
	c.Abort()
}
