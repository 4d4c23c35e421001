package httpapi

import (
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/dmitrijs2005/accounts/internal/common"
	"github.com/dmitrijs2005/accounts/internal/logging"
	"github.com/dmitrijs2005/accounts/internal/server/auth"
)

var discardLogger = logging.NewJSONLogger(io.Discard, "error")

const (
	requestIDContextKey = "request_id"
	userIDContextKey    = "user_id"
	loggerContextKey    = "logger"
	maxRequestIDLength  = 128

	// multipartOverhead is the body allowance on top of the file size for
	// form fields and part headers.
	multipartOverhead = 64 << 10
)

// TokenVerifier is the part of auth.Signer the middleware needs.
type TokenVerifier interface {
	Verify(token string, purpose auth.Purpose) (string, error)
}

// RequestIDFromContext returns the request ID or an empty string.
func RequestIDFromContext(c *gin.Context) string {
	return c.GetString(requestIDContextKey)
}

// UserIDFromContext returns the authenticated user id set by BearerAuth.
func UserIDFromContext(c *gin.Context) string {
	return c.GetString(userIDContextKey)
}

func loggerFrom(c *gin.Context) logging.Logger {
	if l, ok := c.Get(loggerContextKey); ok {
		if logger, ok := l.(logging.Logger); ok {
			return logger
		}
	}
	return discardLogger
}

// RequestID reuses the incoming X-Request-ID or generates one, and echoes it
// in the response.
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := strings.TrimSpace(c.GetHeader(common.RequestIDHeaderName))
		if len(requestID) > maxRequestIDLength {
			requestID = requestID[:maxRequestIDLength]
		}
		if requestID == "" {
			requestID = uuid.NewString()
		}

		c.Set(requestIDContextKey, requestID)
		c.Writer.Header().Set(common.RequestIDHeaderName, requestID)
		c.Next()
	}
}

// AccessLog logs one line per request once the handler chain completes.
func AccessLog(logger logging.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		startedAt := time.Now()
		c.Set(loggerContextKey, logger)

		c.Next()

		logger.Info(c.Request.Context(), "request",
			"request_id", RequestIDFromContext(c),
			"method", c.Request.Method,
			"path", c.FullPath(),
			"status", c.Writer.Status(),
			"latency_ms", float64(time.Since(startedAt).Microseconds())/1000.0,
			"client_ip", c.ClientIP(),
		)
	}
}

// Recovery turns a panic into a 500 envelope.
func Recovery(logger logging.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if p := recover(); p != nil {
				logger.Error(c.Request.Context(), "panic recovered", "request_id", RequestIDFromContext(c), "panic", p)
				c.AbortWithStatusJSON(http.StatusInternalServerError, Envelope{
					StatusCode: http.StatusInternalServerError,
					Message:    "internal server error",
					Errors:     []string{},
				})
			}
		}()
		c.Next()
	}
}

// LimitBody caps the request body at maxBytes plus multipartOverhead. Reads
// past the cap fail with *http.MaxBytesError, so oversized uploads are
// rejected while parsing instead of being spooled to disk first.
func LimitBody(maxBytes int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		if maxBytes > 0 && c.Request.Body != nil {
			c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes+multipartOverhead)
		}
		c.Next()
	}
}

// BearerAuth requires "Authorization: Bearer <session token>" and stores the
// token subject for UserIDFromContext.
func BearerAuth(verifier TokenVerifier) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := strings.TrimSpace(c.GetHeader(common.AuthorizationHeaderName))
		scheme, token, ok := strings.Cut(header, " ")
		if header == "" || !ok || !strings.EqualFold(scheme, "Bearer") || strings.TrimSpace(token) == "" {
			respondError(c, common.NewError(common.ErrorUnauthorized, "unauthorized request", common.ErrTokenMissing))
			return
		}

		userID, err := verifier.Verify(strings.TrimSpace(token), auth.PurposeSession)
		if err != nil {
			respondError(c, common.NewError(common.ErrorUnauthorized, "invalid or expired token", err))
			return
		}

		c.Set(userIDContextKey, userID)
		c.Next()
	}
}
