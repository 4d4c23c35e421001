package httpapi

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/dmitrijs2005/accounts/internal/common"
)

// Envelope is the body of every response.
type Envelope struct {
	StatusCode int      `json:"statusCode"`
	Success    bool     `json:"success"`
	Message    string   `json:"message"`
	Data       any      `json:"data"`
	Errors     []string `json:"errors"`
}

func respond(c *gin.Context, status int, message string, data any) {
	c.JSON(status, Envelope{
		StatusCode: status,
		Success:    status < http.StatusBadRequest,
		Message:    message,
		Data:       data,
		Errors:     []string{},
	})
}

// statusFor maps an error kind to its HTTP status.
func statusFor(err error) int {
	switch {
	case errors.Is(err, common.ErrorValidation):
		return http.StatusBadRequest
	case errors.Is(err, common.ErrorConflict):
		return http.StatusConflict
	case errors.Is(err, common.ErrorNotFound):
		return http.StatusNotFound
	case errors.Is(err, common.ErrorUnauthorized):
		return http.StatusUnauthorized
	case errors.Is(err, common.ErrorForbidden):
		return http.StatusForbidden
	default:
		return http.StatusInternalServerError
	}
}

// respondError writes err as an envelope. Only the user-facing message of a
// *common.Error is exposed; anything else becomes a generic 500.
func respondError(c *gin.Context, err error) {
	status := statusFor(err)
	message := "internal server error"
	details := []string{}

	if ce, ok := common.AsError(err); ok {
		message = ce.Message
		if len(ce.Details) > 0 {
			details = ce.Details
		}
	} else if status != http.StatusInternalServerError {
		message = http.StatusText(status)
	}

	if status >= http.StatusInternalServerError {
		loggerFrom(c).Error(c.Request.Context(), "request failed", "path", c.FullPath(), "request_id", RequestIDFromContext(c), "error", err)
	}

	c.AbortWithStatusJSON(status, Envelope{
		StatusCode: status,
		Success:    false,
		Message:    message,
		Data:       nil,
		Errors:     details,
	})
}
