package services

import (
	"errors"
	"strings"

	"github.com/dmitrijs2005/accounts/internal/common"
)

func normalize(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// internalError passes *common.Error values through and hides anything else
// behind a generic internal error.
func internalError(err error) error {
	if _, ok := common.AsError(err); ok {
		return err
	}
	return common.NewError(common.ErrorInternal, "internal server error", err)
}

func lookupError(err error, notFoundMessage string) error {
	if errors.Is(err, common.ErrorNotFound) {
		if _, ok := common.AsError(err); ok {
			return err
		}
		return common.NewError(common.ErrorNotFound, notFoundMessage, err)
	}
	return internalError(err)
}

func tokenError(err error) error {
	return common.NewError(common.ErrorUnauthorized, "invalid or expired token", err)
}

func unauthenticated() error {
	return common.NewError(common.ErrorUnauthorized, "unauthorized request", common.ErrTokenMissing)
}

func stepOf(err error) string {
	var se *SagaError
	if errors.As(err, &se) {
		return se.Step
	}
	return ""
}
