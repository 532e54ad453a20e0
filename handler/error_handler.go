package handler

import (
	"errors"
	"net/http"

	"saveai-api/common"
	"saveai-api/service"
)

func ErrorHandlingMiddleware(next func(http.ResponseWriter, *http.Request) *common.AppError) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := next(w, r); err != nil {
			err.Send(w)
		}
	}
}

// badRequestErrors are service errors whose message is safe to return as a 400.
var badRequestErrors = []error{
	service.ErrInvalidAmount,
	service.ErrInvalidCurrency,
	service.ErrInvalidType,
	service.ErrInvalidStatus,
	service.ErrInvalidRange,
	service.ErrInvalidHash,
	service.ErrInvalidYear,
	service.ErrInvalidTimeframe,
}

// serviceError maps a service error to its HTTP response. Unknown errors
// become a 500 carrying fallback as the message.
func serviceError(err error, fallback string) *common.AppError {
	var validationErr *service.ValidationError
	if errors.As(err, &validationErr) {
		return common.NewAppError(http.StatusForbidden, "Security validation failed", err).
			WithDetails(map[string]any{"failed_checks": validationErr.Validation.FailedChecks()})
	}

	for _, target := range badRequestErrors {
		if errors.Is(err, target) {
			return common.NewAppError(http.StatusBadRequest, target.Error(), err)
		}
	}

	switch {
	case errors.Is(err, service.ErrTransactionNotFound):
		return common.NewAppError(http.StatusNotFound, service.ErrTransactionNotFound.Error(), err)
	case errors.Is(err, service.ErrPermissionDenied):
		return common.NewAppError(http.StatusForbidden, service.ErrPermissionDenied.Error(), err)
	case errors.Is(err, service.ErrInvalidTransition):
		return common.NewAppError(http.StatusConflict, err.Error(), err)
	case errors.Is(err, service.ErrAttestationFailed):
		return common.NewAppError(http.StatusBadGateway, service.ErrAttestationFailed.Error(), err)
	default:
		return common.NewAppError(http.StatusInternalServerError, fallback, err)
	}
}
