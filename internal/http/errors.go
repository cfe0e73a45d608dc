package http

import (
	"errors"
	"net/http"

	"fintrack/internal/calc"
	"fintrack/internal/core"
	applog "fintrack/internal/log"
	"fintrack/internal/services"
)

// Domain errors that describe bad input rather than a server fault.
var unprocessable = []error{
	calc.ErrInvalidExpression,
	calc.ErrDivisionByZero,
	calc.ErrUnknownKey,
	core.ErrInsufficientIncome,
	core.ErrInvalidAmount,
	core.ErrInvalidKind,
	core.ErrInvalidAccount,
	core.ErrInvalidDirection,
	core.ErrInvalidPeriod,
	core.ErrInvalidMonth,
	core.ErrInvalidDay,
	core.ErrInvalidDate,
	core.ErrEmptyCategory,
	core.ErrUnknownCategory,
	core.ErrEmptyCounterparty,
}

// statusFor maps an error to its HTTP status and the log error type.
func statusFor(err error) (int, string) {
	var verr *services.ValidationError
	switch {
	case errors.Is(err, errMalformedBody), errors.Is(err, errBadParam):
		return http.StatusBadRequest, applog.ErrorTypeValidation
	case errors.Is(err, core.ErrNotFound):
		return http.StatusNotFound, applog.ErrorTypeNotFound
	case errors.Is(err, core.ErrBudgetExists):
		return http.StatusConflict, applog.ErrorTypeConflict
	case errors.As(err, &verr):
		return http.StatusUnprocessableEntity, applog.ErrorTypeValidation
	}
	for _, target := range unprocessable {
		if errors.Is(err, target) {
			return http.StatusUnprocessableEntity, applog.ErrorTypeValidation
		}
	}
	return http.StatusInternalServerError, applog.ErrorTypeInternal
}

// writeError answers with the mapped status. Server faults are logged with
// the operation and hidden from the client.
func (s *Server) writeError(w http.ResponseWriter, r *http.Request, operation string, err error) {
	status, errType := statusFor(err)
	if status == http.StatusInternalServerError {
		s.logs.LogError(r.Context(), "Request failed", err, operation,
			applog.NewFields().WithErrorType(errType).WithHTTPRequest(r.Method, r.URL.Path, r.URL.RawQuery, r.UserAgent()))
		InternalServerError("internal error").Write(w)
		return
	}
	applog.FromContext(r.Context()).DebugContext(r.Context(), "Request rejected",
		applog.FieldOperation, operation,
		applog.FieldErrorType, errType,
		applog.FieldError, err.Error())
	ErrorResponse(status, err.Error()).Write(w)
}
