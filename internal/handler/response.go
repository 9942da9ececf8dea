package handler

import (
	"context"
	"errors"
	"net/http"

	"github.com/dafibh/domo/domo-client/internal/cache"
	"github.com/dafibh/domo/domo-client/internal/domain"
	"github.com/dafibh/domo/domo-client/internal/gateway"
	"github.com/dafibh/domo/domo-client/internal/mutation"
	"github.com/dafibh/domo/domo-client/internal/service"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog/log"
)

// ProblemDetails represents an RFC 7807 Problem Details response
type ProblemDetails struct {
	Type     string            `json:"type"`
	Title    string            `json:"title"`
	Status   int               `json:"status"`
	Detail   string            `json:"detail,omitempty"`
	Instance string            `json:"instance,omitempty"`
	Errors   []ValidationError `json:"errors,omitempty"`
}

// ValidationError represents a single validation error
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// Error types
const (
	ErrorTypeValidation  = "https://domo.app/errors/validation"
	ErrorTypeNotFound    = "https://domo.app/errors/not-found"
	ErrorTypeConflict    = "https://domo.app/errors/conflict"
	ErrorTypeUnavailable = "https://domo.app/errors/unavailable"
	ErrorTypeUpstream    = "https://domo.app/errors/upstream"
	ErrorTypeInternal    = "https://domo.app/errors/internal"
)

func problem(c echo.Context, status int, typ, title, detail string, fields []ValidationError) error {
	return c.JSON(status, ProblemDetails{
		Type:     typ,
		Title:    title,
		Status:   status,
		Detail:   detail,
		Instance: c.Request().URL.Path,
		Errors:   fields,
	})
}

// NewValidationError creates a validation error response
func NewValidationError(c echo.Context, detail string, errors []ValidationError) error {
	return problem(c, http.StatusBadRequest, ErrorTypeValidation, "Validation Error", detail, errors)
}

// NewNotFoundError creates a not found error response
func NewNotFoundError(c echo.Context, detail string) error {
	return problem(c, http.StatusNotFound, ErrorTypeNotFound, "Not Found", detail, nil)
}

// NewConflictError creates a conflict error response
func NewConflictError(c echo.Context, detail string) error {
	return problem(c, http.StatusConflict, ErrorTypeConflict, "Conflict", detail, nil)
}

// NewServiceUnavailableError creates a service unavailable error response
func NewServiceUnavailableError(c echo.Context, detail string) error {
	return problem(c, http.StatusServiceUnavailable, ErrorTypeUnavailable, "Service Unavailable", detail, nil)
}

// NewBadGatewayError reports a rejection by the remote API
func NewBadGatewayError(c echo.Context, detail string) error {
	return problem(c, http.StatusBadGateway, ErrorTypeUpstream, "Bad Gateway", detail, nil)
}

// NewInternalError creates an internal error response
func NewInternalError(c echo.Context, detail string) error {
	return problem(c, http.StatusInternalServerError, ErrorTypeInternal, "Internal Server Error", detail, nil)
}

var notFoundErrors = []error{
	domain.ErrNotFound,
	domain.ErrAccountNotFound,
	domain.ErrCardNotFound,
	domain.ErrBillNotFound,
	domain.ErrProductNotFound,
	domain.ErrItemNotFound,
	domain.ErrCategoryNotFound,
	domain.ErrMemberNotFound,
	cache.ErrNoFetcher,
}

var conflictErrors = []error{
	domain.ErrBillAlreadyPaid,
	domain.ErrNoOpenInvoice,
	domain.ErrInvoiceNotClosed,
	domain.ErrNothingPurchased,
	domain.ErrCannotRemoveOwner,
}

var imageErrors = []error{
	service.ErrImageTooLarge,
	service.ErrInvalidFormat,
	service.ErrImageTooSmall,
	service.ErrInvalidImageData,
}

func isAny(err error, targets []error) bool {
	for _, t := range targets {
		if errors.Is(err, t) {
			return true
		}
	}
	return false
}

// respondError maps a service error to a problem response. Failures it
// cannot classify are logged and reported as internal errors carrying msg.
func respondError(c echo.Context, err error, msg string) error {
	var verr *domain.ValidationError
	switch {
	case errors.As(err, &verr):
		fields := make([]ValidationError, len(verr.Fields))
		for i, f := range verr.Fields {
			fields[i] = ValidationError{Field: f.Field, Message: f.Message}
		}
		return NewValidationError(c, "Validation failed", fields)
	case isAny(err, imageErrors):
		return NewValidationError(c, "Validation failed", []ValidationError{
			{Field: "file", Message: err.Error()},
		})
	case isAny(err, notFoundErrors):
		return NewNotFoundError(c, err.Error())
	case isAny(err, conflictErrors):
		return NewConflictError(c, err.Error())
	case errors.Is(err, domain.ErrSplitNotCovered), errors.Is(err, domain.ErrSplitOverpaid):
		return NewValidationError(c, "Validation failed", []ValidationError{
			{Field: "splits", Message: err.Error()},
		})
	case errors.Is(err, service.ErrImageStorageNotConfigured):
		return NewServiceUnavailableError(c, "Image storage is not configured")
	case gateway.IsOffline(err), errors.Is(err, context.DeadlineExceeded):
		return NewServiceUnavailableError(c, "The remote API is unreachable")
	}

	var httpErr *gateway.HTTPError
	if errors.As(err, &httpErr) {
		detail := httpErr.Reason()
		if detail == "" {
			detail = http.StatusText(httpErr.Status)
		}
		return NewBadGatewayError(c, detail)
	}

	log.Error().Err(err).Str("path", c.Request().URL.Path).Msg(msg)
	return NewInternalError(c, msg)
}

// accepted answers a dispatched mutation with its handle. The optimistic
// value is already in the cache; the outcome arrives over /ws or /mutations/:id.
func accepted(c echo.Context, h *mutation.Handle) error {
	return c.JSON(http.StatusAccepted, h.Status())
}
