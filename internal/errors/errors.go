package errors

import (
	"errors"
	"fmt"
	"net/http"
	"sort"
	"strings"
)

var (
	// ErrAuthRequired is returned when an action needs an authenticated user.
	ErrAuthRequired = errors.New("authentication credentials were not provided")
	// ErrInvalidCredentials is returned when login credentials do not match.
	ErrInvalidCredentials = errors.New("unable to log in with provided credentials")
	// ErrNotFound is returned when an entity does not exist.
	ErrNotFound = errors.New("not found")
	// ErrRelationNotFound is returned when a toggle-remove targets an absent relation.
	ErrRelationNotFound = fmt.Errorf("relation %w", ErrNotFound)
	// ErrAlreadyExists is returned on duplicate relations or duplicate identities.
	ErrAlreadyExists = errors.New("already exists")
	// ErrSelfReference is returned when a user tries to follow themselves.
	ErrSelfReference = errors.New("self reference is not allowed")
	// ErrValidation is returned when input fails validation.
	ErrValidation = errors.New("validation failed")
	// ErrEmptyCart is returned when a shopping list is requested for an empty cart.
	ErrEmptyCart = errors.New("cart empty")
	// ErrPermission is returned when a non-author mutates a recipe.
	ErrPermission = errors.New("you do not have permission to perform this action")
	// ErrMethodNotAllowed is returned for operations the API refuses.
	ErrMethodNotAllowed = errors.New("method not allowed")
)

// DomainError attaches a human readable detail to one of the sentinels above.
type DomainError struct {
	kind   error
	Detail string
}

func (e *DomainError) Error() string {
	if e.Detail == "" {
		return e.kind.Error()
	}
	return e.Detail
}

func (e *DomainError) Unwrap() error {
	return e.kind
}

// New wraps kind with detail.
func New(kind error, detail string) error {
	return &DomainError{kind: kind, Detail: detail}
}

// NotFound builds a not-found error for entity, e.g. NotFound("recipe").
func NotFound(entity string) error {
	return New(ErrNotFound, entity+" not found")
}

// AlreadyExists builds an already-exists error with detail.
func AlreadyExists(detail string) error {
	return New(ErrAlreadyExists, detail)
}

// ValidationError is a field-scoped validation failure.
type ValidationError struct {
	Fields map[string][]string
}

// NewValidationError returns an empty ValidationError ready for Add.
func NewValidationError() *ValidationError {
	return &ValidationError{Fields: make(map[string][]string)}
}

// FieldError is shorthand for a ValidationError holding one message.
func FieldError(field, message string) error {
	v := NewValidationError()
	v.Add(field, message)
	return v
}

// Add records message against field.
func (e *ValidationError) Add(field, message string) {
	if e.Fields == nil {
		e.Fields = make(map[string][]string)
	}
	e.Fields[field] = append(e.Fields[field], message)
}

// Has reports whether field already has an error.
func (e *ValidationError) Has(field string) bool {
	return len(e.Fields[field]) > 0
}

// OrNil returns nil when no field errors were recorded.
func (e *ValidationError) OrNil() error {
	if e == nil || len(e.Fields) == 0 {
		return nil
	}
	return e
}

func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+": "+strings.Join(e.Fields[k], "; "))
	}
	return "validation failed: " + strings.Join(parts, ", ")
}

func (e *ValidationError) Unwrap() error {
	return ErrValidation
}

// ErrorResponse represents a standardized error response.
type ErrorResponse struct {
	Detail string `json:"detail"`
	Code   string `json:"code"`
}

// HTTPError represents an HTTP error with status code.
type HTTPError struct {
	StatusCode int
	Message    string
	Code       string
	Fields     map[string][]string
}

func (e *HTTPError) Error() string {
	return e.Message
}

// NewHTTPError creates a new HTTP error.
func NewHTTPError(statusCode int, message, code string) *HTTPError {
	return &HTTPError{
		StatusCode: statusCode,
		Message:    message,
		Code:       code,
	}
}

// ToErrorResponse converts an HTTPError to ErrorResponse.
func (e *HTTPError) ToErrorResponse() ErrorResponse {
	return ErrorResponse{
		Detail: e.Message,
		Code:   e.Code,
	}
}

// Body is the JSON payload for the error. Field errors are keyed by field name.
func (e *HTTPError) Body() interface{} {
	if len(e.Fields) == 0 {
		return e.ToErrorResponse()
	}
	body := make(map[string]interface{}, len(e.Fields)+1)
	for field, msgs := range e.Fields {
		body[field] = msgs
	}
	body["code"] = e.Code
	return body
}

// MapErrorToHTTP maps domain errors to HTTP errors.
func MapErrorToHTTP(err error) *HTTPError {
	var verr *ValidationError
	if errors.As(err, &verr) {
		httpErr := NewHTTPError(http.StatusBadRequest, verr.Error(), "VALIDATION_ERROR")
		httpErr.Fields = verr.Fields
		return httpErr
	}

	switch {
	case errors.Is(err, ErrAuthRequired):
		return NewHTTPError(http.StatusUnauthorized, err.Error(), "AUTH_REQUIRED")
	case errors.Is(err, ErrInvalidCredentials):
		return NewHTTPError(http.StatusBadRequest, err.Error(), "INVALID_CREDENTIALS")
	case errors.Is(err, ErrRelationNotFound):
		return NewHTTPError(http.StatusBadRequest, err.Error(), "RELATION_NOT_FOUND")
	case errors.Is(err, ErrNotFound):
		return NewHTTPError(http.StatusNotFound, err.Error(), "NOT_FOUND")
	case errors.Is(err, ErrAlreadyExists):
		return NewHTTPError(http.StatusBadRequest, err.Error(), "ALREADY_EXISTS")
	case errors.Is(err, ErrSelfReference):
		return NewHTTPError(http.StatusBadRequest, err.Error(), "SELF_REFERENCE")
	case errors.Is(err, ErrEmptyCart):
		return NewHTTPError(http.StatusBadRequest, ErrEmptyCart.Error(), "EMPTY_CART")
	case errors.Is(err, ErrValidation):
		return NewHTTPError(http.StatusBadRequest, err.Error(), "VALIDATION_ERROR")
	case errors.Is(err, ErrPermission):
		return NewHTTPError(http.StatusForbidden, err.Error(), "PERMISSION_DENIED")
	case errors.Is(err, ErrMethodNotAllowed):
		return NewHTTPError(http.StatusMethodNotAllowed, err.Error(), "METHOD_NOT_ALLOWED")
	default:
		return NewHTTPError(http.StatusInternalServerError, "internal server error", "INTERNAL_ERROR")
	}
}
