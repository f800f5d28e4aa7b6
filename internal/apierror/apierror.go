// Package apierror provides standardized error response structures for the API.
// All errors returned to clients go through this package so that driver
// messages and stack traces never reach the wire.
package apierror

// CodeConflict is the machine-readable code attached to uniqueness conflicts.
const CodeConflict = "usr409"

// APIError is the canonical error envelope for all 4xx/5xx HTTP responses.
type APIError struct {
	Detail string `json:"detail"`
	Code   string `json:"code,omitempty"`
}

func New(msg string) *APIError {
	return &APIError{Detail: msg}
}

// Conflict builds the envelope used when the caller must retry with different values.
func Conflict(msg string) *APIError {
	return &APIError{Detail: msg, Code: CodeConflict}
}

// ValidationError wraps multiple field errors.
type ValidationError struct {
	Detail string            `json:"detail"`
	Fields map[string]string `json:"fields"`
}

func NewValidation(fields map[string]string) *ValidationError {
	return &ValidationError{Detail: "validation failed", Fields: fields}
}
