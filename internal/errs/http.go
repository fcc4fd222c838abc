package errs

import "strings"

// FieldError represents a field-level validation error.
// Example:
//
//	{ "field": "postalcode", "error": "must not exceed 5 characters" }
type FieldError struct {
	Field string `json:"field"`
	Error string `json:"error"`
}

// ActionType is a string-based enum describing what the client should do.
type ActionType string

const (
	// ActionTypeRedirect tells the client it should redirect somewhere.
	// Value holds the URL or route.
	ActionTypeRedirect ActionType = "redirect"
)

// Action describes an optional "what the client should do next" instruction.
type Action struct {
	Type    ActionType `json:"type"`
	Message string     `json:"message"`
	Value   string     `json:"value"`
}

// HTTPError is the error type rendered to API clients.
//
// Fields:
//   - Success: always false, mirrors the success envelope.
//   - Message: human-friendly message, serialised as `data`.
//   - Code: machine-friendly error code (e.g. "HOSPITAL_NOT_FOUND").
//   - Status: HTTP status code.
//   - Override: the message is safe to show as-is in production.
//   - Errors: per-field validation errors.
//   - Action: optional client instruction.
type HTTPError struct {
	Success  bool   `json:"success"`
	Message  string `json:"data"`
	Code     string `json:"code"`
	Status   int    `json:"status"`
	Override bool   `json:"override"`

	Errors []FieldError `json:"errors,omitempty"`

	Action *Action `json:"action,omitempty"`
}

// Error makes *HTTPError satisfy the built-in error interface.
func (e *HTTPError) Error() string {
	return e.Message
}

// Is reports whether target is also an *HTTPError. Code and status are not
// compared, so errors.Is(err, &HTTPError{}) answers "is this an API error".
func (e *HTTPError) Is(target error) bool {
	_, ok := target.(*HTTPError)

	return ok
}

// WithMessage returns a copy of this HTTPError with Message replaced.
func (e *HTTPError) WithMessage(message string) *HTTPError {
	return &HTTPError{
		Code:     e.Code,
		Message:  message,
		Status:   e.Status,
		Override: e.Override,
		Errors:   e.Errors,
		Action:   e.Action,
	}
}

// MakeUpperCaseWithUnderscores converts "Bad Request" into "BAD_REQUEST".
func MakeUpperCaseWithUnderscores(str string) string {
	return strings.ToUpper(strings.ReplaceAll(str, " ", "_"))
}
