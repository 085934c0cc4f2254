// Package errors provides the structured error type used for classifying
// build failures in the CLI and logs.
package errors

import "fmt"

// Category classifies where in the pipeline an error originated.
type Category string

const (
	CategoryConfig    Category = "config"
	CategoryContent   Category = "content"
	CategoryRender    Category = "render"
	CategoryLayout    Category = "layout"
	CategoryPermalink Category = "permalink"
	CategoryEmit      Category = "emit"
	CategoryHistory   Category = "history"
	CategoryInternal  Category = "internal"
)

// Severity indicates how an error affects the build.
type Severity string

const (
	SeverityFatal   Severity = "fatal"   // halts the whole build
	SeverityError   Severity = "error"   // excludes a document, build continues
	SeverityWarning Severity = "warning" // reported, no exclusion
)

// QuillError is a structured error carrying category, severity and optional
// context fields for diagnostics.
type QuillError struct {
	Category Category       `json:"category"`
	Severity Severity       `json:"severity"`
	Message  string         `json:"message"`
	Cause    error          `json:"cause,omitempty"`
	Context  map[string]any `json:"context,omitempty"`
}

func (e *QuillError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s (%s): %s: %v", e.Category, e.Severity, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s (%s): %s", e.Category, e.Severity, e.Message)
}

func (e *QuillError) Unwrap() error { return e.Cause }

// WithContext attaches a context field and returns the error for chaining.
func (e *QuillError) WithContext(key string, value any) *QuillError {
	if e.Context == nil {
		e.Context = map[string]any{}
	}
	e.Context[key] = value
	return e
}

// New creates a QuillError.
func New(category Category, severity Severity, message string) *QuillError {
	return &QuillError{Category: category, Severity: severity, Message: message}
}

// Wrap creates a QuillError wrapping a cause.
func Wrap(err error, category Category, severity Severity, message string) *QuillError {
	return &QuillError{Category: category, Severity: severity, Message: message, Cause: err}
}

// GetCategory extracts the category, defaulting to CategoryInternal for
// foreign errors.
func GetCategory(err error) Category {
	if qe, ok := err.(*QuillError); ok {
		return qe.Category
	}
	return CategoryInternal
}

// IsCategory reports whether err carries the given category.
func IsCategory(err error, category Category) bool {
	qe, ok := err.(*QuillError)
	return ok && qe.Category == category
}
