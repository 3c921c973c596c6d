// Package kerror defines the error taxonomy for the governance core: one
// concrete error struct carrying a category discriminant decided at
// construction, named constructors instead of subclasses, and
// keyword-based classification of foreign errors.
package kerror

import (
	"fmt"
	"time"
)

// Category is the closed set of error categories.
type Category string

const (
	CategoryNetwork    Category = "network"
	CategoryAuth       Category = "auth"
	CategoryFile       Category = "file"
	CategorySystem     Category = "system"
	CategoryValidation Category = "validation"
	CategoryProvider   Category = "provider"
	CategorySession    Category = "session"
	CategoryTool       Category = "tool"
)

// Severity grades an error's impact.
type Severity string

const (
	SeverityLow      Severity = "low"
	SeverityMedium   Severity = "medium"
	SeverityHigh     Severity = "high"
	SeverityCritical Severity = "critical"
)

// Stable error codes.
const (
	CodeNetworkError     = "NETWORK_ERROR"
	CodeNetworkTimeout   = "NETWORK_TIMEOUT"
	CodeNetworkRateLimit = "NETWORK_RATE_LIMITED"
	CodeAuthFailed       = "AUTH_FAILED"
	CodeFileNotFound     = "FILE_NOT_FOUND"
	CodeFilePermission   = "FILE_PERMISSION_DENIED"
	CodeFileError        = "FILE_ERROR"
	CodeValidationFailed = "VALIDATION_FAILED"
	CodeProviderError    = "PROVIDER_ERROR"
	CodeSessionExpired   = "SESSION_EXPIRED"
	CodeToolFailed       = "TOOL_EXECUTION_FAILED"
	CodeSystemError      = "SYSTEM_ERROR"
	CodeCircuitOpen      = "CIRCUIT_OPEN"
)

// Context carries where and when the error happened.
type Context struct {
	SessionID string         `json:"sessionID,omitempty"`
	RequestID string         `json:"requestId,omitempty"`
	Timestamp time.Time      `json:"timestamp"`
	Metadata  map[string]any `json:"metadata,omitempty"`
}

// Breadcrumb records one recovery attempt attached to an error.
type Breadcrumb struct {
	Attempt    int       `json:"attempt"`
	Probe      string    `json:"probe,omitempty"`
	Diagnostic string    `json:"diagnostic,omitempty"`
	Timestamp  time.Time `json:"timestamp"`
}

// KuuzukiError is the single concrete error type of the core. The
// category discriminant is decided at construction; there is no error
// class hierarchy. Once created it is mutated only by attaching recovery
// breadcrumbs.
type KuuzukiError struct {
	Category    Category     `json:"category"`
	Severity    Severity     `json:"severity"`
	Code        string       `json:"code"`
	Message     string       `json:"message"`
	UserMessage string       `json:"userMessage"`
	Recoverable bool         `json:"recoverable"`
	Context     Context      `json:"context"`
	Breadcrumbs []Breadcrumb `json:"breadcrumbs,omitempty"`

	cause error
}

func (e *KuuzukiError) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s [%s]: %s: %v", e.Category, e.Code, e.Message, e.cause)
	}
	return fmt.Sprintf("%s [%s]: %s", e.Category, e.Code, e.Message)
}

// Unwrap exposes the wrapped cause for errors.Is/As.
func (e *KuuzukiError) Unwrap() error {
	return e.cause
}

// WithCause attaches the underlying error.
func (e *KuuzukiError) WithCause(err error) *KuuzukiError {
	e.cause = err
	return e
}

// WithContext attaches session/request context.
func (e *KuuzukiError) WithContext(ctx Context) *KuuzukiError {
	if ctx.Timestamp.IsZero() {
		ctx.Timestamp = time.Now()
	}
	e.Context = ctx
	return e
}

// AddBreadcrumb appends a recovery breadcrumb.
func (e *KuuzukiError) AddBreadcrumb(b Breadcrumb) {
	if b.Timestamp.IsZero() {
		b.Timestamp = time.Now()
	}
	e.Breadcrumbs = append(e.Breadcrumbs, b)
}

// New creates an error with everything explicit. Prefer the named
// constructors below.
func New(category Category, severity Severity, code, message, userMessage string, recoverable bool) *KuuzukiError {
	return &KuuzukiError{
		Category:    category,
		Severity:    severity,
		Code:        code,
		Message:     message,
		UserMessage: userMessage,
		Recoverable: recoverable,
		Context:     Context{Timestamp: time.Now()},
	}
}

// NewNetworkError reports a connectivity failure. Recoverable.
func NewNetworkError(code, message string) *KuuzukiError {
	if code == "" {
		code = CodeNetworkError
	}
	return New(CategoryNetwork, SeverityMedium, code, message,
		"A network problem interrupted the operation. It will be retried.", true)
}

// NewAuthError reports an authentication/authorization failure. Never
// recoverable: retrying cannot mint credentials.
func NewAuthError(message string) *KuuzukiError {
	return New(CategoryAuth, SeverityHigh, CodeAuthFailed, message,
		"Authentication failed. Check your credentials.", false)
}

// NewFileNotFoundError reports a missing file.
func NewFileNotFoundError(path string) *KuuzukiError {
	e := New(CategoryFile, SeverityMedium, CodeFileNotFound,
		fmt.Sprintf("file not found: %s", path),
		"A required file could not be found.", false)
	e.Context.Metadata = map[string]any{"path": path}
	return e
}

// NewFilePermissionError reports a filesystem permission failure.
func NewFilePermissionError(path string) *KuuzukiError {
	e := New(CategoryFile, SeverityMedium, CodeFilePermission,
		fmt.Sprintf("permission denied: %s", path),
		"The file could not be accessed due to filesystem permissions.", false)
	e.Context.Metadata = map[string]any{"path": path}
	return e
}

// NewValidationError reports malformed input. Recoverable: the caller can
// correct the input and try again.
func NewValidationError(message string) *KuuzukiError {
	return New(CategoryValidation, SeverityLow, CodeValidationFailed, message,
		"The request was invalid: "+message, true)
}

// NewProviderError reports an AI provider failure.
func NewProviderError(message string) *KuuzukiError {
	return New(CategoryProvider, SeverityHigh, CodeProviderError, message,
		"The AI provider returned an error. It will be retried.", true)
}

// NewSessionError reports a session problem.
func NewSessionError(code, message string) *KuuzukiError {
	if code == "" {
		code = CodeSessionExpired
	}
	return New(CategorySession, SeverityMedium, code, message,
		"The session is no longer valid.", true)
}

// NewToolError reports a tool execution failure.
func NewToolError(toolName, message string) *KuuzukiError {
	e := New(CategoryTool, SeverityMedium, CodeToolFailed,
		fmt.Sprintf("tool %s: %s", toolName, message),
		"A tool failed while executing. It will be retried.", true)
	e.Context.Metadata = map[string]any{"tool": toolName}
	return e
}

// NewSystemError reports an unclassified internal failure.
func NewSystemError(message string) *KuuzukiError {
	return New(CategorySystem, SeverityHigh, CodeSystemError, message,
		"An internal error occurred.", true)
}

// NewCircuitOpenError is the synthetic, non-retryable error returned when
// a circuit breaker short-circuits an operation.
func NewCircuitOpenError(key string) *KuuzukiError {
	e := New(CategorySystem, SeverityHigh, CodeCircuitOpen,
		fmt.Sprintf("circuit open for %s", key),
		"This operation is temporarily disabled after repeated failures.", false)
	e.Context.Metadata = map[string]any{"circuitKey": key}
	return e
}

// IsCategory reports whether err is a KuuzukiError of the given category.
func IsCategory(err error, category Category) bool {
	ke, ok := err.(*KuuzukiError)
	return ok && ke.Category == category
}
