package kerror

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/kuuzuki-ai/kuuzuki/internal/security"
)

// HTTPStatus maps an error to the status code an external web layer
// should return.
func HTTPStatus(e *KuuzukiError) int {
	if e == nil {
		return http.StatusOK
	}

	switch e.Category {
	case CategoryAuth:
		return http.StatusUnauthorized
	case CategoryValidation:
		return http.StatusBadRequest
	case CategoryFile:
		switch e.Code {
		case CodeFileNotFound:
			return http.StatusNotFound
		case CodeFilePermission:
			return http.StatusForbidden
		}
		return http.StatusInternalServerError
	case CategoryNetwork:
		if e.Code == CodeNetworkRateLimit {
			return http.StatusTooManyRequests
		}
		return http.StatusServiceUnavailable
	case CategoryProvider:
		return http.StatusServiceUnavailable
	case CategorySystem:
		return http.StatusInternalServerError
	}
	return http.StatusInternalServerError
}

// httpBody is the JSON error body contract with the external web layer.
type httpBody struct {
	Error httpBodyError `json:"error"`
}

type httpBodyError struct {
	Code        string          `json:"code"`
	Message     string          `json:"message"`
	Category    Category        `json:"category"`
	Severity    Severity        `json:"severity"`
	Recoverable bool            `json:"recoverable"`
	Context     httpBodyContext `json:"context"`
}

type httpBodyContext struct {
	RequestID string `json:"requestId,omitempty"`
	Timestamp string `json:"timestamp"`
}

// WriteHTTP renders the error as the agreed JSON body. The message is the
// render-safe user message, redacted before inclusion.
func WriteHTTP(w http.ResponseWriter, e *KuuzukiError) {
	message := e.UserMessage
	if message == "" {
		message = e.Message
	}
	message, _ = security.SanitizeOutput(message)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(HTTPStatus(e))
	_ = json.NewEncoder(w).Encode(httpBody{
		Error: httpBodyError{
			Code:        e.Code,
			Message:     message,
			Category:    e.Category,
			Severity:    e.Severity,
			Recoverable: e.Recoverable,
			Context: httpBodyContext{
				RequestID: e.Context.RequestID,
				Timestamp: e.Context.Timestamp.Format(time.RFC3339),
			},
		},
	})
}
