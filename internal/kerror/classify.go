package kerror

import (
	"context"
	"strings"
)

// classifierRule maps message keywords to a category. Rules are checked
// in order; the first hit wins.
type classifierRule struct {
	keywords    []string
	category    Category
	severity    Severity
	code        string
	recoverable bool
	userMessage string
}

var classifierRules = []classifierRule{
	{
		keywords:    []string{"rate limit", "too many requests", "429"},
		category:    CategoryNetwork,
		severity:    SeverityMedium,
		code:        CodeNetworkRateLimit,
		recoverable: true,
		userMessage: "The service is rate limiting requests. It will be retried after a delay.",
	},
	{
		keywords:    []string{"timeout", "timed out", "deadline exceeded"},
		category:    CategoryNetwork,
		severity:    SeverityMedium,
		code:        CodeNetworkTimeout,
		recoverable: true,
		userMessage: "The operation timed out. It will be retried.",
	},
	{
		keywords:    []string{"network", "connection", "econnrefused", "dns", "unreachable"},
		category:    CategoryNetwork,
		severity:    SeverityMedium,
		code:        CodeNetworkError,
		recoverable: true,
		userMessage: "A network problem interrupted the operation. It will be retried.",
	},
	{
		keywords:    []string{"unauthorized", "forbidden", "permission denied", "invalid api key", "401", "403", "authentication"},
		category:    CategoryAuth,
		severity:    SeverityHigh,
		code:        CodeAuthFailed,
		recoverable: false,
		userMessage: "Authentication failed. Check your credentials.",
	},
	{
		keywords:    []string{"no such file", "not found", "enoent", "file", "path", "directory"},
		category:    CategoryFile,
		severity:    SeverityMedium,
		code:        CodeFileNotFound,
		recoverable: false,
		userMessage: "A required file could not be found.",
	},
	{
		keywords:    []string{"validation", "schema", "invalid", "malformed", "unexpected type"},
		category:    CategoryValidation,
		severity:    SeverityLow,
		code:        CodeValidationFailed,
		recoverable: true,
		userMessage: "The request was invalid.",
	},
	{
		keywords:    []string{"provider", "model", "anthropic", "openai", "vendor", "completion"},
		category:    CategoryProvider,
		severity:    SeverityHigh,
		code:        CodeProviderError,
		recoverable: true,
		userMessage: "The AI provider returned an error. It will be retried.",
	},
	{
		keywords:    []string{"session", "expired"},
		category:    CategorySession,
		severity:    SeverityMedium,
		code:        CodeSessionExpired,
		recoverable: true,
		userMessage: "The session is no longer valid.",
	},
	{
		keywords:    []string{"tool", "execution"},
		category:    CategoryTool,
		severity:    SeverityMedium,
		code:        CodeToolFailed,
		recoverable: true,
		userMessage: "A tool failed while executing. It will be retried.",
	},
}

// Classify maps an arbitrary error into the taxonomy using keyword
// matching over its message. Already-classified errors pass through with
// context attached when missing. The default category is system.
func Classify(err error, ctx Context) *KuuzukiError {
	if err == nil {
		return nil
	}

	if ke, ok := err.(*KuuzukiError); ok {
		if ke.Context.SessionID == "" && ctx.SessionID != "" {
			ke.Context.SessionID = ctx.SessionID
		}
		if ke.Context.RequestID == "" && ctx.RequestID != "" {
			ke.Context.RequestID = ctx.RequestID
		}
		return ke
	}

	msg := strings.ToLower(err.Error())

	// Context cancellation is a timeout shape, not a system fault.
	if err == context.DeadlineExceeded {
		msg = "deadline exceeded"
	}

	for _, rule := range classifierRules {
		for _, kw := range rule.keywords {
			if strings.Contains(msg, kw) {
				ke := New(rule.category, rule.severity, rule.code, err.Error(), rule.userMessage, rule.recoverable)
				ke.cause = err
				return ke.WithContext(ctx)
			}
		}
	}

	ke := NewSystemError(err.Error())
	ke.cause = err
	return ke.WithContext(ctx)
}
