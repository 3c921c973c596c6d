package recovery

import (
	"time"

	"github.com/kuuzuki-ai/kuuzuki/internal/kerror"
)

// Strategy describes how a category of error is recovered. It is a pure
// function of the category.
type Strategy struct {
	CanRecover bool
	Retryable  bool
	RetryDelay time.Duration
	MaxRetries int

	// Fallback is an optional action hint surfaced with the terminal
	// error when retries are exhausted.
	Fallback string
}

// MaxAttempts is the total invocation budget: the first attempt plus
// retries.
func (s Strategy) MaxAttempts() int {
	if !s.CanRecover || !s.Retryable {
		return 1
	}
	return s.MaxRetries + 1
}

// StrategyFor returns the recovery strategy for an error category.
func StrategyFor(category kerror.Category) Strategy {
	switch category {
	case kerror.CategoryNetwork:
		return Strategy{
			CanRecover: true,
			Retryable:  true,
			RetryDelay: time.Second,
			MaxRetries: 3,
			Fallback:   "check network connectivity",
		}
	case kerror.CategoryProvider:
		return Strategy{
			CanRecover: true,
			Retryable:  true,
			RetryDelay: 2 * time.Second,
			MaxRetries: 3,
			Fallback:   "switch to a different provider or model",
		}
	case kerror.CategorySession:
		return Strategy{
			CanRecover: true,
			Retryable:  true,
			RetryDelay: time.Second,
			MaxRetries: 2,
			Fallback:   "start a new session",
		}
	case kerror.CategoryTool:
		return Strategy{
			CanRecover: true,
			Retryable:  true,
			RetryDelay: 500 * time.Millisecond,
			MaxRetries: 2,
		}
	case kerror.CategoryValidation:
		// The caller can correct the input, but re-running the same
		// input is pointless beyond one extra attempt.
		return Strategy{
			CanRecover: true,
			Retryable:  true,
			RetryDelay: 100 * time.Millisecond,
			MaxRetries: 1,
			Fallback:   "correct the request parameters",
		}
	case kerror.CategoryAuth:
		return Strategy{
			CanRecover: false,
			Fallback:   "re-authenticate",
		}
	case kerror.CategoryFile:
		return Strategy{
			CanRecover: false,
			Fallback:   "verify the file path and permissions",
		}
	default: // system and anything unknown
		return Strategy{
			CanRecover: true,
			Retryable:  true,
			RetryDelay: time.Second,
			MaxRetries: 2,
		}
	}
}
