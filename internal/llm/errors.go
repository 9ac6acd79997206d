package llm

import (
	"errors"
	"fmt"
)

var (
	// ErrDisabled is returned by the disabled client.
	ErrDisabled = errors.New("ai features are disabled")

	// ErrUnavailable indicates the model endpoint could not be reached.
	ErrUnavailable = errors.New("llm endpoint unavailable")

	// ErrTimeout indicates the request exceeded its task timeout.
	ErrTimeout = errors.New("llm request timed out")

	// ErrRateLimited maps HTTP 429.
	ErrRateLimited = errors.New("llm rate limit exceeded")

	// ErrCreditsExhausted maps HTTP 402.
	ErrCreditsExhausted = errors.New("llm credits exhausted")

	// ErrQuotaExceeded maps HTTP 403.
	ErrQuotaExceeded = errors.New("llm message quota exceeded")

	// ErrInvalidOutput indicates the response could not be parsed into the
	// expected structure.
	ErrInvalidOutput = errors.New("invalid llm output format")

	// ErrRetryExhausted indicates every attempt failed.
	ErrRetryExhausted = errors.New("llm retry attempts exhausted")
)

// StatusError is a non-2xx response from the endpoint. Message is the
// "error" field of a JSON body when present, else the raw body.
type StatusError struct {
	Code    int
	Message string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("llm endpoint returned status %d: %s", e.Code, e.Message)
}

// Unwrap maps billing and throttling statuses onto their sentinels.
func (e *StatusError) Unwrap() error {
	switch e.Code {
	case 429:
		return ErrRateLimited
	case 402:
		return ErrCreditsExhausted
	case 403:
		return ErrQuotaExceeded
	}
	return nil
}

// transient reports whether the status is worth retrying.
func (e *StatusError) transient() bool {
	return e.Code >= 500
}
