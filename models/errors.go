package models

import "fmt"

// Error codes used in API responses and internal error handling.
const (
	ErrCodeConnection  = "CONNECTION_FAILED"
	ErrCodeTimeout     = "TARGET_TIMEOUT"
	ErrCodeRateLimited = "RATE_LIMITED"
	ErrCodeUnavailable = "TARGET_UNAVAILABLE"
	ErrCodeBlocked     = "ACCESS_BLOCKED"
	ErrCodeInternal    = "INTERNAL_ERROR"
)

// userMessages maps error codes to the user-facing message surfaced by the API.
var userMessages = map[string]string{
	ErrCodeConnection:  "cannot reach target host",
	ErrCodeTimeout:     "target host did not respond in time",
	ErrCodeRateLimited: "rate limit reached",
	ErrCodeUnavailable: "target temporarily unavailable",
	ErrCodeBlocked:     "access blocked, possible bot detection",
	ErrCodeInternal:    "scraping failed",
}

// ScrapeError is the internal error type carrying an error code.
// It implements the error interface and supports error wrapping via Unwrap.
type ScrapeError struct {
	Code    string
	Message string
	Err     error // wrapped original error
}

func (e *ScrapeError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *ScrapeError) Unwrap() error {
	return e.Err
}

// NewScrapeError creates a ScrapeError with the canonical user-facing
// message for code. An unknown code falls back to the internal message.
func NewScrapeError(code string, err error) *ScrapeError {
	msg, ok := userMessages[code]
	if !ok {
		code = ErrCodeInternal
		msg = userMessages[ErrCodeInternal]
	}
	return &ScrapeError{Code: code, Message: msg, Err: err}
}
