package kalshi

import (
	"errors"
	"fmt"
)

// ErrRateLimited marks failures caused by exhausting the venue's rate budget
// even after backoff. Callers treat it as transient.
var ErrRateLimited = errors.New("kalshi: rate limited")

// APIError is a structured 4xx rejection from the venue: bad order, closed
// market, insufficient balance, and so on.
type APIError struct {
	Status  int
	Code    string
	Message string
}

func (e *APIError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("kalshi: %d %s: %s", e.Status, e.Code, e.Message)
	}
	return fmt.Sprintf("kalshi: %d: %s", e.Status, e.Message)
}

// Rejection marks the error as a venue-side refusal for ports.IsRejection.
// Every APIError is one: the client only builds them from 4xx responses.
func (e *APIError) Rejection() bool { return true }
