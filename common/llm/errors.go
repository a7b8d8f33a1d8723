package llm

import "fmt"

// RateLimited is returned when the provider rejects a request for exceeding
// its rate limit. RetryAfterSeconds is nil when the provider did not supply
// a Retry-After hint.
type RateLimited struct {
	RetryAfterSeconds *int
}

func (e *RateLimited) Error() string {
	if e.RetryAfterSeconds != nil {
		return fmt.Sprintf("llm: rate limited, retry after %ds", *e.RetryAfterSeconds)
	}
	return "llm: rate limited"
}

// TransportTimeout is returned for connection failures and client-side
// timeouts, as distinct from a provider-reported error response.
type TransportTimeout struct {
	Err error
}

func (e *TransportTimeout) Error() string {
	return fmt.Sprintf("llm: transport timeout: %v", e.Err)
}

func (e *TransportTimeout) Unwrap() error {
	return e.Err
}

// APIError wraps any other provider error response.
type APIError struct {
	Status int
	Code   string
	Err    error
}

func (e *APIError) Error() string {
	return fmt.Sprintf("llm: api error (status=%d code=%q): %v", e.Status, e.Code, e.Err)
}

func (e *APIError) Unwrap() error {
	return e.Err
}
