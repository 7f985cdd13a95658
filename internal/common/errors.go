package common

import (
	"fmt"
)

// NetworkError means the request never produced a response:
// connection refused, DNS failure, timeout or cancellation
type NetworkError struct {
	URL string
	Err error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("network error requesting %s: %v", e.URL, e.Err)
}

func (e *NetworkError) Unwrap() error {
	return e.Err
}

// APIError means the remote answered, but not with something usable:
// a status outside of 2xx or a body that could not be decoded
type APIError struct {
	URL        string
	StatusCode int
	Message    string
	Body       string
}

func (e *APIError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("api error %d requesting %s: %s", e.StatusCode, e.URL, e.Message)
	}
	return fmt.Sprintf("api error %d requesting %s: %s (%s)", e.StatusCode, e.URL, e.Message, e.Body)
}

// MalformedResponse builds the error returned when a 2xx body cannot be decoded
func MalformedResponse(url string, err error) *APIError {
	return &APIError{URL: url, StatusCode: OK, Message: fmt.Sprintf("malformed response: %v", err)}
}
