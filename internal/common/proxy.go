package common

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/rs/zerolog/log"
)

const (
	OK                    int = 200
	NO_CONTENT            int = 204
	PARTIAL_CONTENT       int = 206
	BAD_REQUEST           int = 400
	UNAUTHORIZED          int = 401
	FORBIDDEN             int = 403
	DATA_NOT_FOUND        int = 404
	RATE_LIMIT_EXCEEDED   int = 429
	INTERNAL_SERVER_ERROR int = 500
	BAD_GATEWAY           int = 502
	SERVICE_UNAVAILABLE   int = 503
	GATEWAY_TIMEOUT       int = 504
)

var messages = map[int]string{
	OK:                    "OK",
	NO_CONTENT:            "No content",
	PARTIAL_CONTENT:       "Partial content",
	BAD_REQUEST:           "Bad request",
	UNAUTHORIZED:          "Unauthorized",
	FORBIDDEN:             "Forbidden",
	DATA_NOT_FOUND:        "Data not found",
	RATE_LIMIT_EXCEEDED:   "Rate limit exceeded",
	INTERNAL_SERVER_ERROR: "Internal server error",
	BAD_GATEWAY:           "Bad gateway",
	SERVICE_UNAVAILABLE:   "Service unavailable",
	GATEWAY_TIMEOUT:       "Gateway timeout",
}

// Largest response body the proxy is willing to read
const maxBodySize = 16 << 20

// StatusMessage returns a short description for the status code
func StatusMessage(code int) string {
	if message, ok := messages[code]; ok {
		return message
	}
	if text := http.StatusText(code); text != "" {
		return text
	}
	return fmt.Sprintf("Status %d", code)
}

type Proxy struct {
	header      map[string]string
	client      *http.Client
	rateLimiter *RateLimiter
}

func NewProxy(header map[string]string, timeout time.Duration, restrictions []Restriction) *Proxy {
	return &Proxy{header, &http.Client{Timeout: timeout}, NewRateLimiter(restrictions)}
}

// Perform a GET request to the provided url.
// The request waits for the rate limiter before going out.
// Transport failures come back as *NetworkError, any status
// outside of 2xx as *APIError
func (proxy *Proxy) Request(ctx context.Context, url string) ([]byte, error) {

	// ask for permission to execute the request
	// and wait if necessary
	if err := proxy.rateLimiter.Wait(ctx); err != nil {
		return nil, &NetworkError{URL: url, Err: err}
	}

	// Create the request and add the header
	request, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, errors.Wrapf(err, "could not create request for url %s", url)
	}
	request.Header.Set("Accept", "application/json")
	for key, value := range proxy.header {
		request.Header.Set(key, value)
	}

	// Perform the request
	res, err := proxy.client.Do(request)
	if err != nil {
		return nil, &NetworkError{URL: url, Err: err}
	}
	defer res.Body.Close()

	stream, err := io.ReadAll(io.LimitReader(res.Body, maxBodySize))
	if err != nil {
		return nil, &NetworkError{URL: url, Err: errors.Wrap(err, "read response body")}
	}
	log.Debug().Msg(fmt.Sprintf("%d %s", res.StatusCode, StatusMessage(res.StatusCode)))

	switch {
	case res.StatusCode == RATE_LIMIT_EXCEEDED:
		proxy.rateLimiter.ReceivedRateLimit()
		return nil, &APIError{URL: url, StatusCode: res.StatusCode, Message: StatusMessage(res.StatusCode), Body: abbreviate(stream)}
	case res.StatusCode < 200 || res.StatusCode > 299:
		return nil, &APIError{URL: url, StatusCode: res.StatusCode, Message: StatusMessage(res.StatusCode), Body: abbreviate(stream)}
	}
	return stream, nil
}

func abbreviate(body []byte) string {
	const limit = 512
	if len(body) > limit {
		return string(body[:limit]) + "..."
	}
	return string(body)
}
