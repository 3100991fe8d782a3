package completion

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
)

// transientPrefix marks retryable errors in their message. langchaingo may
// flatten the error chain, so the marker survives where errors.As cannot.
const transientPrefix = "transient: "

// retryableError wraps an error to indicate it can be retried.
type retryableError struct {
	err error
}

func (e *retryableError) Error() string {
	return transientPrefix + e.err.Error()
}

func (e *retryableError) Unwrap() error {
	return e.err
}

// isRetryableError checks if an error should be retried.
func isRetryableError(err error) bool {
	if err == nil {
		return false
	}
	var re *retryableError
	if errors.As(err, &re) {
		return true
	}
	return strings.Contains(err.Error(), transientPrefix)
}

// maxErrorBody bounds how much of an error response is kept.
const maxErrorBody = 4096

// statusDoer is the HTTP client handed to langchaingo. It turns transport
// failures, 429 and 5xx responses into retryable errors before the OpenAI
// client parses them.
type statusDoer struct {
	client *http.Client
}

func (d *statusDoer) Do(req *http.Request) (*http.Response, error) {
	resp, err := d.client.Do(req)
	if err != nil {
		if req.Context().Err() != nil {
			return nil, err
		}
		return nil, &retryableError{err: fmt.Errorf("API request failed: %w", err)}
	}

	if resp.StatusCode == http.StatusTooManyRequests {
		resp.Body.Close()
		return nil, &retryableError{err: fmt.Errorf("rate limited (429)")}
	}
	if resp.StatusCode >= 500 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		resp.Body.Close()
		return nil, &retryableError{err: fmt.Errorf("server error (%d): %s", resp.StatusCode, string(body))}
	}

	return resp, nil
}
