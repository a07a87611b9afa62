package request

import (
	"fmt"
	"net/http"
	"time"
)

// FetchError is returned when the server answers with a non-2xx status.
type FetchError struct {
	Status int
	URL    string
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("http status code %d from '%s'", e.Status, e.URL)
}

func (e *FetchError) NotFound() bool { return e.Status == http.StatusNotFound }

// TimeoutError is returned when a request outlives the client's timeout.
type TimeoutError struct {
	URL     string
	Timeout time.Duration
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("request to '%s' timed out after %s", e.URL, e.Timeout)
}

// NetworkError is returned when the request couldn't complete at the
// transport level: dns, refused connections, resets, and so on.
type NetworkError struct {
	URL string
	Err error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("network error fetching '%s': %s", e.URL, e.Err)
}

func (e *NetworkError) Unwrap() error { return e.Err }

// Error checks the given http response for an error code, and, if one is
// present, returns a *FetchError.
func Error(resp *http.Response) error {
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &FetchError{Status: resp.StatusCode, URL: resp.Request.URL.String()}
	}
	return nil
}
