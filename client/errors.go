package client

import "fmt"

// HTTPError is a non-2xx response from the Garmin API or the SSO surface. A
// 401 means the token that was just used is rejected server-side; callers
// decide whether that warrants a full re-login.
type HTTPError struct {
	StatusCode int
	Body       string
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("HTTP %d: %s", e.StatusCode, e.Body)
}
