package weread

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrCodeSessionExpired is the in-band errCode the service returns when the
// cookie session has gone stale and must be refreshed.
const ErrCodeSessionExpired = -2012

var (
	// ErrSessionExpired is returned when a response carries the expiry errCode.
	ErrSessionExpired = errors.New("weread session expired")

	// ErrRemoteUnavailable is returned when a call exhausts its retry budget.
	ErrRemoteUnavailable = errors.New("weread remote unavailable")

	// ErrMalformedResponse is returned when a response is present but does not
	// have the expected shape.
	ErrMalformedResponse = errors.New("weread malformed response")

	// ErrAPI is returned for non-zero errCode values other than session expiry.
	ErrAPI = errors.New("weread api error")

	// ErrNotJSON is returned when a successful status carries a body that is not
	// JSON at all, typically the login page served for a dead cookie.
	ErrNotJSON = errors.New("weread response is not JSON")

	// ErrTransport is returned when the request never produced a response.
	ErrTransport = errors.New("weread transport failure")

	// ErrInvalidBookID is returned when an accessor is called without a book id.
	ErrInvalidBookID = errors.New("invalid book id")
)

// StatusError is returned for non-2xx HTTP responses.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	body := e.Body
	if len(body) > 200 {
		body = body[:200] + "..."
	}
	return fmt.Sprintf("weread http status %d: %s", e.StatusCode, body)
}

// retryable reports whether err is worth another attempt after a session refresh.
func retryable(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, ErrSessionExpired) || errors.Is(err, ErrNotJSON) || errors.Is(err, ErrTransport) {
		return true
	}
	var se *StatusError
	if errors.As(err, &se) {
		switch se.StatusCode {
		case http.StatusUnauthorized, http.StatusForbidden, http.StatusTooManyRequests:
			return true
		}
		return se.StatusCode >= 500
	}
	return false
}

// sessionInvalid reports whether err signals that the session must be re-established.
func sessionInvalid(err error) bool {
	if errors.Is(err, ErrSessionExpired) || errors.Is(err, ErrNotJSON) {
		return true
	}
	var se *StatusError
	if errors.As(err, &se) {
		return se.StatusCode == http.StatusUnauthorized || se.StatusCode == http.StatusForbidden
	}
	return false
}
