package discord

import (
	"errors"
	"net"
	"net/http"
	"net/url"
	"time"

	"github.com/bwmarrin/discordgo"
)

// HTTPStatus extracts the REST status code from a discordgo error, or 0 when
// the error carries none.
func HTTPStatus(err error) int {
	var restErr *discordgo.RESTError
	if errors.As(err, &restErr) && restErr.Response != nil {
		return restErr.Response.StatusCode
	}
	return 0
}

// IsNotFound reports whether the call failed because the target message,
// channel or interaction no longer exists.
func IsNotFound(err error) bool {
	return HTTPStatus(err) == http.StatusNotFound
}

// IsForbidden reports whether the call was rejected for missing permissions.
func IsForbidden(err error) bool {
	return HTTPStatus(err) == http.StatusForbidden
}

// IsServerError reports whether Discord answered with a 5xx status.
func IsServerError(err error) bool {
	return HTTPStatus(err) >= http.StatusInternalServerError
}

// RetryAfter returns the server-supplied wait for a rate limited call.
// The second return is false when err is not a rate limit.
func RetryAfter(err error) (time.Duration, bool) {
	var rateErr *discordgo.RateLimitError
	if errors.As(err, &rateErr) {
		return rateErr.RetryAfter, true
	}
	if HTTPStatus(err) == http.StatusTooManyRequests {
		return 0, true
	}
	return 0, false
}

// IsTransient reports whether an error is worth retrying on the caller's own
// backoff schedule. It covers Discord 5xx responses and transient
// dial/timeout failures produced by net/http.
func IsTransient(err error) bool {
	if err == nil {
		return false
	}
	if IsServerError(err) {
		return true
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}

	var opErr *net.OpError
	if errors.As(err, &opErr) {
		if opErr.Timeout() || opErr.Op == "dial" {
			return true
		}
		if nested, ok := opErr.Err.(net.Error); ok && nested.Timeout() {
			return true
		}
	}

	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		if urlErr.Timeout() {
			return true
		}
		if urlErr.Err != nil && !errors.Is(urlErr.Err, err) {
			return IsTransient(urlErr.Err)
		}
	}

	return false
}
