package resilience

import (
	"errors"
	"net"
	"net/http"
	"net/textproto"
	"strconv"
	"strings"
	"syscall"
	"time"
)

// TransientError marks a failed download that may succeed later, such as a
// 429 from a spreadsheet host. RetryAfter carries the server's hint, if any.
type TransientError struct {
	Err        error
	StatusCode int
	RetryAfter time.Duration
}

func (e *TransientError) Error() string { return e.Err.Error() }

func (e *TransientError) Unwrap() error { return e.Err }

// NewTransientError wraps err as transient with an optional HTTP status.
func NewTransientError(err error, statusCode int) *TransientError {
	return &TransientError{Err: err, StatusCode: statusCode}
}

// ParseRetryAfter reads a Retry-After header given as seconds or an HTTP
// date. Missing, malformed or past values give 0.
func ParseRetryAfter(h string, now time.Time) time.Duration {
	h = strings.TrimSpace(h)
	if h == "" {
		return 0
	}
	if secs, err := strconv.Atoi(h); err == nil {
		return time.Duration(max(secs, 0)) * time.Second
	}
	if t, err := http.ParseTime(h); err == nil && t.After(now) {
		return t.Sub(now)
	}
	return 0
}

// Low-level network failures that surface only as text, typically from the
// FTP control connection.
var transientMessages = []string{
	"connection reset by peer",
	"broken pipe",
	"i/o timeout",
	"tls handshake timeout",
	"temporary failure in name resolution",
	"server closed idle connection",
}

// IsTransient reports whether a retrieval error is worth another attempt:
// explicit TransientErrors, FTP 4yz replies, network timeouts, refused or
// reset connections.
func IsTransient(err error) bool {
	if err == nil {
		return false
	}

	var te *TransientError
	var reply *textproto.Error
	var netErr net.Error
	switch {
	case errors.As(err, &te):
		return true
	case errors.As(err, &reply):
		return IsTransientFTPCode(reply.Code)
	case errors.As(err, &netErr) && netErr.Timeout():
		return true
	case errors.Is(err, syscall.ECONNRESET),
		errors.Is(err, syscall.ECONNREFUSED),
		errors.Is(err, syscall.ECONNABORTED):
		return true
	}

	msg := strings.ToLower(err.Error())
	for _, m := range transientMessages {
		if strings.Contains(msg, m) {
			return true
		}
	}
	return false
}

// IsTransientHTTPStatus reports whether a download status is worth retrying.
func IsTransientHTTPStatus(code int) bool {
	return code == http.StatusRequestTimeout ||
		code == http.StatusTooManyRequests ||
		(code >= 500 && code != http.StatusNotImplemented && code != http.StatusHTTPVersionNotSupported && code < 600)
}

// IsTransientFTPCode reports whether an FTP reply is a transient negative
// completion (4yz), e.g. 421 too many users or 450 file busy.
func IsTransientFTPCode(code int) bool {
	return code >= 400 && code < 500
}
