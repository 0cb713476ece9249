package outcome

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"
	"syscall"
)

// ErrUnknownVariant is returned by tagged-variant decoders when the
// discriminator names no known variant.
var ErrUnknownVariant = errors.New("unknown variant discriminator")

// StatusError is a non-success HTTP response.
type StatusError struct {
	Code int
	Body string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("unexpected status code: %d", e.Code)
	}
	return fmt.Sprintf("unexpected status code: %d - %s", e.Code, e.Body)
}

// StatusCode extracts an HTTP status from err, if it carries one.
func StatusCode(err error) (int, bool) {
	var se *StatusError
	if errors.As(err, &se) {
		return se.Code, true
	}
	if f, ok := asFailure(err); ok {
		return f.RawCode.Get()
	}
	return 0, false
}

// Classify maps any failure to exactly one Kind.
//
// Precedence: an explicit status code wins, then typed errors from the
// standard library, then wording of the message, then Unknown.
func Classify(err error) Kind {
	if err == nil {
		return Unknown
	}
	if f, ok := asFailure(err); ok {
		return f.Kind
	}
	if code, ok := StatusCode(err); ok {
		if k, ok := kindForStatus(code); ok {
			return k
		}
	}
	if k, ok := kindForType(err); ok {
		return k
	}
	if k, ok := kindForMessage(err.Error()); ok {
		return k
	}
	return Unknown
}

func asFailure(err error) (Failure, bool) {
	var f Failure
	if errors.As(err, &f) {
		return f, true
	}
	return Failure{}, false
}

func kindForStatus(code int) (Kind, bool) {
	switch {
	case code == http.StatusUnauthorized, code == http.StatusForbidden:
		return Unauthorized, true
	case code == http.StatusNotFound, code == http.StatusGone:
		return NotFound, true
	case code == http.StatusRequestTimeout:
		return Timeout, true
	case code == http.StatusRequestEntityTooLarge:
		return PayloadTooLarge, true
	case code == http.StatusTooManyRequests:
		return TooManyRequests, true
	case code == http.StatusBadRequest, code == http.StatusUnprocessableEntity:
		return ValidationError, true
	case code >= 500 && code < 600:
		return ServerError, true
	}
	return Unknown, false
}

func kindForType(err error) (Kind, bool) {
	if errors.Is(err, context.DeadlineExceeded) {
		return Timeout, true
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return Timeout, true
	}

	if errors.Is(err, syscall.ENOSPC) {
		return DiskFull, true
	}

	var syntaxErr *json.SyntaxError
	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &syntaxErr) || errors.As(err, &typeErr) || errors.Is(err, ErrUnknownVariant) {
		return Serialization, true
	}

	if errors.Is(err, syscall.ECONNREFUSED) ||
		errors.Is(err, syscall.ECONNRESET) ||
		errors.Is(err, syscall.ENETUNREACH) ||
		errors.Is(err, syscall.EHOSTUNREACH) {
		return NoConnectivity, true
	}
	var dnsErr *net.DNSError
	var opErr *net.OpError
	if errors.As(err, &dnsErr) || errors.As(err, &opErr) {
		return NoConnectivity, true
	}
	return Unknown, false
}

var (
	timeoutWords = []string{
		"timeout",
		"timed out",
		"deadline exceeded",
	}
	connectivityWords = []string{
		"connection refused",
		"connection reset",
		"no such host",
		"no route to host",
		"network is unreachable",
		"unable to resolve host",
		"unreachable",
		"offline",
		"failed to connect",
	}
	diskWords = []string{
		"no space left",
		"disk full",
	}
)

func kindForMessage(msg string) (Kind, bool) {
	msg = strings.ToLower(msg)
	switch {
	case containsAny(msg, timeoutWords):
		return Timeout, true
	case containsAny(msg, connectivityWords):
		return NoConnectivity, true
	case containsAny(msg, diskWords):
		return DiskFull, true
	}
	return Unknown, false
}

func containsAny(s string, words []string) bool {
	for _, w := range words {
		if strings.Contains(s, w) {
			return true
		}
	}
	return false
}
