package networkjobs

import (
	"encoding/xml"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/davsync/davsync/fs/fserrors"
	"github.com/davsync/davsync/lib/rest"
	"github.com/davsync/davsync/networkjobs/api"
	"github.com/pkg/errors"
)

// Sentinel errors
var (
	// ErrJobReused is returned by a job started a second time
	ErrJobReused = errors.New("network job was already started")
	// ErrNoPrivateLink is returned when the server knows neither a
	// private link nor a file id for a path
	ErrNoPrivateLink = errors.New("server returned no private link")
)

// HTTPError is a completed response with a status code the job
// doesn't accept
type HTTPError struct {
	Code    int
	Message string
}

// Error satisfies the error interface
func (e *HTTPError) Error() string {
	return fmt.Sprintf("HTTP error %d: %s", e.Code, e.Message)
}

// newHTTPError makes an HTTPError from resp.  The Sabre error message
// is appended when the body carries one.  It doesn't close the body.
func newHTTPError(resp *http.Response, body []byte) *HTTPError {
	msg := strings.TrimSpace(strings.TrimPrefix(resp.Status, fmt.Sprint(resp.StatusCode)))
	if msg == "" {
		msg = http.StatusText(resp.StatusCode)
	}
	if len(body) > 0 {
		davErr := new(api.Error)
		if xml.Unmarshal(body, davErr) == nil && davErr.Message != "" {
			msg += ": " + davErr.Message
		}
	}
	return &HTTPError{Code: resp.StatusCode, Message: msg}
}

// errorHandler turns non 2xx responses into an *HTTPError
func errorHandler(resp *http.Response) error {
	body, err := rest.ReadBodyLimit(resp, 16*1024)
	if err != nil {
		return newTransportError(err)
	}
	return newHTTPError(resp, body)
}

// discardBody reads and closes body so the connection can be reused
func discardBody(resp *http.Response) {
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 64*1024))
	_ = resp.Body.Close()
}

// TransportError is a failure below HTTP: connection, TLS, DNS,
// redirect limits or cancellation
type TransportError struct {
	Kind fserrors.TransportKind
	Err  error
}

func newTransportError(err error) *TransportError {
	return &TransportError{Kind: fserrors.Classify(err), Err: err}
}

// Error satisfies the error interface
func (e *TransportError) Error() string {
	return fmt.Sprintf("transport error (%v): %v", e.Kind, e.Err)
}

// Unwrap returns the underlying error
func (e *TransportError) Unwrap() error { return e.Err }

// Cause returns the underlying error for github.com/pkg/errors
func (e *TransportError) Cause() error { return e.Err }

// ProtocolError is a response which doesn't follow the protocol:
// malformed XML or JSON, a wrong content type or an href outside the
// requested collection
type ProtocolError struct {
	Reason string
	Err    error
}

// Error satisfies the error interface
func (e *ProtocolError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("protocol error: %s: %v", e.Reason, e.Err)
	}
	return "protocol error: " + e.Reason
}

// Unwrap returns the underlying error
func (e *ProtocolError) Unwrap() error { return e.Err }

// Cause returns the underlying error for github.com/pkg/errors
func (e *ProtocolError) Cause() error { return e.Err }

// TimeoutError is returned by a job which didn't finish within its
// timeout
type TimeoutError struct {
	URL   string
	After time.Duration
}

// Error satisfies the error interface
func (e *TimeoutError) Error() string {
	return fmt.Sprintf("%s: timed out after %v", e.URL, e.After)
}

// Timeout is always true, as for net.Error
func (e *TimeoutError) Timeout() bool { return true }

// InstanceNotFoundError is returned by the server probe when there is
// no usable server at URL.  Err is the reason.
type InstanceNotFoundError struct {
	URL        string
	StatusCode int
	Err        error
}

// Error satisfies the error interface
func (e *InstanceNotFoundError) Error() string {
	return fmt.Sprintf("no server found at %s: %v", e.URL, e.Err)
}

// Unwrap returns the underlying error
func (e *InstanceNotFoundError) Unwrap() error { return e.Err }

// Cause returns the underlying error for github.com/pkg/errors
func (e *InstanceNotFoundError) Cause() error { return e.Err }

// isTyped returns true if err is already one of the job errors
func isTyped(err error) bool {
	var (
		httpErr      *HTTPError
		transportErr *TransportError
		protocolErr  *ProtocolError
		timeoutErr   *TimeoutError
		notFoundErr  *InstanceNotFoundError
	)
	return errors.Is(err, ErrJobReused) ||
		errors.Is(err, ErrNoPrivateLink) ||
		errors.As(err, &httpErr) ||
		errors.As(err, &transportErr) ||
		errors.As(err, &protocolErr) ||
		errors.As(err, &timeoutErr) ||
		errors.As(err, &notFoundErr)
}

// outcome names the class of err for logs and metrics
func outcome(err error) string {
	var (
		httpErr      *HTTPError
		transportErr *TransportError
		protocolErr  *ProtocolError
		timeoutErr   *TimeoutError
		notFoundErr  *InstanceNotFoundError
	)
	switch {
	case err == nil:
		return "ok"
	case errors.As(err, &notFoundErr):
		return "not_found"
	case errors.As(err, &timeoutErr):
		return "timeout"
	case errors.As(err, &httpErr):
		return "http"
	case errors.As(err, &protocolErr):
		return "protocol"
	case errors.As(err, &transportErr):
		return "transport"
	}
	return "other"
}
