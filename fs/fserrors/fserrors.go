// Package fserrors classifies the errors coming back from the HTTP
// transport so the network jobs can report what kind of failure
// happened without string matching.
package fserrors

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"net"

	"github.com/davsync/davsync/lib/rest"
	"github.com/pkg/errors"
)

// TransportKind describes the class of a transport failure
type TransportKind int

// Transport failure kinds
const (
	TransportOther TransportKind = iota
	TransportTimeout
	TransportCanceled
	TransportTLS
	TransportDNS
	TransportConnectionRefused
	TransportConnectionReset
	TransportTooManyRedirects
	TransportInsecureRedirect
)

var transportKindNames = []string{
	TransportOther:             "other",
	TransportTimeout:           "timeout",
	TransportCanceled:          "canceled",
	TransportTLS:               "tls",
	TransportDNS:               "dns",
	TransportConnectionRefused: "connection refused",
	TransportConnectionReset:   "connection reset",
	TransportTooManyRedirects:  "too many redirects",
	TransportInsecureRedirect:  "insecure redirect",
}

// String turns a TransportKind into a string
func (k TransportKind) String() string {
	if k < 0 || int(k) >= len(transportKindNames) {
		return "unknown"
	}
	return transportKindNames[k]
}

// Classify works out which TransportKind err belongs to, looking
// through any wrapping.  A nil error is TransportOther.
func Classify(err error) TransportKind {
	if err == nil {
		return TransportOther
	}
	switch {
	case errors.Is(err, rest.ErrTooManyRedirects):
		return TransportTooManyRedirects
	case errors.Is(err, rest.ErrInsecureRedirect):
		return TransportInsecureRedirect
	case errors.Is(err, context.Canceled):
		return TransportCanceled
	case errors.Is(err, context.DeadlineExceeded):
		return TransportTimeout
	case isTLSError(err):
		return TransportTLS
	}
	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return TransportDNS
	}
	if kind, ok := classifyErrno(err); ok {
		return kind
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return TransportTimeout
	}
	return TransportOther
}

// isTLSError returns true if err is a certificate or handshake failure
func isTLSError(err error) bool {
	var (
		unknownAuthority x509.UnknownAuthorityError
		hostname         x509.HostnameError
		invalid          x509.CertificateInvalidError
		verification     *tls.CertificateVerificationError
		recordHeader     tls.RecordHeaderError
		alert            tls.AlertError
	)
	return errors.As(err, &unknownAuthority) ||
		errors.As(err, &hostname) ||
		errors.As(err, &invalid) ||
		errors.As(err, &verification) ||
		errors.As(err, &recordHeader) ||
		errors.As(err, &alert)
}

// IsTimeout returns true if err is a timeout of any sort
func IsTimeout(err error) bool {
	return err != nil && Classify(err) == TransportTimeout
}
