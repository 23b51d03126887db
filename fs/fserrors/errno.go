//go:build !plan9

package fserrors

import (
	"syscall"

	"github.com/pkg/errors"
)

var errnoKinds = []struct {
	errno syscall.Errno
	kind  TransportKind
}{
	{syscall.ECONNREFUSED, TransportConnectionRefused},
	{syscall.EHOSTDOWN, TransportConnectionRefused},
	{syscall.EHOSTUNREACH, TransportConnectionRefused},
	{syscall.ECONNRESET, TransportConnectionReset},
	{syscall.ECONNABORTED, TransportConnectionReset},
	{syscall.EPIPE, TransportConnectionReset},
	{syscall.ETIMEDOUT, TransportTimeout},
}

// classifyErrno looks for a well known errno inside err
func classifyErrno(err error) (TransportKind, bool) {
	for _, e := range errnoKinds {
		if errors.Is(err, e.errno) {
			return e.kind, true
		}
	}
	return TransportOther, false
}
