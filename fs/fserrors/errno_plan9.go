//go:build plan9

package fserrors

// classifyErrno has no errnos to look at on plan9
func classifyErrno(err error) (TransportKind, bool) {
	return TransportOther, false
}
