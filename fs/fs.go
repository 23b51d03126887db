// Package fs holds the global configuration, logging and small
// helpers shared by the network jobs and the command line.
package fs

import (
	"io"
)

// CheckClose is a utility function used to check the return from
// Close in a defer statement.
func CheckClose(c io.Closer, err *error) {
	cerr := c.Close()
	if *err == nil {
		*err = cerr
	}
}
