// Package exitcode exports davsync's exit status numbers.
package exitcode

const (
	// Success is returned when davsync finished without error.
	Success = iota
	// UsageError is returned when there was a syntax or usage error in the arguments.
	UsageError
	// UncategorizedError is returned for any error not categorised otherwise.
	UncategorizedError
	// DirNotFound is returned when no server instance was found at the URL.
	DirNotFound
	// FileNotFound is returned when the resource asked for doesn't exist.
	FileNotFound
	// RetryError is returned for transport failures, timeouts and server errors which may go away.
	RetryError
	// NoRetryError is returned when the server refused the request.
	NoRetryError
	// FatalError is returned when the server doesn't speak the protocol.
	FatalError
)
