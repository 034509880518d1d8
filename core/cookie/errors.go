package cookie

import (
	"errors"
	"fmt"
)

// Error variables define the failure kinds of the cookie jar. Callers match them
// with errors.Is; the core always wraps them with context and never swallows them.
var (
	// ErrConfiguration indicates invalid construction-time parameters, such as a
	// prefix that cannot live in a cookie value or a lifetime of an unsupported kind.
	ErrConfiguration = errors.New("invalid cookie configuration")

	// ErrInvalidArgument indicates a textual lifetime that could not be parsed
	// into a timestamp.
	ErrInvalidArgument = errors.New("invalid cookie argument")

	// ErrEncoding indicates the logical value could not be serialized to JSON
	// or encrypted.
	ErrEncoding = errors.New("failed to encode cookie value")

	// ErrDecoding indicates the wire value could not be decrypted or could not be
	// parsed as JSON despite looking like JSON.
	ErrDecoding = errors.New("failed to decode cookie value")

	// ErrNotInitialized indicates the process-wide default jar was requested
	// before any jar was constructed.
	ErrNotInitialized = errors.New("cookie jar is not initialized")
)

// ErrCookieTooLarge indicates a rendered Set-Cookie header exceeds the maximum allowed size.
type ErrCookieTooLarge struct {
	Name string
	Size int
	Max  int
}

// Error implements the error interface.
func (e ErrCookieTooLarge) Error() string {
	return fmt.Sprintf("cookie %q size %d exceeds maximum %d bytes", e.Name, e.Size, e.Max)
}
