// Package comstarerr defines the error taxonomy shared across comstar's
// components, so callers can classify a failure with errors.Is/As instead
// of string-matching messages.
package comstarerr

import "errors"

// Sentinel errors. Wrap these with fmt.Errorf("...: %w", err) at the call
// site; never replace them with a new error value for the same condition.
var (
	// ErrUnsupportedScheme is returned when a URL's scheme is outside the
	// set a Transport method supports.
	ErrUnsupportedScheme = errors.New("unsupported URL scheme")

	// ErrManifestMissing distinguishes "no manifest at this URL" (HTTP 404
	// or file-not-found) from a manifest that exists but fails to parse.
	ErrManifestMissing = errors.New("remote manifest not found")

	// ErrChannelClosed names the condition of an event that can't be
	// delivered because the renderer goroutine has already exited. The
	// events.Bus send methods return no error, so no code path in
	// comstar returns it.
	ErrChannelClosed = errors.New("event channel closed")
)

// Kind categorizes an error for CLI reporting and testing, independent of
// the wrapped chain's exact message.
type Kind int

const (
	KindUnknown Kind = iota
	KindIO
	KindNetwork
	KindParse
)

// Error wraps an underlying error with a Kind so callers can branch on
// category without depending on message text.
type Error struct {
	Kind Kind
	Op   string
	Err  error
}

func (e *Error) Error() string {
	if e.Op == "" {
		return e.Err.Error()
	}
	return e.Op + ": " + e.Err.Error()
}

func (e *Error) Unwrap() error { return e.Err }

// IO wraps err as a filesystem-origin failure (open, read, write, mkdir,
// unlink).
func IO(op string, err error) error {
	if err == nil {
		return nil
	}
	return &Error{Kind: KindIO, Op: op, Err: err}
}

// Network wraps err as a connection/TLS/non-2xx failure.
func Network(op string, err error) error {
	if err == nil {
		return nil
	}
	return &Error{Kind: KindNetwork, Op: op, Err: err}
}

// Parse wraps err as a malformed-document or invalid-path failure.
func Parse(op string, err error) error {
	if err == nil {
		return nil
	}
	return &Error{Kind: KindParse, Op: op, Err: err}
}

// Is reports whether err (or anything in its chain) carries the given Kind.
func Is(err error, kind Kind) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind == kind
	}
	return false
}
