package domain

import "errors"

var (
	ErrNotFound            = errors.New("not found")
	ErrRateLimited         = errors.New("rate limited")
	ErrUnauthorized        = errors.New("unauthorized")
	ErrTransport           = errors.New("transport failure")
	ErrUnsupportedCurrency = errors.New("unsupported currency")
	ErrUnsupportedAsset    = errors.New("unsupported asset")
	ErrInvalidInput        = errors.New("invalid input")
	ErrLockHeld            = errors.New("lock held")
)

// Error is an application-level error carrying a message that is safe to
// show to the end user. The underlying cause stays reachable through
// errors.Is and errors.As.
type Error struct {
	Op      string // operation that failed, e.g. "market.get_prices"
	Message string // user-facing text
	Err     error
}

// NewError builds a domain error for op with a user-facing message.
func NewError(op, message string, err error) *Error {
	return &Error{Op: op, Message: message, Err: err}
}

func (e *Error) Error() string {
	if e.Err == nil {
		return e.Op + ": " + e.Message
	}
	return e.Op + ": " + e.Message + ": " + e.Err.Error()
}

func (e *Error) Unwrap() error {
	return e.Err
}

// UserMessage extracts the user-facing message from err. If err does not
// carry a domain error, fallback is returned.
func UserMessage(err error, fallback string) string {
	var de *Error
	if errors.As(err, &de) && de.Message != "" {
		return de.Message
	}
	return fallback
}
