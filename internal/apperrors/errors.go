package apperrors

import "errors"

var (
	ErrNotFound           = errors.New("not found")
	ErrForbidden          = errors.New("permission denied")
	ErrUnauthorized       = errors.New("authentication required")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrRegistrationFailed = errors.New("registration failed")
)

// CustomError carries a user-facing message on top of one of the sentinel errors.
type CustomError struct {
	Err     error
	Message string
}

func (e *CustomError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	return "unknown error"
}

func (e *CustomError) Unwrap() error {
	return e.Err
}

func NewCustomError(err error, message string) *CustomError {
	return &CustomError{Err: err, Message: message}
}

func NewNotFoundError(message string) error {
	return NewCustomError(ErrNotFound, message)
}

func NewForbiddenError(message string) error {
	return NewCustomError(ErrForbidden, message)
}

func NewInvalidCredentialsError(message string) error {
	return NewCustomError(ErrInvalidCredentials, message)
}

// Message returns the user-facing text of err, falling back to fallback
// when err carries no message of its own.
func Message(err error, fallback string) string {
	var ce *CustomError
	if errors.As(err, &ce) && ce.Message != "" {
		return ce.Message
	}
	return fallback
}

// NotFoundAs attaches message to err when it reports a missing entity and
// returns any other error unchanged.
func NotFoundAs(err error, message string) error {
	if errors.Is(err, ErrNotFound) {
		return NewNotFoundError(message)
	}
	return err
}
