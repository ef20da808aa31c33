package apperrors

import "errors"

// Error is the domain error type. Two errors match under errors.Is when they
// carry the same code.
type Error struct {
	Code    Code
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return e.Message + ": " + e.Cause.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Cause
}

func (e *Error) Is(target error) bool {
	if t, ok := target.(*Error); ok {
		return e.Code == t.Code
	}
	return false
}

func New(code Code, message string) *Error {
	return &Error{Code: code, Message: message}
}

// Wrap creates a domain error that keeps the underlying cause.
func Wrap(code Code, message string, cause error) *Error {
	return &Error{Code: code, Message: message, Cause: cause}
}

// CodeOf returns the code of the first domain error in the chain, or
// CodeInternal when there is none.
func CodeOf(err error) Code {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return CodeInternal
}

// PublicMessage is the text safe to show to API callers. Internal failures
// never leak their cause.
func PublicMessage(err error) string {
	var e *Error
	if errors.As(err, &e) && e.Code != CodeInternal {
		return e.Message
	}
	return "Internal server error"
}

var (
	ErrInvalidInput         = New(CodeInvalidInput, "invalid input")
	ErrGameNotFound         = New(CodeGameNotFound, "game not found")
	ErrAlbumNotFound        = New(CodeAlbumNotFound, "album not found")
	ErrMaxGuessesReached    = New(CodeMaxGuessesReached, "maximum guesses reached")
	ErrGameAlreadyCompleted = New(CodeGameAlreadyCompleted, "game already completed")
	ErrProviderUnavailable  = New(CodeProviderUnavailable, "album provider unavailable")
)
