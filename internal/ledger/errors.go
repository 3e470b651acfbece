package ledger

import "errors"

// Stable error codes surfaced to the presentation layer.
const (
	CodeStorage    = "E-STOR-01"
	CodeIngestion  = "E-OCR-01"
	CodeValidation = "E-VAL-01"
)

// Error pairs a stable code with a user-facing message. The wrapped
// cause stays available for logging via errors.Unwrap.
type Error struct {
	Code    string
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return e.Code + ": " + e.Message + ": " + e.Err.Error()
	}
	return e.Code + ": " + e.Message
}

func (e *Error) Unwrap() error { return e.Err }

func storageError(err error) *Error {
	return &Error{Code: CodeStorage, Message: "error accessing local storage", Err: err}
}

func ingestionError(err error) *Error {
	return &Error{Code: CodeIngestion, Message: "receipt text unreadable or no amount found", Err: err}
}

func validationError(err error) *Error {
	return &Error{Code: CodeValidation, Message: "amount must be a positive number", Err: err}
}

// CodeOf extracts the taxonomy code from an error chain, or "" when the
// error carries none.
func CodeOf(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}
