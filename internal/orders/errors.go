package orders

import "errors"

var (
	ErrOrderExists       = errors.New("order already exists")
	ErrUnknownOrder      = errors.New("unknown order id")
	ErrInvalidTransition = errors.New("invalid status transition")
	ErrQueueingFailed    = errors.New("failed to queue order for processing")
)

type ValidationCode string

const (
	CodeMissingItems        ValidationCode = "MissingItems"
	CodeInvalidBookIDFormat ValidationCode = "InvalidBookIdFormat"
	CodeUnknownBookID       ValidationCode = "UnknownBookId"
	CodeInvalidQuantity     ValidationCode = "InvalidQuantity"
	CodeInsufficientStock   ValidationCode = "InsufficientStock"
)

// ValidationError is a request problem the client can fix. It is never retried.
type ValidationError struct {
	Code    ValidationCode
	Message string
}

func (e *ValidationError) Error() string { return e.Message }

func invalid(code ValidationCode, msg string) *ValidationError {
	return &ValidationError{Code: code, Message: msg}
}
