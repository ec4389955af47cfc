package payments

import "errors"

// Stable error codes carried on the wire. Clients branch on these
// instead of matching message text.
const (
	CodeValidation       = "validation_error"
	CodeNotFound         = "not_found"
	CodeAlreadyProcessed = "already_processed"
	CodeInvalidStatus    = "invalid_status"
)

var (
	ErrNotFound = errors.New("payment not found")

	// ErrAlreadyProcessed signals that the payment already reached a
	// terminal status. Callers treat it as success-equivalent, never
	// as a retryable failure.
	ErrAlreadyProcessed = errors.New("Payment already processed")

	ErrInvalidStatus = errors.New("status must be confirmed or declined")
)

// CodeFor maps a domain error to its wire code. Unknown errors map to
// the empty string and are surfaced as internal faults by the handler.
func CodeFor(err error) string {
	switch {
	case errors.Is(err, ErrNotFound):
		return CodeNotFound
	case errors.Is(err, ErrAlreadyProcessed):
		return CodeAlreadyProcessed
	case errors.Is(err, ErrInvalidStatus):
		return CodeInvalidStatus
	default:
		return ""
	}
}

// ErrFor is the inverse of CodeFor, used by clients decoding the
// error envelope.
func ErrFor(code string) error {
	switch code {
	case CodeNotFound:
		return ErrNotFound
	case CodeAlreadyProcessed:
		return ErrAlreadyProcessed
	case CodeInvalidStatus:
		return ErrInvalidStatus
	default:
		return nil
	}
}
