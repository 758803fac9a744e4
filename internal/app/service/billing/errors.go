package billing

import "fmt"

// ValidationError marks caller mistakes: missing fields, unknown plan types,
// bad signatures. Handlers map it to 400 before any remote call has run,
// except the signature case which runs after row lookup but before any write.
type ValidationError struct {
	msg string
}

func (e *ValidationError) Error() string { return e.msg }

func errValidation(format string, args ...any) error {
	return &ValidationError{msg: fmt.Sprintf(format, args...)}
}

// ErrInvalidSignature is returned when a payment confirmation fails HMAC
// verification. The message is user-facing: a deducted payment with a bad
// signature needs manual support follow-up.
var ErrInvalidSignature = &ValidationError{msg: "invalid payment signature, contact support if payment was deducted"}
