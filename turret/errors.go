package turret

import "errors"

// Kind is a stable category for programmatic error handling.
//
// These categories are intended to remain stable across versions.
// Callers should branch on Kind rather than matching error strings.
//
// NOTE: Error() strings are intentionally kept human-readable and may evolve.
// Use errors.As to extract *Error for structured handling.
type Kind string

const (
	// KindValidation marks a malformed or out-of-policy request. User-caused,
	// never retried, surfaced verbatim.
	KindValidation Kind = "Validation"
	// KindConflict marks an upload whose digest is already stored.
	KindConflict Kind = "Conflict"
	// KindForbidden marks an upload that is not allow-listed on a restricted
	// network.
	KindForbidden Kind = "Forbidden"
	// KindPayment marks an invalid, missing, wrong-amount, or already-used fee
	// payment. Carries the exact cost so the client can correct and retry.
	KindPayment Kind = "Payment"
	// KindNotFound marks an unknown function, unknown remote signer, or a
	// missing directory entry.
	KindNotFound Kind = "NotFound"
	// KindUnavailable marks a transient network or ledger failure. Safe to
	// retry with backoff.
	KindUnavailable Kind = "Unavailable"
	// KindConfig marks an unreadable local trust document or turret
	// configuration. Fatal: trust queries fail closed rather than
	// default-trust.
	KindConfig Kind = "Config"
)

// Error is the repository's structured error type.
//
// Message is intended for humans; do not match on it. Cost is set only for
// KindPayment and holds the exact upload cost (7 fractional digits) the
// caller must pay.
type Error struct {
	Kind    Kind
	Message string
	Cost    string
	Cause   error
}

func (e *Error) Error() string {
	if e == nil {
		return "<nil>"
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Cause
}

// New returns a structured error of the given kind.
func New(kind Kind, msg string) error {
	return &Error{Kind: kind, Message: msg}
}

// Wrap returns a structured error of the given kind wrapping cause.
func Wrap(kind Kind, msg string, cause error) error {
	if cause == nil {
		return New(kind, msg)
	}
	return &Error{Kind: kind, Message: msg, Cause: cause}
}

// PaymentRequired returns a KindPayment error carrying the exact cost.
func PaymentRequired(msg, cost string) error {
	return &Error{Kind: KindPayment, Message: msg, Cost: cost}
}

// WithCost returns err decorated with the exact cost string, so payment
// failures always tell the caller what to pay. Non-structured errors pass
// through unchanged.
func WithCost(err error, cost string) error {
	var e *Error
	if !errors.As(err, &e) {
		return err
	}
	return &Error{Kind: e.Kind, Message: e.Message, Cost: cost, Cause: e.Cause}
}

// IsKind reports whether err is (or wraps) a *Error with the given Kind.
func IsKind(err error, kind Kind) bool {
	var e *Error
	if !errors.As(err, &e) {
		return false
	}
	return e.Kind == kind
}

// CostOf returns the cost attached to a payment error, or "" if none.
func CostOf(err error) string {
	var e *Error
	if !errors.As(err, &e) {
		return ""
	}
	return e.Cost
}
