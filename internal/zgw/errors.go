// Package zgw provides typed, authenticated access to the ZGW Zaken and
// Documenten APIs. Every call signs a fresh bearer credential; nothing is
// cached.
package zgw

import (
	"errors"
	"fmt"
)

// Kind represents the category of a ZGW error. The forwarding orchestrator
// branches on kinds rather than on error strings: KindZaakNotFound is an
// expected control-flow signal during idempotency checks, everything else
// is a real failure.
type Kind int

const (
	// KindAPI is a generic non-2xx response.
	KindAPI Kind = iota
	// KindConfiguration indicates bad deployment configuration. Not retried.
	KindConfiguration
	// KindZaakNotFound means the identification lookup returned zero results.
	KindZaakNotFound
	// KindMultipleZakenFound means the identification lookup returned more
	// than one zaak. Data-integrity problem in the external system.
	KindMultipleZakenFound
	// KindProtocolViolation means the document stub response was missing the
	// upload slot or lock token required by the bestandsdelen protocol.
	KindProtocolViolation
	// KindUploadFailed means the binary upload to the bestandsdeel slot failed.
	KindUploadFailed
	// KindUnlockFailed means the document unlock did not return the success
	// status defined by the Documenten API.
	KindUnlockFailed
	// KindRelateFailed means relating the document to the zaak failed.
	KindRelateFailed
)

func (k Kind) String() string {
	switch k {
	case KindConfiguration:
		return "configuration"
	case KindZaakNotFound:
		return "zaak_not_found"
	case KindMultipleZakenFound:
		return "multiple_zaken_found"
	case KindProtocolViolation:
		return "protocol_violation"
	case KindUploadFailed:
		return "upload_failed"
	case KindUnlockFailed:
		return "unlock_failed"
	case KindRelateFailed:
		return "relate_failed"
	default:
		return "api_error"
	}
}

// Error is a typed ZGW error with a Kind for control-flow decisions.
type Error struct {
	Kind    Kind
	Op      string // operation that failed, e.g. "zaken.CreateZaak"
	Status  int    // HTTP status, 0 when the request never completed
	Message string
	Err     error
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("%s: %s (status %d)", e.Op, e.Message, e.Status)
	}
	return fmt.Sprintf("%s: %s", e.Op, e.Message)
}

// Unwrap returns the underlying error for errors.Is/As support.
func (e *Error) Unwrap() error {
	return e.Err
}

// NewError creates a new ZGW error.
func NewError(kind Kind, op, message string) *Error {
	return &Error{Kind: kind, Op: op, Message: message}
}

// WrapError creates a new ZGW error wrapping an underlying error.
func WrapError(kind Kind, op, message string, err error) *Error {
	return &Error{Kind: kind, Op: op, Message: message, Err: err}
}

// GetKind extracts the kind from an error chain. Returns KindAPI when the
// error is not a *zgw.Error.
func GetKind(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindAPI
}

// IsKind reports whether err carries the given kind.
func IsKind(err error, kind Kind) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind == kind
	}
	return false
}

// IsZaakNotFound reports whether err is the expected not-found signal.
func IsZaakNotFound(err error) bool {
	return IsKind(err, KindZaakNotFound)
}
