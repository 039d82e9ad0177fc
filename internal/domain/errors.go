package domain

// Kind classifies failures surfaced by the document store and the booking rules.
type Kind string

const (
	KindStoreUnavailable Kind = "STORE_UNAVAILABLE"
	KindNotInitialized   Kind = "NOT_INITIALIZED"
	KindPersistFailure   Kind = "PERSIST_FAILURE"
	KindValidation       Kind = "VALIDATION_FAILURE"
	KindNotFound         Kind = "NOT_FOUND"
)

// Error is the structured error returned by the store, the attendance rules and
// the services built on them.
type Error struct {
	Kind    Kind   // Failure class, used by callers to pick a response
	Code    string // Optional machine-readable reason within the kind
	Message string
	Cause   error
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Cause != nil {
		return e.Message + ": " + e.Cause.Error()
	}
	return e.Message
}

// Unwrap returns the underlying cause for error chain traversal.
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is matches on kind, and on code when the target carries one. This lets
// errors.Is(err, ErrValidation) match every validation failure while
// errors.Is(err, ErrRecordFinalized) only matches that specific reason.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	if t.Kind != e.Kind {
		return false
	}
	return t.Code == "" || t.Code == e.Code
}

// Sentinels matching every error of a kind.
var (
	ErrStoreUnavailable = &Error{Kind: KindStoreUnavailable, Message: "store unavailable"}
	ErrNotInitialized   = &Error{Kind: KindNotInitialized, Message: "store not initialized"}
	ErrPersistFailure   = &Error{Kind: KindPersistFailure, Message: "persist failure"}
	ErrValidation       = &Error{Kind: KindValidation, Message: "validation failure"}
	ErrNotFound         = &Error{Kind: KindNotFound, Message: "not found"}
)

// ErrRecordFinalized is returned when a write targets a finalized clinical record.
var ErrRecordFinalized = Validation("RECORD_FINALIZED", "record is finalized and can no longer be changed")

// Validation creates a failure caused by the caller's input or the current state.
func Validation(code, message string) *Error {
	return &Error{Kind: KindValidation, Code: code, Message: message}
}

// NotFound creates a missing-entity error.
func NotFound(code, message string) *Error {
	return &Error{Kind: KindNotFound, Code: code, Message: message}
}

// Wrap creates an error of the given kind around an underlying cause.
func Wrap(kind Kind, message string, cause error) *Error {
	return &Error{Kind: kind, Message: message, Cause: cause}
}
