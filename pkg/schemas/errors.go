// File: pkg/schemas/errors.go
package schemas

import (
	"errors"
	"fmt"
)

// ErrorKind classifies a failure so the runner can decide whether to retry,
// record it per item, or abort the batch.
type ErrorKind string

const (
	// KindValidation is bad job input, detected before any browser work.
	KindValidation ErrorKind = "VALIDATION"
	// KindChallenge is a login challenge the system cannot complete on its own
	// (CAPTCHA, or an SMS prompt without a usable code).
	KindChallenge ErrorKind = "CHALLENGE"
	// KindTransientUI is an expected control that never appeared.
	KindTransientUI ErrorKind = "TRANSIENT_UI"
	// KindSessionInvalid means restored cookies did not yield an authenticated page.
	KindSessionInvalid ErrorKind = "SESSION_INVALID"
	// KindQuota is the daily upload limit.
	KindQuota ErrorKind = "QUOTA"
	// KindOwnership means the target video is not editable by this account.
	KindOwnership ErrorKind = "OWNERSHIP"
	// KindIO is a session store read or write failure.
	KindIO ErrorKind = "IO"
	// KindChannelNotFound means no channel entry matched the requested name.
	KindChannelNotFound ErrorKind = "CHANNEL_NOT_FOUND"
	// KindConfiguration is an account setting that prevents the flow from finishing.
	KindConfiguration ErrorKind = "CONFIGURATION"
	// KindNoChange means the save control never reported a persisted change.
	KindNoChange ErrorKind = "NO_CHANGE"
	// KindPlatform is an error message rendered by the console itself.
	KindPlatform ErrorKind = "PLATFORM"
)

// Sentinels usable with errors.Is. A *Error matches the sentinel of its kind.
var (
	ErrValidation      = &Error{Kind: KindValidation}
	ErrChallenge       = &Error{Kind: KindChallenge}
	ErrTransientUI     = &Error{Kind: KindTransientUI}
	ErrSessionInvalid  = &Error{Kind: KindSessionInvalid}
	ErrQuota           = &Error{Kind: KindQuota}
	ErrOwnership       = &Error{Kind: KindOwnership}
	ErrIO              = &Error{Kind: KindIO}
	ErrChannelNotFound = &Error{Kind: KindChannelNotFound}
	ErrConfiguration   = &Error{Kind: KindConfiguration}
	ErrNoChange        = &Error{Kind: KindNoChange}
	ErrPlatform        = &Error{Kind: KindPlatform}
)

// Error is the typed failure returned by every component.
type Error struct {
	Kind ErrorKind
	// Op names the step that failed, e.g. "upload.open_composer".
	Op  string
	Msg string
	// Hint is optional guidance shown to the operator.
	Hint string
	Err  error
}

// NewError builds a typed error.
func NewError(kind ErrorKind, op, msg string, cause error) *Error {
	return &Error{Kind: kind, Op: op, Msg: msg, Err: cause}
}

func (e *Error) Error() string {
	msg := e.Msg
	if msg == "" {
		msg = string(e.Kind)
	}
	if e.Op != "" {
		msg = e.Op + ": " + msg
	}
	if e.Err != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Err)
	}
	if e.Hint != "" {
		msg = msg + " (" + e.Hint + ")"
	}
	return msg
}

func (e *Error) Unwrap() error { return e.Err }

// Is matches any *Error of the same kind, so sentinels work with errors.Is.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind && (t.Op == "" || t.Op == e.Op)
}

// WithHint returns the error with operator guidance attached.
func (e *Error) WithHint(hint string) *Error {
	e.Hint = hint
	return e
}

// KindOf returns the kind of the first *Error in the chain, or "" if none.
func KindOf(err error) ErrorKind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}

// IsFatal reports whether err must abort the whole batch regardless of job type.
func IsFatal(err error) bool {
	switch KindOf(err) {
	case KindValidation, KindChallenge, KindQuota, KindConfiguration, KindPlatform:
		return true
	}
	return false
}

func ValidationError(op, msg string) *Error { return NewError(KindValidation, op, msg, nil) }
func ChallengeError(op, msg string) *Error  { return NewError(KindChallenge, op, msg, nil) }
func TransientUIError(op, msg string, cause error) *Error {
	return NewError(KindTransientUI, op, msg, cause)
}
func SessionInvalidError(op string, cause error) *Error {
	return NewError(KindSessionInvalid, op, "restored session is not authenticated", cause)
}
func QuotaError(op string) *Error { return NewError(KindQuota, op, "daily upload limit reached", nil) }
func OwnershipError(op, msg string, cause error) *Error {
	return NewError(KindOwnership, op, msg, cause)
}
func IOError(op string, cause error) *Error { return NewError(KindIO, op, "session storage failure", cause) }
