// Package apperr defines the outcome taxonomy shared by the marketplace core.
// Every failing operation returns an *Error whose Kind tells the caller how to present it.
package apperr

import (
	"errors"
	"fmt"
)

// Kind classifies an outcome.
type Kind string

const (
	KindValidation        Kind = "validation"
	KindAuth              Kind = "auth"
	KindSession           Kind = "session"
	KindPermission        Kind = "permission"
	KindNoEligibleBooking Kind = "no_eligible_booking"
	KindConflict          Kind = "conflict"
	KindInvalidTransition Kind = "invalid_transition"
	KindNotFound          Kind = "not_found"
)

// Redirect names the entry point a caller should send the actor to.
type Redirect string

const (
	RedirectNone  Redirect = ""
	RedirectLogin Redirect = "login"
)

// Error is a typed outcome. Msg is safe to show to the initiating actor.
type Error struct {
	Kind     Kind
	Msg      string
	Redirect Redirect
	Err      error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Msg, e.Err)
	}
	if e.Msg == "" {
		return string(e.Kind)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Msg)
}

func (e *Error) Unwrap() error { return e.Err }

// Is matches any *Error of the same Kind, so errors.Is(err, ErrValidation) works for
// every validation outcome regardless of message.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind
}

// Sentinels for errors.Is.
var (
	ErrValidation        = &Error{Kind: KindValidation}
	ErrAuth              = &Error{Kind: KindAuth}
	ErrSession           = &Error{Kind: KindSession}
	ErrPermission        = &Error{Kind: KindPermission}
	ErrNoEligibleBooking = &Error{Kind: KindNoEligibleBooking}
	ErrConflict          = &Error{Kind: KindConflict}
	ErrInvalidTransition = &Error{Kind: KindInvalidTransition}
	ErrNotFound          = &Error{Kind: KindNotFound}
)

func Validation(msg string) error { return &Error{Kind: KindValidation, Msg: msg} }

// Auth is deliberately generic: it never says which credential mismatched.
func Auth() error { return &Error{Kind: KindAuth, Msg: "invalid email, password or role"} }

func Session(msg string) error {
	return &Error{Kind: KindSession, Msg: msg, Redirect: RedirectLogin}
}

func Permission(msg string) error {
	return &Error{Kind: KindPermission, Msg: msg, Redirect: RedirectLogin}
}

func NoEligibleBooking() error {
	return &Error{Kind: KindNoEligibleBooking, Msg: "there is no accepted booking to attach this report to"}
}

func Conflict(what string, err error) error {
	return &Error{Kind: KindConflict, Msg: what + " changed concurrently, try again", Err: err}
}

func InvalidTransition(from, to string) error {
	return &Error{Kind: KindInvalidTransition, Msg: fmt.Sprintf("cannot move booking from %s to %s", from, to)}
}

func NotFound(what string) error { return &Error{Kind: KindNotFound, Msg: what + " not found"} }

// KindOf returns the Kind of err, or "" when err is not an *Error.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}

// RedirectOf returns the redirect signalled by err, if any.
func RedirectOf(err error) Redirect {
	var e *Error
	if errors.As(err, &e) {
		return e.Redirect
	}
	return RedirectNone
}

// Message returns the user-facing message of err.
func Message(err error) string {
	var e *Error
	if errors.As(err, &e) && e.Msg != "" {
		return e.Msg
	}
	if err == nil {
		return ""
	}
	return err.Error()
}
