// Package components implements the core of a component lifecycle and
// supervision framework: specs, contexts, the generic component kernel,
// and the error taxonomy shared by the desc, loader, container, dynamic,
// transactional and supervisor packages.
package components

import (
	"fmt"
	"runtime/debug"
)

// Kind enumerates the error taxonomy of §7.
type Kind string

const (
	KindInvalidSpec       Kind = "InvalidSpec"
	KindMissingChild      Kind = "MissingChild"
	KindShutdownChild     Kind = "ShutdownChild"
	KindArtefactNotFound  Kind = "ArtefactNotFound"
	KindFactoryError      Kind = "FactoryError"
	KindFactoryException  Kind = "FactoryException"
	KindRetryExhausted    Kind = "RetryExhausted"
	KindTimeout           Kind = "TimeoutError"
	KindHang              Kind = "Hang"
	KindFatal             Kind = "Fatal"
	KindComponentShutdown Kind = "ComponentShutdown"
)

// Error is the single error type produced across the framework. It carries
// enough own enumerable data (Kind, Component, Cause, StackTrace) to satisfy
// §7's "pretty-printed stringification of the error including own
// enumerable properties" requirement.
type Error struct {
	ErrKind    Kind
	Component  string
	Cause      error
	StackTrace []byte

	// Timeout is set true on a TimeoutError per §5's bounded timeout wrapper.
	Timeout bool
	// WasThrown distinguishes a factory panic/rejection from an ordinary
	// application error returned by the factory, per §5's double-callback
	// defence.
	WasThrown bool
	// CheckingForHang is set true on a Hang error per §4.7 tick overlap.
	CheckingForHang bool
}

func (e *Error) Error() string {
	if e.Component != "" {
		if e.Cause != nil {
			return fmt.Sprintf("%s: %s: %v", e.ErrKind, e.Component, e.Cause)
		}
		return fmt.Sprintf("%s: %s", e.ErrKind, e.Component)
	}
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.ErrKind, e.Cause)
	}
	return string(e.ErrKind)
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// Is allows errors.Is(err, &Error{ErrKind: KindX}) comparisons by kind.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	if t.Component != "" && t.Component != e.Component {
		return false
	}
	return t.ErrKind == e.ErrKind
}

// New constructs an *Error of the given kind, capturing a stack trace the
// way the teacher's CreateResolveError does.
func New(kind Kind, component string, cause error) *Error {
	return &Error{
		ErrKind:    kind,
		Component:  component,
		Cause:      cause,
		StackTrace: debug.Stack(),
	}
}

// TimeoutErr constructs a TimeoutError.
func TimeoutErr(component string) *Error {
	e := New(KindTimeout, component, nil)
	e.Timeout = true
	return e
}

// Thrown wraps a panic/rejection recovered from a factory invocation,
// marking WasThrown so callers can distinguish it from an ordinary
// FactoryError.
func Thrown(component string, recovered any) *Error {
	var cause error
	if err, ok := recovered.(error); ok {
		cause = err
	} else {
		cause = fmt.Errorf("%v", recovered)
	}
	e := New(KindFactoryException, component, cause)
	e.WasThrown = true
	return e
}

// HangErr constructs the Hang error delivered when a checkup tick overlaps
// with the previous one still in flight (§4.7 step 1).
func HangErr(component string) *Error {
	e := New(KindHang, component, nil)
	e.CheckingForHang = true
	return e
}

// IsKind reports whether err is (or wraps) an *Error of the given kind.
func IsKind(err error, kind Kind) bool {
	var e *Error
	for err != nil {
		if ce, ok := err.(*Error); ok {
			e = ce
			break
		}
		u, ok := err.(interface{ Unwrap() error })
		if !ok {
			break
		}
		err = u.Unwrap()
	}
	return e != nil && e.ErrKind == kind
}

// Pretty renders err the way §7 requires for the fatal pre-exit log line:
// a stringification including the error's own enumerable properties.
func Pretty(err error) string {
	if err == nil {
		return "<nil>"
	}
	if e, ok := err.(*Error); ok {
		return fmt.Sprintf("%s{component=%q cause=%v timeout=%v wasThrown=%v checkingForHang=%v}",
			e.ErrKind, e.Component, e.Cause, e.Timeout, e.WasThrown, e.CheckingForHang)
	}
	return err.Error()
}
