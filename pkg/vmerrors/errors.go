// Package vmerrors defines the fault taxonomy raised by the interpreter and
// the runtime error type that carries a stack trace back to the host.
package vmerrors

import (
	"errors"
	"fmt"
	"strings"
)

// Fault is the closed set of program-observable failure kinds a native
// method or the interpreter itself may raise.
type Fault int

const (
	// NotImplemented is raised when an abstract method is reached without
	// an override providing real behavior.
	NotImplemented Fault = iota
	// InvalidOperation is raised when a method's preconditions are violated.
	InvalidOperation
	// InvalidType is raised when a coercion or downcast fails, or a class
	// name is unknown to the registry.
	InvalidType
	// DivideByZero is raised by arithmetic with a zero divisor.
	DivideByZero
	// IO wraps a failure from a host I/O operation.
	IO
	// MethodNotFound is raised when a vtable walk reaches the root without
	// a hit for the requested selector.
	MethodNotFound
)

func (f Fault) String() string {
	switch f {
	case NotImplemented:
		return "NotImplemented"
	case InvalidOperation:
		return "InvalidOperation"
	case InvalidType:
		return "InvalidType"
	case DivideByZero:
		return "DivideByZero"
	case IO:
		return "IO"
	case MethodNotFound:
		return "MethodNotFound"
	default:
		return "UnknownFault"
	}
}

// StackFrame describes a single activation at the point a fault was raised.
type StackFrame struct {
	Receiver string // to_string of the receiver, best effort
	Selector string // the message selector being sent, if any
	IP       int    // instruction pointer within the frame's block
}

// RuntimeError is the error type the interpreter returns when a native
// method faults or a send fails to resolve. It carries the fault kind, a
// human description, and the activation stack captured at the point of
// failure so the host driver can print a diagnostic before the task
// terminates.
type RuntimeError struct {
	Kind    Fault
	Message string
	Trace   []StackFrame
	Cause   error
}

// New creates a RuntimeError of the given kind with no trace attached yet.
// Callers append trace frames as the error unwinds through send/super-send.
func New(kind Fault, format string, args ...interface{}) *RuntimeError {
	return &RuntimeError{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// Wrap creates an IO fault wrapping a host error.
func Wrap(err error) *RuntimeError {
	return &RuntimeError{Kind: IO, Message: err.Error(), Cause: err}
}

func (e *RuntimeError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s: %s", e.Kind, e.Message)
	for i := len(e.Trace) - 1; i >= 0; i-- {
		f := e.Trace[i]
		fmt.Fprintf(&b, "\n  at %s", f.Receiver)
		if f.Selector != "" {
			fmt.Fprintf(&b, " (selector: %s)", f.Selector)
		}
		fmt.Fprintf(&b, " [ip %d]", f.IP)
	}
	return b.String()
}

func (e *RuntimeError) Unwrap() error { return e.Cause }

// Push appends a trace frame, innermost call first, as the error unwinds.
func (e *RuntimeError) Push(frame StackFrame) {
	e.Trace = append(e.Trace, frame)
}

// errHalt is the sentinel returned by the interpreter loop when it reaches a
// Halt instruction. Halt is a clean termination, never a Fault, so it is
// represented outside the RuntimeError/Fault type rather than as one more
// enum value.
var errHalt = errors.New("halt")

// ErrHalt is returned from the interpreter's run loop to signal a clean
// Halt. Check for it with errors.Is.
func ErrHalt() error { return errHalt }

// IsHalt reports whether err is the Halt sentinel.
func IsHalt(err error) bool { return errors.Is(err, errHalt) }
