package vmerrors

import (
	"errors"
	"io"
	"strings"
	"testing"
)

func TestFaultNames(t *testing.T) {
	cases := map[Fault]string{
		NotImplemented:   "NotImplemented",
		InvalidOperation: "InvalidOperation",
		InvalidType:      "InvalidType",
		DivideByZero:     "DivideByZero",
		IO:               "IO",
		MethodNotFound:   "MethodNotFound",
	}
	for fault, want := range cases {
		if got := fault.String(); got != want {
			t.Errorf("expected %q, got %q", want, got)
		}
	}
}

func TestRuntimeErrorMessage(t *testing.T) {
	err := New(DivideByZero, "div: division by zero")
	if got := err.Error(); got != "DivideByZero: div: division by zero" {
		t.Errorf("unexpected message %q", got)
	}

	err.Push(StackFrame{Receiver: "a I64", Selector: "div", IP: 2})
	if got := err.Error(); !strings.Contains(got, "a I64") || !strings.Contains(got, "div") {
		t.Errorf("trace frame missing from %q", got)
	}
}

func TestWrapCarriesCause(t *testing.T) {
	err := Wrap(io.ErrUnexpectedEOF)
	if err.Kind != IO {
		t.Errorf("expected an IO fault, got %s", err.Kind)
	}
	if !errors.Is(err, io.ErrUnexpectedEOF) {
		t.Error("the wrapped cause must be reachable through errors.Is")
	}
}

func TestHaltSentinel(t *testing.T) {
	if !IsHalt(ErrHalt()) {
		t.Error("ErrHalt must satisfy IsHalt")
	}
	if IsHalt(New(InvalidType, "nope")) {
		t.Error("a fault is never a halt")
	}
	if IsHalt(nil) {
		t.Error("nil is not a halt")
	}
}
