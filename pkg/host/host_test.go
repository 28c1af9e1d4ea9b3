package host

import (
	"bytes"
	"errors"
	"os"
	"strings"
	"testing"

	"github.com/sirupsen/logrus"

	"github.com/sparklang/spark/pkg/class"
	"github.com/sparklang/spark/pkg/object"
	"github.com/sparklang/spark/pkg/primitive"
	"github.com/sparklang/spark/pkg/task"
	"github.com/sparklang/spark/pkg/vmerrors"
)

func newTestRegistry(t *testing.T, log *logrus.Logger) (*class.Registry, *task.Mailbox) {
	t.Helper()
	if log == nil {
		log = logrus.New()
		log.SetLevel(logrus.ErrorLevel)
	}
	mailbox := task.NewMailbox(4)
	r := class.NewRegistry()
	class.Bootstrap(r)
	primitive.Bootstrap(r)
	Bootstrap(r, mailbox, log)
	return r, mailbox
}

// call invokes a native selector with args bound in a fresh context.
func call(t *testing.T, receiver *object.Value, selector string, args ...*object.Value) (*object.Value, error) {
	t.Helper()
	ctx := object.NewContext(nil, nil, nil)
	ctx.Top().Receiver = receiver
	ctx.Top().Arguments = args
	m, _ := class.Lookup(receiver, selector)
	if m == nil {
		t.Fatalf("%s does not resolve %q", receiver.Class, selector)
	}
	return m.Native(receiver, ctx)
}

func TestLoggerLevelsRouteThroughLogrus(t *testing.T) {
	var buf bytes.Buffer
	log := logrus.New()
	log.SetOutput(&buf)
	log.SetLevel(logrus.TraceLevel)

	r, _ := newTestRegistry(t, log)
	logger, err := r.New("Logger", nil)
	if err != nil {
		t.Fatalf("building Logger: %v", err)
	}

	for _, selector := range []string{"info", "trace", "debug", "warn", "error"} {
		buf.Reset()
		msg, _ := r.NewPrimitive("String", "ping from "+selector)
		if _, err := call(t, logger, selector, msg); err != nil {
			t.Fatalf("%s failed: %v", selector, err)
		}
		if !strings.Contains(buf.String(), "ping from "+selector) {
			t.Errorf("%s: expected the message on the logrus stream, got %q", selector, buf.String())
		}
	}
}

func TestLoggerRejectsNonStringArgument(t *testing.T) {
	r, _ := newTestRegistry(t, nil)
	logger, _ := r.New("Logger", nil)
	notAString, _ := r.NewPrimitive("I64", int64(5))
	_, err := call(t, logger, "println", notAString)
	var re *vmerrors.RuntimeError
	if !errors.As(err, &re) || re.Kind != vmerrors.InvalidType {
		t.Fatalf("expected InvalidType, got %v", err)
	}
}

func TestStackPushPop(t *testing.T) {
	r, _ := newTestRegistry(t, nil)
	frame := object.NewFrame()
	stack, err := NewStack(r, frame)
	if err != nil {
		t.Fatalf("NewStack: %v", err)
	}

	v, _ := r.NewPrimitive("I64", int64(3))
	if _, err := call(t, stack, "push", v); err != nil {
		t.Fatalf("push: %v", err)
	}
	if frame.Len() != 1 {
		t.Fatalf("expected the wrapped frame to hold 1 value, got %d", frame.Len())
	}

	popped, err := call(t, stack, "pop")
	if err != nil {
		t.Fatalf("pop: %v", err)
	}
	if popped != v {
		t.Error("pop must answer the pushed value")
	}

	_, err = call(t, stack, "pop")
	var re *vmerrors.RuntimeError
	if !errors.As(err, &re) || re.Kind != vmerrors.InvalidOperation {
		t.Fatalf("popping an empty stack: expected InvalidOperation, got %v", err)
	}
}

func TestMessageCarriesNameAndArgCount(t *testing.T) {
	r, _ := newTestRegistry(t, nil)
	msg, err := NewMessage(r, "add", 1)
	if err != nil {
		t.Fatalf("NewMessage: %v", err)
	}
	name, err := call(t, msg, "name")
	if err != nil {
		t.Fatalf("name: %v", err)
	}
	if s, _ := name.Payload.(string); s != "add" {
		t.Errorf("expected selector \"add\", got %q", s)
	}
	count, err := call(t, msg, "arg_count")
	if err != nil {
		t.Fatalf("arg_count: %v", err)
	}
	if n, _ := count.Payload.(int64); n != 1 {
		t.Errorf("expected arg count 1, got %d", n)
	}
}

func TestSpawnRejectsNonBlock(t *testing.T) {
	r, _ := newTestRegistry(t, nil)
	system, _ := r.New("System", nil)
	notABlock, _ := r.NewPrimitive("String", "nope")
	_, err := call(t, system, "spawn", notABlock)
	var re *vmerrors.RuntimeError
	if !errors.As(err, &re) || re.Kind != vmerrors.InvalidType {
		t.Fatalf("expected InvalidType, got %v", err)
	}
}

func TestSystemStackWrapsSendingFrame(t *testing.T) {
	r, _ := newTestRegistry(t, nil)
	system, _ := r.New("System", nil)

	ctx := object.NewContext(nil, nil, nil)
	marker, _ := r.NewPrimitive("I64", int64(42))
	ctx.Top().Push(marker)

	m, _ := class.Lookup(system, "stack")
	result, err := m.Native(system, ctx)
	if err != nil {
		t.Fatalf("stack: %v", err)
	}
	wrapped, ok := result.Payload.(*object.Frame)
	if !ok || wrapped != ctx.Top() {
		t.Error("System.stack must wrap the frame that sent the message")
	}
}

func TestSystemPid(t *testing.T) {
	if got := systemPID(); got != int64(os.Getpid()) {
		t.Errorf("expected pid %d, got %d", os.Getpid(), got)
	}
}
