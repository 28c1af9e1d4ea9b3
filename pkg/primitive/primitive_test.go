package primitive

import (
	"errors"
	"math"
	"testing"

	"github.com/sparklang/spark/pkg/class"
	"github.com/sparklang/spark/pkg/object"
	"github.com/sparklang/spark/pkg/vmerrors"
)

func newTestRegistry() *class.Registry {
	r := class.NewRegistry()
	class.Bootstrap(r)
	Bootstrap(r)
	return r
}

// send resolves selector on receiver and invokes the native method the
// way a SendMsg instruction would: receiver on the operand stack, args in
// the context's argument slots. It returns the method's result and the
// value left on top of the stack afterwards.
func send(t *testing.T, receiver *object.Value, selector string, args ...*object.Value) (*object.Value, *object.Value, error) {
	t.Helper()
	ctx := object.NewContext(nil, nil, nil)
	frame := ctx.Top()
	frame.Push(receiver)
	frame.Receiver = receiver
	frame.Arguments = args

	m, _ := class.Lookup(receiver, selector)
	if m == nil {
		t.Fatalf("%s does not resolve %q", receiver.Class, selector)
	}
	if !m.IsNative() {
		t.Fatalf("%s.%s is not native", receiver.Class, selector)
	}
	result, err := m.Native(receiver, ctx)
	if result != nil && err == nil {
		frame.Push(result)
	}
	top, _ := frame.Top()
	return result, top, err
}

func mustNew(t *testing.T, r *class.Registry, className string, payload interface{}) *object.Value {
	t.Helper()
	v, err := r.NewPrimitive(className, payload)
	if err != nil {
		t.Fatalf("NewPrimitive(%s): %v", className, err)
	}
	return v
}

var intClasses = []struct {
	name    string
	payload func(int64) interface{}
}{
	{"I8", func(n int64) interface{} { return int8(n) }},
	{"I16", func(n int64) interface{} { return int16(n) }},
	{"I32", func(n int64) interface{} { return int32(n) }},
	{"I64", func(n int64) interface{} { return n }},
	{"U8", func(n int64) interface{} { return uint8(n) }},
	{"U16", func(n int64) interface{} { return uint16(n) }},
	{"U32", func(n int64) interface{} { return uint32(n) }},
	{"U64", func(n int64) interface{} { return uint64(n) }},
}

// TestArithmeticPreservesReceiverType checks the type-preservation
// property: for every integer receiver/argument pair — wider arguments
// included — add casts the argument into the receiver's type and mutates
// the receiver in place.
func TestArithmeticPreservesReceiverType(t *testing.T) {
	r := newTestRegistry()
	for _, recv := range intClasses {
		for _, arg := range intClasses {
			receiver := mustNew(t, r, recv.name, recv.payload(10))
			argument := mustNew(t, r, arg.name, arg.payload(3))
			result, top, err := send(t, receiver, "add", argument)
			if err != nil {
				t.Fatalf("%s add %s: %v", recv.name, arg.name, err)
			}
			if result != nil {
				t.Errorf("%s add %s: in-place op must not return a value", recv.name, arg.name)
			}
			if top != receiver || top.Class != recv.name {
				t.Errorf("%s add %s: receiver must stay on top with its own type", recv.name, arg.name)
			}
			if got := asInt(receiver); got != 13 {
				t.Errorf("%s add %s: expected 13, got %d", recv.name, arg.name, got)
			}
		}
	}
}

func TestWiderIntegerArgumentTruncatesIntoReceiver(t *testing.T) {
	r := newTestRegistry()
	receiver := mustNew(t, r, "I8", int8(1))
	argument := mustNew(t, r, "I64", int64(0x1FF))
	result, top, err := send(t, receiver, "add", argument)
	if err != nil {
		t.Fatalf("add: %v", err)
	}
	if result != nil || top != receiver || receiver.Class != "I8" {
		t.Fatal("a wider integer argument must still mutate the receiver in place")
	}
	// 1 + 0x1FF wraps at the receiver's width: int8(0x200) is 0.
	if got, _ := receiver.Payload.(int8); got != 0 {
		t.Errorf("expected int8 wraparound to 0, got %d", got)
	}
}

// TestArithmeticWidensToFloatArgument checks the float-widening property:
// an integer receiver with a float argument adopts the argument's type,
// and the argument itself comes back as the result.
func TestArithmeticWidensToFloatArgument(t *testing.T) {
	r := newTestRegistry()
	for _, recv := range intClasses {
		for _, floatName := range []string{"F32", "F64"} {
			receiver := mustNew(t, r, recv.name, recv.payload(3))
			var argument *object.Value
			if floatName == "F32" {
				argument = mustNew(t, r, "F32", float32(0.5))
			} else {
				argument = mustNew(t, r, "F64", float64(0.5))
			}
			result, top, err := send(t, receiver, "add", argument)
			if err != nil {
				t.Fatalf("%s add %s: %v", recv.name, floatName, err)
			}
			if result != argument {
				t.Fatalf("%s add %s: the argument itself must be returned", recv.name, floatName)
			}
			if top != argument {
				t.Errorf("%s add %s: the receiver must be replaced on the stack", recv.name, floatName)
			}
			if got := asFloat(result); got != 3.5 {
				t.Errorf("%s add %s: expected 3.5, got %v", recv.name, floatName, got)
			}
		}
	}
}

func TestFloatReceiverStaysFloat(t *testing.T) {
	r := newTestRegistry()
	receiver := mustNew(t, r, "F64", float64(1.5))
	argument := mustNew(t, r, "I64", int64(2))
	result, top, err := send(t, receiver, "mul", argument)
	if err != nil {
		t.Fatalf("mul: %v", err)
	}
	if result != nil || top != receiver {
		t.Fatal("a float receiver with a narrower argument mutates in place")
	}
	if got := asFloat(receiver); got != 3.0 {
		t.Errorf("expected 3.0, got %v", got)
	}
}

func TestDivideByZeroFaults(t *testing.T) {
	r := newTestRegistry()
	for _, selector := range []string{"div", "mod"} {
		receiver := mustNew(t, r, "I64", int64(10))
		argument := mustNew(t, r, "I64", int64(0))
		_, _, err := send(t, receiver, selector, argument)
		var re *vmerrors.RuntimeError
		if !errors.As(err, &re) || re.Kind != vmerrors.DivideByZero {
			t.Errorf("%s by zero: expected DivideByZero, got %v", selector, err)
		}
	}
}

func TestNonNumericArgumentIsInvalidType(t *testing.T) {
	r := newTestRegistry()
	receiver := mustNew(t, r, "I64", int64(10))
	argument := mustNew(t, r, "String", "nope")
	_, _, err := send(t, receiver, "add", argument)
	var re *vmerrors.RuntimeError
	if !errors.As(err, &re) || re.Kind != vmerrors.InvalidType {
		t.Errorf("expected InvalidType, got %v", err)
	}
}

func TestPowNegativeIntegerExponentIsInvalidOperation(t *testing.T) {
	r := newTestRegistry()
	receiver := mustNew(t, r, "U32", uint32(2))
	argument := mustNew(t, r, "I8", int8(-1))
	_, _, err := send(t, receiver, "pow", argument)
	var re *vmerrors.RuntimeError
	if !errors.As(err, &re) || re.Kind != vmerrors.InvalidOperation {
		t.Errorf("expected InvalidOperation, got %v", err)
	}
}

func TestPow(t *testing.T) {
	r := newTestRegistry()
	receiver := mustNew(t, r, "I64", int64(2))
	argument := mustNew(t, r, "I64", int64(10))
	if _, _, err := send(t, receiver, "pow", argument); err != nil {
		t.Fatalf("pow: %v", err)
	}
	if got := asInt(receiver); got != 1024 {
		t.Errorf("expected 1024, got %d", got)
	}

	f := mustNew(t, r, "F64", float64(2))
	half := mustNew(t, r, "F64", float64(0.5))
	if _, _, err := send(t, f, "pow", half); err != nil {
		t.Fatalf("float pow: %v", err)
	}
	if got := asFloat(f); math.Abs(got-math.Sqrt2) > 1e-12 {
		t.Errorf("expected sqrt(2), got %v", got)
	}
}

func TestAbsAndIsZero(t *testing.T) {
	r := newTestRegistry()
	v := mustNew(t, r, "I32", int32(-5))
	if _, _, err := send(t, v, "abs"); err != nil {
		t.Fatalf("abs: %v", err)
	}
	if got := asInt(v); got != 5 {
		t.Errorf("expected 5, got %d", got)
	}

	zero := mustNew(t, r, "I32", int32(0))
	result, _, err := send(t, zero, "is_zero")
	if err != nil {
		t.Fatalf("is_zero: %v", err)
	}
	if b, _ := result.Payload.(bool); !b {
		t.Error("expected is_zero true for 0")
	}
}

func TestIntegerBitwiseAndShifts(t *testing.T) {
	r := newTestRegistry()
	cases := []struct {
		selector string
		a, b     int64
		want     int64
	}{
		{"and", 0b1100, 0b1010, 0b1000},
		{"or", 0b1100, 0b1010, 0b1110},
		{"xor", 0b1100, 0b1010, 0b0110},
		{"shift_left", 1, 4, 16},
		{"shift_right", 16, 2, 4},
	}
	for _, tc := range cases {
		receiver := mustNew(t, r, "I64", tc.a)
		argument := mustNew(t, r, "I64", tc.b)
		if _, _, err := send(t, receiver, tc.selector, argument); err != nil {
			t.Fatalf("%s: %v", tc.selector, err)
		}
		if got := asInt(receiver); got != tc.want {
			t.Errorf("%d %s %d: expected %d, got %d", tc.a, tc.selector, tc.b, tc.want, got)
		}
	}
}

func TestDivides(t *testing.T) {
	r := newTestRegistry()
	two := mustNew(t, r, "I64", int64(2))
	ten := mustNew(t, r, "I64", int64(10))
	result, _, err := send(t, two, "divides", ten)
	if err != nil {
		t.Fatalf("divides: %v", err)
	}
	if b, _ := result.Payload.(bool); !b {
		t.Error("2 divides 10")
	}

	three := mustNew(t, r, "I64", int64(3))
	result, _, err = send(t, three, "divides", ten)
	if err != nil {
		t.Fatalf("divides: %v", err)
	}
	if b, _ := result.Payload.(bool); b {
		t.Error("3 does not divide 10")
	}
}

func TestNumericEqualsAcrossWidths(t *testing.T) {
	r := newTestRegistry()
	a := mustNew(t, r, "I8", int8(7))
	b := mustNew(t, r, "U64", uint64(7))
	result, _, err := send(t, a, "equals", b)
	if err != nil {
		t.Fatalf("equals: %v", err)
	}
	if eq, _ := result.Payload.(bool); !eq {
		t.Error("numeric equals compares by value across widths")
	}
}

func TestNumericOrder(t *testing.T) {
	r := newTestRegistry()
	a := mustNew(t, r, "I64", int64(1))
	b := mustNew(t, r, "F64", float64(2.5))
	result, _, err := send(t, a, "order", b)
	if err != nil {
		t.Fatalf("order: %v", err)
	}
	if got, _ := result.Payload.(int8); got != -1 {
		t.Errorf("expected -1, got %d", got)
	}
}

func TestIntegerToString(t *testing.T) {
	r := newTestRegistry()
	cases := []struct {
		class   string
		payload interface{}
		want    string
	}{
		{"I64", int64(-42), "-42"},
		{"U64", uint64(math.MaxUint64), "18446744073709551615"},
		{"I8", int8(7), "7"},
	}
	for _, tc := range cases {
		v := mustNew(t, r, tc.class, tc.payload)
		result, _, err := send(t, v, "to_string")
		if err != nil {
			t.Fatalf("%s to_string: %v", tc.class, err)
		}
		if got, _ := result.Payload.(string); got != tc.want {
			t.Errorf("%s to_string: expected %q, got %q", tc.class, tc.want, got)
		}
	}
}

func TestFloatPredicatesAndRounding(t *testing.T) {
	r := newTestRegistry()

	nan := mustNew(t, r, "F64", math.NaN())
	result, _, err := send(t, nan, "is_nan")
	if err != nil {
		t.Fatalf("is_nan: %v", err)
	}
	if b, _ := result.Payload.(bool); !b {
		t.Error("NaN must answer is_nan true")
	}

	inf := mustNew(t, r, "F64", math.Inf(1))
	result, _, err = send(t, inf, "is_finite")
	if err != nil {
		t.Fatalf("is_finite: %v", err)
	}
	if b, _ := result.Payload.(bool); b {
		t.Error("infinity is not finite")
	}

	v := mustNew(t, r, "F64", float64(2.7))
	if _, _, err := send(t, v, "floor"); err != nil {
		t.Fatalf("floor: %v", err)
	}
	if got := asFloat(v); got != 2.0 {
		t.Errorf("floor: expected 2.0, got %v", got)
	}

	v = mustNew(t, r, "F32", float32(2.25))
	if _, _, err := send(t, v, "ceil"); err != nil {
		t.Fatalf("ceil: %v", err)
	}
	if got := asFloat(v); got != 3.0 {
		t.Errorf("ceil: expected 3.0, got %v", got)
	}
	if v.Class != "F32" {
		t.Errorf("ceil must preserve the receiver's class, got %s", v.Class)
	}
}

func TestFloatTrigAndLogs(t *testing.T) {
	r := newTestRegistry()

	v := mustNew(t, r, "F64", float64(0))
	if _, _, err := send(t, v, "sin"); err != nil {
		t.Fatalf("sin: %v", err)
	}
	if got := asFloat(v); got != 0 {
		t.Errorf("sin(0): expected 0, got %v", got)
	}

	v = mustNew(t, r, "F64", math.E)
	if _, _, err := send(t, v, "nat_log"); err != nil {
		t.Fatalf("nat_log: %v", err)
	}
	if got := asFloat(v); math.Abs(got-1) > 1e-12 {
		t.Errorf("ln(e): expected 1, got %v", got)
	}

	v = mustNew(t, r, "F64", float64(8))
	base := mustNew(t, r, "F64", float64(2))
	if _, _, err := send(t, v, "log", base); err != nil {
		t.Fatalf("log: %v", err)
	}
	if got := asFloat(v); math.Abs(got-3) > 1e-12 {
		t.Errorf("log2(8): expected 3, got %v", got)
	}

	v = mustNew(t, r, "F64", float64(3))
	other := mustNew(t, r, "F64", float64(4))
	if _, _, err := send(t, v, "hypotenuse", other); err != nil {
		t.Fatalf("hypotenuse: %v", err)
	}
	if got := asFloat(v); got != 5 {
		t.Errorf("hypot(3,4): expected 5, got %v", got)
	}
}

func TestBooleanOps(t *testing.T) {
	r := newTestRegistry()
	tr := mustNew(t, r, "Boolean", true)
	fa := mustNew(t, r, "Boolean", false)

	result, _, err := send(t, tr, "and", fa)
	if err != nil {
		t.Fatalf("and: %v", err)
	}
	if b, _ := result.Payload.(bool); b {
		t.Error("true and false is false")
	}

	result, _, err = send(t, tr, "or", fa)
	if err != nil {
		t.Fatalf("or: %v", err)
	}
	if b, _ := result.Payload.(bool); !b {
		t.Error("true or false is true")
	}

	result, _, err = send(t, fa, "not")
	if err != nil {
		t.Fatalf("not: %v", err)
	}
	if b, _ := result.Payload.(bool); !b {
		t.Error("not false is true")
	}

	result, _, err = send(t, tr, "to_string")
	if err != nil {
		t.Fatalf("to_string: %v", err)
	}
	if s, _ := result.Payload.(string); s != "true" {
		t.Errorf("expected \"true\", got %q", s)
	}
}

func TestStringOps(t *testing.T) {
	r := newTestRegistry()
	s := mustNew(t, r, "String", "héllo")

	result, _, err := send(t, s, "length")
	if err != nil {
		t.Fatalf("length: %v", err)
	}
	if got := asInt(result); got != 5 {
		t.Errorf("rune length of %q: expected 5, got %d", "héllo", got)
	}

	other := mustNew(t, r, "String", " world")
	result, _, err = send(t, s, "concat", other)
	if err != nil {
		t.Fatalf("concat: %v", err)
	}
	if got, _ := result.Payload.(string); got != "héllo world" {
		t.Errorf("concat: got %q", got)
	}

	idx := mustNew(t, r, "I64", int64(1))
	result, _, err = send(t, s, "get", idx)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if c, _ := result.Payload.(rune); c != 'é' {
		t.Errorf("get(1): expected 'é', got %q", c)
	}

	outOfRange := mustNew(t, r, "I64", int64(99))
	_, _, err = send(t, s, "get", outOfRange)
	var re *vmerrors.RuntimeError
	if !errors.As(err, &re) || re.Kind != vmerrors.InvalidOperation {
		t.Errorf("get out of range: expected InvalidOperation, got %v", err)
	}

	a := mustNew(t, r, "String", "abc")
	b := mustNew(t, r, "String", "abd")
	result, _, err = send(t, a, "order", b)
	if err != nil {
		t.Fatalf("order: %v", err)
	}
	if got, _ := result.Payload.(int8); got != -1 {
		t.Errorf("\"abc\" order \"abd\": expected -1, got %d", got)
	}
}

func TestCharOps(t *testing.T) {
	r := newTestRegistry()
	c := mustNew(t, r, "Char", 'a')

	result, _, err := send(t, c, "is_alpha")
	if err != nil {
		t.Fatalf("is_alpha: %v", err)
	}
	if b, _ := result.Payload.(bool); !b {
		t.Error("'a' is alphabetic")
	}

	result, _, err = send(t, c, "to_upper")
	if err != nil {
		t.Fatalf("to_upper: %v", err)
	}
	if got, _ := result.Payload.(rune); got != 'A' {
		t.Errorf("to_upper('a'): expected 'A', got %q", got)
	}

	d := mustNew(t, r, "Char", '7')
	result, _, err = send(t, d, "is_digit")
	if err != nil {
		t.Fatalf("is_digit: %v", err)
	}
	if b, _ := result.Payload.(bool); !b {
		t.Error("'7' is a digit")
	}
}

func TestVectorLengthGetSetConcat(t *testing.T) {
	r := newTestRegistry()
	one := mustNew(t, r, "I64", int64(1))
	two := mustNew(t, r, "I64", int64(2))
	v := mustNew(t, r, "Vector", []*object.Value{one, two})

	result, _, err := send(t, v, "length")
	if err != nil {
		t.Fatalf("length: %v", err)
	}
	if got := asInt(result); got != 2 {
		t.Errorf("length: expected 2, got %d", got)
	}

	idx := mustNew(t, r, "I64", int64(1))
	result, _, err = send(t, v, "get", idx)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if result != two {
		t.Error("get(1) must answer the stored element")
	}

	three := mustNew(t, r, "I64", int64(3))
	idx0 := mustNew(t, r, "I64", int64(0))
	if _, _, err := send(t, v, "set", idx0, three); err != nil {
		t.Fatalf("set: %v", err)
	}
	if got := asVector(v)[0]; got != three {
		t.Error("set(0, v) must replace the element")
	}

	w := mustNew(t, r, "Vector", []*object.Value{one})
	result, _, err = send(t, v, "concat", w)
	if err != nil {
		t.Fatalf("concat: %v", err)
	}
	if got := len(asVector(result)); got != 3 {
		t.Errorf("concat: expected 3 elements, got %d", got)
	}
}

func TestNumberLevelWithoutConcreteTypeIsNotImplemented(t *testing.T) {
	r := newTestRegistry()
	// A user class inheriting Number directly reaches the abstract
	// arithmetic protocol.
	r.DeclareParent("Quantity", "Number")
	r.Register(&class.Class{Name: "Quantity"})
	v, err := r.New("Quantity", nil)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	_, _, err = send(t, v, "add", v)
	var re *vmerrors.RuntimeError
	if !errors.As(err, &re) || re.Kind != vmerrors.NotImplemented {
		t.Errorf("expected NotImplemented, got %v", err)
	}
}
