package primitive

import (
	"math"

	"github.com/sparklang/spark/pkg/object"
	"github.com/sparklang/spark/pkg/vmerrors"
)

// intOp computes a binary integer operation; div/mod implementations
// return an error for a zero divisor.
type intOp func(a, b int64) (int64, error)

// floatOp computes a binary float operation.
type floatOp func(a, b float64) (float64, error)

// binaryNumericOp implements the coercion rule shared by every arithmetic
// selector on every numeric class: the operation preserves the receiver's
// type unless the argument is a wider float. A float argument ranking
// above the receiver widens — the receiver's value is read into the
// argument's domain, the argument itself is mutated and returned, and the
// original receiver is popped off the operand stack so the returned
// argument takes its place. Every other numeric argument, wider integers
// included, is cast into the receiver's type and the receiver mutates in
// place (nil result: the send leaves the receiver, now updated, on top of
// the stack). A non-numeric argument is InvalidType.
func binaryNumericOp(ctx *object.Context, selector string, receiver, arg *object.Value, ints intOp, floats floatOp) (*object.Value, error) {
	if arg == nil || !isNumericKind(arg.Kind) {
		return nil, vmerrors.New(vmerrors.InvalidType, "%s: argument is not numeric", selector)
	}

	if isFloatKind(arg.Kind) && rank(arg.Kind) > rank(receiver.Kind) {
		result, err := floats(asFloat(receiver), asFloat(arg))
		if err != nil {
			return nil, err
		}
		setFloat(arg, result)
		ctx.Top().Pop()
		return arg, nil
	}

	if isFloatKind(receiver.Kind) {
		result, err := floats(asFloat(receiver), asFloat(arg))
		if err != nil {
			return nil, err
		}
		setFloat(receiver, result)
		return nil, nil
	}
	result, err := ints(asInt(receiver), asInt(arg))
	if err != nil {
		return nil, err
	}
	setInt(receiver, result)
	return nil, nil
}

func addOp(ctx *object.Context, selector string, receiver, arg *object.Value) (*object.Value, error) {
	return binaryNumericOp(ctx, selector, receiver, arg,
		func(a, b int64) (int64, error) { return a + b, nil },
		func(a, b float64) (float64, error) { return a + b, nil })
}

func subOp(ctx *object.Context, selector string, receiver, arg *object.Value) (*object.Value, error) {
	return binaryNumericOp(ctx, selector, receiver, arg,
		func(a, b int64) (int64, error) { return a - b, nil },
		func(a, b float64) (float64, error) { return a - b, nil })
}

func mulOp(ctx *object.Context, selector string, receiver, arg *object.Value) (*object.Value, error) {
	return binaryNumericOp(ctx, selector, receiver, arg,
		func(a, b int64) (int64, error) { return a * b, nil },
		func(a, b float64) (float64, error) { return a * b, nil })
}

func divOp(ctx *object.Context, selector string, receiver, arg *object.Value) (*object.Value, error) {
	return binaryNumericOp(ctx, selector, receiver, arg,
		func(a, b int64) (int64, error) {
			if b == 0 {
				return 0, vmerrors.New(vmerrors.DivideByZero, "%s: division by zero", selector)
			}
			return a / b, nil
		},
		func(a, b float64) (float64, error) {
			if b == 0 {
				return 0, vmerrors.New(vmerrors.DivideByZero, "%s: division by zero", selector)
			}
			return a / b, nil
		})
}

func modOp(ctx *object.Context, selector string, receiver, arg *object.Value) (*object.Value, error) {
	return binaryNumericOp(ctx, selector, receiver, arg,
		func(a, b int64) (int64, error) {
			if b == 0 {
				return 0, vmerrors.New(vmerrors.DivideByZero, "%s: division by zero", selector)
			}
			return a % b, nil
		},
		func(a, b float64) (float64, error) {
			if b == 0 {
				return 0, vmerrors.New(vmerrors.DivideByZero, "%s: division by zero", selector)
			}
			return math.Mod(a, b), nil
		})
}

// powOp raises the receiver to the argument's power. A negative exponent
// on an integer receiver is InvalidOperation: there is no integer result
// to mutate in place for, say, 2 raised to -1.
func powOp(ctx *object.Context, selector string, receiver, arg *object.Value) (*object.Value, error) {
	return binaryNumericOp(ctx, selector, receiver, arg,
		func(a, b int64) (int64, error) {
			if b < 0 {
				return 0, vmerrors.New(vmerrors.InvalidOperation, "%s: negative exponent on an integer receiver", selector)
			}
			result := int64(1)
			for i := int64(0); i < b; i++ {
				result *= a
			}
			return result, nil
		},
		func(a, b float64) (float64, error) { return math.Pow(a, b), nil })
}

// absOp mutates the receiver to its absolute value.
func absOp(receiver *object.Value) {
	if isFloatKind(receiver.Kind) {
		setFloat(receiver, math.Abs(asFloat(receiver)))
		return
	}
	n := asInt(receiver)
	if n < 0 {
		n = -n
	}
	setInt(receiver, n)
}

// isZeroOp reports whether the receiver's numeric value is zero.
func isZeroOp(receiver *object.Value) bool {
	if isFloatKind(receiver.Kind) {
		return asFloat(receiver) == 0
	}
	return asInt(receiver) == 0
}
