package primitive

import (
	"math"

	"github.com/sparklang/spark/pkg/class"
	"github.com/sparklang/spark/pkg/object"
	"github.com/sparklang/spark/pkg/vmerrors"
)

// registerFloat installs the Float class between Number and F32/F64. Its
// own Base carries the transcendental protocol a concrete width overrides:
// the predicates (is_nan, is_infinity, is_finite, is_normal), rounding
// (floor, ceil), and the logarithmic/trigonometric family.
func registerFloat(r *class.Registry) {
	r.DeclareParent("Float", "Number")
	r.Register(&class.Class{
		Name: "Float",
		Base: object.VTable{
			"floor":       object.NewNative(notImplemented("floor")),
			"ceil":        object.NewNative(notImplemented("ceil")),
			"is_nan":      object.NewNative(notImplemented("is_nan")),
			"is_infinity": object.NewNative(notImplemented("is_infinity")),
			"is_finite":   object.NewNative(notImplemented("is_finite")),
			"is_normal":   object.NewNative(notImplemented("is_normal")),
			"nat_log":     object.NewNative(notImplemented("nat_log")),
			"log":         object.NewNative(notImplemented("log")),
			"hypotenuse":  object.NewNative(notImplemented("hypotenuse")),
			"sin":         object.NewNative(notImplemented("sin")),
			"cos":         object.NewNative(notImplemented("cos")),
			"tan":         object.NewNative(notImplemented("tan")),
			"arcsin":      object.NewNative(notImplemented("arcsin")),
			"arccos":      object.NewNative(notImplemented("arccos")),
			"arctan":      object.NewNative(notImplemented("arctan")),
		},
	})
}

// unaryFloat builds a native method that mutates the receiver in place via
// fn, answering nothing (the interpreter leaves the mutated receiver on
// the stack) — the pattern every rounding/trig selector below shares.
func unaryFloat(fn func(float64) float64) object.NativeFunc {
	return func(receiver *object.Value, ctx *object.Context) (*object.Value, error) {
		setFloat(receiver, fn(asFloat(receiver)))
		return nil, nil
	}
}

// unaryFloatPredicate builds a native method answering a fresh Boolean
// computed from the receiver's value, without mutating it.
func unaryFloatPredicate(r *class.Registry, fn func(float64) bool) object.NativeFunc {
	return func(receiver *object.Value, ctx *object.Context) (*object.Value, error) {
		return r.NewPrimitive("Boolean", fn(asFloat(receiver)))
	}
}

func floatOverride(r *class.Registry) object.VTable {
	return object.VTable{
		"floor":       object.NewNative(unaryFloat(math.Floor)),
		"ceil":        object.NewNative(unaryFloat(math.Ceil)),
		"is_nan":      object.NewNative(unaryFloatPredicate(r, math.IsNaN)),
		"is_infinity": object.NewNative(unaryFloatPredicate(r, func(f float64) bool { return math.IsInf(f, 0) })),
		"is_finite": object.NewNative(unaryFloatPredicate(r, func(f float64) bool {
			return !math.IsNaN(f) && !math.IsInf(f, 0)
		})),
		"is_normal": object.NewNative(unaryFloatPredicate(r, func(f float64) bool { return f != 0 && !math.IsNaN(f) && !math.IsInf(f, 0) && !isSubnormal(f) })),
		"nat_log":   object.NewNative(unaryFloat(math.Log)),
		"sin":       object.NewNative(unaryFloat(math.Sin)),
		"cos":       object.NewNative(unaryFloat(math.Cos)),
		"tan":       object.NewNative(unaryFloat(math.Tan)),
		"arcsin":    object.NewNative(unaryFloat(math.Asin)),
		"arccos":    object.NewNative(unaryFloat(math.Acos)),
		"arctan":    object.NewNative(unaryFloat(math.Atan)),
		"log": object.NewNative(func(receiver *object.Value, ctx *object.Context) (*object.Value, error) {
			arg := ctx.Argument(0)
			if arg == nil || !isNumericKind(arg.Kind) {
				return nil, vmerrors.New(vmerrors.InvalidType, "log: argument is not numeric")
			}
			base := asFloat(arg)
			setFloat(receiver, math.Log(asFloat(receiver))/math.Log(base))
			return nil, nil
		}),
		"hypotenuse": object.NewNative(func(receiver *object.Value, ctx *object.Context) (*object.Value, error) {
			arg := ctx.Argument(0)
			if arg == nil || !isNumericKind(arg.Kind) {
				return nil, vmerrors.New(vmerrors.InvalidType, "hypotenuse: argument is not numeric")
			}
			setFloat(receiver, math.Hypot(asFloat(receiver), asFloat(arg)))
			return nil, nil
		}),
	}
}

func isSubnormal(f float64) bool {
	af := math.Abs(f)
	return af > 0 && af < math.SmallestNonzeroFloat64*(1<<52)
}

var floatWidths = []struct {
	name string
	kind object.Kind
}{
	{"F32", object.KindF32}, {"F64", object.KindF64},
}

func bootstrapFloats(r *class.Registry) {
	for _, w := range floatWidths {
		name, kind := w.name, w.kind
		r.DeclareParent(name, "Float")
		r.Register(&class.Class{
			Name: name,
			Kind: kind,
			Overrides: []class.Override{
				{Depth: 1, VTable: floatOverride(r)},
				{Depth: 2, VTable: numberOverride(r)},
				{Depth: 3, VTable: objectOverride(r, func(v *object.Value) string { return floatToString(v) })},
			},
		})
	}
}

// NewFloat constructs a fully initialized float instance of the given
// class name (F32 or F64) holding f.
func NewFloat(r *class.Registry, className string, f float64) (*object.Value, error) {
	v, err := r.Construct(className, nil)
	if err != nil {
		return nil, err
	}
	if v.Kind != object.KindF32 && v.Kind != object.KindF64 {
		return nil, vmerrors.New(vmerrors.InvalidType, "%s is not a float class", className)
	}
	setFloat(v, f)
	if err := r.Initialize(v); err != nil {
		return nil, err
	}
	return v, nil
}
