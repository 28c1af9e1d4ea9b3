package primitive

import (
	"github.com/sparklang/spark/pkg/class"
	"github.com/sparklang/spark/pkg/object"
	"github.com/sparklang/spark/pkg/vmerrors"
)

// registerInteger installs the Integer class between Number and the eight
// concrete widths. Its own Base carries the bitwise protocol, kept at the
// single Integer level since bit operations are not part of the float
// side of the tower.
func registerInteger(r *class.Registry) {
	r.DeclareParent("Integer", "Number")
	r.Register(&class.Class{
		Name: "Integer",
		Base: object.VTable{
			"and":         object.NewNative(notImplemented("and")),
			"or":          object.NewNative(notImplemented("or")),
			"xor":         object.NewNative(notImplemented("xor")),
			"shift_left":  object.NewNative(notImplemented("shift_left")),
			"shift_right": object.NewNative(notImplemented("shift_right")),
			"is_even":     object.NewNative(notImplemented("is_even")),
			"is_odd":      object.NewNative(notImplemented("is_odd")),
			"divides":     object.NewNative(notImplemented("divides")),
		},
	})
}

// integerOverride builds the Integer-depth override layer a concrete
// integer width installs: real bitwise operations on its own width.
func integerOverride(r *class.Registry) object.VTable {
	bitOp := func(name string, combine func(a, b int64) int64) object.NativeFunc {
		return func(receiver *object.Value, ctx *object.Context) (*object.Value, error) {
			arg := ctx.Argument(0)
			if arg == nil || isFloatKind(arg.Kind) || !isNumericKind(arg.Kind) {
				return nil, vmerrors.New(vmerrors.InvalidType, "%s: argument is not an integer", name)
			}
			setInt(receiver, combine(asInt(receiver), asInt(arg)))
			return nil, nil
		}
	}
	shiftOp := func(name string, combine func(a int64, n uint) int64) object.NativeFunc {
		return func(receiver *object.Value, ctx *object.Context) (*object.Value, error) {
			arg := ctx.Argument(0)
			if arg == nil || isFloatKind(arg.Kind) || !isNumericKind(arg.Kind) {
				return nil, vmerrors.New(vmerrors.InvalidType, "%s: argument is not an integer", name)
			}
			setInt(receiver, combine(asInt(receiver), uint(asInt(arg))))
			return nil, nil
		}
	}
	return object.VTable{
		"and":         object.NewNative(bitOp("and", func(a, b int64) int64 { return a & b })),
		"or":          object.NewNative(bitOp("or", func(a, b int64) int64 { return a | b })),
		"xor":         object.NewNative(bitOp("xor", func(a, b int64) int64 { return a ^ b })),
		"shift_left":  object.NewNative(shiftOp("shift_left", func(a int64, n uint) int64 { return a << n })),
		"shift_right": object.NewNative(shiftOp("shift_right", func(a int64, n uint) int64 { return a >> n })),
		"is_even": object.NewNative(func(receiver *object.Value, ctx *object.Context) (*object.Value, error) {
			return r.NewPrimitive("Boolean", asInt(receiver)%2 == 0)
		}),
		"is_odd": object.NewNative(func(receiver *object.Value, ctx *object.Context) (*object.Value, error) {
			return r.NewPrimitive("Boolean", asInt(receiver)%2 != 0)
		}),
		// divides reports whether the receiver evenly divides the argument:
		// `2 divides: 10` answers true. A zero receiver never divides anything.
		"divides": object.NewNative(func(receiver *object.Value, ctx *object.Context) (*object.Value, error) {
			arg := ctx.Argument(0)
			if arg == nil || isFloatKind(arg.Kind) || !isNumericKind(arg.Kind) {
				return nil, vmerrors.New(vmerrors.InvalidType, "divides: argument is not an integer")
			}
			n := asInt(receiver)
			if n == 0 {
				return r.NewPrimitive("Boolean", false)
			}
			return r.NewPrimitive("Boolean", asInt(arg)%n == 0)
		}),
	}
}

var integerWidths = []struct {
	name string
	kind object.Kind
}{
	{"I8", object.KindI8}, {"I16", object.KindI16}, {"I32", object.KindI32}, {"I64", object.KindI64},
	{"U8", object.KindU8}, {"U16", object.KindU16}, {"U32", object.KindU32}, {"U64", object.KindU64},
}

func bootstrapIntegers(r *class.Registry) {
	for _, w := range integerWidths {
		name, kind := w.name, w.kind
		r.DeclareParent(name, "Integer")
		r.Register(&class.Class{
			Name: name,
			Kind: kind,
			Overrides: []class.Override{
				{Depth: 1, VTable: integerOverride(r)},
				{Depth: 2, VTable: numberOverride(r)},
				{Depth: 3, VTable: objectOverride(r, func(v *object.Value) string { return integerToString(v) })},
			},
		})
	}
}

// NewInt constructs a fully initialized integer instance of the given
// class name (one of I8, I16, I32, I64, U8, U16, U32, U64) holding n.
func NewInt(r *class.Registry, className string, n int64) (*object.Value, error) {
	v, err := r.Construct(className, nil)
	if err != nil {
		return nil, err
	}
	setInt(v, n)
	if err := r.Initialize(v); err != nil {
		return nil, err
	}
	return v, nil
}
