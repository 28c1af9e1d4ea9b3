package primitive

import (
	"github.com/sparklang/spark/pkg/class"
	"github.com/sparklang/spark/pkg/object"
	"github.com/sparklang/spark/pkg/vmerrors"
)

// notImplemented answers NotImplemented for any selector of the abstract
// Number, Integer or Float protocol reached without a concrete numeric
// type overriding it — reachable only if a user class inherits directly
// from one of those three without going through one of the built-in
// widths.
func notImplemented(selector string) object.NativeFunc {
	return func(receiver *object.Value, ctx *object.Context) (*object.Value, error) {
		return nil, vmerrors.New(vmerrors.NotImplemented, "%s is not implemented by an abstract numeric class", selector)
	}
}

// registerNumber installs the Number class: an abstract arithmetic
// protocol every concrete width overrides with a real implementation via
// an override layer targeting this level (see bootstrapIntegers and
// bootstrapFloats).
func registerNumber(r *class.Registry) {
	r.DeclareParent("Number", "Object")
	r.Register(&class.Class{
		Name: "Number",
		Base: object.VTable{
			"add":     object.NewNative(notImplemented("add")),
			"sub":     object.NewNative(notImplemented("sub")),
			"mul":     object.NewNative(notImplemented("mul")),
			"div":     object.NewNative(notImplemented("div")),
			"mod":     object.NewNative(notImplemented("mod")),
			"pow":     object.NewNative(notImplemented("pow")),
			"abs":     object.NewNative(notImplemented("abs")),
			"is_zero": object.NewNative(notImplemented("is_zero")),
		},
	})
}

// numberOverride builds the Number-depth override layer a concrete numeric
// class installs: the real add:/sub:/mul:/div:/mod:/pow:/abs/is_zero,
// grounded uniformly on binaryNumericOp and the unary helpers.
func numberOverride(r *class.Registry) object.VTable {
	return object.VTable{
		"add": object.NewNative(func(receiver *object.Value, ctx *object.Context) (*object.Value, error) {
			return addOp(ctx, "add", receiver, ctx.Argument(0))
		}),
		"sub": object.NewNative(func(receiver *object.Value, ctx *object.Context) (*object.Value, error) {
			return subOp(ctx, "sub", receiver, ctx.Argument(0))
		}),
		"mul": object.NewNative(func(receiver *object.Value, ctx *object.Context) (*object.Value, error) {
			return mulOp(ctx, "mul", receiver, ctx.Argument(0))
		}),
		"div": object.NewNative(func(receiver *object.Value, ctx *object.Context) (*object.Value, error) {
			return divOp(ctx, "div", receiver, ctx.Argument(0))
		}),
		"mod": object.NewNative(func(receiver *object.Value, ctx *object.Context) (*object.Value, error) {
			return modOp(ctx, "mod", receiver, ctx.Argument(0))
		}),
		"pow": object.NewNative(func(receiver *object.Value, ctx *object.Context) (*object.Value, error) {
			return powOp(ctx, "pow", receiver, ctx.Argument(0))
		}),
		"abs": object.NewNative(func(receiver *object.Value, ctx *object.Context) (*object.Value, error) {
			absOp(receiver)
			return nil, nil
		}),
		"is_zero": object.NewNative(func(receiver *object.Value, ctx *object.Context) (*object.Value, error) {
			return r.NewPrimitive("Boolean", isZeroOp(receiver))
		}),
	}
}

// objectOverride builds the Object-depth override layer every concrete
// numeric class installs: value-based equals:/order:/to_string in place of
// Object's identity-based defaults.
func objectOverride(r *class.Registry, toString func(*object.Value) string) object.VTable {
	return object.VTable{
		"equals": object.NewNative(func(receiver *object.Value, ctx *object.Context) (*object.Value, error) {
			arg := ctx.Argument(0)
			eq := arg != nil && isNumericKind(arg.Kind) && numericEqual(receiver, arg)
			return r.NewPrimitive("Boolean", eq)
		}),
		"order": object.NewNative(func(receiver *object.Value, ctx *object.Context) (*object.Value, error) {
			arg := ctx.Argument(0)
			if arg == nil || !isNumericKind(arg.Kind) {
				return nil, vmerrors.New(vmerrors.InvalidType, "order: argument is not numeric")
			}
			return r.NewPrimitive("I8", int8(numericCompare(receiver, arg)))
		}),
		"to_string": object.NewNative(func(receiver *object.Value, ctx *object.Context) (*object.Value, error) {
			return r.NewPrimitive("String", toString(receiver))
		}),
	}
}

func numericEqual(a, b *object.Value) bool {
	if isFloatKind(a.Kind) || isFloatKind(b.Kind) {
		return asFloat(a) == asFloat(b)
	}
	return asInt(a) == asInt(b)
}

func numericCompare(a, b *object.Value) int {
	if isFloatKind(a.Kind) || isFloatKind(b.Kind) {
		af, bf := asFloat(a), asFloat(b)
		switch {
		case af < bf:
			return -1
		case af > bf:
			return 1
		default:
			return 0
		}
	}
	ai, bi := asInt(a), asInt(b)
	switch {
	case ai < bi:
		return -1
	case ai > bi:
		return 1
	default:
		return 0
	}
}
