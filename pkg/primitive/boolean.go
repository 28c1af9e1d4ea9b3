package primitive

import (
	"github.com/sparklang/spark/pkg/class"
	"github.com/sparklang/spark/pkg/object"
	"github.com/sparklang/spark/pkg/vmerrors"
)

// bootstrapBoolean installs Boolean directly under Object: and, or, not,
// plus value-based equals/to_string/order overriding Object's identity
// defaults. There is no True/False split — a Boolean Value's payload is a
// plain Go bool, consistent with every other primitive kind carrying its
// value in Payload rather than as a distinct subclass per literal.
func bootstrapBoolean(r *class.Registry) {
	r.DeclareParent("Boolean", "Object")
	r.Register(&class.Class{
		Name: "Boolean",
		Kind: object.KindBoolean,
		Base: object.VTable{
			"and": object.NewNative(func(receiver *object.Value, ctx *object.Context) (*object.Value, error) {
				arg := ctx.Argument(0)
				b := arg != nil && arg.Kind == object.KindBoolean && asBool(arg)
				return r.NewPrimitive("Boolean", asBool(receiver) && b)
			}),
			"or": object.NewNative(func(receiver *object.Value, ctx *object.Context) (*object.Value, error) {
				arg := ctx.Argument(0)
				b := arg != nil && arg.Kind == object.KindBoolean && asBool(arg)
				return r.NewPrimitive("Boolean", asBool(receiver) || b)
			}),
			"not": object.NewNative(func(receiver *object.Value, ctx *object.Context) (*object.Value, error) {
				return r.NewPrimitive("Boolean", !asBool(receiver))
			}),
			"equals": object.NewNative(func(receiver *object.Value, ctx *object.Context) (*object.Value, error) {
				arg := ctx.Argument(0)
				eq := arg != nil && arg.Kind == object.KindBoolean && asBool(arg) == asBool(receiver)
				return r.NewPrimitive("Boolean", eq)
			}),
			"order": object.NewNative(func(receiver *object.Value, ctx *object.Context) (*object.Value, error) {
				arg := ctx.Argument(0)
				if arg == nil || arg.Kind != object.KindBoolean {
					return nil, vmerrors.New(vmerrors.InvalidType, "order: argument is not a Boolean")
				}
				var n int8
				switch a, b := asBool(receiver), asBool(arg); {
				case !a && b:
					n = -1
				case a && !b:
					n = 1
				}
				return r.NewPrimitive("I8", n)
			}),
			"to_string": object.NewNative(func(receiver *object.Value, ctx *object.Context) (*object.Value, error) {
				if asBool(receiver) {
					return r.NewPrimitive("String", "true")
				}
				return r.NewPrimitive("String", "false")
			}),
		},
	})
}

func asBool(v *object.Value) bool {
	b, _ := v.Payload.(bool)
	return b
}

// NewBoolean constructs a fully initialized Boolean instance.
func NewBoolean(r *class.Registry, b bool) (*object.Value, error) {
	return r.NewPrimitive("Boolean", b)
}
