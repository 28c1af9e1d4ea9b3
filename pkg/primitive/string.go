package primitive

import (
	"strings"

	"github.com/sparklang/spark/pkg/class"
	"github.com/sparklang/spark/pkg/object"
	"github.com/sparklang/spark/pkg/vmerrors"
)

// bootstrapString installs String directly under Object. Payload is a Go
// string; indexing is by rune, not byte, so a String built from non-ASCII
// source text still answers correct Char values from get.
func bootstrapString(r *class.Registry) {
	r.DeclareParent("String", "Object")
	r.Register(&class.Class{
		Name: "String",
		Kind: object.KindString,
		Base: object.VTable{
			"length": object.NewNative(func(receiver *object.Value, ctx *object.Context) (*object.Value, error) {
				return r.NewPrimitive("I64", int64(len([]rune(asString(receiver)))))
			}),
			"concat": object.NewNative(func(receiver *object.Value, ctx *object.Context) (*object.Value, error) {
				arg := ctx.Argument(0)
				if arg == nil || arg.Kind != object.KindString {
					return nil, vmerrors.New(vmerrors.InvalidType, "concat: argument is not a String")
				}
				return r.NewPrimitive("String", asString(receiver)+asString(arg))
			}),
			"get": object.NewNative(func(receiver *object.Value, ctx *object.Context) (*object.Value, error) {
				arg := ctx.Argument(0)
				if arg == nil || !isNumericKind(arg.Kind) {
					return nil, vmerrors.New(vmerrors.InvalidType, "get: index is not numeric")
				}
				runes := []rune(asString(receiver))
				i := asInt(arg)
				if i < 0 || i >= int64(len(runes)) {
					return nil, vmerrors.New(vmerrors.InvalidOperation, "get: index %d out of range", i)
				}
				return r.NewPrimitive("Char", runes[i])
			}),
			"is_empty": object.NewNative(func(receiver *object.Value, ctx *object.Context) (*object.Value, error) {
				return r.NewPrimitive("Boolean", asString(receiver) == "")
			}),
			"to_upper": object.NewNative(func(receiver *object.Value, ctx *object.Context) (*object.Value, error) {
				return r.NewPrimitive("String", strings.ToUpper(asString(receiver)))
			}),
			"to_lower": object.NewNative(func(receiver *object.Value, ctx *object.Context) (*object.Value, error) {
				return r.NewPrimitive("String", strings.ToLower(asString(receiver)))
			}),
			"equals": object.NewNative(func(receiver *object.Value, ctx *object.Context) (*object.Value, error) {
				arg := ctx.Argument(0)
				eq := arg != nil && arg.Kind == object.KindString && asString(arg) == asString(receiver)
				return r.NewPrimitive("Boolean", eq)
			}),
			"order": object.NewNative(func(receiver *object.Value, ctx *object.Context) (*object.Value, error) {
				arg := ctx.Argument(0)
				if arg == nil || arg.Kind != object.KindString {
					return nil, vmerrors.New(vmerrors.InvalidType, "order: argument is not a String")
				}
				return r.NewPrimitive("I8", int8(strings.Compare(asString(receiver), asString(arg))))
			}),
			"to_string": object.NewNative(func(receiver *object.Value, ctx *object.Context) (*object.Value, error) {
				return receiver, nil
			}),
		},
	})
}

func asString(v *object.Value) string {
	s, _ := v.Payload.(string)
	return s
}

// NewString constructs a fully initialized String instance.
func NewString(r *class.Registry, s string) (*object.Value, error) {
	return r.NewPrimitive("String", s)
}
