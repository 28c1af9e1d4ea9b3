package primitive

import (
	"unicode"

	"github.com/sparklang/spark/pkg/class"
	"github.com/sparklang/spark/pkg/object"
	"github.com/sparklang/spark/pkg/vmerrors"
)

// bootstrapCharacter installs Char directly under Object. Its Payload is a
// Go rune. Most of its protocol is predicate and case-conversion, mirrored
// from the rest of Go's unicode package the way the other primitives lean
// on math and strconv.
func bootstrapCharacter(r *class.Registry) {
	r.DeclareParent("Char", "Object")
	r.Register(&class.Class{
		Name: "Char",
		Kind: object.KindCharacter,
		Base: object.VTable{
			"is_digit": object.NewNative(func(receiver *object.Value, ctx *object.Context) (*object.Value, error) {
				return r.NewPrimitive("Boolean", unicode.IsDigit(asChar(receiver)))
			}),
			"is_alpha": object.NewNative(func(receiver *object.Value, ctx *object.Context) (*object.Value, error) {
				return r.NewPrimitive("Boolean", unicode.IsLetter(asChar(receiver)))
			}),
			"is_whitespace": object.NewNative(func(receiver *object.Value, ctx *object.Context) (*object.Value, error) {
				return r.NewPrimitive("Boolean", unicode.IsSpace(asChar(receiver)))
			}),
			"to_upper": object.NewNative(func(receiver *object.Value, ctx *object.Context) (*object.Value, error) {
				return r.NewPrimitive("Char", unicode.ToUpper(asChar(receiver)))
			}),
			"to_lower": object.NewNative(func(receiver *object.Value, ctx *object.Context) (*object.Value, error) {
				return r.NewPrimitive("Char", unicode.ToLower(asChar(receiver)))
			}),
			"equals": object.NewNative(func(receiver *object.Value, ctx *object.Context) (*object.Value, error) {
				arg := ctx.Argument(0)
				eq := arg != nil && arg.Kind == object.KindCharacter && asChar(arg) == asChar(receiver)
				return r.NewPrimitive("Boolean", eq)
			}),
			"order": object.NewNative(func(receiver *object.Value, ctx *object.Context) (*object.Value, error) {
				arg := ctx.Argument(0)
				if arg == nil || arg.Kind != object.KindCharacter {
					return nil, vmerrors.New(vmerrors.InvalidType, "order: argument is not a Char")
				}
				a, b := asChar(receiver), asChar(arg)
				switch {
				case a < b:
					return r.NewPrimitive("I8", int8(-1))
				case a > b:
					return r.NewPrimitive("I8", int8(1))
				default:
					return r.NewPrimitive("I8", int8(0))
				}
			}),
			"to_string": object.NewNative(func(receiver *object.Value, ctx *object.Context) (*object.Value, error) {
				return r.NewPrimitive("String", string(asChar(receiver)))
			}),
		},
	})
}

func asChar(v *object.Value) rune {
	c, _ := v.Payload.(rune)
	return c
}

// NewChar constructs a fully initialized Char instance.
func NewChar(r *class.Registry, c rune) (*object.Value, error) {
	return r.NewPrimitive("Char", c)
}
