package class

import (
	"fmt"
	"hash/fnv"

	"github.com/sparklang/spark/pkg/object"
)

// Bootstrap registers the root "Object" class: the five base methods every
// value answers unless some ancestor overrides them. clone deep-copies the
// receiver's whole chain; equals: and order: compare by identity; hash is
// the identity hash of the receiver's address; to_string names the
// receiver's concrete class. Numeric primitives replace equals:/to_string/
// order: with value-based behavior via an Object-depth override layer
// installed at construction, while Boolean, Char and String carry their
// own value-based versions in their class vtables (see package
// primitive); Object itself has no class above it to target with an
// override, so its own methods are plain Base entries.
//
// The four methods that must answer a fresh value (equals:, order:, hash,
// to_string) close over r so their results are real, fully initialized
// instances — able to receive further messages like any other value —
// rather than bare structs.
func Bootstrap(r *Registry) {
	r.Register(&Class{
		Name: "Object",
		Base: object.VTable{
			"clone":     object.NewNative(objectClone),
			"equals":    object.NewNative(makeObjectEquals(r)),
			"hash":      object.NewNative(makeObjectHash(r)),
			"to_string": object.NewNative(makeObjectToString(r)),
			"order":     object.NewNative(makeObjectOrder(r)),
		},
	})
}

func objectClone(receiver *object.Value, ctx *object.Context) (*object.Value, error) {
	return object.CloneValue(receiver), nil
}

func makeObjectEquals(r *Registry) object.NativeFunc {
	return func(receiver *object.Value, ctx *object.Context) (*object.Value, error) {
		other := ctx.Argument(0)
		return r.NewPrimitive("Boolean", receiver == other)
	}
}

func makeObjectOrder(r *Registry) object.NativeFunc {
	return func(receiver *object.Value, ctx *object.Context) (*object.Value, error) {
		other := ctx.Argument(0)
		a := fmt.Sprintf("%p", receiver)
		b := fmt.Sprintf("%p", other)
		var n int64
		switch {
		case a < b:
			n = -1
		case a > b:
			n = 1
		}
		return r.NewPrimitive("I8", int8(n))
	}
}

func makeObjectHash(r *Registry) object.NativeFunc {
	return func(receiver *object.Value, ctx *object.Context) (*object.Value, error) {
		h := fnv.New64a()
		fmt.Fprintf(h, "%p", receiver)
		return r.NewPrimitive("I64", int64(h.Sum64()))
	}
}

func makeObjectToString(r *Registry) object.NativeFunc {
	return func(receiver *object.Value, ctx *object.Context) (*object.Value, error) {
		return r.NewPrimitive("String", fmt.Sprintf("a %s", receiver.Class))
	}
}
