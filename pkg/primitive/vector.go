package primitive

import (
	"sort"

	"github.com/sparklang/spark/pkg/class"
	"github.com/sparklang/spark/pkg/object"
	"github.com/sparklang/spark/pkg/vmerrors"
)

// bootstrapVector installs Vector directly under Object. Payload is a
// []*object.Value. map and fold run a Block argument via ctx.Invoke; sort
// orders elements by sending them "order" via ctx.Send rather than
// hand-rolling a comparator, so a user class stored in a Vector sorts by
// whatever ordering it itself defines.
func bootstrapVector(r *class.Registry) {
	r.DeclareParent("Vector", "Object")
	r.Register(&class.Class{
		Name: "Vector",
		Kind: object.KindVector,
		Base: object.VTable{
			"length": object.NewNative(func(receiver *object.Value, ctx *object.Context) (*object.Value, error) {
				return r.NewPrimitive("I64", int64(len(asVector(receiver))))
			}),
			"get": object.NewNative(func(receiver *object.Value, ctx *object.Context) (*object.Value, error) {
				elems := asVector(receiver)
				i, err := vectorIndex(ctx, len(elems))
				if err != nil {
					return nil, err
				}
				return elems[i], nil
			}),
			"set": object.NewNative(func(receiver *object.Value, ctx *object.Context) (*object.Value, error) {
				elems := asVector(receiver)
				i, err := vectorIndex(ctx, len(elems))
				if err != nil {
					return nil, err
				}
				elems[i] = ctx.Argument(1)
				return nil, nil
			}),
			"map": object.NewNative(func(receiver *object.Value, ctx *object.Context) (*object.Value, error) {
				blk, err := blockArgument(ctx, 0, "map")
				if err != nil {
					return nil, err
				}
				src := asVector(receiver)
				out := make([]*object.Value, len(src))
				for i, elem := range src {
					result, err := ctx.Invoke(ctx, blk, nil, []*object.Value{elem})
					if err != nil {
						return nil, err
					}
					out[i] = result
				}
				return r.NewPrimitive("Vector", out)
			}),
			"fold": object.NewNative(func(receiver *object.Value, ctx *object.Context) (*object.Value, error) {
				blk, err := blockArgument(ctx, 0, "fold")
				if err != nil {
					return nil, err
				}
				acc := ctx.Argument(1)
				for _, elem := range asVector(receiver) {
					result, err := ctx.Invoke(ctx, blk, nil, []*object.Value{acc, elem})
					if err != nil {
						return nil, err
					}
					acc = result
				}
				return acc, nil
			}),
			"sort": object.NewNative(func(receiver *object.Value, ctx *object.Context) (*object.Value, error) {
				elems := asVector(receiver)
				var sortErr error
				sort.SliceStable(elems, func(i, j int) bool {
					if sortErr != nil {
						return false
					}
					result, err := ctx.Send(ctx, elems[i], "order", []*object.Value{elems[j]})
					if err != nil {
						sortErr = err
						return false
					}
					return asInt(result) < 0
				})
				if sortErr != nil {
					return nil, sortErr
				}
				return nil, nil
			}),
			"concat": object.NewNative(func(receiver *object.Value, ctx *object.Context) (*object.Value, error) {
				out := append([]*object.Value(nil), asVector(receiver)...)
				for i := 0; i < ctx.Top().ArgCount(); i++ {
					arg := ctx.Argument(i)
					if arg == nil || arg.Kind != object.KindVector {
						return nil, vmerrors.New(vmerrors.InvalidType, "concat: argument %d is not a Vector", i)
					}
					out = append(out, asVector(arg)...)
				}
				return r.NewPrimitive("Vector", out)
			}),
		},
	})
}

func asVector(v *object.Value) []*object.Value {
	elems, _ := v.Payload.([]*object.Value)
	return elems
}

func vectorIndex(ctx *object.Context, length int) (int64, error) {
	arg := ctx.Argument(0)
	if arg == nil || !isNumericKind(arg.Kind) {
		return 0, vmerrors.New(vmerrors.InvalidType, "index is not numeric")
	}
	i := asInt(arg)
	if i < 0 || i >= int64(length) {
		return 0, vmerrors.New(vmerrors.InvalidOperation, "index %d out of range", i)
	}
	return i, nil
}

func blockArgument(ctx *object.Context, slot int, selector string) (*object.Block, error) {
	arg := ctx.Argument(slot)
	if arg == nil || arg.Kind != object.KindBlock {
		return nil, vmerrors.New(vmerrors.InvalidType, "%s: argument is not a Block", selector)
	}
	blk, _ := arg.Payload.(*object.Block)
	if blk == nil {
		return nil, vmerrors.New(vmerrors.InvalidType, "%s: block payload missing", selector)
	}
	return blk, nil
}

// NewVector constructs a fully initialized Vector instance from elems.
func NewVector(r *class.Registry, elems []*object.Value) (*object.Value, error) {
	return r.NewPrimitive("Vector", elems)
}
