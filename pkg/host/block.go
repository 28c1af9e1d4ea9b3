package host

import (
	"github.com/sparklang/spark/pkg/class"
	"github.com/sparklang/spark/pkg/object"
	"github.com/sparklang/spark/pkg/vmerrors"
)

// bootstrapBlock installs Block directly under Object, Kind KindBlock,
// Payload *object.Block. "call" runs the block via ctx.Invoke with the
// arguments the send itself supplied, passed straight through as the
// block's own argument slots — the same path System.spawn and Vector's
// map/fold use to re-enter bytecode from a native method, reused here so
// a block can simply be sent "call" like any other message.
func bootstrapBlock(r *class.Registry) {
	r.DeclareParent("Block", "Object")
	r.Register(&class.Class{
		Name: "Block",
		Kind: object.KindBlock,
		Base: object.VTable{
			"call": object.NewNative(func(receiver *object.Value, ctx *object.Context) (*object.Value, error) {
				blk, ok := receiver.Payload.(*object.Block)
				if !ok || blk == nil {
					return nil, vmerrors.New(vmerrors.InvalidType, "call: receiver has no block payload")
				}
				args := make([]*object.Value, ctx.Top().ArgCount())
				for i := range args {
					args[i] = ctx.Argument(i)
				}
				return ctx.Invoke(ctx, blk, nil, args)
			}),
		},
	})
}

// NewBlock constructs a fully initialized Block instance wrapping blk,
// for host code that needs to hand a block to the running program as
// data rather than execute it immediately.
func NewBlock(r *class.Registry, blk *object.Block) (*object.Value, error) {
	return r.NewPrimitive("Block", blk)
}
