package host

import (
	"github.com/sparklang/spark/pkg/class"
	"github.com/sparklang/spark/pkg/object"
	"github.com/sparklang/spark/pkg/task"
	"github.com/sparklang/spark/pkg/vmerrors"
)

// bootstrapSystem installs System directly under Object. spawn builds a
// brand-new context and runs the block on it to completion through
// ctx.Invoke (the callback Vector's map/fold and Block.call also use),
// with the block's own captures bound as the argument slots of the
// block's activation, then delivers the finished context to the mailbox
// in spawn order. stack/current_frame both answer a Stack wrapping the
// frame that is sending the message — the frame's Arguments/Receiver are whatever
// invokeMethod bound them to for this native call, but its operand stack
// is the same one the sending SendMsg instruction is about to resume
// popping from.
func bootstrapSystem(r *class.Registry, mailbox *task.Mailbox) {
	r.DeclareParent("System", "Object")
	r.Register(&class.Class{
		Name: "System",
		Base: object.VTable{
			"spawn": object.NewNative(func(receiver *object.Value, ctx *object.Context) (*object.Value, error) {
				arg := ctx.Argument(0)
				if arg == nil || arg.Kind != object.KindBlock {
					return nil, vmerrors.New(vmerrors.InvalidType, "spawn: argument is not a Block")
				}
				blk, ok := arg.Payload.(*object.Block)
				if !ok || blk == nil {
					return nil, vmerrors.New(vmerrors.InvalidType, "spawn: block payload missing")
				}
				newCtx := ctx.NewTask()
				captures := append([]*object.Value(nil), blk.Captures...)
				if _, err := ctx.Invoke(newCtx, blk, nil, captures); err != nil && !vmerrors.IsHalt(err) {
					return nil, err
				}
				mailbox.Send(newCtx)
				return nil, nil
			}),
			"stack": object.NewNative(func(receiver *object.Value, ctx *object.Context) (*object.Value, error) {
				return NewStack(r, ctx.Top())
			}),
			"current_frame": object.NewNative(func(receiver *object.Value, ctx *object.Context) (*object.Value, error) {
				return NewStack(r, ctx.Top())
			}),
			"pid": object.NewNative(func(receiver *object.Value, ctx *object.Context) (*object.Value, error) {
				return r.NewPrimitive("I64", systemPID())
			}),
			"rusage": object.NewNative(func(receiver *object.Value, ctx *object.Context) (*object.Value, error) {
				usage, err := systemRUsage()
				if err != nil {
					return nil, err
				}
				return r.NewPrimitive("I64", usage)
			}),
		},
	})
}
