package host

import (
	"github.com/sparklang/spark/pkg/class"
	"github.com/sparklang/spark/pkg/object"
	"github.com/sparklang/spark/pkg/vmerrors"
)

// bootstrapStack installs Stack directly under Object, Payload
// *object.Frame. It is a thin wrapper exposing a frame's own operand
// stack to running bytecode — System.stack and System.current_frame both
// hand back an instance of this wrapping the activation that sent the
// message, letting a program inspect or manipulate its own operand stack
// through ordinary message sends instead of a special opcode.
func bootstrapStack(r *class.Registry) {
	r.DeclareParent("Stack", "Object")
	r.Register(&class.Class{
		Name: "Stack",
		Kind: object.KindNative,
		Base: object.VTable{
			"push": object.NewNative(func(receiver *object.Value, ctx *object.Context) (*object.Value, error) {
				frame, err := stackFrame(receiver)
				if err != nil {
					return nil, err
				}
				frame.Push(ctx.Argument(0))
				return nil, nil
			}),
			"pop": object.NewNative(func(receiver *object.Value, ctx *object.Context) (*object.Value, error) {
				frame, err := stackFrame(receiver)
				if err != nil {
					return nil, err
				}
				v, ok := frame.Pop()
				if !ok {
					return nil, vmerrors.New(vmerrors.InvalidOperation, "pop: stack is empty")
				}
				return v, nil
			}),
		},
	})
}

func stackFrame(v *object.Value) (*object.Frame, error) {
	frame, ok := v.Payload.(*object.Frame)
	if !ok || frame == nil {
		return nil, vmerrors.New(vmerrors.InvalidType, "receiver is not a Stack")
	}
	return frame, nil
}

// NewStack wraps frame as a Stack instance.
func NewStack(r *class.Registry, frame *object.Frame) (*object.Value, error) {
	return r.NewPrimitive("Stack", frame)
}
