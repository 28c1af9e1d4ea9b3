package host

import (
	"github.com/sparklang/spark/pkg/class"
	"github.com/sparklang/spark/pkg/object"
)

// bootstrapMessage installs Message directly under Object: a selector
// name plus the argument count it requires. It carries no host behavior
// beyond reading its own two fields back — nothing in the core dispatch
// loop constructs one today, but it belongs to the built-in class
// surface and is a natural target for a future reflective send
// (answering "what message is this" from inside a MethodNotFound
// handler).
func bootstrapMessage(r *class.Registry) {
	r.DeclareParent("Message", "Object")
	r.Register(&class.Class{
		Name: "Message",
		Base: object.VTable{
			"name": object.NewNative(func(receiver *object.Value, ctx *object.Context) (*object.Value, error) {
				return receiver.GetField(0), nil
			}),
			"arg_count": object.NewNative(func(receiver *object.Value, ctx *object.Context) (*object.Value, error) {
				return receiver.GetField(1), nil
			}),
		},
	})
}

// NewMessage constructs a Message instance naming selector with argCount
// required arguments.
func NewMessage(r *class.Registry, selector string, argCount int64) (*object.Value, error) {
	name, err := r.NewPrimitive("String", selector)
	if err != nil {
		return nil, err
	}
	count, err := r.NewPrimitive("I64", argCount)
	if err != nil {
		return nil, err
	}
	return r.New("Message", []*object.Value{name, count})
}
