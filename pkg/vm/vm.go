// Package vm implements the bytecode dispatch loop: the interpreter that
// turns a Block's instructions into message sends against the object
// model defined in package object, resolved through package class's
// vtable walk.
package vm

import (
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/sparklang/spark/pkg/bytecode"
	"github.com/sparklang/spark/pkg/class"
	"github.com/sparklang/spark/pkg/object"
	"github.com/sparklang/spark/pkg/task"
	"github.com/sparklang/spark/pkg/vmerrors"
)

// VM is the interpreter: a class registry to resolve sends against, a
// mailbox to deliver spawned tasks to, and a logger its own internal
// trace diagnostics and the Logger host class share (see package host).
//
// MaxOperandDepth, when positive, bounds how many values one frame's
// operand stack may hold; a block that pushes past it faults with
// InvalidOperation instead of growing without limit.
type VM struct {
	Registry        *class.Registry
	Mailbox         *task.Mailbox
	Log             *logrus.Logger
	MaxOperandDepth int
}

// New returns a VM ready to run programs against registry.
func New(registry *class.Registry, mailbox *task.Mailbox, log *logrus.Logger) *VM {
	if log == nil {
		log = logrus.New()
	}
	return &VM{Registry: registry, Mailbox: mailbox, Log: log}
}

// NewContext returns a fresh task context wired to this VM's block
// invocation, message send and task spawning callbacks.
func (vm *VM) NewContext() *object.Context {
	return object.NewContext(vm.invoke, vm.sendValue, vm.NewContext)
}

// Run executes entry as a program's top-level block: a fresh context, a
// root activation with no receiver and no arguments. It returns the value
// left on the outer frame, if any, once the block halts or returns.
// ErrHalt is not returned as an error to the caller — a Halt is this
// function's ordinary, successful return path — but any other fault
// propagates as an error.
func (vm *VM) Run(entry *object.Block) (*object.Value, error) {
	ctx := vm.NewContext()
	return vm.RunIn(ctx, entry)
}

// RunIn executes entry against a caller-supplied context's current
// frame, for callers that already built the context and want to inspect
// it once the block has run.
func (vm *VM) RunIn(ctx *object.Context, entry *object.Block) (*object.Value, error) {
	result, err := vm.runFrame(ctx, entry)
	if vmerrors.IsHalt(err) {
		top, _ := ctx.Top().Top()
		if top != nil {
			return top, nil
		}
		return result, nil
	}
	return result, err
}

// runFrame executes blk's instructions against the context's current
// (innermost) frame until Halt, ReturnStack or the instructions run out.
// ReturnStack pops the frame itself and leaves its result on the new
// caller frame, so by the time runFrame returns normally for a nested
// send, the frame it was running no longer exists on ctx.
func (vm *VM) runFrame(ctx *object.Context, blk *object.Block) (*object.Value, error) {
	frame := ctx.Top()
	ip := 0
	for ip < len(blk.Instructions) {
		if vm.MaxOperandDepth > 0 && frame.Len() > vm.MaxOperandDepth {
			return nil, vmerrors.New(vmerrors.InvalidOperation, "operand stack exceeds %d values", vm.MaxOperandDepth)
		}
		instr := blk.Instructions[ip]
		vm.Log.Tracef("ip=%d op=%s n=%d name=%q", ip, instr.Op, instr.N, instr.Name)
		ip++
		switch instr.Op {
		case bytecode.Halt:
			return nil, vmerrors.ErrHalt()

		case bytecode.NoOp:
			// nothing

		case bytecode.AccessField:
			top, ok := frame.Top()
			if !ok {
				return nil, vmerrors.New(vmerrors.InvalidOperation, "AccessField: operand stack empty")
			}
			frame.Push(top.GetField(instr.N))

		case bytecode.AccessTemp:
			frame.Push(frame.Argument(instr.N))

		case bytecode.PushLiteral:
			if instr.N < 0 || instr.N >= len(blk.Literals) {
				return nil, vmerrors.New(vmerrors.InvalidOperation, "literal index %d out of range", instr.N)
			}
			frame.Push(blk.Literals[instr.N])

		case bytecode.AccessClass:
			v, err := vm.Registry.New(instr.Name, nil)
			if err != nil {
				return nil, err
			}
			frame.Push(v)

		case bytecode.StoreField:
			v, ok := frame.Pop()
			if !ok {
				return nil, vmerrors.New(vmerrors.InvalidOperation, "StoreField: operand stack empty")
			}
			target, ok := frame.Top()
			if !ok {
				return nil, vmerrors.New(vmerrors.InvalidOperation, "StoreField: no target on operand stack")
			}
			target.SetField(instr.N, v)

		case bytecode.StoreTemp:
			v, ok := frame.Pop()
			if !ok {
				return nil, vmerrors.New(vmerrors.InvalidOperation, "StoreTemp: operand stack empty")
			}
			frame.SetArgument(instr.N, v)

		case bytecode.SendMsg:
			if err := vm.dispatch(ctx, frame, instr.N, instr.Name, false); err != nil {
				return nil, traced(err, frame, instr.Name, ip-1)
			}

		case bytecode.SendSuperMsg:
			if err := vm.dispatch(ctx, frame, instr.N, instr.Name, true); err != nil {
				return nil, traced(err, frame, instr.Name, ip-1)
			}

		case bytecode.DupStack:
			top, ok := frame.Top()
			if !ok {
				return nil, vmerrors.New(vmerrors.InvalidOperation, "DupStack: operand stack empty")
			}
			frame.Push(object.CloneValue(top))

		case bytecode.DiscardStack:
			if _, ok := frame.Pop(); !ok {
				return nil, vmerrors.New(vmerrors.InvalidOperation, "DiscardStack: operand stack empty")
			}

		case bytecode.ReturnStack:
			v, produced := frame.Pop()
			if _, ok := ctx.PopFrame(); !ok {
				return nil, vmerrors.New(vmerrors.InvalidOperation, "ReturnStack: no frame to pop")
			}
			if produced {
				if caller := ctx.Top(); caller != nil {
					caller.Push(v)
				}
			}
			return v, nil

		default:
			return nil, vmerrors.New(vmerrors.InvalidOperation, "unknown opcode %v", instr.Op)
		}
	}
	// Instructions exhausted without an explicit ReturnStack: treat as an
	// implicit return of nothing, popping this activation.
	ctx.PopFrame()
	return nil, nil
}

// dispatch implements SendMsg/SendSuperMsg: pop n arguments in pop order
// into slots 0..n-1, resolve the selector against the new top of stack
// (starting one level up the chain for a super send), and invoke the
// method. The receiver is peeked, not popped — after the argument pops
// the stack already holds the receiver, which is exactly what an in-place
// arithmetic mutation wants left behind. A method that produces a value
// pushes it on top of the receiver (a widening arithmetic op pops the
// receiver itself before returning the adopted argument, so the result
// replaces it there).
func (vm *VM) dispatch(ctx *object.Context, frame *object.Frame, n int, selector string, super bool) error {
	args := make([]*object.Value, n)
	for i := 0; i < n; i++ {
		v, ok := frame.Pop()
		if !ok {
			return vmerrors.New(vmerrors.InvalidOperation, "%s: operand stack exhausted popping argument %d", selector, i)
		}
		args[i] = v
	}
	receiver, ok := frame.Top()
	if !ok {
		return vmerrors.New(vmerrors.InvalidOperation, "%s: no receiver on operand stack", selector)
	}

	lookupStart := receiver
	if super {
		if receiver.Super == nil {
			return vmerrors.New(vmerrors.MethodNotFound, "%s: receiver has no super to send to", selector)
		}
		lookupStart = receiver.Super
	}
	method, _ := class.Lookup(lookupStart, selector)
	if method == nil {
		return vmerrors.New(vmerrors.MethodNotFound, "%s does not understand %q", describe(receiver), selector)
	}
	vm.Log.Debugf("%s -> %s#%s", describe(receiver), lookupStart.Class, selector)

	result, err := vm.invokeMethod(ctx, method, lookupStart, args)
	if err != nil {
		return err
	}
	// A bytecode method's ReturnStack already delivered its result to this
	// frame; a native's result is pushed here.
	if method.IsNative() && result != nil {
		frame.Push(result)
	}
	return nil
}

// invokeMethod runs method with receiver bound as self and args as its
// argument slots. A Native method runs against the current (calling)
// frame's argument slots, saved and restored around the call so a nested
// send cannot clobber the caller's own arguments. A Bytecode method gets
// a fresh frame.
func (vm *VM) invokeMethod(ctx *object.Context, method *object.Method, receiver *object.Value, args []*object.Value) (*object.Value, error) {
	if method.IsNative() {
		frame := ctx.Top()
		savedArgs := frame.Arguments
		savedReceiver := frame.Receiver
		frame.Arguments = args
		frame.Receiver = receiver
		result, err := method.Native(receiver, ctx)
		frame.Arguments = savedArgs
		frame.Receiver = savedReceiver
		return result, err
	}
	ctx.PushFrame(receiver, args)
	return vm.runFrame(ctx, method.Code)
}

// invoke is the object.Invoke callback: it runs blk to completion against
// a fresh activation on ctx, for native methods (Vector.map/fold,
// System.spawn, Block.call) that need to call back into bytecode. A
// scratch frame goes underneath the block's own activation to absorb the
// value ReturnStack delivers to "the caller" — the native wants it as a
// Go return value, not left on the operand stack of whatever frame its
// own send happens to be running against.
func (vm *VM) invoke(ctx *object.Context, blk *object.Block, receiver *object.Value, args []*object.Value) (*object.Value, error) {
	ctx.PushFrame(nil, nil)
	ctx.PushFrame(receiver, args)
	result, err := vm.runFrame(ctx, blk)
	if err != nil {
		// The task is unwinding (or halting); its frame stack is
		// abandoned wholesale, so the scratch frame goes with it.
		return nil, err
	}
	ctx.PopFrame()
	return result, nil
}

// sendValue is the object.Send callback: an ordinary message send on
// behalf of native code (Vector.sort comparing elements by "order"). A
// resolved bytecode method goes through invoke so its return value comes
// back as a Go value instead of landing on the calling native's frame.
func (vm *VM) sendValue(ctx *object.Context, receiver *object.Value, selector string, args []*object.Value) (*object.Value, error) {
	method, _ := class.Lookup(receiver, selector)
	if method == nil {
		return nil, vmerrors.New(vmerrors.MethodNotFound, "%s does not understand %q", describe(receiver), selector)
	}
	if method.IsNative() {
		return vm.invokeMethod(ctx, method, receiver, args)
	}
	return vm.invoke(ctx, method.Code, receiver, args)
}

func describe(v *object.Value) string {
	if v == nil {
		return "nil"
	}
	return fmt.Sprintf("a %s", v.Class)
}

// traced appends one stack frame to a fault unwinding through a send:
// the activation's own receiver, the failing selector, and the send
// instruction's position in the block. Nested sends each add their frame
// as the error climbs out of runFrame, innermost first, so the error the
// host driver finally prints carries the whole call chain. A Halt is not
// a RuntimeError and passes through untouched.
func traced(err error, frame *object.Frame, selector string, ip int) error {
	var re *vmerrors.RuntimeError
	if errors.As(err, &re) {
		re.Push(vmerrors.StackFrame{Receiver: describe(frame.Receiver), Selector: selector, IP: ip})
	}
	return err
}
