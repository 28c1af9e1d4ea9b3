// Package object defines the single runtime value representation shared by
// every built-in and user-defined class: Value. There is no separate class
// hierarchy of Go types per primitive kind — an integer, a string, a user
// object and a block are all *Value, distinguished by Kind and Payload.
//
// A Value's inheritance is per-instance, not per-class: constructing an
// instance builds a whole chain of Values, one per ancestor class, linked
// through Super. Method lookup walks Super, not a class pointer, which is
// what lets an override layer installed on one instance's ancestor node
// differ from another instance of the same concrete class built at another
// depth (see package class for how the chain and its vtables are built).
package object

import "github.com/sparklang/spark/pkg/bytecode"

// Kind tags the shape of a Value's Payload so native methods can type-assert
// without a long interface-switch. It is a hint for Go code, not part of the
// dispatch mechanism — dispatch only ever looks at vtables.
type Kind int

const (
	KindObject Kind = iota
	KindI8
	KindI16
	KindI32
	KindI64
	KindU8
	KindU16
	KindU32
	KindU64
	KindF32
	KindF64
	KindBoolean
	KindCharacter
	KindString
	KindVector
	KindBlock
	KindNative
	KindNil
)

// Value is the single runtime object representation.
//
// Class names the concrete class this node of the chain was built for.
// Super is the parent-class instance wrapped by this one, or nil at the
// root (Object has no super). VTable holds the methods this node
// contributes: the node's own class methods merged with any override
// layer installed at this depth during construction. Ancestor methods
// stay on their own nodes, and lookup reaches them by walking Super.
// Fields holds the
// node's instance variables, sized to the constructor's argument count.
// Payload carries the primitive data for built-in kinds (an int64 for
// KindI64, a string for KindString, and so on); it is nil for plain
// user objects.
type Value struct {
	Class   string
	Super   *Value
	VTable  VTable
	Fields  []*Value
	Kind    Kind
	Payload interface{}
}

// GetField returns field i, or nil if v declares no fields or i is out of
// range. Primitives and plain aggregates with no constructor arguments
// simply have an empty Fields slice, so this never panics.
func (v *Value) GetField(i int) *Value {
	if i < 0 || i >= len(v.Fields) {
		return nil
	}
	return v.Fields[i]
}

// SetField writes val into field i, growing Fields if necessary. Bytecode
// only ever targets fields the constructor already sized, but a native
// method building a value by hand may not have.
func (v *Value) SetField(i int, val *Value) {
	for len(v.Fields) <= i {
		v.Fields = append(v.Fields, nil)
	}
	v.Fields[i] = val
}

// VTable maps a selector to the method that answers it.
type VTable map[string]*Method

// Extend merges other into v, with other's entries taking precedence over
// any already present under the same selector.
func (v VTable) Extend(other VTable) {
	for selector, m := range other {
		v[selector] = m
	}
}

// Clone returns a shallow copy of the vtable (method pointers are shared;
// the map itself is not).
func (v VTable) Clone() VTable {
	out := make(VTable, len(v))
	for k, m := range v {
		out[k] = m
	}
	return out
}

// NativeFunc is a host-implemented method body. It receives the receiver
// and the active context (for argument slots and, for a few system
// methods, the activation stack) and returns a result value, or nil for a
// method invoked for effect alone. An error aborts the send.
type NativeFunc func(receiver *Value, ctx *Context) (*Value, error)

// Method is either a NativeFunc or a Block of bytecode; exactly one of the
// two is set.
type Method struct {
	Native NativeFunc
	Code   *Block
}

// IsNative reports whether m is backed by a host function rather than
// bytecode.
func (m *Method) IsNative() bool { return m.Native != nil }

// NewNative wraps a host function as a Method.
func NewNative(fn NativeFunc) *Method { return &Method{Native: fn} }

// NewBytecode wraps a Block as a Method.
func NewBytecode(blk *Block) *Method { return &Method{Code: blk} }

// Block is a callable unit of bytecode: a method body, or a closure literal
// captured from an enclosing scope. Literals holds the block's pool of
// constant values, which may themselves be nested Blocks (a block literal
// is simply another entry in the owning block's literal pool). Captures
// holds values closed over from the scope the block was built in; a spawned
// task copies Captures into its fresh context's argument slots before
// running the block for the first time.
type Block struct {
	Instructions []bytecode.Instruction
	Literals     []*Value
	Captures     []*Value
}

// Frame is one activation's operand stack, plus the receiver and argument
// slots a send bound when it created this activation.
type Frame struct {
	stack     []*Value
	Receiver  *Value
	Arguments []*Value
}

// NewFrame returns an empty frame.
func NewFrame() *Frame { return &Frame{} }

// Argument returns argument slot i, or nil if i is out of range.
func (f *Frame) Argument(i int) *Value {
	if i < 0 || i >= len(f.Arguments) {
		return nil
	}
	return f.Arguments[i]
}

// ArgCount reports how many argument slots this frame was bound with.
func (f *Frame) ArgCount() int { return len(f.Arguments) }

// SetArgument writes v into argument slot i, growing the slot array if i is
// beyond its current bound count (StoreTemp may target a slot a send never
// populated).
func (f *Frame) SetArgument(i int, v *Value) {
	for len(f.Arguments) <= i {
		f.Arguments = append(f.Arguments, nil)
	}
	f.Arguments[i] = v
}

// Push pushes v onto the frame.
func (f *Frame) Push(v *Value) { f.stack = append(f.stack, v) }

// Pop removes and returns the top value. ok is false on an empty frame.
func (f *Frame) Pop() (v *Value, ok bool) {
	if len(f.stack) == 0 {
		return nil, false
	}
	n := len(f.stack) - 1
	v = f.stack[n]
	f.stack = f.stack[:n]
	return v, true
}

// Top returns the top value without removing it.
func (f *Frame) Top() (v *Value, ok bool) {
	if len(f.stack) == 0 {
		return nil, false
	}
	return f.stack[len(f.stack)-1], true
}

// Len reports the number of values currently on the frame.
func (f *Frame) Len() int { return len(f.stack) }

// Receiver is the activation's self: the value the send that created this
// activation resolved its method against. Arguments holds the argument
// slots that send populated, indexed from 0. Both are frame-scoped rather
// than held as single mutable fields on Context: a nested send must not
// clobber the caller's own receiver and arguments, which it would if they
// lived above the frame stack and had to be manually saved and restored
// around every call.
func (f *Frame) bindActivation(receiver *Value, args []*Value) {
	f.Receiver = receiver
	f.Arguments = args
}

// Invoke runs a Block to completion against a fresh activation sharing the
// given context, with args bound as its argument slots, and returns
// whatever the block leaves as its result (nil if it returns nothing). It
// is how native methods that accept a block argument — Vector's map and
// fold, System's spawn — call back into bytecode without pkg/object
// importing the interpreter that defines its semantics.
type Invoke func(ctx *Context, blk *Block, receiver *Value, args []*Value) (*Value, error)

// Send performs an ordinary vtable-walk message send, the same dispatch a
// bytecode SendMsg instruction performs. Native methods that need to
// compare or otherwise message two values they hold — Vector's sort
// ordering elements by "order", for instance — call back through this
// rather than duplicating lookup logic from the interpreter.
type Send func(ctx *Context, receiver *Value, selector string, args []*Value) (*Value, error)

// NewTask builds a brand-new Context — its own activation stack, wired
// with the same Invoke/Send/NewTask callbacks — for System's spawn to run
// a task in. A spawned task never shares a Frame stack with its spawner.
type NewTask func() *Context

// Context is a task's per-activation runtime state: the stack of frames
// making up the activation stack, plus the callbacks a native method uses
// to run a Block argument, send a message, or spawn a fresh task. Each
// frame carries its own operand stack, receiver and argument slots.
type Context struct {
	Activation []*Frame
	Invoke     Invoke
	Send       Send
	NewTask    NewTask
}

// NewContext returns a context with a single, empty root frame, wired to
// the interpreter's block-invocation, message-send and task-spawning
// callbacks.
func NewContext(invoke Invoke, send Send, newTask NewTask) *Context {
	return &Context{Activation: []*Frame{NewFrame()}, Invoke: invoke, Send: send, NewTask: newTask}
}

// PushFrame starts a new activation on top of the current one, bound to
// the given receiver and argument slots.
func (c *Context) PushFrame(receiver *Value, args []*Value) *Frame {
	f := NewFrame()
	f.bindActivation(receiver, args)
	c.Activation = append(c.Activation, f)
	return f
}

// PopFrame removes and returns the innermost frame. ok is false if the
// context has no frame left to pop (the caller must never pop the last
// root frame of a live task).
func (c *Context) PopFrame() (f *Frame, ok bool) {
	if len(c.Activation) == 0 {
		return nil, false
	}
	n := len(c.Activation) - 1
	f = c.Activation[n]
	c.Activation = c.Activation[:n]
	return f, true
}

// Top returns the innermost frame, or nil if the context has no frame
// left (its root activation has itself returned).
func (c *Context) Top() *Frame {
	if len(c.Activation) == 0 {
		return nil
	}
	return c.Activation[len(c.Activation)-1]
}

// Argument returns argument slot i of the innermost frame, or nil if out
// of range.
func (c *Context) Argument(i int) *Value {
	return c.Top().Argument(i)
}

// Receiver returns the innermost frame's receiver.
func (c *Context) Receiver() *Value {
	return c.Top().Receiver
}
