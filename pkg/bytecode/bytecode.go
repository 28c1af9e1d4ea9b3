// Package bytecode defines the instruction set executed by the interpreter.
//
// The bytecode is the low-level intermediate representation a loaded image
// carries: a flat sequence of instructions per block, plus a per-block pool
// of literal values the instructions reference by index.
//
// Architecture:
//
// The machine is stack-based:
//  1. Values are pushed onto and popped from a per-activation operand stack
//  2. Every instruction consumes some values and/or pushes one back
//  3. Fields and argument slots are addressed by integer index, not name
//  4. All behavior, including arithmetic, goes through message sends
//
// Example instruction sequence for "self add: 5", self already the receiver
// on the stack:
//
//	Instructions:
//	  PUSH_LITERAL 0      ; push constant[0] (the integer 5)
//	  SEND_MSG 1 "add:"   ; pop 1 arg, send add: to new top-of-stack
//
//	Literals: [5]
//
// Instruction Format:
//
// Each instruction carries an Op and, depending on the op, an integer N
// (a field/temp/literal index, or an argument count) and/or a Name (a
// selector or class name). There is no separate operand-packing scheme:
// SendMsg and SendSuperMsg carry both N and Name directly rather than
// packing a selector index and argument count into one integer.
package bytecode

// Op identifies a single bytecode operation.
type Op byte

// The instruction set. Every operation the interpreter can execute.
const (
	// === Termination ===

	// Halt stops the current execution unit cleanly. Not a fault: it is
	// the normal way a block or program signals it is done.
	Halt Op = iota

	// NoOp does nothing. Present for padding and for disassembly tests.
	NoOp

	// === Field and Temp Access ===

	// AccessField pushes field N of the top-of-stack value; the value
	// itself stays in place beneath the pushed field.
	AccessField

	// AccessTemp pushes argument slot N onto the stack.
	AccessTemp

	// StoreField pops the top value and writes it into field N of the
	// new top of stack.
	StoreField

	// StoreTemp pops the top value and writes it into argument slot N.
	StoreTemp

	// === Literals and Classes ===

	// PushLiteral pushes literal pool entry N of the executing block.
	// Literals are pre-built, shared values: a block is itself a valid
	// literal, which is how nested blocks are represented.
	PushLiteral

	// AccessClass pushes a freshly constructed instance of the class
	// named Name, with zero constructor arguments.
	AccessClass

	// === Message Sends ===

	// SendMsg pops N values (the arguments, in pop order) into argument
	// slots 0..N-1, then sends the selector Name to the new top of
	// stack. The receiver is peeked, not popped — an in-place mutating
	// method ends with the updated receiver still on top, and a
	// value-producing method pushes its result above it. Method lookup
	// starts at the receiver's own vtable.
	SendMsg

	// SendSuperMsg behaves like SendMsg, except method lookup starts one
	// level up the receiver's super chain. Used from within an override
	// to reach the behavior it is overriding.
	SendSuperMsg

	// === Stack Discipline ===

	// DupStack clones the top value — a new node for every level of its
	// super chain, each with its own copy of the vtable and field slice;
	// the field values themselves are shared — and pushes the clone.
	DupStack

	// DiscardStack pops and discards the top value.
	DiscardStack

	// ReturnStack pops the top value off the current frame, pops the
	// frame itself, and pushes the value onto the caller's frame. This
	// is how a method or block yields its result to its sender.
	ReturnStack
)

// String names an opcode for disassembly and diagnostics.
func (op Op) String() string {
	switch op {
	case Halt:
		return "HALT"
	case NoOp:
		return "NOOP"
	case AccessField:
		return "ACCESS_FIELD"
	case AccessTemp:
		return "ACCESS_TEMP"
	case PushLiteral:
		return "PUSH_LITERAL"
	case AccessClass:
		return "ACCESS_CLASS"
	case StoreField:
		return "STORE_FIELD"
	case StoreTemp:
		return "STORE_TEMP"
	case SendMsg:
		return "SEND_MSG"
	case SendSuperMsg:
		return "SEND_SUPER_MSG"
	case DupStack:
		return "DUP_STACK"
	case DiscardStack:
		return "DISCARD_STACK"
	case ReturnStack:
		return "RETURN_STACK"
	default:
		return "UNKNOWN"
	}
}

// Instruction is a single decoded bytecode operation.
//
// N carries a field/temp/literal index for AccessField, AccessTemp,
// StoreField, StoreTemp and PushLiteral, or an argument count for SendMsg
// and SendSuperMsg. Name carries a class name for AccessClass or a selector
// for SendMsg/SendSuperMsg. The remaining ops use neither field.
type Instruction struct {
	Op   Op
	N    int
	Name string
}
