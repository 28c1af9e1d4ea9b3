// Package task implements the cooperative task mailbox spawn delivers
// primed contexts to.
//
// A spawned task in this model runs to completion the moment it is
// spawned: there is no preemption and a task never suspends mid-
// instruction, so "resuming" a task after spawn has nothing left to do.
// The mailbox is still the delivery point — a FIFO, single-consumer
// channel a host driver drains — so that spawn order is observable and a
// driver embedding the VM has a single place to watch task completion
// go by, not because any further work happens on receipt.
package task

import (
	"github.com/sparklang/spark/pkg/object"
)

// Mailbox is a single-producer (spawn), single-consumer (the host driver's
// Run loop) FIFO channel of contexts that have already run their entry
// block to completion.
type Mailbox struct {
	ch chan *object.Context
}

// NewMailbox returns a mailbox buffered to hold capacity pending contexts
// before Send blocks. A capacity of 0 makes Send synchronous with Run.
func NewMailbox(capacity int) *Mailbox {
	return &Mailbox{ch: make(chan *object.Context, capacity)}
}

// Send delivers a completed task context to the mailbox, in spawn order.
func (m *Mailbox) Send(ctx *object.Context) {
	m.ch <- ctx
}

// Close signals that no further tasks will be spawned; Run's range loop
// exits once the channel drains.
func (m *Mailbox) Close() {
	close(m.ch)
}

// Run drains the mailbox on the calling goroutine, invoking onTask for
// each context in delivery order, until Close is called and the channel
// empties. The host driver calls this after running the program's entry
// block so that any tasks the program spawned are accounted for before
// the process exits.
func (m *Mailbox) Run(onTask func(*object.Context)) {
	for ctx := range m.ch {
		if onTask != nil {
			onTask(ctx)
		}
	}
}
