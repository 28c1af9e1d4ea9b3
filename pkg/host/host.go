// Package host implements the built-in classes a running program talks to
// the outside world through: Logger, System, Stack, Block and Message.
// Nothing in this package is reachable except by message send from
// bytecode or from another native method.
package host

import (
	"github.com/sirupsen/logrus"

	"github.com/sparklang/spark/pkg/class"
	"github.com/sparklang/spark/pkg/task"
)

// Bootstrap registers Logger, System, Stack, Block and Message against r.
// class.Bootstrap and primitive.Bootstrap must both already have run:
// these classes declare "Object" as their parent and System.spawn hands
// off to mailbox, which the caller owns for the life of the VM.
func Bootstrap(r *class.Registry, mailbox *task.Mailbox, log *logrus.Logger) {
	bootstrapLogger(r, log)
	bootstrapSystem(r, mailbox)
	bootstrapStack(r)
	bootstrapBlock(r)
	bootstrapMessage(r)
}
