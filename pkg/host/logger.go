package host

import (
	"fmt"
	"os"

	"github.com/sirupsen/logrus"

	"github.com/sparklang/spark/pkg/class"
	"github.com/sparklang/spark/pkg/object"
	"github.com/sparklang/spark/pkg/vmerrors"
)

// bootstrapLogger installs Logger directly under Object. println/print/
// eprintln/eprint write straight to stdout/stderr, bypassing the logging
// framework entirely — a program that wants program output, not a log
// line, gets exactly that. info/trace/debug/warn/error route through the
// shared logrus.Logger the VM was built with, so host-program log lines
// and the interpreter's own internal trace output land on one stream.
func bootstrapLogger(r *class.Registry, log *logrus.Logger) {
	r.DeclareParent("Logger", "Object")
	write := func(w *os.File, newline bool) object.NativeFunc {
		return func(receiver *object.Value, ctx *object.Context) (*object.Value, error) {
			msg, err := argString(ctx, 0, "Logger")
			if err != nil {
				return nil, err
			}
			if newline {
				fmt.Fprintln(w, msg)
			} else {
				fmt.Fprint(w, msg)
			}
			return nil, nil
		}
	}
	level := func(fn func(args ...interface{})) object.NativeFunc {
		return func(receiver *object.Value, ctx *object.Context) (*object.Value, error) {
			msg, err := argString(ctx, 0, "Logger")
			if err != nil {
				return nil, err
			}
			fn(msg)
			return nil, nil
		}
	}
	r.Register(&class.Class{
		Name: "Logger",
		Base: object.VTable{
			"println":  object.NewNative(write(os.Stdout, true)),
			"print":    object.NewNative(write(os.Stdout, false)),
			"eprintln": object.NewNative(write(os.Stderr, true)),
			"eprint":   object.NewNative(write(os.Stderr, false)),
			"info":     object.NewNative(level(log.Info)),
			"trace":    object.NewNative(level(log.Trace)),
			"debug":    object.NewNative(level(log.Debug)),
			"warn":     object.NewNative(level(log.Warn)),
			"error":    object.NewNative(level(log.Error)),
		},
	})
}

func argString(ctx *object.Context, slot int, selector string) (string, error) {
	arg := ctx.Argument(slot)
	if arg == nil || arg.Kind != object.KindString {
		return "", vmerrors.New(vmerrors.InvalidType, "%s: argument is not a String", selector)
	}
	s, _ := arg.Payload.(string)
	return s, nil
}
