//go:build windows

package host

import (
	"os"

	"github.com/sparklang/spark/pkg/vmerrors"
)

// systemPID answers the host process id; available on every platform via
// the standard library, kept identical to the unix build's surface.
func systemPID() int64 {
	return int64(os.Getpid())
}

// systemRUsage has no portable equivalent of getrusage(2) on Windows
// without cgo; rather than fabricate a number, it reports InvalidOperation
// so a program can detect the platform gap instead of silently reading
// zero.
func systemRUsage() (int64, error) {
	return 0, vmerrors.New(vmerrors.InvalidOperation, "rusage: not supported on this platform")
}
