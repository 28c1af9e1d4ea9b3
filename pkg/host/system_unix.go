//go:build unix

package host

import (
	"os"

	"golang.org/x/sys/unix"

	"github.com/sparklang/spark/pkg/vmerrors"
)

// systemPID answers the host process id backing this VM instance.
func systemPID() int64 {
	return int64(os.Getpid())
}

// systemRUsage answers the process's maximum resident set size in
// kilobytes, read via getrusage(2).
func systemRUsage() (int64, error) {
	var ru unix.Rusage
	if err := unix.Getrusage(unix.RUSAGE_SELF, &ru); err != nil {
		return 0, vmerrors.Wrap(err)
	}
	return int64(ru.Maxrss), nil
}
