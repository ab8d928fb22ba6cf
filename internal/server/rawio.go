package server

import (
	"errors"
	"os"
	"syscall"

	"golang.org/x/sys/unix"
)

// errWouldBlock is the sentinel readRaw/writeRaw return instead of
// EAGAIN/EWOULDBLOCK, letting callers treat "drained for now" as a
// first-class outcome rather than re-checking two errno values.
var errWouldBlock = errors.New("would block")

func readRaw(fd int, buf []byte) (int, error) {
	n, err := unix.Read(fd, buf)
	if err != nil {
		if err == unix.EAGAIN || err == unix.EWOULDBLOCK {
			return 0, errWouldBlock
		}
		return 0, err
	}
	return n, nil
}

func writeRaw(fd int, buf []byte) (int, error) {
	n, err := unix.Write(fd, buf)
	if err != nil {
		if err == unix.EAGAIN || err == unix.EWOULDBLOCK {
			return n, errWouldBlock
		}
		return n, err
	}
	return n, nil
}

// reapProcess performs a single non-blocking WNOHANG wait on process,
// matching original_source's non-blocking waitpid contract: a miss is
// not retried and is accepted as a liveness leak, not a correctness bug.
func reapProcess(process *os.Process) {
	if process == nil {
		return
	}
	var status syscall.WaitStatus
	_, _ = syscall.Wait4(process.Pid, &status, syscall.WNOHANG, nil)
}
