package depot

import (
	"unsafe"

	"golang.org/x/sys/unix"
)

// OSCPUIndex returns the operating system's index of the CPU
// the calling thread is running on, via getcpu(2).
// If the call fails, [ProcIndex] is returned instead.
func OSCPUIndex() int {
	var cpu uint32
	if _, _, errno := unix.RawSyscall(
		unix.SYS_GETCPU,
		uintptr(unsafe.Pointer(&cpu)), 0, 0,
	); errno != 0 {
		return ProcIndex()
	}
	return int(cpu)
}
