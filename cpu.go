package depot

import (
	"runtime"
	_ "unsafe" // For go:linkname.
)

//go:linkname runtime_procPin runtime.procPin
func runtime_procPin() int

//go:linkname runtime_procUnpin runtime.procUnpin
func runtime_procUnpin()

// ProcIndex returns the id of the scheduler P running the caller.
// It is in [0, GOMAXPROCS) and is the default CPU index of a [Depot].
func ProcIndex() int {
	pid := runtime_procPin()
	runtime_procUnpin()
	return pid
}

func defaultCPUCount() int { return runtime.GOMAXPROCS(0) }
