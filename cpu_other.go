//go:build !linux

package depot

// OSCPUIndex returns [ProcIndex] on this platform.
func OSCPUIndex() int { return ProcIndex() }
