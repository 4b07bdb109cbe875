package depot

import (
	"log/slog"
	"strings"
)

type (
	// Flags alter depot behaviour.
	// Flags given to [New] configure the depot,
	// flags given to other methods apply to that call only
	// and are forwarded to the [Reclaimer].
	Flags uint32

	// Option configures optional [Depot] settings.
	Option   func(*settings) error
	settings struct {
		logger   *slog.Logger
		cpuIndex func() int
		cpus     int
	}
)

const (
	// FlagSpinLock requests CPU store locks that never
	// park the caller, for use from contexts that must not block.
	FlagSpinLock Flags = 1 << iota
	// FlagNoAllocate forbids allocating new magazines during the call.
	// A store that would need a fresh magazine reclaims the object instead.
	FlagNoAllocate
)

func (f Flags) String() string {
	if f == 0 {
		return "none"
	}
	var names []string
	for _, flag := range [...]struct {
		Flags
		name string
	}{
		{FlagSpinLock, "spin-lock"},
		{FlagNoAllocate, "no-allocate"},
	} {
		if f&flag.Flags != 0 {
			names = append(names, flag.name)
		}
	}
	return strings.Join(names, "|")
}

// WithLogger sets the logger used for depot diagnostics.
// By default, output is discarded.
func WithLogger(logger *slog.Logger) Option {
	return func(s *settings) error {
		if logger != nil {
			s.logger = logger
		}
		return nil
	}
}

// WithCPUs sets the number of CPU stores and the function
// used to select one for the calling goroutine.
// If index is nil, [ProcIndex] is used.
// Results outside [0, count) are reduced modulo count.
func WithCPUs(count int, index func() int) Option {
	return func(s *settings) error {
		if count < 1 {
			return cpuCountError(count)
		}
		s.cpus = count
		if index != nil {
			s.cpuIndex = index
		}
		return nil
	}
}
