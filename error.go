package depot

import "fmt"

type constError string

const (
	// ErrInvalidCapacity may be returned from [New].
	ErrInvalidCapacity = constError("invalid magazine capacity")
	// ErrInvalidMaxMagazines may be returned from [New]
	// and [Depot.SetMaxMagazines].
	ErrInvalidMaxMagazines = constError("invalid magazine limit")
	// ErrNilReclaimer may be returned from [New].
	ErrNilReclaimer = constError("reclaimer is nil")
	// ErrInvalidCPUCount may be returned from [New]
	// when given a bad [WithCPUs] option.
	ErrInvalidCPUCount = constError("invalid CPU count")
)

func (errStr constError) Error() string { return string(errStr) }

func minCapacityError(capacity int) error {
	return fmt.Errorf(
		"%w: must be >=%d but %d was requested",
		ErrInvalidCapacity, MinimumCapacity, capacity)
}

func maxMagazinesError(count int) error {
	return fmt.Errorf(
		"%w: must be >=0 but %d was requested",
		ErrInvalidMaxMagazines, count)
}

func cpuCountError(count int) error {
	return fmt.Errorf(
		"%w: must be >=1 but %d was requested",
		ErrInvalidCPUCount, count)
}
