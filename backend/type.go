package backend

import "strings"

// Type enumerates the selectable backends.
type Type int8

const (
	// MPI is collective parallel file I/O. It is the default.
	MPI Type = iota
	// POSIX uses plain file descriptors.
	POSIX
	// IOURing uses a synchronous io_uring submission/completion queue.
	IOURing
	// HDF5 is reserved and has no implementation.
	HDF5
)

var typeNames = map[Type]string{
	MPI:     "MPI",
	POSIX:   "POSIX",
	IOURing: "IO_URING",
	HDF5:    "HDF5",
}

func (t Type) String() string {
	if name, ok := typeNames[t]; ok {
		return name
	}
	return "UNKNOWN"
}

// Implemented reports whether a backend exists for t.
func (t Type) Implemented() bool {
	return t == MPI || t == POSIX || t == IOURing
}

// ParseType resolves a backend name such as "IO_URING". Matching is
// case-insensitive and ignores surrounding whitespace.
func ParseType(name string) (Type, bool) {
	name = strings.TrimSpace(name)
	for t, n := range typeNames {
		if strings.EqualFold(n, name) {
			return t, true
		}
	}
	return MPI, false
}
