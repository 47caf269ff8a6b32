package backend

// Handle identifies an open file within one backend instance.
type Handle int64

// InvalidHandle is returned by Open on failure.
const InvalidHandle Handle = -1

// Backend is the capability contract implemented by every I/O mechanism.
//
// Implementations must be safe for concurrent use on distinct handles.
// Concurrent calls on the same handle (e.g. Close racing Read) are the
// caller's responsibility.
type Backend interface {
	// Open acquires the native resource for path and returns a fresh handle.
	// Nothing is registered when the native open fails.
	Open(path string) (Handle, error)

	// Close releases the native resource. The handle stays registered if the
	// native close fails.
	Close(h Handle) error

	// Read reads into p at the handle's current position and advances it.
	Read(h Handle, p []byte) (int, error)

	// Write writes p at the handle's current position and advances it.
	Write(h Handle, p []byte) (int, error)

	// Seek moves the current position to the absolute offset.
	Seek(h Handle, offset int64) error

	// ReadAt reads into p at off without touching the current position.
	ReadAt(h Handle, p []byte, off int64) (int, error)

	// WriteAt writes p at off without touching the current position.
	WriteAt(h Handle, p []byte, off int64) (int, error)

	// Type reports which mechanism this backend implements.
	Type() Type

	// Shutdown releases backend-global resources, including handles still open.
	Shutdown() error
}
