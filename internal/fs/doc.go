// Package fs provides filesystem abstractions for testability and fault injection.
//
// The package defines two key interfaces:
//
//   - [File]: an open file with cursor and positional read/write
//   - [FileSystem]: opens, stats and removes files
//
// # Implementations
//
//   - [LocalFS]: Production implementation using standard os package
//   - [FaultyFS]: Test utility for fault injection (simulate I/O errors)
//
// The parallel-I/O runtime opens its files through a FileSystem, so tests can
// make a native open, read, write or close fail:
//
//	ffs := fs.NewFaultyFS(nil)
//	ffs.AddRule("broken", fs.Fault{FailOnRead: true, FailAfterBytes: -1})
//	rt := mpi.NewRuntime(mpi.WithFileSystem(ffs))
//
// A FailOnClose fault reports the error but leaves the underlying file open,
// matching a close that failed at the native layer.
package fs
