// Package mpi is the in-process parallel runtime consumed by the mpiio backend.
//
// It models the part of an MPI library that collective file I/O needs:
//
//   - Runtime: Initialized / InitThread / Finalize, and the world communicator
//   - Comm: Dup / Free, rank and size
//   - File: collective open over a communicator, an individual file pointer
//     (SeekTo, Read, Write) and explicit-offset ReadAt / WriteAt on bytes
//
// The runtime hosts a single rank, so every collective completes locally.
// Files are opened through an fs.FileSystem, which lets tests inject native
// failures. In atomic mode (SetAtomicity) every access to a file is serialised
// in-process and across processes with an advisory flock on the file.
//
// Reads past the end of a file are not errors: like MPI_File_read_at the call
// succeeds and Status.Count reports the bytes actually transferred.
package mpi
