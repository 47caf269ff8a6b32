// Package testutil provides testing utilities for ompfile backends.
//
// This package is intended for use in tests only.
//
// # Deterministic Payloads
//
//	rng := testutil.NewRNG(seed)
//	payload := rng.Bytes(4096)
//
// # Scratch Files
//
//	path := testutil.TempFile(t, "data.bin", []byte("hello"))
//
// # Backend Conformance
//
//	testutil.RunBackendSuite(t, func(t *testing.T) backend.Backend {
//		return posix.New()
//	})
package testutil
