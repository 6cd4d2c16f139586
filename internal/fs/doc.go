// Package fs provides filesystem abstractions for testability and fault injection.
//
//   - [LocalFS]: production implementation using the os package
//   - [FaultyFS]: test utility that injects write, sync, close and rename failures
//
// Production code uses fs.Default. Tests inject a [FaultyFS] to check that a
// failed save leaves the previous file in place:
//
//	ffs := fs.NewFaultyFS(nil)
//	ffs.AddRule(".tmp", fs.Fault{FailAfterBytes: 1024})
package fs
