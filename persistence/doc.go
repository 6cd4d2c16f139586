// Package persistence saves and loads vector indexes in a self-describing
// binary format.
//
// # File layout
//
// A file is a fixed-size little-endian [FileHeader] followed by the stored
// payload. The payload holds every entry in insertion order:
//
//	uvarint len(vector) | float32 components
//	string  document ID
//	varint  ordinal | varint start | varint end
//	string  segment text
//	bytes   metadata (codec-encoded, empty when absent)
//
// Strings and byte fields are uvarint-length-prefixed. The payload may be
// compressed with zstd or lz4. A CRC32-C over the header (checksum field
// zeroed) and the raw payload detects corruption.
//
// # Atomicity
//
// Save writes a temporary file next to the target, syncs it and renames it
// over the target. On failure the previous file is left untouched.
//
// # Errors
//
// I/O failures are returned as *IOError (errors.Is(err, ErrPersistenceIO)).
// Malformed files fail with ErrCorruptIndexFile.
package persistence
