// Package mmap provides read-only memory-mapped file access.
//
//	m, err := mmap.Open("index.rix")
//	if err != nil { ... }
//	defer m.Close()
//
//	data := m.Bytes()
//
// On Unix the file is mapped with mmap(2) and advised for sequential access.
// Windows maps it with CreateFileMapping/MapViewOfFile. The returned bytes
// are only valid until Close.
package mmap
