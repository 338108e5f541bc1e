// Package vssrecord implements the low-level, offset-addressed binary record
// reader for Visual SourceSafe item files: bounded reads, alignment checks
// and the CRC-16 checksum used to validate every record but comments.
package vssrecord

import "errors"

// Sentinel error kinds. Wrapped with fmt.Errorf("...: %w", ...) at the call
// site so callers can still test with errors.Is.
var (
	ErrEndOfBuffer     = errors.New("vssrecord: read past end of buffer")
	ErrUnalignedRead   = errors.New("vssrecord: unaligned read")
	ErrRecordTruncated = errors.New("vssrecord: record header parsed past end of file")
	ErrRecordCrcMismatch = errors.New("vssrecord: record CRC-16 mismatch")
	ErrBadSignature    = errors.New("vssrecord: record signature mismatch")
)
