package vssitemfile

import "errors"

// Sentinel error kinds specific to the item-file model layer. Binary-level
// errors (EndOfBuffer, UnalignedRead, RecordTruncated, RecordCrcMismatch,
// bad signature) come from package vssrecord and are wrapped, not redefined.
var (
	ErrBadHeader           = errors.New("vssitemfile: bad item file header")
	ErrRecordNotFound      = errors.New("vssitemfile: record not found at offset")
	ErrRecordClassMismatch = errors.New("vssitemfile: record at offset decoded as a different type than requested")
	ErrUnrecognizedRevAction = errors.New("vssitemfile: revision record carries an unrecognized action code")
	ErrArgumentOutOfRange  = errors.New("vssitemfile: revision number out of range")
)
