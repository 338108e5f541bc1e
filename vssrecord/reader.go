package vssrecord

import (
	"encoding/binary"
	"fmt"
)

// Reader is a bounds-checked view over an immutable byte buffer. It never
// copies the underlying buffer; Clone produces a new view sharing it.
type Reader struct {
	buf         []byte
	sliceOffset int // absolute offset into buf where this view begins
	length      int // number of bytes visible from sliceOffset
	offset      int // current read position, relative to sliceOffset
}

// NewReader wraps buf in a view covering the whole buffer.
func NewReader(buf []byte) *Reader {
	return &Reader{buf: buf, sliceOffset: 0, length: len(buf)}
}

// Offset returns the current read position, relative to this view.
func (r *Reader) Offset() int { return r.offset }

// SetOffset repositions the read cursor within this view.
func (r *Reader) SetOffset(off int) { r.offset = off }

// Length returns the number of bytes visible through this view.
func (r *Reader) Length() int { return r.length }

// Remaining returns the number of unread bytes in this view.
func (r *Reader) Remaining() int { return r.length - r.offset }

// Clone produces a new bounded view starting additionalOffset bytes past the
// current read position. If length is negative, the clone extends to the end
// of this view.
func (r *Reader) Clone(additionalOffset, length int) (*Reader, error) {
	start := r.offset + additionalOffset
	if start < 0 || start > r.length {
		return nil, fmt.Errorf("vssrecord: clone start out of range: %w", ErrEndOfBuffer)
	}
	if length < 0 {
		length = r.length - start
	}
	if start+length > r.length {
		return nil, fmt.Errorf("vssrecord: clone length out of range: %w", ErrEndOfBuffer)
	}
	return &Reader{buf: r.buf, sliceOffset: r.sliceOffset + start, length: length}, nil
}

// Skip advances the read position by n bytes without returning them.
func (r *Reader) Skip(n int) error {
	if r.offset+n > r.length {
		return fmt.Errorf("vssrecord: skip %d bytes: %w", n, ErrEndOfBuffer)
	}
	r.offset += n
	return nil
}

func (r *Reader) abs(off int) int { return r.sliceOffset + off }

// ReadBytesAt peeks n bytes at relative offset off without moving the cursor.
func (r *Reader) ReadBytesAt(off, n int) ([]byte, error) {
	if off < 0 || n < 0 || off+n > r.length {
		return nil, fmt.Errorf("vssrecord: read %d bytes at %d: %w", n, off, ErrEndOfBuffer)
	}
	start := r.abs(off)
	return r.buf[start : start+n], nil
}

// ReadBytes reads n bytes from the current position and advances it.
func (r *Reader) ReadBytes(n int) ([]byte, error) {
	b, err := r.ReadBytesAt(r.offset, n)
	if err != nil {
		return nil, err
	}
	r.offset += n
	return b, nil
}

func checkAligned(off, mult int, unaligned bool) error {
	if unaligned {
		return nil
	}
	if off%mult != 0 {
		return fmt.Errorf("vssrecord: offset %d not aligned to %d: %w", off, mult, ErrUnalignedRead)
	}
	return nil
}

// ReadUint16 reads a little-endian uint16. Aligned reads (the default)
// require an even offset; pass unaligned=true to relax that.
func (r *Reader) ReadUint16(unaligned bool) (uint16, error) {
	if err := checkAligned(r.offset, 2, unaligned); err != nil {
		return 0, err
	}
	b, err := r.ReadBytes(2)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint16(b), nil
}

// ReadInt16 reads a little-endian int16 with the same alignment rule as
// ReadUint16.
func (r *Reader) ReadInt16(unaligned bool) (int16, error) {
	v, err := r.ReadUint16(unaligned)
	return int16(v), err
}

// ReadUint32 reads a little-endian uint32. Aligned reads require an offset
// that is a multiple of 4; pass unaligned=true to relax that.
func (r *Reader) ReadUint32(unaligned bool) (uint32, error) {
	if err := checkAligned(r.offset, 4, unaligned); err != nil {
		return 0, err
	}
	b, err := r.ReadBytes(4)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint32(b), nil
}

// ReadInt32 reads a little-endian int32 with the same alignment rule as
// ReadUint32.
func (r *Reader) ReadInt32(unaligned bool) (int32, error) {
	v, err := r.ReadUint32(unaligned)
	return int32(v), err
}

// ReadByteStringAt reads n bytes at relative offset off and truncates at the
// first zero byte, without moving the cursor.
func (r *Reader) ReadByteStringAt(off, n int) (string, error) {
	b, err := r.ReadBytesAt(off, n)
	if err != nil {
		return "", err
	}
	if i := indexZero(b); i >= 0 {
		b = b[:i]
	}
	return string(b), nil
}

// ReadByteString reads n bytes from the current position, truncates at the
// first zero byte, and advances the cursor by n (not by the truncated
// length: the field always occupies its full fixed width on disk).
func (r *Reader) ReadByteString(n int) (string, error) {
	s, err := r.ReadByteStringAt(r.offset, n)
	if err != nil {
		return "", err
	}
	r.offset += n
	return s, nil
}

func indexZero(b []byte) int {
	for i, c := range b {
		if c == 0 {
			return i
		}
	}
	return -1
}

// Name is the 40-byte VSS name structure: a flags word, a zero-padded
// 34-byte short name, and an offset into the name file (0 means "no long
// name", the short name is canonical).
type Name struct {
	Flags          uint16
	ShortName      string
	NameFileOffset uint32
}

const nameShortNameLen = 34

// IsProject reports whether the name's is_project bit is set.
func (n Name) IsProject() bool { return n.Flags&1 != 0 }

// IndexName is the lowercased short name, VSS's native sort key.
func (n Name) IndexName() string { return toLowerASCII(n.ShortName) }

func toLowerASCII(s string) string {
	b := []byte(s)
	for i, c := range b {
		if c >= 'A' && c <= 'Z' {
			b[i] = c + ('a' - 'A')
		}
	}
	return string(b)
}

// ReadName reads the fixed 40-byte VSS name structure.
func (r *Reader) ReadName() (Name, error) {
	flags, err := r.ReadUint16(false)
	if err != nil {
		return Name{}, err
	}
	short, err := r.ReadByteString(nameShortNameLen)
	if err != nil {
		return Name{}, err
	}
	off, err := r.ReadUint32(true)
	if err != nil {
		return Name{}, err
	}
	return Name{Flags: flags, ShortName: short, NameFileOffset: off}, nil
}

// CRC16 computes the VSS checksum over the first length bytes of this view,
// starting from its beginning (not the current cursor).
func (r *Reader) CRC16(length int) (uint16, error) {
	if length < 0 || length > r.length {
		return 0, fmt.Errorf("vssrecord: crc16 length %d: %w", length, ErrEndOfBuffer)
	}
	start := r.abs(0)
	return Crc16(r.buf[start : start+length]), nil
}
