// Package vssitemfile implements the VSS item-file model: the generic
// offset-indexed RecordFile, the name file, and the Project/File item file
// variants with their forward- and backward-ordered revision chains.
package vssitemfile

import (
	"fmt"

	"github.com/alegrigoriev/py-vss/vssrecord"
)

// RecordFile loads one on-disk VSS file fully into memory and caches every
// record parsed from it, keyed by on-disk offset. The same physical file may
// be reachable from multiple item handles (shared files); callers are
// expected to de-duplicate RecordFile instances themselves (see package
// vssdb's open-file cache).
type RecordFile struct {
	Filename string
	reader   *vssrecord.Reader
	FileSize int
	records  map[int]any
}

// NewRecordFile wraps an already-read file buffer.
func NewRecordFile(filename string, buf []byte) *RecordFile {
	return &RecordFile{
		Filename: filename,
		reader:   vssrecord.NewReader(buf),
		FileSize: len(buf),
		records:  make(map[int]any),
	}
}

// Reader exposes the underlying file-wide reader, positioned wherever the
// last read left it; callers needing a specific offset should call
// HeaderAt directly instead of relying on cursor position.
func (f *RecordFile) Reader() *vssrecord.Reader { return f.reader }

// HeaderAt reads (or returns the cached) RecordHeader for the record at
// offset.
func (f *RecordFile) HeaderAt(offset int) (*vssrecord.RecordHeader, error) {
	f.reader.SetOffset(offset)
	return vssrecord.ReadRecordHeader(f.reader)
}

// decodeAt reads the record at offset via decode, validating its CRC first
// (decode itself is expected to check the signature). The cache stores the
// decoded value keyed by offset; a second request for the same offset with a
// mismatched type is a RecordClassMismatch.
func decodeAt[T any](f *RecordFile, offset int, decode func(*vssrecord.RecordHeader) (T, error)) (T, error) {
	var zero T
	if cached, ok := f.records[offset]; ok {
		v, ok := cached.(T)
		if !ok {
			return zero, fmt.Errorf("vssitemfile: %s: record at %d: cached as %T, requested as %T: %w",
				f.Filename, offset, cached, zero, ErrRecordClassMismatch)
		}
		return v, nil
	}
	h, err := f.HeaderAt(offset)
	if err != nil {
		return zero, err
	}
	if err := h.CheckCRC(); err != nil {
		return zero, err
	}
	v, err := decode(h)
	if err != nil {
		return zero, err
	}
	f.records[offset] = v
	return v, nil
}

// ReadAllRecords reads sequential records starting at startOffset until
// lastOffset is reached, decoding each with decode and returning them in
// file order. Used for the name file's SN stream, a simple sequential chain
// rather than an offset-linked one.
func ReadAllRecords[T any](f *RecordFile, startOffset, lastOffset int, decode func(*vssrecord.RecordHeader) (T, error)) ([]T, error) {
	var out []T
	offset := startOffset
	for offset < lastOffset {
		v, err := decodeAt(f, offset, decode)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
		h, err := f.HeaderAt(offset) // cheap: header bytes already parsed once by decodeAt
		if err != nil {
			return nil, err
		}
		offset = offset + 8 + int(h.Length)
	}
	return out, nil
}
