package vssrecord

import "fmt"

// RecordHeader is the 8-byte header preceding every record in a VSS file:
// a little-endian payload length, a 2-byte signature, and a CRC-16 of the
// payload (always zero on disk for comment records).
type RecordHeader struct {
	Offset    int // record's start offset within its RecordFile
	Length    uint32
	Signature [2]byte
	FileCRC   uint16

	Payload *Reader // view scoped to the Length bytes following the header
}

// ReadRecordHeader reads a RecordHeader from r and returns a payload view
// scoped to the following Length bytes. r is advanced past both the header
// and the payload so the next call starts at the next record.
func ReadRecordHeader(r *Reader) (*RecordHeader, error) {
	offset := r.Offset()
	length, err := r.ReadUint32(true)
	if err != nil {
		return nil, fmt.Errorf("vssrecord: record header length at %d: %w", offset, ErrRecordTruncated)
	}
	sigBytes, err := r.ReadBytes(2)
	if err != nil {
		return nil, fmt.Errorf("vssrecord: record header signature at %d: %w", offset, ErrRecordTruncated)
	}
	crc, err := r.ReadUint16(true)
	if err != nil {
		return nil, fmt.Errorf("vssrecord: record header crc at %d: %w", offset, ErrRecordTruncated)
	}
	payload, err := r.Clone(0, int(length))
	if err != nil {
		return nil, fmt.Errorf("vssrecord: record payload at %d (len %d): %w", offset, length, ErrRecordTruncated)
	}
	if err := r.Skip(int(length)); err != nil {
		return nil, fmt.Errorf("vssrecord: record payload at %d (len %d): %w", offset, length, ErrRecordTruncated)
	}
	h := &RecordHeader{Offset: offset, Length: length, FileCRC: crc, Payload: payload}
	copy(h.Signature[:], sigBytes)
	return h, nil
}

// SignatureString returns the 2-character ASCII signature, e.g. "DH", "EL".
func (h *RecordHeader) SignatureString() string { return string(h.Signature[:]) }

// CheckSignature fails unless the header's signature equals want.
func (h *RecordHeader) CheckSignature(want string) error {
	if h.SignatureString() != want {
		return fmt.Errorf("vssrecord: record at %d: want signature %q, got %q: %w",
			h.Offset, want, h.SignatureString(), ErrBadSignature)
	}
	return nil
}

// CheckCRC validates the record's CRC-16 against its payload. Comment
// records ("MC") are skipped: their on-disk CRC is always zero.
func (h *RecordHeader) CheckCRC() error {
	if h.SignatureString() == "MC" {
		return nil
	}
	got, err := h.Payload.CRC16(h.Payload.Length())
	if err != nil {
		return err
	}
	if got != h.FileCRC {
		return fmt.Errorf("vssrecord: record at %d (%s): stored crc %04x, computed %04x: %w",
			h.Offset, h.SignatureString(), h.FileCRC, got, ErrRecordCrcMismatch)
	}
	return nil
}
