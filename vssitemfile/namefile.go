package vssitemfile

import (
	"fmt"

	"github.com/alegrigoriev/py-vss/vssrecord"
)

// Name kinds stored in an SN record's (kind, offset) pairs.
const (
	NameKindDos     = 1
	NameKindLong    = 2
	NameKindMacOS   = 3
	NameKindProject = 10
)

// NameHeaderRecord ("HN") is the name file's single header record.
type NameHeaderRecord struct {
	Header    *vssrecord.RecordHeader
	EOFOffset int32
}

func readNameHeader(h *vssrecord.RecordHeader) (*NameHeaderRecord, error) {
	if err := h.CheckSignature(vssrecord.SigNameHeader); err != nil {
		return nil, err
	}
	r := h.Payload
	for i := 0; i < 4; i++ {
		if _, err := r.ReadUint32(true); err != nil {
			return nil, err
		}
	}
	eof, err := r.ReadInt32(true)
	if err != nil {
		return nil, err
	}
	return &NameHeaderRecord{Header: h, EOFOffset: eof}, nil
}

// NameRecord ("SN") carries the long/project/platform variants of one short
// name, addressed by kind.
type NameRecord struct {
	Header *vssrecord.RecordHeader
	Names  map[int]string
}

func (n *NameRecord) Get(kind int, fallback string) string {
	if v, ok := n.Names[kind]; ok {
		return v
	}
	return fallback
}

func readNameRecord(h *vssrecord.RecordHeader) (*NameRecord, error) {
	if err := h.CheckSignature(vssrecord.SigNameEntry); err != nil {
		return nil, err
	}
	r := h.Payload
	count, err := r.ReadInt16(true)
	if err != nil {
		return nil, err
	}
	if err := r.Skip(2); err != nil {
		return nil, err
	}
	strPool, err := r.Clone(int(count)*4, -1)
	if err != nil {
		return nil, err
	}
	names := make(map[int]string, count)
	for i := 0; i < int(count); i++ {
		kind, err := r.ReadInt16(true)
		if err != nil {
			return nil, err
		}
		off, err := r.ReadInt16(true)
		if err != nil {
			return nil, err
		}
		s, err := strPool.ReadByteStringAt(int(off), strPool.Remaining()-int(off))
		if err != nil {
			return nil, err
		}
		names[int(kind)] = s
	}
	return &NameRecord{Header: h, Names: names}, nil
}

// NameFile is the repository-wide side file (names.dat) resolving short
// names to their long/project/platform variants.
type NameFile struct {
	*RecordFile
	Header *NameHeaderRecord
}

// OpenNameFile parses an already-read names.dat buffer.
func OpenNameFile(buf []byte) (*NameFile, error) {
	rf := NewRecordFile("names.dat", buf)
	hdr, err := decodeAt(rf, 0, readNameHeader)
	if err != nil {
		return nil, fmt.Errorf("vssitemfile: names.dat header: %w", err)
	}
	nf := &NameFile{RecordFile: rf, Header: hdr}
	if _, err := ReadAllRecords(rf, 8+int(hdr.Header.Length), int(hdr.EOFOffset), readNameRecord); err != nil {
		return nil, fmt.Errorf("vssitemfile: names.dat records: %w", err)
	}
	return nf, nil
}

// GetNameRecord returns the cached NameRecord at nameFileOffset.
func (nf *NameFile) GetNameRecord(nameFileOffset int) (*NameRecord, error) {
	return decodeAt(nf.RecordFile, nameFileOffset, readNameRecord)
}

// ResolveLongName returns the long (or project) form of name, or its short
// name if it carries no name-file offset.
func (nf *NameFile) ResolveLongName(name vssrecord.Name) (string, error) {
	if name.NameFileOffset == 0 {
		return name.ShortName, nil
	}
	rec, err := nf.GetNameRecord(int(name.NameFileOffset))
	if err != nil {
		return "", err
	}
	kind := NameKindLong
	if name.IsProject() {
		kind = NameKindProject
	}
	return rec.Get(kind, name.ShortName), nil
}
